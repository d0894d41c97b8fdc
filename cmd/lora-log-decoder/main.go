package main

import "github.com/loralogger/lora-log-decoder/cmd/lora-log-decoder/cmd"

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
