package codec

import (
	"encoding/hex"
	"fmt"
)

// Hex renders b as lowercase hex without separators.
func Hex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexByte renders b as 0x followed by two lowercase hex digits.
func HexByte(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}
