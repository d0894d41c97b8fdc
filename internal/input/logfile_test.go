package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readAll(ch chan Record) []Record {
	var out []Record
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestLogReaderSource(t *testing.T) {
	assert := require.New(t)

	in := strings.Join([]string{
		"2019-11-27 16:21:17.530974, b827ebfffe123456, AgAAAAECAwQFBgcI",
		"",
		"garbage",
		"2019-11-27 16:21:18,b827ebfffe123456,AgABAgECAwQFBgcI,extra",
	}, "\n")

	s := NewLogReaderSource("lora.log", strings.NewReader(in))
	records := readAll(s.RecordChan())
	assert.NoError(s.Close())

	assert.Equal([]Record{
		{
			Source:    "lora.log",
			Line:      1,
			Timestamp: "2019-11-27 16:21:17.530974",
			GatewayID: "b827ebfffe123456",
			Base64:    "AgAAAAECAwQFBgcI",
		},
		{
			Source:    "lora.log",
			Line:      4,
			Timestamp: "2019-11-27 16:21:18",
			GatewayID: "b827ebfffe123456",
			Base64:    "AgABAgECAwQFBgcI",
		},
	}, records)
}

func TestLogReaderSourceClose(t *testing.T) {
	assert := require.New(t)

	in := strings.Repeat("ts,gw,AA==\n", 10)
	s := NewLogReaderSource("lora.log", strings.NewReader(in))

	// read one record, then close while the reader is blocked on send
	r := <-s.RecordChan()
	assert.Equal(1, r.Line)
	assert.NoError(s.Close())

	// the channel is closed after Close returns
	for range s.RecordChan() {
	}
}

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		in       string
		expected Record
		ok       bool
	}{
		{
			in:       "a,b,c",
			expected: Record{Timestamp: "a", GatewayID: "b", Base64: "c"},
			ok:       true,
		},
		{
			in:       " a , b , c \r",
			expected: Record{Timestamp: "a", GatewayID: "b", Base64: "c"},
			ok:       true,
		},
		{
			in: "a,b",
		},
		{
			in: "",
		},
	}

	for _, tst := range tests {
		r, ok := parseLogLine(tst.in)
		require.Equal(t, tst.ok, ok)
		require.Equal(t, tst.expected, r)
	}
}
