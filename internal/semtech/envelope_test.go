package semtech

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/brocaar/lorawan"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/loralogger/lora-log-decoder/internal/codec"
)

// marshalEnvelope is the inverse of Decode, used to build test fixtures.
func marshalEnvelope(e Envelope) []byte {
	out := []byte{e.ProtocolVersion, e.RandomToken[0], e.RandomToken[1], e.Identifier}
	out = append(out, e.GatewayID[:]...)
	if e.Payload != nil {
		out = append(out, e.Payload.Raw()...)
	}
	return out
}

func mustPayload(t *testing.T, s string) *Payload {
	pl, err := decodePayload([]byte(s))
	require.NoError(t, err)
	return pl
}

func TestDecode(t *testing.T) {
	gatewayID := lorawan.EUI64{0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34, 0x56}

	tests := []struct {
		name          string
		in            []byte
		expected      Envelope
		expectedError error
	}{
		{
			name: "header only",
			in:   []byte{0x02, 0xab, 0xcd, 0x02, 0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34, 0x56},
			expected: Envelope{
				ProtocolVersion: 2,
				RandomToken:     [2]byte{0xab, 0xcd},
				Identifier:      2,
				GatewayID:       gatewayID,
			},
		},
		{
			name:          "11 bytes",
			in:            []byte{0x02, 0xab, 0xcd, 0x02, 0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34},
			expectedError: codec.ErrTooShort,
		},
		{
			name:          "empty",
			in:            nil,
			expectedError: codec.ErrTooShort,
		},
		{
			name:          "invalid utf-8",
			in:            append([]byte{0x02, 0xab, 0xcd, 0x00, 0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34, 0x56}, 0xff, 0xfe, '{', '}'),
			expectedError: codec.ErrMalformedPayload,
		},
		{
			name:          "invalid json",
			in:            append([]byte{0x02, 0xab, 0xcd, 0x00, 0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34, 0x56}, []byte(`{"rxpk":`)...),
			expectedError: codec.ErrMalformedPayload,
		},
		{
			name:          "whitespace only payload",
			in:            append([]byte{0x02, 0xab, 0xcd, 0x00, 0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34, 0x56}, ' '),
			expectedError: codec.ErrMalformedPayload,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)

			e, err := Decode(tst.in)
			if tst.expectedError != nil {
				assert.True(errors.Is(err, tst.expectedError), "unexpected error: %v", err)
				assert.Equal(Envelope{}, e)
				return
			}

			assert.NoError(err)
			assert.Equal(tst.expected, e)
		})
	}
}

func TestDecodePayload(t *testing.T) {
	header := []byte{0x02, 0x01, 0x02, 0x00, 1, 2, 3, 4, 5, 6, 7, 8}

	tests := []struct {
		name     string
		payload  string
		expected interface{}
	}{
		{
			name:     "object",
			payload:  `{"stat":{"rxnb":2}}`,
			expected: map[string]interface{}{"stat": map[string]interface{}{"rxnb": float64(2)}},
		},
		{
			name:     "empty object",
			payload:  `{}`,
			expected: map[string]interface{}{},
		},
		{
			name:     "array",
			payload:  `[1,"a"]`,
			expected: []interface{}{float64(1), "a"},
		},
		{
			name:     "scalar",
			payload:  `"ok"`,
			expected: "ok",
		},
		{
			name:     "null",
			payload:  `null`,
			expected: nil,
		},
	}

	for _, tst := range tests {
		t.Run(tst.name, func(t *testing.T) {
			assert := require.New(t)

			e, err := Decode(append(append([]byte{}, header...), tst.payload...))
			assert.NoError(err)
			assert.NotNil(e.Payload)
			assert.Equal(tst.expected, e.Payload.Value())
			assert.Equal(json.RawMessage(tst.payload), e.Payload.Raw())
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	assert := require.New(t)

	in := append([]byte{0x02, 0x12, 0x34, 0x00, 0xaa, 0x55, 0x5a, 0x00, 0x00, 0x00, 0x01, 0x01}, []byte(`{"rxpk":[{"data":"QFMeASaAZkYBRXCQ7SU="}]}`)...)

	e, err := DecodeBase64(base64.StdEncoding.EncodeToString(in))
	assert.NoError(err)
	assert.Equal(byte(2), e.ProtocolVersion)
	assert.Equal(PushData, e.PacketType())
	assert.Equal("aa555a0000000101", e.GatewayID.String())
	assert.True(e.Payload.HasRXPK())

	e, err = DecodeBase64(base64.RawStdEncoding.EncodeToString(in))
	assert.NoError(err)
	assert.Equal("aa555a0000000101", e.GatewayID.String())

	_, err = DecodeBase64("not base64!")
	assert.True(errors.Is(err, codec.ErrInvalidEncoding))
}

func TestEnvelopeUnmarshalBinary(t *testing.T) {
	Convey("Given a decoded envelope", t, func() {
		e := Envelope{
			ProtocolVersion: 2,
			RandomToken:     [2]byte{1, 2},
			Identifier:      byte(PushACK),
			GatewayID:       lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		}
		orig := e

		Convey("When unmarshaling invalid data", func() {
			err := e.UnmarshalBinary([]byte{1, 2, 3})

			Convey("Then ErrTooShort is returned and the envelope is unchanged", func() {
				So(errors.Is(err, codec.ErrTooShort), ShouldBeTrue)
				So(e, ShouldResemble, orig)
			})
		})

		Convey("When unmarshaling valid data", func() {
			in := marshalEnvelope(Envelope{
				ProtocolVersion: 1,
				Identifier:      byte(PullData),
				GatewayID:       lorawan.EUI64{8, 7, 6, 5, 4, 3, 2, 1},
			})
			So(e.UnmarshalBinary(in), ShouldBeNil)

			Convey("Then the envelope has been replaced", func() {
				So(e.ProtocolVersion, ShouldEqual, byte(1))
				So(e.PacketType(), ShouldEqual, PullData)
				So(e.GatewayID, ShouldEqual, lorawan.EUI64{8, 7, 6, 5, 4, 3, 2, 1})
				So(e.Payload, ShouldBeNil)
			})
		})
	})
}

func TestEnvelopeRoundTrip(t *testing.T) {
	tests := []Envelope{
		{
			ProtocolVersion: 2,
			RandomToken:     [2]byte{0xde, 0xad},
			Identifier:      byte(PushData),
			GatewayID:       lorawan.EUI64{0xb8, 0x27, 0xeb, 0xff, 0xfe, 0x12, 0x34, 0x56},
			Payload:         mustPayload(t, `{"rxpk":[{"tmst":3512348611,"freq":868.1,"data":"QFMeASaAZkYBRXCQ7SU="}]}`),
		},
		{
			ProtocolVersion: 2,
			RandomToken:     [2]byte{0x00, 0x01},
			Identifier:      byte(TXACK),
			GatewayID:       lorawan.EUI64{1, 1, 1, 1, 1, 1, 1, 1},
		},
		{
			ProtocolVersion: 1,
			Identifier:      0x42,
			Payload:         mustPayload(t, `null`),
		},
	}

	for _, tst := range tests {
		assert := require.New(t)

		b := marshalEnvelope(tst)
		out, err := Decode(b)
		assert.NoError(err)
		assert.Equal(tst, out)

		// decoding is deterministic
		again, err := Decode(b)
		assert.NoError(err)
		assert.Equal(out, again)
	}
}

func TestDecodeDoesNotAlias(t *testing.T) {
	assert := require.New(t)

	in := append([]byte{0x02, 0x01, 0x02, 0x00, 1, 2, 3, 4, 5, 6, 7, 8}, []byte(`{"a":1}`)...)
	e, err := Decode(in)
	assert.NoError(err)

	for i := range in {
		in[i] = 0
	}
	assert.Equal(lorawan.EUI64{1, 2, 3, 4, 5, 6, 7, 8}, e.GatewayID)
	assert.Equal(json.RawMessage(`{"a":1}`), e.Payload.Raw())
}
