package semtech

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPacketType(t *testing.T) {
	tests := []struct {
		in       byte
		expected PacketType
		name     string
		presence PayloadPresence
	}{
		{0, PushData, "PUSH_DATA", PayloadRequired},
		{1, PushACK, "PUSH_ACK", PayloadNone},
		{2, PullData, "PULL_DATA", PayloadNone},
		{3, PullResp, "PULL_RESP", PayloadRequired},
		{4, PullACK, "PULL_ACK", PayloadNone},
		{5, TXACK, "TX_ACK", PayloadOptional},
		{6, UnknownPacketType, "UNKNOWN", PayloadNone},
		{0xff, UnknownPacketType, "UNKNOWN", PayloadNone},
	}

	for _, tst := range tests {
		assert := require.New(t)

		pt := ParsePacketType(tst.in)
		assert.Equal(tst.expected, pt)
		assert.Equal(tst.name, pt.String())
		assert.Equal(tst.presence, pt.PayloadPresence())
		assert.Equal(tst.expected != UnknownPacketType, pt.Known())
	}
}

func TestPayloadRXPK(t *testing.T) {
	t.Run("single rxpk", func(t *testing.T) {
		assert := require.New(t)

		pl := mustPayload(t, `{"rxpk":[{"time":"2019-11-27T16:21:17.530974Z","tmst":3512348611,"chan":2,"rfch":0,"freq":866.349812,"stat":1,"modu":"LORA","datr":"SF7BW125","codr":"4/6","rssi":-35,"lsnr":5.1,"size":14,"data":"QFMeASaAZkYBRXCQ7SU="}]}`)
		assert.True(pl.HasRXPK())

		rxpk, err := pl.RXPK()
		assert.NoError(err)
		assert.Len(rxpk, 1)

		pk := rxpk[0]
		assert.Equal("QFMeASaAZkYBRXCQ7SU=", pk.Data)
		assert.Equal(`{"time":"2019-11-27T16:21:17.530974Z","tmst":3512348611,"chan":2,"rfch":0,"freq":866.349812,"stat":1,"modu":"LORA","datr":"SF7BW125","codr":"4/6","rssi":-35,"lsnr":5.1,"size":14,"data":"QFMeASaAZkYBRXCQ7SU="}`, string(pk.Raw))

		meta, err := pk.Meta()
		assert.NoError(err)
		assert.Equal("2019-11-27T16:21:17.530974Z", meta.Time)
		assert.Equal(uint32(3512348611), meta.Tmst)
		assert.Equal(uint8(2), meta.Chan)
		assert.Equal(int8(1), meta.Stat)
		assert.Equal("LORA", meta.Modu)
		assert.Equal("SF7BW125", meta.DatR)
		assert.Equal(int16(-35), meta.RSSI)
		assert.Equal(5.1, meta.LSNR)
		assert.Equal(uint16(14), meta.Size)
		assert.Nil(meta.Tmms)
	})

	t.Run("fsk datarate", func(t *testing.T) {
		assert := require.New(t)

		pl := mustPayload(t, `{"rxpk":[{"modu":"FSK","datr":50000,"tmms":1234,"data":"AA=="}]}`)
		rxpk, err := pl.RXPK()
		assert.NoError(err)
		assert.Len(rxpk, 1)
		meta, err := rxpk[0].Meta()
		assert.NoError(err)
		assert.Equal(float64(50000), meta.DatR)
		assert.NotNil(meta.Tmms)
		assert.Equal(int64(1234), *meta.Tmms)
	})

	t.Run("multiple rxpk", func(t *testing.T) {
		assert := require.New(t)

		pl := mustPayload(t, `{"rxpk":[{"data":"AA=="},{"data":"AQ=="}]}`)
		rxpk, err := pl.RXPK()
		assert.NoError(err)
		assert.Len(rxpk, 2)
		assert.Equal("AQ==", rxpk[1].Data)
	})

	t.Run("unexpected meta-data types", func(t *testing.T) {
		tests := []struct {
			name string
			json string
		}{
			{"rssi not a number", `{"rxpk":[{"rssi":"n/a","data":"QFMeASaAZkYBRXCQ7SU="}]}`},
			{"modu not a string", `{"rxpk":[{"modu":{"a":1},"data":"QFMeASaAZkYBRXCQ7SU="}]}`},
			{"chan out of range", `{"rxpk":[{"chan":300,"data":"QFMeASaAZkYBRXCQ7SU="}]}`},
			{"tmst out of range", `{"rxpk":[{"tmst":5000000000,"data":"QFMeASaAZkYBRXCQ7SU="}]}`},
		}

		for _, tst := range tests {
			t.Run(tst.name, func(t *testing.T) {
				assert := require.New(t)

				rxpk, err := mustPayload(t, tst.json).RXPK()
				assert.NoError(err)
				assert.Len(rxpk, 1)
				assert.Equal("QFMeASaAZkYBRXCQ7SU=", rxpk[0].Data)

				_, err = rxpk[0].Meta()
				assert.Error(err)
			})
		}
	})

	t.Run("raw elements keep their order", func(t *testing.T) {
		assert := require.New(t)

		pl := mustPayload(t, `{"rxpk":[{"size":14, "data":"AA==","freq":868.1},{"data":"AQ==","tmst":9007199254740993}]}`)
		rxpk, err := pl.RXPK()
		assert.NoError(err)
		assert.Len(rxpk, 2)
		assert.Equal(`{"size":14, "data":"AA==","freq":868.1}`, string(rxpk[0].Raw))
		assert.Equal(`{"data":"AQ==","tmst":9007199254740993}`, string(rxpk[1].Raw))
	})

	t.Run("no rxpk", func(t *testing.T) {
		assert := require.New(t)

		pl := mustPayload(t, `{"stat":{}}`)
		assert.False(pl.HasRXPK())
		rxpk, err := pl.RXPK()
		assert.NoError(err)
		assert.Nil(rxpk)
	})

	t.Run("not an object", func(t *testing.T) {
		assert := require.New(t)

		pl := mustPayload(t, `[1,2]`)
		assert.False(pl.HasRXPK())
		rxpk, err := pl.RXPK()
		assert.NoError(err)
		assert.Nil(rxpk)
	})

	t.Run("rxpk is not an array", func(t *testing.T) {
		pl := mustPayload(t, `{"rxpk":{"data":"AA=="}}`)
		_, err := pl.RXPK()
		require.EqualError(t, err, "semtech: rxpk must be an array")
	})

	t.Run("missing data", func(t *testing.T) {
		pl := mustPayload(t, `{"rxpk":[{"tmst":1}]}`)
		_, err := pl.RXPK()
		require.EqualError(t, err, "semtech: rxpk[0] has no data field")
	})
}

func TestPayloadStat(t *testing.T) {
	assert := require.New(t)

	pl := mustPayload(t, `{"stat":{"time":"2014-01-12 08:59:28 GMT","lati":46.24,"long":3.2523,"alti":145,"rxnb":2,"rxok":2,"rxfw":2,"ackr":100.0,"dwnb":2,"txnb":2}}`)
	stat, err := pl.Stat()
	assert.NoError(err)
	assert.Equal(&Stat{
		Time: "2014-01-12 08:59:28 GMT",
		Lati: 46.24,
		Long: 3.2523,
		Alti: 145,
		RXNb: 2,
		RXOK: 2,
		RXFW: 2,
		ACKR: 100,
		DWNb: 2,
		TXNb: 2,
	}, stat)

	pl = mustPayload(t, `{"rxpk":[]}`)
	stat, err = pl.Stat()
	assert.NoError(err)
	assert.Nil(stat)
}
