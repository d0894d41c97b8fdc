package semtech

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Payload holds the JSON value carried by an envelope. The value is kept
// verbatim, its shape depends on the packet type.
type Payload struct {
	raw   json.RawMessage
	value interface{}
}

// Value returns the decoded JSON value (map[string]interface{},
// []interface{}, string, float64, bool or nil).
func (p *Payload) Value() interface{} {
	return p.value
}

// Raw returns the JSON text as received.
func (p *Payload) Raw() json.RawMessage {
	return p.raw
}

// Object returns the payload as JSON object. The second return value is
// false when the top-level value is not an object.
func (p *Payload) Object() (map[string]interface{}, bool) {
	m, ok := p.value.(map[string]interface{})
	return m, ok
}

// MarshalJSON implements json.Marshaler.
func (p *Payload) MarshalJSON() ([]byte, error) {
	return p.raw, nil
}

// RXPK is a single rxpk element of a PUSH_DATA payload. Only the data field
// is required, the radio meta-data is kept as received.
type RXPK struct {
	Data string `mapstructure:"data"`

	// Raw holds the element as it was received.
	Raw json.RawMessage `mapstructure:"-"`
}

// RXPKMeta holds the radio meta-data of an rxpk element.
type RXPKMeta struct {
	Time string      `json:"time,omitempty"`
	Tmms *int64      `json:"tmms,omitempty"`
	Tmst uint32      `json:"tmst"`
	Freq float64     `json:"freq"`
	Chan uint8       `json:"chan"`
	RFCh uint8       `json:"rfch"`
	Stat int8        `json:"stat"`
	Modu string      `json:"modu"`
	DatR interface{} `json:"datr"`
	CodR string      `json:"codr,omitempty"`
	RSSI int16       `json:"rssi"`
	LSNR float64     `json:"lsnr"`
	Size uint16      `json:"size"`
}

// Meta decodes the radio meta-data of the element. An error is returned
// when a field has an unexpected type or does not fit its Go type, the
// element itself stays usable.
func (r RXPK) Meta() (RXPKMeta, error) {
	var m RXPKMeta
	if len(r.Raw) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(r.Raw, &m); err != nil {
		return RXPKMeta{}, errors.Wrap(err, "semtech: decode rxpk meta-data error")
	}
	return m, nil
}

// Stat is the gateway status object of a PUSH_DATA payload.
type Stat struct {
	Time string  `mapstructure:"time" json:"time"`
	Lati float64 `mapstructure:"lati" json:"lati,omitempty"`
	Long float64 `mapstructure:"long" json:"long,omitempty"`
	Alti int32   `mapstructure:"alti" json:"alti,omitempty"`
	RXNb uint32  `mapstructure:"rxnb" json:"rxnb"`
	RXOK uint32  `mapstructure:"rxok" json:"rxok"`
	RXFW uint32  `mapstructure:"rxfw" json:"rxfw"`
	ACKR float64 `mapstructure:"ackr" json:"ackr"`
	DWNb uint32  `mapstructure:"dwnb" json:"dwnb"`
	TXNb uint32  `mapstructure:"txnb" json:"txnb"`
}

// HasRXPK returns true when the payload is an object with an rxpk key.
func (p *Payload) HasRXPK() bool {
	m, ok := p.Object()
	if !ok {
		return false
	}
	_, ok = m["rxpk"]
	return ok
}

// RXPK returns the rxpk elements of the payload. It returns nil when the
// payload does not contain an rxpk key.
func (p *Payload) RXPK() ([]RXPK, error) {
	m, ok := p.Object()
	if !ok {
		return nil, nil
	}
	v, ok := m["rxpk"]
	if !ok {
		return nil, nil
	}

	items, ok := v.([]interface{})
	if !ok {
		return nil, errors.New("semtech: rxpk must be an array")
	}

	var raw struct {
		RXPK []json.RawMessage `json:"rxpk"`
	}
	if err := json.Unmarshal(p.raw, &raw); err != nil {
		return nil, errors.Wrap(err, "semtech: unmarshal rxpk error")
	}
	if len(raw.RXPK) != len(items) {
		return nil, errors.New("semtech: rxpk element count mismatch")
	}

	out := make([]RXPK, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("semtech: rxpk[%d] must be an object", i)
		}
		if _, ok := obj["data"]; !ok {
			return nil, errors.Errorf("semtech: rxpk[%d] has no data field", i)
		}

		var pk RXPK
		if err := decodeObject(map[string]interface{}{"data": obj["data"]}, &pk); err != nil {
			return nil, errors.Wrapf(err, "semtech: decode rxpk[%d] error", i)
		}
		pk.Raw = raw.RXPK[i]
		out = append(out, pk)
	}

	return out, nil
}

// Stat returns the stat object of the payload or nil when absent.
func (p *Payload) Stat() (*Stat, error) {
	m, ok := p.Object()
	if !ok {
		return nil, nil
	}
	v, ok := m["stat"]
	if !ok {
		return nil, nil
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.New("semtech: stat must be an object")
	}

	var s Stat
	if err := decodeObject(obj, &s); err != nil {
		return nil, errors.Wrap(err, "semtech: decode stat error")
	}
	return &s, nil
}

func decodeObject(in map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}
