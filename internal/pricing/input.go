package pricing

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Input is a lenient numeric request field. It accepts JSON numbers and
// numeric strings. Null, empty and non-numeric values decode as absent so a
// malformed line contributes zero instead of failing the request.
type Input struct {
	decimal.NullDecimal
}

// Number builds a present Input.
func Number(v float64) Input {
	return Input{decimal.NewNullDecimal(decimal.NewFromFloat(v))}
}

func (in *Input) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		in.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	raw := b
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			in.NullDecimal = decimal.NullDecimal{}
			return nil
		}
		raw = []byte(s)
	}
	d, err := decimal.NewFromString(string(bytes.TrimSpace(raw)))
	if err != nil {
		in.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	in.NullDecimal = decimal.NewNullDecimal(d)
	return nil
}

func (in Input) MarshalJSON() ([]byte, error) {
	if !in.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(in.Decimal.String())
}
