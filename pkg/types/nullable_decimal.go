package types

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// NullableDecimal tracks whether a decimal field was explicitly present in
// JSON. An explicit null sets Valid with a nil Value.
type NullableDecimal struct {
	Valid bool
	Value *decimal.Decimal
}

// UnmarshalJSON implements json.Unmarshaler. Both JSON numbers and quoted
// strings are accepted.
func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}
	if bytes.Equal(trimmed, []byte("null")) {
		n.Valid = true
		n.Value = nil
		return nil
	}

	var parsed decimal.Decimal
	if err := json.Unmarshal(trimmed, &parsed); err != nil {
		return err
	}
	n.Valid = true
	n.Value = &parsed
	return nil
}

// NullDecimal converts to the storage representation.
func (n NullableDecimal) NullDecimal() decimal.NullDecimal {
	if n.Value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*n.Value)
}
