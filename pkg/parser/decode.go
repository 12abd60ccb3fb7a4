package parser

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Log lines are written by several client versions, so field types are
// not trusted. A field of an unexpected type decodes as if it were absent;
// only a line that is not a JSON object is malformed.

// object is a decoded JSON object with its values left raw.
type object map[string]json.RawMessage

// decodeObject decodes data as an object. It returns nil for any other
// JSON value.
func decodeObject(data []byte) object {
	if !isKind(data, '{') {
		return nil
	}
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil
	}
	return o
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}

	*e = Event{
		RequestID: o.id("requestId"),
		CostUSD:   o.amount("costUSD"),
		Timestamp: o.text("timestamp"),
	}
	if m := decodeObject(o["message"]); m != nil {
		e.Message = m.message()
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Message) UnmarshalJSON(data []byte) error {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}
	*m = *o.message()
	return nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *Usage) UnmarshalJSON(data []byte) error {
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}
	*u = o.usage()
	return nil
}

func (o object) message() *Message {
	m := &Message{
		ID:    o.id("id"),
		Model: o.text("model"),
	}
	if u := decodeObject(o["usage"]); u != nil {
		usage := u.usage()
		m.Usage = &usage
	}
	return m
}

func (o object) usage() Usage {
	return Usage{
		InputTokens:              o.count("input_tokens"),
		OutputTokens:             o.count("output_tokens"),
		CacheCreationInputTokens: o.count("cache_creation_input_tokens"),
		CacheReadInputTokens:     o.count("cache_read_input_tokens"),
	}
}

// text returns a string field, or "".
func (o object) text(key string) string {
	raw := o[key]
	if !isKind(raw, '"') {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// id returns an identifier field. Numeric ids keep their literal text.
func (o object) id(key string) string {
	if raw := o[key]; isNumber(raw) {
		return string(raw)
	}
	return o.text(key)
}

// count returns a token count. Whole numbers written with a fraction or
// exponent are accepted; anything else is zero.
func (o object) count(key string) int64 {
	raw := o[key]
	if !isNumber(raw) {
		return 0
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil || !d.IsInteger() {
		return 0
	}
	if d.GreaterThan(maxCount) || d.LessThan(minCount) {
		return 0
	}
	return d.IntPart()
}

// amount returns a number field exactly as written, or nil.
func (o object) amount(key string) *decimal.Decimal {
	raw := o[key]
	if !isNumber(raw) {
		return nil
	}
	d, err := decimal.NewFromString(string(raw))
	if err != nil {
		return nil
	}
	return &d
}

var (
	maxCount = decimal.NewFromInt(1<<63 - 1)
	minCount = decimal.NewFromInt(-1 << 63)
)

func isKind(raw json.RawMessage, first byte) bool {
	return len(raw) > 0 && raw[0] == first
}

func isNumber(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	c := raw[0]
	return c == '-' || (c >= '0' && c <= '9')
}
