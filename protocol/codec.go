package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

var (
	ErrEmptyMessage = errors.New("protocol: empty message")
	ErrMalformed    = errors.New("protocol: malformed message")
	ErrMissingType  = errors.New("protocol: missing type")
)

// Encode marshals payload as a JSON object and adds the type field to it.
// A nil payload encodes the bare {"type":t} object.
func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("trying to encode message with empty type")
	}
	head, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	out := append([]byte(`{"type":`), head...)
	if payload == nil {
		return append(out, '}'), nil
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	if len(pb) < 2 || pb[0] != '{' {
		return nil, fmt.Errorf("payload for %q is not a JSON object", t)
	}
	if len(pb) > 2 {
		out = append(out, ',')
	}
	return append(out, pb[1:]...), nil
}

// DecodeType validates b and returns its type discriminator without
// decoding the rest of the message.
func DecodeType(b []byte) (string, error) {
	if len(b) == 0 {
		return "", ErrEmptyMessage
	}
	if !gjson.ValidBytes(b) || !gjson.ParseBytes(b).IsObject() {
		return "", ErrMalformed
	}
	res := gjson.GetBytes(b, "type")
	if res.Type != gjson.String || res.Str == "" {
		return "", ErrMissingType
	}
	return res.Str, nil
}

func DecodePayload[T any](b []byte) (T, error) {
	var out T
	if len(b) == 0 {
		return out, ErrEmptyMessage
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return out, nil
}
