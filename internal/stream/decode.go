package stream

import (
	"encoding/json"
	"fmt"
	"strings"

	"smallchain/internal/domain"
)

// DecodeInvocation extracts the tool directive between the first open marker
// and the close marker that follows it. Text before the open marker is
// ignored; a missing close marker takes the remainder. The payload must be a
// JSON object with a non-empty string "name" and an optional "parameters"
// object. Parameters pass through DecodeEmbedded.
func DecodeInvocation(text, open, close string) (domain.ToolInvocation, error) {
	payload := text
	if i := strings.Index(payload, open); i >= 0 {
		payload = payload[i+len(open):]
	}
	if j := strings.Index(payload, close); j >= 0 {
		payload = payload[:j]
	}
	payload = strings.TrimSpace(payload)

	var raw struct {
		Name       any `json:"name"`
		Parameters any `json:"parameters"`
	}
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return domain.ToolInvocation{}, fmt.Errorf("%w: %v", domain.ErrStreamDecode, err)
	}
	name, ok := raw.Name.(string)
	if !ok || strings.TrimSpace(name) == "" {
		return domain.ToolInvocation{}, fmt.Errorf("%w: missing tool name", domain.ErrStreamDecode)
	}

	params := map[string]any{}
	switch p := DecodeEmbedded(raw.Parameters).(type) {
	case nil:
	case map[string]any:
		params = p
	default:
		return domain.ToolInvocation{}, fmt.Errorf("%w: parameters must be an object, got %T", domain.ErrStreamDecode, p)
	}
	return domain.ToolInvocation{Name: name, Parameters: params}, nil
}

// DecodeEmbedded walks objects and arrays and replaces every string that
// holds a JSON object or array with its decoded value. Decoding goes exactly
// one level: strings inside a decoded value are kept as they are. Strings
// that would decode to scalars ("123", "true", "null") stay strings.
func DecodeEmbedded(value any) any {
	switch v := value.(type) {
	case string:
		return decodeString(v)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = DecodeEmbedded(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = DecodeEmbedded(e)
		}
		return out
	default:
		return value
	}
}

func decodeString(s string) any {
	t := strings.TrimSpace(s)
	if t == "" || (t[0] != '{' && t[0] != '[') {
		return s
	}
	var out any
	if err := json.Unmarshal([]byte(t), &out); err != nil {
		return s
	}
	return out
}
