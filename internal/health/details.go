package health

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DecodeDetails parses the stored detail text into a map. Decoding never
// fails the caller: undecodable text is returned unchanged so the raw value
// still reaches prompts and API responses.
func DecodeDetails(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]any{}
	}
	decoded := map[string]any{}
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return raw
	}
	if decoded == nil {
		return map[string]any{}
	}
	return decoded
}

// EncodeDetails serializes a detail map for storage. A nil map and a map
// that cannot marshal both store as an empty object.
func EncodeDetails(details map[string]any) string {
	if details == nil {
		return "{}"
	}
	encoded, err := json.Marshal(details)
	if err != nil {
		return "{}"
	}
	return string(encoded)
}

// DetailString renders a single detail value the way prompts and CSV rows
// need it: scalars as text, nested values re-encoded as JSON.
func DetailString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case json.Number:
		return v.String()
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	}
}
