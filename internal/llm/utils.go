package llm

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotJSONObject is returned when a reply holds no decodable JSON object.
var ErrNotJSONObject = errors.New("reply is not a json object")

// DataURL encodes data as a base64 data URL.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// StripCodeFence removes markdown code fences (```json ... ```) around a reply.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.Contains(s, "```") {
		return s
	}
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// DecodeObject strips fences and decodes the reply into a JSON object.
// When the reply has prose around the object, the outermost braces are tried.
func DecodeObject(content string) (map[string]any, []byte, error) {
	s := StripCodeFence(content)
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err == nil && m != nil {
		return m, []byte(s), nil
	}
	i, j := strings.Index(s, "{"), strings.LastIndex(s, "}")
	if i < 0 || j <= i {
		return nil, nil, ErrNotJSONObject
	}
	inner := s[i : j+1]
	if err := json.Unmarshal([]byte(inner), &m); err != nil || m == nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrNotJSONObject, err)
	}
	return m, []byte(inner), nil
}
