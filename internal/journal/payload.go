package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable marks an event value that is neither JSON nor a legacy
// literal mapping.
var ErrUnparseable = errors.New("unparseable event payload")

// Parse decodes an event value into a map. JSON is tried first. Legacy
// values were stored as literal dict reprs such as {'notes': 'a -> b'},
// with backslash escapes inside the quoted strings.
func Parse(value string) (map[string]any, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty value", ErrUnparseable)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		return decoded, nil
	}

	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: not a mapping", ErrUnparseable)
	}
	decodedLiteral, err := parseLiteral(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	legacy, ok := decodedLiteral.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: not a mapping", ErrUnparseable)
	}
	return legacy, nil
}

// NewValue returns the post-separator part of a field-wise change, or the
// value itself when it holds no separator.
func NewValue(change string) string {
	if _, after, found := strings.Cut(change, Separator); found {
		return after
	}
	return change
}

// Field returns the new value of a named field in a payload.
func Field(payload map[string]any, name string) (string, bool) {
	raw, ok := payload[name]
	if !ok {
		return "", false
	}
	switch value := raw.(type) {
	case string:
		return NewValue(value), true
	case nil:
		return "", true
	default:
		return NewValue(fmt.Sprint(value)), true
	}
}
