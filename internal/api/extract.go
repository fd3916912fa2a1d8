package api

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"prepcoach/internal/errors"

	"github.com/go-viper/mapstructure/v2"
	"github.com/jmespath-community/go-jmespath"
)

// Locate returns the first non-null value found at one of the JMESPath
// expressions, tried in order. The backend has shipped several envelope
// shapes for the same payload, so every read goes through a fallback list.
func Locate(data any, paths ...string) (any, bool) {
	if data == nil {
		return nil, false
	}
	for _, path := range paths {
		value, err := jmespath.Search(path, data)
		if err != nil || value == nil {
			continue
		}
		return value, true
	}
	return nil, false
}

// LocateWithParent is Locate that also returns the object holding the match,
// found by dropping the last segment of the matching dotted path. The parent
// of a top-level key is data itself; "@" has no parent.
func LocateWithParent(data any, paths ...string) (value, parent any, ok bool) {
	if data == nil {
		return nil, nil, false
	}
	for _, path := range paths {
		found, err := jmespath.Search(path, data)
		if err != nil || found == nil {
			continue
		}
		switch i := strings.LastIndex(path, "."); {
		case path == "@":
		case i < 0:
			parent = data
		default:
			parent, _ = jmespath.Search(path[:i], data)
		}
		return found, parent, true
	}
	return nil, nil, false
}

// LocateString is Locate for scalar values rendered as strings
func LocateString(data any, paths ...string) string {
	value, ok := Locate(data, paths...)
	if !ok {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return ""
	}
}

// Decode locates a payload and decodes it leniently into T. Numbers sent as
// strings are accepted and key matching ignores case and underscores, so
// snake_case and camelCase payloads both decode.
func Decode[T any](data any, paths ...string) (T, error) {
	var out T
	value, ok := Locate(data, paths...)
	if !ok {
		return out, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "response is missing the expected data", nil).
			WithContext("paths", strings.Join(paths, " | "))
	}
	if err := decodeValue(value, &out); err != nil {
		return out, err
	}
	return out, nil
}

// DecodeList is Decode for collections. The first path holding a list wins;
// a missing list decodes as empty.
func DecodeList[T any](data any, paths ...string) ([]T, error) {
	var value any
	found := false
	for _, path := range paths {
		candidate, ok := Locate(data, path)
		if !ok {
			continue
		}
		found = true
		if _, isList := candidate.([]any); isList {
			value = candidate
			break
		}
	}
	if value == nil {
		if found {
			return nil, errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "response list has an unexpected shape", nil).
				WithContext("paths", strings.Join(paths, " | "))
		}
		return []T{}, nil
	}
	out := []T{}
	if err := decodeValue(value, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(value any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			lenientTimeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		MatchName:        matchName,
		Result:           target,
	})
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeInvalidFormat, "cannot build response decoder", err)
	}
	if err := decoder.Decode(value); err != nil {
		return errors.NewAPIError(errors.ErrCodeUnexpectedResponse, "response has an unexpected shape", err)
	}
	return nil
}

// timeLayouts are the timestamp spellings seen from the backend
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// lenientTimeHook parses timestamps in any known layout; unparseable values
// decode as the zero time instead of failing the whole payload
func lenientTimeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, v); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, nil
	case float64:
		return time.Unix(int64(v), 0).UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return data, nil
	}
}

// matchName compares keys ignoring case, underscores and dashes
func matchName(mapKey, fieldName string) bool {
	return normalizeKey(mapKey) == normalizeKey(fieldName)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.NewReplacer("_", "", "-", "").Replace(s))
}
