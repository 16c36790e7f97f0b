// Package journal builds and reads the payloads stored in the event journal.
package journal

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

// unjournalled columns change on every write and carry no history.
var unjournalled = map[string]struct{}{
	"version": {},
	"updated": {},
}

// Snapshot flattens a db-tagged struct into a column keyed map.
func Snapshot(v any) map[string]any {
	out := map[string]any{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return out
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return out
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		column := strings.Split(field.Tag.Get("db"), ",")[0]
		if column == "" || column == "-" {
			continue
		}
		if _, skip := unjournalled[column]; skip {
			continue
		}
		out[column] = plain(rv.Field(i))
	}
	return out
}

func plain(v reflect.Value) any {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	switch value := v.Interface().(type) {
	case time.Time:
		return value.UTC().Format(time.RFC3339)
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	}
	return fmt.Sprint(v.Interface())
}

func render(v any) string {
	switch value := v.(type) {
	case nil:
		return "None"
	case string:
		return value
	case bool:
		if value {
			return "True"
		}
		return "False"
	}
	return fmt.Sprint(v)
}

// Diff returns the columns that differ between two snapshots as
// "<old> -> <new>" strings.
func Diff(before, after map[string]any) map[string]string {
	changes := map[string]string{}
	keys := make([]string, 0, len(after))
	for key := range after {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		oldValue, newValue := before[key], after[key]
		if reflect.DeepEqual(oldValue, newValue) {
			continue
		}
		changes[key] = render(oldValue) + Separator + render(newValue)
	}
	return changes
}

// Separator joins the old and new value of one changed column.
const Separator = " -> "

// CreatePayload encodes the value of a model_create event.
func CreatePayload(v any) (string, error) {
	return encode(map[string]any{"new": Snapshot(v)})
}

// DeletePayload encodes the value of a model_delete event.
func DeletePayload(v any) (string, error) {
	return encode(map[string]any{"old": Snapshot(v)})
}

// UpdatePayload encodes the value of a model_update event. It reports false
// when nothing journalled changed.
func UpdatePayload(before, after any) (string, bool, error) {
	changes := Diff(Snapshot(before), Snapshot(after))
	if len(changes) == 0 {
		return "", false, nil
	}
	value, err := encode(changes)
	return value, true, err
}

func encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode event payload: %w", err)
	}
	return string(raw), nil
}
