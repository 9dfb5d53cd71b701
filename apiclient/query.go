package apiclient

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// RawQuery is an already encoded query string. EncodeParams passes it
// through untouched.
type RawQuery string

// EncodeParams serializes params into a query string using bracket
// notation, the format the CMS parses:
//
//	filters[title][$eq]=hello%20world&fields[0]=title&pagination[page]=1
//
// Keys are written literally and only values are percent-encoded. params
// may be a struct (json tags and omitempty are honoured, fields keep their
// declaration order), a map with string keys (keys are sorted) or a
// RawQuery. Nil values are skipped.
func EncodeParams(params any) (string, error) {
	if raw, ok := params.(RawQuery); ok {
		return string(raw), nil
	}
	var pairs []string
	if err := encodeValue(&pairs, "", reflect.ValueOf(params)); err != nil {
		return "", err
	}
	return strings.Join(pairs, "&"), nil
}

var textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()

func encodeValue(pairs *[]string, key string, v reflect.Value) error {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}

	if v.CanInterface() && v.Type().Implements(textMarshalerType) {
		text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return fmt.Errorf("param %s: %w", key, err)
		}
		return addPair(pairs, key, string(text))
	}

	switch v.Kind() {
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("param %s: map keys must be strings, got %s", key, v.Type().Key())
		}
		keys := make([]string, 0, v.Len())
		for _, k := range v.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for _, k := range keys {
			mv := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
			if err := encodeValue(pairs, nestKey(key, k), mv); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		return encodeStruct(pairs, key, v)

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := encodeValue(pairs, key+"["+strconv.Itoa(i)+"]", v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.String:
		return addPair(pairs, key, v.String())
	case reflect.Bool:
		return addPair(pairs, key, strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return addPair(pairs, key, strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return addPair(pairs, key, strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return addPair(pairs, key, strconv.FormatFloat(v.Float(), 'f', -1, 64))
	}
	return fmt.Errorf("param %s: unsupported type %s", key, v.Type())
}

func encodeStruct(pairs *[]string, key string, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		embedded := field.Anonymous && indirectKind(field.Type) == reflect.Struct
		if !field.IsExported() && !embedded {
			continue
		}
		name, omitEmpty, skip := jsonField(field)
		if skip {
			continue
		}
		fv := v.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		if embedded && name == "" {
			if err := encodeValue(pairs, key, fv); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			name = field.Name
		}
		if err := encodeValue(pairs, nestKey(key, name), fv); err != nil {
			return err
		}
	}
	return nil
}

func jsonField(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty, false
}

func indirectKind(t reflect.Type) reflect.Kind {
	if t.Kind() == reflect.Pointer {
		return t.Elem().Kind()
	}
	return t.Kind()
}

func nestKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "[" + key + "]"
}

func addPair(pairs *[]string, key, value string) error {
	if key == "" {
		return fmt.Errorf("params must be a struct or a map, got a bare value %q", value)
	}
	*pairs = append(*pairs, key+"="+escapeValue(value))
	return nil
}

// escapeValue percent-encodes everything but unreserved characters, with
// spaces as %20.
func escapeValue(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
