package lib

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	decimalType = reflect.TypeFor[decimal.Decimal]()
	uuidType    = reflect.TypeFor[uuid.UUID]()
)

// DecodeFields fills dst (a pointer to struct) from a JSON object one field at a
// time. A value of the wrong type is reported under its key and the remaining
// fields are still decoded. Slices of structs are decoded element by element
// with dotted keys such as "order_lines.0.quantity".
func DecodeFields(data []byte, dst any) *ValidationError {
	verr := NewValidationError()
	decodeObject(data, reflect.ValueOf(dst).Elem(), "", verr)
	return verr
}

func decodeObject(data []byte, rv reflect.Value, prefix string, verr *ValidationError) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		if prefix == "" {
			verr.Add("body", "The request body must be a valid JSON object.")
			return
		}
		verr.Add(prefix, fmt.Sprintf("The %s field must be an object.", displayName(prefix)))
		return
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}
		value, ok := raw[name]
		if !ok || isNull(value) {
			continue
		}
		key := joinKey(prefix, name)
		decodeField(value, rv.Field(i), key, verr)
	}
}

func decodeField(value json.RawMessage, fv reflect.Value, key string, verr *ValidationError) {
	ft := fv.Type()

	// []Struct and *[]Struct are decoded per element so nested keys can be reported
	sliceType := ft
	if sliceType.Kind() == reflect.Pointer {
		sliceType = sliceType.Elem()
	}
	if sliceType.Kind() == reflect.Slice && sliceType.Elem().Kind() == reflect.Struct {
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			verr.Add(key, fmt.Sprintf("The %s field must be an array.", displayName(key)))
			return
		}
		slice := reflect.MakeSlice(sliceType, len(items), len(items))
		for j, item := range items {
			decodeObject(item, slice.Index(j), joinKey(key, strconv.Itoa(j)), verr)
		}
		if ft.Kind() == reflect.Pointer {
			ptr := reflect.New(sliceType)
			ptr.Elem().Set(slice)
			fv.Set(ptr)
			return
		}
		fv.Set(slice)
		return
	}

	target := reflect.New(ft)
	if err := json.Unmarshal(value, target.Interface()); err != nil {
		verr.Add(key, typeMessage(key, ft))
		return
	}
	fv.Set(target.Elem())
}

func typeMessage(key string, t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := displayName(key)
	switch {
	case t == decimalType:
		return fmt.Sprintf("The %s field must be a number.", name)
	case t == uuidType:
		return fmt.Sprintf("The %s field must be a valid identifier.", name)
	}
	switch t.Kind() {
	case reflect.String:
		return fmt.Sprintf("The %s field must be a string.", name)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return fmt.Sprintf("The %s field must be an integer.", name)
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("The %s field must be a number.", name)
	case reflect.Bool:
		return fmt.Sprintf("The %s field must be true or false.", name)
	case reflect.Slice, reflect.Array:
		return fmt.Sprintf("The %s field must be an array.", name)
	}
	return fmt.Sprintf("The %s field is invalid.", name)
}

func jsonName(sf reflect.StructField) string {
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return sf.Name
	}
	return name
}

func isNull(value json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(value), []byte("null"))
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// displayName turns a top-level key into words ("client_name" -> "client name").
// Nested keys stay as-is so the client can locate the element.
func displayName(key string) string {
	if strings.Contains(key, ".") {
		return key
	}
	return strings.ReplaceAll(key, "_", " ")
}
