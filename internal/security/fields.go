package security

import (
	"reflect"
	"strings"
)

// textField is a settable string or *string field found on a form struct.
type textField struct {
	name  string
	value reflect.Value
}

func (f textField) get() (string, bool) {
	if f.value.Kind() == reflect.Pointer {
		if f.value.IsNil() {
			return "", false
		}
		return f.value.Elem().String(), true
	}
	return f.value.String(), true
}

func (f textField) set(s string) {
	if f.value.Kind() == reflect.Pointer {
		if !f.value.IsNil() {
			f.value.Elem().SetString(s)
		}
		return
	}
	f.value.SetString(s)
}

// textFields collects free-text fields of the struct v points to, descending
// into embedded structs. Fields tagged `sanitize:"-"` are skipped.
func textFields(v any) []textField {
	val := reflect.ValueOf(v)
	if val.Kind() != reflect.Pointer || val.IsNil() {
		return nil
	}
	val = val.Elem()
	if val.Kind() != reflect.Struct {
		return nil
	}
	var out []textField
	collect(val, &out)
	return out
}

func collect(val reflect.Value, out *[]textField) {
	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		sf := typ.Field(i)
		field := val.Field(i)
		if sf.Tag.Get("sanitize") == "-" {
			continue
		}
		if sf.Anonymous {
			switch {
			case field.Kind() == reflect.Struct:
				collect(field, out)
			case field.Kind() == reflect.Pointer && !field.IsNil() && field.Elem().Kind() == reflect.Struct:
				collect(field.Elem(), out)
			}
			continue
		}
		if !sf.IsExported() || !field.CanSet() {
			continue
		}
		switch {
		case field.Kind() == reflect.String:
		case field.Kind() == reflect.Pointer && sf.Type.Elem().Kind() == reflect.String:
		default:
			continue
		}
		*out = append(*out, textField{name: fieldName(sf), value: field})
	}
}

func fieldName(sf reflect.StructField) string {
	if tag := sf.Tag.Get("json"); tag != "" {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return sf.Name
}
