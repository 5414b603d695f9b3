package reflect

import (
	"fmt"
	"reflect"
	"strings"
)

func TypeName[T any]() string {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		t = reflect.TypeOf((*T)(nil)).Elem()
	}
	return t.String()
}

// IsNil reports whether v is nil or a typed nil such as a nil pointer
// stored in an interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	default:
		return false
	}
}

// Field is a struct field tagged for injection.
type Field struct {
	Name     string
	Index    int
	Service  string
	Optional bool
	Type     reflect.Type
}

// StructFields lists the fields of struct type t carrying tagKey, in
// declaration order. The tag value is "name" or "name,optional".
func StructFields(t reflect.Type, tagKey string) ([]Field, error) {
	if t == nil {
		return nil, fmt.Errorf("nil type")
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	var fields []Field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		tag, ok := sf.Tag.Lookup(tagKey)
		if !ok || tag == "-" {
			continue
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("field %s.%s is tagged but unexported", t.Name(), sf.Name)
		}

		parts := strings.Split(tag, ",")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("field %s.%s has an empty service name", t.Name(), sf.Name)
		}

		field := Field{
			Name:    sf.Name,
			Index:   i,
			Service: name,
			Type:    sf.Type,
		}
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "optional":
				field.Optional = true
			default:
				return nil, fmt.Errorf("field %s.%s has unknown tag option %q", t.Name(), sf.Name, opt)
			}
		}

		fields = append(fields, field)
	}

	return fields, nil
}
