package reflect

import (
	"reflect"
	"testing"
)

type testInterface interface {
	DoSomething()
}

type testStruct struct {
	Name string
}

func (t *testStruct) DoSomething() {}

func TestTypeName(t *testing.T) {
	t.Parallel()

	if got := TypeName[*testStruct](); got != "*reflect.testStruct" {
		t.Errorf("TypeName() = %q", got)
	}
	if got := TypeName[testInterface](); got != "reflect.testInterface" {
		t.Errorf("TypeName() = %q", got)
	}
}

func TestIsNil(t *testing.T) {
	t.Parallel()

	var nilPtr *testStruct
	var nilSlice []string
	var nilMap map[string]int
	var nilInterface testInterface

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"nil pointer", nilPtr, true},
		{"nil slice", nilSlice, true},
		{"nil map", nilMap, true},
		{"nil interface", nilInterface, true},
		{"non-nil int", 42, false},
		{"non-nil struct", testStruct{}, false},
		{"non-nil pointer", &testStruct{}, false},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				if got := IsNil(tt.v); got != tt.want {
					t.Errorf("IsNil() = %v, want %v", got, tt.want)
				}
			},
		)
	}
}

type launcher struct {
	Bus     any `service:"eventBus"`
	Cache   any `service:"cache,optional"`
	Skipped any `service:"-"`
	Plain   string
}

func TestStructFields(t *testing.T) {
	t.Parallel()

	fields, err := StructFields(reflect.TypeOf(&launcher{}), "service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Service != "eventBus" || fields[0].Optional || fields[0].Index != 0 {
		t.Errorf("unexpected first field: %+v", fields[0])
	}
	if fields[1].Service != "cache" || !fields[1].Optional || fields[1].Index != 1 {
		t.Errorf("unexpected second field: %+v", fields[1])
	}
}

func TestStructFields_Errors(t *testing.T) {
	t.Parallel()

	type unexported struct {
		bus any `service:"eventBus"`
	}
	type emptyName struct {
		Bus any `service:",optional"`
	}
	type badOption struct {
		Bus any `service:"eventBus,lazy"`
	}

	tests := []struct {
		name string
		typ  reflect.Type
	}{
		{"not a struct", reflect.TypeOf(42)},
		{"unexported", reflect.TypeOf(unexported{})},
		{"empty name", reflect.TypeOf(emptyName{})},
		{"bad option", reflect.TypeOf(badOption{})},
	}

	for _, tt := range tests {
		t.Run(
			tt.name, func(t *testing.T) {
				t.Parallel()
				if _, err := StructFields(tt.typ, "service"); err == nil {
					t.Error("expected an error")
				}
			},
		)
	}
}

func BenchmarkStructFields(b *testing.B) {
	b.ReportAllocs()
	typ := reflect.TypeOf(launcher{})
	for i := 0; i < b.N; i++ {
		_, _ = StructFields(typ, "service")
	}
}
