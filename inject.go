package riolauncher

import (
	"context"
	"fmt"
	reflectPkg "reflect"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/internal/reflect"
)

const TagKey = "service"

// Inject fills the fields of the struct pointed to by target that carry a
// `service:"name"` tag. Fields tagged `service:"name,optional"` are left
// untouched when the service is unregistered or fails to build.
func Inject(ctx context.Context, r Resolver, target any) error {
	v := reflectPkg.ValueOf(target)
	if v.Kind() != reflectPkg.Ptr || v.IsNil() || v.Elem().Kind() != reflectPkg.Struct {
		return fmt.Errorf("inject target must be a non-nil struct pointer, got %T", target)
	}

	fields, err := reflect.StructFields(v.Type(), TagKey)
	if err != nil {
		return err
	}

	structVal := v.Elem()
	for _, field := range fields {
		if !r.Has(field.Service) {
			if field.Optional {
				continue
			}
			return apperr.ServiceNotFound(field.Service)
		}

		svc, err := r.Get(ctx, field.Service)
		if err != nil {
			if field.Optional {
				continue
			}
			return fmt.Errorf("inject field %s: %w", field.Name, err)
		}

		fieldVal := structVal.Field(field.Index)
		svcVal := reflectPkg.ValueOf(svc)
		if !svcVal.Type().AssignableTo(fieldVal.Type()) {
			return fmt.Errorf(
				"cannot assign %s to field %s of type %s",
				svcVal.Type(), field.Name, fieldVal.Type(),
			)
		}

		fieldVal.Set(svcVal)
	}

	return nil
}

// RegisterStruct registers T, a pointer to a struct implementing Service,
// under name. Required tagged fields become declared dependencies and are
// injected before Initialize runs.
func RegisterStruct[T Service](r *Registry, name string, opts ...RegisterOption) error {
	var zero T
	t := reflectPkg.TypeOf(zero)
	if t == nil || t.Kind() != reflectPkg.Ptr || t.Elem().Kind() != reflectPkg.Struct {
		return fmt.Errorf("RegisterStruct requires a struct pointer type, got %s", reflect.TypeName[T]())
	}

	fields, err := reflect.StructFields(t, TagKey)
	if err != nil {
		return err
	}

	deps := make([]string, 0, len(fields))
	for _, f := range fields {
		if !f.Optional {
			deps = append(deps, f.Service)
		}
	}

	factory := func(ctx context.Context, res Resolver) (Service, error) {
		ptr := reflectPkg.New(t.Elem())
		if err := Inject(ctx, res, ptr.Interface()); err != nil {
			return nil, err
		}
		return ptr.Interface().(Service), nil
	}

	opts = append([]RegisterOption{WithDependencies(deps...)}, opts...)
	return r.Register(name, factory, opts...)
}

func MustRegisterStruct[T Service](r *Registry, name string, opts ...RegisterOption) {
	if err := RegisterStruct[T](r, name, opts...); err != nil {
		panic(err)
	}
}
