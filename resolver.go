package riolauncher

import (
	"context"
	"fmt"

	"github.com/danpasecinic/riolauncher/apperr"
	"github.com/danpasecinic/riolauncher/internal/reflect"
)

func typeMismatch[T any](name string, svc Service) *apperr.Error {
	return apperr.New(
		apperr.ErrCodeValidationFailed,
		fmt.Sprintf("service is %T, not %s", svc, reflect.TypeName[T]()),
		nil,
	).WithService(name)
}

// Get resolves name through r and asserts the instance to T.
func Get[T any](ctx context.Context, r Resolver, name string) (T, error) {
	var zero T

	svc, err := r.Get(ctx, name)
	if err != nil {
		return zero, err
	}

	typed, ok := svc.(T)
	if !ok {
		return zero, typeMismatch[T](name, svc)
	}

	return typed, nil
}

func MustGet[T any](ctx context.Context, r Resolver, name string) T {
	v, err := Get[T](ctx, r, name)
	if err != nil {
		panic(err)
	}
	return v
}

func GetSyncAs[T any](r Resolver, name string) (T, error) {
	var zero T

	svc, err := r.GetSync(name)
	if err != nil {
		return zero, err
	}

	typed, ok := svc.(T)
	if !ok {
		return zero, typeMismatch[T](name, svc)
	}

	return typed, nil
}

type Optional[T any] struct {
	value   T
	present bool
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.present
}

func (o Optional[T]) Present() bool {
	return o.present
}

func (o Optional[T]) OrElse(defaultValue T) T {
	if o.present {
		return o.value
	}
	return defaultValue
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, present: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

// GetOptional resolves name when it is registered. A missing registration
// or a failed build yields None.
func GetOptional[T any](ctx context.Context, r Resolver, name string) Optional[T] {
	if !r.Has(name) {
		return None[T]()
	}

	v, err := Get[T](ctx, r, name)
	if err != nil {
		return None[T]()
	}

	return Some(v)
}
