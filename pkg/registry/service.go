package registry

import (
	"reflect"
)

func typeKey[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Bind a service of type T into the layer of src.
//
// Binding a nil value removes the binding from this layer, so that an ancestor binding becomes visible again.
func Bind[T any](src Source, value T) {
	src.Registry().bind(typeKey[T](), boxed(value))
}

// Service resolves the service of type T, looking up the chain of layers from src.
//
// It fails with ErrNotBound when T is not bound anywhere in the chain.
func Service[T any](src Source) (T, error) {
	v, ok := OptionalService[T](src)
	if !ok {
		var zero T
		return zero, ErrNotBound.WrapMessage("no binding for %v", typeKey[T]())
	}
	return v, nil
}

// MustService resolves the service of type T or panics
func MustService[T any](src Source) T {
	v, err := Service[T](src)
	if err != nil {
		panic(err)
	}
	return v
}

// OptionalService resolves the service of type T, if bound anywhere in the chain
func OptionalService[T any](src Source) (T, bool) {
	var zero T
	v, ok := src.Registry().lookup(typeKey[T]())
	if !ok {
		return zero, false
	}
	s, ok := v.(T)
	return s, ok
}

// Provider is a lazy handle on a service: each call to Get resolves the service again
type Provider[T any] struct {
	src Source
}

// ProviderOf yields a provider for services of type T, resolved from src
func ProviderOf[T any](src Source) Provider[T] {
	return Provider[T]{src: src}
}

// Get resolves the service now
func (p Provider[T]) Get() (T, error) {
	return Service[T](p.src)
}

func boxed[T any](value T) interface{} {
	v := interface{}(value)
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}
