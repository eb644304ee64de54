package registry

import (
	"reflect"
	"sync"

	"github.com/oneconcern/termstore/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
)

// ErrNotBound is a configuration error returned when a required service is not bound anywhere in the chain
var ErrNotBound = errors.New("service not bound")

// Disposable is implemented by services which hold resources.
//
// Disposable services bound to a registry are disposed together with it.
type Disposable interface {
	Dispose() error
}

// Source is implemented by any object exposing a binding layer, such as execution contexts
type Source interface {
	Registry() *Registry
}

var (
	_ Source     = &Registry{}
	_ Disposable = &Registry{}
)

// Registry is a layer of typed service bindings, delegating to an optional parent
type Registry struct {
	parent *Registry

	mx       sync.RWMutex
	bindings map[reflect.Type]interface{}
	order    []reflect.Type

	disposed *atomic.Bool
}

// New builds a binding layer on top of parent (which may be nil)
func New(parent *Registry) *Registry {
	return &Registry{
		parent:   parent,
		bindings: make(map[reflect.Type]interface{}),
		disposed: atomic.NewBool(false),
	}
}

// Registry yields this layer
func (r *Registry) Registry() *Registry {
	return r
}

// Parent layer this layer delegates to
func (r *Registry) Parent() *Registry {
	return r.parent
}

// Inject creates a new child layer on top of this one
func (r *Registry) Inject() *Registry {
	return New(r)
}

// Depth of this layer in the chain: 1 for a root layer
func (r *Registry) Depth() int {
	depth := 0
	for l := r; l != nil; l = l.parent {
		depth++
	}
	return depth
}

func (r *Registry) bind(key reflect.Type, value interface{}) {
	r.mx.Lock()
	defer r.mx.Unlock()

	if value == nil {
		if _, ok := r.bindings[key]; ok {
			delete(r.bindings, key)
			r.order = remove(r.order, key)
		}
		return
	}

	if _, ok := r.bindings[key]; !ok {
		r.order = append(r.order, key)
	}
	r.bindings[key] = value
}

func (r *Registry) local(key reflect.Type) (interface{}, bool) {
	r.mx.RLock()
	defer r.mx.RUnlock()
	v, ok := r.bindings[key]
	return v, ok
}

func (r *Registry) lookup(key reflect.Type) (interface{}, bool) {
	for l := r; l != nil; l = l.parent {
		if v, ok := l.local(key); ok {
			return v, true
		}
	}
	return nil, false
}

// Bindings yields a merged snapshot of all bindings visible from this layer.
//
// The closest layer wins when the same type is bound at several levels.
func (r *Registry) Bindings() map[reflect.Type]interface{} {
	chain := make([]*Registry, 0, r.Depth())
	for l := r; l != nil; l = l.parent {
		chain = append(chain, l)
	}

	merged := make(map[reflect.Type]interface{})
	for i := len(chain) - 1; i >= 0; i-- {
		l := chain[i]
		l.mx.RLock()
		for k, v := range l.bindings {
			merged[k] = v
		}
		l.mx.RUnlock()
	}
	return merged
}

// IsDisposed tells if this layer has been disposed
func (r *Registry) IsDisposed() bool {
	return r.disposed.Load()
}

// Dispose all disposable services bound to this layer, last bound first.
//
// An instance bound under several types is disposed once, at the position of its first binding.
// Dispose may be called several times: only the first call has an effect.
// The parent layer is never disposed.
func (r *Registry) Dispose() error {
	if !r.disposed.CAS(false, true) {
		return nil
	}

	r.mx.RLock()
	targets := make([]Disposable, 0, len(r.order))
	seen := make(map[interface{}]struct{}, len(r.order))
	for _, key := range r.order {
		d, ok := r.bindings[key].(Disposable)
		if !ok {
			continue
		}
		if reflect.TypeOf(d).Comparable() {
			if self, isSelf := d.(*Registry); isSelf && self == r {
				continue
			}
			if _, done := seen[d]; done {
				continue
			}
			seen[d] = struct{}{}
		}
		targets = append(targets, d)
	}
	r.mx.RUnlock()

	var err error
	for i := len(targets) - 1; i >= 0; i-- {
		err = multierr.Append(err, targets[i].Dispose())
	}
	return err
}

func remove(keys []reflect.Type, key reflect.Type) []reflect.Type {
	for i, k := range keys {
		if k == key {
			return append(keys[:i], keys[i+1:]...)
		}
	}
	return keys
}
