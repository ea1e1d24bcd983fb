package interop

import (
	"errors"

	"github.com/dshills/chunklink/pkg/types"
)

// ErrFrozen is returned when writing to a wrapper
var ErrFrozen = errors.New("cannot assign to a frozen namespace")

// Namespace is anything a namespace import can read from
type Namespace interface {
	Get(key string) (any, bool)
	Keys() []string
	Set(key string, value any) error
}

// Object is a foreign module's exports value: an ordered set of own
// enumerable keys with mutable values.
type Object struct {
	keys   []string
	values map[string]any
	native bool
}

// NewObject creates an empty exports object
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set adds or updates a key. New keys keep insertion order.
func (o *Object) Set(key string, value any) error {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return nil
}

// Get reads a key
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Keys returns the own enumerable keys in insertion order
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// MarkNative flags the object as already following native module
// semantics, the way __esModule does
func (o *Object) MarkNative() {
	o.native = true
}

// IsNative reports whether the object carries the native marker
func (o *Object) IsNative() bool {
	return o.native
}

// Wrapper is the frozen namespace built for a foreign value. Default holds
// the raw value; every other key forwards reads to the source so updates
// stay visible, while the key list is fixed when the wrapper is built.
type Wrapper struct {
	source any
	keys   []string
}

// Wrap builds the namespace for a foreign value. A value carrying the
// native marker is returned unchanged.
func Wrap(value any) Namespace {
	obj, ok := value.(*Object)
	if ok && obj.IsNative() {
		return obj
	}

	w := &Wrapper{source: value}
	if ok {
		for _, k := range obj.keys {
			if k != types.DefaultImport {
				w.keys = append(w.keys, k)
			}
		}
	}
	return w
}

// Materialize builds the runtime namespace a wrapper descriptor describes
func Materialize(desc *types.InteropWrapper, value any) Namespace {
	obj, isObj := value.(*Object)

	switch {
	case desc.Passthrough && isObj:
		return obj
	case desc.DefaultOnly:
		return &Wrapper{source: value}
	case desc.NamedKeys != nil:
		w := &Wrapper{source: value}
		for _, k := range desc.NamedKeys {
			if k != types.DefaultImport {
				w.keys = append(w.keys, k)
			}
		}
		return w
	default:
		return Wrap(value)
	}
}

// Default returns the raw wrapped value
func (w *Wrapper) Default() any {
	return w.source
}

// Get reads a key. Named keys read the source at call time.
func (w *Wrapper) Get(key string) (any, bool) {
	if key == types.DefaultImport {
		return w.source, true
	}
	for _, k := range w.keys {
		if k != key {
			continue
		}
		if obj, ok := w.source.(*Object); ok {
			return obj.Get(key)
		}
		return nil, false
	}
	return nil, false
}

// Keys returns default followed by the named keys
func (w *Wrapper) Keys() []string {
	return append([]string{types.DefaultImport}, w.keys...)
}

// Set always fails; wrappers are frozen
func (w *Wrapper) Set(key string, value any) error {
	return ErrFrozen
}
