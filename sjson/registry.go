package sjson

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ErrNoCodec is returned when a registry has no codec for a type.
var ErrNoCodec = errors.New("no codec registered")

// Registry maps Go types to their codecs. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	codecs map[reflect.Type]any // Codec[T] keyed by T
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{codecs: make(map[reflect.Type]any)}
}

// NewBuiltinRegistry creates a registry holding the builtin codecs. Every
// Format created without WithRegistry gets its own.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	Register(r, Int)
	Register(r, Long)
	Register(r, Float)
	Register(r, Double)
	Register(r, Bool)
	Register(r, String)
	Register(r, Byte)
	Register(r, Short)
	Register(r, Unit)
	Register(r, ValueCodec)
	Register(r, UUID)
	Register(r, Time)
	return r
}

// Register associates c with T, replacing any previous codec. Char is
// not registered by default since rune and int32 are the same type.
func Register[T any](r *Registry, c Codec[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[reflect.TypeOf((*T)(nil)).Elem()] = c
}

// Lookup returns the codec registered for T.
func Lookup[T any](r *Registry) (Codec[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	r.mu.RLock()
	c, ok := r.codecs[typ]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w for %s", ErrNoCodec, typ)
	}
	return c.(Codec[T]), nil
}

// Names returns the serial names of all registered codecs, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.codecs))
	for _, c := range r.codecs {
		names = append(names, c.(interface{ Descriptor() *Descriptor }).Descriptor().Name())
	}
	slices.Sort(names)
	return names
}

// Descriptor returns the descriptor of the registered codec with the given
// serial name.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.codecs {
		if d := c.(interface{ Descriptor() *Descriptor }).Descriptor(); d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// EncodeRegistered encodes v with the codec registered for T in f's registry.
func EncodeRegistered[T any](f *Format, v T) (string, error) {
	codec, err := Lookup[T](f.registry)
	if err != nil {
		return "", err
	}
	return Encode(f, codec, v)
}

// DecodeRegistered decodes text with the codec registered for T in f's
// registry.
func DecodeRegistered[T any](f *Format, text string) (T, error) {
	codec, err := Lookup[T](f.registry)
	if err != nil {
		var zero T
		return zero, err
	}
	return Decode(f, codec, text)
}
