// Package registry maps program representations (aliases) to the Go types
// that carry them, and resolves the alias of an arbitrary program value.
//
// Resolution is two-staged. An exact match on the value's dynamic type is
// tried first. Only when that fails are the fallbacks consulted, in the order
// they were added. Fallbacks are heuristics and are kept separate so they can
// be audited or replaced without touching exact matching.
package registry

import (
	"errors"
	"fmt"
	"path"
	"reflect"
	"slices"
	"sync"

	"github.com/ritzau/qconvert/pkg/conversion"
)

var (
	ErrAliasRegistered = errors.New("alias already registered")
	ErrTypeRegistered  = errors.New("type already registered")
	ErrNilType         = errors.New("type must not be nil")
)

// UnknownProgramError is returned when no alias can be determined for a
// program.
type UnknownProgramError struct {
	Type reflect.Type // nil for a nil program
}

func (e *UnknownProgramError) Error() string {
	if e.Type == nil {
		return "cannot determine alias of nil program"
	}
	return fmt.Sprintf("no alias registered for program type %s", e.Type)
}

// Fallback guesses the alias of a program that had no exact type match.
type Fallback interface {
	Name() string
	Resolve(program any, reg *Registry) (conversion.Alias, bool)
}

// FallbackFunc adapts a function to Fallback.
type FallbackFunc struct {
	Label string
	Fn    func(program any, reg *Registry) (conversion.Alias, bool)
}

func (f FallbackFunc) Name() string { return f.Label }

func (f FallbackFunc) Resolve(program any, reg *Registry) (conversion.Alias, bool) {
	return f.Fn(program, reg)
}

// Registry is an explicit alias <-> type table. The zero value is not usable;
// call New.
type Registry struct {
	mu        sync.RWMutex
	types     map[conversion.Alias]reflect.Type
	aliases   map[reflect.Type]conversion.Alias
	fallbacks []Fallback
}

// New creates an empty registry with the given fallbacks.
func New(fallbacks ...Fallback) *Registry {
	return &Registry{
		types:     make(map[conversion.Alias]reflect.Type),
		aliases:   make(map[reflect.Type]conversion.Alias),
		fallbacks: fallbacks,
	}
}

// Register associates alias with typ. Both must be unused.
func (r *Registry) Register(alias conversion.Alias, typ reflect.Type) error {
	if alias == "" {
		return conversion.ErrEmptyAlias
	}
	if typ == nil {
		return ErrNilType
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.types[alias]; ok {
		return fmt.Errorf("%w: %s -> %s", ErrAliasRegistered, alias, existing)
	}
	if existing, ok := r.aliases[typ]; ok {
		return fmt.Errorf("%w: %s -> %s", ErrTypeRegistered, typ, existing)
	}

	r.types[alias] = typ
	r.aliases[typ] = alias
	return nil
}

// RegisterValue registers the dynamic type of sample under alias.
func (r *Registry) RegisterValue(alias conversion.Alias, sample any) error {
	return r.Register(alias, reflect.TypeOf(sample))
}

// Unregister removes alias. It reports whether the alias was present.
func (r *Registry) Unregister(alias conversion.Alias) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, ok := r.types[alias]
	if !ok {
		return false
	}
	delete(r.types, alias)
	delete(r.aliases, typ)
	return true
}

// AddFallback appends a fallback resolver.
func (r *Registry) AddFallback(f Fallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallbacks = append(r.fallbacks, f)
}

// Aliases returns the registered aliases, sorted.
func (r *Registry) Aliases() []conversion.Alias {
	r.mu.RLock()
	defer r.mu.RUnlock()

	aliases := make([]conversion.Alias, 0, len(r.types))
	for a := range r.types {
		aliases = append(aliases, a)
	}
	slices.Sort(aliases)
	return aliases
}

// NativeType returns the Go type registered for alias.
func (r *Registry) NativeType(alias conversion.Alias) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	typ, ok := r.types[alias]
	return typ, ok
}

// IsRegistered reports whether alias has a native type.
func (r *Registry) IsRegistered(alias conversion.Alias) bool {
	_, ok := r.NativeType(alias)
	return ok
}

// ExactAlias returns the alias registered for the dynamic type of program.
func (r *Registry) ExactAlias(program any) (conversion.Alias, bool) {
	if program == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	alias, ok := r.aliases[reflect.TypeOf(program)]
	return alias, ok
}

// ResolveAlias determines the alias of program: exact type match first, then
// each fallback in order.
func (r *Registry) ResolveAlias(program any) (conversion.Alias, error) {
	if program == nil {
		return "", &UnknownProgramError{}
	}
	if alias, ok := r.ExactAlias(program); ok {
		return alias, nil
	}

	r.mu.RLock()
	fallbacks := slices.Clone(r.fallbacks)
	r.mu.RUnlock()

	for _, f := range fallbacks {
		if alias, ok := f.Resolve(program, r); ok {
			return alias, nil
		}
	}
	return "", &UnknownProgramError{Type: reflect.TypeOf(program)}
}

// PackageNameFallback infers the alias from the last element of the package
// path that defines the program's type (dereferencing pointers), provided an
// alias of that name is registered. A *cirq.Circuit from ".../cirq" resolves
// to "cirq".
func PackageNameFallback() Fallback {
	return FallbackFunc{
		Label: "package-name",
		Fn: func(program any, reg *Registry) (conversion.Alias, bool) {
			typ := reflect.TypeOf(program)
			for typ.Kind() == reflect.Pointer {
				typ = typ.Elem()
			}
			if typ.PkgPath() == "" {
				return "", false
			}
			alias := conversion.Alias(path.Base(typ.PkgPath()))
			if !reg.IsRegistered(alias) {
				return "", false
			}
			return alias, true
		},
	}
}
