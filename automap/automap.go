package automap

import (
	"context"
	"errors"
)

// ErrNilSource is returned (or raised) by generated mapping functions when
// they are invoked on a nil source.
var ErrNilSource = errors.New("automap: nil source")

// Profile marks a struct type as a mapping profile when embedded.
type Profile struct{}

// Config is handed to a profile's Configure method.
type Config struct{}

// Profiler is implemented by every mapping profile.
type Profiler interface {
	Configure(cfg *Config)
}

// Mapping is the chainable value returned by Map.
type Mapping[S, D any] struct{}

// Map declares a mapping from S to D.
func Map[S, D any](cfg *Config) *Mapping[S, D] {
	return &Mapping[S, D]{}
}

// ForField overrides how the destination field dest is computed. dest is a
// field selector on a zero value of D, for example UserDto{}.FullName.
func (m *Mapping[S, D]) ForField(dest any, fn func(source *S) any) *Mapping[S, D] {
	return m
}

// ForFieldAsync is like ForField for computations that need a context or
// may fail. Any asynchronous field makes the generated function
// asynchronous.
func (m *Mapping[S, D]) ForFieldAsync(dest any, fn func(ctx context.Context, source *S) (any, error)) *Mapping[S, D] {
	return m
}

// Reverse enables same-name matching for destination fields without an
// explicit override.
func (m *Mapping[S, D]) Reverse() *Mapping[S, D] {
	return m
}
