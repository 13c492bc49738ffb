// Package resolver resolves configuration values, such as the snapshot directory,
// by consulting a chain of sources in order.
package resolver

import (
	"fmt"
	"os"
)

// Resolver resolves a single configuration value.
type Resolver interface {
	// Resolve returns the value, "" if this source has nothing to say, or an error
	Resolve() (string, error)
}

// ConstantResolver always returns the same value
type ConstantResolver struct {
	s string
}

// NewConstantResolver creates a ConstantResolver
func NewConstantResolver(s string) *ConstantResolver {
	return &ConstantResolver{s: s}
}

// Resolve returns the constant
func (r *ConstantResolver) Resolve() (string, error) {
	return r.s, nil
}

func (r *ConstantResolver) String() string {
	return fmt.Sprintf("constant(%q)", r.s)
}

// EnvResolver resolves by looking for a key in the OS Environment
type EnvResolver struct {
	key string
}

// NewEnvResolver creates a new EnvResolver
func NewEnvResolver(key string) *EnvResolver {
	return &EnvResolver{key: key}
}

// Resolve resolves by looking for a key in the OS Environment
func (r *EnvResolver) Resolve() (string, error) {
	return os.Getenv(r.key), nil
}

func (r *EnvResolver) String() string {
	return fmt.Sprintf("env(%s)", r.key)
}

// CompositeResolver resolves by resolving, in order, via delegates
type CompositeResolver struct {
	dels []Resolver
}

// NewCompositeResolver creates a new CompositeResolver that resolves by looking through delegates (in order)
func NewCompositeResolver(dels ...Resolver) *CompositeResolver {
	return &CompositeResolver{dels: dels}
}

// Resolve returns the first non-empty value or error from the delegates
func (r *CompositeResolver) Resolve() (string, error) {
	for _, r := range r.dels {
		if s, err := r.Resolve(); s != "" || err != nil {
			return s, err
		}
	}
	return "", fmt.Errorf("could not resolve: no delegate resolved: %v", r.dels)
}

func (r *CompositeResolver) String() string {
	return fmt.Sprintf("composite%v", r.dels)
}
