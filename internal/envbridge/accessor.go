// Package envbridge reads environment variables through the keystore.
//
// A Bridge wraps an Accessor. Reads of a name the keystore has keys for
// return the next rotated key; every other read, and every write, goes to
// the wrapped Accessor untouched. Writes never reach the keystore, so a
// value set for a name that is also a keystore service stays masked on
// bridge reads.
package envbridge

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// Accessor is a get/set view of an environment
type Accessor interface {
	// Get returns the value of name, or "" when unset
	Get(name string) string

	// Lookup returns the value of name and whether it is set
	Lookup(name string) (string, bool)

	// Set assigns value to name
	Set(name, value string) error

	// Environ returns the environment as NAME=value pairs
	Environ() []string
}

// OSEnv is the process environment
type OSEnv struct{}

// Get implements Accessor
func (OSEnv) Get(name string) string { return os.Getenv(name) }

// Lookup implements Accessor
func (OSEnv) Lookup(name string) (string, bool) { return os.LookupEnv(name) }

// Set implements Accessor
func (OSEnv) Set(name, value string) error { return os.Setenv(name, value) }

// Environ implements Accessor
func (OSEnv) Environ() []string { return os.Environ() }

// MapEnv is an in-memory environment
type MapEnv struct {
	mu   sync.RWMutex
	vars map[string]string
}

// NewMapEnv creates a MapEnv seeded with vars
func NewMapEnv(vars map[string]string) *MapEnv {
	m := &MapEnv{vars: make(map[string]string, len(vars))}
	for k, v := range vars {
		m.vars[k] = v
	}
	return m
}

// NewMapEnvFromEnviron creates a MapEnv from NAME=value pairs
func NewMapEnvFromEnviron(environ []string) *MapEnv {
	m := &MapEnv{vars: make(map[string]string, len(environ))}
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			m.vars[parts[0]] = parts[1]
		}
	}
	return m
}

// Get implements Accessor
func (m *MapEnv) Get(name string) string {
	v, _ := m.Lookup(name)
	return v
}

// Lookup implements Accessor
func (m *MapEnv) Lookup(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.vars[name]
	return v, ok
}

// Set implements Accessor
func (m *MapEnv) Set(name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vars[name] = value
	return nil
}

// Environ implements Accessor. Pairs are sorted by name.
func (m *MapEnv) Environ() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.vars))
	for k, v := range m.vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

var (
	_ Accessor = OSEnv{}
	_ Accessor = (*MapEnv)(nil)
)
