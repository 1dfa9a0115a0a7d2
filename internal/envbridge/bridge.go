package envbridge

import (
	"strings"
)

// KeySource is the part of the keystore engine the bridge reads from
type KeySource interface {
	HasKeysFor(service string) bool
	GetKey(service string) (string, error)
	Services() []string
}

// Bridge substitutes rotated keys into reads of the wrapped Accessor
type Bridge struct {
	keys KeySource
	base Accessor
}

// New wraps base so that reads consult keys first
func New(keys KeySource, base Accessor) *Bridge {
	if base == nil {
		base = OSEnv{}
	}
	return &Bridge{keys: keys, base: base}
}

// Base returns the wrapped Accessor
func (b *Bridge) Base() Accessor {
	return b.base
}

// Get implements Accessor
func (b *Bridge) Get(name string) string {
	v, _ := b.Lookup(name)
	return v
}

// Lookup returns the next rotated key when the keystore has keys for
// name, and the wrapped value otherwise. Each substituted read advances
// the rotation.
func (b *Bridge) Lookup(name string) (string, bool) {
	if name == "" {
		return b.base.Lookup(name)
	}

	if b.keys.HasKeysFor(name) {
		if key, err := b.keys.GetKey(name); err == nil {
			return key, true
		}
	}

	return b.base.Lookup(name)
}

// Set writes to the wrapped Accessor only
func (b *Bridge) Set(name, value string) error {
	return b.base.Set(name, value)
}

// Environ returns the wrapped environment with one rotated key substituted
// for every service that has keys. Services missing from the wrapped
// environment are appended in keystore order.
func (b *Bridge) Environ() []string {
	substituted := make(map[string]string)
	var order []string
	for _, service := range b.keys.Services() {
		if service == "" || strings.Contains(service, "=") || !b.keys.HasKeysFor(service) {
			continue
		}
		key, err := b.keys.GetKey(service)
		if err != nil {
			continue
		}
		substituted[service] = key
		order = append(order, service)
	}

	base := b.base.Environ()
	out := make([]string, 0, len(base)+len(order))
	seen := make(map[string]bool, len(order))
	for _, kv := range base {
		name := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			name = kv[:i]
		}
		if key, ok := substituted[name]; ok {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name+"="+key)
			continue
		}
		out = append(out, kv)
	}

	for _, service := range order {
		if !seen[service] {
			out = append(out, service+"="+substituted[service])
		}
	}

	return out
}

// Sync returns a Bridge over base when enabled, and base itself otherwise
func Sync(enabled bool, keys KeySource, base Accessor) Accessor {
	if base == nil {
		base = OSEnv{}
	}
	if !enabled || keys == nil {
		return base
	}
	return New(keys, base)
}

var _ Accessor = (*Bridge)(nil)
