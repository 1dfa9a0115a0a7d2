package keystore

import (
	"errors"
	"fmt"
)

// ErrNoKeysForService is matched by NoKeysError via errors.Is
var ErrNoKeysForService = errors.New("no keys for service")

// LoadError is returned when a keystore document exists but cannot be
// read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load keystore %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError is returned when the keystore cannot be written
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("failed to save keystore %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// NoKeysError is returned by GetKey for a service with no usable keys
type NoKeysError struct {
	Service string
}

func (e *NoKeysError) Error() string {
	return fmt.Sprintf("no keys found for service: %s", e.Service)
}

// Is reports whether target is ErrNoKeysForService
func (e *NoKeysError) Is(target error) bool {
	return target == ErrNoKeysForService
}
