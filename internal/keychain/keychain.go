// Package keychain reads credentials from the OS keychain (macOS Keychain,
// Secret Service on Linux, Windows Credential Manager) so they can be
// imported into the keystore.
package keychain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// ErrItemNotFound is returned when the keychain has no matching item
var ErrItemNotFound = errors.New("keychain item not found")

// Client abstracts OS keychain lookups for testing
type Client interface {
	// Query retrieves a secret from the keychain
	Query(service, account string) (string, error)
}

// Reference identifies a keychain item
type Reference struct {
	Service string
	Account string
}

// ParseReference parses "service/account"
func ParseReference(ref string) (Reference, error) {
	service, account, ok := strings.Cut(ref, "/")
	if !ok || service == "" || account == "" {
		return Reference{}, fmt.Errorf("invalid keychain reference %q: expected service/account", ref)
	}
	return Reference{Service: service, Account: account}, nil
}

// String implements fmt.Stringer
func (r Reference) String() string {
	return r.Service + "/" + r.Account
}

type osClient struct{}

// New returns a Client backed by the platform keychain
func New() Client {
	return osClient{}
}

// Query retrieves a secret from the platform keychain
func (osClient) Query(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrItemNotFound
		}
		return "", fmt.Errorf("keychain query %s/%s failed: %w", service, account, err)
	}
	return secret, nil
}

// Fetch reads ref through client and rejects empty secrets
func Fetch(client Client, ref Reference) (string, error) {
	secret, err := client.Query(ref.Service, ref.Account)
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", fmt.Errorf("keychain item %s is empty", ref)
	}
	return secret, nil
}
