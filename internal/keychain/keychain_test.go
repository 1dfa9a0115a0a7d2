package keychain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestParseReference(t *testing.T) {
	t.Parallel()

	ref, err := ParseReference("openai/prod")
	require.NoError(t, err)
	assert.Equal(t, Reference{Service: "openai", Account: "prod"}, ref)
	assert.Equal(t, "openai/prod", ref.String())

	ref, err = ParseReference("svc/team/account")
	require.NoError(t, err)
	assert.Equal(t, "team/account", ref.Account)

	for _, bad := range []string{"", "noslash", "/account", "service/"} {
		_, err := ParseReference(bad)
		assert.Error(t, err, bad)
	}
}

func TestOSClient_WithMockKeyring(t *testing.T) {
	keyring.MockInit()

	require.NoError(t, keyring.Set("keymixer-test", "prod", "sk-from-keychain"))
	client := New()

	secret, err := client.Query("keymixer-test", "prod")
	require.NoError(t, err)
	assert.Equal(t, "sk-from-keychain", secret)

	_, err = client.Query("keymixer-test", "missing")
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestOSClient_QueryError(t *testing.T) {
	keyring.MockInitWithError(errors.New("locked"))
	t.Cleanup(keyring.MockInit)

	_, err := New().Query("svc", "acct")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
	assert.False(t, errors.Is(err, ErrItemNotFound))
}

type stubClient map[string]string

func (s stubClient) Query(service, account string) (string, error) {
	v, ok := s[service+"/"+account]
	if !ok {
		return "", ErrItemNotFound
	}
	return v, nil
}

func TestFetch(t *testing.T) {
	t.Parallel()

	client := stubClient{"svc/full": "value", "svc/empty": ""}

	v, err := Fetch(client, Reference{Service: "svc", Account: "full"})
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	_, err = Fetch(client, Reference{Service: "svc", Account: "empty"})
	assert.Error(t, err)

	_, err = Fetch(client, Reference{Service: "svc", Account: "none"})
	assert.ErrorIs(t, err, ErrItemNotFound)
}
