package envbridge_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/keymixer/internal/audit"
	"github.com/systmms/keymixer/internal/envbridge"
	"github.com/systmms/keymixer/internal/keystore"
)

func newEngine(t *testing.T) (*keystore.Engine, *audit.MemorySink) {
	t.Helper()
	sink := &audit.MemorySink{}
	return keystore.New(keystore.WithSink(sink)), sink
}

func TestBridge_SubstitutesRotatedKeys(t *testing.T) {
	t.Parallel()

	engine, sink := newEngine(t)
	engine.AddKey("NEW_SERVICE", "key1")
	engine.AddKey("NEW_SERVICE", "key2")

	base := envbridge.NewMapEnv(map[string]string{"NEW_SERVICE": "from-environment"})
	env := envbridge.New(engine, base)

	assert.Equal(t, "key1", env.Get("NEW_SERVICE"))
	assert.Equal(t, "key2", env.Get("NEW_SERVICE"))
	assert.NotEqual(t, "key1", env.Get("NOT_A_SERVICE"))
	assert.Equal(t, "key1", env.Get("NEW_SERVICE"))

	assert.Len(t, sink.OfType(audit.Access), 3)
}

func TestBridge_PassesThroughUnknownNames(t *testing.T) {
	t.Parallel()

	engine, sink := newEngine(t)
	base := envbridge.NewMapEnv(map[string]string{"HOME": "/home/app"})
	env := envbridge.New(engine, base)

	v, ok := env.Lookup("HOME")
	assert.True(t, ok)
	assert.Equal(t, "/home/app", v)

	_, ok = env.Lookup("UNSET")
	assert.False(t, ok)
	assert.Empty(t, sink.Events())
}

func TestBridge_WritesAreOneWay(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	base := envbridge.NewMapEnv(nil)
	env := envbridge.New(engine, base)

	require.NoError(t, env.Set("HAMSTER", "gerbil"))
	assert.Equal(t, "gerbil", env.Get("HAMSTER"))
	assert.Equal(t, "gerbil", base.Get("HAMSTER"))
	assert.False(t, engine.HasKeysFor("HAMSTER"))
	assert.Empty(t, engine.Services())
}

func TestBridge_WriteToServiceIsMasked(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	engine.AddKey("API_KEY", "rotated-key")
	base := envbridge.NewMapEnv(nil)
	env := envbridge.New(engine, base)

	require.NoError(t, env.Set("API_KEY", "written"))
	assert.Equal(t, "rotated-key", env.Get("API_KEY"))
	assert.Equal(t, "written", base.Get("API_KEY"))
	assert.Equal(t, []string{"rotated-key"}, engine.Keys("API_KEY"))
}

func TestBridge_RevokedServiceFallsBack(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	engine.AddKey("TOKEN", "k1")
	env := envbridge.New(engine, envbridge.NewMapEnv(map[string]string{"TOKEN": "env-token"}))

	assert.Equal(t, "k1", env.Get("TOKEN"))
	engine.RevokeKey("TOKEN", "k1")
	assert.Equal(t, "env-token", env.Get("TOKEN"))
}

func TestBridge_EmptyNameDelegates(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	env := envbridge.New(engine, envbridge.NewMapEnv(map[string]string{"": "odd"}))
	assert.Equal(t, "odd", env.Get(""))
}

func TestBridge_Environ(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	engine.AddKey("PATH_LIKE", "rotated-a")
	engine.AddKey("PATH_LIKE", "rotated-b")
	engine.AddKey("EXTRA", "extra-key")
	engine.AddKey("EMPTIED", "x")
	engine.RevokeKey("EMPTIED", "x")

	base := envbridge.NewMapEnv(map[string]string{
		"PATH_LIKE": "original",
		"EMPTIED":   "kept",
		"OTHER":     "value",
	})
	env := envbridge.New(engine, base)

	assert.Equal(t, []string{
		"EMPTIED=kept",
		"OTHER=value",
		"PATH_LIKE=rotated-a",
		"EXTRA=extra-key",
	}, env.Environ())

	// one rotation per call
	assert.Contains(t, env.Environ(), "PATH_LIKE=rotated-b")
}

func TestSync(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(t)
	engine.AddKey("SVC", "k1")
	base := envbridge.NewMapEnv(map[string]string{"SVC": "plain"})

	disabled := envbridge.Sync(false, engine, base)
	assert.Equal(t, "plain", disabled.Get("SVC"))
	assert.Same(t, base, disabled)

	enabled := envbridge.Sync(true, engine, base)
	assert.Equal(t, "k1", enabled.Get("SVC"))

	bridge, ok := enabled.(*envbridge.Bridge)
	require.True(t, ok)
	assert.Same(t, base, bridge.Base())
}

func TestOSEnv(t *testing.T) {
	t.Setenv("KEYMIXER_BRIDGE_TEST", "os-value")

	engine, _ := newEngine(t)
	engine.AddKey("KEYMIXER_BRIDGE_TEST_SVC", "svc-key")
	env := envbridge.Sync(true, engine, envbridge.OSEnv{})

	assert.Equal(t, "os-value", env.Get("KEYMIXER_BRIDGE_TEST"))
	assert.Equal(t, "svc-key", env.Get("KEYMIXER_BRIDGE_TEST_SVC"))

	require.NoError(t, env.Set("KEYMIXER_BRIDGE_TEST", "changed"))
	v, ok := envbridge.OSEnv{}.Lookup("KEYMIXER_BRIDGE_TEST")
	assert.True(t, ok)
	assert.Equal(t, "changed", v)
	assert.Contains(t, env.Environ(), "KEYMIXER_BRIDGE_TEST_SVC=svc-key")
}

func TestMapEnvFromEnviron(t *testing.T) {
	t.Parallel()

	env := envbridge.NewMapEnvFromEnviron([]string{"A=1", "B=x=y", "malformed"})
	assert.Equal(t, "1", env.Get("A"))
	assert.Equal(t, "x=y", env.Get("B"))
	_, ok := env.Lookup("malformed")
	assert.False(t, ok)
	assert.Equal(t, []string{"A=1", "B=x=y"}, env.Environ())
}
