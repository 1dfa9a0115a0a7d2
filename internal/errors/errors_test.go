package errors_test

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/keystore"
	"github.com/systmms/keymixer/internal/logging"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "KEYMIXER_DEBUG",
		Value:      "sometimes",
		Message:    "invalid boolean value",
		Suggestion: "Use true or false",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "KEYMIXER_DEBUG")
	assert.Contains(t, errMsg, "sometimes")
	assert.Contains(t, errMsg, "invalid boolean value")
	assert.Contains(t, errMsg, "Use true or false")
}

// TestCommandErrorFormatting verifies CommandError includes exit code
func TestCommandErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.CommandError{
		Command:    "node server.js",
		ExitCode:   1,
		Message:    "exited",
		Suggestion: "Check the output above",
	}

	errMsg := err.Error()
	assert.Contains(t, errMsg, "node server.js")
	assert.Contains(t, errMsg, "exit code: 1")
	assert.Contains(t, errMsg, "Check the output above")
}

// TestKeystoreErrorSuggestions verifies keystore failures get actionable hints
func TestKeystoreErrorSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name               string
		err                error
		expectedSuggestion string
	}{
		{
			name:               "no_keys",
			err:                &keystore.NoKeysError{Service: "OPENAI_API_KEY"},
			expectedSuggestion: "keymixer add OPENAI_API_KEY",
		},
		{
			name:               "load",
			err:                &keystore.LoadError{Path: "keys.json", Err: fmt.Errorf("bad")},
			expectedSuggestion: "keys.json is a JSON or YAML object",
		},
		{
			name:               "save_permission",
			err:                &keystore.SaveError{Path: "keys.json", Err: os.ErrPermission},
			expectedSuggestion: "write permissions",
		},
		{
			name:               "save_missing_dir",
			err:                &keystore.SaveError{Path: "x/keys.json", Err: fmt.Errorf("open x/keys.json: no such file or directory")},
			expectedSuggestion: "KEYMIXER_KEYSTORE_PATH",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := errors.KeystoreError("test", tt.err)
			assert.Contains(t, err.Error(), tt.expectedSuggestion)
			assert.Contains(t, err.Error(), tt.err.Error())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// TestWrapCommandNotFound verifies command not found errors have helpful suggestions
func TestWrapCommandNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command            string
		expectedSuggestion string
	}{
		{"npm", "Node.js"},
		{"docker", "Docker"},
		{"python", "Python"},
		{"unknown-cmd", "in your PATH"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.command, func(t *testing.T) {
			t.Parallel()

			err := errors.WrapCommandNotFound(tt.command, fmt.Errorf("command not found"))

			errMsg := err.Error()
			assert.Contains(t, errMsg, tt.command)
			assert.Contains(t, errMsg, tt.expectedSuggestion)
		})
	}
}

// TestSimplifyError verifies error simplification for common cases
func TestSimplifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		inputError    error
		expectedType  string
		expectedInMsg string
	}{
		{
			name:          "yaml_error",
			inputError:    fmt.Errorf("yaml: line 5: mapping values are not allowed"),
			expectedType:  "ConfigError",
			expectedInMsg: "Invalid YAML",
		},
		{
			name:          "permission_denied",
			inputError:    fmt.Errorf("permission denied"),
			expectedType:  "UserError",
			expectedInMsg: "Permission denied",
		},
		{
			name:          "load_error",
			inputError:    &keystore.LoadError{Path: "k.json", Err: fmt.Errorf("yaml: did not find expected node content")},
			expectedType:  "UserError",
			expectedInMsg: "keystore error during load",
		},
		{
			name:          "no_keys",
			inputError:    fmt.Errorf("env: %w", &keystore.NoKeysError{Service: "S"}),
			expectedType:  "UserError",
			expectedInMsg: "keystore error during get",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			simplified := errors.SimplifyError(tt.inputError)
			assert.Contains(t, simplified.Error(), tt.expectedInMsg)

			switch tt.expectedType {
			case "ConfigError":
				_, ok := simplified.(errors.ConfigError)
				assert.True(t, ok, "Should be ConfigError type")
			case "UserError":
				_, ok := simplified.(errors.UserError)
				assert.True(t, ok, "Should be UserError type")
			}
		})
	}
}

// TestSimplifyErrorKeepsUserErrors verifies an already wrapped keystore error
// is not wrapped a second time
func TestSimplifyErrorKeepsUserErrors(t *testing.T) {
	t.Parallel()

	wrapped := errors.KeystoreError("get", &keystore.NoKeysError{Service: "S"})
	simplified := errors.SimplifyError(wrapped)

	assert.Equal(t, wrapped, simplified)
	assert.Equal(t, 1, strings.Count(simplified.Error(), "keystore error during get"))
}

// TestUserErrorUnwrap verifies error unwrapping works correctly
func TestUserErrorUnwrap(t *testing.T) {
	t.Parallel()

	baseErr := fmt.Errorf("base error")
	userErr := errors.UserError{
		Message: "wrapped error",
		Err:     baseErr,
	}

	assert.Equal(t, baseErr, userErr.Unwrap())
}

// TestKeystoreErrorDoesNotLeakKeys verifies redacted values stay redacted through wrapping
func TestKeystoreErrorDoesNotLeakKeys(t *testing.T) {
	t.Parallel()

	secretValue := "sk-live-abcdefghijklmnop"
	base := fmt.Errorf("rejected key %s", logging.Secret(secretValue))
	err := errors.KeystoreError("add", base)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "[REDACTED]")
	assert.NotContains(t, err.Error(), secretValue)
}

// TestNilErrorHandling verifies nil errors are handled gracefully
func TestNilErrorHandling(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.SimplifyError(nil))
}
