package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/systmms/keymixer/internal/keystore"
)

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message     string
	Suggestion  string
	Details     string
	Err         error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents a command execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// KeystoreError enhances keystore errors with context for the user
func KeystoreError(operation string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("keystore error during %s", operation),
		Details:    err.Error(),
		Suggestion: getKeystoreSuggestion(err),
		Err:        err,
	}
}

// getKeystoreSuggestion returns helpful suggestions based on the keystore error
func getKeystoreSuggestion(err error) string {
	var loadErr *keystore.LoadError
	var saveErr *keystore.SaveError
	var noKeys *keystore.NoKeysError

	switch {
	case errors.As(err, &noKeys):
		return fmt.Sprintf("Add a key first: 'keymixer add %s <key>'", noKeys.Service)
	case errors.As(err, &loadErr):
		return fmt.Sprintf("Check that %s is a JSON or YAML object mapping service names to lists of keys", loadErr.Path)
	case errors.As(err, &saveErr):
		if strings.Contains(saveErr.Err.Error(), "permission denied") {
			return "Check write permissions on the keystore file and its directory"
		}
		if strings.Contains(saveErr.Err.Error(), "no such file or directory") {
			return "Create the keystore directory or set KEYMIXER_KEYSTORE_PATH"
		}
		return "Verify the keystore path is writable"
	}

	return ""
}

// WrapCommandNotFound wraps command not found errors with helpful suggestions
func WrapCommandNotFound(command string, err error) error {
	suggestions := map[string]string{
		"node":   "Install Node.js from https://nodejs.org/",
		"npm":    "Install Node.js from https://nodejs.org/",
		"python": "Install Python from https://python.org/",
		"go":     "Install Go from https://golang.org/",
		"docker": "Install Docker from https://docker.com/",
	}

	suggestion := suggestions[command]
	if suggestion == "" {
		suggestion = fmt.Sprintf("Make sure '%s' is installed and in your PATH", command)
	}

	return CommandError{
		Command:    command,
		Message:    "command not found",
		Suggestion: suggestion,
	}
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	if _, ok := err.(UserError); ok {
		return err
	}
	if _, ok := err.(ConfigError); ok {
		return err
	}
	if _, ok := err.(CommandError); ok {
		return err
	}

	var loadErr *keystore.LoadError
	var saveErr *keystore.SaveError
	switch {
	case errors.As(err, &loadErr):
		return KeystoreError("load", err)
	case errors.As(err, &saveErr):
		return KeystoreError("save", err)
	case errors.Is(err, keystore.ErrNoKeysForService):
		return KeystoreError("get", err)
	}

	// Unwrap to get the root cause
	rootErr := err
	for {
		unwrapped := errors.Unwrap(rootErr)
		if unwrapped == nil {
			break
		}
		rootErr = unwrapped
	}

	// Simplify common technical errors
	errStr := rootErr.Error()

	if strings.Contains(errStr, "yaml:") {
		return ConfigError{
			Message:    "Invalid YAML format",
			Suggestion: "Check for indentation errors and missing quotes",
		}
	}

	if strings.Contains(errStr, "json:") {
		return ConfigError{
			Message:    "Invalid JSON format",
			Suggestion: "Validate your JSON at https://jsonlint.com/",
		}
	}

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	// Return original error if we can't simplify it
	return err
}