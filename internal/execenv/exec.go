package execenv

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/systmms/keymixer/internal/envbridge"
	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/keystore"
	"github.com/systmms/keymixer/internal/logging"
)

// Executor runs commands with rotated keys in their environment
type Executor struct {
	logger *logging.Logger
	out    io.Writer
}

// New creates a new executor
func New(logger *logging.Logger) *Executor {
	return &Executor{
		logger: logger,
		out:    os.Stdout,
	}
}

// ExitError reports a child process that exited non-zero. The caller
// decides when to exit with Code.
type ExitError struct {
	Command string
	Code    int
}

func (e ExitError) Error() string {
	return fmt.Sprintf("command '%s' exited with status %d", e.Command, e.Code)
}

// ExecOptions configures command execution
type ExecOptions struct {
	Command    []string           // Command and arguments to run
	Env        envbridge.Accessor // Environment the child inherits
	Services   []string           // Names substituted from the keystore, for PrintVars
	PrintVars  bool               // Print substituted variables (values redacted)
	WorkingDir string             // Working directory for the command
	Timeout    int                // Timeout in seconds (0 for no timeout)
}

// Exec runs a command. A child that exits non-zero yields an ExitError
// carrying its exit code.
func (e *Executor) Exec(ctx context.Context, options ExecOptions) error {
	if len(options.Command) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., keymixer exec -- node server.js)",
		}
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(options.Timeout)*time.Second)
		defer cancel()
	}

	cmdName := options.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return dserrors.WrapCommandNotFound(cmdName, err)
	}

	env := options.Env
	if env == nil {
		env = envbridge.OSEnv{}
	}
	environ := env.Environ()
	substituted := substitutedValues(environ, options.Services)

	if options.PrintVars {
		e.printEnvironment(substituted)
	}

	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = environ
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	secrets := make([]string, 0, len(substituted))
	for _, v := range substituted {
		secrets = append(secrets, v)
	}
	e.logger.Debug("Executing command: %s", logging.Redact(strings.Join(options.Command, " "), secrets))
	e.logger.Debug("Keystore variables set: %d", len(substituted))

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			// Preserve the exit code from the child process
			code := 1
			if status, ok := exitError.Sys().(syscall.WaitStatus); ok && status.ExitStatus() > 0 {
				code = status.ExitStatus()
			}
			e.logger.Debug("Command %s exited with status %d", cmdName, code)
			return ExitError{Command: cmdName, Code: code}
		}
		return dserrors.CommandError{
			Command:    cmdName,
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// substitutedValues picks the values of services out of environ
func substitutedValues(environ []string, services []string) map[string]string {
	wanted := make(map[string]bool, len(services))
	for _, s := range services {
		wanted[s] = true
	}

	values := make(map[string]string)
	for _, kv := range environ {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 && wanted[parts[0]] {
			values[parts[0]] = parts[1]
		}
	}
	return values
}

// printEnvironment displays the substituted variables with redacted values
func (e *Executor) printEnvironment(environment map[string]string) {
	if len(environment) == 0 {
		fmt.Fprintln(e.out, "No keystore variables substituted")
		return
	}

	fmt.Fprintf(e.out, "Substituted %d keystore variables:\n", len(environment))

	keys := make([]string, 0, len(environment))
	for key := range environment {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(e.out, "  %s=%s\n", key, keystore.RedactKey(environment[key]))
	}
	fmt.Fprintln(e.out)
}

// ValidateCommand checks if a command is safe and accessible
func ValidateCommand(command []string) error {
	if len(command) == 0 {
		return dserrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., keymixer exec -- node server.js)",
		}
	}

	cmdName := command[0]

	if _, err := exec.LookPath(cmdName); err != nil {
		return dserrors.WrapCommandNotFound(cmdName, err)
	}

	// Not comprehensive, just a guard against obvious mistakes
	dangerousCommands := []string{
		"rm", "rmdir", "del", "format", "fdisk",
		"dd", "mkfs", "parted", "shutdown", "reboot",
	}

	for _, dangerous := range dangerousCommands {
		if cmdName == dangerous || strings.HasSuffix(cmdName, "/"+dangerous) {
			return dserrors.UserError{
				Message:    fmt.Sprintf("Potentially dangerous command '%s'", cmdName),
				Suggestion: "Use this command with extreme caution or consider safer alternatives",
			}
		}
	}

	return nil
}
