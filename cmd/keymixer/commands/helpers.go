package commands

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/systmms/keymixer/internal/audit"
	"github.com/systmms/keymixer/internal/config"
	dserrors "github.com/systmms/keymixer/internal/errors"
	"github.com/systmms/keymixer/internal/keystore"
)

// openEngine builds the keystore engine described by cfg and loads the
// configured keystore.
func openEngine(cfg *config.Config) (*keystore.Engine, error) {
	logger := cfg.GetLogger()

	var sink audit.Sink = audit.Nop{}
	if cfg.AuditLog {
		sink = audit.NewFileSink(cfg.LogPath)
	}

	opts := []keystore.Option{
		keystore.WithPath(cfg.KeystorePath),
		keystore.WithAppID(cfg.AppID),
		keystore.WithSink(sink),
		keystore.WithLogger(logger),
	}
	if cfg.MetricsFile != "" {
		keystore.InitMetrics()
		opts = append(opts, keystore.WithMetrics(keystore.NewMetrics()))
	}

	engine := keystore.New(opts...)
	if err := engine.Refresh(); err != nil {
		return nil, dserrors.KeystoreError("load", err)
	}

	logger.Debug("Using keystore %s (%d services)", cfg.KeystorePath, len(engine.Services()))
	return engine, nil
}

// saveEngine persists the keystore, converting failures to user errors
func saveEngine(engine *keystore.Engine) error {
	if err := engine.Save(); err != nil {
		return dserrors.KeystoreError("save", err)
	}
	return nil
}

// FlushMetrics writes the default Prometheus registry to cfg.MetricsFile
func FlushMetrics(cfg *config.Config) error {
	if cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

// readKeys returns one key per non-blank line of r
func readKeys(r io.Reader) ([]string, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			keys = append(keys, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keys: %w", err)
	}
	return keys, nil
}

// collectKeys merges positional keys with keys read from stdin
func collectKeys(args []string, fromStdin bool, stdin io.Reader) ([]string, error) {
	keys := append([]string{}, args...)
	if fromStdin {
		more, err := readKeys(stdin)
		if err != nil {
			return nil, err
		}
		keys = append(keys, more...)
	}
	if len(keys) == 0 {
		return nil, dserrors.UserError{
			Message:    "No keys given",
			Suggestion: "Pass keys as arguments or pipe them in with --stdin",
		}
	}
	return keys, nil
}
