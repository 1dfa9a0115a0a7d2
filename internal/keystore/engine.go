// Package keystore holds credentials grouped by service and hands them out
// in strict round-robin order. Every load, save, access and mutation is
// recorded to an audit sink with keys redacted.
package keystore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/systmms/keymixer/internal/audit"
	"github.com/systmms/keymixer/internal/logging"
)

// DefaultAppID tags audit events when no application id is configured
const DefaultAppID = "default"

// Engine owns the keystore and the per-service rotation cursors. Construct
// one per process and pass it to whatever needs keys.
type Engine struct {
	mu sync.Mutex

	path     string
	appID    string
	doc      *Document
	counters map[string]int

	sink    audit.Sink
	logger  *logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithPath sets the keystore path used by Refresh and Save
func WithPath(path string) Option {
	return func(e *Engine) { e.path = path }
}

// WithAppID sets the application id recorded on audit events
func WithAppID(appID string) Option {
	return func(e *Engine) {
		if appID != "" {
			e.appID = appID
		}
	}
}

// WithSink sets the audit sink. A nil sink disables audit logging.
func WithSink(sink audit.Sink) Option {
	return func(e *Engine) {
		if sink == nil {
			sink = audit.Nop{}
		}
		e.sink = sink
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics enables metric recording
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the audit timestamp source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an empty engine. Call Load to read a keystore from disk.
func New(opts ...Option) *Engine {
	e := &Engine{
		appID:    DefaultAppID,
		doc:      NewDocument(),
		counters: make(map[string]int),
		sink:     audit.Nop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the configured keystore path
func (e *Engine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// AppID returns the application id recorded on audit events
func (e *Engine) AppID() string {
	return e.appID
}

// Load replaces the keystore with the document at path. A missing file
// yields an empty keystore. A file that cannot be parsed returns a
// *LoadError and leaves the engine untouched.
func (e *Engine) Load(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(path)
}

// Refresh reloads the keystore from the configured path, discarding
// unsaved changes.
func (e *Engine) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(e.path)
}

func (e *Engine) load(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			e.path = path
			e.doc = NewDocument()
			e.resetCounters()
			e.emit(audit.Event{
				Type:    audit.InitKeystore,
				Message: fmt.Sprintf("keystore %s not found, initialized empty keystore", path),
			})
			e.logger.Debug("No keystore at %s, starting empty", path)
			e.metrics.RecordOperation("load", nil)
			e.metrics.SetServices(0)
			return nil
		}
		return e.loadFailed(path, err)
	}

	doc, err := ParseDocument(data)
	if err != nil {
		return e.loadFailed(path, err)
	}

	e.path = path
	e.doc = doc
	e.resetCounters()
	e.emit(audit.Event{Type: audit.LoadKeystore, KeystorePath: path})
	e.logger.Debug("Loaded %d services from %s", len(doc.services), path)
	e.metrics.RecordOperation("load", nil)
	e.metrics.SetServices(e.usableServices())
	return nil
}

func (e *Engine) loadFailed(path string, err error) error {
	loadErr := &LoadError{Path: path, Err: err}
	e.emit(audit.Event{Type: audit.Error, Message: loadErr.Error()})
	e.metrics.RecordOperation("load", loadErr)
	return loadErr
}

func (e *Engine) resetCounters() {
	e.counters = make(map[string]int, len(e.doc.services))
	for _, service := range e.doc.services {
		e.counters[service] = 0
	}
}

func (e *Engine) usableServices() int {
	n := 0
	for _, service := range e.doc.services {
		if e.doc.Len(service) > 0 {
			n++
		}
	}
	return n
}

// HasKeysFor reports whether service has at least one key
func (e *Engine) HasKeysFor(service string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Len(service) > 0
}

// IsInKeystore reports whether key is one of service's keys
func (e *Engine) IsInKeystore(service, key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return indexOf(e.doc.keys[service], key) >= 0
}

// GetKey returns the next key for service and advances its cursor. The
// cursor wraps after the last key.
func (e *Engine) GetKey(service string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := e.doc.keys[service]
	if len(keys) == 0 {
		return "", &NoKeysError{Service: service}
	}

	index := e.counters[service] % len(keys)
	e.counters[service] = (index + 1) % len(keys)
	key := keys[index]

	redacted := RedactKey(key)
	e.emit(audit.Event{Type: audit.Access, Service: service, RedactedKey: redacted})
	e.logger.Debug("Rotated key for %s: %s (position %d of %d)", service, redacted, index+1, len(keys))
	e.metrics.RecordAccess(service)

	return key, nil
}

// AddKey appends key to service's rotation. It returns false when the key
// is empty, not valid UTF-8, or already present. The cursor of an existing service is left
// alone so the new key is reached when rotation comes round to it.
func (e *Engine) AddKey(service, key string) bool {
	if service == "" || key == "" {
		return false
	}
	// The document encoder would replace invalid bytes, so the key could
	// not be read back.
	if !utf8.ValidString(service) || !utf8.ValidString(key) {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	keys := e.doc.keys[service]
	if indexOf(keys, key) >= 0 {
		return false
	}

	if !e.doc.Has(service) {
		e.counters[service] = 0
	}
	e.doc.Set(service, append(keys, key))

	e.emit(audit.Event{Type: audit.AddKey, Service: service, RedactedKey: RedactKey(key)})
	e.metrics.RecordMutation(service, "add")
	e.metrics.SetServices(e.usableServices())
	return true
}

// RevokeKey removes key from service and restarts its rotation from the
// first remaining key. It returns false if there was nothing to remove.
func (e *Engine) RevokeKey(service, key string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	keys := e.doc.keys[service]
	index := indexOf(keys, key)
	if index < 0 {
		return false
	}

	remaining := make([]string, 0, len(keys)-1)
	remaining = append(remaining, keys[:index]...)
	remaining = append(remaining, keys[index+1:]...)
	e.doc.Set(service, remaining)
	e.counters[service] = 0

	e.emit(audit.Event{Type: audit.RevokeKey, Service: service, RedactedKey: RedactKey(key)})
	e.metrics.RecordMutation(service, "revoke")
	e.metrics.SetServices(e.usableServices())
	return true
}

// Save writes the keystore to the configured path
func (e *Engine) Save() error {
	return e.SaveTo("")
}

// SaveTo writes the keystore to path, or to the configured path when path
// is empty. The configured path does not change.
func (e *Engine) SaveTo(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if path == "" {
		path = e.path
	}

	err := e.save(path)
	e.metrics.RecordOperation("save", err)
	if err != nil {
		saveErr := &SaveError{Path: path, Err: err}
		e.emit(audit.Event{Type: audit.Error, Message: saveErr.Error()})
		return saveErr
	}

	e.emit(audit.Event{Type: audit.WriteKeystore, KeystorePath: path})
	return nil
}

func (e *Engine) save(path string) error {
	if path == "" {
		return errors.New("no keystore path configured")
	}

	data, err := e.doc.Encode(FormatForPath(path))
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Clean(path), data, 0600)
}

// Services returns the known service names in keystore order, including
// services whose keys have all been revoked.
func (e *Engine) Services() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Services()
}

// Keys returns a copy of service's keys in rotation order
func (e *Engine) Keys(service string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Keys(service)
}

// Snapshot returns a deep copy of the keystore
func (e *Engine) Snapshot() *Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// emit stamps and writes an audit event. Sink failures are reported to the
// logger and never returned to the caller.
func (e *Engine) emit(ev audit.Event) {
	ev.Timestamp = e.now()
	ev.AppID = e.appID
	if err := e.sink.Write(ev); err != nil {
		e.logger.Warn("Audit log write failed for %s event: %v", ev.Type, err)
		e.metrics.RecordAuditFailure()
	}
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
