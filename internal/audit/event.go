// Package audit records keystore activity as an append-only stream of
// events. Events are rendered one per line with every field quoted.
package audit

import (
	"strings"
	"time"
)

// EventType names the kind of keystore activity an Event records
type EventType string

const (
	InitKeystore  EventType = "init_keystore"
	LoadKeystore  EventType = "load_keystore"
	Access        EventType = "access"
	AddKey        EventType = "add_key"
	RevokeKey     EventType = "revoke_key"
	WriteKeystore EventType = "write_keystore"
	Error         EventType = "error"
)

// TimestampFormat is the layout used for the first field of every line
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Event is a single audit record. Only the fields relevant to Type are
// rendered; keys must already be redacted by the caller.
type Event struct {
	Timestamp    time.Time
	Type         EventType
	AppID        string
	Service      string
	RedactedKey  string
	KeystorePath string
	Message      string
}

// Fields returns the event's values in emission order
func (e Event) Fields() []string {
	fields := []string{
		e.Timestamp.UTC().Format(TimestampFormat),
		string(e.Type),
		e.AppID,
	}

	switch e.Type {
	case Access, AddKey, RevokeKey:
		fields = append(fields, e.Service, e.RedactedKey)
	case LoadKeystore, WriteKeystore:
		fields = append(fields, e.KeystorePath)
	case InitKeystore, Error:
		fields = append(fields, e.Message)
	default:
		// Unknown types keep whatever detail was supplied
		for _, f := range []string{e.Service, e.RedactedKey, e.KeystorePath, e.Message} {
			if f != "" {
				fields = append(fields, f)
			}
		}
	}

	return fields
}

// Line renders the event as a single newline-terminated record
func (e Event) Line() string {
	fields := e.Fields()
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quote(f)
	}
	return strings.Join(quoted, ",") + "\n"
}

// quote wraps a value in double quotes, doubling embedded quotes and
// flattening line breaks so a record never spans lines.
func quote(s string) string {
	s = strings.ReplaceAll(s, `"`, `""`)
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	return `"` + s + `"`
}
