package keystore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// documentSchema describes the persisted keystore: service names mapped to
// ordered lists of keys.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "keymixer keystore",
  "type": "object",
  "additionalProperties": {
    "type": "array",
    "items": { "type": "string" }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(documentSchema)

// Format selects the on-disk encoding of a keystore document
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml/.yml files and JSON for everything else
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is an ordered mapping of service name to keys. Both the order of
// services and the order of keys within a service are preserved.
type Document struct {
	services []string
	keys     map[string][]string
}

// NewDocument returns an empty document
func NewDocument() *Document {
	return &Document{keys: make(map[string][]string)}
}

// Services returns service names in document order
func (d *Document) Services() []string {
	out := make([]string, len(d.services))
	copy(out, d.services)
	return out
}

// Has reports whether service is present, even with an empty key list
func (d *Document) Has(service string) bool {
	_, ok := d.keys[service]
	return ok
}

// Keys returns a copy of the keys for service
func (d *Document) Keys(service string) []string {
	keys, ok := d.keys[service]
	if !ok {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// Len returns the number of keys for service
func (d *Document) Len(service string) int {
	return len(d.keys[service])
}

// Set replaces the keys for service, appending the service if new
func (d *Document) Set(service string, keys []string) {
	if _, ok := d.keys[service]; !ok {
		d.services = append(d.services, service)
	}
	d.keys[service] = append([]string{}, keys...)
}

// Clone returns a deep copy
func (d *Document) Clone() *Document {
	c := NewDocument()
	for _, s := range d.services {
		c.Set(s, d.keys[s])
	}
	return c
}

// ParseDocument decodes a keystore document. JSON objects are read with
// encoding/json; anything else, including YAML flow mappings, goes through
// the YAML decoder.
func ParseDocument(data []byte) (*Document, error) {
	if looksLikeJSON(data) {
		return parseJSONDocument(data)
	}
	return parseYAMLDocument(data)
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(data)
}

// parseJSONDocument walks the token stream so service order survives. A
// repeated service name keeps its first position and its last key list.
func parseJSONDocument(data []byte) (*Document, error) {
	if err := validateDocument(gojsonschema.NewBytesLoader(data)); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("invalid keystore document: %w", err)
		}
		service, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("invalid keystore document: unexpected %v", tok)
		}

		if err := expectDelim(dec, '['); err != nil {
			return nil, fmt.Errorf("invalid keys for service %s: %w", service, err)
		}
		keys := []string{}
		for dec.More() {
			var key string
			if err := dec.Decode(&key); err != nil {
				return nil, fmt.Errorf("invalid keys for service %s: %w", service, err)
			}
			keys = append(keys, key)
		}
		if err := expectDelim(dec, ']'); err != nil {
			return nil, fmt.Errorf("invalid keys for service %s: %w", service, err)
		}

		doc.Set(service, keys)
	}

	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	return doc, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("invalid keystore document: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("invalid keystore document: expected %q, got %v", want, tok)
	}
	return nil
}

func parseYAMLDocument(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("invalid keystore document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, fmt.Errorf("invalid keystore document: empty document")
	}

	mapping := root.Content[0]
	var generic interface{}
	if err := mapping.Decode(&generic); err != nil {
		return nil, fmt.Errorf("invalid keystore document: %w", err)
	}
	if err := validateDocument(gojsonschema.NewGoLoader(generic)); err != nil {
		return nil, err
	}

	doc := NewDocument()
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		service := mapping.Content[i].Value
		var keys []string
		if err := mapping.Content[i+1].Decode(&keys); err != nil {
			return nil, fmt.Errorf("invalid keys for service %s: %w", service, err)
		}
		doc.Set(service, keys)
	}

	return doc, nil
}

func validateDocument(document gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(schemaLoader, document)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var errorMessages []string
		for _, desc := range result.Errors() {
			errorMessages = append(errorMessages, desc.String())
		}
		return fmt.Errorf("schema validation failed:\n  - %s", strings.Join(errorMessages, "\n  - "))
	}

	return nil
}

// Encode serializes the document in the given format
func (d *Document) Encode(format Format) ([]byte, error) {
	if format == FormatYAML {
		return d.encodeYAML()
	}
	return d.encodeJSON()
}

// MarshalJSON keeps service order, which encoding a map would not
func (d *Document) MarshalJSON() ([]byte, error) {
	return d.encodeJSON()
}

func (d *Document) encodeJSON() ([]byte, error) {
	var buf bytes.Buffer
	if len(d.services) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	for i, service := range d.services {
		name, err := jsonString(service)
		if err != nil {
			return nil, err
		}
		buf.WriteString("  " + name + ": ")

		keys := d.keys[service]
		if len(keys) == 0 {
			buf.WriteString("[]")
		} else {
			buf.WriteString("[\n")
			for j, key := range keys {
				value, err := jsonString(key)
				if err != nil {
					return nil, err
				}
				buf.WriteString("    " + value)
				if j < len(keys)-1 {
					buf.WriteString(",")
				}
				buf.WriteString("\n")
			}
			buf.WriteString("  ]")
		}

		if i < len(d.services)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")

	return buf.Bytes(), nil
}

func jsonString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func (d *Document) encodeYAML() ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, service := range d.services {
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		if len(d.keys[service]) == 0 {
			seq.Style = yaml.FlowStyle
		}
		for _, key := range d.keys[service] {
			seq.Content = append(seq.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key})
		}
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: service},
			seq,
		)
	}
	if len(mapping.Content) == 0 {
		mapping.Style = yaml.FlowStyle
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return nil, fmt.Errorf("failed to encode keystore: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode keystore: %w", err)
	}

	return buf.Bytes(), nil
}
