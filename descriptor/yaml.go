package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	varsel "github.com/albertocavalcante/go-varsel"
)

// ParseYAML parses a YAML descriptor. Unknown fields are rejected.
func ParseYAML(filename string, content []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty document", varsel.ErrInvalidDescriptor, filename)
		}
		return nil, fmt.Errorf("%w: %s: %w", varsel.ErrInvalidDescriptor, filename, err)
	}
	doc.Path = filename
	return &doc, nil
}

// MarshalYAML renders a document in the YAML descriptor syntax.
func MarshalYAML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
