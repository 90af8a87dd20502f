// Package snapshot persists catalog snapshots at stage boundaries.
//
// The format is a self-describing, element-ordered XML document with
// explicit wrapper elements for list-valued fields, so a multi-hour
// assembly can be resumed after interruption, inspected offline, and
// diffed between runs.
package snapshot

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mkorpi/alexandria/internal/catalog"
)

// document pins the root element name without leaking encoding details
// into the catalog types.
type document struct {
	XMLName xml.Name `xml:"catalog"`
	*catalog.Catalog
}

// Marshal serializes a catalog to its snapshot representation.
func Marshal(c *catalog.Catalog) ([]byte, error) {
	data, err := xml.Marshal(document{Catalog: c})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// MarshalFormatted serializes a catalog with indentation for human
// review.
func MarshalFormatted(c *catalog.Catalog) ([]byte, error) {
	data, err := xml.MarshalIndent(document{Catalog: c}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// Unmarshal parses a snapshot back into a catalog.
func Unmarshal(data []byte) (*catalog.Catalog, error) {
	doc := document{Catalog: &catalog.Catalog{}}
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}
	return doc.Catalog, nil
}

// Write serializes a catalog to the given path, creating parent
// directories as needed.
func Write(path string, c *catalog.Catalog) error {
	return write(path, c, Marshal)
}

// WriteFormatted writes the pretty-printed snapshot variant.
func WriteFormatted(path string, c *catalog.Catalog) error {
	return write(path, c, MarshalFormatted)
}

func write(path string, c *catalog.Catalog, marshal func(*catalog.Catalog) ([]byte, error)) error {
	data, err := marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Read loads a catalog snapshot from the given path.
func Read(path string) (*catalog.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Unmarshal(data)
}
