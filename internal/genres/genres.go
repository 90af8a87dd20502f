// Package genres holds the bundled canonical genre-name table. The
// record API reports genres inconsistently across eras; this table maps
// the known aliases onto one canonical name per genre and supplies the
// default genre for records that report none. It is loaded exactly once
// at boot and threaded through the assembly settings.
package genres

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/mkorpi/alexandria/internal/catalog"
	"gopkg.in/yaml.v3"
)

//go:embed genres.yaml
var bundled []byte

type entry struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

type tableFile struct {
	Default string  `yaml:"default"`
	Genres  []entry `yaml:"genres"`
}

// Table resolves reported genre names to canonical genres.
type Table struct {
	byKey       map[string]catalog.Genre
	defaultName catalog.Genre
}

// Load parses the bundled table.
func Load() (*Table, error) {
	return parse(bundled)
}

func parse(data []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse genre table: %w", err)
	}

	t := &Table{byKey: make(map[string]catalog.Genre)}
	for _, e := range file.Genres {
		g := catalog.Genre{ID: e.ID, Name: e.Name}
		t.byKey[g.Key()] = g
		for _, alias := range e.Aliases {
			t.byKey[strings.ToLower(strings.TrimSpace(alias))] = g
		}
		if e.Name == file.Default {
			t.defaultName = g
		}
	}
	if t.defaultName.Name == "" {
		return nil, fmt.Errorf("genre table has no entry for default %q", file.Default)
	}
	return t, nil
}

// Canonical maps a reported genre onto its canonical entry. Unknown
// names pass through unchanged so new upstream genres are not lost.
func (t *Table) Canonical(g catalog.Genre) catalog.Genre {
	if c, ok := t.byKey[g.Key()]; ok {
		return c
	}
	return g
}

// Default returns the genre applied to records that report none.
func (t *Table) Default() catalog.Genre {
	return t.defaultName
}
