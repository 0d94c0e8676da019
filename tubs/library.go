package tubs

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed library.yaml
var bundledLibrary []byte

// Library is a read-only collection of named patterns. Lookups hand out
// clones so callers can edit what they get.
type Library struct {
	patterns []*Pattern
}

// DefaultLibrary returns the traditional repertoire shipped with the program.
func DefaultLibrary() *Library {
	lib, err := LoadLibrary(bytes.NewReader(bundledLibrary))
	if err != nil {
		panic(fmt.Sprintf("bundled library: %v", err))
	}
	return lib
}

// LoadLibrary reads a YAML list of patterns.
func LoadLibrary(r io.Reader) (*Library, error) {
	var files []patternFile
	if err := yaml.NewDecoder(r).Decode(&files); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPattern, err)
	}
	lib := &Library{}
	for i, f := range files {
		p, err := f.pattern()
		if err != nil {
			return nil, fmt.Errorf("library entry %d: %w", i+1, err)
		}
		if p.Title == "" {
			return nil, fmt.Errorf("library entry %d: %w: missing title", i+1, ErrMalformedPattern)
		}
		lib.patterns = append(lib.patterns, p)
	}
	return lib, nil
}

// Merge appends the entries of other that are not already present by title.
func (l *Library) Merge(other *Library) {
	for _, p := range other.patterns {
		if _, ok := l.Lookup(p.Title); !ok {
			l.patterns = append(l.patterns, p)
		}
	}
}

func (l *Library) Len() int {
	return len(l.patterns)
}

func (l *Library) Names() []string {
	names := make([]string, len(l.patterns))
	for i, p := range l.patterns {
		names[i] = p.Title
	}
	return names
}

// Lookup finds a pattern by title, ignoring case.
func (l *Library) Lookup(name string) (*Pattern, bool) {
	name = strings.TrimSpace(name)
	for _, p := range l.patterns {
		if strings.EqualFold(p.Title, name) {
			return p.Clone(), true
		}
	}
	return nil, false
}

// At returns the i-th pattern, counting from 1.
func (l *Library) At(i int) (*Pattern, bool) {
	if i < 1 || i > len(l.patterns) {
		return nil, false
	}
	return l.patterns[i-1].Clone(), true
}
