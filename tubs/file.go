package tubs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// patternFile is the on-disk layout of a pattern.
type patternFile struct {
	Title       string `yaml:"title,omitempty"`
	Description string `yaml:"description,omitempty"`
	Length      int    `yaml:"length"`
	Omunazi     []Note `yaml:"omunazi,flow"`
	Omwawuzi    []Note `yaml:"omwawuzi,flow"`
}

func (n Note) MarshalYAML() (interface{}, error) {
	if !n.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNote, uint8(n))
	}
	return n.String(), nil
}

func (n *Note) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("%w: line %d: expected a note", ErrInvalidNote, value.Line)
	}
	note, err := ParseNote(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*n = note
	return nil
}

func toFile(p *Pattern) patternFile {
	return patternFile{
		Title:       p.Title,
		Description: p.Description,
		Length:      p.Len(),
		Omunazi:     p.Omunazi,
		Omwawuzi:    p.Omwawuzi,
	}
}

func (f patternFile) pattern() (*Pattern, error) {
	p := &Pattern{
		Title:       f.Title,
		Description: f.Description,
		Omunazi:     f.Omunazi,
		Omwawuzi:    f.Omwawuzi,
	}
	if len(p.Omunazi) != f.Length || len(p.Omwawuzi) != f.Length {
		return nil, fmt.Errorf("%w: length is %d but voices have %d and %d steps",
			ErrMalformedPattern, f.Length, len(p.Omunazi), len(p.Omwawuzi))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func Encode(w io.Writer, p *Pattern) error {
	if err := p.Validate(); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toFile(p)); err != nil {
		return err
	}
	return enc.Close()
}

// Decode reads a single pattern. Any structural problem is reported as
// ErrMalformedPattern.
func Decode(r io.Reader) (*Pattern, error) {
	var f patternFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty file", ErrMalformedPattern)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedPattern, err)
	}
	return f.pattern()
}

func LoadFile(path string) (*Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return p, nil
}

// SaveFile writes p next to path and renames it into place, so a failed
// write never truncates an existing pattern.
func SaveFile(path string, p *Pattern) error {
	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".pattern-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
