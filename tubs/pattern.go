// Package tubs holds the two-voice TUBS grid used for amadinda patterns.
package tubs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedPattern = errors.New("malformed pattern")
	ErrInvalidNote      = errors.New("invalid note")
	ErrStepRange        = errors.New("step out of range")
)

// Supported pattern lengths, in steps per voice.
const (
	ShortLength = 6
	LongLength  = 12
)

// Note is a pitch of the pentatonic amadinda scale. The zero value is a rest.
type Note uint8

const (
	Rest Note = iota
	C
	D
	E
	G
	A
)

// Scale lists the playable notes from lowest to highest.
var Scale = []Note{C, D, E, G, A}

var noteNames = [...]string{"_", "C", "D", "E", "G", "A"}

func (n Note) String() string {
	if !n.Valid() {
		return fmt.Sprintf("Note(%d)", uint8(n))
	}
	return noteNames[n]
}

// Number returns the cipher notation of the note, 1 to 5, or 0 for a rest.
func (n Note) Number() int {
	return int(n)
}

func (n Note) Valid() bool {
	return n <= A
}

// ParseNote accepts a note name, a number from 1 to 5 or one of the rest
// tokens "_", "-" and ".".
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "_", "-", ".":
		return Rest, nil
	}
	if k, err := strconv.Atoi(s); err == nil {
		if k < 1 || k > len(Scale) {
			return Rest, fmt.Errorf("%w: %q", ErrInvalidNote, s)
		}
		return Note(k), nil
	}
	for i, name := range noteNames[1:] {
		if strings.EqualFold(s, name) {
			return Note(i + 1), nil
		}
	}
	return Rest, fmt.Errorf("%w: %q", ErrInvalidNote, s)
}

// Voice identifies one of the two interlocking parts.
type Voice int

const (
	Omunazi Voice = iota
	Omwawuzi
)

var Voices = []Voice{Omunazi, Omwawuzi}

func (v Voice) String() string {
	switch v {
	case Omunazi:
		return "omunazi"
	case Omwawuzi:
		return "omwawuzi"
	}
	return fmt.Sprintf("Voice(%d)", int(v))
}

func ParseVoice(s string) (Voice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a", "1", "omunazi", "okunaga":
		return Omunazi, nil
	case "b", "2", "omwawuzi", "okwawula":
		return Omwawuzi, nil
	}
	return 0, fmt.Errorf("unknown voice: %q", s)
}

// Cell addresses a single note on the grid.
type Cell struct {
	Voice Voice
	Step  int
	Note  Note
}

// Pattern is a pair of equally long note sequences plus descriptive metadata.
type Pattern struct {
	Title       string
	Description string
	Omunazi     []Note
	Omwawuzi    []Note
}

func New(length int) (*Pattern, error) {
	if !ValidLength(length) {
		return nil, fmt.Errorf("%w: unsupported length %d", ErrMalformedPattern, length)
	}
	return &Pattern{
		Omunazi:  make([]Note, length),
		Omwawuzi: make([]Note, length),
	}, nil
}

// Parse builds a pattern from two space separated note lists, e.g.
// "C _ E _ G _" and "_ D _ E _ A".
func Parse(omunazi, omwawuzi string) (*Pattern, error) {
	a, err := parseNotes(omunazi)
	if err != nil {
		return nil, err
	}
	b, err := parseNotes(omwawuzi)
	if err != nil {
		return nil, err
	}
	p := &Pattern{Omunazi: a, Omwawuzi: b}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseNotes(s string) ([]Note, error) {
	fields := strings.Fields(s)
	notes := make([]Note, len(fields))
	for i, f := range fields {
		n, err := ParseNote(f)
		if err != nil {
			return nil, err
		}
		notes[i] = n
	}
	return notes, nil
}

func ValidLength(length int) bool {
	return length == ShortLength || length == LongLength
}

func (p *Pattern) Len() int {
	return len(p.Omunazi)
}

// Notes returns the sequence for v. The slice is shared with the pattern.
func (p *Pattern) Notes(v Voice) []Note {
	if v == Omwawuzi {
		return p.Omwawuzi
	}
	return p.Omunazi
}

func (p *Pattern) Note(v Voice, step int) Note {
	notes := p.Notes(v)
	if step < 0 || step >= len(notes) {
		return Rest
	}
	return notes[step]
}

func (p *Pattern) Set(v Voice, step int, n Note) error {
	notes := p.Notes(v)
	if step < 0 || step >= len(notes) {
		return fmt.Errorf("%w: %d (length %d)", ErrStepRange, step+1, len(notes))
	}
	if !n.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidNote, n)
	}
	notes[step] = n
	return nil
}

// Clear sets the given steps of v to rests. With no steps the whole voice
// is cleared.
func (p *Pattern) Clear(v Voice, steps ...int) error {
	notes := p.Notes(v)
	if len(steps) == 0 {
		for i := range notes {
			notes[i] = Rest
		}
		return nil
	}
	for _, step := range steps {
		if err := p.Set(v, step, Rest); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears both voices and keeps the metadata.
func (p *Pattern) Reset() {
	for _, v := range Voices {
		p.Clear(v)
	}
}

func (p *Pattern) HasNotes(v Voice) bool {
	return p.Active(v) > 0
}

// Active counts the non-rest cells of v.
func (p *Pattern) Active(v Voice) int {
	var n int
	for _, note := range p.Notes(v) {
		if note != Rest {
			n++
		}
	}
	return n
}

func (p *Pattern) Clone() *Pattern {
	c := *p
	c.Omunazi = append([]Note(nil), p.Omunazi...)
	c.Omwawuzi = append([]Note(nil), p.Omwawuzi...)
	return &c
}

func (p *Pattern) Equal(q *Pattern) bool {
	if p == nil || q == nil {
		return p == q
	}
	if p.Title != q.Title || p.Description != q.Description {
		return false
	}
	return equalNotes(p.Omunazi, q.Omunazi) && equalNotes(p.Omwawuzi, q.Omwawuzi)
}

func equalNotes(a, b []Note) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Validate checks the length and pitch invariants of the grid.
func (p *Pattern) Validate() error {
	if len(p.Omunazi) != len(p.Omwawuzi) {
		return fmt.Errorf("%w: voices differ in length (%d and %d)",
			ErrMalformedPattern, len(p.Omunazi), len(p.Omwawuzi))
	}
	if !ValidLength(p.Len()) {
		return fmt.Errorf("%w: unsupported length %d", ErrMalformedPattern, p.Len())
	}
	for _, v := range Voices {
		for i, n := range p.Notes(v) {
			if !n.Valid() {
				return fmt.Errorf("%w: %s step %d: invalid pitch code %d",
					ErrMalformedPattern, v, i+1, uint8(n))
			}
		}
	}
	return nil
}

// Combined returns the onsets of both voices in playing order: for every step
// the omunazi note comes before the omwawuzi note. Rests are skipped.
func (p *Pattern) Combined() []Cell {
	var cells []Cell
	for step := 0; step < p.Len(); step++ {
		for _, v := range Voices {
			if n := p.Note(v, step); n != Rest {
				cells = append(cells, Cell{Voice: v, Step: step, Note: n})
			}
		}
	}
	return cells
}
