package tubs

import (
	"errors"
	"reflect"
	"testing"
)

func mustPattern(t *testing.T, a, b string) *Pattern {
	t.Helper()
	p, err := Parse(a, b)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestParseNote(t *testing.T) {
	tests := []struct {
		input string
		want  Note
		err   bool
	}{
		{input: "C", want: C},
		{input: "a", want: A},
		{input: "3", want: E},
		{input: "5", want: A},
		{input: "_", want: Rest},
		{input: ".", want: Rest},
		{input: "6", err: true},
		{input: "F", err: true},
		{input: "", err: true},
	}
	for _, test := range tests {
		got, err := ParseNote(test.input)
		if test.err {
			if !errors.Is(err, ErrInvalidNote) {
				t.Errorf("%q: expected ErrInvalidNote, got %v", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: %v", test.input, err)
			continue
		}
		if want, got := test.want, got; want != got {
			t.Errorf("%q: want %v, got %v", test.input, want, got)
		}
	}
}

func TestParseVoice(t *testing.T) {
	for input, want := range map[string]Voice{
		"a": Omunazi, "okunaga": Omunazi, "Omunazi": Omunazi,
		"b": Omwawuzi, "okwawula": Omwawuzi, "2": Omwawuzi,
	} {
		got, err := ParseVoice(input)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("%q: want %v, got %v", input, want, got)
		}
	}
	if _, err := ParseVoice("c"); err == nil {
		t.Error("expected an error for an unknown voice")
	}
}

func TestNewLength(t *testing.T) {
	for _, length := range []int{ShortLength, LongLength} {
		p, err := New(length)
		if err != nil {
			t.Fatal(err)
		}
		if want, got := length, p.Len(); want != got {
			t.Errorf("want length %v, got %v", want, got)
		}
		if want, got := length, len(p.Omwawuzi); want != got {
			t.Errorf("want omwawuzi length %v, got %v", want, got)
		}
	}
	for _, length := range []int{0, 5, 8, 16} {
		if _, err := New(length); !errors.Is(err, ErrMalformedPattern) {
			t.Errorf("length %d: expected ErrMalformedPattern, got %v", length, err)
		}
	}
}

func TestSetAndClear(t *testing.T) {
	p, _ := New(ShortLength)
	if err := p.Set(Omunazi, 2, G); err != nil {
		t.Fatal(err)
	}
	if want, got := G, p.Note(Omunazi, 2); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if err := p.Set(Omwawuzi, 6, C); !errors.Is(err, ErrStepRange) {
		t.Errorf("expected ErrStepRange, got %v", err)
	}
	if err := p.Set(Omwawuzi, 0, Note(9)); !errors.Is(err, ErrInvalidNote) {
		t.Errorf("expected ErrInvalidNote, got %v", err)
	}
	if err := p.Clear(Omunazi, 2); err != nil {
		t.Fatal(err)
	}
	if p.HasNotes(Omunazi) {
		t.Error("expected omunazi to be empty after clear")
	}
}

func TestCombined(t *testing.T) {
	p := mustPattern(t, "C _ E _ G _", "_ D _ E _ A")
	var got []Note
	for _, cell := range p.Combined() {
		got = append(got, cell.Note)
	}
	if want := []Note{C, D, E, E, G, A}; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong combined sequence:\nwant: %v\ngot:  %v", want, got)
	}

	p = mustPattern(t, "C C _ _ _ _", "D _ _ _ _ A")
	want := []Cell{
		{Voice: Omunazi, Step: 0, Note: C},
		{Voice: Omwawuzi, Step: 0, Note: D},
		{Voice: Omunazi, Step: 1, Note: C},
		{Voice: Omwawuzi, Step: 5, Note: A},
	}
	if got := p.Combined(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong combined cells:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestValidate(t *testing.T) {
	p := mustPattern(t, "C _ E _ G _", "_ D _ E _ A")
	if err := p.Validate(); err != nil {
		t.Fatal(err)
	}
	bad := p.Clone()
	bad.Omwawuzi = bad.Omwawuzi[:5]
	if err := bad.Validate(); !errors.Is(err, ErrMalformedPattern) {
		t.Errorf("expected ErrMalformedPattern for length mismatch, got %v", err)
	}
	bad = p.Clone()
	bad.Omunazi[1] = Note(7)
	if err := bad.Validate(); !errors.Is(err, ErrMalformedPattern) {
		t.Errorf("expected ErrMalformedPattern for bad pitch, got %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	p := mustPattern(t, "C _ E _ G _", "_ D _ E _ A")
	p.Title = "exercise"
	c := p.Clone()
	if !c.Equal(p) {
		t.Fatal("clone differs from original")
	}
	c.Set(Omunazi, 0, A)
	if p.Note(Omunazi, 0) != C {
		t.Error("editing the clone changed the original")
	}
	if c.Equal(p) {
		t.Error("expected patterns to differ after edit")
	}
}
