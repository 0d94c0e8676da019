package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mrdg/amadinda/tubs"
)

// Sequences prohibits three-note figures in the combined line of both
// parts. Figures are written in cipher notation, C=1 through A=5.
type Sequences struct {
	name        string
	explanation string
	prohibited  map[string]bool
	suggestions map[string][]string
}

// RepeatedNotes prohibits three identical notes in a row. This is the rule
// that traditional pieces almost never break.
func RepeatedNotes() *Sequences {
	return &Sequences{
		name:        "repeated-notes",
		explanation: "three identical notes in sequence are avoided",
		prohibited:  set("111", "222", "333", "444", "555"),
		suggestions: map[string][]string{
			"111": {"121", "131", "151"},
			"222": {"232", "242", "252"},
			"333": {"343", "353", "313"},
			"444": {"454", "414", "434"},
			"555": {"515", "525", "545"},
		},
	}
}

// KubikSequences holds the stricter figures from Gerhard Kubik's analysis.
// Some traditional pieces break them.
func KubikSequences() *Sequences {
	return &Sequences{
		name:        "kubik-sequences",
		explanation: "figure does not appear in traditional compositions",
		prohibited: set(
			"121", "232", "343", "454",
			"151", "212", "323", "434", "545",
			"112", "334",
			"115", "332", "443", "554",
			"155", "544",
			"123", "234", "345", "451", "512",
		),
	}
}

func set(figures ...string) map[string]bool {
	m := make(map[string]bool, len(figures))
	for _, f := range figures {
		m[f] = true
	}
	return m
}

func (s *Sequences) Name() string { return s.name }

func (s *Sequences) Check(p *tubs.Pattern) Result {
	res := Result{Passed: true}
	// The rules describe the composite melody, so a single part is not judged.
	if !p.HasNotes(tubs.Omunazi) || !p.HasNotes(tubs.Omwawuzi) {
		return res
	}
	cells := p.Combined()
	for i := 0; i+3 <= len(cells); i++ {
		window := cells[i : i+3]
		figure := cipher(window)
		if !s.prohibited[figure] {
			continue
		}
		res.Passed = false
		res.Violations = append(res.Violations, Violation{
			Step:        window[0].Step,
			Cells:       append([]tubs.Cell(nil), window...),
			Message:     s.message(figure),
			Suggestions: s.suggestions[figure],
		})
	}
	if !res.Passed {
		res.Explanation = s.explanation
	}
	return res
}

func (s *Sequences) message(figure string) string {
	msg := fmt.Sprintf("figure %s is not used in traditional Kiganda music", figure)
	switch {
	case figure[0] == figure[1] && figure[1] == figure[2]:
		msg += "; three identical notes in sequence are avoided"
	case figure == "123" || figure == "234" || figure == "345":
		msg += "; three ascending notes in sequence are avoided"
	}
	return msg
}

func cipher(cells []tubs.Cell) string {
	var b strings.Builder
	for _, c := range cells {
		b.WriteString(strconv.Itoa(c.Note.Number()))
	}
	return b.String()
}
