package rules

import (
	"fmt"

	"github.com/mrdg/amadinda/tubs"
)

// SimultaneousOnset flags every step on which both voices strike.
type SimultaneousOnset struct{}

func (SimultaneousOnset) Name() string { return "simultaneous-onset" }

func (SimultaneousOnset) Check(p *tubs.Pattern) Result {
	res := Result{Passed: true}
	for step := 0; step < p.Len(); step++ {
		a, b := p.Note(tubs.Omunazi, step), p.Note(tubs.Omwawuzi, step)
		if a == tubs.Rest || b == tubs.Rest {
			continue
		}
		res.Passed = false
		res.Violations = append(res.Violations, Violation{
			Step: step,
			Cells: []tubs.Cell{
				{Voice: tubs.Omunazi, Step: step, Note: a},
				{Voice: tubs.Omwawuzi, Step: step, Note: b},
			},
			Message: fmt.Sprintf("both parts strike on step %d; interlocking parts alternate", step+1),
		})
	}
	if !res.Passed {
		res.Explanation = "the two parts should fill each other's gaps"
	}
	return res
}

// VoiceDensity requires each voice to play between Min and Max notes. A zero
// Min defaults to 1 and a zero Max to the pattern length. Empty patterns pass.
type VoiceDensity struct {
	Min, Max int
}

func (VoiceDensity) Name() string { return "voice-density" }

func (d VoiceDensity) Check(p *tubs.Pattern) Result {
	res := Result{Passed: true}
	if !p.HasNotes(tubs.Omunazi) && !p.HasNotes(tubs.Omwawuzi) {
		return res
	}
	lo, hi := d.Min, d.Max
	if lo <= 0 {
		lo = 1
	}
	if hi <= 0 || hi > p.Len() {
		hi = p.Len()
	}
	for _, v := range tubs.Voices {
		n := p.Active(v)
		if n >= lo && n <= hi {
			continue
		}
		res.Passed = false
		res.Violations = append(res.Violations, Violation{
			Step:    0,
			Message: fmt.Sprintf("%s plays %d notes, want between %d and %d", v, n, lo, hi),
		})
	}
	if !res.Passed {
		res.Explanation = "both parts are needed for the composite melody"
	}
	return res
}
