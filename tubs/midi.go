package tubs

import (
	"fmt"
	"io"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const ticksPerQuarter = 960

// midiKeys maps notes onto the nearest keys of the western scale, starting
// at middle C.
var midiKeys = [...]uint8{Rest: 0, C: 60, D: 62, E: 64, G: 67, A: 69}

type MIDIOptions struct {
	Tempo       int
	Subdivision int  // grid units per beat
	Interleave  bool // omwawuzi plays one unit after omunazi
	Repeats     int
}

// WriteMIDI writes p as a standard MIDI file with one track per voice.
func WriteMIDI(w io.Writer, p *Pattern, opts MIDIOptions) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if opts.Tempo <= 0 || opts.Subdivision <= 0 {
		return fmt.Errorf("invalid timing: tempo %d, subdivision %d", opts.Tempo, opts.Subdivision)
	}
	if opts.Repeats < 1 {
		opts.Repeats = 1
	}

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)
	unit := uint32(ticksPerQuarter / opts.Subdivision)

	for ch, v := range Voices {
		var tr smf.Track
		if v == Omunazi {
			if p.Title != "" {
				tr.Add(0, smf.MetaTrackSequenceName(p.Title))
			}
			tr.Add(0, smf.MetaTempo(float64(opts.Tempo)))
		}
		var last uint32
		for r := 0; r < opts.Repeats; r++ {
			for step, n := range p.Notes(v) {
				if n == Rest {
					continue
				}
				pos := noteUnit(r, step, p.Len(), v, opts.Interleave) * unit
				key := midiKeys[n]
				tr.Add(pos-last, midi.NoteOn(uint8(ch), key, 100))
				tr.Add(unit, midi.NoteOff(uint8(ch), key))
				last = pos + unit
			}
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			return fmt.Errorf("add %s track: %w", v, err)
		}
	}
	_, err := s.WriteTo(w)
	return err
}

// noteUnit returns the absolute grid unit of a step within repeat r.
func noteUnit(r, step, length int, v Voice, interleave bool) uint32 {
	if !interleave {
		return uint32(r*length + step)
	}
	u := r*2*length + 2*step
	if v == Omwawuzi {
		u++
	}
	return uint32(u)
}
