// Package player steps through a pattern and triggers mallet samples.
//
// A Player is not safe for concurrent use. The shell drives it from a single
// event loop: transport commands and timer ticks are never interleaved.
package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mrdg/amadinda/tubs"
)

var ErrNoPattern = errors.New("no pattern loaded")

// Trigger starts playback of a sample. It must not block; an error means the
// sample could not be played and is only logged.
type Trigger interface {
	Trigger(sample string, level float64) error
}

type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

const (
	PrimaryOctave = 2
	// MetronomeSample is the click used for the metronome and the count-off.
	MetronomeSample = "Highmetronome"
)

// MalletSample returns the sample id of a note in the given octave.
func MalletSample(n tubs.Note, octave int) string {
	return fmt.Sprintf("Mallet %s%d", n, octave)
}

// Layers are the optional sounds added on top of the pattern.
type Layers struct {
	Octave     bool // double every note an octave higher
	Omukoonezi bool // add the high C and D of the top octave
	Metronome  bool
	Countoff   bool
}

// Levels are linear gains between 0 and 1. Overall scales every mallet
// sample; the metronome has its own level.
type Levels struct {
	Overall     float64
	Main        float64
	UpperOctave float64
	Omukoonezi  float64
	Metronome   float64
}

func DefaultLevels() Levels {
	return Levels{
		Overall:     0.7,
		Main:        0.8,
		UpperOctave: 0.7,
		Omukoonezi:  0.8,
		Metronome:   0.2,
	}
}

type Options struct {
	Tempo       int // beats per minute
	Subdivision int // ticks per beat
	// Interleave plays omunazi and omwawuzi on alternate ticks, the way the
	// two players share a beat on the instrument. Otherwise both voices
	// sound on the same tick.
	Interleave bool
	Loop       bool
	Layers     Layers
	Levels     Levels
}

func DefaultOptions() Options {
	return Options{
		Tempo:       120,
		Subdivision: 2,
		Interleave:  true,
		Loop:        true,
		Layers:      Layers{Octave: true},
		Levels:      DefaultLevels(),
	}
}

// Interval returns the time between two ticks.
func Interval(tempo, subdivision int) time.Duration {
	if tempo <= 0 || subdivision <= 0 {
		return 0
	}
	return time.Minute / time.Duration(tempo*subdivision)
}

// countoff lists the beats of the count-off that get a click: two slow
// clicks followed by four on every beat.
var countoff = [...]bool{true, false, true, false, true, true}

type Player struct {
	Options

	trigger Trigger
	logger  *log.Logger
	pattern *tubs.Pattern

	state    State
	step     int
	phase    int // voice within the step when interleaving
	countoff int // count-off ticks remaining
}

func New(trigger Trigger, logger *log.Logger, opts Options) *Player {
	return &Player{
		Options: opts,
		trigger: trigger,
		logger:  logger,
	}
}

// Load switches to a new pattern. Playback stops and the position resets.
// The player only reads the pattern.
func (p *Player) Load(pattern *tubs.Pattern) {
	p.Stop()
	p.pattern = pattern
}

func (p *Player) Pattern() *tubs.Pattern { return p.pattern }
func (p *Player) State() State           { return p.state }
func (p *Player) Step() int              { return p.step }

// Voice returns the voice that plays on the next tick when interleaving.
func (p *Player) Voice() tubs.Voice {
	if p.Interleave && p.phase == 1 {
		return tubs.Omwawuzi
	}
	return tubs.Omunazi
}

// CountingOff reports whether the next tick is part of the count-off.
func (p *Player) CountingOff() bool { return p.countoff > 0 }

func (p *Player) Interval() time.Duration {
	return Interval(p.Tempo, p.Subdivision)
}

// Start begins playback from the current step. Starting from Stopped plays
// the count-off first when it is enabled.
func (p *Player) Start() error {
	if p.pattern == nil {
		return ErrNoPattern
	}
	if err := p.pattern.Validate(); err != nil {
		return err
	}
	if p.Tempo <= 0 || p.Subdivision <= 0 {
		return fmt.Errorf("invalid timing: tempo %d, subdivision %d", p.Tempo, p.Subdivision)
	}
	switch p.state {
	case Playing:
		return nil
	case Stopped:
		if p.Layers.Countoff {
			p.countoff = len(countoff) * p.Subdivision
		}
	}
	p.state = Playing
	p.logger.Debug("start", "step", p.step, "tempo", p.Tempo)
	return nil
}

// Stop ends playback and rewinds to the first step.
func (p *Player) Stop() {
	p.state = Stopped
	p.step = 0
	p.phase = 0
	p.countoff = 0
}

// Pause ends playback but keeps the position.
func (p *Player) Pause() {
	if p.state == Playing {
		p.state = Paused
		p.countoff = 0
	}
}

// Toggle starts or pauses playback.
func (p *Player) Toggle() error {
	if p.state == Playing {
		p.Pause()
		return nil
	}
	return p.Start()
}

// Seek moves the position by delta steps, wrapping around the pattern. It has
// no effect while playing.
func (p *Player) Seek(delta int) {
	if p.state == Playing || p.pattern == nil || p.pattern.Len() == 0 {
		return
	}
	n := p.pattern.Len()
	p.step = ((p.step+delta)%n + n) % n
	p.phase = 0
}

// Tick advances playback by one tick and triggers the samples that fall on
// it. It does nothing unless the player is playing.
func (p *Player) Tick() {
	if p.state != Playing {
		return
	}
	if p.countoff > 0 {
		elapsed := len(countoff)*p.Subdivision - p.countoff
		if elapsed%p.Subdivision == 0 && countoff[elapsed/p.Subdivision] {
			p.click()
		}
		p.countoff--
		return
	}
	n := p.pattern.Len()
	if p.step >= n {
		// the pattern was swapped for a shorter one underneath us
		p.step = 0
		p.phase = 0
	}

	// click on every tick, rests included
	if p.Layers.Metronome {
		p.click()
	}

	if p.Interleave {
		v := p.Voice()
		p.playNote(p.pattern.Note(v, p.step))
		if p.phase == 0 {
			p.phase = 1
			return
		}
		p.phase = 0
	} else {
		for _, v := range tubs.Voices {
			p.playNote(p.pattern.Note(v, p.step))
		}
	}

	p.step++
	if p.step == n {
		p.step = 0
		if !p.Loop {
			p.Stop()
		}
	}
}

// Audition plays a single note with the enabled layers.
func (p *Player) Audition(n tubs.Note) {
	p.playNote(n)
}

func (p *Player) playNote(n tubs.Note) {
	if n == tubs.Rest {
		return
	}
	lv := p.Levels
	if !p.fire(MalletSample(n, PrimaryOctave), lv.Main*lv.Overall) {
		return
	}
	if p.Layers.Octave {
		p.fire(MalletSample(n, PrimaryOctave+1), lv.UpperOctave*lv.Overall)
	}
	if p.Layers.Omukoonezi && (n == tubs.C || n == tubs.D) {
		p.fire(MalletSample(n, PrimaryOctave+2), lv.Omukoonezi*lv.Overall)
	}
}

func (p *Player) click() {
	p.fire(MetronomeSample, p.Levels.Metronome)
}

func (p *Player) fire(sample string, level float64) bool {
	if err := p.trigger.Trigger(sample, level); err != nil {
		p.logger.Warn("sample trigger failed", "sample", sample, "err", err)
		return false
	}
	return true
}
