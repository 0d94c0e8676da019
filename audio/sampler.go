package audio

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

var (
	ErrMissingSample = errors.New("missing sample")
	ErrQueueFull     = errors.New("trigger queue full")
)

const numVoices = 24

// Sampler plays sounds from a bank on a fixed pool of voices. Trigger is
// called from the event loop, Process from the audio callback.
type Sampler struct {
	bank    *Bank
	events  *eventBuffer
	voices  [numVoices]voice
	buf     []float64
	gain    *atomic.Value
	release *atomic.Value
	logger  *log.Logger
}

func NewSampler(bank *Bank, props *Props, logger *log.Logger) *Sampler {
	return &Sampler{
		bank:    bank,
		events:  newEventBuffer(64),
		gain:    props.MustRegister(PropGain, setGain, 0.),
		release: props.MustRegister(PropRelease, setRelease, 0.005),
		logger:  logger,
	}
}

func (s *Sampler) Bank() *Bank { return s.bank }

// Trigger queues a sound for playback at a linear level between 0 and 1.
// It returns as soon as the sound is queued.
func (s *Sampler) Trigger(id string, level float64) error {
	snd, ok := s.bank.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingSample, id)
	}
	if !s.events.push(event{sound: snd, level: math.Max(0, math.Min(level, 1))}) {
		return ErrQueueFull
	}
	return nil
}

// Process mixes the active voices into a non-interleaved stereo buffer.
func (s *Sampler) Process(out [][]float32) {
	n := len(out[0])
	if len(s.buf) != n {
		s.buf = make([]float64, n)
	}

	release := s.release.Load().(float64)
	s.events.drain(func(ev event) {
		// a new strike chokes the ringing one, like a mallet damping a key
		for i := range s.voices {
			if s.voices[i].sound == ev.sound {
				s.voices[i].env.release(release)
			}
		}
		v := s.findFreeVoice()
		if v == nil {
			s.logger.Warn("no free voice available", "sample", ev.sound.ID)
			return
		}
		v.start(ev.sound, ev.level)
	})

	for i := range s.voices {
		if s.voices[i].active() {
			s.voices[i].process(s.buf)
		}
	}

	db := s.gain.Load().(float64)
	gain := math.Pow(10, db/20.0)
	for i := range s.buf {
		sample := float32(gain * s.buf[i])
		out[0][i] += sample
		if len(out) > 1 {
			out[1][i] += sample
		}
		s.buf[i] = 0
	}
}

func (s *Sampler) findFreeVoice() *voice {
	for i := range s.voices {
		if !s.voices[i].active() {
			return &s.voices[i]
		}
	}
	return nil
}

type voice struct {
	sound *Sound
	pos   int
	level float64
	env   envelope
}

func (v *voice) start(snd *Sound, level float64) {
	v.sound = snd
	v.pos = 0
	v.level = level
	v.env.start()
}

func (v *voice) active() bool {
	return v.sound != nil
}

func (v *voice) process(buf []float64) {
	n := len(buf)
	if remaining := len(v.sound.buf) - v.pos; remaining < n {
		n = remaining
	}
	for i := range buf[:n] {
		buf[i] += v.sound.buf[v.pos] * v.level * v.env.value()
		v.pos++
	}
	if v.pos >= len(v.sound.buf) || v.env.idle() {
		v.sound = nil
		v.pos = 0
	}
}
