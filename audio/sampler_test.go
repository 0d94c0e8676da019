package audio

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestSampler(sounds ...*Sound) *Sampler {
	logger := log.New(io.Discard)
	bank := NewBank(logger)
	for _, snd := range sounds {
		bank.Add(snd)
	}
	return NewSampler(bank, NewProps(), logger)
}

func newBuffer(n int) [][]float32 {
	return [][]float32{make([]float32, n), make([]float32, n)}
}

func constant(n int, v float64) []float64 {
	buf := make([]float64, n)
	for i := range buf {
		buf[i] = v
	}
	return buf
}

func TestSamplerTrigger(t *testing.T) {
	s := newTestSampler(NewSound("Mallet C2", constant(8, 0.5)))

	if err := s.Trigger("Mallet C2", 0.5); err != nil {
		t.Fatal(err)
	}
	out := newBuffer(4)
	s.Process(out)

	for ch := range out {
		for i, v := range out[ch] {
			if want, got := 0.25, float64(v); math.Abs(want-got) > 1e-6 {
				t.Fatalf("channel %d frame %d: want %v, got %v", ch, i, want, got)
			}
		}
	}

	// the rest of the sound plays in the next buffer, then the voice is free
	out = newBuffer(8)
	s.Process(out)
	if want, got := float32(0.25), out[0][3]; math.Abs(float64(want-got)) > 1e-6 {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := float32(0), out[0][4]; want != got {
		t.Errorf("expected silence after the sound ends, got %v", got)
	}
	if s.findFreeVoice() != &s.voices[0] {
		t.Error("expected voice to be released")
	}
}

func TestSamplerMissingSample(t *testing.T) {
	s := newTestSampler()
	if err := s.Trigger("Mallet C2", 1); !errors.Is(err, ErrMissingSample) {
		t.Errorf("expected missing sample error, got %v", err)
	}
}

func TestSamplerQueueFull(t *testing.T) {
	s := newTestSampler(NewSound("click", constant(1, 1)))
	var err error
	for i := 0; i < 100 && err == nil; i++ {
		err = s.Trigger("click", 1)
	}
	if !errors.Is(err, ErrQueueFull) {
		t.Errorf("expected queue full error, got %v", err)
	}
}

func TestSamplerChoke(t *testing.T) {
	s := newTestSampler(NewSound("Mallet C2", constant(sampleRate, 1)))
	props := NewProps()
	s.release = props.MustRegister(PropRelease, setRelease, 0.001)

	s.Trigger("Mallet C2", 1)
	s.Process(newBuffer(16))
	s.Trigger("Mallet C2", 1)
	s.Process(newBuffer(16))

	if !s.voices[0].active() || !s.voices[1].active() {
		t.Fatal("expected two active voices")
	}
	if want, got := stateRelease, s.voices[0].env.state; want != got {
		t.Errorf("expected first voice to be choked, state %v", got)
	}

	// 0.001s release at 44.1kHz fades out within 45 frames
	s.Process(newBuffer(64))
	if s.voices[0].active() {
		t.Error("expected choked voice to finish")
	}
	if !s.voices[1].active() {
		t.Error("expected new voice to keep ringing")
	}
}

func TestSamplerGain(t *testing.T) {
	props := NewProps()
	logger := log.New(io.Discard)
	bank := NewBank(logger)
	bank.Add(NewSound("click", constant(4, 1)))
	s := NewSampler(bank, props, logger)

	if err := props.Set(PropGain, -20.); err != nil {
		t.Fatal(err)
	}
	s.Trigger("click", 1)
	out := newBuffer(4)
	s.Process(out)
	if want, got := 0.1, float64(out[1][0]); math.Abs(want-got) > 1e-6 {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestSamplerVoiceLimit(t *testing.T) {
	var sounds []*Sound
	for i := 0; i < numVoices+1; i++ {
		sounds = append(sounds, NewSound(string(rune('a'+i)), constant(1024, 0.01)))
	}
	s := newTestSampler(sounds...)
	for i, snd := range sounds {
		if err := s.Trigger(snd.ID, 1); err != nil {
			t.Fatal(err)
		}
		if i%16 == 15 {
			s.Process(newBuffer(8))
		}
	}
	s.Process(newBuffer(8))
	if s.findFreeVoice() != nil {
		t.Error("expected all voices in use")
	}
}
