package player

import (
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mrdg/amadinda/tubs"
)

type hit struct {
	sample string
	level  float64
}

type testTrigger struct {
	hits    []hit
	missing map[string]bool
}

func (t *testTrigger) Trigger(sample string, level float64) error {
	if t.missing[sample] {
		return errors.New("missing sample")
	}
	t.hits = append(t.hits, hit{sample, level})
	return nil
}

func (t *testTrigger) samples() []string {
	var out []string
	for _, h := range t.hits {
		out = append(out, h.sample)
	}
	return out
}

func (t *testTrigger) flush() {
	t.hits = nil
}

func newTestPlayer(t *testing.T, opts Options) (*Player, *testTrigger) {
	t.Helper()
	p, err := tubs.Parse("C _ E _ G _", "_ D _ E _ A")
	if err != nil {
		t.Fatal(err)
	}
	trig := &testTrigger{missing: map[string]bool{}}
	pl := New(trig, log.New(io.Discard), opts)
	pl.Load(p)
	return pl, trig
}

func plain() Options {
	opts := DefaultOptions()
	opts.Subdivision = 1
	opts.Interleave = false
	opts.Layers = Layers{}
	return opts
}

func TestInterval(t *testing.T) {
	tests := []struct {
		tempo, sub int
		want       time.Duration
	}{
		{120, 1, 500 * time.Millisecond},
		{80, 1, 750 * time.Millisecond},
		{120, 2, 250 * time.Millisecond},
		{60, 4, 250 * time.Millisecond},
		{0, 1, 0},
	}
	for _, test := range tests {
		if want, got := test.want, Interval(test.tempo, test.sub); want != got {
			t.Errorf("tempo %d/%d: want %v, got %v", test.tempo, test.sub, want, got)
		}
	}
}

func TestTickTriggersBothVoices(t *testing.T) {
	pl, trig := newTestPlayer(t, plain())
	if err := pl.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 6; i++ {
		pl.Tick()
	}
	want := []string{"Mallet C2", "Mallet D2", "Mallet E2", "Mallet E2", "Mallet G2", "Mallet A2"}
	if got := trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong samples:\nwant: %v\ngot:  %v", want, got)
	}
	lv := DefaultLevels()
	if want, got := lv.Main*lv.Overall, trig.hits[0].level; want != got {
		t.Errorf("want level %v, got %v", want, got)
	}
}

func TestInterleave(t *testing.T) {
	opts := plain()
	opts.Interleave = true
	opts.Subdivision = 2
	pl, trig := newTestPlayer(t, opts)
	pl.Start()

	var steps []int
	for i := 0; i < 4; i++ {
		steps = append(steps, pl.Step())
		pl.Tick()
	}
	if want := []int{0, 0, 1, 1}; !reflect.DeepEqual(want, steps) {
		t.Errorf("wrong steps: want %v, got %v", want, steps)
	}
	if want, got := []string{"Mallet C2", "Mallet D2"}, trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong samples: want %v, got %v", want, got)
	}
}

func TestStepStaysInRange(t *testing.T) {
	for _, interleave := range []bool{false, true} {
		opts := plain()
		opts.Interleave = interleave
		pl, _ := newTestPlayer(t, opts)
		pl.Start()
		for i := 0; i < 100; i++ {
			pl.Tick()
			if step := pl.Step(); step < 0 || step >= pl.Pattern().Len() {
				t.Fatalf("step %d out of range", step)
			}
			if pl.State() != Playing {
				t.Fatalf("looping playback stopped at tick %d", i)
			}
		}
	}
}

func TestStopAndPause(t *testing.T) {
	pl, _ := newTestPlayer(t, plain())
	pl.Start()
	pl.Tick()
	pl.Tick()
	pl.Tick()

	pl.Pause()
	if want, got := Paused, pl.State(); want != got {
		t.Fatalf("want state %v, got %v", want, got)
	}
	if want, got := 3, pl.Step(); want != got {
		t.Errorf("pause: want step %v, got %v", want, got)
	}
	pl.Tick()
	if want, got := 3, pl.Step(); want != got {
		t.Errorf("tick while paused moved to step %v", got)
	}

	pl.Start()
	pl.Tick()
	if want, got := 4, pl.Step(); want != got {
		t.Errorf("resume: want step %v, got %v", want, got)
	}

	pl.Stop()
	if want, got := Stopped, pl.State(); want != got {
		t.Fatalf("want state %v, got %v", want, got)
	}
	if want, got := 0, pl.Step(); want != got {
		t.Errorf("stop: want step %v, got %v", want, got)
	}
}

func TestNoLoopStopsAtEnd(t *testing.T) {
	opts := plain()
	opts.Loop = false
	pl, _ := newTestPlayer(t, opts)
	pl.Start()
	for i := 0; i < 5; i++ {
		pl.Tick()
	}
	if want, got := Playing, pl.State(); want != got {
		t.Fatalf("want %v before the last step, got %v", want, got)
	}
	pl.Tick()
	if want, got := Stopped, pl.State(); want != got {
		t.Errorf("want %v after the last step, got %v", want, got)
	}
	if want, got := 0, pl.Step(); want != got {
		t.Errorf("want step %v, got %v", want, got)
	}
}

func TestMissingSampleKeepsPlaying(t *testing.T) {
	opts := plain()
	opts.Layers.Octave = true
	pl, trig := newTestPlayer(t, opts)
	trig.missing["Mallet C2"] = true
	trig.missing["Mallet D3"] = true
	pl.Start()
	pl.Tick()
	pl.Tick()
	pl.Tick()

	// the octave of a missing primary is skipped, a missing octave is not fatal
	want := []string{"Mallet D2", "Mallet E2", "Mallet E3"}
	if got := trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong samples:\nwant: %v\ngot:  %v", want, got)
	}
	if want, got := Playing, pl.State(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 3, pl.Step(); want != got {
		t.Errorf("want step %v, got %v", want, got)
	}
}

func TestLayers(t *testing.T) {
	opts := plain()
	opts.Layers = Layers{Octave: true, Omukoonezi: true}
	pl, trig := newTestPlayer(t, opts)

	pl.Audition(tubs.C)
	want := []string{"Mallet C2", "Mallet C3", "Mallet C4"}
	if got := trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong samples for C:\nwant: %v\ngot:  %v", want, got)
	}

	trig.flush()
	pl.Audition(tubs.G)
	want = []string{"Mallet G2", "Mallet G3"}
	if got := trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong samples for G:\nwant: %v\ngot:  %v", want, got)
	}
}

func TestMetronome(t *testing.T) {
	opts := plain()
	opts.Subdivision = 2
	opts.Interleave = true
	opts.Layers.Metronome = true
	pl, trig := newTestPlayer(t, opts)
	pl.Start()
	for i := 0; i < 4; i++ {
		pl.Tick()
	}
	// rests still get a click: one per tick, not one per beat
	want := []string{
		MetronomeSample, "Mallet C2",
		MetronomeSample,
		MetronomeSample,
		MetronomeSample, "Mallet D2",
	}
	if got := trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("wrong samples:\nwant: %v\ngot:  %v", want, got)
	}
	if want, got := 0.2, trig.hits[0].level; want != got {
		t.Errorf("want metronome level %v, got %v", want, got)
	}
}

func TestCountoff(t *testing.T) {
	opts := plain()
	opts.Layers.Countoff = true
	pl, trig := newTestPlayer(t, opts)
	pl.Start()

	for i := 0; i < 6; i++ {
		if !pl.CountingOff() {
			t.Fatalf("count-off ended early at tick %d", i)
		}
		pl.Tick()
	}
	if want, got := 4, len(trig.hits); want != got {
		t.Errorf("want %v count-off clicks, got %v", want, got)
	}
	if want, got := 0, pl.Step(); want != got {
		t.Errorf("count-off advanced the step to %v", got)
	}

	trig.flush()
	pl.Tick()
	if want, got := []string{"Mallet C2"}, trig.samples(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v after count-off, got %v", want, got)
	}

	// resuming from pause skips the count-off
	pl.Pause()
	pl.Start()
	if pl.CountingOff() {
		t.Error("resume should not count off")
	}
}

func TestSeek(t *testing.T) {
	pl, _ := newTestPlayer(t, plain())
	pl.Seek(-1)
	if want, got := 5, pl.Step(); want != got {
		t.Errorf("want step %v, got %v", want, got)
	}
	pl.Seek(2)
	if want, got := 1, pl.Step(); want != got {
		t.Errorf("want step %v, got %v", want, got)
	}
	pl.Start()
	pl.Seek(1)
	if want, got := 1, pl.Step(); want != got {
		t.Errorf("seek while playing moved to step %v", got)
	}
}

func TestLoadResets(t *testing.T) {
	pl, _ := newTestPlayer(t, plain())
	pl.Start()
	pl.Tick()
	long, _ := tubs.New(tubs.LongLength)
	pl.Load(long)
	if want, got := Stopped, pl.State(); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
	if want, got := 0, pl.Step(); want != got {
		t.Errorf("want step %v, got %v", want, got)
	}
}

func TestStartWithoutPattern(t *testing.T) {
	pl := New(&testTrigger{}, log.New(io.Discard), DefaultOptions())
	if err := pl.Start(); !errors.Is(err, ErrNoPattern) {
		t.Errorf("want ErrNoPattern, got %v", err)
	}
}
