package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mrdg/amadinda/audio"
	"github.com/mrdg/amadinda/player"
	"github.com/mrdg/amadinda/rules"
	"github.com/mrdg/amadinda/tubs"
)

var errQuit = errors.New("quit")

// Command is a request from the shell. Commands are only applied by
// Session.Handle.
type Command interface {
	isCommand()
}

// StepSelector resolves to zero-based steps in a pattern of the given length.
type StepSelector interface {
	Steps(length int) ([]int, error)
}

// stepList is a list of 1-based steps.
type stepList []int

func (l stepList) Steps(length int) ([]int, error) {
	steps := make([]int, len(l))
	for i, s := range l {
		if s < 1 || s > length {
			return nil, fmt.Errorf("%w: step %d is outside 1-%d", tubs.ErrStepRange, s, length)
		}
		steps[i] = s - 1
	}
	return steps, nil
}

type (
	PlayRequested  struct{}
	StopRequested  struct{}
	PauseRequested struct{}
	SeekRequested  struct{ Delta int }

	// NoteEntered writes notes into a voice. A single step followed by
	// several notes fills consecutive steps; otherwise the notes are
	// repeated across the selected steps.
	NoteEntered struct {
		Voice tubs.Voice
		Steps StepSelector
		Notes []tubs.Note
	}
	// NotesCleared rests the selected steps of a voice, or all of them when
	// Steps is nil.
	NotesCleared struct {
		Voice tubs.Voice
		Steps StepSelector
	}
	PatternReset struct{}

	TempoChanged  struct{ Tempo int }
	LengthChanged struct{ Length int }
	LayerToggled  struct{ Layer string }

	LevelChanged struct {
		Channel string
		Percent int
	}
	LevelsReset struct{}
	GainChanged struct{ DB float64 }

	RulesChanged    struct{ Names []string }
	CheckRequested  struct{}
	ShowRequested   struct{}
	NotationToggled struct{}

	LibraryListed struct{}
	LibraryLoaded struct{ Name string }

	PatternOpened   struct{ Path string }
	PatternSaved    struct{ Path string }
	PatternExported struct{ Path string }
	MetadataChanged struct {
		Field string // title or description
		Value string
	}

	HelpRequested struct{}
	QuitRequested struct{}
)

func (PlayRequested) isCommand()   {}
func (StopRequested) isCommand()   {}
func (PauseRequested) isCommand()  {}
func (SeekRequested) isCommand()   {}
func (NoteEntered) isCommand()     {}
func (NotesCleared) isCommand()    {}
func (PatternReset) isCommand()    {}
func (TempoChanged) isCommand()    {}
func (LengthChanged) isCommand()   {}
func (LayerToggled) isCommand()    {}
func (LevelChanged) isCommand()    {}
func (LevelsReset) isCommand()     {}
func (GainChanged) isCommand()     {}
func (RulesChanged) isCommand()    {}
func (CheckRequested) isCommand()  {}
func (ShowRequested) isCommand()   {}
func (NotationToggled) isCommand() {}
func (LibraryListed) isCommand()   {}
func (LibraryLoaded) isCommand()   {}
func (PatternOpened) isCommand()   {}
func (PatternSaved) isCommand()    {}
func (PatternExported) isCommand() {}
func (MetadataChanged) isCommand() {}
func (HelpRequested) isCommand()   {}
func (QuitRequested) isCommand()   {}

// Mixer adjusts output properties of the audio engine.
type Mixer interface {
	Set(key string, value any) error
}

// Session owns the pattern being edited and the player. It is driven by a
// single goroutine running Run, or by direct calls to Handle.
type Session struct {
	pattern   *tubs.Pattern
	player    *player.Player
	validator *rules.Validator
	library   *tubs.Library
	mixer     Mixer // nil when audio is disabled

	ruleNames   []string
	customRules bool
	numbers     bool
	path        string

	out    io.Writer
	logger *log.Logger

	ticker   *time.Ticker
	interval time.Duration // current ticker period, 0 when stopped
}

type sessionConfig struct {
	pattern *tubs.Pattern
	player  *player.Player
	library *tubs.Library
	mixer   Mixer
	rules   []string // nil selects the defaults for the playback mode
	numbers bool
	out     io.Writer
	logger  *log.Logger
}

func newSession(cfg sessionConfig) (*Session, error) {
	s := &Session{
		pattern: cfg.pattern,
		player:  cfg.player,
		library: cfg.library,
		mixer:   cfg.mixer,
		numbers: cfg.numbers,
		out:     cfg.out,
		logger:  cfg.logger,
	}
	if s.library == nil {
		s.library = &tubs.Library{}
	}
	if s.pattern == nil {
		p, err := tubs.New(tubs.LongLength)
		if err != nil {
			return nil, err
		}
		s.pattern = p
	}
	s.player.Load(s.pattern)
	if err := s.setRules(cfg.rules, len(cfg.rules) > 0); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) setRules(names []string, custom bool) error {
	if !custom {
		names = defaultRules(s.player.Interleave)
	}
	rs, err := rules.Resolve(names...)
	if err != nil {
		return err
	}
	s.validator = rules.NewValidator(s.logger.WithPrefix("rules"), rs...)
	s.ruleNames = names
	s.customRules = custom
	return nil
}

func defaultRules(interleave bool) []string {
	if interleave {
		return []string{rules.RelaxedSet}
	}
	return []string{rules.RelaxedSet, rules.GridSet}
}

// Run applies commands and drives the player until ctx is done, the command
// channel is closed or a quit command arrives.
func (s *Session) Run(ctx context.Context, cmds <-chan Command) error {
	s.ticker = time.NewTicker(time.Hour)
	s.ticker.Stop()
	defer s.ticker.Stop()
	s.interval = 0
	s.syncTicker()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			if err := s.Handle(cmd); err != nil {
				if errors.Is(err, errQuit) {
					return nil
				}
				fmt.Fprintln(s.out, err)
			}
		case <-s.ticker.C:
			s.player.Tick()
		}
		s.syncTicker()
	}
}

// syncTicker runs the ticker at the player's interval while it plays.
func (s *Session) syncTicker() {
	if s.ticker == nil {
		return
	}
	if s.player.State() != player.Playing {
		if s.interval != 0 {
			s.ticker.Stop()
			// a tick buffered before Stop would otherwise fire right after
			// the next Reset
			select {
			case <-s.ticker.C:
			default:
			}
			s.interval = 0
		}
		return
	}
	if d := s.player.Interval(); d != s.interval {
		s.ticker.Reset(d)
		s.interval = d
	}
}

// Handle applies a single command. Errors are meant for the user; the
// session stays usable after any of them except errQuit.
func (s *Session) Handle(cmd Command) error {
	switch cmd := cmd.(type) {
	case PlayRequested:
		wasPlaying := s.player.State() == player.Playing
		if err := s.player.Start(); err != nil {
			return err
		}
		if !wasPlaying {
			s.player.Tick()
		}
	case StopRequested:
		s.player.Stop()
	case PauseRequested:
		s.player.Pause()
	case SeekRequested:
		if s.player.State() == player.Playing {
			return errors.New("can't move the cursor while playing")
		}
		s.player.Seek(cmd.Delta)
		fmt.Fprintf(s.out, "step %d\n", s.player.Step()+1)

	case NoteEntered:
		return s.enterNotes(cmd)
	case NotesCleared:
		var steps []int
		if cmd.Steps != nil {
			var err error
			if steps, err = cmd.Steps.Steps(s.pattern.Len()); err != nil {
				return err
			}
		}
		if err := s.pattern.Clear(cmd.Voice, steps...); err != nil {
			return err
		}
		s.edited()
	case PatternReset:
		s.pattern.Reset()
		s.edited()

	case TempoChanged:
		if cmd.Tempo < 20 || cmd.Tempo > 400 {
			return fmt.Errorf("tempo %d is outside 20-400", cmd.Tempo)
		}
		s.player.Tempo = cmd.Tempo
	case LengthChanged:
		return s.changeLength(cmd.Length)
	case LayerToggled:
		return s.toggle(cmd.Layer)

	case LevelChanged:
		return s.setLevel(cmd.Channel, cmd.Percent)
	case LevelsReset:
		s.player.Levels = player.DefaultLevels()
	case GainChanged:
		if s.mixer == nil {
			return errors.New("audio is disabled")
		}
		return s.mixer.Set(audio.PropGain, cmd.DB)

	case RulesChanged:
		if err := s.setRules(cmd.Names, true); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "rules: %s\n", strings.Join(s.ruleNames, ", "))
	case CheckRequested:
		s.printReport(s.validator.Check(s.pattern), true)
	case ShowRequested:
		s.show()
	case NotationToggled:
		s.numbers = !s.numbers
		s.show()

	case LibraryListed:
		for i, name := range s.library.Names() {
			fmt.Fprintf(s.out, "%2d  %s\n", i+1, name)
		}
	case LibraryLoaded:
		p, ok := s.lookup(cmd.Name)
		if !ok {
			return fmt.Errorf("no pattern named %q in the library", cmd.Name)
		}
		s.load(p, "")
		if p.Description != "" {
			fmt.Fprintln(s.out, p.Description)
		}

	case PatternOpened:
		p, err := tubs.LoadFile(cmd.Path)
		if err != nil {
			return err
		}
		s.load(p, cmd.Path)
	case PatternSaved:
		path := cmd.Path
		if path == "" {
			path = s.path
		}
		if path == "" {
			return errors.New("save: no file name")
		}
		if err := tubs.SaveFile(path, s.pattern); err != nil {
			return err
		}
		s.path = path
		fmt.Fprintf(s.out, "saved %s\n", path)
	case PatternExported:
		return s.export(cmd.Path)
	case MetadataChanged:
		switch cmd.Field {
		case "title":
			s.pattern.Title = cmd.Value
		case "description":
			s.pattern.Description = cmd.Value
		default:
			return fmt.Errorf("unknown field %q", cmd.Field)
		}

	case HelpRequested:
		printHelp(s.out)
	case QuitRequested:
		s.player.Stop()
		return errQuit
	default:
		return fmt.Errorf("unhandled command %T", cmd)
	}
	return nil
}

func (s *Session) enterNotes(cmd NoteEntered) error {
	if len(cmd.Notes) == 0 {
		return errors.New("no notes given")
	}
	if cmd.Steps == nil {
		return errors.New("no steps given")
	}
	length := s.pattern.Len()
	steps, err := cmd.Steps.Steps(length)
	if err != nil {
		return err
	}
	if len(steps) == 1 && len(cmd.Notes) > 1 {
		first := steps[0]
		if first+len(cmd.Notes) > length {
			return fmt.Errorf("%w: %d notes from step %d run past step %d",
				tubs.ErrStepRange, len(cmd.Notes), first+1, length)
		}
		steps = steps[:0]
		for i := range cmd.Notes {
			steps = append(steps, first+i)
		}
	} else if len(cmd.Notes) > len(steps) {
		return fmt.Errorf("%d notes for %d steps", len(cmd.Notes), len(steps))
	}

	// apply to a copy so a bad note leaves the pattern untouched
	edit := s.pattern.Clone()
	for i, step := range steps {
		if err := edit.Set(cmd.Voice, step, cmd.Notes[i%len(cmd.Notes)]); err != nil {
			return err
		}
	}
	copy(s.pattern.Notes(cmd.Voice), edit.Notes(cmd.Voice))

	if s.player.State() != player.Playing {
		s.player.Audition(cmd.Notes[len(cmd.Notes)-1])
	}
	s.edited()
	return nil
}

// edited shows the grid and any rule warnings after a change to the notes.
func (s *Session) edited() {
	report := s.validator.Check(s.pattern)
	s.render(report)
	s.printReport(report, false)
}

func (s *Session) changeLength(length int) error {
	if !tubs.ValidLength(length) {
		return fmt.Errorf("%w: length must be %d or %d", tubs.ErrMalformedPattern, tubs.ShortLength, tubs.LongLength)
	}
	if length == s.pattern.Len() {
		return nil
	}
	p, err := tubs.New(length)
	if err != nil {
		return err
	}
	p.Title = s.pattern.Title
	p.Description = s.pattern.Description
	for _, v := range tubs.Voices {
		copy(p.Notes(v), s.pattern.Notes(v))
	}
	s.pattern = p
	s.player.Load(p)
	s.show()
	return nil
}

func (s *Session) toggle(layer string) error {
	var on bool
	switch l := &s.player.Layers; layer {
	case "octave":
		l.Octave = !l.Octave
		on = l.Octave
	case "omukoonezi":
		l.Omukoonezi = !l.Omukoonezi
		on = l.Omukoonezi
	case "metronome":
		l.Metronome = !l.Metronome
		on = l.Metronome
	case "countoff":
		l.Countoff = !l.Countoff
		on = l.Countoff
	case "loop":
		s.player.Loop = !s.player.Loop
		on = s.player.Loop
	case "interleave":
		if s.player.State() == player.Playing {
			return errors.New("stop playback before changing interleave")
		}
		s.player.Interleave = !s.player.Interleave
		on = s.player.Interleave
		if !s.customRules {
			if err := s.setRules(nil, false); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown layer %q (have octave, omukoonezi, metronome, countoff, loop, interleave)", layer)
	}
	state := "off"
	if on {
		state = "on"
	}
	fmt.Fprintf(s.out, "%s %s\n", layer, state)
	return nil
}

func (s *Session) setLevel(channel string, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("level %d is outside 0-100", percent)
	}
	v := float64(percent) / 100
	switch l := &s.player.Levels; channel {
	case "overall":
		l.Overall = v
	case "main":
		l.Main = v
	case "upper", "upper-octave":
		l.UpperOctave = v
	case "omukoonezi":
		l.Omukoonezi = v
	case "metronome":
		l.Metronome = v
	default:
		return fmt.Errorf("unknown channel %q (have overall, main, upper, omukoonezi, metronome)", channel)
	}
	return nil
}

func (s *Session) lookup(name string) (*tubs.Pattern, bool) {
	if i, err := strconv.Atoi(name); err == nil {
		return s.library.At(i)
	}
	return s.library.Lookup(name)
}

// load replaces the pattern being edited. Playback stops.
func (s *Session) load(p *tubs.Pattern, path string) {
	s.pattern = p
	s.path = path
	s.player.Load(p)
	s.show()
}

func (s *Session) export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = tubs.WriteMIDI(f, s.pattern, tubs.MIDIOptions{
		Tempo:       s.player.Tempo,
		Subdivision: s.player.Subdivision,
		Interleave:  s.player.Interleave,
		Repeats:     1,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	fmt.Fprintf(s.out, "exported %s\n", path)
	return nil
}

func (s *Session) show() {
	s.render(s.validator.Check(s.pattern))
}

func (s *Session) render(report rules.Report) {
	renderSession(s.out, view{
		pattern: s.pattern,
		report:  report,
		step:    s.player.Step(),
		state:   s.player.State(),
		numbers: s.numbers,
		status:  s.status(),
	})
}

func (s *Session) status() string {
	p := s.player
	parts := []string{
		p.State().String(),
		fmt.Sprintf("%d bpm", p.Tempo),
	}
	flags := []struct {
		name string
		on   bool
	}{
		{"interleave", p.Interleave},
		{"loop", p.Loop},
		{"octave", p.Layers.Octave},
		{"omukoonezi", p.Layers.Omukoonezi},
		{"metronome", p.Layers.Metronome},
		{"countoff", p.Layers.Countoff},
	}
	for _, f := range flags {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	parts = append(parts, "rules: "+strings.Join(s.ruleNames, ","))
	return strings.Join(parts, " · ")
}

// printReport lists rule violations. With verbose set, passing rules are
// listed too.
func (s *Session) printReport(report rules.Report, verbose bool) {
	for _, res := range report.Results {
		if res.Passed {
			if verbose {
				fmt.Fprintf(s.out, "ok    %s\n", res.Rule)
			}
			continue
		}
		if verbose {
			fmt.Fprintf(s.out, "fail  %s: %s\n", res.Rule, res.Explanation)
		}
		for _, v := range res.Violations {
			line := fmt.Sprintf("warning: %s at step %d: %s", v.Rule, v.Step+1, v.Message)
			if len(v.Suggestions) > 0 {
				line += fmt.Sprintf(" (try %s)", strings.Join(v.Suggestions, ", "))
			}
			fmt.Fprintln(s.out, line)
		}
	}
}
