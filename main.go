package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	arg "github.com/alexflint/go-arg"
	"github.com/charmbracelet/log"
	"github.com/mrdg/amadinda/audio"
	"github.com/mrdg/amadinda/config"
	"github.com/mrdg/amadinda/player"
	"github.com/mrdg/amadinda/tubs"
)

type args struct {
	Config  string `arg:"--config" help:"config file [default: ~/.config/amadinda/config.yaml]"`
	Samples string `arg:"--samples" help:"directory of mallet and metronome samples"`
	Tempo   int    `arg:"--tempo" help:"tempo in beats per minute"`
	Length  int    `arg:"--length" help:"pattern length, 6 or 12"`
	Run     string `arg:"--run" help:"run the commands in a file before the prompt"`
	Debug   bool   `arg:"--debug" help:"log debug output"`
	NoAudio bool   `arg:"--no-audio" help:"don't open an audio device"`
	Pattern string `arg:"positional" help:"pattern file to open"`
}

func (args) Description() string {
	return "amadinda composes and plays back amadinda xylophone patterns in TUBS notation"
}

func main() {
	var a args
	arg.MustParse(&a)

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "amadinda"})
	if err := run(a, logger); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func run(a args, logger *log.Logger) error {
	cfg, err := loadConfig(a)
	if err != nil {
		return err
	}
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	if a.Debug {
		level = log.DebugLevel
	}
	logger.SetLevel(level)

	library := tubs.DefaultLibrary()
	if cfg.Library != "" {
		if err := mergeLibrary(library, cfg.Library); err != nil {
			logger.Warn("user library not loaded", "path", cfg.Library, "err", err)
		}
	}

	var (
		trigger     player.Trigger = audio.Mute{}
		mixer       Mixer
		audioLogger = logger.WithPrefix("audio")
	)
	if !a.NoAudio {
		engine, err := audio.NewEngine(audio.EngineConfig{SamplesDir: cfg.Samples}, audioLogger)
		if err != nil {
			return err
		}
		defer engine.Close()
		if err := engine.Set(audio.PropGain, cfg.Gain); err != nil {
			return err
		}
		if missing := engine.Bank().Missing(essentialSamples()...); len(missing) > 0 {
			logger.Warn("mallet samples missing, some notes will be silent",
				"dir", cfg.Samples, "missing", strings.Join(missing, ", "))
		}
		if err := engine.Start(); err != nil {
			return err
		}
		trigger, mixer = engine, engine
	}

	p, err := tubs.New(cfg.Length)
	if err != nil {
		return err
	}
	path := ""
	if a.Pattern != "" {
		if p, err = tubs.LoadFile(a.Pattern); err != nil {
			return err
		}
		path = a.Pattern
	}

	rl, err := newReadline()
	if err != nil {
		return err
	}
	defer rl.Close()
	redirect(rl.Stderr(), logger, audioLogger)

	s, err := newSession(sessionConfig{
		pattern: p,
		player:  player.New(trigger, logger.WithPrefix("player"), cfg.PlayerOptions()),
		library: library,
		mixer:   mixer,
		rules:   cfg.Rules,
		numbers: cfg.Numbers,
		out:     rl.Stdout(),
		logger:  logger,
	})
	if err != nil {
		return err
	}
	s.path = path

	if a.Run != "" {
		err := runFile(s, a.Run)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	s.show()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmds := make(chan Command)
	go repl(ctx, rl, cmds)
	err = s.Run(ctx, cmds)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// redirect points loggers at w. Prefixed loggers are copies of their
// parent, so each one has to be moved on its own.
func redirect(w io.Writer, loggers ...*log.Logger) {
	for _, l := range loggers {
		l.SetOutput(w)
	}
}

func loadConfig(a args) (*config.Config, error) {
	path := a.Config
	if path == "" {
		var err error
		if path, err = config.Path(); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if a.Samples != "" {
		cfg.Samples = a.Samples
	}
	if a.Tempo != 0 {
		cfg.Tempo = a.Tempo
	}
	if a.Length != 0 {
		cfg.Length = a.Length
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeLibrary(library *tubs.Library, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	extra, err := tubs.LoadLibrary(f)
	if err != nil {
		return err
	}
	library.Merge(extra)
	return nil
}

// essentialSamples lists the mallet samples every note needs: the main
// octave and its upper octave double.
func essentialSamples() []string {
	var ids []string
	for _, n := range tubs.Scale {
		for _, oct := range []int{player.PrimaryOctave, player.PrimaryOctave + 1} {
			ids = append(ids, player.MalletSample(n, oct))
		}
	}
	return ids
}

// runFile handles each line of a command file. Blank lines and lines
// starting with # are skipped. A quit command ends the file with errQuit.
func runFile(s *Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return runCommands(s, f, path)
}

func runCommands(s *Session, r io.Reader, name string) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseCommand(line)
		if err == nil {
			err = s.Handle(cmd)
		}
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%s:%d: %w", name, n, err)
		}
	}
	return scanner.Err()
}
