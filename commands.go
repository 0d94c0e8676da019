package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/mrdg/amadinda/dub"
	"github.com/mrdg/amadinda/tubs"
)

type command struct {
	name     string
	usage    string
	help     string
	parse    func(args []dub.Node) (Command, error)
	arity    int // -n means len(args) must be >= n
	optional int // extra args allowed on top of a fixed arity, -1 for any
}

var commands = []command{
	{"play", "", "start playback", fixed(PlayRequested{}), 0, 0},
	{"stop", "", "stop playback and rewind", fixed(StopRequested{}), 0, 0},
	{"pause", "", "pause playback", fixed(PauseRequested{}), 0, 0},
	{"step", "[n]", "move the cursor by n steps", stepCommand, 0, 1},
	{"set", "<voice> <step|'steps> <note>...", "enter notes", setCommand, -3, 0},
	{"clear", "[voice ['steps]]", "clear notes", clearCommand, 0, 2},
	{"tempo", "<bpm>", "set the tempo", tempoCommand, 1, 0},
	{"length", "6|12", "set the pattern length", lengthCommand, 1, 0},
	{"toggle", "<layer>", "toggle octave, omukoonezi, metronome, countoff, loop or interleave", toggleCommand, 1, 0},
	{"level", "<channel> <0-100> | reset", "set a level in percent", levelCommand, 1, 1},
	{"gain", "<db>", "set the output gain", gainCommand, 1, 0},
	{"rules", "<set|rule>...", "choose the rules to check", rulesCommand, -1, 0},
	{"check", "", "check the pattern against the rules", fixed(CheckRequested{}), 0, 0},
	{"show", "", "show the pattern", fixed(ShowRequested{}), 0, 0},
	{"names", "", "switch between note names and numbers", fixed(NotationToggled{}), 0, 0},
	{"library", "[name|number]", "list or load traditional patterns", libraryCommand, 0, -1},
	{"load", "<file>", "open a pattern file", pathCommand(func(p string) Command { return PatternOpened{p} }), 1, 0},
	{"save", "[file]", "save the pattern", saveCommand, 0, 1},
	{"export", "<file>", "write the pattern as a MIDI file", pathCommand(func(p string) Command { return PatternExported{p} }), 1, 0},
	{"title", "<text>", "set the title", metadataCommand("title"), -1, 0},
	{"describe", "<text>", "set the description", metadataCommand("description"), -1, 0},
	{"help", "", "list commands", fixed(HelpRequested{}), 0, 0},
	{"quit", "", "exit", fixed(QuitRequested{}), 0, 0},
}

// parseCommand turns a line of input into a command.
func parseCommand(input string) (Command, error) {
	parsed, err := dub.Parse(input)
	if err != nil {
		return nil, err
	}
	name := string(parsed.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		n := len(parsed.Args)
		if cmd.arity < 0 {
			arity := -cmd.arity
			if n < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, n)
			}
		} else if n < cmd.arity || (cmd.optional >= 0 && n > cmd.arity+cmd.optional) {
			want := strconv.Itoa(cmd.arity)
			if cmd.optional > 0 {
				want = fmt.Sprintf("%d-%d", cmd.arity, cmd.arity+cmd.optional)
			}
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, want, n)
		}
		result, err := cmd.parse(parsed.Args)
		if err != nil {
			return nil, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

func fixed(c Command) func([]dub.Node) (Command, error) {
	return func([]dub.Node) (Command, error) { return c, nil }
}

func stepCommand(args []dub.Node) (Command, error) {
	delta := 1
	if len(args) > 0 {
		if err := readArgs(args, &delta); err != nil {
			return nil, err
		}
	}
	return SeekRequested{Delta: delta}, nil
}

func setCommand(args []dub.Node) (Command, error) {
	voice, err := readVoice(args[0])
	if err != nil {
		return nil, err
	}
	steps, err := readSteps(args[1])
	if err != nil {
		return nil, err
	}
	var notes []tubs.Note
	for _, arg := range args[2:] {
		n, err := readNote(arg)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return NoteEntered{Voice: voice, Steps: steps, Notes: notes}, nil
}

func clearCommand(args []dub.Node) (Command, error) {
	if len(args) == 0 {
		return PatternReset{}, nil
	}
	voice, err := readVoice(args[0])
	if err != nil {
		return nil, err
	}
	cmd := NotesCleared{Voice: voice}
	if len(args) > 1 {
		if cmd.Steps, err = readSteps(args[1]); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}

func tempoCommand(args []dub.Node) (Command, error) {
	var bpm float64
	if err := readArgs(args, &bpm); err != nil {
		return nil, err
	}
	return TempoChanged{Tempo: int(math.Round(bpm))}, nil
}

func lengthCommand(args []dub.Node) (Command, error) {
	var n int
	if err := readArgs(args, &n); err != nil {
		return nil, err
	}
	return LengthChanged{Length: n}, nil
}

func toggleCommand(args []dub.Node) (Command, error) {
	var layer string
	if err := readArgs(args, &layer); err != nil {
		return nil, err
	}
	return LayerToggled{Layer: strings.ToLower(layer)}, nil
}

func levelCommand(args []dub.Node) (Command, error) {
	if len(args) == 1 {
		if id, ok := args[0].(dub.Identifier); ok && id == "reset" {
			return LevelsReset{}, nil
		}
		return nil, errors.New("expected a channel and a level, or reset")
	}
	var channel string
	var percent int
	if err := readArgs(args, &channel, &percent); err != nil {
		return nil, err
	}
	return LevelChanged{Channel: strings.ToLower(channel), Percent: percent}, nil
}

func gainCommand(args []dub.Node) (Command, error) {
	var db float64
	if err := readArgs(args, &db); err != nil {
		return nil, err
	}
	return GainChanged{DB: db}, nil
}

func rulesCommand(args []dub.Node) (Command, error) {
	names := make([]string, len(args))
	for i, arg := range args {
		if err := readArgs([]dub.Node{arg}, &names[i]); err != nil {
			return nil, err
		}
	}
	return RulesChanged{Names: names}, nil
}

func libraryCommand(args []dub.Node) (Command, error) {
	if len(args) == 0 {
		return LibraryListed{}, nil
	}
	name, err := readText(args)
	if err != nil {
		return nil, err
	}
	return LibraryLoaded{Name: name}, nil
}

func saveCommand(args []dub.Node) (Command, error) {
	var path string
	if len(args) > 0 {
		if err := readArgs(args, &path); err != nil {
			return nil, err
		}
	}
	return PatternSaved{Path: path}, nil
}

func pathCommand(f func(string) Command) func([]dub.Node) (Command, error) {
	return func(args []dub.Node) (Command, error) {
		var path string
		if err := readArgs(args, &path); err != nil {
			return nil, err
		}
		return f(path), nil
	}
}

func metadataCommand(field string) func([]dub.Node) (Command, error) {
	return func(args []dub.Node) (Command, error) {
		text, err := readText(args)
		if err != nil {
			return nil, err
		}
		return MetadataChanged{Field: field, Value: text}, nil
	}
}

func readVoice(arg dub.Node) (tubs.Voice, error) {
	switch v := arg.(type) {
	case dub.Identifier:
		return tubs.ParseVoice(string(v))
	case dub.Int:
		return tubs.ParseVoice(strconv.Itoa(int(v)))
	}
	return 0, fmt.Errorf("argument error: expected a voice, got %v", arg)
}

func readSteps(arg dub.Node) (StepSelector, error) {
	switch v := arg.(type) {
	case dub.Int:
		return stepList{int(v)}, nil
	case dub.Selector:
		return v, nil
	}
	return nil, fmt.Errorf("argument error: expected a step or a selector, got %v", arg)
}

func readNote(arg dub.Node) (tubs.Note, error) {
	switch v := arg.(type) {
	case dub.Identifier:
		return tubs.ParseNote(string(v))
	case dub.Int:
		return tubs.ParseNote(strconv.Itoa(int(v)))
	}
	return tubs.Rest, fmt.Errorf("argument error: expected a note, got %v", arg)
}

// readText joins identifiers and numbers with spaces, so quotes are only
// needed for text with punctuation.
func readText(args []dub.Node) (string, error) {
	words := make([]string, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case dub.String:
			words[i] = string(v)
		case dub.Identifier:
			words[i] = string(v)
		case dub.Int:
			words[i] = strconv.Itoa(int(v))
		case dub.Float:
			words[i] = strconv.FormatFloat(float64(v), 'f', -1, 64)
		default:
			return "", fmt.Errorf("argument error: expected text, got %v", arg)
		}
	}
	return strings.Join(words, " "), nil
}

func readArgs(args []dub.Node, slots ...any) error {
	if len(args) != len(slots) {
		return errors.New("not enough arguments")
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument error: expected a string or identifier")
			}
		case *float64:
			switch v := arg.(type) {
			case dub.Float:
				*p = float64(v)
			case dub.Int:
				*p = float64(v)
			default:
				return fmt.Errorf("argument error: expected a number")
			}
		case *int:
			v, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument error: expected an integer")
			}
			*p = int(v)
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}

func printHelp(w io.Writer) {
	for _, cmd := range commands {
		usage := cmd.name
		if cmd.usage != "" {
			usage += " " + cmd.usage
		}
		fmt.Fprintf(w, "  %-42s %s\n", usage, cmd.help)
	}
	fmt.Fprintln(w, "  voices: a|omunazi, b|omwawuzi; notes: C D E G A, 1-5 or _ - . for a rest")
}
