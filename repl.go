package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/amadinda/config"
	"github.com/mrdg/amadinda/rules"
)

func newReadline() (*readline.Instance, error) {
	var history string
	if dir, err := config.Dir(); err == nil {
		history = filepath.Join(dir, "history")
	}
	return readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     history,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
}

func completer() *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		var children []readline.PrefixCompleterInterface
		switch cmd.name {
		case "toggle":
			for _, layer := range []string{"octave", "omukoonezi", "metronome", "countoff", "loop", "interleave"} {
				children = append(children, readline.PcItem(layer))
			}
		case "level":
			for _, ch := range []string{"overall", "main", "upper", "omukoonezi", "metronome", "reset"} {
				children = append(children, readline.PcItem(ch))
			}
		case "rules":
			for _, name := range rules.Names() {
				children = append(children, readline.PcItem(name))
			}
		case "set", "clear":
			children = append(children, readline.PcItem("omunazi"), readline.PcItem("omwawuzi"))
		}
		items = append(items, readline.PcItem(cmd.name, children...))
	}
	return readline.NewPrefixCompleter(items...)
}

// repl reads lines until EOF or an interrupt on an empty line and sends
// the parsed commands to cmds. Parse errors are printed and never reach the
// session. cmds is closed on return.
func repl(ctx context.Context, rl *readline.Instance, cmds chan<- Command) {
	defer close(cmds)
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return
			}
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		cmd, err := parseCommand(line)
		if err != nil {
			fmt.Fprintln(rl.Stderr(), err)
			continue
		}
		select {
		case cmds <- cmd:
		case <-ctx.Done():
			return
		}
		if _, ok := cmd.(QuitRequested); ok {
			return
		}
	}
}
