package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRedirectMovesPrefixedLoggers(t *testing.T) {
	var before, after bytes.Buffer
	logger := log.New(&before)
	child := logger.WithPrefix("audio")

	redirect(&after, logger, child)
	child.Warn("no free voice available")
	logger.Warn("user library not loaded")

	if before.Len() != 0 {
		t.Errorf("want nothing written to the old output, got %q", before.String())
	}
	for _, want := range []string{"audio", "no free voice available", "user library not loaded"} {
		if !strings.Contains(after.String(), want) {
			t.Errorf("want %q in output, got %q", want, after.String())
		}
	}
}
