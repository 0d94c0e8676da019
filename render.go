package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mrdg/amadinda/player"
	"github.com/mrdg/amadinda/rules"
	"github.com/mrdg/amadinda/tubs"
)

type view struct {
	pattern *tubs.Pattern
	report  rules.Report
	step    int
	state   player.State
	numbers bool // 1-5 instead of note names
	status  string
}

const (
	labelWidth = 10
	cellWidth  = 3
)

type styles struct {
	title, label, cell, cursor, rest, flagged, status lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	cell := r.NewStyle().Width(cellWidth).Align(lipgloss.Right)
	return styles{
		title:   r.NewStyle().Bold(true),
		label:   r.NewStyle().Width(labelWidth).Foreground(lipgloss.Color("4")),
		cell:    cell,
		cursor:  cell.Copy().Foreground(lipgloss.Color("5")).Bold(true),
		rest:    cell.Copy().Faint(true),
		flagged: cell.Copy().Foreground(lipgloss.Color("9")),
		status:  r.NewStyle().Faint(true),
	}
}

func renderSession(w io.Writer, v view) {
	st := newStyles(lipgloss.NewRenderer(w))
	p := v.pattern

	var b strings.Builder
	if p.Title != "" {
		b.WriteString(st.title.Render(p.Title) + "\n")
	}

	b.WriteString(st.label.Render(""))
	for step := 0; step < p.Len(); step++ {
		num := strconv.Itoa(step + 1)
		if step == v.step && v.state != player.Stopped {
			b.WriteString(st.cursor.Render(num))
		} else {
			b.WriteString(st.cell.Render(num))
		}
	}
	b.WriteString("\n")

	for _, voice := range tubs.Voices {
		b.WriteString(st.label.Render(voice.String()))
		for step, n := range p.Notes(voice) {
			style := st.cell
			switch {
			case v.report.Flagged(voice, step):
				style = st.flagged
			case n == tubs.Rest:
				style = st.rest
			}
			b.WriteString(style.Render(noteText(n, v.numbers)))
		}
		b.WriteString("\n")
	}

	var combined []string
	for _, c := range p.Combined() {
		text := noteText(c.Note, v.numbers)
		if v.report.Flagged(c.Voice, c.Step) {
			text = st.flagged.Copy().Width(0).Render(text)
		}
		combined = append(combined, text)
	}
	b.WriteString(st.label.Render("combined") + strings.Join(combined, " ") + "\n")

	if v.status != "" {
		b.WriteString(st.status.Render(v.status) + "\n")
	}
	fmt.Fprint(w, b.String())
}

func noteText(n tubs.Note, numbers bool) string {
	if n == tubs.Rest {
		return "_"
	}
	if numbers {
		return strconv.Itoa(n.Number())
	}
	return n.String()
}
