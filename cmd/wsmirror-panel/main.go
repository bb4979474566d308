// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/wsmirror-panel/main.go
// Summary: Fullscreen terminal panel showing the mirrored workspace strip and
// the toplevels on each workspace.
// Usage: Run inside any terminal while wsmirror-sim (or a compositor) serves
// the session socket. Quit with q, Esc, or Ctrl-C.

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/wsmirror/wsmirror/config"
	"github.com/wsmirror/wsmirror/desktop"
	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/mirror"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	socketPath := flag.String("socket", "", "Unix socket path (overrides config)")
	outputName := flag.String("output", "", "Output to mirror (overrides config)")
	configPath := flag.String("config", config.DefaultPath(), "Config file path")
	logPath := flag.String("log-file", "", "Append logs to this file (default: discard; stderr is the UI)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.LogLevel)

	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logging.SetOutput(f)
	} else {
		logging.SetOutput(io.Discard)
	}

	socket := cfg.Socket
	if *socketPath != "" {
		socket = *socketPath
	}
	output := cfg.Output
	if *outputName != "" {
		output = *outputName
	}

	matcher := desktop.NewMatcher(desktop.DefaultDirs())

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()
	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset))
	screen.HideCursor()

	sub := mirror.Subscribe(mirror.Options{
		Socket: socket,
		Output: output,
		Client: "wsmirror-panel",
	})
	defer sub.Close()

	// Panel settings follow the config file live; everything else is
	// startup-only. The callback runs on the watcher goroutine, so hand the
	// reload to the event loop instead of touching state here.
	reloads := make(chan config.Config, 1)
	if stopWatch, err := config.Watch(*configPath, func(c config.Config) {
		select {
		case reloads <- c:
		default:
		}
	}); err == nil {
		defer stopWatch()
	}

	quit := make(chan struct{})
	eventChan := make(chan tcell.Event, 10)
	go func() {
		for {
			select {
			case <-quit:
				return
			default:
				eventChan <- screen.PollEvent()
			}
		}
	}()

	p := &panel{
		screen:    screen,
		matcher:   matcher,
		showEmpty: cfg.Panel.ShowEmpty,
		maxTitle:  cfg.Panel.MaxTitle,
	}
	p.draw(sub.Dropped())

	events := sub.Events()
	sawState := false
	for {
		select {
		case ev := <-eventChan:
			switch tev := ev.(type) {
			case *tcell.EventKey:
				if tev.Key() == tcell.KeyEscape || tev.Key() == tcell.KeyCtrlC ||
					(tev.Key() == tcell.KeyRune && tev.Rune() == 'q') {
					close(quit)
					return nil
				}
			case *tcell.EventResize:
				screen.Sync()
				p.draw(sub.Dropped())
			}

		case ev, ok := <-events:
			if !ok {
				close(quit)
				if err := sub.Err(); err != nil {
					return err
				}
				if !sawState {
					return fmt.Errorf("no session on %s (is wsmirror-sim or the compositor running?)", socket)
				}
				return nil
			}
			sawState = true
			p.apply(ev)
			p.draw(sub.Dropped())

		case c := <-reloads:
			p.showEmpty = c.Panel.ShowEmpty
			p.maxTitle = c.Panel.MaxTitle
			p.draw(sub.Dropped())
		}
	}
}

// panel owns the screen and the latest mirrored projection. Only the event
// loop goroutine touches it.
type panel struct {
	screen  tcell.Screen
	matcher *desktop.Matcher

	workspaces []mirror.Workspace
	index      mirror.Index

	showEmpty bool
	maxTitle  int
}

func (p *panel) apply(ev mirror.Event) {
	switch e := ev.(type) {
	case mirror.WorkspacesChanged:
		p.workspaces = e.Workspaces
	case mirror.ToplevelAdded:
		p.index = e.Index
	case mirror.ToplevelUpdated:
		p.index = e.Index
	case mirror.ToplevelRemoved:
		for ws, tops := range p.index {
			kept := tops[:0]
			for _, tl := range tops {
				if tl.Handle != e.Handle {
					kept = append(kept, tl)
				}
			}
			p.index[ws] = kept
		}
	}
}

func (p *panel) draw(dropped uint64) {
	s := p.screen
	s.Clear()
	width, height := s.Size()

	styleBase := tcell.StyleDefault
	styleActive := styleBase.Reverse(true).Bold(true)
	styleUrgent := styleBase.Foreground(tcell.ColorRed).Bold(true)
	styleDim := styleBase.Dim(true)

	// Row 0: workspace strip.
	col := 1
	for _, w := range p.workspaces {
		style := styleBase
		switch {
		case w.Active:
			style = styleActive
		case w.Urgent:
			style = styleUrgent
		}
		col = drawText(s, col, 0, style, " "+w.Name+" ")
		col++
	}
	if len(p.workspaces) == 0 {
		drawText(s, 1, 0, styleDim, "waiting for workspace state")
	}

	// Row 1: divider.
	for x := 0; x < width; x++ {
		s.SetContent(x, 1, tcell.RuneHLine, nil, styleDim)
	}

	// Per-workspace toplevel sections, in strip order. The sentinel bucket
	// (toplevels that reported no workspace) renders last.
	row := 2
	for _, w := range p.workspaces {
		tops := p.index[w.Handle]
		if len(tops) == 0 && !p.showEmpty {
			continue
		}
		if row >= height-1 {
			break
		}
		row = p.drawSection(w.Name, tops, row, width)
	}
	if tops := p.index[mirror.UnknownWorkspace]; len(tops) > 0 && row < height-1 {
		p.drawSection("(unassigned)", tops, row, width)
	}

	// Bottom row: drop counter, only when something was actually lost.
	if dropped > 0 {
		drawText(s, 1, height-1, styleDim, fmt.Sprintf("dropped %d events", dropped))
	}

	s.Show()
}

func (p *panel) drawSection(name string, tops []mirror.Toplevel, row, width int) int {
	s := p.screen
	_, height := s.Size()

	drawText(s, 1, row, tcell.StyleDefault.Bold(true), name)
	row++

	for _, tl := range tops {
		if row >= height-1 {
			break
		}
		marker := "  "
		style := tcell.StyleDefault
		if tl.Activated {
			marker = "> "
			style = style.Bold(true)
		}
		label := fmt.Sprintf("%s (%s)", tl.Title, p.matcher.DisplayName(tl.AppID))
		max := p.maxTitle
		if width-4 < max {
			max = width - 4
		}
		if max > 0 {
			label = runewidth.Truncate(label, max, "…")
		}
		drawText(s, 2, row, style, marker+label)
		row++
	}
	return row + 1
}

// drawText draws a string and returns the column after its last cell. Wide
// runes advance by their display width.
func drawText(s tcell.Screen, x, y int, style tcell.Style, text string) int {
	width, _ := s.Size()
	col := x
	for _, r := range text {
		if col >= width {
			break
		}
		s.SetContent(col, y, r, nil, style)
		col += runewidth.RuneWidth(r)
	}
	return col
}
