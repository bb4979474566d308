package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/wsmirror/wsmirror/config"
	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/mirror"
	"github.com/wsmirror/wsmirror/store"
)

const styleName = "catppuccin-mocha"

// printer renders one event per line, or as JSON with -json. Pretty-printing
// and syntax highlighting only happen on an interactive stdout; piped output
// stays one-object-per-line for jq.
type printer struct {
	asJSON bool
	isTTY  bool
	width  int
}

func newPrinter(asJSON bool) *printer {
	p := &printer{asJSON: asJSON}
	fd := os.Stdout.Fd()
	p.isTTY = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	if p.isTTY {
		if w, _, err := term.GetSize(int(fd)); err == nil {
			p.width = w
		}
	}
	return p
}

func (p *printer) print(ev mirror.Event) {
	if p.asJSON {
		p.printJSON(ev)
		return
	}
	line := fmt.Sprintf("%-19s %s", ev.Kind(), describe(ev))
	if p.width > 0 {
		line = runewidth.Truncate(line, p.width, "…")
	}
	fmt.Println(line)
}

func (p *printer) printJSON(ev mirror.Event) {
	envelope := struct {
		Kind  string       `json:"kind"`
		Event mirror.Event `json:"event"`
	}{ev.Kind(), ev}

	var data []byte
	var err error
	if p.isTTY {
		data, err = json.MarshalIndent(envelope, "", "  ")
	} else {
		data, err = json.Marshal(envelope)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode event: %v\n", err)
		return
	}

	if p.isTTY {
		if err := highlight(string(data)); err == nil {
			fmt.Println()
			return
		}
	}
	fmt.Println(string(data))
}

func highlight(src string) error {
	lexer := chroma.Coalesce(lexers.Get("json"))
	it, err := lexer.Tokenise(nil, src)
	if err != nil {
		return err
	}
	return formatters.Get("terminal256").Format(os.Stdout, styles.Get(styleName), it)
}

func describe(ev mirror.Event) string {
	switch e := ev.(type) {
	case mirror.WorkspacesChanged:
		parts := make([]string, 0, len(e.Workspaces))
		for _, w := range e.Workspaces {
			name := w.Name
			if w.Active {
				name = "[" + name + "]"
			}
			if w.Urgent {
				name += "!"
			}
			parts = append(parts, name)
		}
		return strings.Join(parts, " ")
	case mirror.ToplevelAdded:
		return fmt.Sprintf("%s %q on %d", e.Toplevel.AppID, e.Toplevel.Title, e.Toplevel.Workspace)
	case mirror.ToplevelUpdated:
		extra := ""
		if e.Toplevel.Activated {
			extra = " (active)"
		}
		return fmt.Sprintf("%s %q on %d%s", e.Toplevel.AppID, e.Toplevel.Title, e.Toplevel.Workspace, extra)
	case mirror.ToplevelRemoved:
		return fmt.Sprintf("%s (handle %d)", e.AppID, e.Handle)
	default:
		return ""
	}
}

// tracker keeps the latest full projection so each recorded event can be
// paired with a state snapshot.
type tracker struct {
	workspaces []mirror.Workspace
	index      mirror.Index
}

func (t *tracker) apply(ev mirror.Event) {
	switch e := ev.(type) {
	case mirror.WorkspacesChanged:
		t.workspaces = e.Workspaces
	case mirror.ToplevelAdded:
		t.index = e.Index
	case mirror.ToplevelUpdated:
		t.index = e.Index
	case mirror.ToplevelRemoved:
		// Removal events carry no index; drop the handle locally.
		for ws, tops := range t.index {
			kept := tops[:0]
			for _, tl := range tops {
				if tl.Handle != e.Handle {
					kept = append(kept, tl)
				}
			}
			t.index[ws] = kept
		}
	}
}

func main() {
	socketPath := flag.String("socket", "", "Unix socket path (overrides config)")
	outputName := flag.String("output", "", "Output to mirror (overrides config)")
	configPath := flag.String("config", config.DefaultPath(), "Config file path")
	asJSON := flag.Bool("json", false, "Emit events as JSON")
	recordPath := flag.String("record", "", "Also persist events to a SQLite database at this path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.LogLevel)

	socket := cfg.Socket
	if *socketPath != "" {
		socket = *socketPath
	}
	output := cfg.Output
	if *outputName != "" {
		output = *outputName
	}

	var rec *store.Recorder
	if *recordPath != "" {
		rec, err = store.Open(*recordPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open event log: %v\n", err)
			os.Exit(1)
		}
		defer rec.Close()
	}

	sub := mirror.Subscribe(mirror.Options{
		Socket: socket,
		Output: output,
		Client: "wsmirror-watch",
	})
	defer sub.Close()

	p := newPrinter(*asJSON)
	var state tracker

	for ev := range sub.Events() {
		p.print(ev)
		if rec == nil {
			continue
		}
		state.apply(ev)
		if err := rec.RecordEvent(ev.Kind(), ev); err != nil {
			fmt.Fprintf(os.Stderr, "failed to record event: %v\n", err)
		}
		if err := rec.RecordSnapshot(state.workspaces, state.index); err != nil {
			fmt.Fprintf(os.Stderr, "failed to record snapshot: %v\n", err)
		}
	}

	if dropped := sub.Dropped(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "%d events dropped (consumer too slow)\n", dropped)
	}
	if err := sub.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "session failed: %v\n", err)
		os.Exit(1)
	}
}
