// Command bridge-plan reads a bridge.toml manifest and prints the
// marshaling plan chosen for every declared function.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/ffi-bridge/async"
	"github.com/wippyai/ffi-bridge/foreign"
	"github.com/wippyai/ffi-bridge/handle"
	"github.com/wippyai/ffi-bridge/heap"
	"github.com/wippyai/ffi-bridge/plan"
)

var log = zap.NewNop()

func main() {
	var (
		manifest    = flag.String("manifest", ".", "Manifest file, or a directory holding bridge.toml")
		format      = flag.String("format", "text", "Output format: text or cbor")
		output      = flag.String("o", "", "Write the plan to a file instead of stdout")
		decode      = flag.String("decode", "", "Print a CBOR plan written earlier with -format cbor")
		interactive = flag.Bool("i", false, "Browse the plan interactively")
		verbose     = flag.Bool("v", false, "Log to stderr")
	)
	flag.Parse()

	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer l.Sync()
		log = l
		setLoggers(l)
	}

	if err := run(*manifest, *format, *output, *decode, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setLoggers(l *zap.Logger) {
	foreign.SetLogger(l.Named("foreign"))
	handle.SetLogger(l.Named("handle"))
	heap.SetLogger(l.Named("heap"))
	async.SetLogger(l.Named("async"))
}

func run(manifestPath, format, output, decode string, interactive bool) error {
	p, err := loadPlan(manifestPath, decode)
	if err != nil {
		return err
	}

	if interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(p)
	}

	out := io.Writer(os.Stdout)
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
		tty = false
	}

	switch format {
	case "text":
		_, err = io.WriteString(out, renderPlan(p, tty))
		return err
	case "cbor":
		if tty {
			return fmt.Errorf("refusing to write CBOR to a terminal; use -o")
		}
		data, err := plan.EncodeCBOR(p)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

func loadPlan(manifestPath, decode string) (*plan.Plan, error) {
	if decode != "" {
		data, err := os.ReadFile(decode)
		if err != nil {
			return nil, fmt.Errorf("read plan: %w", err)
		}
		return plan.DecodeCBOR(data)
	}

	m, err := plan.LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	log.Debug("manifest loaded",
		zap.String("path", m.Path),
		zap.Int("opaques", len(m.Opaques)),
		zap.Int("functions", len(m.Functions)))

	p, err := plan.Build(m)
	if err != nil {
		return nil, fmt.Errorf("build plan: %w", err)
	}
	log.Debug("plan built", zap.Int("symbols", len(p.Symbols)))
	return p, nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	nameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	catStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

type styler func(lipgloss.Style, string) string

func newStyler(tty bool) styler {
	if !tty {
		return func(_ lipgloss.Style, s string) string { return s }
	}
	return func(st lipgloss.Style, s string) string { return st.Render(s) }
}

func renderPlan(p *plan.Plan, tty bool) string {
	st := newStyler(tty)
	var b strings.Builder

	title := "bridge"
	if p.Name != "" {
		title += " " + p.Name
	}
	b.WriteString(st(headerStyle, title))
	b.WriteString("\n\n")

	if len(p.Opaques) > 0 {
		b.WriteString(st(headerStyle, "Opaque types"))
		b.WriteString("\n")
		for _, o := range p.Opaques {
			var caps []string
			if o.Equatable {
				caps = append(caps, "eq")
			}
			if o.Hashable {
				caps = append(caps, "hash")
			}
			if o.Sendable {
				caps = append(caps, "send")
			}
			fmt.Fprintf(&b, "  %s %s\n", st(nameStyle, o.Name), st(dimStyle, "["+strings.Join(caps, ",")+"]"))
		}
		b.WriteString("\n")
	}

	b.WriteString(st(headerStyle, "Functions"))
	b.WriteString("\n")
	for _, f := range p.Functions {
		b.WriteString(formatFunc(f, st))
		b.WriteString("\n")
	}

	writeList(&b, st, "Vectors", p.Vectors)
	writeList(&b, st, "Options", p.Options)
	writeList(&b, st, "Symbols", p.Symbols)
	return b.String()
}

func formatFunc(f plan.FuncPlan, st styler) string {
	var params []string
	for _, prm := range f.Params {
		params = append(params, prm.Name+": "+formatSelection(prm.Selection, st))
	}
	line := "  " + st(nameStyle, f.Name) + "(" + strings.Join(params, ", ") + ")"
	if f.Result.Category != plan.CategoryUnit {
		line += " -> " + formatSelection(f.Result, st)
	}
	if f.Async {
		line += st(dimStyle, " async via "+f.Trampoline)
	}
	return line
}

func formatSelection(s plan.Selection, st styler) string {
	decl := s.Decl
	if s.Borrowed {
		decl = "&" + decl
	}
	out := decl + " " + st(catStyle, "<"+s.Category.String()+">")
	if s.Aggregate != "" {
		out += st(dimStyle, " as "+s.Aggregate)
	}
	return out
}

func writeList(b *strings.Builder, st styler, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s (%d)\n", st(headerStyle, title), len(items))
	for _, it := range items {
		b.WriteString("  " + it + "\n")
	}
}
