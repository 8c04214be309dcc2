// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns chat turns into terminal output. Assistant answers
// are annotated, their citation tokens become clickable chips that open the
// cited video at the cited moment, and the structured sources are listed
// beneath the answer once it is complete.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/pdiddy/citechat/internal/citation"
	"github.com/pdiddy/citechat/pkg/types"
)

const (
	chipGlyph   = "▶"
	cursorGlyph = "▍"
)

// Renderer formats messages for one output stream.
type Renderer struct {
	cfg    types.RenderConfig
	styled bool
	md     *glamour.TermRenderer

	user      lipgloss.Style
	header    lipgloss.Style
	topic     lipgloss.Style
	timestamp lipgloss.Style
	dim       lipgloss.Style
}

// New returns a Renderer for w. Output is styled only when w is a terminal
// and cfg.Plain is unset; otherwise chips are emitted as plain markdown
// links so the output can be piped or saved.
func New(cfg types.RenderConfig, w io.Writer) (*Renderer, error) {
	return newRenderer(cfg, w, !cfg.Plain && IsTerminal(w))
}

func newRenderer(cfg types.RenderConfig, w io.Writer, styled bool) (*Renderer, error) {
	if cfg.Width <= 0 {
		cfg.Width = 80
	}
	r := &Renderer{cfg: cfg, styled: styled}

	lr := lipgloss.NewRenderer(w)
	r.user = lr.NewStyle()
	r.header = lr.NewStyle()
	r.topic = lr.NewStyle()
	r.timestamp = lr.NewStyle()
	r.dim = lr.NewStyle()
	if !styled {
		return r, nil
	}

	r.user = r.user.Bold(true).Foreground(lipgloss.Color("252"))
	r.header = r.header.Bold(true).Foreground(lipgloss.Color("244"))
	r.topic = r.topic.Bold(true).Foreground(lipgloss.Color("39"))
	r.timestamp = r.timestamp.Foreground(lipgloss.Color("244")).Background(lipgloss.Color("236")).Padding(0, 1)
	r.dim = r.dim.Foreground(lipgloss.Color("243"))

	styleOpt := glamour.WithAutoStyle()
	if cfg.Style != "" && cfg.Style != "auto" {
		styleOpt = glamour.WithStandardStyle(cfg.Style)
	}
	md, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(cfg.Width))
	if err != nil {
		return nil, fmt.Errorf("creating markdown renderer: %w", err)
	}
	r.md = md
	return r, nil
}

// Styled reports whether output carries ANSI styling.
func (r *Renderer) Styled() bool { return r.styled }

// Message renders one turn. User text is shown as written. Assistant text
// is annotated and its chips rendered; the sources panel follows unless
// the answer is still streaming.
func (r *Renderer) Message(msg types.Message, streaming bool) string {
	if msg.Role != types.RoleAssistant {
		if !r.styled {
			return msg.Content
		}
		return r.user.Render(msg.Content)
	}

	body := r.Answer(citation.Annotate(msg.Content, msg.Role))
	if streaming {
		if r.styled {
			body = strings.TrimRight(body, "\n") + " " + cursorGlyph
		}
		return body
	}
	if panel := r.SourcesPanel(msg.Sources); panel != "" {
		body = strings.TrimRight(body, "\n") + "\n\n" + panel
	}
	return body
}

// Answer renders annotated assistant text. Each citation token becomes a
// markdown link to the watch URL; styled output prefixes the chip glyph
// and passes the result through the markdown renderer.
func (r *Renderer) Answer(res citation.Result) string {
	text := citation.ReplaceLinks(res.Text, func(label string, l citation.Link) string {
		if !r.styled {
			return "[" + label + "](" + l.WatchURL() + ")"
		}
		return "[" + chipGlyph + " " + escapeMarkdown(label) + "](" + l.WatchURL() + ")"
	})
	if r.md == nil {
		return text
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return out
}

// SourcesPanel lists the structured sources of a completed answer. It
// returns "" when there are none.
func (r *Renderer) SourcesPanel(sources []types.Source) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.header.Render(fmt.Sprintf("%d Sources Analyzed", len(sources))))
	b.WriteString("\n")
	for i, src := range sources {
		fmt.Fprintf(&b, "\n%d. %s %s\n", i+1, r.topic.Render(src.Topic), r.timestamp.Render(src.TimestampStart))
		fmt.Fprintf(&b, "   %s\n", r.dim.Render(src.DisplayReasoning()))
		fmt.Fprintf(&b, "   %s\n", citation.SourceLink(src).WatchURL())
	}
	return b.String()
}

// Activate is the handler for a chip or panel entry: it returns the URL
// that opens videoID at startText.
func Activate(videoID, startText string) string {
	start := citation.StartOf(startText)
	return citation.WatchURL(videoID, citation.ParseTimestamp(start))
}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w's terminal, or fallback when w is
// not a terminal.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

var markdownEscaper = strings.NewReplacer(`\`, `\\`, `[`, `\[`, `]`, `\]`, `*`, `\*`, `_`, `\_`)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
