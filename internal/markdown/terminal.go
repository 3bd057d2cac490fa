// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/sarathi-ai/sarathi-tui/internal/ui/styles"
	"github.com/sarathi-ai/sarathi-tui/internal/util"
)

// Terminal renders Documents as ANSI text.
type Terminal struct {
	// Width is the wrap width in columns. Zero disables wrapping.
	Width int

	// Hyperlinks emits OSC 8 sequences around passive links.
	Hyperlinks bool

	// Color enables chroma highlighting of code blocks.
	Color bool

	heading    lipgloss.Style
	highlight  lipgloss.Style
	emphasis   lipgloss.Style
	code       lipgloss.Style
	link       lipgloss.Style
	action     lipgloss.Style
	marker     lipgloss.Style
	quoteBar   lipgloss.Style
	rule       lipgloss.Style
	codeLabel  lipgloss.Style
	codeBorder lipgloss.Style
}

// NewTerminal creates a terminal renderer for the given width, enabling
// hyperlinks and highlighting when the output supports color.
func NewTerminal(width int) *Terminal {
	colored := lipgloss.ColorProfile() != termenv.Ascii
	t := &Terminal{
		Width:      width,
		Hyperlinks: colored,
		Color:      colored,
	}

	t.heading = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	t.highlight = lipgloss.NewStyle().Bold(true).Foreground(styles.Saffron)
	t.emphasis = lipgloss.NewStyle().Italic(true)
	t.code = lipgloss.NewStyle().Foreground(styles.Amber)
	t.link = lipgloss.NewStyle().Underline(true).Foreground(styles.LinkColor)
	t.action = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(styles.Emerald)
	t.marker = lipgloss.NewStyle().Foreground(styles.TextMuted)
	t.quoteBar = lipgloss.NewStyle().Foreground(styles.Saffron)
	t.rule = lipgloss.NewStyle().Foreground(styles.Overlay)
	t.codeLabel = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	t.codeBorder = lipgloss.NewStyle().Foreground(styles.Overlay)
	return t
}

// Render renders doc as a string without a trailing newline.
func (t *Terminal) Render(doc Document) string {
	return strings.Join(t.blocks(doc.Blocks, t.Width), "\n\n")
}

func (t *Terminal) blocks(blocks []Block, width int) []string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := t.block(b, width); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (t *Terminal) block(b Block, width int) string {
	switch b.Kind {
	case BlockParagraph:
		return t.wrap(t.spans(b.Spans, lipgloss.NewStyle()), width)
	case BlockHeading:
		return t.wrap(t.heading.Render(strings.Repeat("#", b.Level)+" ")+t.spans(b.Spans, t.heading), width)
	case BlockQuote:
		inner := strings.Join(t.blocks(b.Children, width-2), "\n\n")
		bar := t.quoteBar.Render("│ ")
		lines := strings.Split(inner, "\n")
		for i, l := range lines {
			lines[i] = bar + l
		}
		return strings.Join(lines, "\n")
	case BlockList:
		return t.list(b, width)
	case BlockCode:
		return t.codeBlock(b, width)
	case BlockRule:
		w := width
		if w <= 0 || w > 40 {
			w = 40
		}
		return t.rule.Render(strings.Repeat("─", w))
	default:
		return ""
	}
}

func (t *Terminal) list(b Block, width int) string {
	markers := make([]string, len(b.Items))
	markerWidth := 0
	for i := range b.Items {
		m := "•"
		if b.Ordered {
			m = strconv.Itoa(b.Start+i) + "."
		}
		markers[i] = m
		if w := util.Width(m); w > markerWidth {
			markerWidth = w
		}
	}

	indent := strings.Repeat(" ", markerWidth+1)
	var out []string
	for i, item := range b.Items {
		body := strings.Join(t.blocks(item, width-markerWidth-1), "\n")
		lines := strings.Split(body, "\n")
		for j, l := range lines {
			if j == 0 {
				lines[j] = t.quoteBar.Render(util.PadRight(markers[i], markerWidth)) + " " + l
			} else if l != "" {
				lines[j] = indent + l
			}
		}
		out = append(out, strings.Join(lines, "\n"))
	}
	return strings.Join(out, "\n")
}

func (t *Terminal) codeBlock(b Block, width int) string {
	code := strings.TrimRight(b.Code, "\n")
	if t.Color {
		code = strings.TrimRight(highlight(code, b.Language), "\n")
	}

	var sb strings.Builder
	if b.Language != "" {
		sb.WriteString(t.codeLabel.Render(b.Language))
		sb.WriteByte('\n')
	}
	bar := t.codeBorder.Render("┃ ")
	for i, line := range strings.Split(code, "\n") {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(bar)
		sb.WriteString(line)
	}
	return sb.String()
}

// spans renders inline content. base is applied to plain text so heading
// text keeps the heading style.
func (t *Terminal) spans(spans []Span, base lipgloss.Style) string {
	var sb strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case SpanText:
			sb.WriteString(base.Render(s.Text))
		case SpanBreak:
			sb.WriteByte('\n')
		case SpanHighlight:
			sb.WriteString(t.spans(s.Children, t.highlight))
		case SpanEmphasis:
			sb.WriteString(t.spans(s.Children, base.Inherit(t.emphasis)))
		case SpanCode:
			sb.WriteString(t.code.Render(s.Text))
		case SpanAction:
			sb.WriteString(t.action.Render(spansText(s.Children)))
			sb.WriteString(t.marker.Render(fmt.Sprintf(" [%d]", s.Link)))
		case SpanLink:
			label := t.link.Render(spansText(s.Children))
			if t.Hyperlinks {
				label = termenv.Hyperlink(s.Target, label)
			}
			sb.WriteString(label)
			sb.WriteString(t.marker.Render(fmt.Sprintf(" [%d]", s.Link)))
		}
	}
	return sb.String()
}

func (t *Terminal) wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Render(s)
}

// highlight applies chroma syntax highlighting to code.
func highlight(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get("monokai")
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}
