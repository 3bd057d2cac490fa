// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/time/rate"
)

// ActionStartServer is the link target that asks the backend to wake up.
const ActionStartServer = "#start-server"

// IsAction reports whether target is the start-server sentinel.
func IsAction(target string) bool {
	return strings.TrimSpace(target) == ActionStartServer
}

// Waker sends the keep-alive ping. *gateway.Client satisfies it.
type Waker interface {
	KeepAlive(ctx context.Context) error
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures rendering and activation.
type Options struct {
	// ItalicAsHighlight renders *emphasis* the same way as **strong**.
	ItalicAsHighlight bool

	// WakeInterval is the minimum gap between two keep-alive pings.
	WakeInterval time.Duration

	// WakeTimeout bounds a single keep-alive ping.
	WakeTimeout time.Duration
}

// DefaultOptions returns the default renderer options.
func DefaultOptions() Options {
	return Options{
		ItalicAsHighlight: true,
		WakeInterval:      10 * time.Second,
		WakeTimeout:       60 * time.Second,
	}
}

// =============================================================================
// ACTIVATION
// =============================================================================

// ActivationKind says what happened when a link was activated.
type ActivationKind int

const (
	// ActivationIgnored means the target was empty or unusable.
	ActivationIgnored ActivationKind = iota
	// ActivationWake means the start-server sentinel was intercepted.
	ActivationWake
	// ActivationOpen means a passive link the terminal should open.
	ActivationOpen
)

// Activation is the result of activating a link.
type Activation struct {
	Kind   ActivationKind
	Target string
	Notice string
	// Pinged is true when this activation started a keep-alive ping.
	Pinged bool
}

const (
	noticePinged    = "Server pinged, retry your question shortly."
	noticeThrottled = "Server was just pinged, retry your question shortly."
	noticeNoWaker   = "No gateway configured to wake."
)

// =============================================================================
// RENDERER
// =============================================================================

// Renderer turns reply text into Documents and handles link activation.
// Render is pure; Activate is the only method that does network I/O.
type Renderer struct {
	opts    Options
	md      goldmark.Markdown
	waker   Waker
	limiter *rate.Limiter
	wg      sync.WaitGroup
}

// New creates a renderer. waker may be nil, in which case the sentinel is
// still intercepted but nothing is sent.
func New(waker Waker, opts Options) *Renderer {
	defaults := DefaultOptions()
	if opts.WakeInterval <= 0 {
		opts.WakeInterval = defaults.WakeInterval
	}
	if opts.WakeTimeout <= 0 {
		opts.WakeTimeout = defaults.WakeTimeout
	}

	return &Renderer{
		opts: opts,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		),
		waker:   waker,
		limiter: rate.NewLimiter(rate.Every(opts.WakeInterval), 1),
	}
}

// Options returns the renderer options.
func (r *Renderer) Options() Options {
	return r.opts
}

// Render parses reply text into a Document.
func (r *Renderer) Render(reply string) Document {
	src := []byte(reply)
	root := r.md.Parser().Parse(text.NewReader(src))

	c := &converter{src: src, opts: r.opts}
	blocks := c.blocks(root)
	return Document{Blocks: blocks, Links: c.links}
}

// Activate handles activation of a rendered link.
func (r *Renderer) Activate(link Link) Activation {
	return r.ActivateTarget(link.Target)
}

// ActivateTarget handles activation of an anchor target. The sentinel
// fires one keep-alive ping in the background unless a ping was sent
// within WakeInterval. Any other non-empty target is returned for the
// terminal to open.
func (r *Renderer) ActivateTarget(target string) Activation {
	target = strings.TrimSpace(target)
	if target == "" {
		return Activation{Kind: ActivationIgnored}
	}
	if !IsAction(target) {
		return Activation{Kind: ActivationOpen, Target: target}
	}

	act := Activation{Kind: ActivationWake, Target: ActionStartServer}
	if r.waker == nil {
		act.Notice = noticeNoWaker
		return act
	}
	if !r.limiter.Allow() {
		act.Notice = noticeThrottled
		return act
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.WakeTimeout)
		defer cancel()
		if err := r.waker.KeepAlive(ctx); err != nil {
			log.Printf("[markdown] keep-alive failed: %v", err)
		}
	}()

	act.Notice = noticePinged
	act.Pinged = true
	return act
}

// Wait blocks until background pings have finished.
func (r *Renderer) Wait() {
	r.wg.Wait()
}

// =============================================================================
// AST CONVERSION
// =============================================================================

type converter struct {
	src   []byte
	opts  Options
	links []Link
}

func (c *converter) blocks(parent ast.Node) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.block(n)...)
	}
	return out
}

func (c *converter) block(n ast.Node) []Block {
	switch n := n.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		return []Block{{Kind: BlockParagraph, Spans: c.inlines(n)}}
	case *ast.Heading:
		return []Block{{Kind: BlockHeading, Level: n.Level, Spans: c.inlines(n)}}
	case *ast.Blockquote:
		return []Block{{Kind: BlockQuote, Children: c.blocks(n)}}
	case *ast.List:
		b := Block{Kind: BlockList, Ordered: n.IsOrdered(), Start: n.Start}
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			b.Items = append(b.Items, c.blocks(item))
		}
		return []Block{b}
	case *ast.FencedCodeBlock:
		return []Block{{Kind: BlockCode, Language: string(n.Language(c.src)), Code: c.lines(n.Lines())}}
	case *ast.CodeBlock:
		return []Block{{Kind: BlockCode, Code: c.lines(n.Lines())}}
	case *ast.ThematicBreak:
		return []Block{{Kind: BlockRule}}
	case *ast.HTMLBlock:
		// Raw HTML is shown as literal text, never interpreted.
		raw := c.lines(n.Lines())
		if n.HasClosure() {
			raw += string(n.ClosureLine.Value(c.src))
		}
		raw = strings.TrimRight(raw, "\n")
		if raw == "" {
			return nil
		}
		return []Block{{Kind: BlockParagraph, Spans: []Span{{Kind: SpanText, Text: raw}}}}
	default:
		if n.Type() == ast.TypeBlock && n.HasChildren() {
			return c.blocks(n)
		}
		return nil
	}
}

func (c *converter) lines(segs *text.Segments) string {
	var sb strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		sb.Write(seg.Value(c.src))
	}
	return sb.String()
}

func (c *converter) inlines(parent ast.Node) []Span {
	var out []Span
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, c.inline(n)...)
	}
	return mergeText(out)
}

func (c *converter) inline(n ast.Node) []Span {
	switch n := n.(type) {
	case *ast.Text:
		value := n.Segment.Value(c.src)
		if !n.IsRaw() {
			value = util.UnescapePunctuations(value)
			value = util.ResolveEntityNames(util.ResolveNumericReferences(value))
		}
		spans := []Span{{Kind: SpanText, Text: string(value)}}
		switch {
		case n.HardLineBreak():
			spans = append(spans, Span{Kind: SpanBreak})
		case n.SoftLineBreak():
			spans = append(spans, Span{Kind: SpanText, Text: " "})
		}
		return spans
	case *ast.String:
		return []Span{{Kind: SpanText, Text: string(n.Value)}}
	case *ast.Emphasis:
		kind := SpanEmphasis
		if n.Level >= 2 || c.opts.ItalicAsHighlight {
			kind = SpanHighlight
		}
		return []Span{{Kind: kind, Children: c.inlines(n)}}
	case *ast.CodeSpan:
		return []Span{{Kind: SpanCode, Text: c.raw(n)}}
	case *ast.Link:
		return []Span{c.link(string(n.Destination), c.inlines(n))}
	case *ast.AutoLink:
		label := []Span{{Kind: SpanText, Text: string(n.Label(c.src))}}
		return []Span{c.link(string(n.URL(c.src)), label)}
	case *ast.Image:
		return []Span{c.link(string(n.Destination), c.inlines(n))}
	case *ast.RawHTML:
		var sb strings.Builder
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(c.src))
		}
		return []Span{{Kind: SpanText, Text: sb.String()}}
	default:
		return c.inlines(n)
	}
}

func (c *converter) raw(n ast.Node) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(c.src))
		case *ast.String:
			sb.Write(t.Value)
		}
	}
	return sb.String()
}

func (c *converter) link(target string, children []Span) Span {
	kind := SpanLink
	if IsAction(target) {
		kind = SpanAction
	}
	index := len(c.links) + 1
	c.links = append(c.links, Link{
		Index:  index,
		Label:  strings.TrimSpace(spansText(children)),
		Target: target,
		Action: kind == SpanAction,
	})
	return Span{Kind: kind, Target: target, Link: index, Children: children}
}

// mergeText joins adjacent text spans and drops empty ones.
func mergeText(spans []Span) []Span {
	out := spans[:0]
	for _, s := range spans {
		if s.Kind == SpanText && s.Text == "" {
			continue
		}
		if s.Kind == SpanText && len(out) > 0 && out[len(out)-1].Kind == SpanText {
			out[len(out)-1].Text += s.Text
			continue
		}
		out = append(out, s)
	}
	return out
}
