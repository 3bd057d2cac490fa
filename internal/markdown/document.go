// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import "strings"

// =============================================================================
// BLOCKS
// =============================================================================

// BlockKind identifies the type of a block.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockQuote
	BlockList
	BlockCode
	BlockRule
)

// String returns the string representation of the block kind.
func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockQuote:
		return "quote"
	case BlockList:
		return "list"
	case BlockCode:
		return "code"
	case BlockRule:
		return "rule"
	default:
		return "unknown"
	}
}

// Block is one block-level element of a rendered reply.
type Block struct {
	Kind BlockKind

	// Spans holds inline content for paragraphs and headings.
	Spans []Span

	// Level is the heading level (1-6).
	Level int

	// Children holds the nested blocks of a quote.
	Children []Block

	// Items holds one block list per list item.
	Items   [][]Block
	Ordered bool
	Start   int

	// Language and Code describe a code block.
	Language string
	Code     string
}

// =============================================================================
// SPANS
// =============================================================================

// SpanKind identifies the type of an inline span.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanHighlight
	SpanEmphasis
	SpanCode
	SpanLink
	SpanAction
	SpanBreak
)

// String returns the string representation of the span kind.
func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "text"
	case SpanHighlight:
		return "highlight"
	case SpanEmphasis:
		return "emphasis"
	case SpanCode:
		return "code"
	case SpanLink:
		return "link"
	case SpanAction:
		return "action"
	case SpanBreak:
		return "break"
	default:
		return "unknown"
	}
}

// Span is an inline element. Text and code spans carry Text; highlight,
// emphasis, link and action spans carry Children.
type Span struct {
	Kind     SpanKind
	Text     string
	Children []Span

	// Target and Link are set for link and action spans. Link is the
	// 1-based index into Document.Links.
	Target string
	Link   int
}

// Link is an activatable anchor found in a reply.
type Link struct {
	Index  int
	Label  string
	Target string
	Action bool
}

// Document is the structured form of one reply.
type Document struct {
	Blocks []Block
	Links  []Link
}

// Link returns the link with the given 1-based index.
func (d Document) Link(index int) (Link, bool) {
	if index < 1 || index > len(d.Links) {
		return Link{}, false
	}
	return d.Links[index-1], true
}

// HasAction reports whether the document contains the start-server action.
func (d Document) HasAction() bool {
	for _, l := range d.Links {
		if l.Action {
			return true
		}
	}
	return false
}

// PlainText returns the document text without markup, one block per
// paragraph. It is what gets read aloud and copied.
func (d Document) PlainText() string {
	var parts []string
	for _, b := range d.Blocks {
		if s := blockText(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func blockText(b Block) string {
	switch b.Kind {
	case BlockParagraph, BlockHeading:
		return strings.TrimSpace(spansText(b.Spans))
	case BlockQuote:
		return Document{Blocks: b.Children}.PlainText()
	case BlockList:
		var items []string
		for _, item := range b.Items {
			items = append(items, Document{Blocks: item}.PlainText())
		}
		return strings.Join(items, "\n")
	case BlockCode:
		return strings.TrimRight(b.Code, "\n")
	default:
		return ""
	}
}

func spansText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case SpanText, SpanCode:
			sb.WriteString(s.Text)
		case SpanBreak:
			sb.WriteByte('\n')
		default:
			sb.WriteString(spansText(s.Children))
		}
	}
	return sb.String()
}
