// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// UNICODE: all widths are terminal columns, not bytes or runes. Devanagari
// combining marks take zero columns and most emoji take two.

// Width returns the display width of s.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to at most maxWidth columns, ending in "..." when
// something was cut and there is room for it.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces up to width columns.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Wrap breaks s into lines no wider than width columns. Existing newlines
// are kept, words are split on whitespace, and a single word wider than
// width is hard-broken.
func Wrap(s string, width int) []string {
	if width <= 0 {
		return strings.Split(s, "\n")
	}

	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var line strings.Builder
		lineWidth := 0
		for _, word := range words {
			ww := runewidth.StringWidth(word)

			if lineWidth > 0 && lineWidth+1+ww > width {
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
			}

			for ww > width {
				head := runewidth.Truncate(word, width-lineWidth, "")
				if head == "" {
					break
				}
				if lineWidth > 0 {
					line.WriteByte(' ')
				}
				line.WriteString(head)
				lines = append(lines, line.String())
				line.Reset()
				lineWidth = 0
				word = word[len(head):]
				ww = runewidth.StringWidth(word)
			}

			if lineWidth > 0 {
				line.WriteByte(' ')
				lineWidth++
			}
			line.WriteString(word)
			lineWidth += ww
		}
		lines = append(lines, line.String())
	}
	return lines
}
