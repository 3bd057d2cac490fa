// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PRIMARY ACCENT COLORS
// =============================================================================

// Saffron - Brand color, assistant highlights, strong text
var Saffron = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FDBA74"}

// SaffronDeep - Darker saffron for backgrounds
var SaffronDeep = lipgloss.AdaptiveColor{Light: "#9A3412", Dark: "#7C2D12"}

// Purple - Primary accent, headings, assistant text
var Purple = lipgloss.AdaptiveColor{Light: "#6B21A8", Dark: "#D8B4FE"}

// PurpleDeep - Darker purple for backgrounds
var PurpleDeep = lipgloss.AdaptiveColor{Light: "#581C87", Dark: "#3B0764"}

// Blue - User messages
var Blue = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#93C5FD"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors and failures
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, pending states
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// Emerald - Success, speaking indicator
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// LinkColor - Passive hyperlinks
var LinkColor = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// Cream - Main background tint
var Cream = lipgloss.AdaptiveColor{Light: "#FFFBEB", Dark: "#1C1917"}

// SurfaceDim - Headers, footers, code blocks
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F4", Dark: "#181825"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E7E5E4", Dark: "#44403C"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E7E5E4"}

// TextSecondary - Labels, less prominent text
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A8A29E"}

// TextMuted - Hints, timestamps
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#78716C"}

// =============================================================================
// MESSAGE BUBBLE COLORS
// =============================================================================

// UserBubbleBorder - Border of user messages
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#93C5FD", Dark: "#1D4ED8"}

// AssistantBubbleBorder - Border of assistant messages
var AssistantBubbleBorder = lipgloss.AdaptiveColor{Light: "#FDBA74", Dark: "#C2410C"}

// SelectedBorder - Border of the selected message
var SelectedBorder = lipgloss.AdaptiveColor{Light: "#7E22CE", Dark: "#E9D5FF"}

// =============================================================================
// RENDER HELPERS
// =============================================================================

// RenderError renders an error line.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).Render("✗ ") + message
}

// RenderInfo renders an informational line.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Saffron).Render("• ") + message
}

// RenderSuccess renders a success line.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).Render("✓ ") + message
}
