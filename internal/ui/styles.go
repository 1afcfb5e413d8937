// Package ui holds the lipgloss styles for the notes TUI.
package ui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep the panels readable on light terminals too.
var (
	accent    = lipgloss.AdaptiveColor{Light: "#00777A", Dark: "#3FD7D2"}
	recording = lipgloss.AdaptiveColor{Light: "#C4162A", Dark: "#FF5F5F"}
	pending   = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#F2C94C"}
	saved     = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#C4A7FF"}
	ok        = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#5FD068"}
	muted     = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
	faint     = lipgloss.AdaptiveColor{Light: "#D0D7DE", Dark: "#3A3F44"}
	text      = lipgloss.AdaptiveColor{Light: "#1F2328", Dark: "#E6EDF3"}
)

var (
	DimStyle     = lipgloss.NewStyle().Foreground(muted)
	DividerStyle = lipgloss.NewStyle().Foreground(faint)
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
)

// Status bar.
var (
	RecordingDotStyle = lipgloss.NewStyle().Bold(true).Foreground(recording)
	IdleDotStyle      = DimStyle
	NoticeStyle       = lipgloss.NewStyle().Foreground(ok)
)

// History and transcript panels.
var (
	panelTitle       = lipgloss.NewStyle().Bold(true).Foreground(text)
	panelTitleActive = panelTitle.Foreground(accent)

	SelectedStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	HistoryDateStyle = DimStyle
	TimestampStyle   = DimStyle
	PartialTextStyle = lipgloss.NewStyle().Italic(true).Foreground(pending)

	LiveBadgeStyle   = lipgloss.NewStyle().Bold(true).Foreground(ok)
	ScrollBadgeStyle = LiveBadgeStyle.Foreground(pending)
	SavedBadgeStyle  = lipgloss.NewStyle().Bold(true).Foreground(saved)
)

// Error bar.
var (
	ErrorStyle     = lipgloss.NewStyle().Bold(true).Foreground(recording)
	ErrorTextStyle = lipgloss.NewStyle().Foreground(recording)
)

var footerKey = lipgloss.NewStyle().Bold(true).Foreground(pending)

// PanelTitle renders a panel heading, highlighted when the panel has focus.
func PanelTitle(title string, active bool) string {
	if active {
		return panelTitleActive.Render(title)
	}
	return panelTitle.Render(title)
}

// KeyHint renders one footer entry: the key, then what it does.
func KeyHint(key, desc string) string {
	return footerKey.Render(key) + DimStyle.Render(" "+desc)
}
