package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/jwulff/steno/notes/internal/ui"
)

func (m Model) transcriptVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + divider(1) + divider(1) + error(1) + footer(1) + padding
	reserved := 7
	return max(5, m.height-reserved)
}

func (m Model) historyPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(24, m.width*30/100)
}

func (m Model) transcriptPanelWidth() int {
	if m.width == 0 {
		return 60
	}
	return max(30, m.width-m.historyPanelWidth()-3)
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatusBar(),
		ui.DividerStyle.Render(strings.Repeat("─", m.width)),
		m.renderMainContent(),
		ui.DividerStyle.Render(strings.Repeat("─", m.width)),
	}
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("STENO NOTES")
	if m.locale != "" {
		title += ui.DimStyle.Render("  " + m.locale)
	}
	return title
}

func (m Model) renderStatusBar() string {
	var dot string
	if m.recording {
		dot = ui.RecordingDotStyle.Render("● REC")
	} else {
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	unsaved := ui.DimStyle.Render(fmt.Sprintf("  %d unsaved", len(m.entries)))
	status := "  " + ui.NoticeStyle.Render(m.statusText)

	return dot + unsaved + status
}

func (m Model) renderMainContent() string {
	historyW := m.historyPanelWidth()
	transcriptW := m.transcriptPanelWidth()
	contentH := m.transcriptVisibleLines()

	historyLines := strings.Split(m.renderHistoryPanel(historyW, contentH), "\n")
	transcriptLines := strings.Split(m.renderTranscriptPanel(transcriptW, contentH), "\n")

	divider := ui.DividerStyle.Render("│")

	var rows []string
	for i := 0; i < contentH; i++ {
		hl := strings.Repeat(" ", historyW)
		if i < len(historyLines) {
			hl = historyLines[i]
		}
		tr := ""
		if i < len(transcriptLines) {
			tr = transcriptLines[i]
		}
		rows = append(rows, hl+divider+tr)
	}

	return strings.Join(rows, "\n")
}

func (m Model) renderHistoryPanel(width, height int) string {
	title := fmt.Sprintf("HISTORY (%d)", len(m.history))
	lines := []string{ui.PanelTitle(title, m.focusedPanel == FocusHistory)}

	switch {
	case !m.historyLoaded:
		lines = append(lines, ui.DimStyle.Render("  Loading..."))
	case len(m.history) == 0:
		lines = append(lines, ui.DimStyle.Render("  No conversations yet"))
		lines = append(lines, ui.DimStyle.Render("  Press s to save a transcript"))
	default:
		// Keep the selection visible.
		start := 0
		if visible := height - 1; m.selected >= visible {
			start = m.selected - visible + 1
		}
		for i := start; i < len(m.history); i++ {
			c := m.history[i]
			date := ui.HistoryDateStyle.Render(c.Date.Local().Format("01-02 15:04"))
			var line string
			if i == m.selected && m.focusedPanel == FocusHistory {
				line = ui.SelectedStyle.Render("> ") + date + " " + ui.SelectedStyle.Render(c.Name)
			} else {
				line = "  " + date + " " + c.Name
			}
			lines = append(lines, truncateToWidth(line, width))
		}
	}

	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		lines[i] = padRight(l, width)
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderTranscriptPanel(width, height int) string {
	focused := m.focusedPanel == FocusTranscript
	var header string
	if m.viewing != nil {
		header = ui.PanelTitle("CONVERSATION", focused) +
			ui.SavedBadgeStyle.Render(" "+m.viewing.Name) +
			ui.DimStyle.Render(" "+m.viewing.Date.Local().Format("2006-01-02 15:04"))
	} else {
		badge := ui.LiveBadgeStyle.Render(" LIVE")
		if !m.transcriptLive {
			badge = ui.ScrollBadgeStyle.Render(" SCROLL")
		}
		header = ui.PanelTitle("TRANSCRIPT", focused) + badge
	}

	lines := []string{header}
	contentHeight := height - 1

	var body []string
	switch {
	case m.viewing != nil:
		body = m.savedLines(width)
	case !m.connected:
		body = m.disconnectedLines()
	case len(m.entries) == 0 && m.partialText == "":
		body = []string{"", ui.DimStyle.Render("  Press Space to start recording")}
	default:
		body = m.liveLines(width)
	}

	start := 0
	if m.viewing == nil && m.transcriptLive {
		if len(body) > contentHeight {
			start = len(body) - contentHeight
		}
	} else {
		start = min(m.transcriptScroll, max(0, len(body)-1))
	}
	end := min(start+contentHeight, len(body))
	lines = append(lines, body[start:end]...)

	for len(lines) < height {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (m Model) disconnectedLines() []string {
	switch {
	case m.reconnecting:
		return []string{"", ui.ErrorTextStyle.Render("  Daemon disconnected. Reconnecting...")}
	case m.connError != "":
		return []string{
			"",
			ui.ErrorStyle.Render("  Daemon not running."),
			ui.DimStyle.Render("  Start with: steno-daemon run"),
		}
	default:
		return []string{ui.DimStyle.Render("  Connecting to steno-daemon...")}
	}
}

func (m Model) savedLines(width int) []string {
	if len(m.viewing.Phrases) == 0 {
		return []string{"", ui.DimStyle.Render("  (no phrases)")}
	}
	textWidth := max(10, width-4)
	var out []string
	for _, p := range m.viewing.Phrases {
		for _, wl := range wrapText(p, textWidth) {
			out = append(out, "  "+wl)
		}
	}
	return out
}

func (m Model) liveLines(width int) []string {
	// Prefix: "[HH:MM:SS] " = 11 chars visible, after a 2-space indent
	const prefixWidth = 11
	textWidth := max(10, width-prefixWidth-2)
	indent := strings.Repeat(" ", prefixWidth)

	var out []string
	for _, e := range m.entries {
		ts := ui.TimestampStyle.Render(e.Timestamp.Format("[15:04:05]"))
		wrapped := wrapText(e.Text, textWidth)
		out = append(out, "  "+ts+" "+wrapped[0])
		for _, wl := range wrapped[1:] {
			out = append(out, "  "+indent+wl)
		}
	}

	if m.partialText != "" {
		ts := ui.TimestampStyle.Render(time.Now().Format("[15:04:05]"))
		wrapped := wrapText(m.partialText+"▌", textWidth)
		out = append(out, "  "+ts+" "+ui.PartialTextStyle.Render(wrapped[0]))
		for _, wl := range wrapped[1:] {
			out = append(out, "  "+indent+ui.PartialTextStyle.Render(wl))
		}
	}
	return out
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	key := ui.KeyHint

	var parts []string
	if m.connected {
		if m.recording {
			parts = append(parts, key("Space", "Stop"))
		} else {
			parts = append(parts, key("Space", "Record"))
		}
	}
	parts = append(parts,
		key("s", "Save"),
		key("Tab", "Focus"),
		key("j/k", "Nav"),
		key("Enter", "Open"),
		key("d", "Delete"),
	)
	if m.viewing != nil {
		parts = append(parts, key("Esc", "Back"))
	}
	parts = append(parts, key("↑↓", "Scroll"), key("q", "Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func padRight(s string, width int) string {
	// Get visible length (ignoring ANSI codes)
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
