package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwulff/steno/notes/internal/daemon"
	"github.com/jwulff/steno/notes/internal/db"
)

// failingStore fails every operation with err.
type failingStore struct{ err error }

func (s failingStore) Initialize(context.Context) error { return s.err }
func (s failingStore) Create(context.Context, string, []string) (db.Conversation, error) {
	return db.Conversation{}, s.err
}
func (s failingStore) List(context.Context) ([]db.Conversation, error) { return nil, s.err }
func (s failingStore) Get(context.Context, int64) (*db.Conversation, error) { return nil, s.err }
func (s failingStore) Delete(context.Context, int64) error { return s.err }

func newTestModel(t *testing.T) Model {
	t.Helper()
	store := db.New(filepath.Join(t.TempDir(), "history.db"))
	t.Cleanup(func() { store.Close() })

	m := New(store, "/nonexistent.sock", "en_US")
	m.width = 100
	m.height = 30
	return m
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// step executes cmd and feeds its message back into the model.
func step(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return applyUpdate(m, cmd())
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	m, _ = step(t, m, cmd)
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func segment(m *Model, seq int, text string) {
	m.handleEvent(daemon.Event{Event: daemon.EventSegment, Text: text, SequenceNumber: &seq})
}

func TestNewModel(t *testing.T) {
	m := New(failingStore{}, "", "en_US")
	if m.connected {
		t.Error("new model should not be connected")
	}
	if m.recording {
		t.Error("new model should not be recording")
	}
	if !m.transcriptLive {
		t.Error("new model should be in live mode")
	}
	if m.focusedPanel != FocusTranscript {
		t.Error("new model should focus transcript")
	}
}

func TestDaemonConnectError(t *testing.T) {
	m := newTestModel(t)

	model, cmd := applyUpdate(m, DaemonConnectErrorMsg{Err: fmt.Errorf("connection refused")})
	if model.connected {
		t.Error("should not be connected after error")
	}
	if !model.reconnecting {
		t.Error("should be reconnecting after connect error")
	}
	if cmd == nil {
		t.Error("expected a reconnect tick")
	}
}

func TestSegmentsBufferPhrases(t *testing.T) {
	m := newTestModel(t)
	m.connected = true

	m.handleEvent(daemon.Event{Event: daemon.EventPartial, Text: "hel"})
	if m.partialText != "hel" {
		t.Errorf("partialText = %q", m.partialText)
	}
	segment(&m, 1, "hello")
	segment(&m, 2, "")
	segment(&m, 3, "world")

	if m.partialText != "" {
		t.Errorf("partialText = %q after segment, want empty", m.partialText)
	}
	if got := m.Phrases(); !slices.Equal(got, []string{"hello", "", "world"}) {
		t.Errorf("phrases = %q", got)
	}
}

func TestStatusEvent(t *testing.T) {
	m := newTestModel(t)
	recording := true

	m.handleEvent(daemon.Event{Event: daemon.EventStatus, Recording: &recording})
	if !m.recording {
		t.Error("should be recording after status event")
	}
}

func TestErrorEvent(t *testing.T) {
	m := newTestModel(t)
	tr := true

	cmd := m.handleEvent(daemon.Event{Event: daemon.EventError, Message: "test error", Transient: &tr})
	if m.errorMessage != "test error" {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if cmd == nil {
		t.Error("transient error should return a clear command")
	}
}

func TestSaveOpenDeleteFlow(t *testing.T) {
	m := newTestModel(t)
	m = run(t, m, initStoreCmd(m.store))
	if !m.historyLoaded || len(m.history) != 0 {
		t.Fatalf("history = %+v, want loaded and empty", m.history)
	}

	segment(&m, 1, "  Weekly   sync with the team ")
	segment(&m, 2, "action items")

	// Save
	m, cmd := applyUpdate(m, runes(KeySave))
	if !m.saving {
		t.Error("should be saving")
	}
	m, cmd = step(t, m, cmd) // ConversationSavedMsg
	if len(m.entries) != 0 {
		t.Errorf("entries = %d after save, want 0", len(m.entries))
	}
	if !strings.Contains(m.statusText, "Weekly sync with the team") {
		t.Errorf("statusText = %q", m.statusText)
	}
	m = run(t, m, cmd) // HistoryLoadedMsg
	if len(m.history) != 1 {
		t.Fatalf("history = %d, want 1", len(m.history))
	}
	saved := m.history[0]
	if saved.Name != "Weekly sync with the team" {
		t.Errorf("name = %q", saved.Name)
	}
	if !slices.Equal(saved.Phrases, []string{"  Weekly   sync with the team ", "action items"}) {
		t.Errorf("phrases = %q, want the buffer verbatim", saved.Phrases)
	}

	// Open
	m.focusedPanel = FocusHistory
	m, cmd = applyUpdate(m, tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, m, cmd) // ConversationOpenedMsg
	if m.viewing == nil || m.viewing.ID != saved.ID {
		t.Fatalf("viewing = %+v, want %d", m.viewing, saved.ID)
	}
	if !strings.Contains(m.View(), "action items") {
		t.Error("view should show the opened conversation's phrases")
	}

	// Delete while viewing it
	m.focusedPanel = FocusHistory
	m, cmd = applyUpdate(m, runes(KeyDelete))
	m, cmd = step(t, m, cmd) // ConversationDeletedMsg
	if m.viewing != nil {
		t.Error("deleting the open conversation should close it")
	}
	m = run(t, m, cmd) // HistoryLoadedMsg
	if len(m.history) != 0 {
		t.Errorf("history = %d after delete, want 0", len(m.history))
	}
}

func TestSaveWithNothingBuffered(t *testing.T) {
	m := newTestModel(t)

	m, cmd := applyUpdate(m, runes(KeySave))
	if m.saving {
		t.Error("should not save an empty transcript")
	}
	if m.errorMessage == "" || cmd == nil {
		t.Error("expected a transient notice")
	}
}

func TestSegmentsDuringSaveStayBuffered(t *testing.T) {
	m := newTestModel(t)
	segment(&m, 1, "first")

	m, cmd := applyUpdate(m, runes(KeySave))
	// The save is in flight when the next segment lands.
	segment(&m, 2, "arrived while saving")
	m, cmd = step(t, m, cmd) // ConversationSavedMsg

	if got := m.Phrases(); !slices.Equal(got, []string{"arrived while saving"}) {
		t.Errorf("buffer after save = %q, want the segment that arrived while saving", got)
	}
	m = run(t, m, cmd) // HistoryLoadedMsg
	if len(m.history) != 1 || !slices.Equal(m.history[0].Phrases, []string{"first"}) {
		t.Errorf("history = %+v, want one conversation with only the first segment", m.history)
	}

	// The leftover segment is saved by the next save.
	m, cmd = applyUpdate(m, runes(KeySave))
	m, cmd = step(t, m, cmd)
	if len(m.entries) != 0 {
		t.Errorf("entries = %d after second save, want 0", len(m.entries))
	}
	m = run(t, m, cmd)
	if len(m.history) != 2 || !slices.Equal(m.history[0].Phrases, []string{"arrived while saving"}) {
		t.Errorf("history = %+v, want the second save on top", m.history)
	}
}

func TestScrollReachesEndOfWrappedConversation(t *testing.T) {
	m := newTestModel(t)
	phrase := strings.Repeat("word ", 2000) + "END"
	m.viewing = &db.Conversation{ID: 1, Name: "long", Date: time.Now(), Phrases: []string{phrase}}
	m.focusedPanel = FocusTranscript
	m.transcriptLive = false

	body := len(m.savedLines(m.transcriptPanelWidth()))
	visible := m.transcriptVisibleLines() - 1
	if body <= visible {
		t.Fatalf("body = %d lines, want more than %d visible", body, visible)
	}
	if strings.Contains(m.View(), "END") {
		t.Fatal("end of the phrase should start off screen")
	}

	for range 500 {
		m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyDown})
	}
	if want := body - visible; m.transcriptScroll != want {
		t.Errorf("transcriptScroll = %d, want %d", m.transcriptScroll, want)
	}
	if !strings.Contains(m.View(), "END") {
		t.Error("scrolled to the bottom, the end of the phrase should be visible")
	}
}

func TestSaveFailureKeepsBuffer(t *testing.T) {
	m := New(failingStore{err: fmt.Errorf("%w: disk full", db.ErrWrite)}, "", "en_US")
	m.width, m.height = 100, 30
	segment(&m, 1, "keep me")

	m, cmd := applyUpdate(m, runes(KeySave))
	m = run(t, m, cmd)

	if m.saving {
		t.Error("saving flag should reset after failure")
	}
	if len(m.entries) != 1 {
		t.Errorf("entries = %d, want buffer kept after failed save", len(m.entries))
	}
	if !strings.HasPrefix(m.errorMessage, "failed to save") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestListFailureIsNotEmptyHistory(t *testing.T) {
	m := New(failingStore{err: fmt.Errorf("conversation 3: %w: bad json", db.ErrDecode)}, "", "en_US")
	m.width, m.height = 100, 30

	m = run(t, m, loadHistoryCmd(m.store))
	if m.historyLoaded {
		t.Error("history should not be marked loaded after a failed list")
	}
	if !strings.Contains(m.errorMessage, "failed to load history") || !strings.Contains(m.errorMessage, "corrupted") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
	if strings.Contains(m.View(), "No conversations yet") {
		t.Error("a failed load must not render as an empty history")
	}
}

func TestInitFailureIsSticky(t *testing.T) {
	m := New(failingStore{err: errors.New("cannot open")}, "", "en_US")

	m = run(t, m, initStoreCmd(m.store))
	if m.errorTransient {
		t.Error("init failure should not auto-clear")
	}
	if !strings.HasPrefix(m.errorMessage, "failed to open history") {
		t.Errorf("errorMessage = %q", m.errorMessage)
	}
}

func TestOpenedMissingConversation(t *testing.T) {
	m := newTestModel(t)

	m, cmd := applyUpdate(m, ConversationOpenedMsg{ID: 9, Conversation: nil})
	if m.viewing != nil {
		t.Error("should not view a missing conversation")
	}
	if m.errorMessage == "" || cmd == nil {
		t.Error("expected a notice and a history reload")
	}
}

func TestEscLeavesSavedView(t *testing.T) {
	m := newTestModel(t)
	m.viewing = &db.Conversation{ID: 1, Name: "x", Phrases: []string{"a"}}
	m.transcriptLive = false

	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.viewing != nil {
		t.Error("esc should close the saved view")
	}
	if !m.transcriptLive {
		t.Error("esc should return to the live transcript")
	}
}

func TestTabTogglesFocus(t *testing.T) {
	m := newTestModel(t)

	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedPanel != FocusHistory {
		t.Error("tab should switch to history")
	}
	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focusedPanel != FocusTranscript {
		t.Error("tab again should switch back to transcript")
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := newTestModel(t)
	m.focusedPanel = FocusHistory
	m, _ = applyUpdate(m, HistoryLoadedMsg{Conversations: []db.Conversation{
		{ID: 3, Name: "C", Date: time.Now()},
		{ID: 2, Name: "B", Date: time.Now()},
		{ID: 1, Name: "A", Date: time.Now()},
	}})

	m, _ = applyUpdate(m, runes(KeyJ))
	m, _ = applyUpdate(m, runes(KeyJ))
	m, _ = applyUpdate(m, runes(KeyJ))
	if m.selected != 2 {
		t.Errorf("selected = %d, want 2 (clamped)", m.selected)
	}
	m, _ = applyUpdate(m, runes(KeyK))
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	// A shorter reload clamps the selection.
	m, _ = applyUpdate(m, HistoryLoadedMsg{Conversations: []db.Conversation{{ID: 3, Name: "C"}}})
	if m.selected != 0 {
		t.Errorf("selected = %d after reload, want 0", m.selected)
	}
}

func TestConversationName(t *testing.T) {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		phrases []string
		want    string
	}{
		{[]string{"hello there"}, "hello there"},
		{[]string{"", "  ", "second\nline"}, "second line"},
		{[]string{strings.Repeat("я", 50)}, strings.Repeat("я", 39) + "…"},
		{[]string{"", " "}, "Note 2026-10-14 09:30"},
	}
	for _, tt := range tests {
		if got := conversationName(tt.phrases, now); got != tt.want {
			t.Errorf("conversationName(%q) = %q, want %q", tt.phrases, got, tt.want)
		}
	}
}

func TestViewRendersWithSize(t *testing.T) {
	m := newTestModel(t)

	view := m.View()
	if view == "" || view == "Initializing..." {
		t.Errorf("view = %q", view)
	}
	if !strings.Contains(view, "HISTORY") || !strings.Contains(view, "TRANSCRIPT") {
		t.Error("view should show both panels")
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := New(failingStore{}, "", "en_US")
	if view := m.View(); view != "Initializing..." {
		t.Errorf("view without size = %q, want 'Initializing...'", view)
	}
}
