package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jwulff/steno/notes/internal/daemon"
	"github.com/jwulff/steno/notes/internal/db"

	tea "github.com/charmbracelet/bubbletea"
)

// PanelFocus tracks which panel has keyboard focus.
type PanelFocus int

const (
	FocusHistory PanelFocus = iota
	FocusTranscript
)

// Store operations named in StoreErrorMsg.
const (
	opInit   = "open history"
	opList   = "load history"
	opSave   = "save"
	opOpen   = "open conversation"
	opDelete = "delete"
)

// HistoryStore is the conversation persistence the TUI depends on.
type HistoryStore interface {
	Initialize(ctx context.Context) error
	Create(ctx context.Context, name string, phrases []string) (db.Conversation, error)
	List(ctx context.Context) ([]db.Conversation, error)
	Get(ctx context.Context, id int64) (*db.Conversation, error)
	Delete(ctx context.Context, id int64) error
}

// TranscriptEntry is a finalized transcript line for display.
type TranscriptEntry struct {
	Text      string
	Timestamp time.Time
	SeqNum    int
}

// Model is the root bubbletea model for the steno notes TUI.
type Model struct {
	// Connection state
	socketPath string
	locale     string
	client     *daemon.Client // command connection
	evClient   *daemon.Client // event subscription connection
	connected  bool
	connError  string

	// Recording state
	recording bool
	sessionID string

	// Unsaved transcript buffer
	entries     []TranscriptEntry
	partialText string

	// History
	store         HistoryStore
	history       []db.Conversation
	historyLoaded bool
	selected      int
	viewing       *db.Conversation
	saving        bool

	// UI state
	focusedPanel     PanelFocus
	width            int
	height           int
	transcriptScroll int
	transcriptLive   bool

	// Errors
	errorMessage   string
	errorTransient bool

	// Status
	statusText string

	// Reconnect
	reconnecting     bool
	reconnectAttempt int
}

// New creates a Model that records through the daemon at socketPath and
// saves into store. locale is passed to the daemon's start command.
func New(store HistoryStore, socketPath, locale string) Model {
	return Model{
		store:          store,
		socketPath:     socketPath,
		locale:         locale,
		statusText:     "Connecting to steno-daemon...",
		transcriptLive: true,
		focusedPanel:   FocusTranscript,
	}
}

// Init connects to the daemon and loads history.
func (m Model) Init() tea.Cmd {
	return tea.Batch(connectCmd(m.socketPath), initStoreCmd(m.store))
}

// Phrases returns the unsaved transcript in utterance order.
func (m Model) Phrases() []string {
	phrases := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		phrases = append(phrases, e.Text)
	}
	return phrases
}

// connectCmd attempts to connect to the daemon with two connections:
// one for commands, one for event subscription.
func connectCmd(sockPath string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client, err := daemon.Connect(ctx, sockPath)
		if err != nil {
			return DaemonConnectErrorMsg{Err: err}
		}
		evClient, err := daemon.Connect(ctx, sockPath)
		if err != nil {
			client.Close()
			return DaemonConnectErrorMsg{Err: err}
		}
		return DaemonConnectedMsg{Client: client, EvClient: evClient}
	}
}

// subscribeCmd subscribes on the event client and starts reading events.
func subscribeCmd(evClient *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		if err := evClient.Subscribe(); err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return readEventCmd(evClient)()
	}
}

// readEventCmd reads the next event from the event client.
func readEventCmd(evClient *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		ev, err := evClient.ReadEvent()
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return DaemonEventMsg{Event: ev}
	}
}

// statusCmd fetches daemon status.
func statusCmd(client *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStatus})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return StatusResponseMsg{Response: resp}
	}
}

// startCmd sends a start recording command.
func startCmd(client *daemon.Client, locale string) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStart, Locale: locale})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return StartResponseMsg{Response: resp}
	}
}

// stopCmd sends a stop recording command.
func stopCmd(client *daemon.Client) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.SendCommand(daemon.Command{Cmd: daemon.CmdStop})
		if err != nil {
			return DaemonEventErrorMsg{Err: err}
		}
		return StopResponseMsg{Response: resp}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// reconnectCmd schedules a reconnection attempt with exponential backoff.
func reconnectCmd(attempt int) tea.Cmd {
	delay := time.Duration(1<<min(attempt, 4)) * time.Second // 1s, 2s, 4s, 8s, 16s cap
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ReconnectTickMsg{}
	})
}

// initStoreCmd prepares the store and loads the first history page.
func initStoreCmd(store HistoryStore) tea.Cmd {
	return func() tea.Msg {
		if err := store.Initialize(context.Background()); err != nil {
			return StoreErrorMsg{Op: opInit, Err: err}
		}
		return loadHistoryCmd(store)()
	}
}

// loadHistoryCmd lists the recent conversations.
func loadHistoryCmd(store HistoryStore) tea.Cmd {
	return func() tea.Msg {
		convs, err := store.List(context.Background())
		if err != nil {
			return StoreErrorMsg{Op: opList, Err: err}
		}
		return HistoryLoadedMsg{Conversations: convs}
	}
}

// saveCmd stores the transcript buffer as a new conversation.
func saveCmd(store HistoryStore, name string, phrases []string) tea.Cmd {
	return func() tea.Msg {
		conv, err := store.Create(context.Background(), name, phrases)
		if err != nil {
			return StoreErrorMsg{Op: opSave, Err: err}
		}
		return ConversationSavedMsg{Conversation: conv, Saved: len(phrases)}
	}
}

// openCmd loads one conversation by ID.
func openCmd(store HistoryStore, id int64) tea.Cmd {
	return func() tea.Msg {
		conv, err := store.Get(context.Background(), id)
		if err != nil {
			return StoreErrorMsg{Op: opOpen, Err: err}
		}
		return ConversationOpenedMsg{ID: id, Conversation: conv}
	}
}

// deleteCmd deletes one conversation by ID.
func deleteCmd(store HistoryStore, id int64) tea.Cmd {
	return func() tea.Msg {
		if err := store.Delete(context.Background(), id); err != nil {
			return StoreErrorMsg{Op: opDelete, Err: err}
		}
		return ConversationDeletedMsg{ID: id}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case DaemonConnectedMsg:
		m.client = msg.Client
		m.evClient = msg.EvClient
		m.connected = true
		m.connError = ""
		m.reconnecting = false
		m.reconnectAttempt = 0
		m.statusText = "Connected"
		return m, tea.Batch(
			subscribeCmd(m.evClient),
			statusCmd(m.client),
		)

	case DaemonConnectErrorMsg:
		m.connected = false
		m.connError = msg.Err.Error()
		m.reconnecting = true
		m.statusText = "Daemon not running. Reconnecting..."
		return m, reconnectCmd(m.reconnectAttempt)

	case StatusResponseMsg:
		r := msg.Response
		if r.Recording != nil {
			m.recording = *r.Recording
		}
		if r.SessionID != "" {
			m.sessionID = r.SessionID
		}
		if r.Status != "" {
			m.statusText = r.Status
		}
		return m, nil

	case StartResponseMsg:
		r := msg.Response
		if !r.OK {
			cmd := m.setError(r.Error, true)
			return m, cmd
		}
		m.recording = true
		if r.SessionID != "" {
			m.sessionID = r.SessionID
		}
		m.statusText = "Recording"
		return m, nil

	case StopResponseMsg:
		r := msg.Response
		if !r.OK {
			cmd := m.setError(r.Error, false)
			return m, cmd
		}
		m.recording = false
		m.partialText = ""
		m.statusText = "Idle"
		return m, nil

	case DaemonEventMsg:
		cmd := m.handleEvent(msg.Event)
		// Continue reading events on event client
		return m, tea.Batch(cmd, readEventCmd(m.evClient))

	case DaemonEventErrorMsg:
		m.connected = false
		m.recording = false
		m.partialText = ""
		m.connError = msg.Err.Error()
		m.statusText = "Disconnected. Reconnecting..."
		m.reconnecting = true
		m.closeClients()
		return m, reconnectCmd(m.reconnectAttempt)

	case ReconnectTickMsg:
		m.reconnectAttempt++
		return m, connectCmd(m.socketPath)

	case HistoryLoadedMsg:
		m.history = msg.Conversations
		m.historyLoaded = true
		if m.selected >= len(m.history) {
			m.selected = max(0, len(m.history)-1)
		}
		return m, nil

	case ConversationSavedMsg:
		m.saving = false
		// Segments that arrived while saving stay buffered.
		n := min(msg.Saved, len(m.entries))
		m.entries = slices.Clone(m.entries[n:])
		if m.viewing == nil {
			m.scrollToBottom()
		}
		m.selected = 0
		m.statusText = fmt.Sprintf("Saved %q", msg.Conversation.Name)
		return m, loadHistoryCmd(m.store)

	case ConversationOpenedMsg:
		if msg.Conversation == nil {
			// Deleted elsewhere since the list was loaded.
			cmd := m.setError("conversation no longer exists", true)
			return m, tea.Batch(cmd, loadHistoryCmd(m.store))
		}
		m.viewing = msg.Conversation
		m.focusedPanel = FocusTranscript
		m.transcriptLive = false
		m.transcriptScroll = 0
		return m, nil

	case ConversationDeletedMsg:
		if m.viewing != nil && m.viewing.ID == msg.ID {
			m.closeViewing()
		}
		m.statusText = "Deleted"
		return m, loadHistoryCmd(m.store)

	case StoreErrorMsg:
		if msg.Op == opSave {
			m.saving = false
		}
		cmd := m.setError(storeErrorText(msg.Op, msg.Err), msg.Op != opInit)
		return m, cmd

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// handleEvent processes a daemon event and returns any resulting command.
func (m *Model) handleEvent(ev daemon.Event) tea.Cmd {
	switch ev.Event {
	case daemon.EventPartial:
		m.partialText = ev.Text

	case daemon.EventSegment:
		entry := TranscriptEntry{
			Text:      ev.Text,
			Timestamp: time.Now(),
		}
		if ev.SequenceNumber != nil {
			entry.SeqNum = *ev.SequenceNumber
		}
		m.entries = append(m.entries, entry)
		m.partialText = ""
		if m.transcriptLive && m.viewing == nil {
			m.scrollToBottom()
		}

	case daemon.EventStatus:
		if ev.Recording != nil {
			m.recording = *ev.Recording
			if m.recording {
				m.statusText = "Recording"
			} else {
				m.statusText = "Idle"
				m.partialText = ""
			}
		}

	case daemon.EventError:
		return m.setError(ev.Message, ev.Transient != nil && *ev.Transient)
	}

	return nil
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.closeClients()
		return m, tea.Quit

	case KeySpace:
		if !m.connected {
			return m, nil
		}
		if m.recording {
			return m, stopCmd(m.client)
		}
		return m, startCmd(m.client, m.locale)

	case KeySave:
		if m.saving {
			return m, nil
		}
		phrases := m.Phrases()
		if len(phrases) == 0 {
			cmd := m.setError("nothing to save yet", true)
			return m, cmd
		}
		m.saving = true
		m.statusText = "Saving..."
		return m, saveCmd(m.store, conversationName(phrases, time.Now()), phrases)

	case KeyTab:
		if m.focusedPanel == FocusHistory {
			m.focusedPanel = FocusTranscript
		} else {
			m.focusedPanel = FocusHistory
		}
		return m, nil

	case KeyJ:
		if m.focusedPanel == FocusHistory && m.selected < len(m.history)-1 {
			m.selected++
		}
		return m, nil

	case KeyK:
		if m.focusedPanel == FocusHistory && m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyEnter:
		if c, ok := m.selectedConversation(); ok && m.focusedPanel == FocusHistory {
			return m, openCmd(m.store, c.ID)
		}
		return m, nil

	case KeyDelete:
		if c, ok := m.selectedConversation(); ok && m.focusedPanel == FocusHistory {
			return m, deleteCmd(m.store, c.ID)
		}
		return m, nil

	case KeyEsc:
		if m.viewing != nil {
			m.closeViewing()
		}
		return m, nil

	case KeyUp:
		if m.focusedPanel == FocusTranscript {
			m.transcriptLive = false
			if m.transcriptScroll > 0 {
				m.transcriptScroll--
			}
		}
		return m, nil

	case KeyDown:
		if m.focusedPanel == FocusTranscript {
			maxScroll := m.maxTranscriptScroll()
			m.transcriptScroll++
			if m.transcriptScroll >= maxScroll {
				m.transcriptScroll = maxScroll
				m.transcriptLive = m.viewing == nil
			}
		}
		return m, nil
	}

	return m, nil
}

func (m Model) selectedConversation() (db.Conversation, bool) {
	if m.selected < 0 || m.selected >= len(m.history) {
		return db.Conversation{}, false
	}
	return m.history[m.selected], true
}

func (m *Model) closeViewing() {
	m.viewing = nil
	m.transcriptLive = true
	m.scrollToBottom()
}

func (m *Model) closeClients() {
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	if m.evClient != nil {
		m.evClient.Close()
		m.evClient = nil
	}
}

// setError shows message in the error bar. Transient errors clear
// themselves after a few seconds.
func (m *Model) setError(message string, transient bool) tea.Cmd {
	m.errorMessage = message
	m.errorTransient = transient
	if transient {
		return clearTransientErrorCmd()
	}
	return nil
}

func (m *Model) scrollToBottom() {
	m.transcriptScroll = m.maxTranscriptScroll()
}

// maxTranscriptScroll counts rendered lines, after wrapping, so long
// phrases can be scrolled to their end.
func (m Model) maxTranscriptScroll() int {
	width := m.transcriptPanelWidth()
	var totalLines int
	if m.viewing != nil {
		totalLines = len(m.savedLines(width))
	} else {
		totalLines = len(m.liveLines(width))
	}
	visible := m.transcriptVisibleLines() - 1 // header
	if totalLines <= visible {
		return 0
	}
	return totalLines - visible
}

// storeErrorText words a store failure for the error bar.
func storeErrorText(op string, err error) string {
	text := fmt.Sprintf("failed to %s: %v", op, err)
	if errors.Is(err, db.ErrDecode) {
		text += " (stored data is corrupted)"
	}
	return text
}

// conversationName derives a name from the first non-blank phrase, or from
// the time when every phrase is blank.
func conversationName(phrases []string, now time.Time) string {
	const maxRunes = 40
	for _, p := range phrases {
		name := strings.Join(strings.Fields(p), " ")
		if name == "" {
			continue
		}
		runes := []rune(name)
		if len(runes) > maxRunes {
			name = string(runes[:maxRunes-1]) + "…"
		}
		return name
	}
	return "Note " + now.Format("2006-01-02 15:04")
}
