package session

import (
	"sync"

	"github.com/hwbot/partswatch/internal/core/domain"
)

// Command is one of the mutually exclusive chat commands.
type Command string

const (
	CommandNone    Command = ""
	CommandLow     Command = "low"
	CommandHigh    Command = "high"
	CommandCustom  Command = "custom"
	CommandHistory Command = "history"
)

// Session is the in-flight state of one conversation: the selected
// command, the selected category, the active price range and the paging
// position. Each chat gets its own Session so concurrent conversations
// cannot corrupt each other's multi-step command.
type Session struct {
	ChatID    int64
	Command   Command
	Category  domain.Category
	PriceFrom int64
	PriceUpTo int64
	Offset    int
	HistoryID string
}

// Reset clears everything but the chat identity.
func (s *Session) Reset() {
	s.Command = CommandNone
	s.Category = ""
	s.PriceFrom = 0
	s.PriceUpTo = 0
	s.Offset = 0
	s.HistoryID = ""
}

// Manager owns the per-chat sessions. The dispatcher is the only writer.
type Manager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[int64]*Session)}
}

// Get returns the session for a chat, creating it on first contact.
func (m *Manager) Get(chatID int64) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[chatID]
	if !ok {
		s = &Session{ChatID: chatID}
		m.sessions[chatID] = s
	}
	return s
}

// Drop removes a chat's session entirely (the stop command).
func (m *Manager) Drop(chatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, chatID)
}
