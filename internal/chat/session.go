package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vchirila/billchat/internal/common"
	"github.com/vchirila/billchat/internal/entity"
	"github.com/vchirila/billchat/internal/llm"
)

// Greeting opens every new conversation.
const Greeting = "Cu ce te pot ajuta?"

// Session is one user's live conversation. Sessions are process-local and
// not persisted; restarting the server starts conversations over. mu
// serializes turns, so a slow completion blocks only this session.
type Session struct {
	mu              sync.Mutex
	ID              string
	UserID          string
	Messages        []llm.Message
	ContextInjected bool
	Questions       int
	Usage           llm.Usage
	CreatedAt       time.Time
}

// Sessions tracks live conversations by session ID. Its mutex guards only
// the table; each Session carries its own turn lock.
type Sessions struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessions returns an empty session table.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session)}
}

// Start opens a conversation for a user and seeds it with the greeting.
func (s *Sessions) Start(userID string) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		UserID:    entity.NormalizeUserID(userID),
		Messages:  []llm.Message{{Role: llm.RoleAssistant, Content: Greeting}},
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the session for an ID.
func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, common.NewAppError("SESSION_NOT_FOUND", "no session with that id", common.ErrNotFound)
	}
	return sess, nil
}

// Drop forgets a session. Dropping an unknown ID is a no-op.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
