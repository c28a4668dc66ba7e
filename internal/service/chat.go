package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nova-hq/nova/internal/config"
	"github.com/nova-hq/nova/internal/domain"
)

// SessionStore is the remote-table surface the chat service writes through.
// Implemented by repository.SessionRepo.
type SessionStore interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Session, error)
	Create(ctx context.Context, userID uuid.UUID, title, model string, temperature decimal.Decimal) (*domain.Session, error)
	Rename(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Touch(ctx context.Context, id uuid.UUID) (time.Time, error)
	InsertMessage(ctx context.Context, sessionID uuid.UUID, role, content string) (*domain.Message, error)
}

// Completer issues one completion request per assistant turn.
type Completer interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}

// Notifier surfaces transient success/failure notices to the user.
type Notifier interface {
	Success(userID uuid.UUID, text string)
	Error(userID uuid.UUID, text string)
}

// ChatService owns the per-user session list and active-session pointer.
// Local state mutates only after the corresponding remote write succeeded;
// there is no optimistic append.
type ChatService struct {
	repo     SessionStore
	ai       Completer
	notifier Notifier
	model    string

	mu     sync.Mutex
	states map[uuid.UUID]*chatState
}

type chatState struct {
	sessions []domain.Session // most recently updated first
	activeID uuid.UUID
	busy     bool // one in-flight exchange per user
}

// Exchange is the result of one completed user turn.
type Exchange struct {
	UserMessage      *domain.Message `json:"user_message"`
	AssistantMessage *domain.Message `json:"assistant_message"`
}

// Message exchange phases. A user send walks user write -> completion ->
// assistant write and back to idle; there is no recursion.
type exchangePhase int

const (
	phaseIdle exchangePhase = iota
	phaseAwaitingUserWrite
	phaseAwaitingCompletion
	phaseAwaitingAssistantWrite
)

func NewChatService(repo SessionStore, ai Completer, notifier Notifier, model string) *ChatService {
	return &ChatService{
		repo:     repo,
		ai:       ai,
		notifier: notifier,
		model:    model,
		states:   make(map[uuid.UUID]*chatState),
	}
}

// state returns the user's state, creating it if needed. Callers must hold s.mu.
func (s *ChatService) state(userID uuid.UUID) *chatState {
	st, ok := s.states[userID]
	if !ok {
		st = &chatState{}
		s.states[userID] = st
	}
	return st
}

// LoadSessions hydrates the user's session list from the remote store,
// most recently updated first. On failure the in-memory list is left
// unchanged. If no session is active after a successful load, the first
// one becomes active.
func (s *ChatService) LoadSessions(ctx context.Context, userID uuid.UUID) ([]domain.Session, error) {
	sessions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		slog.Error("load sessions", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to load chats")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteFetch, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	st.sessions = sessions
	if findSession(st.sessions, st.activeID) == nil {
		st.activeID = uuid.Nil
		if len(st.sessions) > 0 {
			st.activeID = st.sessions[0].ID
		}
	}
	return copySessions(st.sessions), nil
}

// CreateSession inserts a new session with the default title and prepends
// it to the in-memory list. The caller decides whether to activate it.
func (s *ChatService) CreateSession(ctx context.Context, userID uuid.UUID) (*domain.Session, error) {
	sess, err := s.repo.Create(ctx, userID, config.DefaultSessionTitle, s.model,
		decimal.NewFromFloat(config.DefaultTemperature))
	if err != nil {
		slog.Error("create session", "error", err, "user_id", userID)
		s.notifier.Error(userID, "Failed to create new chat")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	s.mu.Lock()
	st := s.state(userID)
	st.sessions = append([]domain.Session{*sess}, st.sessions...)
	s.mu.Unlock()

	out := *sess
	return &out, nil
}

// RenameSession updates the title remotely, then in the matching in-memory
// entry. Titles are accepted as-is, blank included. A rename racing a
// delete surfaces as a remote error.
func (s *ChatService) RenameSession(ctx context.Context, userID, id uuid.UUID, title string) error {
	if err := s.repo.Rename(ctx, id, title); err != nil {
		slog.Error("rename session", "error", err, "session_id", id)
		s.notifier.Error(userID, "Failed to rename chat")
		return fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	s.mu.Lock()
	st := s.state(userID)
	if sess := findSession(st.sessions, id); sess != nil {
		sess.Title = title
	}
	s.mu.Unlock()

	s.notifier.Success(userID, "Chat renamed successfully")
	return nil
}

// DeleteSession deletes remotely, then removes the in-memory entry. If the
// deleted session was active, the first remaining session becomes active,
// or none if the list is empty.
func (s *ChatService) DeleteSession(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		slog.Error("delete session", "error", err, "session_id", id)
		s.notifier.Error(userID, "Failed to delete chat")
		return fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	s.mu.Lock()
	st := s.state(userID)
	for i := range st.sessions {
		if st.sessions[i].ID == id {
			st.sessions = append(st.sessions[:i], st.sessions[i+1:]...)
			break
		}
	}
	if st.activeID == id {
		st.activeID = uuid.Nil
		if len(st.sessions) > 0 {
			st.activeID = st.sessions[0].ID
		}
	}
	s.mu.Unlock()

	s.notifier.Success(userID, "Chat deleted successfully")
	return nil
}

// SetActive switches the active session pointer.
func (s *ChatService) SetActive(userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state(userID)
	if findSession(st.sessions, id) == nil {
		return domain.ErrSessionNotFound
	}
	st.activeID = id
	return nil
}

// Sessions returns a copy of the in-memory session list.
func (s *ChatService) Sessions(userID uuid.UUID) []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySessions(s.state(userID).sessions)
}

// ActiveID returns the active session id, or uuid.Nil if none.
func (s *ChatService) ActiveID(userID uuid.UUID) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state(userID).activeID
}

// SendMessage runs one message exchange against the session that is active
// at the time of the call. The session id is captured up front and every
// write in the chain is bound to it, so switching the active session while
// a completion is in flight cannot misattribute the reply.
func (s *ChatService) SendMessage(ctx context.Context, userID uuid.UUID, content string) (*Exchange, error) {
	if strings.TrimSpace(content) == "" {
		return nil, domain.ErrEmptyMessage
	}

	s.mu.Lock()
	st := s.state(userID)
	if st.activeID == uuid.Nil {
		s.mu.Unlock()
		return nil, domain.ErrNoActiveSession
	}
	if st.busy {
		s.mu.Unlock()
		return nil, domain.ErrActiveRequest
	}
	st.busy = true
	sessionID := st.activeID
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		st.busy = false
		s.mu.Unlock()
	}()

	ex := &Exchange{}
	var history []ChatMessage

	for phase := phaseAwaitingUserWrite; phase != phaseIdle; {
		switch phase {
		case phaseAwaitingUserWrite:
			msg, err := s.appendMessage(ctx, userID, sessionID, domain.RoleUser, content)
			if err != nil {
				return nil, err
			}
			ex.UserMessage = msg
			history = s.sessionHistory(userID, sessionID)
			phase = phaseAwaitingCompletion

		case phaseAwaitingCompletion:
			messages := make([]ChatMessage, 0, len(history)+1)
			messages = append(messages, ChatMessage{Role: "system", Content: config.PersonaPreamble})
			messages = append(messages, history...)

			reply, err := s.ai.Complete(ctx, messages)
			if err != nil {
				slog.Error("completion request", "error", err, "session_id", sessionID)
				s.notifier.Error(userID, "Failed to process message")
				return nil, fmt.Errorf("%w: %w", domain.ErrCompletion, err)
			}
			content = reply
			phase = phaseAwaitingAssistantWrite

		case phaseAwaitingAssistantWrite:
			msg, err := s.appendMessage(ctx, userID, sessionID, domain.RoleAssistant, content)
			if err != nil {
				return nil, err
			}
			ex.AssistantMessage = msg
			phase = phaseIdle
		}
	}

	return ex, nil
}

// appendMessage persists one message, then reflects it in the in-memory
// session list. The local append happens only after the remote write
// succeeded.
func (s *ChatService) appendMessage(ctx context.Context, userID, sessionID uuid.UUID, role, content string) (*domain.Message, error) {
	msg, err := s.repo.InsertMessage(ctx, sessionID, role, content)
	if err != nil {
		slog.Error("insert message", "error", err, "session_id", sessionID, "role", role)
		s.notifier.Error(userID, "Failed to process message")
		return nil, fmt.Errorf("%w: %w", domain.ErrRemoteWrite, err)
	}

	updatedAt, err := s.repo.Touch(ctx, sessionID)
	if err != nil {
		// Not fatal: the message row exists, only the bump is lost.
		slog.Error("touch session", "error", err, "session_id", sessionID)
		updatedAt = msg.CreatedAt
	}

	s.mu.Lock()
	st := s.state(userID)
	if sess := findSession(st.sessions, sessionID); sess != nil {
		sess.Messages = append(sess.Messages, *msg)
		sess.UpdatedAt = updatedAt
		moveToFront(st.sessions, sessionID)
	}
	s.mu.Unlock()

	return msg, nil
}

// sessionHistory returns the role/content pairs of a session's messages.
func (s *ChatService) sessionHistory(userID, sessionID uuid.UUID) []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := findSession(s.state(userID).sessions, sessionID)
	if sess == nil {
		return nil
	}
	history := make([]ChatMessage, 0, len(sess.Messages))
	for _, m := range sess.Messages {
		history = append(history, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return history
}

func findSession(sessions []domain.Session, id uuid.UUID) *domain.Session {
	if id == uuid.Nil {
		return nil
	}
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i]
		}
	}
	return nil
}

func moveToFront(sessions []domain.Session, id uuid.UUID) {
	for i := range sessions {
		if sessions[i].ID == id {
			if i > 0 {
				sess := sessions[i]
				copy(sessions[1:i+1], sessions[:i])
				sessions[0] = sess
			}
			return
		}
	}
}

func copySessions(sessions []domain.Session) []domain.Session {
	out := make([]domain.Session, len(sessions))
	copy(out, sessions)
	for i := range out {
		msgs := make([]domain.Message, len(sessions[i].Messages))
		copy(msgs, sessions[i].Messages)
		out[i].Messages = msgs
	}
	return out
}
