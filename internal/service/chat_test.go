package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-hq/nova/internal/config"
	"github.com/nova-hq/nova/internal/domain"
)

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
	seq      int
	clock    time.Time

	listErr   error
	createErr error
	renameErr error
	deleteErr error
	insertErr error

	listCalls   int
	insertCalls int
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[uuid.UUID]*domain.Session),
		clock:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeSessionStore) tick() time.Time {
	f.seq++
	return f.clock.Add(time.Duration(f.seq) * time.Second)
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []domain.Session
	for _, s := range f.sessions {
		if s.UserID != userID {
			continue
		}
		cp := *s
		cp.Messages = append([]domain.Message(nil), s.Messages...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeSessionStore) Create(_ context.Context, userID uuid.UUID, title, model string, temperature decimal.Decimal) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}

	now := f.tick()
	s := &domain.Session{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Model:       model,
		Temperature: temperature.InexactFloat64(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Messages:    []domain.Message{},
	}
	f.sessions[s.ID] = s
	cp := *s
	return &cp, nil
}

func (f *fakeSessionStore) Rename(_ context.Context, id uuid.UUID, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		return f.renameErr
	}
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.Title = title
	s.UpdatedAt = f.tick()
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(f.sessions, id)
	return nil
}

func (f *fakeSessionStore) Touch(_ context.Context, id uuid.UUID) (time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return time.Time{}, domain.ErrSessionNotFound
	}
	s.UpdatedAt = f.tick()
	return s.UpdatedAt, nil
}

func (f *fakeSessionStore) InsertMessage(_ context.Context, sessionID uuid.UUID, role, content string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.insertCalls++
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	m := domain.Message{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: f.tick(),
	}
	s.Messages = append(s.Messages, m)
	return &m, nil
}

func (f *fakeSessionStore) messages(id uuid.UUID) []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.sessions[id]; ok {
		return append([]domain.Message(nil), s.Messages...)
	}
	return nil
}

type fakeCompleter struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, messages []ChatMessage) (string, error)
	calls [][]ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]ChatMessage(nil), messages...))
	fn := f.fn
	f.mu.Unlock()
	if fn == nil {
		return "ack", nil
	}
	return fn(ctx, messages)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []string
}

func (f *fakeNotifier) Success(_ uuid.UUID, text string) { f.record("success: " + text) }
func (f *fakeNotifier) Error(_ uuid.UUID, text string)   { f.record("error: " + text) }

func (f *fakeNotifier) record(s string) {
	f.mu.Lock()
	f.notices = append(f.notices, s)
	f.mu.Unlock()
}

func (f *fakeNotifier) all() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.notices...)
}

func newTestChat(t *testing.T) (*ChatService, *fakeSessionStore, *fakeCompleter, *fakeNotifier, uuid.UUID) {
	t.Helper()
	store := newFakeSessionStore()
	ai := &fakeCompleter{}
	notifier := &fakeNotifier{}
	svc := NewChatService(store, ai, notifier, "gpt-4")
	return svc, store, ai, notifier, uuid.New()
}

func TestLoadSessionsActivatesFirst(t *testing.T) {
	svc, store, _, _, userID := newTestChat(t)
	ctx := context.Background()

	older, err := store.Create(ctx, userID, "older", "gpt-4", decimal.NewFromInt(1))
	require.NoError(t, err)
	newer, err := store.Create(ctx, userID, "newer", "gpt-4", decimal.NewFromInt(1))
	require.NoError(t, err)

	sessions, err := svc.LoadSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	// Most recently updated first, and the first becomes active.
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Equal(t, older.ID, sessions[1].ID)
	assert.Equal(t, newer.ID, svc.ActiveID(userID))
}

func TestLoadSessionsMirrorsRemoteMessages(t *testing.T) {
	svc, store, _, _, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := store.Create(ctx, userID, "chat", "gpt-4", decimal.NewFromInt(1))
	require.NoError(t, err)
	_, err = store.InsertMessage(ctx, sess.ID, domain.RoleUser, "first")
	require.NoError(t, err)
	_, err = store.InsertMessage(ctx, sess.ID, domain.RoleAssistant, "second")
	require.NoError(t, err)

	sessions, err := svc.LoadSessions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Len(t, sessions[0].Messages, 2)
	assert.Equal(t, "first", sessions[0].Messages[0].Content)
	assert.Equal(t, "second", sessions[0].Messages[1].Content)
	assert.True(t, sessions[0].Messages[0].CreatedAt.Before(sessions[0].Messages[1].CreatedAt))
}

func TestLoadSessionsFailureLeavesStateUnchanged(t *testing.T) {
	svc, store, _, notifier, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, sess.ID))

	store.listErr = errors.New("boom")
	_, err = svc.LoadSessions(ctx, userID)
	require.ErrorIs(t, err, domain.ErrRemoteFetch)

	// In-memory list is not cleared on failure.
	assert.Len(t, svc.Sessions(userID), 1)
	assert.Equal(t, sess.ID, svc.ActiveID(userID))
	assert.Contains(t, notifier.all(), "error: Failed to load chats")
}

func TestCreateSessionPrepends(t *testing.T) {
	svc, _, _, _, userID := newTestChat(t)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultSessionTitle, first.Title)

	second, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)

	sessions := svc.Sessions(userID)
	require.Len(t, sessions, 2)
	assert.Equal(t, second.ID, sessions[0].ID)
	assert.Equal(t, first.ID, sessions[1].ID)

	// Creation does not activate; the caller decides.
	assert.Equal(t, uuid.Nil, svc.ActiveID(userID))
}

func TestCreateSessionFailure(t *testing.T) {
	svc, store, _, notifier, userID := newTestChat(t)
	store.createErr = errors.New("insert refused")

	_, err := svc.CreateSession(context.Background(), userID)
	require.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.Empty(t, svc.Sessions(userID))
	assert.Contains(t, notifier.all(), "error: Failed to create new chat")
}

func TestRenameSessionAcceptsEmptyTitle(t *testing.T) {
	svc, store, _, _, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, svc.RenameSession(ctx, userID, sess.ID, ""))

	assert.Equal(t, "", svc.Sessions(userID)[0].Title)
	assert.Equal(t, "", store.sessions[sess.ID].Title)
}

func TestRenameDeletedSessionIsRemoteError(t *testing.T) {
	svc, _, _, notifier, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteSession(ctx, userID, sess.ID))

	err = svc.RenameSession(ctx, userID, sess.ID, "renamed")
	require.ErrorIs(t, err, domain.ErrRemoteWrite)
	assert.Contains(t, notifier.all(), "error: Failed to rename chat")
}

func TestDeleteActiveSessionActivatesFirstRemaining(t *testing.T) {
	svc, _, _, _, userID := newTestChat(t)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, second.ID))

	require.NoError(t, svc.DeleteSession(ctx, userID, second.ID))
	assert.Equal(t, first.ID, svc.ActiveID(userID))

	require.NoError(t, svc.DeleteSession(ctx, userID, first.ID))
	assert.Equal(t, uuid.Nil, svc.ActiveID(userID))
	assert.Empty(t, svc.Sessions(userID))
}

func TestSendMessageExchange(t *testing.T) {
	svc, store, ai, _, userID := newTestChat(t)
	ctx := context.Background()
	ai.fn = func(context.Context, []ChatMessage) (string, error) {
		return "Mission objectives nominal.", nil
	}

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, sess.ID))

	ex, err := svc.SendMessage(ctx, userID, "status report")
	require.NoError(t, err)
	require.NotNil(t, ex.UserMessage)
	require.NotNil(t, ex.AssistantMessage)

	// Local state: exactly one user and one assistant message, in order.
	msgs := svc.Sessions(userID)[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "status report", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Mission objectives nominal.", msgs[1].Content)

	// Remote rows match.
	remote := store.messages(sess.ID)
	require.Len(t, remote, 2)
	assert.Equal(t, domain.RoleUser, remote[0].Role)
	assert.Equal(t, domain.RoleAssistant, remote[1].Role)
}

func TestSendMessagePrependsPersonaAndSendsFullHistory(t *testing.T) {
	svc, _, ai, _, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, sess.ID))

	_, err = svc.SendMessage(ctx, userID, "first question")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, userID, "second question")
	require.NoError(t, err)

	require.Len(t, ai.calls, 2)
	last := ai.calls[1]

	require.GreaterOrEqual(t, len(last), 2)
	assert.Equal(t, "system", last[0].Role)
	assert.Equal(t, config.PersonaPreamble, last[0].Content)

	// The full prior history plus the new user turn, unbounded.
	assert.Equal(t, []ChatMessage{
		{Role: domain.RoleUser, Content: "first question"},
		{Role: domain.RoleAssistant, Content: "ack"},
		{Role: domain.RoleUser, Content: "second question"},
	}, last[1:])
}

func TestSendMessageNoActiveSession(t *testing.T) {
	svc, store, ai, _, userID := newTestChat(t)

	_, err := svc.SendMessage(context.Background(), userID, "hello")
	require.ErrorIs(t, err, domain.ErrNoActiveSession)

	// No remote call was attempted.
	assert.Zero(t, store.insertCalls)
	assert.Empty(t, ai.calls)
}

func TestSendMessageCompletionFailure(t *testing.T) {
	svc, store, ai, notifier, userID := newTestChat(t)
	ctx := context.Background()
	ai.fn = func(context.Context, []ChatMessage) (string, error) {
		return "", errors.New("endpoint returned 503")
	}

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, sess.ID))

	_, err = svc.SendMessage(ctx, userID, "status report")
	require.ErrorIs(t, err, domain.ErrCompletion)

	// The user message is persisted and kept; no assistant placeholder.
	remote := store.messages(sess.ID)
	require.Len(t, remote, 1)
	assert.Equal(t, domain.RoleUser, remote[0].Role)

	msgs := svc.Sessions(userID)[0].Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)

	assert.Contains(t, notifier.all(), "error: Failed to process message")
}

func TestSendMessageWriteFailureLeavesLocalStateUntouched(t *testing.T) {
	svc, store, ai, notifier, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, sess.ID))

	store.insertErr = errors.New("write refused")
	_, err = svc.SendMessage(ctx, userID, "status report")
	require.ErrorIs(t, err, domain.ErrRemoteWrite)

	// No optimistic append, no completion attempt.
	assert.Empty(t, svc.Sessions(userID)[0].Messages)
	assert.Empty(t, ai.calls)
	assert.Contains(t, notifier.all(), "error: Failed to process message")
}

func TestSendMessageBindsReplyToOriginalSession(t *testing.T) {
	svc, store, ai, _, userID := newTestChat(t)
	ctx := context.Background()

	first, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	second, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, first.ID))

	// Switch the active session while the completion is in flight.
	ai.fn = func(context.Context, []ChatMessage) (string, error) {
		require.NoError(t, svc.SetActive(userID, second.ID))
		return "late reply", nil
	}

	_, err = svc.SendMessage(ctx, userID, "who goes there")
	require.NoError(t, err)

	assert.Len(t, store.messages(first.ID), 2)
	assert.Empty(t, store.messages(second.ID))
}

func TestSendMessageRejectsConcurrentExchange(t *testing.T) {
	svc, _, ai, _, userID := newTestChat(t)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, svc.SetActive(userID, sess.ID))

	inFlight := make(chan struct{})
	release := make(chan struct{})
	ai.fn = func(context.Context, []ChatMessage) (string, error) {
		close(inFlight)
		<-release
		return "done", nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.SendMessage(ctx, userID, "slow one")
		done <- err
	}()

	<-inFlight
	_, err = svc.SendMessage(ctx, userID, "too eager")
	require.ErrorIs(t, err, domain.ErrActiveRequest)

	close(release)
	require.NoError(t, <-done)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	svc, _, _, _, userID := newTestChat(t)

	_, err := svc.SendMessage(context.Background(), userID, "   ")
	require.ErrorIs(t, err, domain.ErrEmptyMessage)
}
