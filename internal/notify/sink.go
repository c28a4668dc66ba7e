// Package notify implements the transient per-user notification feed.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nova-hq/nova/internal/config"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

type Notice struct {
	ID        uuid.UUID `json:"id"`
	Level     Level     `json:"level"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Alerter forwards error-level notices to an ops channel.
type Alerter interface {
	Alert(text string)
}

// Sink buffers short-lived notices per user and fans them out to live
// subscribers. Notices expire after config.NoticeTTL and are dropped once
// delivered through Drain.
type Sink struct {
	mu      sync.Mutex
	notices map[uuid.UUID][]Notice
	subs    map[uuid.UUID]map[chan Notice]struct{}
	alerter Alerter
	now     func() time.Time
}

func NewSink(alerter Alerter) *Sink {
	return &Sink{
		notices: make(map[uuid.UUID][]Notice),
		subs:    make(map[uuid.UUID]map[chan Notice]struct{}),
		alerter: alerter,
		now:     time.Now,
	}
}

func (s *Sink) Push(userID uuid.UUID, level Level, text string) {
	n := Notice{
		ID:        uuid.New(),
		Level:     level,
		Text:      text,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	buf := append(s.notices[userID], n)
	if len(buf) > config.MaxNoticesPerUser {
		buf = buf[len(buf)-config.MaxNoticesPerUser:]
	}
	s.notices[userID] = buf
	for ch := range s.subs[userID] {
		select {
		case ch <- n:
		default: // slow subscriber, drop
		}
	}
	s.mu.Unlock()

	if level == LevelError && s.alerter != nil {
		s.alerter.Alert(text)
	}
}

func (s *Sink) Success(userID uuid.UUID, text string) { s.Push(userID, LevelSuccess, text) }
func (s *Sink) Error(userID uuid.UUID, text string)   { s.Push(userID, LevelError, text) }

// Drain returns the user's pending non-expired notices and clears the buffer.
func (s *Sink) Drain(userID uuid.UUID) []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-config.NoticeTTL)
	out := []Notice{}
	for _, n := range s.notices[userID] {
		if n.CreatedAt.After(cutoff) {
			out = append(out, n)
		}
	}
	delete(s.notices, userID)
	return out
}

// Subscribe registers a live channel for the user's notices. The returned
// cancel func must be called when the subscriber goes away.
func (s *Sink) Subscribe(userID uuid.UUID) (<-chan Notice, func()) {
	ch := make(chan Notice, 16)

	s.mu.Lock()
	if s.subs[userID] == nil {
		s.subs[userID] = make(map[chan Notice]struct{})
	}
	s.subs[userID][ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if set, ok := s.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(s.subs, userID)
			}
		}
		s.mu.Unlock()
	}
	return ch, cancel
}
