package memory

import (
	"context"
	"sync"
	"time"

	"voicedesk-server/internal/observability"

	"github.com/google/uuid"
)

const (
	defaultTTL        = 10 * time.Minute
	defaultMaxEntries = 20
	janitorInterval   = time.Minute
)

// Entry is one remembered utterance or reply.
type Entry struct {
	Role    string // "user" or "assistant"
	Content string
}

type userHistory struct {
	entries  []Entry
	lastSeen time.Time
}

// Service is a TTL-bounded, per-user conversational memory. Histories expire
// as a whole once the user has been silent longer than the TTL, which keeps
// model context from growing without bound.
type Service struct {
	mu         sync.Mutex
	histories  map[uuid.UUID]*userHistory
	ttl        time.Duration
	maxEntries int
	logger     *observability.Logger
	stop       chan struct{}
	stopOnce   sync.Once
}

func New(logger *observability.Logger) *Service {
	s := &Service{
		histories:  make(map[uuid.UUID]*userHistory),
		ttl:        defaultTTL,
		maxEntries: defaultMaxEntries,
		logger:     logger,
		stop:       make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Append records one message for the user, evicting the oldest entries once
// the cap is reached.
func (s *Service) Append(ctx context.Context, userID uuid.UUID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[userID]
	if !ok {
		h = &userHistory{}
		s.histories[userID] = h
	}
	h.entries = append(h.entries, Entry{Role: role, Content: content})
	if len(h.entries) > s.maxEntries {
		h.entries = h.entries[len(h.entries)-s.maxEntries:]
	}
	h.lastSeen = time.Now()
}

// History returns the user's remembered messages in order, or nil if expired.
func (s *Service) History(ctx context.Context, userID uuid.UUID) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.histories[userID]
	if !ok {
		return nil
	}
	if time.Since(h.lastSeen) > s.ttl {
		delete(s.histories, userID)
		return nil
	}
	entries := make([]Entry, len(h.entries))
	copy(entries, h.entries)
	return entries
}

func (s *Service) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			for userID, h := range s.histories {
				if time.Since(h.lastSeen) > s.ttl {
					delete(s.histories, userID)
				}
			}
			s.mu.Unlock()
		}
	}
}

// Close stops the janitor goroutine. Safe to call more than once.
func (s *Service) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
