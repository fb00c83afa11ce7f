// Package session implements conversation state: an in-memory,
// mutex-protected session store with TTL-based eviction and the
// phase-machine transitions that drive the Intent Engine's dispatch.
//
// The store uses a map behind an RWMutex with not-found errors on lookup
// misses, and a ticker-driven sweeper for TTL eviction.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promadgenius/qacanvas/control-plane/pkg/models"
)

// Store is a thread-safe in-memory ConversationSession store with TTL
// eviction; nothing here is persisted to disk or an external store.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*models.ConversationSession
	ttl      time.Duration
	doneCh   chan struct{}
	closeOnce sync.Once
}

// New creates a session store and starts its background eviction sweeper.
func New(ttl time.Duration) *Store {
	s := &Store{
		sessions: make(map[string]*models.ConversationSession),
		ttl:      ttl,
		doneCh:   make(chan struct{}),
	}
	go s.evictionLoop()
	log.Info().Dur("ttl", ttl).Msg("✅ Conversation session store initialized")
	return s
}

// Close stops the background eviction sweeper.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.doneCh) })
}

// GetOrCreate returns the existing session for id, or creates a new one in
// PhaseInitial if none exists yet — sessions are never explicitly created
// by a client, only implicitly by the first message they send.
func (s *Store) GetOrCreate(_ context.Context, id string) *models.ConversationSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[id]; ok {
		sess.LastActivity = time.Now().UTC()
		return sess
	}
	sess := &models.ConversationSession{
		ID:           id,
		Phase:        models.PhaseInitial,
		LastActivity: time.Now().UTC(),
	}
	s.sessions[id] = sess
	return sess
}

// Get retrieves a session by ID without creating one.
func (s *Store) Get(_ context.Context, id string) (*models.ConversationSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// Save persists the (mutated) session state back into the store.
func (s *Store) Save(_ context.Context, sess *models.ConversationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.LastActivity = time.Now().UTC()
	s.sessions[sess.ID] = sess
}

// Delete removes a session, used when a client explicitly terminates a
// conversation.
func (s *Store) Delete(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Count reports the number of live sessions, surfaced by /api/metrics.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) evictionLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.doneCh:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Store) evictExpired() {
	cutoff := time.Now().Add(-s.ttl)

	s.mu.Lock()
	var evicted int
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			evicted++
		}
	}
	s.mu.Unlock()

	if evicted > 0 {
		log.Info().Int("evicted", evicted).Str("ttl", s.ttl.String()).Msg("Evicted expired conversation sessions")
	}
}

// ── Phase machine ──────────────────────────────────────────────

// Advance applies the phase transition that follows from classifying the
// user's latest message with intent: ask_clarification parks the session
// in PhaseAwaitingClarification until the user responds, modify_canvas
// and provide_information are one-shot phases that return to
// PhaseInitial once handled, and off_topic/fallback never change phase.
func Advance(sess *models.ConversationSession, intent models.Intent) {
	switch intent {
	case models.IntentAskClarification:
		sess.Phase = models.PhaseAwaitingClarification
	case models.IntentModifyCanvas:
		sess.Phase = models.PhaseModifying
	case models.IntentProvideInformation:
		sess.Phase = models.PhaseInforming
	case models.IntentOffTopic, models.IntentFallback:
		// phase unchanged: these intents don't advance the conversation
	}
}

// Settle returns the session to PhaseInitial once a turn's response has
// been sent, clearing any pending clarification that was just answered.
func Settle(sess *models.ConversationSession) {
	if sess.Phase != models.PhaseTerminated {
		sess.Phase = models.PhaseInitial
	}
	sess.PendingClarification = nil
}

// AwaitingClarification reports whether the session is parked waiting for
// the user to answer a previously asked clarification question — the
// Intent Engine consults this before running classification again, since
// a reply while awaiting clarification is treated as an answer rather
// than reclassified from scratch.
func AwaitingClarification(sess *models.ConversationSession) bool {
	return sess.Phase == models.PhaseAwaitingClarification && sess.PendingClarification != nil
}

// AppendHistory records a turn in the session's rolling chat history.
func AppendHistory(sess *models.ConversationSession, msg models.ChatMessage) {
	sess.History = append(sess.History, msg)
}
