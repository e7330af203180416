package services

import (
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/NERO-TECHNOLOGIE/godabeg/internal/metrics"
	"github.com/NERO-TECHNOLOGIE/godabeg/internal/models"
)

// SessionManager holds the conversation state of every user in memory.
// Callers get copies; mutation goes through SetState, Update and the resets.
type SessionManager struct {
	sessions   map[string]*models.Session
	mu         sync.RWMutex
	sessionTTL time.Duration
	clock      clockwork.Clock
}

// NewSessionManager creates a session manager. Sessions idle for longer than
// ttl are dropped by EvictExpired; a zero ttl keeps them forever.
func NewSessionManager(ttl time.Duration, clock clockwork.Clock) *SessionManager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SessionManager{
		sessions:   make(map[string]*models.Session),
		sessionTTL: ttl,
		clock:      clock,
	}
}

// GetFlow returns the current flow, FlowNone for an unknown user
func (sm *SessionManager) GetFlow(userID string) models.Flow {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.live(userID); ok {
		return s.Flow
	}
	return models.FlowNone
}

// GetStep returns the current step, StepNone for an unknown user
func (sm *SessionManager) GetStep(userID string) models.Step {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.live(userID); ok {
		return s.Step
	}
	return models.StepNone
}

// Data returns a copy of the whole session. An unknown user gets an empty
// session in state (none, none).
func (sm *SessionManager) Data(userID string) models.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, ok := sm.live(userID); ok {
		return s.Clone()
	}
	return models.Session{UserID: userID}
}

// SetState moves the user to flow/step, creating the session if needed
func (sm *SessionManager) SetState(userID string, flow models.Flow, step models.Step) {
	sm.Update(userID, func(s *models.Session) {
		s.Flow = flow
		s.Step = step
	})
}

// Update applies fn to the user's session under the write lock
func (sm *SessionManager) Update(userID string, fn func(s *models.Session)) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s := sm.getOrCreateLocked(userID)
	fn(s)
	s.LastActive = sm.clock.Now()
}

// ClearState drops flow, step and all collected data
func (sm *SessionManager) ClearState(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[userID]; ok {
		delete(sm.sessions, userID)
		metrics.ActiveSessions.Dec()
	}
}

// SoftReset is ClearState that keeps the disclaimer consent
func (sm *SessionManager) SoftReset(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[userID]
	if !ok {
		return
	}
	now := sm.clock.Now()
	sm.sessions[userID] = &models.Session{
		UserID:             userID,
		DisclaimerAccepted: s.DisclaimerAccepted,
		CreatedAt:          now,
		LastActive:         now,
	}
}

// EvictExpired removes idle sessions and returns how many were removed
func (sm *SessionManager) EvictExpired() int {
	if sm.sessionTTL <= 0 {
		return 0
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	evicted := 0
	for id, s := range sm.sessions {
		if sm.expired(s) {
			delete(sm.sessions, id)
			evicted++
			log.Printf("⌛ Session expired for %s (flow=%q step=%q)", id, s.Flow, s.Step)
		}
	}
	metrics.ActiveSessions.Sub(float64(evicted))
	return evicted
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	count := 0
	for _, s := range sm.sessions {
		if !sm.expired(s) {
			count++
		}
	}
	return count
}

func (sm *SessionManager) live(userID string) (*models.Session, bool) {
	s, ok := sm.sessions[userID]
	if !ok || sm.expired(s) {
		return nil, false
	}
	return s, true
}

func (sm *SessionManager) expired(s *models.Session) bool {
	return sm.sessionTTL > 0 && sm.clock.Since(s.LastActive) > sm.sessionTTL
}

func (sm *SessionManager) getOrCreateLocked(userID string) *models.Session {
	s, ok := sm.sessions[userID]
	if ok && !sm.expired(s) {
		return s
	}
	if !ok {
		metrics.ActiveSessions.Inc()
	}

	// An expired session is replaced, consent included
	now := sm.clock.Now()
	s = &models.Session{
		UserID:     userID,
		CreatedAt:  now,
		LastActive: now,
	}
	sm.sessions[userID] = s
	return s
}
