package memory

import (
	"context"
	"sync"

	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

// ProgressStore is an in-memory implementation of app.ProgressStore.
// Each user gets one session map keyed by app.ProgressKey.
type ProgressStore struct {
	mu       sync.RWMutex
	sessions map[string]map[string]domain.ProgressSnapshot
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{
		sessions: make(map[string]map[string]domain.ProgressSnapshot),
	}
}

func (s *ProgressStore) Save(_ context.Context, userID, quizID string, snap domain.ProgressSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		session = make(map[string]domain.ProgressSnapshot)
		s.sessions[userID] = session
	}
	session[app.ProgressKey(quizID)] = snap
	return nil
}

func (s *ProgressStore) Load(_ context.Context, userID, quizID string) (domain.ProgressSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.sessions[userID][app.ProgressKey(quizID)]
	return snap, ok, nil
}

func (s *ProgressStore) Clear(_ context.Context, userID, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	delete(session, app.ProgressKey(quizID))
	if len(session) == 0 {
		delete(s.sessions, userID)
	}
	return nil
}

func (s *ProgressStore) All(_ context.Context, userID string) (map[string]domain.ProgressSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.ProgressSnapshot)
	for key, snap := range s.sessions[userID] {
		if quizID, ok := app.QuizIDFromKey(key); ok {
			out[quizID] = snap
		}
	}
	return out, nil
}
