package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"quiz-service/internal/domain"
)

// ProgressKeyPrefix namespaces snapshots inside a user's session storage.
const ProgressKeyPrefix = "quiz_progress_"

// completedMarker is what a finished quiz's serialized answers contain.
const completedMarker = "correct)"

// ProgressKey returns the session key for a quiz's snapshot.
func ProgressKey(quizID string) string {
	return ProgressKeyPrefix + quizID
}

// QuizIDFromKey reverses ProgressKey.
func QuizIDFromKey(key string) (string, bool) {
	if !strings.HasPrefix(key, ProgressKeyPrefix) {
		return "", false
	}
	return strings.TrimPrefix(key, ProgressKeyPrefix), true
}

// ProgressService keeps resumable state for quizzes that are not submitted yet.
type ProgressService struct {
	store   ProgressStore
	quizzes QuizRepository
	now     func() time.Time
}

func NewProgressService(store ProgressStore, quizzes QuizRepository) *ProgressService {
	return NewProgressServiceWithClock(store, quizzes, time.Now)
}

// NewProgressServiceWithClock allows deterministic timestamps in tests.
func NewProgressServiceWithClock(store ProgressStore, quizzes QuizRepository, now func() time.Time) *ProgressService {
	return &ProgressService{store: store, quizzes: quizzes, now: now}
}

// Save overwrites the snapshot (last write wins). A save without real progress
// is not stored and drops any earlier snapshot for the quiz.
func (s *ProgressService) Save(ctx context.Context, userID, quizID string, currentQuestion int, answers map[string]json.RawMessage) (domain.ProgressSnapshot, error) {
	if currentQuestion < 0 {
		return domain.ProgressSnapshot{}, domain.NewValidationError("current_question", "must not be negative")
	}
	snap := domain.ProgressSnapshot{
		CurrentQuestion: currentQuestion,
		Answers:         answers,
		LastUpdated:     s.now().Unix(),
	}
	if !snap.HasProgress() {
		if err := s.store.Clear(ctx, userID, quizID); err != nil {
			return domain.ProgressSnapshot{}, err
		}
		return snap, nil
	}
	if err := s.store.Save(ctx, userID, quizID, snap); err != nil {
		return domain.ProgressSnapshot{}, err
	}
	return snap, nil
}

// Load returns the stored snapshot and whether one existed.
func (s *ProgressService) Load(ctx context.Context, userID, quizID string) (domain.ProgressSnapshot, bool, error) {
	return s.store.Load(ctx, userID, quizID)
}

func (s *ProgressService) Clear(ctx context.Context, userID, quizID string) error {
	return s.store.Clear(ctx, userID, quizID)
}

// MostRecent returns the newest snapshot that does not look finished, or nil.
// Snapshots whose quiz no longer exists in the catalog are passed over.
func (s *ProgressService) MostRecent(ctx context.Context, userID string) (*domain.ActiveQuiz, error) {
	all, err := s.store.All(ctx, userID)
	if err != nil {
		return nil, err
	}

	quizIDs := make([]string, 0, len(all))
	for quizID, snap := range all {
		if LooksCompleted(snap) {
			continue
		}
		quizIDs = append(quizIDs, quizID)
	}
	sort.Slice(quizIDs, func(i, j int) bool {
		a, b := all[quizIDs[i]], all[quizIDs[j]]
		if a.LastUpdated != b.LastUpdated {
			return a.LastUpdated > b.LastUpdated
		}
		return quizIDs[i] < quizIDs[j]
	})

	for _, quizID := range quizIDs {
		quiz, err := s.quizzes.GetQuiz(ctx, quizID)
		if errors.Is(err, domain.ErrQuizNotFound) {
			log.Printf("[ProgressService] stale progress for missing quiz=%s user=%s", quizID, userID)
			continue
		}
		if err != nil {
			return nil, err
		}
		snap := all[quizID]
		return &domain.ActiveQuiz{
			QuizID:          quizID,
			Title:           quiz.Title,
			TotalQuestions:  len(quiz.Questions),
			CurrentQuestion: snap.CurrentQuestion,
			Answers:         snap.Answers,
			LastUpdated:     snap.LastUpdated,
		}, nil
	}
	return nil, nil
}

// LooksCompleted sniffs the serialized answers for the marker a finished quiz leaves.
// TODO: replace with an explicit completed flag on the snapshot once clients send one.
func LooksCompleted(snap domain.ProgressSnapshot) bool {
	raw, err := json.Marshal(snap.Answers)
	if err != nil {
		return false
	}
	return strings.Contains(string(raw), completedMarker)
}
