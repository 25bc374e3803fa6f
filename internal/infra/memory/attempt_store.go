package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

// CategoryCatalog answers the category questions the achievement rules ask.
type CategoryCatalog interface {
	ActiveCategories() []string
	CategoryOf(quizID string) string
}

// AttemptStore is an in-memory app.Store. Transactions are serialized by a store-wide
// lock and stage their writes until fn returns nil.
type AttemptStore struct {
	catalog CategoryCatalog

	mu           sync.Mutex
	lastID       int64
	attempts     []domain.Attempt
	responses    []domain.Response
	achievements []domain.Achievement
	unlocks      map[unlockKey]domain.UserAchievement
	activities   []domain.Activity
}

type unlockKey struct {
	userID        string
	achievementID int64
}

// NewAttemptStore seeds the achievement catalog; nil achievements means the defaults.
func NewAttemptStore(catalog CategoryCatalog, achievements []domain.Achievement) *AttemptStore {
	if achievements == nil {
		achievements = domain.DefaultAchievements()
	}
	return &AttemptStore{
		catalog:      catalog,
		achievements: achievements,
		unlocks:      make(map[unlockKey]domain.UserAchievement),
	}
}

func (s *AttemptStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, nextID: s.lastID, unlocks: make(map[unlockKey]domain.UserAchievement)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.lastID = tx.nextID
	s.attempts = append(s.attempts, tx.attempts...)
	s.responses = append(s.responses, tx.responses...)
	s.activities = append(s.activities, tx.activities...)
	for k, v := range tx.unlocks {
		s.unlocks[k] = v
	}
	return nil
}

func (s *AttemptStore) LatestAttempt(_ context.Context, userID, quizID string) (domain.Attempt, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := filterAttempts(s.attempts, userID, quizID)
	if len(list) == 0 {
		return domain.Attempt{}, false, nil
	}
	return list[0], true, nil
}

func (s *AttemptStore) ListAttempts(_ context.Context, userID, quizID string) ([]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return filterAttempts(s.attempts, userID, quizID), nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, attemptID int64) (domain.Attempt, []domain.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.ID != attemptID {
			continue
		}
		var responses []domain.Response
		for _, r := range s.responses {
			if r.AttemptID == attemptID {
				responses = append(responses, r)
			}
		}
		return a, responses, nil
	}
	return domain.Attempt{}, nil, domain.ErrAttemptNotFound
}

func (s *AttemptStore) ListActivities(_ context.Context, userID string, limit int) ([]domain.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Activity
	for i := len(s.activities) - 1; i >= 0; i-- {
		if s.activities[i].UserID != userID {
			continue
		}
		out = append(out, s.activities[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// UnlockedCount reports how many users hold an achievement.
func (s *AttemptStore) UnlockedCount(achievementID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k := range s.unlocks {
		if k.achievementID == achievementID {
			n++
		}
	}
	return n
}

// filterAttempts returns matches newest first.
func filterAttempts(attempts []domain.Attempt, userID, quizID string) []domain.Attempt {
	var out []domain.Attempt
	for _, a := range attempts {
		if a.UserID == userID && a.QuizID == quizID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// memoryTx reads committed state plus its own staged writes. The store lock is held
// by RunInTx for its whole lifetime.
type memoryTx struct {
	store  *AttemptStore
	nextID int64

	attempts   []domain.Attempt
	responses  []domain.Response
	activities []domain.Activity
	unlocks    map[unlockKey]domain.UserAchievement
}

func (t *memoryTx) id() int64 {
	t.nextID++
	return t.nextID
}

func (t *memoryTx) allAttempts() []domain.Attempt {
	out := make([]domain.Attempt, 0, len(t.store.attempts)+len(t.attempts))
	out = append(out, t.store.attempts...)
	return append(out, t.attempts...)
}

func (t *memoryTx) InsertAttempt(_ context.Context, attempt *domain.Attempt) error {
	attempt.ID = t.id()
	t.attempts = append(t.attempts, *attempt)
	return nil
}

func (t *memoryTx) InsertResponses(_ context.Context, responses []domain.Response) error {
	for i := range responses {
		responses[i].ID = t.id()
		t.responses = append(t.responses, responses[i])
	}
	return nil
}

func (t *memoryTx) UserStats(_ context.Context, userID string) (domain.Stats, error) {
	var stats domain.Stats
	total := 0
	for _, a := range t.allAttempts() {
		if a.UserID == userID {
			stats.QuizzesTaken++
			total += a.Score
		}
	}
	if stats.QuizzesTaken > 0 {
		stats.AverageScore = float64(total) / float64(stats.QuizzesTaken)
	}
	return stats, nil
}

func (t *memoryTx) CompletionTimes(_ context.Context, userID string, since time.Time) ([]time.Time, error) {
	var out []time.Time
	for _, a := range t.allAttempts() {
		if a.UserID == userID && !a.CompletedAt.Before(since) {
			out = append(out, a.CompletedAt)
		}
	}
	return out, nil
}

func (t *memoryTx) ScoreTotals(_ context.Context) ([]domain.ScoreTotal, error) {
	index := make(map[string]int)
	var out []domain.ScoreTotal
	for _, a := range t.allAttempts() {
		i, ok := index[a.UserID]
		if !ok {
			i = len(out)
			index[a.UserID] = i
			out = append(out, domain.ScoreTotal{UserID: a.UserID})
		}
		out[i].Total += int64(a.Score)
		out[i].Attempts++
	}
	return out, nil
}

func (t *memoryTx) CategoryCoverage(_ context.Context, userID string) ([]string, []string, error) {
	if t.store.catalog == nil {
		return nil, nil, nil
	}
	seen := make(map[string]bool)
	var covered []string
	for _, a := range t.allAttempts() {
		if a.UserID != userID {
			continue
		}
		c := t.store.catalog.CategoryOf(a.QuizID)
		if c != "" && !seen[c] {
			seen[c] = true
			covered = append(covered, c)
		}
	}
	return t.store.catalog.ActiveCategories(), covered, nil
}

func (t *memoryTx) Achievements(_ context.Context) ([]domain.Achievement, error) {
	out := make([]domain.Achievement, len(t.store.achievements))
	copy(out, t.store.achievements)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTx) UnlockedAchievements(_ context.Context, userID string) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for k := range t.store.unlocks {
		if k.userID == userID {
			out[k.achievementID] = true
		}
	}
	for k := range t.unlocks {
		if k.userID == userID {
			out[k.achievementID] = true
		}
	}
	return out, nil
}

func (t *memoryTx) UnlockAchievement(_ context.Context, unlock domain.UserAchievement) (bool, error) {
	key := unlockKey{userID: unlock.UserID, achievementID: unlock.AchievementID}
	if _, ok := t.store.unlocks[key]; ok {
		return false, nil
	}
	if _, ok := t.unlocks[key]; ok {
		return false, nil
	}
	t.unlocks[key] = unlock
	return true, nil
}

func (t *memoryTx) InsertActivity(_ context.Context, activity *domain.Activity) error {
	activity.ID = t.id()
	t.activities = append(t.activities, *activity)
	return nil
}
