package app

import (
	"context"
	"time"

	"quiz-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptLookup finds the newest attempt for a user and quiz.
type AttemptLookup interface {
	LatestAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, bool, error)
}

// Store is the durable attempt history. Every write happens inside RunInTx.
type Store interface {
	AttemptLookup

	// RunInTx commits when fn returns nil and rolls back everything otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// ListAttempts returns a user's attempts for a quiz, newest first.
	ListAttempts(ctx context.Context, userID, quizID string) ([]domain.Attempt, error)

	// GetAttempt returns domain.ErrAttemptNotFound when the attempt does not exist.
	GetAttempt(ctx context.Context, attemptID int64) (domain.Attempt, []domain.Response, error)

	// ListActivities returns a user's feed, newest first. limit <= 0 means no limit.
	ListActivities(ctx context.Context, userID string, limit int) ([]domain.Activity, error)
}

// Tx is the unit of work shared by AttemptRecorder, StreakRankAnalyzer,
// AchievementEvaluator and ActivityRecorder. Reads observe the transaction's own writes.
type Tx interface {
	InsertAttempt(ctx context.Context, attempt *domain.Attempt) error
	InsertResponses(ctx context.Context, responses []domain.Response) error

	UserStats(ctx context.Context, userID string) (domain.Stats, error)
	CompletionTimes(ctx context.Context, userID string, since time.Time) ([]time.Time, error)
	ScoreTotals(ctx context.Context) ([]domain.ScoreTotal, error)
	// CategoryCoverage returns the distinct active quiz categories and the ones the user has completed.
	CategoryCoverage(ctx context.Context, userID string) (active, covered []string, err error)

	Achievements(ctx context.Context) ([]domain.Achievement, error)
	UnlockedAchievements(ctx context.Context, userID string) (map[int64]bool, error)
	// UnlockAchievement reports false when the pair already exists.
	UnlockAchievement(ctx context.Context, unlock domain.UserAchievement) (bool, error)

	InsertActivity(ctx context.Context, activity *domain.Activity) error
}

// ProgressStore is session-scoped key-value storage for in-flight quizzes.
type ProgressStore interface {
	Save(ctx context.Context, userID, quizID string, snap domain.ProgressSnapshot) error
	Load(ctx context.Context, userID, quizID string) (domain.ProgressSnapshot, bool, error)
	Clear(ctx context.Context, userID, quizID string) error
	// All returns every snapshot in the user's session keyed by quiz id.
	All(ctx context.Context, userID string) (map[string]domain.ProgressSnapshot, error)
}

// ExecResult is what the code-execution service reports for one run.
type ExecResult struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// CodeRunner executes submitted source code in an external sandbox.
type CodeRunner interface {
	Execute(ctx context.Context, language, code, stdin string) (ExecResult, error)
}
