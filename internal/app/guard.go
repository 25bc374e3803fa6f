package app

import (
	"context"
	"time"
)

// DefaultDuplicateWindow is how recent a prior completion must be to count as a duplicate.
const DefaultDuplicateWindow = 30 * time.Second

// GuardResult reports whether a submission collides with a recent attempt.
type GuardResult struct {
	Duplicate      bool
	PriorAttemptID int64
}

// SubmissionGuard rejects resubmissions of the same quiz within a trailing window.
// It is a time heuristic, not an idempotency key.
type SubmissionGuard struct {
	attempts AttemptLookup
	window   time.Duration
	now      func() time.Time
}

func NewSubmissionGuard(attempts AttemptLookup, window time.Duration) *SubmissionGuard {
	return NewSubmissionGuardWithClock(attempts, window, time.Now)
}

// NewSubmissionGuardWithClock allows deterministic timestamps in tests.
func NewSubmissionGuardWithClock(attempts AttemptLookup, window time.Duration, now func() time.Time) *SubmissionGuard {
	if window <= 0 {
		window = DefaultDuplicateWindow
	}
	return &SubmissionGuard{attempts: attempts, window: window, now: now}
}

// Check is read-only.
func (g *SubmissionGuard) Check(ctx context.Context, userID, quizID string) (GuardResult, error) {
	latest, ok, err := g.attempts.LatestAttempt(ctx, userID, quizID)
	if err != nil || !ok {
		return GuardResult{}, err
	}
	if g.now().Sub(latest.CompletedAt) <= g.window {
		return GuardResult{Duplicate: true, PriorAttemptID: latest.ID}, nil
	}
	return GuardResult{}, nil
}
