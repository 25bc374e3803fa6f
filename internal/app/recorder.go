package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"quiz-service/internal/domain"
)

// RecordInput is a scored submission ready to be persisted.
type RecordInput struct {
	UserID    string
	QuizID    string
	QuizTitle string
	Score     int
	TimeTaken int
	Responses []domain.Response
}

// RecordResult is everything the transaction committed and derived.
type RecordResult struct {
	Attempt    domain.Attempt
	Responses  []domain.Response
	Stats      domain.Stats
	Streak     int
	Rank       int
	Unlocked   []domain.Achievement
	Activities []domain.Activity
}

// AttemptRecorder writes an attempt, its responses, unlocked achievements and
// feed entries in one transaction.
type AttemptRecorder struct {
	store      Store
	analyzer   *StreakRankAnalyzer
	evaluator  *AchievementEvaluator
	activities *ActivityRecorder
	now        func() time.Time
}

func NewAttemptRecorder(store Store, analyzer *StreakRankAnalyzer, evaluator *AchievementEvaluator, activities *ActivityRecorder) *AttemptRecorder {
	return NewAttemptRecorderWithClock(store, analyzer, evaluator, activities, time.Now)
}

// NewAttemptRecorderWithClock allows deterministic timestamps in tests.
func NewAttemptRecorderWithClock(store Store, analyzer *StreakRankAnalyzer, evaluator *AchievementEvaluator, activities *ActivityRecorder, now func() time.Time) *AttemptRecorder {
	return &AttemptRecorder{
		store:      store,
		analyzer:   analyzer,
		evaluator:  evaluator,
		activities: activities,
		now:        now,
	}
}

// Record either commits everything or nothing. Transaction failures come back as
// *domain.PersistenceError.
func (r *AttemptRecorder) Record(ctx context.Context, in RecordInput) (RecordResult, error) {
	if in.Score < 0 || in.Score > 100 {
		return RecordResult{}, domain.NewValidationError("score", fmt.Sprintf("must be between 0 and 100, got %d", in.Score))
	}
	if in.TimeTaken < 0 {
		return RecordResult{}, domain.NewValidationError("time_taken", "must not be negative")
	}

	var result RecordResult
	err := r.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		result = RecordResult{}

		attempt := domain.Attempt{
			UserID:      in.UserID,
			QuizID:      in.QuizID,
			Score:       in.Score,
			TimeTaken:   in.TimeTaken,
			CompletedAt: r.now().UTC().Truncate(time.Microsecond),
		}
		if err := tx.InsertAttempt(ctx, &attempt); err != nil {
			return fmt.Errorf("insert attempt: %w", err)
		}
		result.Attempt = attempt

		responses := make([]domain.Response, len(in.Responses))
		for i, resp := range in.Responses {
			resp.AttemptID = attempt.ID
			responses[i] = resp
		}
		if len(responses) > 0 {
			if err := tx.InsertResponses(ctx, responses); err != nil {
				return fmt.Errorf("insert responses: %w", err)
			}
		}
		result.Responses = responses

		stats, err := tx.UserStats(ctx, in.UserID)
		if err != nil {
			return fmt.Errorf("user stats: %w", err)
		}
		streak, err := r.analyzer.Streak(ctx, tx, in.UserID)
		if err != nil {
			return fmt.Errorf("streak: %w", err)
		}
		rank, err := r.analyzer.Rank(ctx, tx, in.UserID)
		if err != nil {
			return fmt.Errorf("rank: %w", err)
		}
		result.Stats, result.Streak, result.Rank = stats, streak, rank

		unlocked, err := r.evaluator.Evaluate(ctx, tx, EvaluationInput{
			UserID: in.UserID,
			QuizID: in.QuizID,
			Score:  in.Score,
			Stats:  stats,
			Streak: streak,
			Rank:   rank,
		})
		if err != nil {
			return fmt.Errorf("evaluate achievements: %w", err)
		}
		result.Unlocked = unlocked

		quizID := in.QuizID
		attemptID := attempt.ID
		completed, err := r.activities.Append(ctx, tx, in.UserID, domain.ActivityQuizCompleted,
			completedTitle(in.QuizTitle, in.QuizID, in.Score), &quizID, &attemptID)
		if err != nil {
			return err
		}
		result.Activities = append(result.Activities, completed)

		for _, achievement := range unlocked {
			earned, err := r.activities.Append(ctx, tx, in.UserID, domain.ActivityAchievement,
				"Earned achievement: "+achievement.Title, &quizID, nil)
			if err != nil {
				return err
			}
			result.Activities = append(result.Activities, earned)
		}
		return nil
	})
	if err != nil {
		log.Printf("[AttemptRecorder] rolled back attempt user=%s quiz=%s: %v", in.UserID, in.QuizID, err)
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			return RecordResult{}, verr
		}
		var perr *domain.PersistenceError
		if errors.As(err, &perr) {
			return RecordResult{}, perr
		}
		return RecordResult{}, &domain.PersistenceError{Op: "record attempt", Err: err}
	}
	return result, nil
}

func completedTitle(title, quizID string, score int) string {
	if title == "" {
		title = quizID
	}
	return fmt.Sprintf("Completed %s with a score of %d%%", title, score)
}
