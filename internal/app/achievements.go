package app

import (
	"context"
	"log"
	"time"

	"quiz-service/internal/domain"
)

// EvaluationInput is the freshly computed state an attempt is judged against.
type EvaluationInput struct {
	UserID string
	QuizID string
	Score  int
	Stats  domain.Stats
	Streak int
	Rank   int
}

// AchievementEvaluator unlocks catalog achievements whose rules now hold.
type AchievementEvaluator struct {
	now func() time.Time
}

func NewAchievementEvaluator() *AchievementEvaluator {
	return NewAchievementEvaluatorWithClock(time.Now)
}

// NewAchievementEvaluatorWithClock allows deterministic timestamps in tests.
func NewAchievementEvaluatorWithClock(now func() time.Time) *AchievementEvaluator {
	return &AchievementEvaluator{now: now}
}

// Evaluate checks achievements in catalog order and returns the ones this call unlocked.
// An unlock lost to a concurrent submission is not an error and is not returned.
func (e *AchievementEvaluator) Evaluate(ctx context.Context, tx Tx, in EvaluationInput) ([]domain.Achievement, error) {
	catalog, err := tx.Achievements(ctx)
	if err != nil {
		return nil, err
	}
	unlocked, err := tx.UnlockedAchievements(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	cov := &coverage{}
	var earned []domain.Achievement
	for _, achievement := range catalog {
		if unlocked[achievement.ID] {
			continue
		}
		rule, err := domain.ParseUnlockCondition(achievement.UnlockCondition)
		if err != nil {
			log.Printf("[AchievementEvaluator] skipping achievement %d: %v", achievement.ID, err)
			continue
		}

		ok, err := e.qualifies(ctx, tx, rule, in, cov)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		inserted, err := tx.UnlockAchievement(ctx, domain.UserAchievement{
			UserID:        in.UserID,
			AchievementID: achievement.ID,
			UnlockedAt:    e.now().UTC(),
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			continue
		}
		achievement.Rule = rule
		earned = append(earned, achievement)
	}
	return earned, nil
}

// coverage memoizes the category query; most evaluations never need it.
type coverage struct {
	loaded   bool
	complete bool
}

func (e *AchievementEvaluator) qualifies(ctx context.Context, tx Tx, rule domain.UnlockRule, in EvaluationInput, cov *coverage) (bool, error) {
	switch rule.Kind {
	case domain.RuleQuizzesTaken:
		return float64(in.Stats.QuizzesTaken) >= rule.Min, nil
	case domain.RuleAttemptScore:
		return float64(in.Score) >= rule.Min, nil
	case domain.RuleAverageScore:
		return in.Stats.QuizzesTaken > 0 && in.Stats.AverageScore >= rule.Min, nil
	case domain.RuleStreakDays:
		return float64(in.Streak) >= rule.Min, nil
	case domain.RuleTopRank:
		return in.Rank == 1, nil
	case domain.RuleAllCategories:
		if !cov.loaded {
			active, covered, err := tx.CategoryCoverage(ctx, in.UserID)
			if err != nil {
				return false, err
			}
			cov.loaded = true
			cov.complete = coversAll(active, covered)
		}
		return cov.complete, nil
	default:
		return false, nil
	}
}

func coversAll(active, covered []string) bool {
	if len(active) == 0 {
		return false
	}
	seen := make(map[string]bool, len(covered))
	for _, c := range covered {
		seen[c] = true
	}
	for _, c := range active {
		if !seen[c] {
			return false
		}
	}
	return true
}
