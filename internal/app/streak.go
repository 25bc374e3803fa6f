package app

import (
	"context"
	"time"

	"quiz-service/internal/domain"
)

// DefaultStreakLookbackDays caps how far back a streak is counted.
const DefaultStreakLookbackDays = 30

// StreakRankAnalyzer derives streak and rank from attempt history visible in a Tx.
type StreakRankAnalyzer struct {
	lookbackDays int
	loc          *time.Location
	now          func() time.Time
}

func NewStreakRankAnalyzer(lookbackDays int, loc *time.Location) *StreakRankAnalyzer {
	return NewStreakRankAnalyzerWithClock(lookbackDays, loc, time.Now)
}

// NewStreakRankAnalyzerWithClock allows deterministic timestamps in tests.
func NewStreakRankAnalyzerWithClock(lookbackDays int, loc *time.Location, now func() time.Time) *StreakRankAnalyzer {
	if lookbackDays <= 0 {
		lookbackDays = DefaultStreakLookbackDays
	}
	if loc == nil {
		loc = time.UTC
	}
	return &StreakRankAnalyzer{lookbackDays: lookbackDays, loc: loc, now: now}
}

// Streak counts consecutive days with a completion, walking back from today.
func (a *StreakRankAnalyzer) Streak(ctx context.Context, tx Tx, userID string) (int, error) {
	now := a.now().In(a.loc)
	y, m, d := now.Date()
	since := time.Date(y, m, d-(a.lookbackDays-1), 0, 0, 0, 0, a.loc)

	times, err := tx.CompletionTimes(ctx, userID, since.UTC())
	if err != nil {
		return 0, err
	}
	return CountStreak(times, now, a.loc, a.lookbackDays), nil
}

// Rank returns 1 + the number of users whose average score is strictly greater,
// or 0 when the user has no attempts.
func (a *StreakRankAnalyzer) Rank(ctx context.Context, tx Tx, userID string) (int, error) {
	totals, err := tx.ScoreTotals(ctx)
	if err != nil {
		return 0, err
	}
	return RankOf(totals, userID), nil
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time, loc *time.Location) civilDate {
	y, m, d := t.In(loc).Date()
	return civilDate{y, m, d}
}

// CountStreak walks back from now's calendar day; a day without a completion ends the walk.
func CountStreak(completions []time.Time, now time.Time, loc *time.Location, lookbackDays int) int {
	days := make(map[civilDate]bool, len(completions))
	for _, t := range completions {
		days[dateOf(t, loc)] = true
	}

	y, m, d := now.In(loc).Date()
	streak := 0
	for i := 0; i < lookbackDays; i++ {
		day := dateOf(time.Date(y, m, d-i, 12, 0, 0, 0, loc), loc)
		if !days[day] {
			break
		}
		streak++
	}
	return streak
}

// RankOf compares averages exactly by cross-multiplying sums and counts.
func RankOf(totals []domain.ScoreTotal, userID string) int {
	var mine *domain.ScoreTotal
	for i := range totals {
		if totals[i].UserID == userID {
			mine = &totals[i]
			break
		}
	}
	if mine == nil || mine.Attempts == 0 {
		return 0
	}

	rank := 1
	for _, other := range totals {
		if other.UserID == userID || other.Attempts == 0 {
			continue
		}
		if other.Total*mine.Attempts > mine.Total*other.Attempts {
			rank++
		}
	}
	return rank
}
