package sqldb_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/sqldb"
	"quiz-service/internal/infra/sqldb/migrations"
)

func newTestStore(t *testing.T) *sqldb.Store {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sqldb.Open(sqldb.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(ctx, db))
	store := sqldb.NewStore(db)

	for _, q := range []domain.Quiz{quiz("quiz-1", "math", 4), quiz("quiz-2", "art", 1), {ID: "old", Title: "Old", Category: "history"}} {
		require.NoError(t, store.PutQuiz(ctx, q))
	}
	return store
}

func quiz(id, category string, n int) domain.Quiz {
	q := domain.Quiz{ID: id, Title: "Quiz " + id, Category: category, Active: true}
	for i := 1; i <= n; i++ {
		q.Questions = append(q.Questions, domain.Question{
			ID:     fmt.Sprintf("q%d", i),
			Type:   domain.QuestionMultipleChoice,
			Prompt: "prompt",
			Answers: []domain.AnswerOption{
				{ID: "a", Text: "right", IsCorrect: true},
				{ID: "b", Text: "wrong"},
			},
		})
	}
	return q
}

func TestMigrationsAreIdempotentAndSeedAchievements(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		achievements, err := tx.Achievements(ctx)
		require.NoError(t, err)
		require.Len(t, achievements, len(domain.DefaultAchievements()))
		assert.Equal(t, "First Steps", achievements[0].Title)
		assert.Equal(t, domain.ConditionAllCategories, achievements[6].UnlockCondition)
		return nil
	})
	require.NoError(t, err)
}

func TestQuizCatalogRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	got, err := store.LoadQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Quiz quiz-1", got.Title)
	assert.True(t, got.Active)
	require.Len(t, got.Questions, 4)
	assert.Equal(t, "a", got.Questions[0].CorrectAnswerID())

	updated := quiz("quiz-1", "math", 2)
	updated.Title = "Renamed"
	require.NoError(t, store.PutQuiz(ctx, updated))
	got, err = store.LoadQuiz(ctx, "quiz-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Len(t, got.Questions, 2)

	_, err = store.LoadQuiz(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}

func TestQuizDataIsStoredAsJSONObject(t *testing.T) {
	ctx := context.Background()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := sqldb.Open(sqldb.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Apply(ctx, db))

	store := sqldb.NewStore(db)
	require.NoError(t, store.PutQuiz(ctx, quiz("quiz-1", "math", 1)))

	var raw string
	err = db.NewSelect().
		Model((*sqldb.QuizModel)(nil)).
		ColumnExpr("CAST(data AS TEXT)").
		Where("id = ?", "quiz-1").
		Scan(ctx, &raw)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, `{"questions":`), "data column holds %q", raw)
}

func TestRecordAttemptThroughSQL(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	recorder := app.NewAttemptRecorderWithClock(
		store,
		app.NewStreakRankAnalyzerWithClock(30, time.UTC, clock),
		app.NewAchievementEvaluatorWithClock(clock),
		app.NewActivityRecorderWithClock(clock),
		clock,
	)

	questions := quiz("quiz-1", "math", 4).Questions
	answers := []domain.SubmittedAnswer{
		{QuestionID: "q1", AnswerID: strPtr("a")},
		{QuestionID: "q2", AnswerID: strPtr("a")},
		{QuestionID: "q3", AnswerID: strPtr("a")},
		{QuestionID: "q4", AnswerID: strPtr("b")},
	}
	res, err := recorder.Record(ctx, app.RecordInput{
		UserID:    "u1",
		QuizID:    "quiz-1",
		QuizTitle: "Quiz quiz-1",
		Score:     app.Score(questions, answers),
		TimeTaken: 33,
		Responses: app.BuildResponses(questions, answers),
	})
	require.NoError(t, err)
	assert.Equal(t, 75, res.Attempt.Score)
	assert.Equal(t, 1, res.Streak)
	assert.Equal(t, 1, res.Rank)
	assert.NotZero(t, res.Attempt.ID)

	var unlocked []string
	for _, a := range res.Unlocked {
		unlocked = append(unlocked, a.Title)
	}
	assert.Equal(t, []string{"First Steps", "Top of the Class"}, unlocked)

	attempt, responses, err := store.GetAttempt(ctx, res.Attempt.ID)
	require.NoError(t, err)
	assert.True(t, now.Equal(attempt.CompletedAt), "completed_at %s", attempt.CompletedAt)
	require.Len(t, responses, 4)
	assert.True(t, responses[0].IsCorrect)
	assert.False(t, responses[3].IsCorrect)

	latest, ok, err := store.LatestAttempt(ctx, "u1", "quiz-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, res.Attempt.ID, latest.ID)

	feed, err := store.ListActivities(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	// a second user with a better average pushes u1 down
	now = now.Add(time.Minute)
	res2, err := recorder.Record(ctx, app.RecordInput{UserID: "u2", QuizID: "quiz-2", Score: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, res2.Rank)

	err = store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		totals, err := tx.ScoreTotals(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, app.RankOf(totals, "u1"))

		active, covered, err := tx.CategoryCoverage(ctx, "u2")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"math", "art"}, active)
		assert.Equal(t, []string{"art"}, covered)

		stats, err := tx.UserStats(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.Stats{QuizzesTaken: 1, AverageScore: 75}, stats)
		return nil
	})
	require.NoError(t, err)
}

func TestRunInTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		a := &domain.Attempt{UserID: "u1", QuizID: "quiz-1", Score: 90, CompletedAt: time.Now().UTC()}
		require.NoError(t, tx.InsertAttempt(ctx, a))
		require.NoError(t, tx.InsertResponses(ctx, []domain.Response{{AttemptID: a.ID, QuestionID: "q1", IsCorrect: true}}))
		_, err := tx.UnlockAchievement(ctx, domain.UserAchievement{UserID: "u1", AchievementID: 1, UnlockedAt: time.Now().UTC()})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	attempts, err := store.ListAttempts(ctx, "u1", "quiz-1")
	require.NoError(t, err)
	assert.Empty(t, attempts)

	err = store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
		unlocked, err := tx.UnlockedAchievements(ctx, "u1")
		require.NoError(t, err)
		assert.Empty(t, unlocked)
		return nil
	})
	require.NoError(t, err)
}

func TestUnlockAchievementIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	unlock := func() bool {
		var inserted bool
		err := store.RunInTx(ctx, func(ctx context.Context, tx app.Tx) error {
			var err error
			inserted, err = tx.UnlockAchievement(ctx, domain.UserAchievement{UserID: "u1", AchievementID: 3, UnlockedAt: time.Now().UTC()})
			return err
		})
		require.NoError(t, err)
		return inserted
	}

	assert.True(t, unlock())
	assert.False(t, unlock())
}

func TestGetAttemptMissing(t *testing.T) {
	store := newTestStore(t)
	_, _, err := store.GetAttempt(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrAttemptNotFound)
}

func strPtr(s string) *string { return &s }
