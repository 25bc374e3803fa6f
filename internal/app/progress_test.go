package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
)

func rawAnswers(t *testing.T, v map[string]interface{}) map[string]json.RawMessage {
	t.Helper()
	out := make(map[string]json.RawMessage, len(v))
	for k, val := range v {
		raw, err := json.Marshal(val)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		out[k] = raw
	}
	return out
}

func TestProgressSaveLoadClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	snap, err := f.progress.Save(ctx, "u1", "quiz-1", 2, rawAnswers(t, map[string]interface{}{"q1": "a"}))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if snap.LastUpdated != f.clock.Now().Unix() {
		t.Fatalf("expected last_updated from clock, got %d", snap.LastUpdated)
	}

	loaded, ok, err := f.progress.Load(ctx, "u1", "quiz-1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.CurrentQuestion != 2 || len(loaded.Answers) != 1 {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}

	// last write wins
	if _, err := f.progress.Save(ctx, "u1", "quiz-1", 1, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, _, _ = f.progress.Load(ctx, "u1", "quiz-1")
	if loaded.CurrentQuestion != 1 || len(loaded.Answers) != 0 {
		t.Fatalf("expected overwrite, got %+v", loaded)
	}

	if err := f.progress.Clear(ctx, "u1", "quiz-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := f.progress.Load(ctx, "u1", "quiz-1"); ok {
		t.Fatalf("expected snapshot cleared")
	}
}

func TestProgressSaveWithoutProgressIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	if _, err := f.progress.Save(ctx, "u1", "quiz-1", 0, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := f.progress.Load(ctx, "u1", "quiz-1"); ok {
		t.Fatalf("expected nothing stored for an untouched quiz")
	}

	if _, err := f.progress.Save(ctx, "u1", "quiz-1", 3, rawAnswers(t, map[string]interface{}{"q1": "a"})); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := f.progress.Save(ctx, "u1", "quiz-1", 0, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := f.progress.Load(ctx, "u1", "quiz-1"); ok {
		t.Fatalf("expected a reset save to drop the earlier snapshot")
	}

	_, err := f.progress.Save(ctx, "u1", "quiz-1", -1, nil)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMostRecentActiveQuiz(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	active, err := f.progress.MostRecent(ctx, "u1")
	if err != nil || active != nil {
		t.Fatalf("expected nil with no progress, got %+v err=%v", active, err)
	}

	if _, err := f.progress.Save(ctx, "u1", "quiz-1", 1, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.progress.Save(ctx, "u1", "quiz-2", 1, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	active, err = f.progress.MostRecent(ctx, "u1")
	if err != nil {
		t.Fatalf("most recent: %v", err)
	}
	if active == nil || active.QuizID != "quiz-2" || active.Title != "Capitals" || active.TotalQuestions != 1 {
		t.Fatalf("unexpected active quiz: %+v", active)
	}

	// a finished-looking snapshot is passed over
	f.clock.Advance(time.Minute)
	done := rawAnswers(t, map[string]interface{}{"q1": "Paris (correct)"})
	if _, err := f.progress.Save(ctx, "u1", "quiz-2", 1, done); err != nil {
		t.Fatalf("save: %v", err)
	}
	active, _ = f.progress.MostRecent(ctx, "u1")
	if active == nil || active.QuizID != "quiz-1" || active.TotalQuestions != 4 {
		t.Fatalf("expected quiz-1, got %+v", active)
	}
}

func TestMostRecentSkipsMissingQuiz(t *testing.T) {
	ctx := context.Background()
	store := memory.NewProgressStore()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(testQuizzes()), time.Minute)
	clock := newClock()
	progress := app.NewProgressServiceWithClock(store, quizzes, clock.Now)

	if _, err := progress.Save(ctx, "u1", "quiz-1", 1, nil); err != nil {
		t.Fatalf("save: %v", err)
	}
	clock.Advance(time.Minute)
	if _, err := progress.Save(ctx, "u1", "retired", 3, nil); err != nil {
		t.Fatalf("save: %v", err)
	}

	active, err := progress.MostRecent(ctx, "u1")
	if err != nil {
		t.Fatalf("most recent: %v", err)
	}
	if active == nil || active.QuizID != "quiz-1" {
		t.Fatalf("expected quiz-1, got %+v", active)
	}
}

func TestProgressKeyRoundTrip(t *testing.T) {
	key := app.ProgressKey("quiz-7")
	if key != "quiz_progress_quiz-7" {
		t.Fatalf("unexpected key %q", key)
	}
	if id, ok := app.QuizIDFromKey(key); !ok || id != "quiz-7" {
		t.Fatalf("expected quiz-7, got %q ok=%v", id, ok)
	}
	if _, ok := app.QuizIDFromKey("cart_items"); ok {
		t.Fatalf("foreign key must not parse")
	}
}
