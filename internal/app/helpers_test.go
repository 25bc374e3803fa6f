package app_test

import (
	"time"

	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/memory"
)

// fixedClock is a settable clock shared by the components under test.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func (c *fixedClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fixedClock {
	return &fixedClock{t: time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC)}
}

func mcQuestion(id string) domain.Question {
	return domain.Question{
		ID:     id,
		Type:   domain.QuestionMultipleChoice,
		Prompt: "Question " + id,
		Answers: []domain.AnswerOption{
			{ID: "a", Text: "right", IsCorrect: true},
			{ID: "b", Text: "wrong"},
		},
	}
}

func testQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:        "quiz-1",
			Title:     "Arithmetic",
			Category:  "math",
			Active:    true,
			Questions: []domain.Question{mcQuestion("q1"), mcQuestion("q2"), mcQuestion("q3"), mcQuestion("q4")},
		},
		"quiz-2": {
			ID:        "quiz-2",
			Title:     "Capitals",
			Category:  "geography",
			Active:    true,
			Questions: []domain.Question{mcQuestion("q1")},
		},
		"quiz-code": {
			ID:       "quiz-code",
			Title:    "Hello",
			Category: "math",
			Active:   true,
			Questions: []domain.Question{
				{ID: "c1", Type: domain.QuestionCoding, Prompt: "print hi", Language: "python", ExpectedOutput: "hi"},
			},
		},
	}
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func pick(questionID, answerID string) domain.SubmittedAnswer {
	return domain.SubmittedAnswer{QuestionID: questionID, AnswerID: strPtr(answerID)}
}

// fixture wires the submission pipeline over the in-memory store with one clock.
type fixture struct {
	clock    *fixedClock
	loader   *memory.StaticQuizLoader
	store    *memory.AttemptStore
	progress *app.ProgressService
	recorder *app.AttemptRecorder
	guard    *app.SubmissionGuard
}

func newFixture() *fixture {
	clock := newClock()
	loader := memory.NewStaticQuizLoader(testQuizzes())
	mem := memory.NewAttemptStore(loader, nil)
	return newFixtureWith(clock, loader, mem, mem)
}

func newFixtureWith(clock *fixedClock, loader *memory.StaticQuizLoader, mem *memory.AttemptStore, store app.Store) *fixture {
	quizzes := memory.NewQuizRepository(loader, time.Minute)
	return &fixture{
		clock:    clock,
		loader:   loader,
		store:    mem,
		progress: app.NewProgressServiceWithClock(memory.NewProgressStore(), quizzes, clock.Now),
		recorder: app.NewAttemptRecorderWithClock(
			store,
			app.NewStreakRankAnalyzerWithClock(app.DefaultStreakLookbackDays, time.UTC, clock.Now),
			app.NewAchievementEvaluatorWithClock(clock.Now),
			app.NewActivityRecorderWithClock(clock.Now),
			clock.Now,
		),
		guard: app.NewSubmissionGuardWithClock(store, app.DefaultDuplicateWindow, clock.Now),
	}
}

func (f *fixture) service(opts ...app.AttemptServiceOption) *app.AttemptService {
	quizzes := memory.NewQuizRepository(f.loader, time.Minute)
	return app.NewAttemptService(quizzes, f.store, f.guard, f.recorder, f.progress, opts...)
}
