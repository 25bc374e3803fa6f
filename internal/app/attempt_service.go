package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"quiz-service/internal/domain"
)

// SubmitRequest is a user's full answer set for one quiz.
type SubmitRequest struct {
	UserID    string
	QuizID    string
	Answers   []domain.SubmittedAnswer
	TimeTaken int
}

// AttemptService contains the submission pipeline and attempt read use cases.
type AttemptService struct {
	quizzes  QuizRepository
	store    Store
	guard    *SubmissionGuard
	recorder *AttemptRecorder
	progress *ProgressService
	feed     *ActivityFeed
	runner   CodeRunner
}

// AttemptServiceOption customizes optional collaborators.
type AttemptServiceOption func(*AttemptService)

// WithCodeRunner grades coding questions by executing them instead of trusting the client.
func WithCodeRunner(runner CodeRunner) AttemptServiceOption {
	return func(s *AttemptService) { s.runner = runner }
}

// WithActivityFeed publishes committed activity to live subscribers.
func WithActivityFeed(feed *ActivityFeed) AttemptServiceOption {
	return func(s *AttemptService) { s.feed = feed }
}

func NewAttemptService(quizzes QuizRepository, store Store, guard *SubmissionGuard, recorder *AttemptRecorder, progress *ProgressService, opts ...AttemptServiceOption) *AttemptService {
	s := &AttemptService{
		quizzes:  quizzes,
		store:    store,
		guard:    guard,
		recorder: recorder,
		progress: progress,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit guards, scores and records an attempt, then clears the quiz's saved progress.
func (s *AttemptService) Submit(ctx context.Context, req SubmitRequest) (RecordResult, error) {
	if req.Answers == nil {
		return RecordResult{}, domain.NewValidationError("answers", "is required")
	}
	for i, a := range req.Answers {
		if strings.TrimSpace(a.QuestionID) == "" {
			return RecordResult{}, domain.NewValidationError(fmt.Sprintf("answers[%d].question_id", i), "is required")
		}
	}
	if req.TimeTaken < 0 {
		return RecordResult{}, domain.NewValidationError("time_taken", "must not be negative")
	}

	check, err := s.guard.Check(ctx, req.UserID, req.QuizID)
	if err != nil {
		return RecordResult{}, &domain.PersistenceError{Op: "check duplicate", Err: err}
	}
	if check.Duplicate {
		log.Printf("[AttemptService] duplicate submission user=%s quiz=%s prior=%d", req.UserID, req.QuizID, check.PriorAttemptID)
		return RecordResult{}, &domain.DuplicateSubmissionError{AttemptID: check.PriorAttemptID}
	}

	quiz, err := s.quizzes.GetQuiz(ctx, req.QuizID)
	if err != nil {
		return RecordResult{}, err
	}

	answers, err := s.gradeCode(ctx, quiz, req.Answers)
	if err != nil {
		return RecordResult{}, err
	}

	result, err := s.recorder.Record(ctx, RecordInput{
		UserID:    req.UserID,
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		Score:     Score(quiz.Questions, answers),
		TimeTaken: req.TimeTaken,
		Responses: BuildResponses(quiz.Questions, answers),
	})
	if err != nil {
		return RecordResult{}, err
	}

	if s.progress != nil {
		if err := s.progress.Clear(ctx, req.UserID, req.QuizID); err != nil {
			log.Printf("[AttemptService] clear progress user=%s quiz=%s: %v", req.UserID, req.QuizID, err)
		}
	}
	if s.feed != nil {
		s.feed.Publish(result.Activities...)
	}

	log.Printf("[AttemptService] recorded attempt=%d user=%s quiz=%s score=%d unlocked=%d",
		result.Attempt.ID, req.UserID, req.QuizID, result.Attempt.Score, len(result.Unlocked))
	return result, nil
}

// ListAttempts returns the user's attempts for a quiz, newest first.
func (s *AttemptService) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.Attempt, error) {
	return s.store.ListAttempts(ctx, userID, quizID)
}

// GetAttempt returns the attempt with its responses. Attempts of other users are
// reported as not found unless the caller is an admin.
func (s *AttemptService) GetAttempt(ctx context.Context, callerID string, isAdmin bool, quizID string, attemptID int64) (domain.Attempt, []domain.Response, error) {
	attempt, responses, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, nil, err
	}
	if attempt.QuizID != quizID || (attempt.UserID != callerID && !isAdmin) {
		return domain.Attempt{}, nil, domain.ErrAttemptNotFound
	}
	return attempt, responses, nil
}

// ListActivities returns the user's feed, newest first.
func (s *AttemptService) ListActivities(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	return s.store.ListActivities(ctx, userID, limit)
}

// gradeCode runs coding answers through the sandbox when one is configured.
// Without a runner the client-supplied is_correct and output are kept.
func (s *AttemptService) gradeCode(ctx context.Context, quiz domain.Quiz, answers []domain.SubmittedAnswer) ([]domain.SubmittedAnswer, error) {
	if s.runner == nil {
		return answers, nil
	}
	questions := make(map[string]domain.Question, len(quiz.Questions))
	for _, q := range quiz.Questions {
		questions[q.ID] = q
	}

	graded := make([]domain.SubmittedAnswer, len(answers))
	for i, a := range answers {
		graded[i] = a
		q, ok := questions[a.QuestionID]
		if !ok || !q.IsCoding() || a.Code == nil {
			continue
		}
		res, err := s.runner.Execute(ctx, q.Language, *a.Code, q.Stdin)
		if err != nil {
			return nil, fmt.Errorf("execute code for question %s: %w", q.ID, err)
		}
		output := res.Output
		if res.Error != "" {
			output = res.Error
		}
		correct := res.Error == "" && strings.TrimSpace(res.Output) == strings.TrimSpace(q.ExpectedOutput)
		graded[i].Output = &output
		graded[i].IsCorrect = &correct
	}
	return graded, nil
}
