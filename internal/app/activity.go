package app

import (
	"context"
	"strings"
	"time"

	"quiz-service/internal/domain"
)

// ActivityRecorder appends feed entries inside the submission transaction.
type ActivityRecorder struct {
	now func() time.Time
}

func NewActivityRecorder() *ActivityRecorder {
	return NewActivityRecorderWithClock(time.Now)
}

// NewActivityRecorderWithClock allows deterministic timestamps in tests.
func NewActivityRecorderWithClock(now func() time.Time) *ActivityRecorder {
	return &ActivityRecorder{now: now}
}

// Append inserts one entry and returns it with its assigned id.
func (r *ActivityRecorder) Append(ctx context.Context, tx Tx, userID, kind, title string, quizID *string, attemptID *int64) (domain.Activity, error) {
	verr := &domain.ValidationError{}
	if strings.TrimSpace(userID) == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "user_id", Message: "is required"})
	}
	if strings.TrimSpace(kind) == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "type", Message: "is required"})
	}
	if strings.TrimSpace(title) == "" {
		verr.Fields = append(verr.Fields, domain.FieldError{Field: "title", Message: "is required"})
	}
	if len(verr.Fields) > 0 {
		return domain.Activity{}, verr
	}

	activity := domain.Activity{
		UserID:    userID,
		Type:      kind,
		Title:     title,
		QuizID:    quizID,
		AttemptID: attemptID,
		CreatedAt: r.now().UTC(),
	}
	if err := tx.InsertActivity(ctx, &activity); err != nil {
		return domain.Activity{}, &domain.PersistenceError{Op: "append activity", Err: err}
	}
	return activity, nil
}
