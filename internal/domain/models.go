package domain

import (
	"encoding/json"
	"time"
)

// QuestionType distinguishes how a question is graded.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCoding         QuestionType = "coding"
)

// AnswerOption represents a possible answer for a multiple-choice question.
type AnswerOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is either a multiple-choice question or a coding task.
type Question struct {
	ID             string         `json:"id"`
	Type           QuestionType   `json:"type"`
	Prompt         string         `json:"prompt"`
	Answers        []AnswerOption `json:"answers,omitempty"`
	Language       string         `json:"language,omitempty"`
	Stdin          string         `json:"stdin,omitempty"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
}

// IsCoding reports whether the question is graded by running code.
func (q Question) IsCoding() bool {
	return q.Type == QuestionCoding
}

// CorrectAnswerID returns the first option flagged correct, or "" if none is.
func (q Question) CorrectAnswerID() string {
	for _, a := range q.Answers {
		if a.IsCorrect {
			return a.ID
		}
	}
	return ""
}

// Quiz is a catalog entry with its question set.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Active    bool       `json:"active"`
	Questions []Question `json:"questions"`
}

// Attempt is one completed, scored run of a quiz by a user.
type Attempt struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	QuizID      string    `json:"quiz_id"`
	Score       int       `json:"score"`
	TimeTaken   int       `json:"time_taken"`
	CompletedAt time.Time `json:"completed_at"`
}

// Response is the recorded answer to one question within an attempt.
type Response struct {
	ID         int64   `json:"id"`
	AttemptID  int64   `json:"attempt_id"`
	QuestionID string  `json:"question_id"`
	AnswerID   *string `json:"answer_id"`
	Code       *string `json:"code"`
	Output     *string `json:"output"`
	IsCorrect  bool    `json:"is_correct"`
}

// SubmittedAnswer is the client payload for one question.
type SubmittedAnswer struct {
	QuestionID string  `json:"question_id"`
	AnswerID   *string `json:"answer_id,omitempty"`
	Code       *string `json:"code,omitempty"`
	Output     *string `json:"output,omitempty"`
	IsCorrect  *bool   `json:"is_correct,omitempty"`
}

// Achievement is a catalog badge unlocked by a rule.
type Achievement struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Icon            string     `json:"icon"`
	UnlockCondition string     `json:"unlock_condition"`
	Rule            UnlockRule `json:"-"`
}

// UserAchievement records that a user unlocked an achievement.
type UserAchievement struct {
	UserID        string    `json:"user_id"`
	AchievementID int64     `json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
}

// Activity kinds written by the submission pipeline.
const (
	ActivityQuizCompleted = "quiz_completed"
	ActivityAchievement   = "achievement"
)

// Activity is an append-only feed entry.
type Activity struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	QuizID    *string   `json:"quiz_id,omitempty"`
	AttemptID *int64    `json:"attempt_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats aggregates a user's attempt history.
type Stats struct {
	QuizzesTaken int     `json:"quizzes_taken"`
	AverageScore float64 `json:"average_score"`
}

// ScoreTotal is a per-user score sum used for ranking.
type ScoreTotal struct {
	UserID   string
	Total    int64
	Attempts int64
}

// ProgressSnapshot is scratch state for an in-flight quiz. It is never used for scoring.
type ProgressSnapshot struct {
	CurrentQuestion int                        `json:"current_question"`
	Answers         map[string]json.RawMessage `json:"answers"`
	LastUpdated     int64                      `json:"last_updated"`
}

// HasProgress reports whether the snapshot carries anything worth keeping.
func (p ProgressSnapshot) HasProgress() bool {
	return p.CurrentQuestion > 0 || len(p.Answers) > 0
}

// ActiveQuiz is the most recently touched in-progress quiz, enriched from the catalog.
type ActiveQuiz struct {
	QuizID          string                     `json:"quiz_id"`
	Title           string                     `json:"title"`
	TotalQuestions  int                        `json:"total_questions"`
	CurrentQuestion int                        `json:"current_question"`
	Answers         map[string]json.RawMessage `json:"answers"`
	LastUpdated     int64                      `json:"last_updated"`
}
