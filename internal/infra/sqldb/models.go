package sqldb

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
	"quiz-service/internal/domain"
)

// QuizModel is the externally managed catalog row; questions are JSON in Data.
type QuizModel struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID       string          `bun:"id,pk"`
	Title    string          `bun:"title,notnull"`
	Category string          `bun:"category,notnull"`
	IsActive bool            `bun:"is_active,notnull"`
	Data     json.RawMessage `bun:"data,type:jsonb,notnull"`
}

type AttemptModel struct {
	bun.BaseModel `bun:"table:attempts"`

	ID          int64     `bun:"id,pk,autoincrement"`
	UserID      string    `bun:"user_id,notnull"`
	QuizID      string    `bun:"quiz_id,notnull"`
	Score       int       `bun:"score,notnull"`
	TimeTaken   int       `bun:"time_taken,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

type ResponseModel struct {
	bun.BaseModel `bun:"table:responses"`

	ID         int64   `bun:"id,pk,autoincrement"`
	AttemptID  int64   `bun:"attempt_id,notnull"`
	QuestionID string  `bun:"question_id,notnull"`
	AnswerID   *string `bun:"answer_id"`
	Code       *string `bun:"code"`
	Output     *string `bun:"output"`
	IsCorrect  bool    `bun:"is_correct,notnull"`
}

type AchievementModel struct {
	bun.BaseModel `bun:"table:achievements"`

	ID              int64  `bun:"id,pk"`
	Title           string `bun:"title,notnull"`
	Description     string `bun:"description,notnull"`
	Icon            string `bun:"icon,notnull"`
	UnlockCondition string `bun:"unlock_condition,notnull"`
}

// UserAchievementModel is unique per (user, achievement); duplicate unlocks are no-ops.
type UserAchievementModel struct {
	bun.BaseModel `bun:"table:user_achievements"`

	ID            int64     `bun:"id,pk,autoincrement"`
	UserID        string    `bun:"user_id,notnull,unique:user_achievements_user_achievement_key"`
	AchievementID int64     `bun:"achievement_id,notnull,unique:user_achievements_user_achievement_key"`
	UnlockedAt    time.Time `bun:"unlocked_at,notnull"`
}

type ActivityModel struct {
	bun.BaseModel `bun:"table:activities"`

	ID        int64     `bun:"id,pk,autoincrement"`
	UserID    string    `bun:"user_id,notnull"`
	Type      string    `bun:"type,notnull"`
	Title     string    `bun:"title,notnull"`
	QuizID    *string   `bun:"quiz_id"`
	AttemptID *int64    `bun:"attempt_id"`
	CreatedAt time.Time `bun:"created_at,notnull"`
}

func attemptFromModel(m AttemptModel) domain.Attempt {
	return domain.Attempt{
		ID:          m.ID,
		UserID:      m.UserID,
		QuizID:      m.QuizID,
		Score:       m.Score,
		TimeTaken:   m.TimeTaken,
		CompletedAt: m.CompletedAt.UTC(),
	}
}

func responseFromModel(m ResponseModel) domain.Response {
	return domain.Response{
		ID:         m.ID,
		AttemptID:  m.AttemptID,
		QuestionID: m.QuestionID,
		AnswerID:   m.AnswerID,
		Code:       m.Code,
		Output:     m.Output,
		IsCorrect:  m.IsCorrect,
	}
}

func activityFromModel(m ActivityModel) domain.Activity {
	return domain.Activity{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		QuizID:    m.QuizID,
		AttemptID: m.AttemptID,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

// AchievementModels converts catalog entries for seeding.
func AchievementModels(achievements []domain.Achievement) []AchievementModel {
	out := make([]AchievementModel, 0, len(achievements))
	for _, a := range achievements {
		out = append(out, AchievementModel{
			ID:              a.ID,
			Title:           a.Title,
			Description:     a.Description,
			Icon:            a.Icon,
			UnlockCondition: a.UnlockCondition,
		})
	}
	return out
}
