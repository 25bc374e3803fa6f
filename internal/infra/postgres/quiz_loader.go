package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"quiz-service/internal/domain"
)

// QuizLoader reads catalog quizzes straight from Postgres; questions live in the data JSONB column.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz := domain.Quiz{ID: quizID}
	var raw []byte
	err := l.pool.QueryRow(ctx,
		`SELECT title, category, is_active, data FROM quizzes WHERE id=$1`, quizID,
	).Scan(&quiz.Title, &quiz.Category, &quiz.Active, &raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var body struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	quiz.Questions = body.Questions
	return quiz, nil
}
