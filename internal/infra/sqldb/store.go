package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

// Store is the bun-backed app.Store.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunTx{db: tx})
	})
}

func (s *Store) LatestAttempt(ctx context.Context, userID, quizID string) (domain.Attempt, bool, error) {
	var m AttemptModel
	err := s.db.NewSelect().
		Model(&m).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Order("completed_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, false, nil
	}
	if err != nil {
		return domain.Attempt{}, false, fmt.Errorf("latest attempt: %w", err)
	}
	return attemptFromModel(m), true, nil
}

func (s *Store) ListAttempts(ctx context.Context, userID, quizID string) ([]domain.Attempt, error) {
	var models []AttemptModel
	err := s.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Order("completed_at DESC", "id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, 0, len(models))
	for _, m := range models {
		out = append(out, attemptFromModel(m))
	}
	return out, nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID int64) (domain.Attempt, []domain.Response, error) {
	var m AttemptModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", attemptID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, nil, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, nil, fmt.Errorf("get attempt: %w", err)
	}

	var rows []ResponseModel
	if err := s.db.NewSelect().Model(&rows).Where("attempt_id = ?", attemptID).Order("id ASC").Scan(ctx); err != nil {
		return domain.Attempt{}, nil, fmt.Errorf("get responses: %w", err)
	}
	responses := make([]domain.Response, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, responseFromModel(r))
	}
	return attemptFromModel(m), responses, nil
}

func (s *Store) ListActivities(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	var models []ActivityModel
	q := s.db.NewSelect().
		Model(&models).
		Where("user_id = ?", userID).
		Order("created_at DESC", "id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	out := make([]domain.Activity, 0, len(models))
	for _, m := range models {
		out = append(out, activityFromModel(m))
	}
	return out, nil
}

// LoadQuiz reads a catalog quiz through bun; used when no pgx catalog pool is configured.
func (s *Store) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var m QuizModel
	err := s.db.NewSelect().Model(&m).Where("id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	var body struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(m.Data, &body); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz: %w", err)
	}
	return domain.Quiz{
		ID:        m.ID,
		Title:     m.Title,
		Category:  m.Category,
		Active:    m.IsActive,
		Questions: body.Questions,
	}, nil
}

// PutQuiz upserts a catalog quiz. The catalog is owned elsewhere; this exists for seeding and tests.
func (s *Store) PutQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(struct {
		Questions []domain.Question `json:"questions"`
	}{quiz.Questions})
	if err != nil {
		return fmt.Errorf("marshal quiz: %w", err)
	}
	m := QuizModel{
		ID:       quiz.ID,
		Title:    quiz.Title,
		Category: quiz.Category,
		IsActive: quiz.Active,
		Data:     data,
	}
	_, err = s.db.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("category = EXCLUDED.category").
		Set("is_active = EXCLUDED.is_active").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("put quiz: %w", err)
	}
	return nil
}

// bunTx implements app.Tx over a single bun transaction.
type bunTx struct {
	db bun.IDB
}

func (t *bunTx) InsertAttempt(ctx context.Context, attempt *domain.Attempt) error {
	m := AttemptModel{
		UserID:      attempt.UserID,
		QuizID:      attempt.QuizID,
		Score:       attempt.Score,
		TimeTaken:   attempt.TimeTaken,
		CompletedAt: attempt.CompletedAt,
	}
	if _, err := t.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return err
	}
	attempt.ID = m.ID
	return nil
}

func (t *bunTx) InsertResponses(ctx context.Context, responses []domain.Response) error {
	models := make([]ResponseModel, 0, len(responses))
	for _, r := range responses {
		models = append(models, ResponseModel{
			AttemptID:  r.AttemptID,
			QuestionID: r.QuestionID,
			AnswerID:   r.AnswerID,
			Code:       r.Code,
			Output:     r.Output,
			IsCorrect:  r.IsCorrect,
		})
	}
	if _, err := t.db.NewInsert().Model(&models).Exec(ctx); err != nil {
		return err
	}
	for i := range responses {
		responses[i].ID = models[i].ID
	}
	return nil
}

type statsRow struct {
	Count int64 `bun:"cnt"`
	Total int64 `bun:"total"`
}

func (t *bunTx) UserStats(ctx context.Context, userID string) (domain.Stats, error) {
	var row statsRow
	err := t.db.NewSelect().
		Model((*AttemptModel)(nil)).
		ColumnExpr("COUNT(*) AS cnt").
		ColumnExpr("COALESCE(SUM(score), 0) AS total").
		Where("user_id = ?", userID).
		Scan(ctx, &row)
	if err != nil {
		return domain.Stats{}, err
	}
	stats := domain.Stats{QuizzesTaken: int(row.Count)}
	if row.Count > 0 {
		stats.AverageScore = float64(row.Total) / float64(row.Count)
	}
	return stats, nil
}

func (t *bunTx) CompletionTimes(ctx context.Context, userID string, since time.Time) ([]time.Time, error) {
	var models []AttemptModel
	err := t.db.NewSelect().
		Model(&models).
		Column("completed_at").
		Where("user_id = ?", userID).
		Where("completed_at >= ?", since).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(models))
	for _, m := range models {
		out = append(out, m.CompletedAt)
	}
	return out, nil
}

type scoreTotalRow struct {
	UserID   string `bun:"user_id"`
	Total    int64  `bun:"total"`
	Attempts int64  `bun:"attempts"`
}

func (t *bunTx) ScoreTotals(ctx context.Context) ([]domain.ScoreTotal, error) {
	var rows []scoreTotalRow
	err := t.db.NewSelect().
		Model((*AttemptModel)(nil)).
		Column("user_id").
		ColumnExpr("SUM(score) AS total").
		ColumnExpr("COUNT(*) AS attempts").
		Group("user_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ScoreTotal, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.ScoreTotal{UserID: r.UserID, Total: r.Total, Attempts: r.Attempts})
	}
	return out, nil
}

func (t *bunTx) CategoryCoverage(ctx context.Context, userID string) ([]string, []string, error) {
	var active []string
	err := t.db.NewSelect().
		Model((*QuizModel)(nil)).
		Distinct().
		Column("category").
		Where("is_active = ?", true).
		Where("category <> ''").
		Scan(ctx, &active)
	if err != nil {
		return nil, nil, err
	}

	var covered []string
	err = t.db.NewSelect().
		TableExpr("attempts AS a").
		Join("JOIN quizzes AS q ON q.id = a.quiz_id").
		Distinct().
		ColumnExpr("q.category").
		Where("a.user_id = ?", userID).
		Scan(ctx, &covered)
	if err != nil {
		return nil, nil, err
	}
	return active, covered, nil
}

func (t *bunTx) Achievements(ctx context.Context) ([]domain.Achievement, error) {
	var models []AchievementModel
	if err := t.db.NewSelect().Model(&models).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Achievement, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Achievement{
			ID:              m.ID,
			Title:           m.Title,
			Description:     m.Description,
			Icon:            m.Icon,
			UnlockCondition: m.UnlockCondition,
		})
	}
	return out, nil
}

func (t *bunTx) UnlockedAchievements(ctx context.Context, userID string) (map[int64]bool, error) {
	var ids []int64
	err := t.db.NewSelect().
		Model((*UserAchievementModel)(nil)).
		Column("achievement_id").
		Where("user_id = ?", userID).
		Scan(ctx, &ids)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (t *bunTx) UnlockAchievement(ctx context.Context, unlock domain.UserAchievement) (bool, error) {
	m := UserAchievementModel{
		UserID:        unlock.UserID,
		AchievementID: unlock.AchievementID,
		UnlockedAt:    unlock.UnlockedAt,
	}
	res, err := t.db.NewInsert().
		Model(&m).
		On("CONFLICT (user_id, achievement_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *bunTx) InsertActivity(ctx context.Context, activity *domain.Activity) error {
	m := ActivityModel{
		UserID:    activity.UserID,
		Type:      activity.Type,
		Title:     activity.Title,
		QuizID:    activity.QuizID,
		AttemptID: activity.AttemptID,
		CreatedAt: activity.CreatedAt,
	}
	if _, err := t.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return err
	}
	activity.ID = m.ID
	return nil
}
