package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"quiz-service/internal/domain"
	"quiz-service/internal/infra/sqldb"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			models := sqldb.AchievementModels(domain.DefaultAchievements())
			_, err := db.NewInsert().
				Model(&models).
				On("CONFLICT (id) DO NOTHING").
				Returning("NULL").
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			ids := make([]int64, 0)
			for _, a := range domain.DefaultAchievements() {
				ids = append(ids, a.ID)
			}
			_, err := db.NewDelete().
				Model((*sqldb.AchievementModel)(nil)).
				Where("id IN (?)", bun.In(ids)).
				Exec(ctx)
			return err
		},
	)
}
