package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"quiz-service/internal/infra/sqldb"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			tables := []struct {
				model       interface{}
				foreignKeys []string
			}{
				{model: (*sqldb.QuizModel)(nil)},
				{model: (*sqldb.AttemptModel)(nil)},
				{
					model:       (*sqldb.ResponseModel)(nil),
					foreignKeys: []string{`("attempt_id") REFERENCES "attempts" ("id") ON DELETE CASCADE`},
				},
				{model: (*sqldb.AchievementModel)(nil)},
				{
					model:       (*sqldb.UserAchievementModel)(nil),
					foreignKeys: []string{`("achievement_id") REFERENCES "achievements" ("id") ON DELETE CASCADE`},
				},
				{model: (*sqldb.ActivityModel)(nil)},
			}
			for _, t := range tables {
				q := db.NewCreateTable().Model(t.model).IfNotExists()
				for _, fk := range t.foreignKeys {
					q = q.ForeignKey(fk)
				}
				if _, err := q.Exec(ctx); err != nil {
					return err
				}
			}

			if _, err := db.NewCreateIndex().
				Model((*sqldb.AttemptModel)(nil)).
				Index("attempts_user_quiz_completed_idx").
				Column("user_id", "quiz_id", "completed_at").
				IfNotExists().
				Exec(ctx); err != nil {
				return err
			}
			_, err := db.NewCreateIndex().
				Model((*sqldb.ActivityModel)(nil)).
				Index("activities_user_created_idx").
				Column("user_id", "created_at").
				IfNotExists().
				Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			models := []interface{}{
				(*sqldb.ActivityModel)(nil),
				(*sqldb.UserAchievementModel)(nil),
				(*sqldb.AchievementModel)(nil),
				(*sqldb.ResponseModel)(nil),
				(*sqldb.AttemptModel)(nil),
				(*sqldb.QuizModel)(nil),
			}
			for _, m := range models {
				if _, err := db.NewDropTable().Model(m).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
