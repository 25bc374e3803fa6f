package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"quiz-service/internal/config"
	"quiz-service/internal/infra/sqldb"
	"quiz-service/internal/infra/sqldb/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	var seedSample bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath, seedSample)
		},
	}
	cmd.Flags().BoolVar(&seedSample, "seed-sample", false, "also upsert the sample quiz catalog")
	return cmd
}

func runMigrations(ctx context.Context, configPath string, seedSample bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database url not configured")
	}

	db, err := sqldb.Open(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Apply(ctx, db); err != nil {
		return err
	}
	if !seedSample {
		return nil
	}

	store := sqldb.NewStore(db)
	for _, quiz := range sampleQuizzes() {
		if err := store.PutQuiz(ctx, quiz); err != nil {
			return err
		}
	}
	log.Printf("[migrate] seeded %d sample quizzes", len(sampleQuizzes()))
	return nil
}
