package cli

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quiz-service/internal/app"
	"quiz-service/internal/config"
	"quiz-service/internal/infra/memory"
	pgloader "quiz-service/internal/infra/postgres"
	redisstore "quiz-service/internal/infra/redis"
	"quiz-service/internal/infra/sandbox"
	"quiz-service/internal/infra/sqldb"
	"quiz-service/internal/infra/sqldb/migrations"
	transport "quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var (
		loader memory.QuizLoader
		store  app.Store
	)
	if cfg.Database.URL != "" {
		db, err := sqldb.Open(cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
		sqlStore := sqldb.NewStore(db)
		store = sqlStore
		loader = sqlStore

		if cfg.Database.Driver == "" || cfg.Database.Driver == sqldb.DriverPostgres {
			pool, err := pgxpool.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()
			loader = pgloader.NewQuizLoader(pool)
		}
	} else {
		log.Printf("no database configured, using in-memory storage")
		static := memory.NewStaticQuizLoader(sampleQuizzes())
		loader = static
		store = memory.NewAttemptStore(static, nil)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
	}

	var progressStore app.ProgressStore
	if redisClient != nil {
		progressStore = redisstore.NewProgressStore(redisClient, config.TTLDuration(cfg.Redis.TTL, 24*time.Hour))
	} else {
		progressStore = memory.NewProgressStore()
	}

	feed := app.NewActivityFeed()
	progress := app.NewProgressService(progressStore, quizRepo)
	recorder := app.NewAttemptRecorder(
		store,
		app.NewStreakRankAnalyzer(cfg.Gamification.StreakLookbackDays, loc),
		app.NewAchievementEvaluator(),
		app.NewActivityRecorder(),
	)
	guard := app.NewSubmissionGuard(store, config.TTLDuration(cfg.Submission.DuplicateWindow, app.DefaultDuplicateWindow))

	opts := []app.AttemptServiceOption{app.WithActivityFeed(feed)}
	if cfg.Sandbox.URL != "" {
		opts = append(opts, app.WithCodeRunner(sandbox.NewClient(cfg.Sandbox.URL, config.TTLDuration(cfg.Sandbox.Timeout, 10*time.Second))))
	}
	attempts := app.NewAttemptService(quizRepo, store, guard, recorder, progress, opts...)

	router := transport.NewRouter(transport.NewHandler(attempts, progress, feed), []byte(cfg.Auth.JWTSecret))

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
