package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
	pgloader "quiz-service/internal/infra/postgres"
	infraredis "quiz-service/internal/infra/redis"
	"quiz-service/internal/infra/sqldb"
	"quiz-service/internal/infra/sqldb/migrations"
)

func TestSubmitAttemptEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db, err := sqldb.Open(sqldb.DriverPostgres, pgURL)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := sqldb.NewStore(db)
	if err := store.PutQuiz(ctx, sampleQuiz()); err != nil {
		t.Fatalf("seed quiz: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	quizRepo := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)
	progress := app.NewProgressService(infraredis.NewProgressStore(redisClient, 5*time.Minute), quizRepo)
	recorder := app.NewAttemptRecorder(
		store,
		app.NewStreakRankAnalyzer(app.DefaultStreakLookbackDays, time.UTC),
		app.NewAchievementEvaluator(),
		app.NewActivityRecorder(),
	)
	service := app.NewAttemptService(quizRepo, store,
		app.NewSubmissionGuard(store, app.DefaultDuplicateWindow), recorder, progress)

	if _, err := progress.Save(ctx, "u1", "quiz-1", 1, nil); err != nil {
		t.Fatalf("save progress: %v", err)
	}

	first, err := service.Submit(ctx, app.SubmitRequest{
		UserID:    "u1",
		QuizID:    "quiz-1",
		TimeTaken: 30,
		Answers:   answers("a", "a", "a", "b"),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Attempt.Score != 75 || first.Rank != 1 || first.Streak != 1 {
		t.Fatalf("unexpected result: %+v", first)
	}
	if len(first.Responses) != 4 {
		t.Fatalf("expected 4 responses, got %d", len(first.Responses))
	}

	if _, ok, err := progress.Load(ctx, "u1", "quiz-1"); err != nil || ok {
		t.Fatalf("expected progress cleared, ok=%v err=%v", ok, err)
	}

	_, err = service.Submit(ctx, app.SubmitRequest{UserID: "u1", QuizID: "quiz-1", Answers: answers("a")})
	var dup *domain.DuplicateSubmissionError
	if !errors.As(err, &dup) || dup.AttemptID != first.Attempt.ID {
		t.Fatalf("expected duplicate of %d, got %v", first.Attempt.ID, err)
	}

	second, err := service.Submit(ctx, app.SubmitRequest{
		UserID:  "u2",
		QuizID:  "quiz-1",
		Answers: answers("a", "a", "a", "a"),
	})
	if err != nil {
		t.Fatalf("submit u2: %v", err)
	}
	if second.Attempt.Score != 100 || second.Rank != 1 {
		t.Fatalf("expected u2 perfect and top, got %+v", second)
	}
	if !unlocked(second.Unlocked, "Perfectionist") {
		t.Fatalf("expected Perfectionist, got %+v", second.Unlocked)
	}

	activities, err := store.ListActivities(ctx, "u1", 0)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != len(first.Activities) {
		t.Fatalf("expected %d activities, got %d", len(first.Activities), len(activities))
	}
}

func answers(picks ...string) []domain.SubmittedAnswer {
	out := make([]domain.SubmittedAnswer, 0, len(picks))
	for i, p := range picks {
		pick := p
		out = append(out, domain.SubmittedAnswer{QuestionID: fmt.Sprintf("q%d", i+1), AnswerID: &pick})
	}
	return out
}

func unlocked(list []domain.Achievement, title string) bool {
	for _, a := range list {
		if a.Title == title {
			return true
		}
	}
	return false
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func sampleQuiz() domain.Quiz {
	q := func(id string) domain.Question {
		return domain.Question{
			ID:     id,
			Type:   domain.QuestionMultipleChoice,
			Prompt: "Question " + id,
			Answers: []domain.AnswerOption{
				{ID: "a", Text: "right", IsCorrect: true},
				{ID: "b", Text: "wrong"},
			},
		}
	}
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Integration",
		Category:  "general",
		Active:    true,
		Questions: []domain.Question{q("q1"), q("q2"), q("q3"), q("q4")},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
