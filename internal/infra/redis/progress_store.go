package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

// ProgressStore keeps each user's session as one Redis hash:
//
//	HSET quiz:session:{userID} quiz_progress_{quizID} {snapshot json}
//
// The whole session expires after ttl of inactivity.
type ProgressStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProgressStore(client *redis.Client, ttl time.Duration) *ProgressStore {
	return &ProgressStore{client: client, ttl: ttl}
}

func (s *ProgressStore) Save(ctx context.Context, userID, quizID string, snap domain.ProgressSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal progress: %w", err)
	}
	key := s.key(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, app.ProgressKey(quizID), raw)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) Load(ctx context.Context, userID, quizID string) (domain.ProgressSnapshot, bool, error) {
	raw, err := s.client.HGet(ctx, s.key(userID), app.ProgressKey(quizID)).Bytes()
	if err == redis.Nil {
		return domain.ProgressSnapshot{}, false, nil
	}
	if err != nil {
		return domain.ProgressSnapshot{}, false, fmt.Errorf("load progress: %w", err)
	}
	var snap domain.ProgressSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return domain.ProgressSnapshot{}, false, fmt.Errorf("unmarshal progress: %w", err)
	}
	return snap, true, nil
}

func (s *ProgressStore) Clear(ctx context.Context, userID, quizID string) error {
	if err := s.client.HDel(ctx, s.key(userID), app.ProgressKey(quizID)).Err(); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}

// All skips entries that are not progress snapshots or fail to decode.
func (s *ProgressStore) All(ctx context.Context, userID string) (map[string]domain.ProgressSnapshot, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make(map[string]domain.ProgressSnapshot, len(fields))
	for field, raw := range fields {
		quizID, ok := app.QuizIDFromKey(field)
		if !ok {
			continue
		}
		var snap domain.ProgressSnapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			continue
		}
		out[quizID] = snap
	}
	return out, nil
}

func (s *ProgressStore) key(userID string) string {
	return "quiz:session:" + userID
}
