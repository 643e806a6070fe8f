package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang-deal-sentinel/internal/sentinel/dto"
	"golang-deal-sentinel/pkg/common"

	"github.com/redis/go-redis/v9"
)

// ErrTaskNotFound is returned when no status document exists for a task ID.
var ErrTaskNotFound = errors.New("task not found")

// TaskStatusRepository stores the pollable progress document for async sweep
// runs. Documents expire after the configured TTL; the sweep_runs table keeps
// the durable history.
type TaskStatusRepository interface {
	Set(ctx context.Context, status *dto.TaskStatus) error
	Get(ctx context.Context, taskID string) (*dto.TaskStatus, error)
}

// NewTaskStatusRepository creates a redis-backed TaskStatusRepository.
func NewTaskStatusRepository(client *redis.Client, ttl time.Duration) TaskStatusRepository {
	return &taskStatusRepository{client: client, ttl: ttl}
}

type taskStatusRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func (r *taskStatusRepository) Set(ctx context.Context, status *dto.TaskStatus) error {
	status.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal task status: %w", err)
	}
	key := common.RedisKeySweepTaskPrefix + status.TaskID
	if err := r.client.Set(ctx, key, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task status: %w", err)
	}
	return nil
}

func (r *taskStatusRepository) Get(ctx context.Context, taskID string) (*dto.TaskStatus, error) {
	payload, err := r.client.Get(ctx, common.RedisKeySweepTaskPrefix+taskID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task status: %w", err)
	}
	var status dto.TaskStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task status: %w", err)
	}
	return &status, nil
}
