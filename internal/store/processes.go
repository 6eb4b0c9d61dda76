package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/illegalcall/course-notify/internal/models"
)

// Processes records the state of lifecycle processes handled by the step. PostgreSQL
// is the record of truth; Redis holds a copy for status polling.
type Processes struct {
	db     *sqlx.DB
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewProcesses(db *sqlx.DB, rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *Processes {
	return &Processes{db: db, redis: rdb, ttl: ttl, logger: logger}
}

func processKey(id int64) string {
	return fmt.Sprintf("process:%d", id)
}

const upsertProcessQuery = `INSERT INTO step_processes (id, instance_id, course_id, status, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (id) DO UPDATE SET instance_id = EXCLUDED.instance_id, course_id = EXCLUDED.course_id,
		status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`

// SetStatus stores the process state. A failed cache write is logged, not returned.
func (s *Processes) SetStatus(ctx context.Context, p models.Process) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, upsertProcessQuery, p.ID, p.InstanceID, p.CourseID, p.Status, p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update process %d: %w", p.ID, err)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode process %d: %w", p.ID, err)
	}
	if err := s.redis.Set(ctx, processKey(p.ID), data, s.ttl).Err(); err != nil {
		s.logger.Error().Err(err).Int64("process_id", p.ID).Msg("Failed to cache process status")
	}
	return nil
}

// Get returns a process, preferring the cached copy.
func (s *Processes) Get(ctx context.Context, id int64) (models.Process, error) {
	var p models.Process

	data, err := s.redis.Get(ctx, processKey(id)).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
			return p, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Int64("process_id", id).Msg("Process cache unavailable, reading database")
	}

	err = s.db.GetContext(ctx, &p, "SELECT id, instance_id, course_id, status, updated_at FROM step_processes WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Process{}, ErrNotFound
	}
	if err != nil {
		return models.Process{}, fmt.Errorf("failed to fetch process %d: %w", id, err)
	}
	return p, nil
}
