package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

type Clients struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

func NewClients(ctx context.Context, dbURL string, ro RedisOptions) (*Clients, error) {
	// Connect to PostgreSQL
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     ro.Addr,
		Password: ro.Password,
		DB:       ro.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Clients{
		DB:    db,
		Redis: redisClient,
	}, nil
}

func (c *Clients) Close() error {
	redisErr := c.Redis.Close()
	if err := c.DB.Close(); err != nil {
		return err
	}
	return redisErr
}

// Schema creates the tables read and written by the notification step. The
// course, user and role tables belong to the learning platform; they are created
// here so a fresh database can run the service on its own.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS courses (
		id BIGSERIAL PRIMARY KEY,
		shortname TEXT NOT NULL,
		fullname TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		email TEXT NOT NULL DEFAULT '',
		firstname TEXT NOT NULL DEFAULT '',
		lastname TEXT NOT NULL DEFAULT '',
		mailformat SMALLINT NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS roles (
		id BIGSERIAL PRIMARY KEY,
		shortname TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS role_assignments (
		id BIGSERIAL PRIMARY KEY,
		role_id BIGINT NOT NULL REFERENCES roles(id),
		course_id BIGINT NOT NULL REFERENCES courses(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id)
	);`,
	`CREATE INDEX IF NOT EXISTS role_assignments_course_role ON role_assignments (course_id, role_id);`,
	`CREATE TABLE IF NOT EXISTS step_settings (
		instance_id BIGINT NOT NULL,
		name TEXT NOT NULL,
		value TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (instance_id, name)
	);`,
	`CREATE TABLE IF NOT EXISTS step_processes (
		id BIGINT PRIMARY KEY,
		instance_id BIGINT NOT NULL,
		course_id BIGINT NOT NULL,
		status TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`,
}

func (c *Clients) CreateTables(ctx context.Context) error {
	for _, stmt := range Schema {
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
