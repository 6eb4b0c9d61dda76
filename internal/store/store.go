// Package store implements the notification step collaborators on PostgreSQL and Redis.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/course-notify/internal/models"
	"github.com/illegalcall/course-notify/internal/notification"
)

// ErrNotFound is returned by lookups that have no "missing" variant in their result.
var ErrNotFound = errors.New("record not found")

// Courses reads course records.
type Courses struct {
	db *sqlx.DB
}

func NewCourses(db *sqlx.DB) *Courses {
	return &Courses{db: db}
}

func (s *Courses) FindCourse(ctx context.Context, courseID int64) (notification.CourseResult, error) {
	var c models.Course
	err := s.db.GetContext(ctx, &c, "SELECT id, shortname, fullname FROM courses WHERE id = $1", courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return notification.CourseMissing(), nil
	}
	if err != nil {
		return notification.CourseResult{}, fmt.Errorf("failed to fetch course %d: %w", courseID, err)
	}
	return notification.CourseFound(c), nil
}

// Users reads user accounts.
type Users struct {
	db *sqlx.DB
}

func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

func (s *Users) FindUser(ctx context.Context, userID int64) (models.User, bool, error) {
	var u models.User
	err := s.db.GetContext(ctx, &u, "SELECT id, email, firstname, lastname, mailformat FROM users WHERE id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return u, true, nil
}
