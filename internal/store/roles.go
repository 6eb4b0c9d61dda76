package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/illegalcall/course-notify/internal/models"
)

// Roles reads roles and their course assignments.
type Roles struct {
	db *sqlx.DB
}

func NewRoles(db *sqlx.DB) *Roles {
	return &Roles{db: db}
}

// Role ids are compared in their textual form so an id that is not a number
// matches nothing instead of failing the query.
const membersByRoleQuery = `SELECT u.id, u.email, u.firstname, u.lastname, u.mailformat
	FROM role_assignments ra
	JOIN users u ON u.id = ra.user_id
	WHERE ra.role_id::text = $1 AND ra.course_id = $2
	ORDER BY ra.id`

// MembersByRole returns the users assigned roleID in a course, in assignment order.
func (s *Roles) MembersByRole(ctx context.Context, roleID models.RoleID, courseID int64) ([]models.User, error) {
	var users []models.User
	if err := s.db.SelectContext(ctx, &users, membersByRoleQuery, string(roleID), courseID); err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}
	return users, nil
}

// All lists every role, for the settings form.
func (s *Roles) All(ctx context.Context) ([]models.Role, error) {
	roles := []models.Role{}
	if err := s.db.SelectContext(ctx, &roles, "SELECT id, shortname, name FROM roles ORDER BY id"); err != nil {
		return nil, fmt.Errorf("failed to fetch roles: %w", err)
	}
	return roles, nil
}
