package notification

import (
	"context"
	"time"

	"github.com/illegalcall/course-notify/internal/models"
)

// CourseResult is the outcome of a course lookup. Found is false when the course
// no longer exists; callers branch on it instead of treating a missing course as an error.
type CourseResult struct {
	Course models.Course
	Found  bool
}

// CourseFound wraps an existing course.
func CourseFound(c models.Course) CourseResult {
	return CourseResult{Course: c, Found: true}
}

// CourseMissing is the result for a course id that has no record.
func CourseMissing() CourseResult {
	return CourseResult{}
}

// CourseFinder looks up courses. The error return is reserved for infrastructure failures.
type CourseFinder interface {
	FindCourse(ctx context.Context, courseID int64) (CourseResult, error)
}

// MemberFinder returns the users holding a role in a course, in lookup order.
type MemberFinder interface {
	MembersByRole(ctx context.Context, roleID models.RoleID, courseID int64) ([]models.User, error)
}

// UserFinder returns a user by id; found is false when there is no such user.
type UserFinder interface {
	FindUser(ctx context.Context, userID int64) (user models.User, found bool, err error)
}

// SettingsLoader reads the raw settings of a step instance.
type SettingsLoader interface {
	Load(ctx context.Context, instanceID int64) (map[string]string, error)
}

// Mailer dispatches one rendered email.
type Mailer interface {
	Send(ctx context.Context, msg models.Email) error
}

// DateFormatter formats a timestamp the way the host displays date-times.
type DateFormatter interface {
	FormatDateTime(t time.Time) string
}
