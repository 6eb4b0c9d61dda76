package notification

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/illegalcall/course-notify/internal/models"
)

// Recipient is one resolved address. It is either a RoleRecipient or an ExternalRecipient.
type Recipient interface {
	Address() string
	recipient()
}

// RoleRecipient is a course member selected through one of the configured roles.
type RoleRecipient struct {
	User models.User
	Role models.RoleID
}

func (r RoleRecipient) Address() string { return r.User.Email }
func (RoleRecipient) recipient()        {}

// ExternalRecipient is a configured address that is not tied to a platform account.
type ExternalRecipient struct {
	Email string
}

func (r ExternalRecipient) Address() string { return r.Email }
func (ExternalRecipient) recipient()        {}

// UserID returns the account behind a recipient. External recipients have none.
func UserID(r Recipient) (int64, bool) {
	if rr, ok := r.(RoleRecipient); ok {
		return rr.User.ID, true
	}
	return 0, false
}

// Resolver builds the ordered recipient list of a course.
type Resolver struct {
	Courses CourseFinder
	Members MemberFinder
	Logger  zerolog.Logger
}

// Resolve returns the members of every role in roleIDs, in role order and without
// deduplication, followed by one ExternalRecipient per external email segment.
// A course that no longer exists only drops the role based part.
func (r *Resolver) Resolve(ctx context.Context, courseID int64, roleIDs []models.RoleID, externalEmails []string) ([]Recipient, error) {
	recipients := make([]Recipient, 0, len(externalEmails))

	courseChecked := false
	for _, roleID := range roleIDs {
		if strings.TrimSpace(string(roleID)) == "" {
			continue
		}
		if !courseChecked {
			res, err := r.Courses.FindCourse(ctx, courseID)
			if err != nil {
				return nil, fmt.Errorf("failed to look up course %d: %w", courseID, err)
			}
			if !res.Found {
				r.Logger.Warn().Int64("course_id", courseID).Msg("The course no longer exists")
				break
			}
			courseChecked = true
		}

		users, err := r.Members.MembersByRole(ctx, roleID, courseID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch members of role %s in course %d: %w", roleID, courseID, err)
		}
		for _, u := range users {
			recipients = append(recipients, RoleRecipient{User: u, Role: roleID})
		}
	}

	for _, email := range externalEmails {
		recipients = append(recipients, ExternalRecipient{Email: email})
	}
	return recipients, nil
}
