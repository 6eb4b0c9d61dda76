package notification

import (
	"context"
	"errors"
	"time"

	"github.com/illegalcall/course-notify/internal/models"
)

var errBackend = errors.New("connection reset by peer")

type fakeCourses struct {
	courses map[int64]models.Course
	err     error
	calls   int
}

func (f *fakeCourses) FindCourse(_ context.Context, courseID int64) (CourseResult, error) {
	f.calls++
	if f.err != nil {
		return CourseResult{}, f.err
	}
	c, ok := f.courses[courseID]
	if !ok {
		return CourseMissing(), nil
	}
	return CourseFound(c), nil
}

type membersKey struct {
	role   models.RoleID
	course int64
}

type fakeMembers struct {
	members map[membersKey][]models.User
	err     error
	asked   []models.RoleID
}

func (f *fakeMembers) MembersByRole(_ context.Context, roleID models.RoleID, courseID int64) ([]models.User, error) {
	f.asked = append(f.asked, roleID)
	if f.err != nil {
		return nil, f.err
	}
	return f.members[membersKey{roleID, courseID}], nil
}

type fakeUsers struct {
	users map[int64]models.User
	err   error
}

func (f *fakeUsers) FindUser(_ context.Context, userID int64) (models.User, bool, error) {
	if f.err != nil {
		return models.User{}, false, f.err
	}
	u, ok := f.users[userID]
	return u, ok, nil
}

type fakeSettings struct {
	settings map[int64]map[string]string
	err      error
}

func (f *fakeSettings) Load(_ context.Context, instanceID int64) (map[string]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.settings[instanceID], nil
}

type fixedDates struct{}

func (fixedDates) FormatDateTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

var fixedNow = time.Date(2024, time.March, 5, 14, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
