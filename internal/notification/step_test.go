package notification

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/course-notify/internal/mailer"
	"github.com/illegalcall/course-notify/internal/metrics"
	"github.com/illegalcall/course-notify/internal/models"
)

var noReply = models.Address{Name: "No Reply", Email: "noreply@example.com"}

type stepFixture struct {
	step     *Step
	courses  *fakeCourses
	members  *fakeMembers
	settings *fakeSettings
	mail     *mailer.Memory
	metrics  *metrics.StepMetrics
}

func newStepFixture(settings map[string]string) *stepFixture {
	jane := models.User{ID: 10, Email: "jane@example.com", FirstName: "Jane", LastName: "Doe", MailFormat: models.MailFormatHTML}

	f := &stepFixture{
		courses: &fakeCourses{courses: map[int64]models.Course{
			1: {ID: 1, ShortName: "C1", FullName: "Course One"},
		}},
		members: &fakeMembers{members: map[membersKey][]models.User{
			{"teacherRoleId", 1}: {jane},
		}},
		settings: &fakeSettings{settings: map[int64]map[string]string{4: settings}},
		mail:     mailer.NewMemory(),
		metrics:  metrics.NewStepMetrics("test", prometheus.NewRegistry()),
	}
	users := &fakeUsers{users: map[int64]models.User{jane.ID: jane}}

	f.step = &Step{
		Settings: f.settings,
		Resolver: &Resolver{Courses: f.courses, Members: f.members, Logger: zerolog.Nop()},
		Renderer: &Renderer{Courses: f.courses, Users: users, Dates: fixedDates{}, Now: fixedClock, Logger: zerolog.Nop()},
		Mailer:   f.mail,
		From:     noReply,
		Metrics:  f.metrics,
		Logger:   zerolog.Nop(),
	}
	return f
}

func event(courseID int64) models.StepEvent {
	return models.StepEvent{EventID: "ev-1", ProcessID: 100, InstanceID: 4, CourseID: courseID}
}

func TestProcessCourse_RoleAndExternalRecipients(t *testing.T) {
	f := newStepFixture(map[string]string{
		SettingRoles:       "teacherRoleId",
		SettingEmails:      "ext@x.com",
		SettingSubject:     "Subject ##courseshortname##",
		SettingContent:     "Plain ##userfirstname## ##userlastname## ##coursefullname##",
		SettingContentHTML: "<p>Hello ##userfirstname##</p>",
	})

	resp, err := f.step.ProcessCourse(context.Background(), event(1))
	require.NoError(t, err)
	assert.Equal(t, models.ActionProceed, resp.Action)
	assert.Equal(t, int64(100), resp.ProcessID)

	sent := f.mail.Sent()
	require.Len(t, sent, 2)

	assert.Equal(t, models.Address{Name: "Jane Doe", Email: "jane@example.com"}, sent[0].To)
	assert.Equal(t, noReply, sent[0].From)
	assert.Equal(t, "Subject C1", sent[0].Subject)
	assert.Equal(t, "Plain Jane Doe Course One", sent[0].PlainBody)
	assert.Equal(t, "<p>Hello Jane</p>", sent[0].HTMLBody)
	assert.True(t, sent[0].HTML)

	assert.Equal(t, models.Address{Email: "ext@x.com"}, sent[1].To)
	assert.Equal(t, "Subject C1", sent[1].Subject)
	assert.Equal(t, "Plain Course One", sent[1].PlainBody)
	assert.Equal(t, "<p>Hello </p>", sent[1].HTMLBody)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Sent.WithLabelValues(metrics.KindRole)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Sent.WithLabelValues(metrics.KindExternal)))
}

func TestProcessCourse_DeletedCourse(t *testing.T) {
	f := newStepFixture(map[string]string{
		SettingRoles:       "teacherRoleId",
		SettingEmails:      "ext@x.com",
		SettingSubject:     "S ##courseid##",
		SettingContent:     "B ##coursefullname## ##courseshortname## ##courseid##",
		SettingContentHTML: "",
	})

	resp, err := f.step.ProcessCourse(context.Background(), event(99))
	require.NoError(t, err)
	assert.Equal(t, models.ActionProceed, resp.Action)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ext@x.com", sent[0].To.Email)
	assert.Equal(t, "S 99", sent[0].Subject)
	assert.Equal(t, "B Course full name not found Course short name not found 99", sent[0].PlainBody)
}

func TestProcessCourse_PlainTextRecipient(t *testing.T) {
	f := newStepFixture(map[string]string{
		SettingRoles:       "teacherRoleId",
		SettingEmails:      "ext@x.com",
		SettingSubject:     "s",
		SettingContent:     "c",
		SettingContentHTML: "<b>h</b>",
	})
	jane := f.members.members[membersKey{"teacherRoleId", 1}][0]
	jane.MailFormat = models.MailFormatPlain
	f.members.members[membersKey{"teacherRoleId", 1}] = []models.User{jane}

	_, err := f.step.ProcessCourse(context.Background(), event(1))
	require.NoError(t, err)

	sent := f.mail.Sent()
	require.Len(t, sent, 2)
	assert.False(t, sent[0].HTML)
	assert.True(t, sent[1].HTML)
}

func TestProcessCourse_DispatchFailureDoesNotStopOthers(t *testing.T) {
	f := newStepFixture(map[string]string{
		SettingRoles:       "teacherRoleId",
		SettingEmails:      "bounce@x.com;ext@x.com",
		SettingSubject:     "s",
		SettingContent:     "c",
		SettingContentHTML: "h",
	})
	f.mail.Fail["bounce@x.com"] = assert.AnError

	_, err := f.step.ProcessCourse(context.Background(), event(1))
	require.NoError(t, err)

	sent := f.mail.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "jane@example.com", sent[0].To.Email)
	assert.Equal(t, "ext@x.com", sent[1].To.Email)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Failed.WithLabelValues(metrics.KindExternal)))
}

func TestProcessCourse_EmptyAddressSkipped(t *testing.T) {
	f := newStepFixture(map[string]string{
		SettingRoles:       "",
		SettingEmails:      "",
		SettingSubject:     "s",
		SettingContent:     "c",
		SettingContentHTML: "h",
	})

	_, err := f.step.ProcessCourse(context.Background(), event(1))
	require.NoError(t, err)

	assert.Empty(t, f.mail.Sent())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Skipped))
}

func TestProcessCourse_FailsBeforeDispatch(t *testing.T) {
	t.Run("settings backend", func(t *testing.T) {
		f := newStepFixture(nil)
		f.settings.err = errBackend

		_, err := f.step.ProcessCourse(context.Background(), event(1))
		assert.ErrorIs(t, err, errBackend)
		assert.Empty(t, f.mail.Sent())
	})

	t.Run("incomplete settings", func(t *testing.T) {
		f := newStepFixture(map[string]string{SettingRoles: "teacherRoleId"})

		_, err := f.step.ProcessCourse(context.Background(), event(1))
		assert.ErrorIs(t, err, ErrInvalidSettings)
		assert.Empty(t, f.mail.Sent())
	})

	t.Run("membership backend", func(t *testing.T) {
		f := newStepFixture(map[string]string{
			SettingRoles:       "teacherRoleId",
			SettingEmails:      "ext@x.com",
			SettingSubject:     "s",
			SettingContent:     "c",
			SettingContentHTML: "h",
		})
		f.members.err = errBackend

		_, err := f.step.ProcessCourse(context.Background(), event(1))
		assert.ErrorIs(t, err, errBackend)
		assert.Empty(t, f.mail.Sent())
	})
}
