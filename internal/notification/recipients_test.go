package notification

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/course-notify/internal/models"
)

var (
	alice = models.User{ID: 1, Email: "alice@example.com", FirstName: "Alice"}
	bob   = models.User{ID: 2, Email: "bob@example.com", FirstName: "Bob"}
	carol = models.User{ID: 3, Email: "carol@example.com", FirstName: "Carol"}
)

func newTestResolver() (*Resolver, *fakeCourses, *fakeMembers) {
	courses := &fakeCourses{courses: map[int64]models.Course{
		7: {ID: 7, ShortName: "CS101", FullName: "Introduction to Computer Science"},
	}}
	members := &fakeMembers{members: map[membersKey][]models.User{
		{"3", 7}: {alice, bob},
		{"5", 7}: {carol, alice},
	}}
	return &Resolver{Courses: courses, Members: members, Logger: zerolog.Nop()}, courses, members
}

func addresses(rs []Recipient) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Address()
	}
	return out
}

func TestResolve_Ordering(t *testing.T) {
	r, _, _ := newTestResolver()

	got, err := r.Resolve(context.Background(), 7, []models.RoleID{"3", "5"}, []string{"e1@x.com", "e2@x.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"alice@example.com", "bob@example.com",
		"carol@example.com", "alice@example.com",
		"e1@x.com", "e2@x.com",
	}, addresses(got))

	for i, rc := range got {
		_, isRole := rc.(RoleRecipient)
		assert.Equal(t, i < 4, isRole, "recipient %d", i)
	}
	assert.Equal(t, models.RoleID("5"), got[2].(RoleRecipient).Role)
}

func TestResolve_NoRoles(t *testing.T) {
	r, courses, members := newTestResolver()

	got, err := r.Resolve(context.Background(), 7, nil, []string{"e1@x.com"})
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, ExternalRecipient{Email: "e1@x.com"}, got[0])
	assert.Zero(t, courses.calls)
	assert.Empty(t, members.asked)
}

func TestResolve_BlankRolesSkipped(t *testing.T) {
	r, _, members := newTestResolver()

	got, err := r.Resolve(context.Background(), 7, []models.RoleID{"", "  ", "3"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, addresses(got))
	assert.Equal(t, []models.RoleID{"3"}, members.asked)
}

func TestResolve_MissingCourse(t *testing.T) {
	r, courses, members := newTestResolver()

	got, err := r.Resolve(context.Background(), 99, []models.RoleID{"3", "5"}, []string{"e1@x.com", "e2@x.com"})
	require.NoError(t, err)

	assert.Equal(t, []string{"e1@x.com", "e2@x.com"}, addresses(got))
	assert.Equal(t, 1, courses.calls)
	assert.Empty(t, members.asked)
}

func TestResolve_UnknownRoleHasNoMembers(t *testing.T) {
	r, _, _ := newTestResolver()

	got, err := r.Resolve(context.Background(), 7, []models.RoleID{"editingteacher", "3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com", "bob@example.com"}, addresses(got))
}

func TestResolve_EmptyExternalSegmentsKept(t *testing.T) {
	r, _, _ := newTestResolver()

	got, err := r.Resolve(context.Background(), 7, nil, SplitExternalEmails(""))
	require.NoError(t, err)
	assert.Equal(t, []string{""}, addresses(got))

	got, err = r.Resolve(context.Background(), 7, nil, SplitExternalEmails("a@x.com;;b@x.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "", "b@x.com"}, addresses(got))
}

func TestResolve_InfrastructureErrors(t *testing.T) {
	t.Run("course lookup", func(t *testing.T) {
		r, courses, _ := newTestResolver()
		courses.err = errBackend

		_, err := r.Resolve(context.Background(), 7, []models.RoleID{"3"}, []string{"e1@x.com"})
		assert.ErrorIs(t, err, errBackend)
	})

	t.Run("membership lookup", func(t *testing.T) {
		r, _, members := newTestResolver()
		members.err = errBackend

		_, err := r.Resolve(context.Background(), 7, []models.RoleID{"3"}, []string{"e1@x.com"})
		assert.ErrorIs(t, err, errBackend)
	})
}

func TestUserID(t *testing.T) {
	id, ok := UserID(RoleRecipient{User: bob, Role: "3"})
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	_, ok = UserID(ExternalRecipient{Email: "e1@x.com"})
	assert.False(t, ok)
}
