package notification

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/rs/zerolog"
)

// Placeholders understood by the renderer. Matching is case-insensitive.
const (
	PlaceholderCourseShortName = "##courseshortname##"
	PlaceholderCourseFullName  = "##coursefullname##"
	PlaceholderCourseID        = "##courseid##"
	PlaceholderCurrentDate     = "##currentdate##"
	PlaceholderUserFirstName   = "##userfirstname##"
	PlaceholderUserLastName    = "##userlastname##"
)

// Placeholders is the full vocabulary, in the order it is documented to users.
var Placeholders = []string{
	PlaceholderCourseShortName,
	PlaceholderCourseFullName,
	PlaceholderCourseID,
	PlaceholderCurrentDate,
	PlaceholderUserFirstName,
	PlaceholderUserLastName,
}

const (
	MissingCourseShortName = "Course short name not found"
	MissingCourseFullName  = "Course full name not found"
)

var whitespace = regexp.MustCompile(`[\t\n\v\f\r ]+`)

// Renderer substitutes placeholders with per-course and per-user values.
type Renderer struct {
	Courses CourseFinder
	Users   UserFinder
	Dates   DateFormatter
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger zerolog.Logger
}

// Bindings are the placeholder values computed for one course and optional user.
type Bindings struct {
	pairs [][2]string
}

// Render substitutes every placeholder in template and collapses whitespace.
// It never fails: lookups that go wrong degrade to fallback values.
func (r *Renderer) Render(ctx context.Context, template string, courseID int64, userID *int64) string {
	return r.Bind(ctx, courseID, userID).Apply(template)
}

// Bind computes the placeholder values for a course and an optional user.
func (r *Renderer) Bind(ctx context.Context, courseID int64, userID *int64) Bindings {
	shortName, fullName := MissingCourseShortName, MissingCourseFullName
	res, err := r.Courses.FindCourse(ctx, courseID)
	switch {
	case err != nil:
		r.Logger.Error().Err(err).Int64("course_id", courseID).Msg("Course lookup failed, using fallback names")
	case !res.Found:
		r.Logger.Warn().Int64("course_id", courseID).Msg("The course no longer exists")
	default:
		shortName, fullName = res.Course.ShortName, res.Course.FullName
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	var firstName, lastName string
	if userID != nil {
		user, found, err := r.Users.FindUser(ctx, *userID)
		if err != nil {
			r.Logger.Error().Err(err).Int64("user_id", *userID).Msg("User lookup failed, leaving names blank")
		} else if found {
			firstName, lastName = user.FirstName, user.LastName
		}
	}

	return Bindings{pairs: [][2]string{
		{PlaceholderCourseShortName, shortName},
		{PlaceholderCourseID, strconv.FormatInt(courseID, 10)},
		{PlaceholderCourseFullName, fullName},
		{PlaceholderCurrentDate, r.Dates.FormatDateTime(now())},
		{PlaceholderUserFirstName, firstName},
		{PlaceholderUserLastName, lastName},
	}}
}

// Value returns the bound value of a placeholder.
func (b Bindings) Value(placeholder string) (string, bool) {
	for _, p := range b.pairs {
		if strings.EqualFold(p[0], placeholder) {
			return p[1], true
		}
	}
	return "", false
}

// Apply replaces all placeholders in one left-to-right pass, so substituted values
// are never scanned again, then collapses each whitespace run to a single space.
func (b Bindings) Apply(template string) string {
	var sb strings.Builder
	sb.Grow(len(template))
	for i := 0; i < len(template); {
		if template[i] == '#' {
			if pattern, value, ok := b.match(template[i:]); ok {
				sb.WriteString(value)
				i += len(pattern)
				continue
			}
		}
		sb.WriteByte(template[i])
		i++
	}
	return whitespace.ReplaceAllString(sb.String(), " ")
}

func (b Bindings) match(s string) (string, string, bool) {
	for _, p := range b.pairs {
		if len(s) >= len(p[0]) && strings.EqualFold(s[:len(p[0])], p[0]) {
			return p[0], p[1], true
		}
	}
	return "", "", false
}

// DefaultDateTimeFormat is the English date-time display format.
const DefaultDateTimeFormat = "%d %B %Y, %I:%M %p"

// StrftimeFormatter formats timestamps with a strftime pattern in a fixed location.
type StrftimeFormatter struct {
	format   *strftime.Strftime
	location *time.Location
}

// NewStrftimeFormatter compiles pattern. A nil location keeps timestamps in their own zone.
func NewStrftimeFormatter(pattern string, location *time.Location) (*StrftimeFormatter, error) {
	f, err := strftime.New(pattern)
	if err != nil {
		return nil, err
	}
	return &StrftimeFormatter{format: f, location: location}, nil
}

func (f *StrftimeFormatter) FormatDateTime(t time.Time) string {
	if f.location != nil {
		t = t.In(f.location)
	}
	return f.format.FormatString(t)
}
