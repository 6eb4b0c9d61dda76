package models

// Course is the subset of course data the notification step reads.
type Course struct {
	ID        int64  `json:"id" db:"id"`
	ShortName string `json:"shortname" db:"shortname"`
	FullName  string `json:"fullname" db:"fullname"`
}

// Mail formats a user can choose for incoming mail.
const (
	MailFormatPlain = 0
	MailFormatHTML  = 1
)

// User is a platform account that can receive notifications.
type User struct {
	ID         int64  `json:"id" db:"id"`
	Email      string `json:"email" db:"email"`
	FirstName  string `json:"firstname" db:"firstname"`
	LastName   string `json:"lastname" db:"lastname"`
	MailFormat int    `json:"mailformat" db:"mailformat"`
}

// FullName joins first and last name.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RoleID identifies a role. Ids are kept in their textual form as stored in step settings.
type RoleID string

// Role is a named permission grouping within a course.
type Role struct {
	ID        int64  `json:"id" db:"id"`
	ShortName string `json:"shortname" db:"shortname"`
	Name      string `json:"name" db:"name"`
}

// DisplayName falls back to the short name when the role has no custom name.
func (r Role) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.ShortName
}
