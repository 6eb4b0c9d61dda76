package notification

import (
	"errors"
	"fmt"
	"strings"

	"github.com/illegalcall/course-notify/internal/models"
)

// ErrInvalidSettings is returned when stored step settings cannot be turned into a StepConfiguration.
var ErrInvalidSettings = errors.New("invalid step settings")

// Setting keys of a notification step instance.
const (
	SettingRoles       = "roles"
	SettingEmails      = "emails"
	SettingSubject     = "subject"
	SettingContent     = "content"
	SettingContentHTML = "contenthtml"
)

// SettingKeys lists every setting a step instance must carry.
var SettingKeys = []string{SettingRoles, SettingEmails, SettingSubject, SettingContent, SettingContentHTML}

// StepConfiguration is the typed settings of one step instance, read fresh for every course.
type StepConfiguration struct {
	RoleIDs           []models.RoleID
	ExternalEmails    []string
	SubjectTemplate   string
	PlainBodyTemplate string
	HTMLBodyTemplate  string
}

// ParseSettings validates the stored key/value settings and builds a StepConfiguration.
func ParseSettings(raw map[string]string) (StepConfiguration, error) {
	for _, key := range SettingKeys {
		if _, ok := raw[key]; !ok {
			return StepConfiguration{}, fmt.Errorf("%w: missing %q", ErrInvalidSettings, key)
		}
	}

	return StepConfiguration{
		RoleIDs:           ParseRoleIDs(raw[SettingRoles]),
		ExternalEmails:    SplitExternalEmails(raw[SettingEmails]),
		SubjectTemplate:   raw[SettingSubject],
		PlainBodyTemplate: raw[SettingContent],
		HTMLBodyTemplate:  raw[SettingContentHTML],
	}, nil
}

// ParseRoleIDs splits a comma separated role id list. Blank entries are skipped.
// Ids are not checked for syntax: an unknown id simply has no members.
func ParseRoleIDs(value string) []models.RoleID {
	parts := strings.Split(value, ",")
	roles := make([]models.RoleID, 0, len(parts))
	for _, part := range parts {
		if id := strings.TrimSpace(part); id != "" {
			roles = append(roles, models.RoleID(id))
		}
	}
	return roles
}

// SplitExternalEmails splits the configured address list on ';'. Segments are not
// trimmed, so an empty value yields a single empty segment.
func SplitExternalEmails(value string) []string {
	return strings.Split(value, ";")
}

// Settings renders the configuration back into its stored key/value form.
func (c StepConfiguration) Settings() map[string]string {
	roles := make([]string, len(c.RoleIDs))
	for i, id := range c.RoleIDs {
		roles[i] = string(id)
	}
	return map[string]string{
		SettingRoles:       strings.Join(roles, ","),
		SettingEmails:      strings.Join(c.ExternalEmails, ";"),
		SettingSubject:     c.SubjectTemplate,
		SettingContent:     c.PlainBodyTemplate,
		SettingContentHTML: c.HTMLBodyTemplate,
	}
}
