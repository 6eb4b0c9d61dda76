package models

// LoginRequest represents the admin credentials
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// JWT token for authentication
	Token     string `json:"token"`
	TokenType string `json:"type"`
}

// StepSettingsRequest is the settings form of a notification step instance.
// ContentHTML is filled by the handler because the editor may post it either as
// a plain string or as {"text": ..., "format": ...}.
type StepSettingsRequest struct {
	Roles       []int64 `json:"roles" validate:"required,min=1,dive,gt=0"`
	Emails      string  `json:"emails" validate:"required"`
	Subject     string  `json:"subject" validate:"required"`
	Content     string  `json:"content" validate:"required"`
	ContentHTML string  `json:"-" validate:"required"`
}

// PreviewRequest selects the course and optional user to render templates for.
type PreviewRequest struct {
	CourseID int64  `json:"course_id" validate:"required,gt=0"`
	UserID   *int64 `json:"user_id,omitempty" validate:"omitempty,gt=0"`
}

// PreviewResponse holds one rendered triple.
type PreviewResponse struct {
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	ContentHTML string `json:"contenthtml"`
}

// TriggerRequest asks the API to publish a step event for a course.
type TriggerRequest struct {
	CourseID  int64 `json:"course_id" validate:"required,gt=0"`
	ProcessID int64 `json:"process_id" validate:"required,gt=0"`
}

// APIResponse represents a generic API response
type APIResponse struct {
	// Status of the response (success/error)
	Status string `json:"status"`
	// Response message
	Message string `json:"message"`
	// Optional data payload
	Data interface{} `json:"data,omitempty"`
}
