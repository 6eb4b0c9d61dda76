package models

import "time"

// Process mirrors the state of one lifecycle process while it sits on the notification step.
type Process struct {
	ID         int64     `json:"id" db:"id"`
	InstanceID int64     `json:"instance_id" db:"instance_id"`
	CourseID   int64     `json:"course_id" db:"course_id"`
	Status     string    `json:"status" db:"status"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

const (
	StatusProcessing = "processing"
	StatusProceeded  = "proceeded"
	StatusFailed     = "failed"
)

// StepEvent is published by the lifecycle engine when a course reaches a notification step.
type StepEvent struct {
	EventID    string `json:"event_id"`
	ProcessID  int64  `json:"process_id"`
	InstanceID int64  `json:"instance_id"`
	CourseID   int64  `json:"course_id"`
}

// StepAction tells the lifecycle engine what to do with the process next.
type StepAction string

const (
	ActionProceed  StepAction = "proceed"
	ActionWaiting  StepAction = "waiting"
	ActionRollback StepAction = "rollback"
)

// StepResponse is sent back to the lifecycle engine once the step has run for a course.
type StepResponse struct {
	EventID    string     `json:"event_id"`
	ProcessID  int64      `json:"process_id"`
	InstanceID int64      `json:"instance_id"`
	CourseID   int64      `json:"course_id"`
	Action     StepAction `json:"action"`
}

// Proceed returns the response that lets the process continue to the next step.
func Proceed(ev StepEvent) StepResponse {
	return StepResponse{
		EventID:    ev.EventID,
		ProcessID:  ev.ProcessID,
		InstanceID: ev.InstanceID,
		CourseID:   ev.CourseID,
		Action:     ActionProceed,
	}
}
