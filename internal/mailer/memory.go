package mailer

import (
	"context"
	"sync"

	"github.com/illegalcall/course-notify/internal/models"
)

// Memory records emails instead of sending them. It backs local runs without an
// SMTP relay and the step tests.
type Memory struct {
	mu   sync.Mutex
	sent []models.Email
	// Fail maps a recipient address to the error returned for it.
	Fail map[string]error
}

func NewMemory() *Memory {
	return &Memory{Fail: map[string]error{}}
}

func (m *Memory) Send(_ context.Context, email models.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Fail[email.To.Email]; ok {
		return err
	}
	m.sent = append(m.sent, email)
	return nil
}

// Sent returns a copy of the recorded emails in send order.
func (m *Memory) Sent() []models.Email {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Email, len(m.sent))
	copy(out, m.sent)
	return out
}
