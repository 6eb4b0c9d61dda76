package mailer

import (
	"context"
	"log"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/illegalcall/course-notify/internal/models"
)

// Load environment variables from .env file before tests run.
func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; relying on environment variables")
	}
}

func TestSMTP_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	recipient := os.Getenv("SMTP_TEST_RECIPIENT")
	host := os.Getenv("SMTP_HOST")
	if recipient == "" || host == "" {
		t.Skip("Skipping integration test: missing SMTP_TEST_RECIPIENT or SMTP_HOST")
	}
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	sender := NewSMTP(Config{
		Host:      host,
		Port:      port,
		Username:  os.Getenv("SMTP_USERNAME"),
		Password:  os.Getenv("SMTP_PASSWORD"),
		TLSPolicy: os.Getenv("SMTP_TLS_POLICY"),
		Timeout:   30 * time.Second,
	}, zerolog.Nop())

	from := os.Getenv("NOREPLY_ADDRESS")
	if from == "" {
		from = recipient
	}

	err := sender.Send(context.Background(), models.Email{
		From:      models.Address{Name: "Course notifications", Email: from},
		To:        models.Address{Email: recipient},
		Subject:   "Integration Test Email",
		PlainBody: "This is a test email sent from the integration test.",
		HTMLBody:  "<p>This is a test email sent from the <b>integration test</b>.</p>",
		HTML:      true,
	})
	require.NoError(t, err)

	log.Println("Please check the inbox of", recipient, "to verify the email was received.")
}
