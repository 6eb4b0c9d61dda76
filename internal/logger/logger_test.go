package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter("production", "", &buf)

	log.Debug().Msg("hidden")
	log.Info().Int64("course_id", 7).Msg("Sending course notifications")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Sending course notifications", entry["message"])
	assert.Equal(t, float64(7), entry["course_id"])
	assert.Equal(t, "info", entry["level"])
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"production", "", zerolog.InfoLevel},
		{"development", "", zerolog.DebugLevel},
		{"dev", "warn", zerolog.WarnLevel},
		{"production", "ERROR", zerolog.ErrorLevel},
		{"production", "bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		log := newWithWriter(tt.env, tt.level, &bytes.Buffer{})
		assert.Equal(t, tt.want, log.GetLevel(), "env=%s level=%s", tt.env, tt.level)
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() { log.Error().Msg("discarded") })
}
