package store

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/jmoiron/sqlx"
)

// Settings stores the key/value settings of notification step instances.
type Settings struct {
	db *sqlx.DB
}

func NewSettings(db *sqlx.DB) *Settings {
	return &Settings{db: db}
}

// Load returns the settings of a step instance. An instance without settings
// yields an empty map; completeness is checked by the caller.
func (s *Settings) Load(ctx context.Context, instanceID int64) (map[string]string, error) {
	var rows []struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, "SELECT name, value FROM step_settings WHERE instance_id = $1", instanceID); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	settings := make(map[string]string, len(rows))
	for _, r := range rows {
		settings[r.Name] = r.Value
	}
	return settings, nil
}

const upsertSettingQuery = `INSERT INTO step_settings (instance_id, name, value) VALUES ($1, $2, $3)
	ON CONFLICT (instance_id, name) DO UPDATE SET value = EXCLUDED.value`

// Save writes every setting of a step instance in one transaction.
func (s *Settings) Save(ctx context.Context, instanceID int64, settings map[string]string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, name := range slices.Sorted(maps.Keys(settings)) {
		if _, err := tx.ExecContext(ctx, upsertSettingQuery, instanceID, name, settings[name]); err != nil {
			return fmt.Errorf("failed to save setting %q: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settings: %w", err)
	}
	return nil
}
