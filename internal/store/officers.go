package store

import (
	"context"
	"fmt"

	"github.com/harris-mohamed/atlas/internal/roster"
	"go.uber.org/zap"
)

// SeedOfficers upserts officer definitions from the roster. Officers present
// in the database but absent from the roster are kept: their notes and
// mission history remain queryable even after they leave the active roster.
func (s *Store) SeedOfficers(ctx context.Context, officers []roster.Officer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed officers: %w", err)
	}
	defer tx.Rollback()

	for _, o := range officers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO officers (officer_id, title, model, capability_class, specialty, system_prompt)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(officer_id) DO UPDATE SET
				title = excluded.title,
				model = excluded.model,
				capability_class = excluded.capability_class,
				specialty = excluded.specialty,
				system_prompt = excluded.system_prompt`,
			o.ID, o.Title, o.Model, string(o.CapabilityClass), o.Specialty, o.SystemPrompt)
		if err != nil {
			return fmt.Errorf("seed officer %s: %w", o.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed officers: %w", err)
	}
	s.logger.Info("roster sync complete", zap.Int("officers", len(officers)))
	return nil
}

// OfficerIDs returns every officer id ever seeded, roster-active or not.
func (s *Store) OfficerIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT officer_id FROM officers ORDER BY officer_id`)
	if err != nil {
		return nil, fmt.Errorf("officer ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
