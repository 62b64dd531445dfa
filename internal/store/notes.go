package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Note is a manually recorded memory entry scoped to one (officer, channel).
// Notes never expire; they are removed only by an explicit clear.
type Note struct {
	ID        int64
	OfficerID string
	ChannelID int64
	Content   string
	CreatedBy int64
	Pinned    bool
	CreatedAt time.Time
}

// noteFetchLimit bounds how many notes memory assembly reads per pair.
const noteFetchLimit = 10

// AddNote records a manual note. A zero CreatedAt defaults to now.
func (s *Store) AddNote(ctx context.Context, n Note) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_notes (officer_id, channel_id, note_content, created_by_user_id, is_pinned, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.OfficerID, n.ChannelID, n.Content, n.CreatedBy, n.Pinned, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("add note: %w", err)
	}
	return nil
}

// NotesFor returns notes for the pair ordered pinned first, then newest
// first, capped at the assembly fetch limit.
func (s *Store) NotesFor(ctx context.Context, officerID string, channelID int64) ([]Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, officer_id, channel_id, note_content, created_by_user_id, is_pinned, created_at
		 FROM manual_notes
		 WHERE officer_id = ? AND channel_id = ?
		 ORDER BY is_pinned DESC, created_at DESC, id DESC
		 LIMIT ?`,
		officerID, channelID, noteFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("notes for %s: %w", officerID, err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.OfficerID, &n.ChannelID, &n.Content, &n.CreatedBy, &n.Pinned, &n.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// ClearNotes deletes all manual notes for the pair. Mission history is
// deliberately untouched: it is an audit record.
func (s *Store) ClearNotes(ctx context.Context, officerID string, channelID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM manual_notes WHERE officer_id = ? AND channel_id = ?`,
		officerID, channelID)
	if err != nil {
		return 0, fmt.Errorf("clear notes: %w", err)
	}
	n, _ := res.RowsAffected()
	s.logger.Info("cleared notes",
		zap.String("officer", officerID),
		zap.Int64("channel", channelID),
		zap.Int64("count", n))
	return n, nil
}

// PairStats summarizes stored memory for one officer in one channel.
type PairStats struct {
	Notes    int
	Missions int
}

// ChannelStats returns note and mission-response counts per officer for a
// channel, covering every officer ever seeded.
func (s *Store) ChannelStats(ctx context.Context, channelID int64) (map[string]PairStats, error) {
	ids, err := s.OfficerIDs(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]PairStats, len(ids))
	for _, id := range ids {
		var ps PairStats
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM manual_notes WHERE officer_id = ? AND channel_id = ?`,
			id, channelID).Scan(&ps.Notes)
		if err != nil {
			return nil, fmt.Errorf("channel stats: %w", err)
		}
		err = s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM mission_officer_response r
			 JOIN mission_history m ON m.id = r.mission_id
			 WHERE r.officer_id = ? AND m.channel_id = ?`,
			id, channelID).Scan(&ps.Missions)
		if err != nil {
			return nil, fmt.Errorf("channel stats: %w", err)
		}
		stats[id] = ps
	}
	return stats, nil
}
