package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Response is one officer's outcome for a mission as the recorder stores it.
type Response struct {
	OfficerID string
	Content   string
	Success   bool
	ErrMsg    string
}

// Exchange is a past successful brief/response pair, the raw material for
// mission-context memory.
type Exchange struct {
	OfficerID string
	ChannelID int64
	Brief     string
	Response  string
	Success   bool
	CreatedAt time.Time
}

// Mission is a stored mission with its responses, reloadable by id so
// interactive controls can survive process restarts.
type Mission struct {
	ID          int64
	DispatchID  string
	ChannelID   int64
	Brief       string
	UserID      int64
	ClassFilter string
	Metadata    map[string]any
	StartedAt   time.Time
	Responses   []Response
}

// truncate caps s at max bytes, backing up so a multibyte rune is never
// severed at the cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// SaveMission persists a mission and all officer responses. Briefs longer
// than BriefCap and responses longer than ResponseCap are truncated at write
// time. Returns the mission id.
func (s *Store) SaveMission(ctx context.Context, dispatchID string, channelID int64, brief string, userID int64, classFilter string, responses []Response) (int64, error) {
	return s.saveMission(ctx, dispatchID, channelID, brief, userID, classFilter, nil, responses)
}

// SaveResearchMission persists a research mission with extra metadata
// (mission type, role assignments, web search flag).
func (s *Store) SaveResearchMission(ctx context.Context, dispatchID string, channelID int64, topic string, userID int64, classFilter string, metadata map[string]any, responses []Response) (int64, error) {
	return s.saveMission(ctx, dispatchID, channelID, topic, userID, classFilter, metadata, responses)
}

func (s *Store) saveMission(ctx context.Context, dispatchID string, channelID int64, brief string, userID int64, classFilter string, metadata map[string]any, responses []Response) (int64, error) {
	var metaJSON sql.NullString
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return 0, fmt.Errorf("marshal mission metadata: %w", err)
		}
		metaJSON = sql.NullString{String: string(b), Valid: true}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("save mission: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO mission_history (dispatch_id, channel_id, mission_brief, user_id, capability_class_filter, metadata, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dispatchID, channelID, truncate(brief, BriefCap), userID, nullable(classFilter), metaJSON, now, now)
	if err != nil {
		return 0, fmt.Errorf("save mission: %w", err)
	}
	missionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save mission: %w", err)
	}

	for _, r := range responses {
		var errMsg sql.NullString
		if r.ErrMsg != "" {
			errMsg = sql.NullString{String: r.ErrMsg, Valid: true}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO mission_officer_response (mission_id, officer_id, response_content, tokens_used, success, error_message)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			missionID, r.OfficerID, truncate(r.Content, ResponseCap), len(r.Content)/4, r.Success, errMsg)
		if err != nil {
			return 0, fmt.Errorf("save response for %s: %w", r.OfficerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("save mission: %w", err)
	}
	s.logger.Info("mission saved",
		zap.Int64("mission_id", missionID),
		zap.String("dispatch_id", dispatchID),
		zap.Int("responses", len(responses)))
	return missionID, nil
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// RecentExchanges returns up to limit most recent successful exchanges for
// the pair, newest first. Failed responses are never eligible for reuse.
func (s *Store) RecentExchanges(ctx context.Context, officerID string, channelID int64, limit int) ([]Exchange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT r.officer_id, m.channel_id, m.mission_brief, r.response_content, r.success, m.started_at
		 FROM mission_officer_response r
		 JOIN mission_history m ON m.id = r.mission_id
		 WHERE r.officer_id = ? AND m.channel_id = ? AND r.success = 1
		 ORDER BY m.started_at DESC, r.id DESC
		 LIMIT ?`,
		officerID, channelID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent exchanges for %s: %w", officerID, err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.OfficerID, &e.ChannelID, &e.Brief, &e.Response, &e.Success, &e.CreatedAt); err != nil {
			return nil, err
		}
		exchanges = append(exchanges, e)
	}
	return exchanges, rows.Err()
}

// Mission reloads a stored mission and its responses by id.
func (s *Store) Mission(ctx context.Context, id int64) (*Mission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		m        Mission
		class    sql.NullString
		metaJSON sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, dispatch_id, channel_id, mission_brief, user_id, capability_class_filter, metadata, started_at
		 FROM mission_history WHERE id = ?`, id).
		Scan(&m.ID, &m.DispatchID, &m.ChannelID, &m.Brief, &m.UserID, &class, &metaJSON, &m.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("load mission %d: %w", id, err)
	}
	m.ClassFilter = class.String
	if metaJSON.Valid {
		if err := json.Unmarshal([]byte(metaJSON.String), &m.Metadata); err != nil {
			return nil, fmt.Errorf("load mission %d metadata: %w", id, err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT officer_id, response_content, success, COALESCE(error_message, '')
		 FROM mission_officer_response WHERE mission_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("load mission %d responses: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Response
		if err := rows.Scan(&r.OfficerID, &r.Content, &r.Success, &r.ErrMsg); err != nil {
			return nil, err
		}
		m.Responses = append(m.Responses, r)
	}
	return &m, rows.Err()
}
