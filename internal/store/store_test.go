package store

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testOfficer(id string) roster.Officer {
	return roster.Officer{
		ID:              id,
		Title:           "Title " + id,
		Model:           "anthropic/claude-3.5-sonnet",
		Specialty:       "specialty",
		CapabilityClass: roster.ClassTactical,
		SystemPrompt:    "prompt",
	}
}

func TestSeedOfficersUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedOfficers(ctx, []roster.Officer{testOfficer("O1")}))

	updated := testOfficer("O1")
	updated.Title = "New Title"
	require.NoError(t, s.SeedOfficers(ctx, []roster.Officer{updated}))

	ids, err := s.OfficerIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"O1"}, ids)
}

func TestReseedPreservesRemovedOfficerHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedOfficers(ctx, []roster.Officer{testOfficer("O1"), testOfficer("O2")}))
	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O2", ChannelID: 1, Content: "keep me", CreatedBy: 7}))
	_, err := s.SaveMission(ctx, "d1", 1, "brief", 7, "", []Response{
		{OfficerID: "O2", Content: "resp", Success: true},
	})
	require.NoError(t, err)

	// O2 drops off the roster.
	require.NoError(t, s.SeedOfficers(ctx, []roster.Officer{testOfficer("O1")}))

	notes, err := s.NotesFor(ctx, "O2", 1)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	exchanges, err := s.RecentExchanges(ctx, "O2", 1, 5)
	require.NoError(t, err)
	assert.Len(t, exchanges, 1)
}

func TestNotesOrderedPinnedThenNewest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 1, Content: "old unpinned", CreatedAt: base}))
	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 1, Content: "new unpinned", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 1, Content: "pinned", Pinned: true, CreatedAt: base.Add(-time.Hour)}))

	notes, err := s.NotesFor(ctx, "O1", 1)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "pinned", notes[0].Content)
	assert.Equal(t, "new unpinned", notes[1].Content)
	assert.Equal(t, "old unpinned", notes[2].Content)
}

func TestNotesScopedToChannel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 1, Content: "channel one"}))
	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 2, Content: "channel two"}))

	notes, err := s.NotesFor(ctx, "O1", 1)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "channel one", notes[0].Content)
}

func TestClearNotesKeepsMissionHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 1, Content: "gone soon"}))
	_, err := s.SaveMission(ctx, "d1", 1, "brief", 7, "", []Response{
		{OfficerID: "O1", Content: "resp", Success: true},
	})
	require.NoError(t, err)

	n, err := s.ClearNotes(ctx, "O1", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	notes, err := s.NotesFor(ctx, "O1", 1)
	require.NoError(t, err)
	assert.Empty(t, notes)

	exchanges, err := s.RecentExchanges(ctx, "O1", 1, 5)
	require.NoError(t, err)
	assert.Len(t, exchanges, 1)
}

func TestSaveMissionTruncatesBriefAndResponses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	longBrief := strings.Repeat("b", 2000)
	longResp := strings.Repeat("r", 3000)
	id, err := s.SaveMission(ctx, "d1", 1, longBrief, 7, "tactical", []Response{
		{OfficerID: "O1", Content: longResp, Success: true},
	})
	require.NoError(t, err)

	m, err := s.Mission(ctx, id)
	require.NoError(t, err)
	assert.Len(t, m.Brief, BriefCap)
	require.Len(t, m.Responses, 1)
	assert.Len(t, m.Responses[0].Content, ResponseCap)
}

func TestSaveMissionTruncationKeepsValidUTF8(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// 3-byte runes so neither cap lands on a rune boundary.
	longBrief := strings.Repeat("界", 400)
	longResp := strings.Repeat("界", 700)
	id, err := s.SaveMission(ctx, "d1", 1, longBrief, 7, "tactical", []Response{
		{OfficerID: "O1", Content: longResp, Success: true},
	})
	require.NoError(t, err)

	m, err := s.Mission(ctx, id)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(m.Brief))
	assert.LessOrEqual(t, len(m.Brief), BriefCap)
	require.Len(t, m.Responses, 1)
	assert.True(t, utf8.ValidString(m.Responses[0].Content))
	assert.LessOrEqual(t, len(m.Responses[0].Content), ResponseCap)
}

func TestSaveMissionStoresFailures(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.SaveMission(ctx, "d1", 1, "brief", 7, "", []Response{
		{OfficerID: "O1", Content: "ok", Success: true},
		{OfficerID: "O2", Content: "Error: timeout", Success: false, ErrMsg: "timeout"},
	})
	require.NoError(t, err)

	m, err := s.Mission(ctx, id)
	require.NoError(t, err)
	require.Len(t, m.Responses, 2)
	assert.True(t, m.Responses[0].Success)
	assert.False(t, m.Responses[1].Success)
	assert.Equal(t, "timeout", m.Responses[1].ErrMsg)
}

func TestRecentExchangesWindowAndEligibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Seven missions; one failed response in the middle.
	for i := 0; i < 7; i++ {
		success := i != 3
		_, err := s.SaveMission(ctx, "d", 1, "brief", 7, "", []Response{
			{OfficerID: "O1", Content: "resp", Success: success},
		})
		require.NoError(t, err)
	}

	exchanges, err := s.RecentExchanges(ctx, "O1", 1, 5)
	require.NoError(t, err)
	require.Len(t, exchanges, 5)
	for _, e := range exchanges {
		assert.True(t, e.Success)
	}
}

func TestExchangesScopedToChannel(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.SaveMission(ctx, "d1", 1, "channel one brief", 7, "", []Response{
		{OfficerID: "O1", Content: "one", Success: true},
	})
	require.NoError(t, err)
	_, err = s.SaveMission(ctx, "d2", 2, "channel two brief", 7, "", []Response{
		{OfficerID: "O1", Content: "two", Success: true},
	})
	require.NoError(t, err)

	exchanges, err := s.RecentExchanges(ctx, "O1", 1, 5)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "channel one brief", exchanges[0].Brief)
}

func TestSaveResearchMissionMetadataRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	meta := map[string]any{
		"mission_type":       "research",
		"web_search_enabled": true,
	}
	id, err := s.SaveResearchMission(ctx, "d1", 1, "[RESEARCH] topic", 7, "tactical", meta, nil)
	require.NoError(t, err)

	m, err := s.Mission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "research", m.Metadata["mission_type"])
	assert.Equal(t, true, m.Metadata["web_search_enabled"])
	assert.Equal(t, "tactical", m.ClassFilter)
}

func TestChannelStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedOfficers(ctx, []roster.Officer{testOfficer("O1"), testOfficer("O2")}))
	require.NoError(t, s.AddNote(ctx, Note{OfficerID: "O1", ChannelID: 1, Content: "n"}))
	_, err := s.SaveMission(ctx, "d1", 1, "brief", 7, "", []Response{
		{OfficerID: "O1", Content: "r", Success: true},
		{OfficerID: "O2", Content: "r", Success: true},
	})
	require.NoError(t, err)

	stats, err := s.ChannelStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, PairStats{Notes: 1, Missions: 1}, stats["O1"])
	assert.Equal(t, PairStats{Notes: 0, Missions: 1}, stats["O2"])
}

func TestEnsureChannelIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureChannel(ctx, 42, "war-room", 1))
	require.NoError(t, s.EnsureChannel(ctx, 42, "renamed", 1))
}
