package discord

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/harris-mohamed/atlas/internal/council"
	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/harris-mohamed/atlas/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *roster.Registry {
	t.Helper()
	doc := `{
		"version": "1.0",
		"active_roster": ["O1", "O2", "O3", "O4"],
		"officers": {
			"O1": {"title": "Strategist", "model": "anthropic/claude-3.5-sonnet", "specialty": "strategy", "capability_class": "Strategic", "system_prompt": "You are O1."},
			"O2": {"title": "Planner", "model": "openai/gpt-4o", "specialty": "planning", "capability_class": "Strategic", "system_prompt": "You are O2."},
			"O3": {"title": "Red Team", "model": "x-ai/grok-2", "specialty": "critique", "capability_class": "Strategic", "system_prompt": "You are O3."},
			"O4": {"title": "Analyst", "model": "deepseek/deepseek-chat", "specialty": "analysis", "capability_class": "Strategic", "system_prompt": "You are O4."}
		}
	}`
	path := filepath.Join(t.TempDir(), "officers.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	reg, err := roster.Load(path)
	require.NoError(t, err)
	return reg
}

func TestCustomIDRoundTrip(t *testing.T) {
	id := customID("mission", "rebuttal", "42")
	assert.Equal(t, "mission:rebuttal:42", id)

	scope, action, refs := parseCustomID(id)
	assert.Equal(t, "mission", scope)
	assert.Equal(t, "rebuttal", action)
	assert.Equal(t, []string{"42"}, refs)

	scope, action, refs = parseCustomID("memory:clearcancel")
	assert.Equal(t, "memory", scope)
	assert.Equal(t, "clearcancel", action)
	assert.Empty(t, refs)
}

func TestMissionComponentsCarryOnlyMissionID(t *testing.T) {
	components := missionComponents(97)
	require.Len(t, components, 1)
	row := components[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 4)

	wantIDs := []string{
		"mission:rebuttal:97",
		"mission:plan:97",
		"mission:continue:97",
		"mission:pivot:97",
	}
	for idx, c := range row.Components {
		assert.Equal(t, wantIDs[idx], c.(discordgo.Button).CustomID)
	}
}

func TestResearchComponentsCarryOnlyMissionID(t *testing.T) {
	components := researchComponents(12)
	row := components[0].(discordgo.ActionsRow)
	require.Len(t, row.Components, 3)
	assert.Equal(t, "research:report:12", row.Components[0].(discordgo.Button).CustomID)
	assert.Equal(t, "research:synthesize:12", row.Components[1].(discordgo.Button).CustomID)
	assert.Equal(t, "research:pivot:12", row.Components[2].(discordgo.Button).CustomID)
}

func TestOfficerCardStatusField(t *testing.T) {
	ok := officerCard(council.Result{
		OfficerID:       "O1",
		Title:           "Strategist",
		Model:           "anthropic/claude-3.5-sonnet",
		Specialty:       "strategy",
		CapabilityClass: roster.ClassStrategic,
		Response:        "on it",
		Success:         true,
	})
	assert.Equal(t, "**[O1 - Strategist]** • anthropic/claude-3.5-sonnet", ok.Title)
	assert.Equal(t, "on it", ok.Body)
	require.Len(t, ok.Fields, 3)
	assert.Equal(t, "✅ Complete", ok.Fields[2].Value)

	failed := officerCard(council.Result{OfficerID: "O2", Success: false})
	assert.Equal(t, "❌ Error", failed.Fields[2].Value)
}

func TestResearchCardLeadsWithRole(t *testing.T) {
	card := researchCard(council.Result{
		OfficerID:    "O1",
		Title:        "Strategist",
		Model:        "m",
		ResearchRole: "Critical Analyst",
		Response:     "flaws found",
		Success:      true,
	})
	assert.Equal(t, "**Critical Analyst**", card.Title)
	assert.Contains(t, card.Body, "[O1 - Strategist]")
	assert.Contains(t, card.Body, "flaws found")
}

func TestMissionCardsHeader(t *testing.T) {
	results := []council.Result{{OfficerID: "O1", Success: true}, {OfficerID: "O2", Success: true}}

	cards := missionCards("take the hill", "tactical", "alex", results)
	require.Len(t, cards, 3)
	assert.Equal(t, "🎯 War Room Mission Brief - Tactical Class", cards[0].Title)
	assert.Equal(t, "take the hill", cards[0].Body)
	assert.Equal(t, 0x2ECC71, cards[0].Color)
	assert.Contains(t, cards[0].Footer, "Officers: 2")

	unfiltered := missionCards("brief", "", "alex", results)
	assert.Equal(t, "🎯 War Room Mission Brief", unfiltered[0].Title)
	assert.Equal(t, neutralColor, unfiltered[0].Color)
}

func TestToEmbedMapsAllParts(t *testing.T) {
	card := officerCard(council.Result{
		OfficerID: "O1", Title: "T", Model: "m", Specialty: "s",
		CapabilityClass: roster.ClassSupport, Response: "r", Success: true, Color: 0xF39C12,
	})
	embed := toEmbed(card)
	assert.Equal(t, card.Title, embed.Title)
	assert.Equal(t, "r", embed.Description)
	assert.Equal(t, 0xF39C12, embed.Color)
	require.Len(t, embed.Fields, 3)
	assert.True(t, embed.Fields[0].Inline)
}

func TestTranscriptUsesRosterTitles(t *testing.T) {
	b := &Bot{registry: testRegistry(t)}
	m := &store.Mission{
		Brief: "hold the line",
		Responses: []store.Response{
			{OfficerID: "O1", Content: "dig in", Success: true},
			{OfficerID: "OX", Content: "ghost reply", Success: true}, // removed officer
		},
	}
	transcript := b.transcript(m)
	assert.Contains(t, transcript, "**Original Mission:** hold the line")
	assert.Contains(t, transcript, "**[O1 - Strategist]:**\ndig in")
	assert.Contains(t, transcript, "**[OX]:**\nghost reply")
}

func TestStaffOfficerSlots(t *testing.T) {
	b := &Bot{registry: testRegistry(t)}

	planner, err := b.staffOfficer(plannerSlot)
	require.NoError(t, err)
	assert.Equal(t, "O2", planner.ID)

	redTeam, err := b.staffOfficer(redTeamSlot)
	require.NoError(t, err)
	assert.Equal(t, "O3", redTeam.ID)

	// Slot beyond the roster falls back to the first officer.
	fallback, err := b.staffOfficer(99)
	require.NoError(t, err)
	assert.Equal(t, "O1", fallback.ID)
}

func TestLoadResearchContext(t *testing.T) {
	m := &store.Mission{
		Brief:       "[RESEARCH] fusion power",
		ClassFilter: "strategic",
		Metadata: map[string]any{
			metaMissionType: "research",
			metaTopic:       "fusion power",
			metaWebSearch:   true,
			metaRoles: map[string]any{
				"O1": "State-of-the-Art Researcher",
				"O2": "Critical Analyst",
			},
		},
	}
	rc := loadResearchContext(m)
	assert.Equal(t, "fusion power", rc.Topic)
	assert.Equal(t, "strategic", rc.Class)
	assert.True(t, rc.WebSearch)
	assert.Equal(t, "Critical Analyst", rc.Roles["O2"])
}

func TestLoadResearchContextFallsBackToBrief(t *testing.T) {
	m := &store.Mission{Brief: "[RESEARCH] old mission", ClassFilter: "tactical"}
	rc := loadResearchContext(m)
	assert.Equal(t, "old mission", rc.Topic)
	assert.False(t, rc.WebSearch)
	assert.Empty(t, rc.Roles)
}

func TestToResponses(t *testing.T) {
	results := []council.Result{
		{OfficerID: "O1", Response: "ok", Success: true},
		{OfficerID: "O2", Response: "Error: boom", Success: false, Err: "boom"},
	}
	responses := toResponses(results)
	require.Len(t, responses, 2)
	assert.Equal(t, store.Response{OfficerID: "O1", Content: "ok", Success: true}, responses[0])
	assert.Equal(t, "boom", responses[1].ErrMsg)
	assert.False(t, responses[1].Success)
}

func TestTitleClass(t *testing.T) {
	assert.Equal(t, "Strategic", titleClass("strategic"))
	assert.Equal(t, "Support", titleClass("SUPPORT"))
	assert.Equal(t, "", titleClass(""))
}

func TestTextInputValue(t *testing.T) {
	data := discordgo.ModalSubmitInteractionData{
		CustomID: "mission:pivotsubmit:5",
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					&discordgo.TextInput{CustomID: "pivot_instruction", Value: "go west"},
				},
			},
		},
	}
	assert.Equal(t, "go west", textInputValue(data, "pivot_instruction"))
	assert.Equal(t, "", textInputValue(data, "missing"))
}

func TestClampCutsOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("界", 40)
	got := clamp(long, 100)
	assert.Len(t, got, 99)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, "short", clamp("short", 100))
}
