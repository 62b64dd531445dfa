package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/harris-mohamed/atlas/internal/batch"
	"github.com/harris-mohamed/atlas/internal/council"
	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/harris-mohamed/atlas/internal/store"
)

// Metadata keys stored with research missions so interactive controls can
// reconstruct the mission after a restart.
const (
	metaMissionType = "mission_type"
	metaRoles       = "research_roles"
	metaWebSearch   = "web_search_enabled"
	metaTopic       = "research_topic"
)

// handleResearch runs /research: four officers of one class, each with a
// distinct analytical role.
func (b *Bot) handleResearch(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}

	opts := optionMap(data)
	topic := opts["topic"].StringValue()
	class := opts["capability_class"].StringValue()
	var webSearch bool
	if o, ok := opts["use_web_search"]; ok {
		webSearch = o.BoolValue()
	}

	chID := channelID(i)
	if err := b.store.EnsureChannel(ctx, chID, channelName(b.session, i), guildID(i)); err != nil {
		return err
	}

	return b.runResearch(ctx, i, topic, class, webSearch)
}

// runResearch dispatches the research council and renders the output. Shared
// by the slash command and the pivot modal.
func (b *Bot) runResearch(ctx context.Context, i *discordgo.InteractionCreate, topic, class string, webSearch bool) error {
	officers := b.registry.FilterByClass(class)
	if len(officers) != council.ResearchCouncilSize {
		sizeErr := &council.ErrCouncilSize{Class: class, Found: len(officers)}
		b.followupText(i, "❌ "+sizeErr.Error())
		return nil
	}

	chID := channelID(i)
	results, dispatchID := b.council.DispatchAll(ctx, officers, "", chID, council.Options{
		Assignments: council.ResearchAssignments(topic),
		WebSearch:   webSearch,
	})

	roles := make(map[string]any, len(results))
	for _, r := range results {
		roles[r.OfficerID] = r.ResearchRole
	}
	metadata := map[string]any{
		metaMissionType: "research",
		metaRoles:       roles,
		metaWebSearch:   webSearch,
		metaTopic:       topic,
	}

	missionID, err := b.store.SaveResearchMission(ctx, dispatchID, chID,
		"[RESEARCH] "+topic, userID(i), class, metadata, toResponses(results))
	if err != nil {
		return err
	}

	cards := researchCards(topic, class, displayName(i), webSearch, results)
	return b.sendChunks(i, cards, researchComponents(missionID))
}

func researchCards(topic, class, requester string, webSearch bool, results []council.Result) []batch.Card {
	mode := "📚 Pretraining Only"
	if webSearch {
		mode = "🌐 Web Search Enabled"
	}
	cards := []batch.Card{{
		Title: fmt.Sprintf("🔬 Research Mission - %s Class", titleClass(class)),
		Body: fmt.Sprintf("**Topic:** %s\n**Mode:** %s\n\n**Perspectives:** State-of-the-Art, Critical Analysis, Visionary, Historical Context",
			topic, mode),
		Color:  roster.ClassColor(class),
		Footer: "Requested by " + requester,
	}}
	for _, r := range results {
		cards = append(cards, researchCard(r))
	}
	return cards
}

func researchComponents(missionID int64) []discordgo.MessageComponent {
	ref := strconv.FormatInt(missionID, 10)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Generate Report",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "📊"},
					CustomID: customID("research", "report", ref),
				},
				discordgo.Button{
					Label:    "AI Synthesis",
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🤖"},
					CustomID: customID("research", "synthesize", ref),
				},
				discordgo.Button{
					Label:    "Pivot",
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔄"},
					CustomID: customID("research", "pivot", ref),
				},
			},
		},
	}
}

// researchContext reconstructs topic, roles, and search mode from stored
// mission metadata.
type researchContext struct {
	Topic     string
	Class     string
	WebSearch bool
	Roles     map[string]string
}

func loadResearchContext(m *store.Mission) researchContext {
	rc := researchContext{
		Class: m.ClassFilter,
		Roles: map[string]string{},
	}
	if topic, ok := m.Metadata[metaTopic].(string); ok {
		rc.Topic = topic
	} else {
		rc.Topic = strings.TrimPrefix(m.Brief, "[RESEARCH] ")
	}
	if ws, ok := m.Metadata[metaWebSearch].(bool); ok {
		rc.WebSearch = ws
	}
	if roles, ok := m.Metadata[metaRoles].(map[string]any); ok {
		for id, role := range roles {
			if s, ok := role.(string); ok {
				rc.Roles[id] = s
			}
		}
	}
	return rc
}

// handleReport regenerates the markdown report from the stored mission and
// uploads it as a file with a preview embed.
func (b *Bot) handleReport(ctx context.Context, i *discordgo.InteractionCreate, missionID int64) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}
	rc := loadResearchContext(m)

	results := make([]council.Result, len(m.Responses))
	for idx, r := range m.Responses {
		result := council.Result{
			OfficerID:    r.OfficerID,
			Response:     r.Content,
			Success:      r.Success,
			ResearchRole: rc.Roles[r.OfficerID],
		}
		if o, ok := b.registry.Get(r.OfficerID); ok {
			result.Title = o.Title
			result.Model = o.Model
		}
		results[idx] = result
	}

	report := council.ResearchReport(rc.Topic, results, rc.Class, rc.WebSearch)
	filename := fmt.Sprintf("research_%s.md", time.Now().Format("20060102_150405"))

	preview := report
	if len(preview) > 500 {
		preview = preview[:500] + "..."
	}
	embed := toEmbed(batch.Card{
		Title: "📊 Research Report Generated",
		Body: fmt.Sprintf("**Topic:** %s\n\n**Preview:**\n```\n%s\n```",
			rc.Topic, preview),
		Color:  0x2ECC71,
		Footer: "Generated by " + displayName(i),
	})

	_, err = b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files: []*discordgo.File{{
			Name:        filename,
			ContentType: "text/markdown",
			Reader:      strings.NewReader(report),
		}},
	})
	return err
}

// handleSynthesize asks the planner officer to reconcile the stored research
// perspectives.
func (b *Bot) handleSynthesize(ctx context.Context, i *discordgo.InteractionCreate, missionID int64) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}
	rc := loadResearchContext(m)

	var sb strings.Builder
	fmt.Fprintf(&sb, "**Research Topic:** %s\n\n", rc.Topic)
	for _, r := range m.Responses {
		role := rc.Roles[r.OfficerID]
		if role == "" {
			role = r.OfficerID
		}
		fmt.Fprintf(&sb, "**%s:**\n%s\n\n", role, r.Content)
	}
	prompt := sb.String() +
		"\n**Task:** Synthesize these perspectives into cohesive insights. Identify patterns and reconcile contradictions."

	officer, err := b.staffOfficer(plannerSlot)
	if err != nil {
		return err
	}
	result := b.querySingle(ctx, officer, prompt, channelID(i))

	return b.sendChunks(i, []batch.Card{{
		Title: "🤖 AI Research Synthesis",
		Body:  clamp(result.Response, embedDescriptionCap),
		Color: result.Color,
	}}, nil)
}

// handleResearchPivotOpen shows the research pivot modal.
func (b *Bot) handleResearchPivotOpen(i *discordgo.InteractionCreate, missionID int64) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID("research", "pivotsubmit", strconv.FormatInt(missionID, 10)),
			Title:    "🔄 Research Pivot",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "pivot_instruction",
							Label:       "Research Direction Change",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "Refine or redirect the research focus...",
							Required:    true,
							MaxLength:   2000,
						},
					},
				},
			},
		},
	})
}

// handleResearchPivotSubmit re-runs the research council on the refined topic
// with the original class and search mode.
func (b *Bot) handleResearchPivotSubmit(ctx context.Context, i *discordgo.InteractionCreate, missionID int64, instruction string) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}
	rc := loadResearchContext(m)

	newTopic := fmt.Sprintf("%s [PIVOT: %s]", rc.Topic, instruction)
	return b.runResearch(ctx, i, newTopic, rc.Class, rc.WebSearch)
}
