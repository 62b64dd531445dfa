package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/harris-mohamed/atlas/internal/batch"
	"github.com/harris-mohamed/atlas/internal/council"
	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/harris-mohamed/atlas/internal/store"
)

// Staff positions on the active roster: the planner synthesizes, the red
// team officer critiques. Positions fall back to the first officer when the
// roster is shorter.
const (
	plannerSlot = 1
	redTeamSlot = 2
)

// handleMission runs /mission: fan out, record, render, attach controls.
func (b *Bot) handleMission(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}

	opts := optionMap(data)
	brief := opts["brief"].StringValue()
	var class string
	if o, ok := opts["capability_class"]; ok {
		class = o.StringValue()
	}
	var webSearch bool
	if o, ok := opts["use_web_search"]; ok {
		webSearch = o.BoolValue()
	}

	chID := channelID(i)
	if err := b.store.EnsureChannel(ctx, chID, channelName(b.session, i), guildID(i)); err != nil {
		return err
	}

	officers := b.registry.FilterByClass(class)
	if len(officers) == 0 {
		b.followupText(i, fmt.Sprintf(
			"❌ No officers found for capability class: **%s**\nAvailable classes: Strategic, Operational, Tactical, Support", class))
		return nil
	}

	results, dispatchID := b.council.DispatchAll(ctx, officers, brief, chID, council.Options{WebSearch: webSearch})

	missionID, err := b.store.SaveMission(ctx, dispatchID, chID, brief, userID(i), class, toResponses(results))
	if err != nil {
		return err
	}

	cards := missionCards(brief, class, displayName(i), results)
	return b.sendChunks(i, cards, missionComponents(missionID))
}

// missionCards builds the header card plus one card per officer.
func missionCards(brief, class, requester string, results []council.Result) []batch.Card {
	title := "🎯 War Room Mission Brief"
	color := neutralColor
	if class != "" {
		title += " - " + titleClass(class) + " Class"
		color = roster.ClassColor(class)
	}
	cards := []batch.Card{{
		Title:  title,
		Body:   brief,
		Color:  color,
		Footer: fmt.Sprintf("Requested by %s • Officers: %d", requester, len(results)),
	}}
	for _, r := range results {
		cards = append(cards, officerCard(r))
	}
	return cards
}

// missionComponents returns the mission follow-up buttons. Only the mission
// id travels in the custom id; state reloads from the store on click.
func missionComponents(missionID int64) []discordgo.MessageComponent {
	ref := strconv.FormatInt(missionID, 10)
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Red Team Rebuttal",
					Style:    discordgo.DangerButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔴"},
					CustomID: customID("mission", "rebuttal", ref),
				},
				discordgo.Button{
					Label:    "Generate Plan",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "📄"},
					CustomID: customID("mission", "plan", ref),
				},
				discordgo.Button{
					Label:    "Continue & Cross-Reference",
					Style:    discordgo.SuccessButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔁"},
					CustomID: customID("mission", "continue", ref),
				},
				discordgo.Button{
					Label:    "Pivot",
					Style:    discordgo.SecondaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "🔄"},
					CustomID: customID("mission", "pivot", ref),
				},
			},
		},
	}
}

// transcript compiles the stored mission into shared context for follow-up
// queries. Officer titles come from the live roster; removed officers keep
// their bare id.
func (b *Bot) transcript(m *store.Mission) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Original Mission:** %s\n\n", m.Brief)
	for _, r := range m.Responses {
		label := r.OfficerID
		if o, ok := b.registry.Get(r.OfficerID); ok {
			label = fmt.Sprintf("%s - %s", o.ID, o.Title)
		}
		fmt.Fprintf(&sb, "**[%s]:**\n%s\n\n", label, r.Content)
	}
	return sb.String()
}

// staffOfficer picks the officer for a staff duty by roster position.
func (b *Bot) staffOfficer(slot int) (roster.Officer, error) {
	active := b.registry.Active()
	if len(active) == 0 {
		return roster.Officer{}, fmt.Errorf("no active officers")
	}
	if slot < len(active) {
		return active[slot], nil
	}
	return active[0], nil
}

// querySingle dispatches one officer and returns its result.
func (b *Bot) querySingle(ctx context.Context, officer roster.Officer, prompt string, chID int64) council.Result {
	results, _ := b.council.DispatchAll(ctx, []roster.Officer{officer}, prompt, chID, council.Options{})
	return results[0]
}

// handleRebuttal sends the council transcript to the red team officer for
// adversarial critique.
func (b *Bot) handleRebuttal(ctx context.Context, i *discordgo.InteractionCreate, missionID int64) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}
	officer, err := b.staffOfficer(redTeamSlot)
	if err != nil {
		return err
	}

	prompt := b.transcript(m) +
		"\n**Task:** Provide a Red Team rebuttal. Identify weaknesses, risks, and failure modes in the council's responses."
	result := b.querySingle(ctx, officer, prompt, channelID(i))

	return b.sendChunks(i, []batch.Card{{
		Title:  "🔴 Red Team Rebuttal",
		Body:   clamp(result.Response, embedDescriptionCap),
		Color:  result.Color,
		Footer: "Requested by " + displayName(i),
	}}, nil)
}

// handlePlan asks the planner officer to synthesize the transcript into a
// structured plan document.
func (b *Bot) handlePlan(ctx context.Context, i *discordgo.InteractionCreate, missionID int64) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}
	officer, err := b.staffOfficer(plannerSlot)
	if err != nil {
		return err
	}

	prompt := b.transcript(m) +
		"\n**Task:** Synthesize the council's responses into a structured PLAN.md document. Include: Executive Summary, Key Objectives, Implementation Steps, Risk Mitigation, and Success Criteria."
	result := b.querySingle(ctx, officer, prompt, channelID(i))

	return b.sendChunks(i, []batch.Card{{
		Title:  "📄 Strategic Plan",
		Body:   clamp(result.Response, embedDescriptionCap),
		Color:  result.Color,
		Footer: "Generated by " + displayName(i),
	}}, nil)
}

// handleContinue re-queries the original officer set with everyone's prior
// responses as shared context.
func (b *Bot) handleContinue(ctx context.Context, i *discordgo.InteractionCreate, missionID int64) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}

	officers := b.registry.FilterByClass(m.ClassFilter)
	if len(officers) == 0 {
		b.followupText(i, "❌ No active officers match the original mission's class filter.")
		return nil
	}

	prompt := b.transcript(m) +
		"\n**Task:** Having reviewed your fellow officers' perspectives, continue your analysis. " +
		"Build upon points of agreement, address any gaps or contradictions you see, " +
		"and refine your position based on the collective intelligence above."

	chID := channelID(i)
	results, dispatchID := b.council.DispatchAll(ctx, officers, prompt, chID, council.Options{})

	newID, err := b.store.SaveMission(ctx, dispatchID, chID, m.Brief, userID(i), m.ClassFilter, toResponses(results))
	if err != nil {
		return err
	}

	cards := []batch.Card{{
		Title:  "🔁 Continued Analysis — Cross-Referenced",
		Body:   m.Brief,
		Color:  0x27AE60,
		Footer: "Continued by " + displayName(i),
	}}
	for _, r := range results {
		cards = append(cards, officerCard(r))
	}
	return b.sendChunks(i, cards, missionComponents(newID))
}

// handlePivotOpen shows the pivot modal; the mission id rides in the modal's
// custom id so the submit handler can reload the brief.
func (b *Bot) handlePivotOpen(i *discordgo.InteractionCreate, missionID int64) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: customID("mission", "pivotsubmit", strconv.FormatInt(missionID, 10)),
			Title:    "🔄 Mission Pivot",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:    "pivot_instruction",
							Label:       "Course Correction",
							Style:       discordgo.TextInputParagraph,
							Placeholder: "Adjust the mission direction...",
							Required:    true,
							MaxLength:   2000,
						},
					},
				},
			},
		},
	})
}

// handlePivotSubmit re-runs the mission with the pivot instruction appended
// to the original brief.
func (b *Bot) handlePivotSubmit(ctx context.Context, i *discordgo.InteractionCreate, missionID int64, instruction string) error {
	if err := b.deferResponse(i); err != nil {
		return err
	}
	m, err := b.store.Mission(ctx, missionID)
	if err != nil {
		return err
	}

	newBrief := fmt.Sprintf("%s\n\n**PIVOT:** %s", m.Brief, instruction)
	officers := b.registry.FilterByClass(m.ClassFilter)
	if len(officers) == 0 {
		b.followupText(i, "❌ No active officers match the original mission's class filter.")
		return nil
	}

	chID := channelID(i)
	results, dispatchID := b.council.DispatchAll(ctx, officers, newBrief, chID, council.Options{})

	newID, err := b.store.SaveMission(ctx, dispatchID, chID, newBrief, userID(i), m.ClassFilter, toResponses(results))
	if err != nil {
		return err
	}

	cards := []batch.Card{{
		Title:  "🔄 Pivoted Mission Brief",
		Body:   newBrief,
		Color:  0xE67E22,
		Footer: "Pivoted by " + displayName(i),
	}}
	for _, r := range results {
		cards = append(cards, officerCard(r))
	}
	return b.sendChunks(i, cards, missionComponents(newID))
}

func toResponses(results []council.Result) []store.Response {
	responses := make([]store.Response, len(results))
	for i, r := range results {
		responses[i] = store.Response{
			OfficerID: r.OfficerID,
			Content:   r.Response,
			Success:   r.Success,
			ErrMsg:    r.Err,
		}
	}
	return responses
}

func titleClass(class string) string {
	if class == "" {
		return class
	}
	return strings.ToUpper(class[:1]) + strings.ToLower(class[1:])
}

func guildID(i *discordgo.InteractionCreate) int64 {
	id, _ := strconv.ParseInt(i.GuildID, 10, 64)
	return id
}

func channelName(s *discordgo.Session, i *discordgo.InteractionCreate) string {
	if ch, err := s.State.Channel(i.ChannelID); err == nil && ch.Name != "" {
		return ch.Name
	}
	return "DM"
}
