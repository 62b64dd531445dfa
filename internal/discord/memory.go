package discord

import (
	"context"
	"fmt"
	"sort"

	"github.com/bwmarrin/discordgo"
	"github.com/harris-mohamed/atlas/internal/batch"
	"github.com/harris-mohamed/atlas/internal/store"
)

// handleMemory routes the /memory subactions. stats and view answer
// immediately; add writes a note; clear asks for confirmation first.
func (b *Bot) handleMemory(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) error {
	opts := optionMap(data)
	action := opts["action"].StringValue()

	var officerID, note string
	if o, ok := opts["officer_id"]; ok {
		officerID = o.StringValue()
	}
	if o, ok := opts["note"]; ok {
		note = o.StringValue()
	}
	var pinned bool
	if o, ok := opts["pinned"]; ok {
		pinned = o.BoolValue()
	}

	switch action {
	case "stats":
		return b.memoryStats(ctx, i)
	case "view":
		return b.memoryView(ctx, i, officerID)
	case "add":
		return b.memoryAdd(ctx, i, officerID, note, pinned)
	case "clear":
		return b.memoryClearPrompt(i, officerID)
	}
	return b.respondText(i, fmt.Sprintf("❌ Unknown memory action: %s", action))
}

func (b *Bot) memoryStats(ctx context.Context, i *discordgo.InteractionCreate) error {
	chID := channelID(i)
	stats, err := b.store.ChannelStats(ctx, chID)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(stats))
	for id := range stats {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	card := batch.Card{
		Title: "📊 Channel Memory Statistics",
		Body:  "Memory status for " + channelName(b.session, i),
		Color: 0x3498DB,
	}
	for _, id := range ids {
		name := id
		if o, ok := b.registry.Get(id); ok {
			name = fmt.Sprintf("%s - %s", id, o.Title)
		}
		ps := stats[id]
		card.Fields = append(card.Fields, batch.Field{
			Name:  name,
			Value: fmt.Sprintf("Notes: %d | Missions: %d", ps.Notes, ps.Missions),
		})
	}

	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{toEmbed(card)},
		},
	})
}

func (b *Bot) memoryView(ctx context.Context, i *discordgo.InteractionCreate, officerID string) error {
	if officerID == "" {
		return b.respondText(i, "❌ Please specify an officer_id")
	}
	officer, ok := b.registry.Get(officerID)
	if !ok {
		return b.respondText(i, fmt.Sprintf("❌ Invalid officer_id: %s", officerID))
	}

	memoryText, err := b.memory.Assemble(ctx, officerID, channelID(i))
	if err != nil {
		return err
	}
	if memoryText == "" {
		memoryText = "No memory yet"
	}

	card := batch.Card{
		Title: fmt.Sprintf("🧠 Memory: %s - %s", officerID, officer.Title),
		Body:  clamp(memoryText, embedDescriptionCap),
		Color: officer.EmbedColor(),
	}
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{toEmbed(card)},
		},
	})
}

func (b *Bot) memoryAdd(ctx context.Context, i *discordgo.InteractionCreate, officerID, note string, pinned bool) error {
	if officerID == "" || note == "" {
		return b.respondText(i, "❌ Please specify officer_id and note")
	}
	if _, ok := b.registry.Get(officerID); !ok {
		return b.respondText(i, fmt.Sprintf("❌ Invalid officer_id: %s", officerID))
	}

	err := b.store.AddNote(ctx, store.Note{
		OfficerID: officerID,
		ChannelID: channelID(i),
		Content:   note,
		CreatedBy: userID(i),
		Pinned:    pinned,
	})
	if err != nil {
		return err
	}
	return b.respondText(i, fmt.Sprintf("✅ Added note to %s's memory in this channel", officerID))
}

// memoryClearPrompt asks for confirmation before any destructive clear. The
// officer and channel ride in the button ids.
func (b *Bot) memoryClearPrompt(i *discordgo.InteractionCreate, officerID string) error {
	if officerID == "" {
		return b.respondText(i, "❌ Please specify an officer_id")
	}
	if _, ok := b.registry.Get(officerID); !ok {
		return b.respondText(i, fmt.Sprintf("❌ Invalid officer_id: %s", officerID))
	}

	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("⚠️ Clear all manual notes for %s in this channel?", officerID),
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.Button{
							Label:    "Yes, Clear",
							Style:    discordgo.DangerButton,
							CustomID: customID("memory", "clearconfirm", officerID),
						},
						discordgo.Button{
							Label:    "Cancel",
							Style:    discordgo.SecondaryButton,
							CustomID: customID("memory", "clearcancel"),
						},
					},
				},
			},
		},
	})
}

func (b *Bot) handleClearConfirm(ctx context.Context, i *discordgo.InteractionCreate, officerID string) error {
	n, err := b.store.ClearNotes(ctx, officerID, channelID(i))
	if err != nil {
		return err
	}
	return b.respondText(i, fmt.Sprintf("✅ Cleared %s's memory (%d notes)", officerID, n))
}

func (b *Bot) handleClearCancel(i *discordgo.InteractionCreate) error {
	return b.respondText(i, "❌ Cancelled")
}
