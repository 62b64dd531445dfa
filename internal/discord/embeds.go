package discord

import (
	"fmt"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/harris-mohamed/atlas/internal/batch"
	"github.com/harris-mohamed/atlas/internal/council"
)

// Discord hard limits for a single embed.
const (
	embedDescriptionCap = 4096
	neutralColor        = 0x95A5A6
)

// officerCard renders one council result as a card. The description carries
// the response; class, specialty, and status land in fields.
func officerCard(r council.Result) batch.Card {
	status := "✅ Complete"
	if !r.Success {
		status = "❌ Error"
	}
	return batch.Card{
		Title: fmt.Sprintf("**[%s - %s]** • %s", r.OfficerID, r.Title, r.Model),
		Body:  clamp(r.Response, embedDescriptionCap),
		Color: r.Color,
		Fields: []batch.Field{
			{Name: "Class", Value: string(r.CapabilityClass), Inline: true},
			{Name: "Specialty", Value: r.Specialty, Inline: true},
			{Name: "Status", Value: status, Inline: true},
		},
	}
}

// researchCard leads with the perspective role; officer identity moves into
// the body above the response.
func researchCard(r council.Result) batch.Card {
	status := "✅ Complete"
	if !r.Success {
		status = "❌ Error"
	}
	return batch.Card{
		Title: fmt.Sprintf("**%s**", r.ResearchRole),
		Body: fmt.Sprintf("**[%s - %s]** • %s\n\n%s",
			r.OfficerID, r.Title, r.Model, clamp(r.Response, 3900)),
		Color: r.Color,
		Fields: []batch.Field{
			{Name: "Class", Value: string(r.CapabilityClass), Inline: true},
			{Name: "Specialty", Value: r.Specialty, Inline: true},
			{Name: "Status", Value: status, Inline: true},
		},
	}
}

func toEmbed(c batch.Card) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       c.Title,
		Description: c.Body,
		Color:       c.Color,
	}
	if c.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: c.Footer}
	}
	if c.Author != "" {
		e.Author = &discordgo.MessageEmbedAuthor{Name: c.Author}
	}
	for _, f := range c.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return e
}

// sendChunks delivers cards as followup messages. Interactive components ride
// on the final chunk only, after the complete output is visible.
func (b *Bot) sendChunks(i *discordgo.InteractionCreate, cards []batch.Card, components []discordgo.MessageComponent) error {
	chunks := batch.Split(cards, batch.DefaultMaxSize)
	for _, chunk := range chunks {
		embeds := make([]*discordgo.MessageEmbed, len(chunk.Cards))
		for j, c := range chunk.Cards {
			embeds[j] = toEmbed(c)
		}
		params := &discordgo.WebhookParams{Embeds: embeds}
		if chunk.Last && len(components) > 0 {
			params.Components = components
		}
		if _, err := b.session.FollowupMessageCreate(i.Interaction, true, params); err != nil {
			return fmt.Errorf("send chunk: %w", err)
		}
	}
	return nil
}

// clamp caps s at max bytes without splitting a multibyte rune.
func clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
