// Package discord is the presentation surface: slash commands in, batched
// embeds and interactive components out. Components carry only a stored
// mission id; every click reloads state from the store, so controls keep
// working across process restarts.
package discord

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/harris-mohamed/atlas/internal/council"
	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/harris-mohamed/atlas/internal/store"
	"go.uber.org/zap"
)

// Bot wires the Discord session to the council and its persistence.
type Bot struct {
	session  *discordgo.Session
	registry *roster.Registry
	store    *store.Store
	council  *council.Orchestrator
	memory   council.MemorySource
	logger   *zap.Logger
	guildID  string
}

// New creates the bot around an authenticated session token.
func New(token, guildID string, registry *roster.Registry, st *store.Store, orch *council.Orchestrator, mem council.MemorySource, logger *zap.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session:  session,
		registry: registry,
		store:    st,
		council:  orch,
		memory:   mem,
		logger:   logger,
		guildID:  guildID,
	}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	return b, nil
}

// Start opens the gateway connection and registers slash commands. Commands
// are registered per guild when a guild id is configured, globally otherwise.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}

	appID := b.session.State.User.ID
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guildID, commands); err != nil {
		b.session.Close()
		return fmt.Errorf("register commands: %w", err)
	}
	b.logger.Info("slash commands registered",
		zap.String("app_id", appID),
		zap.String("guild_id", b.guildID))
	return nil
}

// Close shuts the gateway connection.
func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("connected to Discord",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)))
}

// onInteraction routes every interaction type to its handler. Handler errors
// are logged and surfaced to the user as a short followup.
func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	var err error
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		switch data.Name {
		case "mission":
			err = b.handleMission(ctx, i, data)
		case "research":
			err = b.handleResearch(ctx, i, data)
		case "memory":
			err = b.handleMemory(ctx, i, data)
		}
	case discordgo.InteractionMessageComponent:
		err = b.handleComponent(ctx, i, i.MessageComponentData().CustomID)
	case discordgo.InteractionModalSubmit:
		err = b.handleModalSubmit(ctx, i, i.ModalSubmitData())
	}

	if err != nil {
		b.logger.Error("interaction failed",
			zap.String("interaction_id", i.ID),
			zap.Error(err))
		b.followupText(i, "❌ Something went wrong handling that request.")
	}
}

// deferResponse acknowledges the interaction so long dispatches don't hit
// the 3s interaction deadline.
func (b *Bot) deferResponse(i *discordgo.InteractionCreate) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

func (b *Bot) respondText(i *discordgo.InteractionCreate, text string) error {
	return b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
}

func (b *Bot) followupText(i *discordgo.InteractionCreate, text string) {
	if _, err := b.session.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{Content: text}); err != nil {
		b.logger.Warn("followup failed", zap.Error(err))
	}
}

func channelID(i *discordgo.InteractionCreate) int64 {
	id, _ := strconv.ParseInt(i.ChannelID, 10, 64)
	return id
}

func userID(i *discordgo.InteractionCreate) int64 {
	u := interactionUser(i)
	if u == nil {
		return 0
	}
	id, _ := strconv.ParseInt(u.ID, 10, 64)
	return id
}

func displayName(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.Nick != "" {
		return i.Member.Nick
	}
	if u := interactionUser(i); u != nil {
		return u.Username
	}
	return "unknown"
}

// interactionUser handles both guild (Member) and DM (User) interactions.
func interactionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

func optionMap(data discordgo.ApplicationCommandInteractionData) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(data.Options))
	for _, opt := range data.Options {
		m[opt.Name] = opt
	}
	return m
}

// customID joins a component reference: scope, action, and a durable ref
// (mission id, or officer:channel for memory controls).
func customID(scope, action string, ref ...string) string {
	parts := append([]string{scope, action}, ref...)
	return strings.Join(parts, ":")
}

func parseCustomID(id string) (scope, action string, refs []string) {
	parts := strings.Split(id, ":")
	if len(parts) < 2 {
		return id, "", nil
	}
	return parts[0], parts[1], parts[2:]
}
