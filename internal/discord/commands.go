package discord

import "github.com/bwmarrin/discordgo"

var classChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Strategic", Value: "strategic"},
	{Name: "Operational", Value: "operational"},
	{Name: "Tactical", Value: "tactical"},
	{Name: "Support", Value: "support"},
}

// commands is the full slash command surface, registered on startup.
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "mission",
		Description: "Submit a mission brief to the War Room council",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "brief",
				Description: "The mission brief or question for the council",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "capability_class",
				Description: "Filter by capability class (optional)",
				Choices:     classChoices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "use_web_search",
				Description: "Enable real-time web search for capable officers",
			},
		},
	},
	{
		Name:        "research",
		Description: "Conduct multi-perspective research on a topic",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "topic",
				Description: "The research question or topic to investigate",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "capability_class",
				Description: "Which officer class should research this",
				Required:    true,
				Choices:     classChoices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "use_web_search",
				Description: "Enable real-time web search and source citations",
			},
		},
	},
	{
		Name:        "memory",
		Description: "Manage officer memory for this channel",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "action",
				Description: "Action to perform",
				Required:    true,
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "📊 View Stats", Value: "stats"},
					{Name: "🔍 View Officer", Value: "view"},
					{Name: "➕ Add Note", Value: "add"},
					{Name: "🗑️ Clear Officer", Value: "clear"},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "officer_id",
				Description: "Officer ID (for view, add, clear)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "note",
				Description: "Note content (for 'add' action)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionBoolean,
				Name:        "pinned",
				Description: "Pin the note so it survives memory trimming",
			},
		},
	},
}
