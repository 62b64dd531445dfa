package discord

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
)

// handleComponent dispatches button clicks by their custom id. Mission and
// research actions carry a stored mission id; memory actions carry the
// officer id.
func (b *Bot) handleComponent(ctx context.Context, i *discordgo.InteractionCreate, id string) error {
	scope, action, refs := parseCustomID(id)

	switch scope {
	case "mission", "research":
		if len(refs) == 0 {
			return fmt.Errorf("component %q missing mission ref", id)
		}
		missionID, err := strconv.ParseInt(refs[0], 10, 64)
		if err != nil {
			return fmt.Errorf("component %q bad mission ref: %w", id, err)
		}
		if scope == "mission" {
			switch action {
			case "rebuttal":
				return b.handleRebuttal(ctx, i, missionID)
			case "plan":
				return b.handlePlan(ctx, i, missionID)
			case "continue":
				return b.handleContinue(ctx, i, missionID)
			case "pivot":
				return b.handlePivotOpen(i, missionID)
			}
		} else {
			switch action {
			case "report":
				return b.handleReport(ctx, i, missionID)
			case "synthesize":
				return b.handleSynthesize(ctx, i, missionID)
			case "pivot":
				return b.handleResearchPivotOpen(i, missionID)
			}
		}
	case "memory":
		switch action {
		case "clearconfirm":
			if len(refs) == 0 {
				return fmt.Errorf("component %q missing officer ref", id)
			}
			return b.handleClearConfirm(ctx, i, refs[0])
		case "clearcancel":
			return b.handleClearCancel(i)
		}
	}
	return fmt.Errorf("unknown component id: %s", id)
}

// handleModalSubmit routes pivot modals back to their mission.
func (b *Bot) handleModalSubmit(ctx context.Context, i *discordgo.InteractionCreate, data discordgo.ModalSubmitInteractionData) error {
	scope, action, refs := parseCustomID(data.CustomID)
	if action != "pivotsubmit" || len(refs) == 0 {
		return fmt.Errorf("unknown modal id: %s", data.CustomID)
	}
	missionID, err := strconv.ParseInt(refs[0], 10, 64)
	if err != nil {
		return fmt.Errorf("modal %q bad mission ref: %w", data.CustomID, err)
	}

	instruction := textInputValue(data, "pivot_instruction")
	if instruction == "" {
		return fmt.Errorf("modal %q missing pivot instruction", data.CustomID)
	}

	switch scope {
	case "mission":
		return b.handlePivotSubmit(ctx, i, missionID, instruction)
	case "research":
		return b.handleResearchPivotSubmit(ctx, i, missionID, instruction)
	}
	return fmt.Errorf("unknown modal scope: %s", data.CustomID)
}

func textInputValue(data discordgo.ModalSubmitInteractionData, id string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if ti, ok := c.(*discordgo.TextInput); ok && ti.CustomID == id {
				return ti.Value
			}
		}
	}
	return ""
}
