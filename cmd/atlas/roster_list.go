package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/harris-mohamed/atlas/internal/config"
	"github.com/harris-mohamed/atlas/internal/roster"
	"github.com/spf13/cobra"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	idStyle = lipgloss.NewStyle().
		Bold(true).
		Width(6)

	modelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	classStyles = map[roster.CapabilityClass]lipgloss.Style{
		roster.ClassStrategic:   lipgloss.NewStyle().Foreground(lipgloss.Color("135")),
		roster.ClassOperational: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		roster.ClassTactical:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		roster.ClassSupport:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

func runRosterList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	registry, err := roster.Load(cfg.Roster.Path)
	if err != nil {
		return fmt.Errorf("load roster: %w", err)
	}

	active := registry.Active()
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Active roster (version %s, %d officers)", registry.Version(), len(active))))
	b.WriteString("\n\n")

	for _, o := range active {
		classStyle, ok := classStyles[o.CapabilityClass]
		if !ok {
			classStyle = lipgloss.NewStyle()
		}
		b.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			idStyle.Render(o.ID),
			classStyle.Render(fmt.Sprintf("%-12s", o.CapabilityClass)),
			o.Title,
			modelStyle.Render(o.Model)))
		if o.Specialty != "" {
			b.WriteString(fmt.Sprintf("       %s\n", o.Specialty))
		}
	}

	fmt.Print(b.String())
	return nil
}
