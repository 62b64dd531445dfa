package council

import (
	"fmt"
	"strings"
	"time"
)

// ResearchCouncilSize is the fixed number of perspectives on a research
// mission; roles are assigned to officers by position.
const ResearchCouncilSize = 4

// ResearchRoles are the four analytical lenses, in assignment order.
var ResearchRoles = [ResearchCouncilSize]Assignment{
	{
		Role:        "State-of-the-Art Researcher",
		Instruction: "Focus on current best practices, leading solutions, and latest developments. Cite specific examples and provide concrete evidence.",
	},
	{
		Role:        "Critical Analyst",
		Instruction: "Identify counterexamples, flaws, limitations, and risks. Challenge assumptions and highlight edge cases.",
	},
	{
		Role:        "Optimistic Visionary",
		Instruction: "Explore futuristic possibilities, emerging technologies, and 'what if' scenarios. Think 3-5 years ahead.",
	},
	{
		Role:        "Historical Context Provider",
		Instruction: "Explain the evolution of this field, past attempts, lessons learned, and provide historical perspective.",
	},
}

// ResearchAssignments builds positional role assignments for a research
// dispatch on the given topic.
func ResearchAssignments(topic string) map[int]Assignment {
	assignments := make(map[int]Assignment, ResearchCouncilSize)
	for i, role := range ResearchRoles {
		a := role
		a.UserPrompt = fmt.Sprintf(
			"Research Topic: %s\n\nProvide a comprehensive analysis from your assigned perspective as the %s.",
			topic, role.Role)
		assignments[i] = a
	}
	return assignments
}

// ErrCouncilSize is returned when a research class does not hold exactly
// four officers.
type ErrCouncilSize struct {
	Class string
	Found int
}

func (e *ErrCouncilSize) Error() string {
	return fmt.Sprintf("expected %d officers in %s, found %d", ResearchCouncilSize, e.Class, e.Found)
}

// ResearchReport renders the results of a research dispatch as a markdown
// document.
func ResearchReport(topic string, results []Result, class string, webSearch bool) string {
	searchStatus := "📚 Pretraining Knowledge Only"
	if webSearch {
		searchStatus = "✅ Web Search Enabled - Sources Cited"
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.OfficerID
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Research Report: %s\n\n", topic)
	fmt.Fprintf(&b, "**Generated:** %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "**Capability Class:** %s\n", titleCase(class))
	fmt.Fprintf(&b, "**Research Council:** %s\n", strings.Join(ids, ", "))
	fmt.Fprintf(&b, "**Search Mode:** %s\n\n---\n\n", searchStatus)

	fmt.Fprintf(&b, "## Executive Summary\n\n")
	fmt.Fprintf(&b, "This research explores **%s** through four analytical lenses:\n", topic)
	b.WriteString("- **State-of-the-Art:** Current best practices\n")
	b.WriteString("- **Critical Analysis:** Limitations and risks\n")
	b.WriteString("- **Visionary Perspective:** Future possibilities\n")
	b.WriteString("- **Historical Context:** Evolution and lessons\n\n---\n\n")

	for _, r := range results {
		fmt.Fprintf(&b, "## %s\n\n", r.ResearchRole)
		fmt.Fprintf(&b, "**Officer:** %s - %s\n", r.OfficerID, r.Title)
		fmt.Fprintf(&b, "**Model:** %s\n\n", r.Model)
		fmt.Fprintf(&b, "%s\n\n---\n\n", r.Response)
	}

	b.WriteString("\n**Report generated by Atlas War Room - Research Command**\n")
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
