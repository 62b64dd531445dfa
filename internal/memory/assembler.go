// Package memory builds the per-(officer, channel) context block injected
// into outbound gateway requests. It combines manual notes with recent
// successful exchanges and bounds the result by an approximate token budget.
package memory

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/harris-mohamed/atlas/internal/store"
)

// DefaultTokenBudget is the assembly ceiling in estimated tokens.
const DefaultTokenBudget = 2000

// exchangeWindow bounds how many past exchanges are considered.
const exchangeWindow = 5

// Rendering caps carried over from the stored-exchange format.
const (
	briefPreviewLen    = 100
	responsePreviewLen = 200
)

// Source supplies the two prioritized memory inputs. *store.Store satisfies
// it; tests substitute fakes.
type Source interface {
	NotesFor(ctx context.Context, officerID string, channelID int64) ([]store.Note, error)
	RecentExchanges(ctx context.Context, officerID string, channelID int64, limit int) ([]store.Exchange, error)
}

// Assembler formats memory context strings from a Source.
type Assembler struct {
	source Source
}

// NewAssembler creates an Assembler backed by source.
func NewAssembler(source Source) *Assembler {
	return &Assembler{source: source}
}

// EstimateTokens approximates the token count of s as len(s)/4. This is a
// deliberate heuristic, not a tokenizer; budget constants are calibrated
// against it and callers' tests assert on it.
func EstimateTokens(s string) int {
	return len(s) / 4
}

// Assemble builds the memory context with the default budget.
func (a *Assembler) Assemble(ctx context.Context, officerID string, channelID int64) (string, error) {
	return a.AssembleWithBudget(ctx, officerID, channelID, DefaultTokenBudget)
}

// AssembleWithBudget builds the memory context for the pair, bounded so that
// EstimateTokens(result) <= budget. When both sources are empty it returns
// "" and callers must emit no memory section at all.
//
// Over budget, content is dropped in a fixed priority order: older exchanges
// first, then unpinned notes (oldest first), then the most recent exchange,
// and pinned notes last. Output is byte-identical for identical inputs.
func (a *Assembler) AssembleWithBudget(ctx context.Context, officerID string, channelID int64, budget int) (string, error) {
	notes, err := a.source.NotesFor(ctx, officerID, channelID)
	if err != nil {
		return "", fmt.Errorf("assemble memory: %w", err)
	}
	exchanges, err := a.source.RecentExchanges(ctx, officerID, channelID, exchangeWindow)
	if err != nil {
		return "", fmt.Errorf("assemble memory: %w", err)
	}
	if len(notes) == 0 && len(exchanges) == 0 {
		return "", nil
	}

	for {
		rendered := render(notes, exchanges)
		if EstimateTokens(rendered) <= budget {
			return rendered, nil
		}
		if !dropOne(&notes, &exchanges) {
			// A single protected item still exceeds the budget; hard cut.
			return cutBytes(rendered, budget*4), nil
		}
	}
}

// dropOne removes the least valuable remaining item. Returns false when
// nothing more can be dropped without emptying the block entirely.
func dropOne(notes *[]store.Note, exchanges *[]store.Exchange) bool {
	// Exchanges arrive newest first; trim from the tail.
	if len(*exchanges) > 1 {
		*exchanges = (*exchanges)[:len(*exchanges)-1]
		return true
	}
	// Notes arrive pinned-first then newest-first; trim unpinned tail.
	if n := *notes; len(n) > 0 && !n[len(n)-1].Pinned {
		*notes = n[:len(n)-1]
		return true
	}
	if len(*exchanges) == 1 {
		*exchanges = nil
		return true
	}
	// Only pinned notes remain. Give up the oldest ones, newest-pinned last.
	if n := *notes; len(n) > 1 {
		*notes = n[:len(n)-1]
		return true
	}
	return false
}

func render(notes []store.Note, exchanges []store.Exchange) string {
	var sections []string

	if len(notes) > 0 {
		var b strings.Builder
		b.WriteString("### Manual Notes:\n")
		for i, n := range notes {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
			b.WriteString(n.Content)
		}
		sections = append(sections, b.String())
	}

	if len(exchanges) > 0 {
		var b strings.Builder
		b.WriteString("### Recent Missions:\n")
		for i, e := range exchanges {
			if i > 0 {
				b.WriteString("\n---\n")
			}
			b.WriteString("Brief: ")
			b.WriteString(preview(e.Brief, briefPreviewLen))
			b.WriteString("\nResponse: ")
			b.WriteString(preview(e.Response, responsePreviewLen))
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

func preview(s string, max int) string {
	if len(s) > max {
		return cutBytes(s, max) + "..."
	}
	return s
}

// cutBytes truncates s to at most max bytes without splitting a rune.
func cutBytes(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
