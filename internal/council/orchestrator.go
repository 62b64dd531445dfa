// Package council fans a mission brief out to many officers concurrently.
// Each officer gets its own customized gateway request; failures are isolated
// per officer and converted to data, never allowed to abort the group.
package council

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/harris-mohamed/atlas/internal/gateway"
	"github.com/harris-mohamed/atlas/internal/roster"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Prompt fragments appended to officer system prompts.
const (
	memoryHeader = "\n\n## Your Memory for This Channel:\n"

	webSearchInstruction = "\n\n**IMPORTANT: You have access to real-time web search. " +
		"Search for current information, cite specific sources with URLs, and include " +
		"publication dates when available. Always verify facts through multiple sources.**"
)

// Dispatcher is the gateway dependency. *gateway.Client satisfies it.
type Dispatcher interface {
	ChatCompletion(ctx context.Context, req gateway.Request) (gateway.Reply, error)
}

// MemorySource assembles the per-(officer, channel) context block.
// *memory.Assembler satisfies it.
type MemorySource interface {
	Assemble(ctx context.Context, officerID string, channelID int64) (string, error)
}

// Result is one officer's outcome. Exactly one of the two shapes occurs:
// Success true with Response text, or Success false with Err set (Response
// then carries the user-facing error line).
type Result struct {
	OfficerID       string
	Title           string
	Model           string
	Specialty       string
	CapabilityClass roster.CapabilityClass
	Color           int
	ResearchRole    string // set only on research missions
	Response        string
	Success         bool
	Err             string
}

// Assignment customizes one officer's request on a research mission.
type Assignment struct {
	Role        string // display name, e.g. "Critical Analyst"
	Instruction string // appended to the system prompt
	UserPrompt  string // replaces the brief as user content when non-empty
}

// Options tunes a dispatch.
type Options struct {
	// Assignments maps input position to a role customization.
	Assignments map[int]Assignment
	// WebSearch requests real-time retrieval. Officers whose model lacks the
	// capability still answer, with a disclaimer prefixed to the response.
	WebSearch bool
}

// Orchestrator performs parallel per-officer dispatches.
type Orchestrator struct {
	gateway Dispatcher
	memory  MemorySource
	logger  *zap.Logger
}

// NewOrchestrator wires the orchestrator's collaborators.
func NewOrchestrator(gw Dispatcher, mem MemorySource, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{gateway: gw, memory: mem, logger: logger}
}

// DispatchAll queries every officer concurrently and returns one Result per
// input officer, in input order, once all calls have completed, plus the
// dispatch correlation id. A slow or failed backend affects only its own
// slot. Duplicate officers each produce their own result. An empty officer
// list returns an empty slice with no network calls.
func (o *Orchestrator) DispatchAll(ctx context.Context, officers []roster.Officer, brief string, channelID int64, opts Options) ([]Result, string) {
	dispatchID := uuid.NewString()
	if len(officers) == 0 {
		return []Result{}, dispatchID
	}

	o.logger.Info("dispatching council",
		zap.String("dispatch_id", dispatchID),
		zap.Int("officers", len(officers)),
		zap.Bool("web_search", opts.WebSearch))

	results := make([]Result, len(officers))
	var g errgroup.Group
	for i, officer := range officers {
		assignment := opts.Assignments[i]
		g.Go(func() error {
			results[i] = o.queryOfficer(ctx, officer, brief, channelID, assignment, opts.WebSearch)
			return nil // failure is carried in the result, never as an error
		})
	}
	_ = g.Wait()

	return results, dispatchID
}

// queryOfficer runs the full per-officer pipeline: memory assembly, request
// construction, capability gating, the gateway call, and reply handling.
func (o *Orchestrator) queryOfficer(ctx context.Context, officer roster.Officer, brief string, channelID int64, assignment Assignment, webSearch bool) Result {
	result := Result{
		OfficerID:       officer.ID,
		Title:           officer.Title,
		Model:           officer.Model,
		Specialty:       officer.Specialty,
		CapabilityClass: officer.CapabilityClass,
		Color:           officer.EmbedColor(),
		ResearchRole:    assignment.Role,
	}

	searchActive := webSearch && gateway.SupportsWebSearch(officer.Model)

	system := officer.SystemPrompt
	if assignment.Role != "" {
		system += fmt.Sprintf("\n\n## RESEARCH ROLE: %s\n%s", assignment.Role, assignment.Instruction)
	}
	if searchActive {
		system += webSearchInstruction
	}

	// Memory failure downgrades to an un-augmented request; the officer
	// still participates.
	memoryCtx, err := o.memory.Assemble(ctx, officer.ID, channelID)
	if err != nil {
		o.logger.Warn("memory assembly failed, continuing without",
			zap.String("officer", officer.ID), zap.Error(err))
		memoryCtx = ""
	}
	if memoryCtx != "" {
		system += memoryHeader + memoryCtx
	}

	user := brief
	if assignment.UserPrompt != "" {
		user = assignment.UserPrompt
	}
	if searchActive {
		user += "\n\n**Use web search to find current information and cite all sources with URLs.**"
	}

	req := gateway.Request{
		Model: officer.Model,
		Messages: []gateway.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	if searchActive {
		req.Provider = gateway.WebSearchProviderPrefs(officer.Model)
	}

	reply, err := o.gateway.ChatCompletion(ctx, req)
	if err != nil {
		result.Success = false
		result.Err = err.Error()
		result.Response = "Error: " + err.Error()
		return result
	}

	switch reply.Kind {
	case gateway.TextReply:
		result.Success = true
		result.Response = reply.Text
	case gateway.ToolCallAttempt:
		// The officer tried to participate; surface the attempt as a
		// warning rather than a failure.
		result.Success = true
		result.Response = fmt.Sprintf(
			"⚠️ Model attempted to call a tool but function execution is not implemented. Query: %s",
			reply.AttemptedQuery())
	case gateway.ErrorReply:
		result.Success = false
		result.Err = reply.ErrMsg
		result.Response = "Error: " + reply.ErrMsg
	}

	if webSearch && !searchActive && result.Success {
		result.Response = fmt.Sprintf(
			"📚 **Note: Web search not available for this model (%s). Response based on pretraining knowledge only.**\n\n%s",
			officer.Model, result.Response)
	}
	return result
}
