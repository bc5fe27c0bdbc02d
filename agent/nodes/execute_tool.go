package dispatchnode

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	memoryx "github.com/tanpawarit/outreach-agent/agent/memory"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
	toolx "github.com/tanpawarit/outreach-agent/agent/tool"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

// ExecuteTool runs at most one tool. Unknown names and tool faults fall back
// to the general-conversation tool with the raw agent output.
func ExecuteTool(ctx context.Context, in *GraphState, registry *toolx.Registry) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	if in.Parsed.IsFinal() {
		in.ToolName = contractx.ToolGeneralConversation
		return in, nil
	}

	call := toolx.Call{
		Input:  in.Parsed.Input,
		Memory: in.Memory.With(model.RoleUser, in.Text),
	}
	if strings.TrimSpace(call.Input) == "" {
		call.Input = in.fallbackInput()
	}

	t, ok := registry.Lookup(in.Parsed.Tool)
	if !ok {
		log.Ctx(ctx).Warn().Str("tool", in.Parsed.Tool).Msg("agent chose an unknown tool")
		return runFallback(ctx, in, registry, call.Memory)
	}

	in.ToolName = t.Info().Name
	out, err := t.Run(ctx, call)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("tool", in.ToolName).Msg("tool failed")
		return runFallback(ctx, in, registry, call.Memory)
	}
	in.ToolOutput = out
	return in, nil
}

func runFallback(ctx context.Context, in *GraphState, registry *toolx.Registry, mem memoryx.Memory) (*GraphState, error) {
	fallback := registry.Fallback()
	in.ToolName = fallback.Info().Name

	out, err := fallback.Run(ctx, toolx.Call{Input: in.fallbackInput(), Memory: mem})
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("fallback tool failed")
		out = parserx.FinalAnswer(contractx.Envelope{
			Output:     "Conversation response",
			ActionTool: contractx.ToolGeneralConversation,
			Message:    contractx.DefaultAssistantGreeting,
			Error:      true,
		})
	}
	in.ToolOutput = out
	return in, nil
}

// fallbackInput is the raw agent output, or the prompt text (message plus
// campaign context) when the agent produced nothing.
func (in *GraphState) fallbackInput() string {
	if strings.TrimSpace(in.RawOutput) != "" {
		return in.RawOutput
	}
	return in.Text
}
