package dispatchnode

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	toolx "github.com/tanpawarit/outreach-agent/agent/tool"
)

func BuildPrompt(ctx context.Context, in *GraphState, registry *toolx.Registry, prompts promptx.PromptSet) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}

	prompt, err := promptx.Render(ctx, prompts.Agent, map[string]any{
		"history":       in.Memory.String(),
		"input":         in.Text,
		"tools":         registry.Describe(),
		"tool_names":    strings.Join(registry.Names(), ", "),
		"generate_tool": contractx.ToolGenerateSequence,
		"edit_tool":     contractx.ToolEditSequence,
		"search_tool":   contractx.ToolSearchBestPractices,
		"general_tool":  contractx.ToolGeneralConversation,
	})
	if err != nil {
		return nil, err
	}
	in.Prompt = prompt
	return in, nil
}
