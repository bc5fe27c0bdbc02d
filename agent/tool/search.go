package tool

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
)

const (
	searchOutput        = "Best practice for talent outreach"
	DefaultBestPractice = "[Best Practice] Personalized messages referencing specific achievements boost response rates by 30%."
	generalOutput       = "Conversation response"
)

type searchTool struct {
	oracle  contractx.Oracle
	prompts promptx.PromptSet
}

func (t *searchTool) Info() *schema.ToolInfo {
	return inputInfo(
		contractx.ToolSearchBestPractices,
		"Search for best practices in talent outreach.",
		"The best-practice question",
	)
}

func (t *searchTool) Run(ctx context.Context, call Call) (string, error) {
	return singleShot(ctx, t.oracle, t.prompts.Search, map[string]any{"query": call.Input}, contractx.Envelope{
		Output:     searchOutput,
		ActionTool: contractx.ToolSearchBestPractices,
	}, DefaultBestPractice), nil
}

type generalTool struct {
	oracle  contractx.Oracle
	prompts promptx.PromptSet
}

func (t *generalTool) Info() *schema.ToolInfo {
	return inputInfo(
		contractx.ToolGeneralConversation,
		"Only handle general conversation when no other tool applies. This is the fallback tool.",
		"The user's message",
	)
}

func (t *generalTool) Run(ctx context.Context, call Call) (string, error) {
	return singleShot(ctx, t.oracle, t.prompts.General, map[string]any{"input": call.Input}, contractx.Envelope{
		Output:     generalOutput,
		ActionTool: contractx.ToolGeneralConversation,
	}, contractx.DefaultAssistantGreeting), nil
}

// singleShot fills env.Message with one oracle reply, or with fallback and
// the error flag when the call fails.
func singleShot(ctx context.Context, oracle contractx.Oracle, tpl string, vars map[string]any, env contractx.Envelope, fallback string) string {
	prompt, err := promptx.Render(ctx, tpl, vars)
	if err == nil {
		var reply string
		reply, err = oracle.Complete(ctx, prompt)
		if err == nil {
			env.Message = reply
			return parserx.FinalAnswer(env)
		}
	}

	log.Ctx(ctx).Warn().Err(err).Str("tool", env.ActionTool).Msg("tool oracle call failed")
	env.Message = fallback
	env.Error = true
	return parserx.FinalAnswer(env)
}
