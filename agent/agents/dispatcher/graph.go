package dispatcher

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	nodex "github.com/tanpawarit/outreach-agent/agent/nodes"
)

func (d *Dispatcher) compileDispatchGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, d.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_history",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadHistory(ctx, in, d.conversations)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_history: %w", err)
	}

	if err := graph.AddLambdaNode("build_prompt",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.BuildPrompt(ctx, in, d.tools, d.prompts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node build_prompt: %w", err)
	}

	if err := graph.AddLambdaNode("invoke_oracle",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.InvokeOracle(ctx, in, d.oracle)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node invoke_oracle: %w", err)
	}

	if err := graph.AddLambdaNode("parse_output",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ParseOutput(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node parse_output: %w", err)
	}

	if err := graph.AddLambdaNode("execute_tool",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTool(ctx, in, d.tools)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute_tool: %w", err)
	}

	if err := graph.AddLambdaNode("normalize_envelope",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.NormalizeEnvelope(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node normalize_envelope: %w", err)
	}

	if err := graph.AddLambdaNode("save_turns",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveTurns(ctx, in, d.conversations)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_turns: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_history"},
		{"load_history", "build_prompt"},
		{"build_prompt", "invoke_oracle"},
		{"invoke_oracle", "parse_output"},
		{"parse_output", "execute_tool"},
		{"execute_tool", "normalize_envelope"},
		{"normalize_envelope", "save_turns"},
		{"save_turns", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("dispatcher.handle_chat"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatcher graph: %w", err)
	}
	return runner, nil
}
