package llm

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	openai "github.com/openai/openai-go"
	oshared "github.com/openai/openai-go/shared"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	openrouterx "github.com/tanpawarit/outreach-agent/pkg/openrouter"
)

var (
	_ contractx.Oracle = (*ChatModelOracle)(nil)
	_ contractx.Oracle = (*OpenAIOracle)(nil)
)

// ChatModelOracle sends the prompt as a single user message through an eino
// chat model and returns the reply content.
type ChatModelOracle struct {
	runner compose.Runnable[map[string]any, string]
}

func NewChatModelOracle(ctx context.Context, chatModel einomodel.BaseChatModel) (*ChatModelOracle, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}

	template := einoprompt.FromMessages(schema.FString, schema.UserMessage("{prompt}"))

	graph := compose.NewGraph[map[string]any, string]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add oracle prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add oracle model node: %w", err)
	}
	if err := graph.AddLambdaNode("content",
		compose.InvokableLambda(func(ctx context.Context, msg *schema.Message) (string, error) {
			if msg == nil {
				return "", fmt.Errorf("%w: empty model message", contractx.ErrModelInvoke)
			}
			return msg.Content, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add oracle content node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add oracle edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add oracle edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", "content"); err != nil {
		return nil, fmt.Errorf("add oracle edge model->content: %w", err)
	}
	if err := graph.AddEdge("content", compose.END); err != nil {
		return nil, fmt.Errorf("add oracle edge content->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("oracle.chat_graph"))
	if err != nil {
		return nil, fmt.Errorf("compile oracle graph: %w", err)
	}
	return &ChatModelOracle{runner: runner}, nil
}

func (o *ChatModelOracle) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := o.runner.Invoke(ctx, map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return out, nil
}

// OpenAIOracle calls the chat completions endpoint directly through openai-go.
type OpenAIOracle struct {
	client *openai.Client
	cfg    openrouterx.Config
}

func NewOpenAIOracle(client *openai.Client, cfg openrouterx.Config) (*OpenAIOracle, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: openai client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: model is required", contractx.ErrValidation)
	}
	return &OpenAIOracle{client: client, cfg: cfg}, nil
}

func (o *OpenAIOracle) Complete(ctx context.Context, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       oshared.ChatModel(o.cfg.Model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(float64(o.cfg.Temperature)),
	}
	if o.cfg.MaxCompletionToken != nil && *o.cfg.MaxCompletionToken > 0 {
		params.MaxCompletionTokens = openai.Int(int64(*o.cfg.MaxCompletionToken))
	}
	if len(o.cfg.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: o.cfg.Stop}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion returned no choices", contractx.ErrModelInvoke)
	}
	return resp.Choices[0].Message.Content, nil
}

// NewOracle builds the oracle for role using the configured backend.
func NewOracle(ctx context.Context, cfg Config, role Role) (contractx.Oracle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	orCfg := cfg.OpenRouterFor(role)

	switch cfg.backend() {
	case BackendOpenAI:
		return NewOpenAIOracle(openrouterx.NewClient(orCfg), orCfg)
	default:
		chatModel, err := openrouterx.NewChatModel(ctx, orCfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		return NewChatModelOracle(ctx, chatModel)
	}
}
