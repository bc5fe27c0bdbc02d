package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	openrouterx "github.com/tanpawarit/outreach-agent/pkg/openrouter"
)

type fakeChatModel struct {
	reply *schema.Message
	err   error
	seen  []*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.seen = input
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func TestChatModelOracleSendsPromptVerbatim(t *testing.T) {
	t.Parallel()

	fake := &fakeChatModel{reply: schema.AssistantMessage("Action: general_conversation\nAction Input: hi", nil)}
	oracle, err := NewChatModelOracle(context.Background(), fake)
	if err != nil {
		t.Fatalf("NewChatModelOracle() error = %v", err)
	}

	prompt := `User: {"not": "a placeholder"}`
	out, err := oracle.Complete(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "Action: general_conversation\nAction Input: hi" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(fake.seen) != 1 || fake.seen[0].Role != schema.User || fake.seen[0].Content != prompt {
		t.Fatalf("model saw %#v", fake.seen)
	}
}

func TestChatModelOracleWrapsModelError(t *testing.T) {
	t.Parallel()

	oracle, err := NewChatModelOracle(context.Background(), &fakeChatModel{err: errors.New("boom")})
	if err != nil {
		t.Fatalf("NewChatModelOracle() error = %v", err)
	}
	_, err = oracle.Complete(context.Background(), "hello")
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestOpenRouterForRoleOverrides(t *testing.T) {
	t.Parallel()

	cfg := Config{
		APIKey:               "k",
		Model:                "base/model",
		Temperature:          0.2,
		MaxCompletionToken:   512,
		GeneratorModel:       "gen/model",
		AgentTemperature:     -1,
		GeneratorTemperature: 0.3,
	}

	agent := cfg.OpenRouterFor(RoleAgent)
	if agent.Model != "base/model" || agent.Temperature != 0.2 {
		t.Fatalf("agent config = %+v", agent)
	}
	gen := cfg.OpenRouterFor(RoleGenerator)
	if gen.Model != "gen/model" || gen.Temperature != 0.3 {
		t.Fatalf("generator config = %+v", gen)
	}
	if gen.MaxCompletionToken == nil || *gen.MaxCompletionToken != 512 {
		t.Fatalf("max tokens = %v", gen.MaxCompletionToken)
	}
}

func TestOpenRouterForStopSequences(t *testing.T) {
	t.Parallel()

	cfg := Config{APIKey: "k", Model: "base/model", AgentTemperature: -1, GeneratorTemperature: -1}

	agent := cfg.OpenRouterFor(RoleAgent)
	want := []string{"Observation:", "Final Answer:"}
	if !reflect.DeepEqual(agent.Stop, want) {
		t.Fatalf("agent stop = %v, want %v", agent.Stop, want)
	}
	if tool := cfg.OpenRouterFor(RoleTool); len(tool.Stop) != 0 {
		t.Fatalf("tool stop = %v, want none", tool.Stop)
	}
	if gen := cfg.OpenRouterFor(RoleGenerator); len(gen.Stop) != 0 {
		t.Fatalf("generator stop = %v, want none", gen.Stop)
	}

	agent.Stop[0] = "changed"
	if AgentStopSequences[0] != "Observation:" {
		t.Fatalf("agent config aliases AgentStopSequences")
	}
}

func TestOpenAIOracleSendsStopSequences(t *testing.T) {
	t.Parallel()

	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":0,"model":"base/model",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Action: general_conversation"}}]}`))
	}))
	defer srv.Close()

	cfg := Config{APIKey: "k", Model: "base/model", BaseURL: srv.URL, AgentTemperature: -1}
	orCfg := cfg.OpenRouterFor(RoleAgent)
	oracle, err := NewOpenAIOracle(openrouterx.NewClient(orCfg), orCfg)
	if err != nil {
		t.Fatalf("NewOpenAIOracle() error = %v", err)
	}

	out, err := oracle.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if out != "Action: general_conversation" {
		t.Fatalf("Complete() = %q", out)
	}
	stop, ok := body["stop"].([]any)
	if !ok || len(stop) != 2 || stop[0] != "Observation:" || stop[1] != "Final Answer:" {
		t.Fatalf("request stop = %#v", body["stop"])
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{name: "valid default backend", cfg: Config{APIKey: "k", Model: "m"}, ok: true},
		{name: "valid openai backend", cfg: Config{APIKey: "k", Model: "m", Backend: "OpenAI"}, ok: true},
		{name: "missing key", cfg: Config{Model: "m"}},
		{name: "missing model", cfg: Config{APIKey: "k"}},
		{name: "unknown backend", cfg: Config{APIKey: "k", Model: "m", Backend: "grpc"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if !tc.ok && !errors.Is(err, contractx.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}
