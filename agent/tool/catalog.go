package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	memoryx "github.com/tanpawarit/outreach-agent/agent/memory"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	"github.com/tanpawarit/outreach-agent/agent/sequence"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

// Call is a single tool invocation. Memory is the replayed conversation
// including the current request.
type Call struct {
	Input  string
	Memory memoryx.Memory
}

// Tool returns its answer as text, normally in the "Final Answer: {...}"
// form. A returned error is a fault; the dispatcher falls back on it.
type Tool interface {
	Info() *schema.ToolInfo
	Run(ctx context.Context, call Call) (string, error)
}

type SequenceGenerator interface {
	Generate(ctx context.Context, info sequence.CampaignInfo) model.SequenceDocument
	Edit(ctx context.Context, doc model.SequenceDocument, instructions string) model.SequenceDocument
}

type Dependencies struct {
	Oracle    contractx.Oracle
	Generator SequenceGenerator
	Sequences contractx.SequenceStore
	Prompts   promptx.PromptSet
}

func (d Dependencies) validate() error {
	if d.Oracle == nil {
		return fmt.Errorf("%w: tool oracle is required", contractx.ErrValidation)
	}
	if d.Generator == nil {
		return fmt.Errorf("%w: sequence generator is required", contractx.ErrValidation)
	}
	if d.Sequences == nil {
		return fmt.Errorf("%w: sequence store is required", contractx.ErrValidation)
	}
	return d.Prompts.Validate()
}

// Older clients and prompts refer to tools by these names.
var legacyNames = map[string]string{
	"generate_outreach_sequence": contractx.ToolGenerateSequence,
	"edit_sequence":              contractx.ToolEditSequence,
	"search_best_practices":      contractx.ToolSearchBestPractices,
	"general_conversation":       contractx.ToolGeneralConversation,
}

// Registry is the fixed set of four tools. It is built once and never
// modified.
type Registry struct {
	ordered []Tool
	byName  map[string]Tool
}

func NewRegistry(deps Dependencies) (*Registry, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	tools := []Tool{
		&generateTool{oracle: deps.Oracle, generator: deps.Generator, sequences: deps.Sequences, prompts: deps.Prompts},
		&editTool{generator: deps.Generator, sequences: deps.Sequences},
		&searchTool{oracle: deps.Oracle, prompts: deps.Prompts},
		&generalTool{oracle: deps.Oracle, prompts: deps.Prompts},
	}

	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		byName[t.Info().Name] = t
	}
	return &Registry{ordered: tools, byName: byName}, nil
}

// Lookup resolves name case-insensitively, accepting legacy names.
func (r *Registry) Lookup(name string) (Tool, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := legacyNames[key]; ok {
		key = canonical
	}
	t, ok := r.byName[key]
	return t, ok
}

func (r *Registry) Fallback() Tool {
	return r.byName[contractx.ToolGeneralConversation]
}

func (r *Registry) Infos() []*schema.ToolInfo {
	out := make([]*schema.ToolInfo, 0, len(r.ordered))
	for _, t := range r.ordered {
		out = append(out, t.Info())
	}
	return out
}

func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.ordered))
	for _, t := range r.ordered {
		out = append(out, t.Info().Name)
	}
	return out
}

// Describe renders one "name: description" line per tool.
func (r *Registry) Describe() string {
	lines := make([]string, 0, len(r.ordered))
	for _, t := range r.ordered {
		info := t.Info()
		lines = append(lines, info.Name+": "+info.Desc)
	}
	return strings.Join(lines, "\n")
}

func inputInfo(name, desc, inputDesc string) *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: name,
		Desc: desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"input": {Type: schema.String, Desc: inputDesc, Required: true},
		}),
	}
}
