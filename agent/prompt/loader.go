package prompt

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
)

var (
	//go:embed template/agent.txt
	agentRaw string

	//go:embed template/generate.txt
	generateRaw string

	//go:embed template/edit.txt
	editRaw string

	//go:embed template/extract.txt
	extractRaw string

	//go:embed template/search.txt
	searchRaw string

	//go:embed template/general.txt
	generalRaw string
)

// PromptSet holds loaded prompt content. Placeholders use the {name} form.
type PromptSet struct {
	Agent    string
	Generate string
	Edit     string
	Extract  string
	Search   string
	General  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Agent:    strings.TrimSpace(agentRaw),
		Generate: strings.TrimSpace(generateRaw),
		Edit:     strings.TrimSpace(editRaw),
		Extract:  strings.TrimSpace(extractRaw),
		Search:   strings.TrimSpace(searchRaw),
		General:  strings.TrimSpace(generalRaw),
	}
}

func (p PromptSet) Validate() error {
	named := map[string]string{
		"agent":    p.Agent,
		"generate": p.Generate,
		"edit":     p.Edit,
		"extract":  p.Extract,
		"search":   p.Search,
		"general":  p.General,
	}
	for name, tpl := range named {
		if strings.TrimSpace(tpl) == "" {
			return fmt.Errorf("%w: %s", contractx.ErrPromptMissing, name)
		}
	}
	return nil
}

// Render fills tpl with vars. Values may contain any text; only the template
// itself is parsed for placeholders.
func Render(ctx context.Context, tpl string, vars map[string]any) (string, error) {
	if strings.TrimSpace(tpl) == "" {
		return "", contractx.ErrPromptMissing
	}

	template := einoprompt.FromMessages(schema.FString, schema.UserMessage(tpl))
	msgs, err := template.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("%w: template produced no message", contractx.ErrPromptMissing)
	}
	return msgs[0].Content, nil
}
