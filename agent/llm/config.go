package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	openrouterx "github.com/tanpawarit/outreach-agent/pkg/openrouter"
)

// Role selects per-caller model overrides.
type Role string

const (
	RoleAgent     Role = "agent"
	RoleTool      Role = "tool"
	RoleGenerator Role = "generator"
)

// AgentStopSequences cut the agent's reply before it invents a tool
// observation or a premature final answer.
var AgentStopSequences = []string{"Observation:", "Final Answer:"}

const (
	BackendEino   = "eino"
	BackendOpenAI = "openai"
)

type Config struct {
	Backend            string        `envconfig:"BACKEND" split_words:"true" default:"eino"`
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2048"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	AgentModel           string  `envconfig:"AGENT_MODEL" split_words:"true"`
	GeneratorModel       string  `envconfig:"GENERATOR_MODEL" split_words:"true"`
	AgentTemperature     float32 `envconfig:"AGENT_TEMPERATURE" split_words:"true" default:"-1"`
	GeneratorTemperature float32 `envconfig:"GENERATOR_TEMPERATURE" split_words:"true" default:"0.3"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	switch c.backend() {
	case BackendEino, BackendOpenAI:
	default:
		return fmt.Errorf("%w: unsupported llm backend %q", contractx.ErrValidation, c.Backend)
	}
	return nil
}

func (c Config) backend() string {
	b := strings.ToLower(strings.TrimSpace(c.Backend))
	if b == "" {
		return BackendEino
	}
	return b
}

// OpenRouterFor resolves the endpoint settings for role. Empty model
// overrides and negative temperatures fall back to the defaults.
func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature
	var stop []string

	switch role {
	case RoleAgent, RoleTool:
		if v := strings.TrimSpace(c.AgentModel); v != "" {
			modelName = v
		}
		if c.AgentTemperature >= 0 {
			temp = c.AgentTemperature
		}
		if role == RoleAgent {
			stop = append([]string(nil), AgentStopSequences...)
		}
	case RoleGenerator:
		if v := strings.TrimSpace(c.GeneratorModel); v != "" {
			modelName = v
		}
		if c.GeneratorTemperature >= 0 {
			temp = c.GeneratorTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
		Stop:               stop,
	}
}
