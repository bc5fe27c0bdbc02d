package contract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tanpawarit/outreach-agent/internal/model"
)

const (
	ToolGenerateSequence     = "generate_sequence"
	ToolEditSequence         = "edit_sequence"
	ToolSearchBestPractices  = "search_best_practices"
	ToolGeneralConversation  = "general_conversation"
	DefaultEnvelopeOutput    = "Response generated"
	DefaultAssistantGreeting = "I'm here to help with your HR and talent acquisition needs. How can I assist you today?"
)

// Envelope is the normalized answer returned for every chat message and
// stored as the assistant turn.
type Envelope struct {
	Output     string `json:"output"`
	ActionTool string `json:"action_tool"`
	Message    string `json:"message"`
	CampaignID *int64 `json:"campaign_id,omitempty"`
	SequenceID *int64 `json:"sequence_id,omitempty"`
	Error      bool   `json:"error,omitempty"`
}

// EnvelopeFromFields builds an envelope from a decoded final-answer object.
// A missing tool falls back to defaultTool.
func EnvelopeFromFields(fields map[string]any, defaultTool string) Envelope {
	env := Envelope{
		Output:     stringField(fields["output"]),
		ActionTool: stringField(fields["action_tool"]),
		Message:    stringField(fields["message"]),
		CampaignID: intField(fields["campaign_id"]),
		SequenceID: intField(fields["sequence_id"]),
	}
	if v, ok := fields["error"].(bool); ok {
		env.Error = v
	}
	if strings.TrimSpace(env.ActionTool) == "" {
		env.ActionTool = defaultTool
	}
	return env
}

// PromoteOutput moves a bare output into the message when the model's
// direct answer carried no message of its own.
func (e Envelope) PromoteOutput() Envelope {
	if e.Message == "" {
		e.Message = e.Output
		e.Output = DefaultEnvelopeOutput
	}
	return e
}

func UserTurn(text string) model.Turn {
	raw, _ := json.Marshal(text)
	return model.Turn{Role: model.RoleUser, Content: raw}
}

func AssistantTurn(env Envelope) (model.Turn, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return model.Turn{}, fmt.Errorf("marshal envelope: %w", err)
	}
	return model.Turn{Role: model.RoleAssistant, Content: raw}, nil
}

func stringField(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		raw, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(raw)
	}
}

func intField(v any) *int64 {
	var n int64
	switch t := v.(type) {
	case float64:
		n = int64(t)
	case int:
		n = int64(t)
	case int64:
		n = t
	case json.Number:
		parsed, err := t.Int64()
		if err != nil {
			return nil
		}
		n = parsed
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if n <= 0 {
		return nil
	}
	return &n
}
