package dispatchnode

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	memoryx "github.com/tanpawarit/outreach-agent/agent/memory"
	parserx "github.com/tanpawarit/outreach-agent/agent/parser"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

type GraphInput struct {
	UserID     int64
	CampaignID *int64
	// Message is stored as the user turn.
	Message string
	// Text is what the agent sees; it defaults to Message.
	Text           string
	ConversationID *int64
}

type GraphOutput struct {
	Envelope       contractx.Envelope
	ConversationID int64
}

// GraphState lives for one request only.
type GraphState struct {
	UserID         int64
	CampaignID     *int64
	Message        string
	Text           string
	ConversationID *int64
	Now            time.Time

	Conversation *model.Conversation
	Memory       memoryx.Memory

	Prompt    string
	RawOutput string
	OracleErr error
	Parsed    parserx.Result

	ToolName   string
	ToolOutput string

	Envelope contractx.Envelope
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	if in.UserID <= 0 {
		return nil, fmt.Errorf("%w: user_id is required", contractx.ErrValidation)
	}

	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		text = message
	}

	return &GraphState{
		UserID:         in.UserID,
		CampaignID:     positive(in.CampaignID),
		Message:        message,
		Text:           text,
		ConversationID: positive(in.ConversationID),
		Now:            nowFn().UTC(),
	}, nil
}

func positive(id *int64) *int64 {
	if id == nil || *id <= 0 {
		return nil
	}
	v := *id
	return &v
}

func requireState(in *GraphState) error {
	if in == nil {
		return fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return nil
}
