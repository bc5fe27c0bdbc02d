package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	nodex "github.com/tanpawarit/outreach-agent/agent/nodes"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	toolx "github.com/tanpawarit/outreach-agent/agent/tool"
)

type Request struct {
	UserID     int64
	CampaignID *int64
	Message    string
	// PromptText overrides the text shown to the agent, e.g. to add campaign
	// context. Message is what gets stored.
	PromptText     string
	ConversationID *int64
}

type Response struct {
	Envelope       contractx.Envelope
	ConversationID int64
}

// Dispatcher routes one chat message to at most one tool. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	oracle        contractx.Oracle
	tools         *toolx.Registry
	conversations contractx.ConversationStore
	prompts       promptx.PromptSet

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(
	oracle contractx.Oracle,
	tools *toolx.Registry,
	conversations contractx.ConversationStore,
	prompts promptx.PromptSet,
) (*Dispatcher, error) {
	if oracle == nil {
		return nil, fmt.Errorf("%w: agent oracle is required", contractx.ErrValidation)
	}
	if tools == nil {
		return nil, fmt.Errorf("%w: tool registry is required", contractx.ErrValidation)
	}
	if conversations == nil {
		return nil, fmt.Errorf("%w: conversation store is required", contractx.ErrValidation)
	}
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		oracle:        oracle,
		tools:         tools,
		conversations: conversations,
		prompts:       prompts,
		now:           time.Now,
	}

	graphRunner, err := d.compileDispatchGraph(context.Background())
	if err != nil {
		return nil, err
	}
	d.graphRunner = graphRunner

	return d, nil
}

// Dispatch returns an error only for invalid requests and conversation
// store faults; model and tool failures are reported inside the envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (Response, error) {
	out, err := d.graphRunner.Invoke(ctx, nodex.GraphInput{
		UserID:         req.UserID,
		CampaignID:     req.CampaignID,
		Message:        req.Message,
		Text:           req.PromptText,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return Response{}, err
	}
	return Response{Envelope: out.Envelope, ConversationID: out.ConversationID}, nil
}
