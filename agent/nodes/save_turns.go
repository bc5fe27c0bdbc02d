package dispatchnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

// SaveTurns appends the user turn and the envelope, creating the
// conversation when the request did not resolve one.
func SaveTurns(ctx context.Context, in *GraphState, conversations contractx.ConversationStore) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}

	assistant, err := contractx.AssistantTurn(in.Envelope)
	if err != nil {
		return nil, err
	}
	turns := []model.Turn{contractx.UserTurn(in.Message), assistant}

	if in.Conversation != nil {
		if err := conversations.AppendTurns(ctx, in.Conversation.ID, turns); err != nil {
			return nil, fmt.Errorf("append turns: %w", err)
		}
		return in, nil
	}

	conv := &model.Conversation{
		UserID:     in.UserID,
		CampaignID: in.CampaignID,
		Messages:   turns,
		CreatedAt:  in.Now,
		UpdatedAt:  in.Now,
	}
	if err := conversations.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	in.Conversation = conv
	return in, nil
}
