package dispatchnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	memoryx "github.com/tanpawarit/outreach-agent/agent/memory"
)

// LoadHistory replays the supplied conversation into memory. An id that no
// longer resolves is treated as a new conversation.
func LoadHistory(ctx context.Context, in *GraphState, conversations contractx.ConversationStore) (*GraphState, error) {
	if err := requireState(in); err != nil {
		return nil, err
	}
	if in.ConversationID == nil {
		return in, nil
	}

	conv, err := conversations.GetConversation(ctx, *in.ConversationID)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			log.Ctx(ctx).Info().Int64("conversation_id", *in.ConversationID).Msg("conversation not found, starting a new one")
			in.ConversationID = nil
			return in, nil
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	in.Conversation = conv
	in.Memory = memoryx.Replay(conv.Messages)
	return in, nil
}
