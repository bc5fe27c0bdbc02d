package dispatchnode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if err := requireState(in); err != nil {
		return GraphOutput{}, err
	}
	if in.Conversation == nil || in.Conversation.ID <= 0 {
		return GraphOutput{}, fmt.Errorf("%w: conversation was not persisted", contractx.ErrValidation)
	}
	if strings.TrimSpace(in.Envelope.ActionTool) == "" {
		return GraphOutput{}, fmt.Errorf("%w: envelope has no action_tool", contractx.ErrSchemaViolation)
	}

	return GraphOutput{Envelope: in.Envelope, ConversationID: in.Conversation.ID}, nil
}
