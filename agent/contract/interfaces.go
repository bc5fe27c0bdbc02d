package contract

import (
	"context"

	"github.com/tanpawarit/outreach-agent/internal/model"
)

// Oracle turns a text prompt into free-form text. Output format is never
// guaranteed.
type Oracle interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type UserStore interface {
	EnsureUser(ctx context.Context, id int64) error
}

type CampaignStore interface {
	CreateCampaign(ctx context.Context, c *model.Campaign) error
	GetCampaign(ctx context.Context, id int64) (*model.Campaign, error)
	ListCampaigns(ctx context.Context, userID int64) ([]model.Campaign, error)
}

type SequenceStore interface {
	CreateSequence(ctx context.Context, s *model.OutreachSequence) error
	GetSequence(ctx context.Context, id int64) (*model.OutreachSequence, error)
	// LatestSequence returns the highest version for the campaign, newest row first on ties.
	LatestSequence(ctx context.Context, campaignID int64) (*model.OutreachSequence, error)
	ListSequences(ctx context.Context, campaignID int64) ([]model.OutreachSequence, error)
}

type ConversationStore interface {
	GetConversation(ctx context.Context, id int64) (*model.Conversation, error)
	CreateConversation(ctx context.Context, c *model.Conversation) error
	AppendTurns(ctx context.Context, id int64, turns []model.Turn) error
}
