// Package service holds the HTTP-facing use cases: campaigns, sequences,
// chat and health.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/outreach-agent/agent/agents/dispatcher"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/agent/sequence"
	toolx "github.com/tanpawarit/outreach-agent/agent/tool"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

const (
	StatusRunning        = "running"
	DatabaseConnected    = "connected"
	DatabaseDisconnected = "disconnected"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatcher.Request) (dispatcher.Response, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// EnvelopeObserver receives every chat answer, e.g. for metrics.
type EnvelopeObserver interface {
	ObserveEnvelope(env contractx.Envelope)
}

type Dependencies struct {
	Users         contractx.UserStore
	Campaigns     contractx.CampaignStore
	Sequences     contractx.SequenceStore
	Conversations contractx.ConversationStore
	Database      Pinger
	Generator     toolx.SequenceGenerator
	Dispatcher    Dispatcher
	Observer      EnvelopeObserver
}

type OutreachManager struct {
	deps Dependencies
}

func NewOutreachManager(deps Dependencies) (*OutreachManager, error) {
	switch {
	case deps.Users == nil, deps.Campaigns == nil, deps.Sequences == nil, deps.Conversations == nil:
		return nil, fmt.Errorf("%w: all stores are required", contractx.ErrValidation)
	case deps.Generator == nil:
		return nil, fmt.Errorf("%w: sequence generator is required", contractx.ErrValidation)
	case deps.Dispatcher == nil:
		return nil, fmt.Errorf("%w: dispatcher is required", contractx.ErrValidation)
	}
	return &OutreachManager{deps: deps}, nil
}

type CreateCampaignInput struct {
	UserID      int64
	Name        string
	Description *string
	TargetRole  *string
	Industry    *string
}

func (m *OutreachManager) CreateCampaign(ctx context.Context, in CreateCampaignInput) (*model.Campaign, error) {
	name := strings.TrimSpace(in.Name)
	if in.UserID <= 0 || name == "" {
		return nil, fmt.Errorf("%w: Missing required fields", contractx.ErrValidation)
	}
	if err := m.deps.Users.EnsureUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	c := &model.Campaign{
		UserID:      in.UserID,
		Name:        name,
		Description: in.Description,
		TargetRole:  in.TargetRole,
		Industry:    in.Industry,
	}
	if err := m.deps.Campaigns.CreateCampaign(ctx, c); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().Int64("campaign_id", c.ID).Int64("user_id", c.UserID).Msg("campaign created")
	return c, nil
}

func (m *OutreachManager) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	return m.deps.Campaigns.GetCampaign(ctx, id)
}

func (m *OutreachManager) ListCampaigns(ctx context.Context, userID int64) ([]model.Campaign, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: Missing user_id parameter", contractx.ErrValidation)
	}
	return m.deps.Campaigns.ListCampaigns(ctx, userID)
}

type SequenceExtras struct {
	CompanyValues       string
	UniqueSellingPoints string
}

// GenerateCampaignSequence generates a first-version sequence from the
// campaign's stored role and industry plus the request's extras.
func (m *OutreachManager) GenerateCampaignSequence(ctx context.Context, campaignID int64, extras SequenceExtras) (*model.OutreachSequence, error) {
	c, err := m.deps.Campaigns.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	doc := m.deps.Generator.Generate(ctx, sequence.CampaignInfo{
		TargetRole:          deref(c.TargetRole),
		Industry:            deref(c.Industry),
		CompanyValues:       extras.CompanyValues,
		UniqueSellingPoints: extras.UniqueSellingPoints,
	})

	seq := &model.OutreachSequence{CampaignID: c.ID, SequenceData: doc, Version: 1}
	if err := m.deps.Sequences.CreateSequence(ctx, seq); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64("campaign_id", c.ID).
		Int64("sequence_id", seq.ID).
		Bool("generation_failed", doc.Failed()).
		Msg("sequence generated")
	return seq, nil
}

// EditSequence stores the edited document as a new version of the same
// campaign; the source row is left untouched.
func (m *OutreachManager) EditSequence(ctx context.Context, sequenceID int64, instructions string) (*model.OutreachSequence, error) {
	if strings.TrimSpace(instructions) == "" {
		return nil, fmt.Errorf("%w: Missing edit instructions", contractx.ErrValidation)
	}

	current, err := m.deps.Sequences.GetSequence(ctx, sequenceID)
	if err != nil {
		return nil, err
	}

	doc := m.deps.Generator.Edit(ctx, current.SequenceData, instructions)
	next := &model.OutreachSequence{
		CampaignID:   current.CampaignID,
		SequenceData: doc,
		Version:      current.Version + 1,
	}
	if err := m.deps.Sequences.CreateSequence(ctx, next); err != nil {
		return nil, err
	}

	log.Ctx(ctx).Info().
		Int64("source_sequence_id", current.ID).
		Int64("sequence_id", next.ID).
		Int("version", next.Version).
		Msg("sequence edited")
	return next, nil
}

func (m *OutreachManager) ListSequences(ctx context.Context, campaignID int64) ([]model.OutreachSequence, error) {
	return m.deps.Sequences.ListSequences(ctx, campaignID)
}

type ChatInput struct {
	UserID         int64
	CampaignID     *int64
	Message        string
	ConversationID *int64
}

type ChatResult struct {
	Response       contractx.Envelope `json:"response"`
	ConversationID int64              `json:"conversation_id"`
}

func (m *OutreachManager) HandleChat(ctx context.Context, in ChatInput) (ChatResult, error) {
	message := strings.TrimSpace(in.Message)
	if in.UserID <= 0 || message == "" {
		return ChatResult{}, fmt.Errorf("%w: Missing required fields", contractx.ErrValidation)
	}
	if err := m.deps.Users.EnsureUser(ctx, in.UserID); err != nil {
		return ChatResult{}, err
	}

	campaignID, campaignContext, err := m.campaignContext(ctx, in.CampaignID)
	if err != nil {
		return ChatResult{}, err
	}

	text := "User's Request: " + message
	if campaignContext != "" {
		text += "\nCampaign context: " + campaignContext
	}

	resp, err := m.deps.Dispatcher.Dispatch(ctx, dispatcher.Request{
		UserID:         in.UserID,
		CampaignID:     campaignID,
		Message:        message,
		PromptText:     text,
		ConversationID: in.ConversationID,
	})
	if err != nil {
		return ChatResult{}, err
	}

	if m.deps.Observer != nil {
		m.deps.Observer.ObserveEnvelope(resp.Envelope)
	}
	log.Ctx(ctx).Info().
		Int64("conversation_id", resp.ConversationID).
		Str("action_tool", resp.Envelope.ActionTool).
		Bool("error", resp.Envelope.Error).
		Msg("chat handled")

	return ChatResult{Response: resp.Envelope, ConversationID: resp.ConversationID}, nil
}

// campaignContext describes the campaign for the agent. An unknown campaign
// id is dropped so the conversation never references a missing row.
func (m *OutreachManager) campaignContext(ctx context.Context, id *int64) (*int64, string, error) {
	if id == nil || *id <= 0 {
		return nil, "", nil
	}

	c, err := m.deps.Campaigns.GetCampaign(ctx, *id)
	if errors.Is(err, contractx.ErrNotFound) {
		log.Ctx(ctx).Warn().Int64("campaign_id", *id).Msg("chat references unknown campaign, ignoring")
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Working on campaign: %s (campaign_id: %d)", c.Name, c.ID)
	if role := deref(c.TargetRole); role != "" {
		fmt.Fprintf(&b, " for %s", role)
	}
	if industry := deref(c.Industry); industry != "" {
		fmt.Fprintf(&b, " in the %s industry", industry)
	}
	b.WriteString(". ")

	cid := c.ID
	return &cid, b.String(), nil
}

func (m *OutreachManager) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	return m.deps.Conversations.GetConversation(ctx, id)
}

type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (m *OutreachManager) Health(ctx context.Context) HealthStatus {
	status := HealthStatus{Status: StatusRunning, Database: DatabaseDisconnected}
	if m.deps.Database == nil {
		return status
	}
	if err := m.deps.Database.Ping(ctx); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("database ping failed")
		return status
	}
	status.Database = DatabaseConnected
	return status
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
