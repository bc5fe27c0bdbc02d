// Package store persists users, campaigns, sequences and conversations in
// Postgres through bun. Every method issues a single statement.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

var (
	_ contractx.UserStore         = (*Store)(nil)
	_ contractx.CampaignStore     = (*Store)(nil)
	_ contractx.SequenceStore     = (*Store)(nil)
	_ contractx.ConversationStore = (*Store)(nil)
)

type Store struct {
	db bun.IDB
}

func New(db bun.IDB) *Store {
	return &Store{db: db}
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.NewSelect().ColumnExpr("1").Scan(ctx, &one)
}

func (s *Store) EnsureUser(ctx context.Context, id int64) error {
	user := &model.User{ID: id, Name: fmt.Sprintf("User %d", id)}
	if _, err := s.db.NewInsert().Model(user).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("ensure user %d: %w", id, err)
	}
	return nil
}

func (s *Store) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	if _, err := s.db.NewInsert().Model(c).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("insert campaign: %w", err)
	}
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	c := new(model.Campaign)
	if err := s.db.NewSelect().Model(c).Where("c.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "campaign %d", id)
	}
	return c, nil
}

func (s *Store) ListCampaigns(ctx context.Context, userID int64) ([]model.Campaign, error) {
	campaigns := make([]model.Campaign, 0)
	err := s.db.NewSelect().
		Model(&campaigns).
		Where("c.user_id = ?", userID).
		OrderExpr("c.created_at DESC, c.id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *Store) CreateSequence(ctx context.Context, seq *model.OutreachSequence) error {
	if seq.Version <= 0 {
		seq.Version = 1
	}
	if _, err := s.db.NewInsert().Model(seq).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("insert sequence: %w", err)
	}
	return nil
}

func (s *Store) GetSequence(ctx context.Context, id int64) (*model.OutreachSequence, error) {
	seq := new(model.OutreachSequence)
	if err := s.db.NewSelect().Model(seq).Where("s.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "sequence %d", id)
	}
	return seq, nil
}

func (s *Store) LatestSequence(ctx context.Context, campaignID int64) (*model.OutreachSequence, error) {
	seq := new(model.OutreachSequence)
	err := s.db.NewSelect().
		Model(seq).
		Where("s.campaign_id = ?", campaignID).
		OrderExpr("s.version DESC, s.created_at DESC, s.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err, "sequences for campaign %d", campaignID)
	}
	return seq, nil
}

func (s *Store) ListSequences(ctx context.Context, campaignID int64) ([]model.OutreachSequence, error) {
	seqs := make([]model.OutreachSequence, 0)
	err := s.db.NewSelect().
		Model(&seqs).
		Where("s.campaign_id = ?", campaignID).
		OrderExpr("s.version ASC, s.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sequences: %w", err)
	}
	return seqs, nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	conv := new(model.Conversation)
	if err := s.db.NewSelect().Model(conv).Where("cv.id = ?", id).Scan(ctx); err != nil {
		return nil, notFound(err, "conversation %d", id)
	}
	if conv.Messages == nil {
		conv.Messages = []model.Turn{}
	}
	return conv, nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	if conv.Messages == nil {
		conv.Messages = []model.Turn{}
	}
	if _, err := s.db.NewInsert().Model(conv).Returning("*").Exec(ctx); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// AppendTurns concatenates turns onto the stored message array in place.
func (s *Store) AppendTurns(ctx context.Context, id int64, turns []model.Turn) error {
	raw, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal turns: %w", err)
	}

	res, err := s.db.NewUpdate().
		Model((*model.Conversation)(nil)).
		Set("messages = messages || ?::jsonb", string(raw)).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("cv.id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("append turns: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: conversation %d", contractx.ErrNotFound, id)
	}
	return nil
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: "+format, append([]any{contractx.ErrNotFound}, args...)...)
	}
	return fmt.Errorf("select "+format+": %w", append(args, err)...)
}
