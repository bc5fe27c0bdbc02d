// Package inmemory is a process-local store used for development and tests.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

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
	mu sync.RWMutex

	users         map[int64]model.User
	campaigns     map[int64]model.Campaign
	sequences     map[int64]model.OutreachSequence
	conversations map[int64]model.Conversation

	lastCampaignID     int64
	lastSequenceID     int64
	lastConversationID int64

	now func() time.Time
}

func New() *Store {
	return &Store{
		users:         map[int64]model.User{},
		campaigns:     map[int64]model.Campaign{},
		sequences:     map[int64]model.OutreachSequence{},
		conversations: map[int64]model.Conversation{},
		now:           time.Now,
	}
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) EnsureUser(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		s.users[id] = model.User{ID: id, Name: fmt.Sprintf("User %d", id), CreatedAt: s.now().UTC()}
	}
	return nil
}

func (s *Store) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[c.UserID]; !ok {
		return fmt.Errorf("%w: user %d", contractx.ErrNotFound, c.UserID)
	}
	s.lastCampaignID++
	now := s.now().UTC()
	c.ID = s.lastCampaignID
	c.CreatedAt, c.UpdatedAt = now, now
	s.campaigns[c.ID] = *c
	return nil
}

func (s *Store) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return nil, fmt.Errorf("%w: campaign %d", contractx.ErrNotFound, id)
	}
	return &c, nil
}

func (s *Store) ListCampaigns(ctx context.Context, userID int64) ([]model.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Campaign, 0)
	for _, c := range s.campaigns {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) CreateSequence(ctx context.Context, seq *model.OutreachSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[seq.CampaignID]; !ok {
		return fmt.Errorf("%w: campaign %d", contractx.ErrNotFound, seq.CampaignID)
	}
	if seq.Version <= 0 {
		seq.Version = 1
	}
	s.lastSequenceID++
	seq.ID = s.lastSequenceID
	seq.CreatedAt = s.now().UTC()
	seq.SequenceData = cloneDocument(seq.SequenceData)
	s.sequences[seq.ID] = *seq
	return nil
}

func (s *Store) GetSequence(ctx context.Context, id int64) (*model.OutreachSequence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seq, ok := s.sequences[id]
	if !ok {
		return nil, fmt.Errorf("%w: sequence %d", contractx.ErrNotFound, id)
	}
	seq.SequenceData = cloneDocument(seq.SequenceData)
	return &seq, nil
}

func (s *Store) LatestSequence(ctx context.Context, campaignID int64) (*model.OutreachSequence, error) {
	seqs, err := s.ListSequences(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if len(seqs) == 0 {
		return nil, fmt.Errorf("%w: sequences for campaign %d", contractx.ErrNotFound, campaignID)
	}
	latest := seqs[len(seqs)-1]
	return &latest, nil
}

// ListSequences orders by version, then insertion.
func (s *Store) ListSequences(ctx context.Context, campaignID int64) ([]model.OutreachSequence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.OutreachSequence, 0)
	for _, seq := range s.sequences {
		if seq.CampaignID == campaignID {
			seq.SequenceData = cloneDocument(seq.SequenceData)
			out = append(out, seq)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Version != out[j].Version {
			return out[i].Version < out[j].Version
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, fmt.Errorf("%w: conversation %d", contractx.ErrNotFound, id)
	}
	conv.Messages = append([]model.Turn{}, conv.Messages...)
	return &conv, nil
}

func (s *Store) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[conv.UserID]; !ok {
		return fmt.Errorf("%w: user %d", contractx.ErrNotFound, conv.UserID)
	}
	if conv.CampaignID != nil {
		if _, ok := s.campaigns[*conv.CampaignID]; !ok {
			return fmt.Errorf("%w: campaign %d", contractx.ErrNotFound, *conv.CampaignID)
		}
	}

	s.lastConversationID++
	now := s.now().UTC()
	conv.ID = s.lastConversationID
	conv.CreatedAt, conv.UpdatedAt = now, now
	if conv.Messages == nil {
		conv.Messages = []model.Turn{}
	}
	stored := *conv
	stored.Messages = append([]model.Turn{}, conv.Messages...)
	s.conversations[conv.ID] = stored
	return nil
}

func (s *Store) AppendTurns(ctx context.Context, id int64, turns []model.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("%w: conversation %d", contractx.ErrNotFound, id)
	}
	conv.Messages = append(append([]model.Turn{}, conv.Messages...), turns...)
	conv.UpdatedAt = s.now().UTC()
	s.conversations[id] = conv
	return nil
}

// cloneDocument copies through JSON-shaped values so callers cannot mutate
// stored rows.
func cloneDocument(doc model.SequenceDocument) model.SequenceDocument {
	if doc == nil {
		return nil
	}
	out := make(model.SequenceDocument, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case model.SequenceDocument:
		return cloneDocument(t)
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	default:
		return v
	}
}
