// Package events publishes domain events for stored outreach sequences.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/internal/model"
	"github.com/tanpawarit/outreach-agent/pkg/rabbitmq"
)

const (
	Producer            = "outreach-agent"
	TypeSequenceCreated = "sequence.created.v1"
	KeySequenceCreated  = "outreach.sequence.created"
)

type Publisher interface {
	Publish(ctx context.Context, key string, msg rabbitmq.Message) error
}

type Meta struct {
	ID            string    `json:"id"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Producer      string    `json:"producer"`
	Time          time.Time `json:"time"`
	Type          string    `json:"type"`
}

type Envelope[T any] struct {
	Meta Meta `json:"meta"`
	Data T    `json:"data"`
}

type SequenceCreated struct {
	SequenceID int64 `json:"sequence_id"`
	CampaignID int64 `json:"campaign_id"`
	Version    int   `json:"version"`
	Failed     bool  `json:"failed"`
}

func NewEnvelope[T any](ctx context.Context, eventType string, now time.Time, data T) Envelope[T] {
	meta := Meta{
		ID:       uuid.NewString(),
		Producer: Producer,
		Time:     now.UTC(),
		Type:     eventType,
	}
	if id, ok := hlog.IDFromCtx(ctx); ok {
		cid := id.String()
		meta.CorrelationID = &cid
	}
	return Envelope[T]{Meta: meta, Data: data}
}

func encode[T any](env Envelope[T]) (rabbitmq.Message, error) {
	body, err := json.Marshal(env)
	if err != nil {
		return rabbitmq.Message{}, fmt.Errorf("marshal %s: %w", env.Meta.Type, err)
	}
	msg := rabbitmq.Message{ID: env.Meta.ID, Type: env.Meta.Type, Body: body}
	if env.Meta.CorrelationID != nil {
		msg.CorrelationID = *env.Meta.CorrelationID
	}
	return msg, nil
}

var _ contractx.SequenceStore = (*SequenceStore)(nil)

// SequenceStore announces every stored sequence. Publishing is best effort:
// failures are logged and never fail the write.
type SequenceStore struct {
	contractx.SequenceStore
	publisher Publisher
	now       func() time.Time
}

func NewSequenceStore(next contractx.SequenceStore, publisher Publisher) *SequenceStore {
	return &SequenceStore{SequenceStore: next, publisher: publisher, now: time.Now}
}

func (s *SequenceStore) CreateSequence(ctx context.Context, seq *model.OutreachSequence) error {
	if err := s.SequenceStore.CreateSequence(ctx, seq); err != nil {
		return err
	}

	env := NewEnvelope(ctx, TypeSequenceCreated, s.now(), SequenceCreated{
		SequenceID: seq.ID,
		CampaignID: seq.CampaignID,
		Version:    seq.Version,
		Failed:     seq.SequenceData.Failed(),
	})
	msg, err := encode(env)
	if err == nil {
		err = s.publisher.Publish(ctx, KeySequenceCreated, msg)
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("sequence_id", seq.ID).Msg("sequence.created event not published")
		return nil
	}

	log.Ctx(ctx).Debug().Str("event_id", env.Meta.ID).Int64("sequence_id", seq.ID).Msg("sequence.created event published")
	return nil
}
