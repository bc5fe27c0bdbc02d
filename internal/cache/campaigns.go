package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

var _ contractx.CampaignStore = (*CampaignStore)(nil)

// CampaignStore caches single-campaign reads. Campaigns never change after
// creation, so entries are never invalidated. Cache faults fall through to
// the wrapped store.
type CampaignStore struct {
	next   contractx.CampaignStore
	cache  Cache
	prefix string
	ttl    time.Duration
}

func NewCampaignStore(next contractx.CampaignStore, c Cache, prefix string, ttl time.Duration) *CampaignStore {
	return &CampaignStore{next: next, cache: c, prefix: prefix, ttl: ttl}
}

func (s *CampaignStore) CreateCampaign(ctx context.Context, c *model.Campaign) error {
	if err := s.next.CreateCampaign(ctx, c); err != nil {
		return err
	}
	s.put(ctx, c)
	return nil
}

func (s *CampaignStore) GetCampaign(ctx context.Context, id int64) (*model.Campaign, error) {
	key := s.key(id)
	raw, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var c model.Campaign
		if jerr := json.Unmarshal(raw, &c); jerr == nil {
			return &c, nil
		}
		log.Ctx(ctx).Warn().Str("key", key).Msg("discarding undecodable cached campaign")
	case !errors.Is(err, ErrMiss):
		log.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("campaign cache read failed")
	}

	c, err := s.next.GetCampaign(ctx, id)
	if err != nil {
		return nil, err
	}
	s.put(ctx, c)
	return c, nil
}

func (s *CampaignStore) ListCampaigns(ctx context.Context, userID int64) ([]model.Campaign, error) {
	return s.next.ListCampaigns(ctx, userID)
}

func (s *CampaignStore) put(ctx context.Context, c *model.Campaign) {
	raw, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.key(c.ID), raw, s.ttl); err != nil {
		log.Ctx(ctx).Warn().Err(err).Int64("campaign_id", c.ID).Msg("campaign cache write failed")
	}
}

func (s *CampaignStore) key(id int64) string {
	return s.prefix + "campaign:" + strconv.FormatInt(id, 10)
}
