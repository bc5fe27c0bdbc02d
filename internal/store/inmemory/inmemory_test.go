package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

func TestCampaignsNewestFirst(t *testing.T) {
	t.Parallel()

	s := New()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	ctx := context.Background()
	_ = s.EnsureUser(ctx, 1)
	_ = s.EnsureUser(ctx, 2)
	for _, name := range []string{"first", "second"} {
		if err := s.CreateCampaign(ctx, &model.Campaign{UserID: 1, Name: name}); err != nil {
			t.Fatalf("CreateCampaign() error = %v", err)
		}
	}
	_ = s.CreateCampaign(ctx, &model.Campaign{UserID: 2, Name: "other"})

	list, err := s.ListCampaigns(ctx, 1)
	if err != nil {
		t.Fatalf("ListCampaigns() error = %v", err)
	}
	if len(list) != 2 || list[0].Name != "second" || list[1].Name != "first" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if _, err := s.GetCampaign(ctx, 42); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSequencesAreAppendOnly(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.EnsureUser(ctx, 1)
	if err := s.CreateCampaign(ctx, &model.Campaign{UserID: 1, Name: "c"}); err != nil {
		t.Fatalf("CreateCampaign() error = %v", err)
	}

	first := &model.OutreachSequence{CampaignID: 1, SequenceData: model.SequenceDocument{"step1": map[string]any{"channel": "Email"}}}
	if err := s.CreateSequence(ctx, first); err != nil {
		t.Fatalf("CreateSequence() error = %v", err)
	}
	if first.ID != 1 || first.Version != 1 {
		t.Fatalf("first = %+v", first)
	}

	got, _ := s.GetSequence(ctx, 1)
	got.SequenceData["step1"].(map[string]any)["channel"] = "Fax"
	again, _ := s.GetSequence(ctx, 1)
	if again.SequenceData["step1"].(map[string]any)["channel"] != "Email" {
		t.Fatal("stored document must not be mutable through returned copies")
	}

	_ = s.CreateSequence(ctx, &model.OutreachSequence{CampaignID: 1, Version: 2})
	latest, err := s.LatestSequence(ctx, 1)
	if err != nil || latest.ID != 2 || latest.Version != 2 {
		t.Fatalf("LatestSequence() = %+v, %v", latest, err)
	}
	if _, err := s.LatestSequence(ctx, 7); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationAppend(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()
	_ = s.EnsureUser(ctx, 1)

	conv := &model.Conversation{UserID: 1, Messages: []model.Turn{contractx.UserTurn("hi")}}
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if err := s.AppendTurns(ctx, conv.ID, []model.Turn{contractx.UserTurn("again")}); err != nil {
		t.Fatalf("AppendTurns() error = %v", err)
	}
	got, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation() error = %v", err)
	}
	if len(got.Messages) != 2 || got.Messages[1].Text() != "again" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if err := s.AppendTurns(ctx, 99, nil); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateRequiresParentRows(t *testing.T) {
	t.Parallel()

	s := New()
	ctx := context.Background()

	if err := s.CreateCampaign(ctx, &model.Campaign{UserID: 5, Name: "orphan"}); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("CreateCampaign() error = %v, want ErrNotFound", err)
	}
	if err := s.CreateSequence(ctx, &model.OutreachSequence{CampaignID: 9}); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("CreateSequence() error = %v, want ErrNotFound", err)
	}
	if err := s.CreateConversation(ctx, &model.Conversation{UserID: 5}); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("CreateConversation() error = %v, want ErrNotFound", err)
	}

	_ = s.EnsureUser(ctx, 5)
	missing := int64(9)
	if err := s.CreateConversation(ctx, &model.Conversation{UserID: 5, CampaignID: &missing}); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("CreateConversation() with unknown campaign error = %v, want ErrNotFound", err)
	}
	if list, _ := s.ListCampaigns(ctx, 5); len(list) != 0 {
		t.Fatalf("orphan campaign stored: %+v", list)
	}
	if _, err := s.LatestSequence(ctx, 9); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("orphan sequence stored: %v", err)
	}

	c := &model.Campaign{UserID: 5, Name: "real"}
	if err := s.CreateCampaign(ctx, c); err != nil {
		t.Fatalf("CreateCampaign() error = %v", err)
	}
	if c.ID != 1 {
		t.Fatalf("campaign id = %d, rejected inserts must not consume ids", c.ID)
	}
	conv := &model.Conversation{UserID: 5, CampaignID: &c.ID}
	if err := s.CreateConversation(ctx, conv); err != nil || conv.ID != 1 {
		t.Fatalf("CreateConversation() = %d, %v", conv.ID, err)
	}
}
