package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	"github.com/tanpawarit/outreach-agent/agent/sequence"
	"github.com/tanpawarit/outreach-agent/internal/model"
)

type fakeOracle struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

type fakeGenerator struct {
	doc          model.SequenceDocument
	generated    []sequence.CampaignInfo
	edited       []model.SequenceDocument
	instructions []string
}

func (f *fakeGenerator) Generate(ctx context.Context, info sequence.CampaignInfo) model.SequenceDocument {
	f.generated = append(f.generated, info)
	return f.doc
}

func (f *fakeGenerator) Edit(ctx context.Context, doc model.SequenceDocument, instructions string) model.SequenceDocument {
	f.edited = append(f.edited, doc)
	f.instructions = append(f.instructions, instructions)
	return f.doc
}

type fakeSequenceStore struct {
	mu        sync.Mutex
	rows      map[int64]model.OutreachSequence
	nextID    int64
	createErr error
	getErr    error
}

func newFakeSequenceStore(rows ...model.OutreachSequence) *fakeSequenceStore {
	s := &fakeSequenceStore{rows: map[int64]model.OutreachSequence{}}
	for _, r := range rows {
		s.rows[r.ID] = r
		if r.ID > s.nextID {
			s.nextID = r.ID
		}
	}
	return s
}

func (s *fakeSequenceStore) CreateSequence(ctx context.Context, row *model.OutreachSequence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	s.nextID++
	row.ID = s.nextID
	s.rows[row.ID] = *row
	return nil
}

func (s *fakeSequenceStore) GetSequence(ctx context.Context, id int64) (*model.OutreachSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	row, ok := s.rows[id]
	if !ok {
		return nil, fmt.Errorf("%w: sequence %d", contractx.ErrNotFound, id)
	}
	return &row, nil
}

func (s *fakeSequenceStore) LatestSequence(ctx context.Context, campaignID int64) (*model.OutreachSequence, error) {
	rows, err := s.ListSequences(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no sequences for campaign %d", contractx.ErrNotFound, campaignID)
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

func (s *fakeSequenceStore) ListSequences(ctx context.Context, campaignID int64) ([]model.OutreachSequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	var out []model.OutreachSequence
	for _, r := range s.rows {
		if r.CampaignID == campaignID {
			out = append(out, r)
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

func newTestRegistry(t *testing.T, oracle *fakeOracle, gen *fakeGenerator, store *fakeSequenceStore) *Registry {
	t.Helper()
	reg, err := NewRegistry(Dependencies{
		Oracle:    oracle,
		Generator: gen,
		Sequences: store,
		Prompts:   promptx.LoadPromptSet(),
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg
}

func runTool(t *testing.T, reg *Registry, name string, call Call) contractx.Envelope {
	t.Helper()
	tl, ok := reg.Lookup(name)
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}
	out, err := tl.Run(context.Background(), call)
	if err != nil {
		t.Fatalf("Run(%s) error = %v", name, err)
	}
	return decodeAnswer(t, out)
}
