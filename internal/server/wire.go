package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/outreach-agent/agent/agents/dispatcher"
	contractx "github.com/tanpawarit/outreach-agent/agent/contract"
	"github.com/tanpawarit/outreach-agent/agent/llm"
	promptx "github.com/tanpawarit/outreach-agent/agent/prompt"
	"github.com/tanpawarit/outreach-agent/agent/sequence"
	toolx "github.com/tanpawarit/outreach-agent/agent/tool"
	"github.com/tanpawarit/outreach-agent/internal/cache"
	"github.com/tanpawarit/outreach-agent/internal/dbmigrate"
	"github.com/tanpawarit/outreach-agent/internal/events"
	"github.com/tanpawarit/outreach-agent/internal/metrics"
	"github.com/tanpawarit/outreach-agent/internal/service"
	"github.com/tanpawarit/outreach-agent/internal/store"
	"github.com/tanpawarit/outreach-agent/internal/store/inmemory"
	postgresx "github.com/tanpawarit/outreach-agent/pkg/postgres"
	"github.com/tanpawarit/outreach-agent/pkg/rabbitmq"
)

type application struct {
	manager *service.OutreachManager
	metrics *metrics.Metrics
}

// backingStore is implemented by both the Postgres and in-memory stores.
type backingStore interface {
	contractx.UserStore
	contractx.CampaignStore
	contractx.SequenceStore
	contractx.ConversationStore
	service.Pinger
}

// build constructs the application. The returned cleanup is always safe to
// call, even when err is non-nil.
func build(ctx context.Context, opts Options) (*application, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	base, closeStore, err := openStore(ctx, opts)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeStore)

	m := metrics.New()

	var campaigns contractx.CampaignStore = base
	c, err := cache.New(ctx, opts.Cache)
	if err != nil {
		return nil, cleanup, fmt.Errorf("cache: %w", err)
	}
	if c != nil {
		closers = append(closers, func() { _ = c.Close() })
		campaigns = cache.NewCampaignStore(base, c, opts.Cache.KeyPrefix, opts.Cache.TTL)
		log.Info().Str("driver", opts.Cache.Driver).Msg("campaign cache enabled")
	}

	var sequences contractx.SequenceStore = base
	if opts.AMQP.Enabled() {
		pub, err := rabbitmq.NewPublisher(opts.AMQP)
		if err != nil {
			return nil, cleanup, fmt.Errorf("amqp: %w", err)
		}
		closers = append(closers, func() { _ = pub.Close() })
		sequences = events.NewSequenceStore(base, pub)
		log.Info().Str("exchange", opts.AMQP.Exchange).Msg("sequence events enabled")
	}

	agentOracle, err := llm.NewOracle(ctx, opts.LLM, llm.RoleAgent)
	if err != nil {
		return nil, cleanup, fmt.Errorf("agent oracle: %w", err)
	}
	toolOracle, err := llm.NewOracle(ctx, opts.LLM, llm.RoleTool)
	if err != nil {
		return nil, cleanup, fmt.Errorf("tool oracle: %w", err)
	}
	generatorOracle, err := llm.NewOracle(ctx, opts.LLM, llm.RoleGenerator)
	if err != nil {
		return nil, cleanup, fmt.Errorf("generator oracle: %w", err)
	}
	agentOracle = metrics.InstrumentOracle(agentOracle, string(llm.RoleAgent), m)
	toolOracle = metrics.InstrumentOracle(toolOracle, string(llm.RoleTool), m)
	generatorOracle = metrics.InstrumentOracle(generatorOracle, string(llm.RoleGenerator), m)

	prompts := promptx.LoadPromptSet()
	gen, err := sequence.NewGenerator(generatorOracle, prompts)
	if err != nil {
		return nil, cleanup, err
	}

	registry, err := toolx.NewRegistry(toolx.Dependencies{
		Oracle:    toolOracle,
		Generator: gen,
		Sequences: sequences,
		Prompts:   prompts,
	})
	if err != nil {
		return nil, cleanup, err
	}

	d, err := dispatcher.New(agentOracle, registry, base, prompts)
	if err != nil {
		return nil, cleanup, err
	}

	manager, err := service.NewOutreachManager(service.Dependencies{
		Users:         base,
		Campaigns:     campaigns,
		Sequences:     sequences,
		Conversations: base,
		Database:      base,
		Generator:     gen,
		Dispatcher:    d,
		Observer:      m,
	})
	if err != nil {
		return nil, cleanup, err
	}

	return &application{manager: manager, metrics: m}, cleanup, nil
}

func openStore(ctx context.Context, opts Options) (backingStore, func(), error) {
	switch opts.App.storeDriver() {
	case StoreDriverMemory:
		log.Warn().Msg("using in-memory store, data is lost on restart")
		return inmemory.New(), func() {}, nil
	case StoreDriverPostgres:
		if opts.Postgres == nil {
			return nil, func() {}, errors.New("postgres config is required for the postgres store driver")
		}
		if opts.App.AutoMigrate {
			if err := dbmigrate.Run(opts.Postgres.URL, dbmigrate.DirectionUp, 0); err != nil {
				return nil, func() {}, err
			}
		}
		db, err := postgresx.Open(ctx, *opts.Postgres)
		if err != nil {
			return nil, func() {}, err
		}
		return store.New(db), func() { _ = db.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store driver %q", opts.App.StoreDriver)
	}
}
