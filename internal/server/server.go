// Package server wires stores, model clients and the dispatcher into the
// HTTP API and runs it until the context is cancelled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/outreach-agent/agent/llm"
	"github.com/tanpawarit/outreach-agent/internal/cache"
	"github.com/tanpawarit/outreach-agent/internal/handler"
	"github.com/tanpawarit/outreach-agent/internal/metrics"
	"github.com/tanpawarit/outreach-agent/internal/service"
	postgresx "github.com/tanpawarit/outreach-agent/pkg/postgres"
	"github.com/tanpawarit/outreach-agent/pkg/rabbitmq"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Addr            string        `split_words:"true" default:":5080"`
	ReadTimeout     time.Duration `split_words:"true" default:"15s"`
	WriteTimeout    time.Duration `split_words:"true" default:"180s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"15s"`
	AutoMigrate     bool          `split_words:"true" default:"true"`
	StoreDriver     string        `split_words:"true" default:"postgres"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"*"`
}

func (c Config) storeDriver() string {
	d := strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if d == "" {
		return StoreDriverPostgres
	}
	return d
}

// Options carries every configuration section the server needs. Postgres
// is only read when the postgres store driver is selected.
type Options struct {
	App      Config
	LLM      llm.Config
	Postgres *postgresx.Config
	Cache    cache.Config
	AMQP     rabbitmq.Config
}

func Run(ctx context.Context, opts Options) error {
	app, cleanup, err := build(ctx, opts)
	defer cleanup()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         opts.App.Addr,
		Handler:      NewRouter(app.manager, app.metrics, opts.App.CORSOrigins),
		ReadTimeout:  opts.App.ReadTimeout,
		WriteTimeout: opts.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("store", opts.App.storeDriver()).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// NewRouter builds the chi router with logging, CORS, metrics and all API
// routes.
func NewRouter(manager *service.OutreachManager, m *metrics.Metrics, corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.RemoteAddrHandler("ip"))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if m != nil {
		r.Use(m.Middleware)
		r.Handle("/metrics", m.Handler())
	}

	handler.New(manager).Routes(r)
	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	var evt *zerolog.Event
	switch {
	case status >= http.StatusInternalServerError:
		evt = hlog.FromRequest(r).Error()
	case status >= http.StatusBadRequest:
		evt = hlog.FromRequest(r).Warn()
	default:
		evt = hlog.FromRequest(r).Info()
	}
	evt.Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
