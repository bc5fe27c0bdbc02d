package cmd

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tanpawarit/outreach-agent/agent/llm"
	"github.com/tanpawarit/outreach-agent/internal/cache"
	"github.com/tanpawarit/outreach-agent/internal/server"
	configx "github.com/tanpawarit/outreach-agent/pkg/config"
	postgresx "github.com/tanpawarit/outreach-agent/pkg/postgres"
	"github.com/tanpawarit/outreach-agent/pkg/rabbitmq"
)

func serveCMD() *cobra.Command {
	var addr string
	var storeDriver string

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadServeOptions()
			if err != nil {
				return err
			}
			if addr != "" {
				opts.App.Addr = addr
			}
			if storeDriver != "" {
				opts.App.StoreDriver = storeDriver
			}
			if !strings.EqualFold(strings.TrimSpace(opts.App.StoreDriver), server.StoreDriverMemory) {
				pg, err := configx.New[postgresx.Config]("DATABASE")
				if err != nil {
					return err
				}
				opts.Postgres = pg
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx, opts)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (overrides APP_ADDR)")
	serve.Flags().StringVar(&storeDriver, "store", "", "store driver: postgres or memory (overrides APP_STORE_DRIVER)")

	return serve
}

func loadServeOptions() (server.Options, error) {
	app, err := configx.New[server.Config]("APP")
	if err != nil {
		return server.Options{}, err
	}
	llmCfg, err := configx.New[llm.Config]("LLM")
	if err != nil {
		return server.Options{}, err
	}
	cacheCfg, err := configx.New[cache.Config]("CACHE")
	if err != nil {
		return server.Options{}, err
	}
	amqpCfg, err := configx.New[rabbitmq.Config]("AMQP")
	if err != nil {
		return server.Options{}, err
	}
	return server.Options{App: *app, LLM: *llmCfg, Cache: *cacheCfg, AMQP: *amqpCfg}, nil
}
