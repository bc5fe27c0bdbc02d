package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/outreach-agent/pkg/config"
	logx "github.com/tanpawarit/outreach-agent/pkg/logger"
)

func newRootCMD() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "outreach-agent",
		Short:         "HR outreach assistant backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configx.SetEnvFile(envFile)
			logCfg, err := configx.New[logx.Config]("LOG")
			if err != nil {
				return err
			}
			logx.Init(*logCfg)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file (default ./.env when present)")

	root.AddCommand(serveCMD(), migrateCMD())
	return root
}

func Execute() {
	if err := newRootCMD().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
