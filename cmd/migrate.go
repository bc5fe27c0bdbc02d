package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tanpawarit/outreach-agent/internal/dbmigrate"
	configx "github.com/tanpawarit/outreach-agent/pkg/config"
	postgresx "github.com/tanpawarit/outreach-agent/pkg/postgres"
)

func migrateCMD() *cobra.Command {
	var direction string
	var steps int

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			pg, err := configx.New[postgresx.Config]("DATABASE")
			if err != nil {
				return err
			}
			return dbmigrate.Run(pg.URL, direction, steps)
		},
	}
	migrate.Flags().StringVar(&direction, "direction", dbmigrate.DirectionUp, "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	return migrate
}
