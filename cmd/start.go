package cmd

import (
	"github.com/rs/zerolog/log"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/cmd/commands"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/server"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the ledger HTTP API",
	Long:  `Connect to the configured store, run the migrations and serve order placement and read requests`,
	Run: func(cmd *cobra.Command, args []string) {
		// load server configuration from server
		log.Debug().Msg("Loading server configuration")
		if viper.ConfigFileUsed() != "" {
			log.Debug().Str("section", "init").Str("path", viper.ConfigFileUsed()).Msg("Configuration file loaded")
		}
		cfg := config.LoadConfig(viper.GetViper())
		if cfg.Database.Driver == config.DriverPostgres {
			log.Debug().Msg("Running migrations")
			commands.Migrate(cfg)
		}

		// start a new server
		log.Debug().Str("section", "init").Msg("Starting new server instance")
		srv := server.NewServer(cfg)
		log.Info().Str("section", "init").Int("port", cfg.Server.API.Port).Msg("Listening for incoming requests")
		srv.Listen()
	},
}
