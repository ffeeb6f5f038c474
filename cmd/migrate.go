package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/cmd/commands"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database migrations and exit",
	Run: func(cmd *cobra.Command, args []string) {
		commands.Migrate(config.LoadConfig(viper.GetViper()))
	},
}
