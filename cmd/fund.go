package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/service/fms"
)

var fundUser, fundAsset, fundAmount string

func init() {
	fundCmd.Flags().StringVar(&fundUser, "user", "", "id of the user to fund")
	fundCmd.Flags().StringVar(&fundAsset, "asset", "USD", "asset to credit")
	fundCmd.Flags().StringVar(&fundAmount, "amount", "", "amount of simulated funds to credit")
	_ = fundCmd.MarkFlagRequired("user")
	_ = fundCmd.MarkFlagRequired("amount")
	rootCmd.AddCommand(fundCmd)
}

var fundCmd = &cobra.Command{
	Use:   "fund",
	Short: "Credit simulated funds to a user account",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.LoadConfig(viper.GetViper())
		amount, err := conv.FromString(fundAmount)
		if err != nil {
			log.Fatal().Err(err).Str("amount", fundAmount).Msg("Invalid amount")
		}

		repo, err := queries.Connect(cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Str("section", "fund").Msg("Unable to connect to database")
		}
		defer repo.Close()

		balance, err := fms.Init(repo).Deposit(context.Background(), fundUser, fundAsset, amount)
		if err != nil {
			log.Fatal().Err(err).Str("section", "fund").Msg("Unable to fund account")
		}
		log.Info().Str("section", "fund").
			Str("user_id", balance.UserID).
			Str("asset", balance.Asset).
			Str("available", conv.Fmt(balance.AvailableAmount())).
			Msg("Account funded")
	},
}
