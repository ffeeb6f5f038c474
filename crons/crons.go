package crons

import (
	"github.com/robfig/cron"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/config"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

var cronService *cron.Cron

// Start Initiate the crons based on the given configuration file
func Start(crons config.Crons, store queries.Reader) {
	cronService = cron.New()
	for id, schedule := range crons {
		callback := GetCronByID(id, store)
		if callback == nil {
			log.Warn().Str("section", "crons").Str("cron", id).Msg("Unknown cron id, skipped")
			continue
		}
		if err := cronService.AddFunc(schedule, callback); err != nil {
			log.Error().Err(err).Str("section", "crons").Str("cron", id).Str("schedule", schedule).Msg("Unable to schedule cron")
			continue
		}
		// run once at startup
		callback()
	}
	cronService.Start()
}

// GetCronByID get a function to execute based on the id
func GetCronByID(id string, store queries.Reader) func() {
	switch id {
	case "audit_ledger":
		return func() {
			CronAuditLedger(store)
		}
	}
	return nil
}

// Close godoc
func Close() {
	if cronService != nil {
		cronService.Stop()
	}
}
