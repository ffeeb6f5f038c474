package crons

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/conv"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/model"
	"gitlab.com/paramountdax-exchange/papertrade_ledger/queries"
)

const auditTimeout = time.Minute

var ledgerAuditViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "ledger_audit_violations_total",
	Help: "Ledger rows found breaking an invariant by the audit cron",
}, []string{"check"})

func init() {
	prometheus.MustRegister(ledgerAuditViolations)
}

// Audit checks
const (
	CheckNegativeAvailable = "negative_available"
	CheckNegativeLocked    = "negative_locked"
	CheckLockedInUse       = "locked_in_use"
	CheckNegativePosition  = "negative_position"
	CheckFlatWithEntry     = "flat_with_entry_price"
	CheckDivergence        = "balance_position_divergence"
)

// Finding is one row breaking a ledger invariant
type Finding struct {
	Check  string
	UserID string
	Asset  string
}

// CronAuditLedger scans every balance and position and reports invariant breaches. It never writes.
func CronAuditLedger(store queries.Reader) []Finding {
	logger := log.With().
		Str("section", "crons").
		Str("method", "CronAuditLedger").
		Logger()

	ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
	defer cancel()

	balances, err := store.ListAllBalances(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to get balances")
		return nil
	}
	positions, err := store.ListAllPositions(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Unable to get positions")
		return nil
	}

	findings := AuditLedger(balances, positions)
	for _, f := range findings {
		ledgerAuditViolations.WithLabelValues(f.Check).Inc()
		logger.Error().Str("check", f.Check).Str("user_id", f.UserID).Str("asset", f.Asset).Msg("Ledger invariant violated")
	}
	logger.Info().Int("balances", len(balances)).Int("positions", len(positions)).Int("violations", len(findings)).Msg("Ledger audit complete")
	return findings
}

// AuditLedger compares the rows of the whole ledger. A position must match the
// available balance of its asset since market orders move both by the same size.
func AuditLedger(balances []model.Balance, positions []model.Position) []Finding {
	findings := []Finding{}
	type key struct{ user, asset string }
	available := make(map[key]*model.Balance, len(balances))

	for i := range balances {
		b := &balances[i]
		available[key{b.UserID, b.Asset}] = b
		if conv.IsNegative(b.AvailableAmount()) {
			findings = append(findings, Finding{CheckNegativeAvailable, b.UserID, b.Asset})
		}
		switch {
		case conv.IsNegative(b.LockedAmount()):
			findings = append(findings, Finding{CheckNegativeLocked, b.UserID, b.Asset})
		case !conv.IsZero(b.LockedAmount()):
			findings = append(findings, Finding{CheckLockedInUse, b.UserID, b.Asset})
		}
	}

	for i := range positions {
		p := &positions[i]
		size := p.SizeAmount()
		if conv.IsNegative(size) {
			findings = append(findings, Finding{CheckNegativePosition, p.UserID, p.Asset})
		}
		if conv.IsZero(size) && !conv.IsZero(p.AvgEntryPriceAmount()) {
			findings = append(findings, Finding{CheckFlatWithEntry, p.UserID, p.Asset})
		}
		base := available[key{p.UserID, p.Asset}]
		if base == nil {
			if !conv.IsZero(size) {
				findings = append(findings, Finding{CheckDivergence, p.UserID, p.Asset})
			}
			continue
		}
		if !conv.Equal(base.AvailableAmount(), size) {
			findings = append(findings, Finding{CheckDivergence, p.UserID, p.Asset})
		}
	}
	return findings
}
