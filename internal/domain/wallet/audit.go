package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Drift is a wallet whose stored aggregates disagree with its ledger.
type Drift struct {
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	Balance          decimal.Decimal `db:"balance" json:"balance"`
	LifetimeEarnings decimal.Decimal `db:"lifetime_earnings" json:"lifetime_earnings"`
	LifetimeSpent    decimal.Decimal `db:"lifetime_spent" json:"lifetime_spent"`
	LedgerBalance    decimal.Decimal `db:"ledger_balance" json:"ledger_balance"`
	LedgerEarnings   decimal.Decimal `db:"ledger_earnings" json:"ledger_earnings"`
	LedgerSpent      decimal.Decimal `db:"ledger_spent" json:"ledger_spent"`
}

// AuditReport summarises one reconciliation pass.
type AuditReport struct {
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Checked   int           `json:"checked"`
	Drift     []*Drift      `json:"drift"`
}

// Clean reports whether every wallet reconciled.
func (r *AuditReport) Clean() bool {
	return len(r.Drift) == 0
}

// Auditor reconciles wallets against the transaction log.
type Auditor struct {
	repo Repository
}

func NewAuditor(repo Repository) *Auditor {
	return &Auditor{repo: repo}
}

// Run checks balance == Σ amount and the lifetime aggregates for every wallet.
func (a *Auditor) Run(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{StartedAt: time.Now()}

	checked, err := a.repo.CountWallets(ctx)
	if err != nil {
		return nil, err
	}
	drift, err := a.repo.ListDrift(ctx)
	if err != nil {
		return nil, err
	}

	report.Checked = checked
	report.Drift = drift
	report.Duration = time.Since(report.StartedAt)

	for _, d := range drift {
		log.Error().
			Str("user_id", d.UserID.String()).
			Str("balance", d.Balance.String()).
			Str("ledger_balance", d.LedgerBalance.String()).
			Str("lifetime_earnings", d.LifetimeEarnings.String()).
			Str("ledger_earnings", d.LedgerEarnings.String()).
			Str("lifetime_spent", d.LifetimeSpent.String()).
			Str("ledger_spent", d.LedgerSpent.String()).
			Msg("wallet ledger drift detected")
	}

	log.Info().
		Int("checked", report.Checked).
		Int("drift", len(report.Drift)).
		Dur("took", report.Duration).
		Msg("wallet audit finished")

	return report, nil
}
