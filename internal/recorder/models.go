package recorder

import (
	"time"

	"github.com/shopspring/decimal"
)

// TickSample is a persisted per-tick summary of the simulated protocol.
type TickSample struct {
	Tick            time.Time
	ETHPrice        decimal.Decimal
	TVL             decimal.Decimal
	TotalBorrowed   decimal.Decimal
	UtilizationRate decimal.Decimal
	CurrentAPY      decimal.Decimal
	ActiveLoans     int
	DangerLoans     int
	CreatedAt       time.Time
}

// LiquidationRecord captures a liquidation or near-liquidation crossing for
// later inspection.
type LiquidationRecord struct {
	ID           int64
	Tick         time.Time
	LoanID       string
	Kind         string
	HealthFactor decimal.Decimal
	Price        decimal.Decimal
	Threshold    decimal.Decimal
	CreatedAt    time.Time
}
