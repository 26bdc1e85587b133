package sim

import (
	"math"

	"trustlend-sim/internal/model"
)

// Health-factor bands for risk classification.
const (
	dangerBand  = 1.2
	warningBand = 1.5
)

// DynamicAPY computes the supply APY from pool utilization. Below the target
// the rate ramps linearly up to baseRate; above it a steeper second slope
// takes over, reaching 3x baseRate at 100% utilization. Both branches agree
// exactly at utilization == target.
func DynamicAPY(utilization, target, baseRate float64) float64 {
	if utilization < target {
		return baseRate * (utilization / target)
	}
	if target >= 100 {
		return baseRate
	}
	return baseRate + baseRate*2*(utilization-target)/(100-target)
}

// HealthFactor relates the configured liquidation threshold to the loan's
// current LTV. Below 1.0 the loan is eligible for liquidation.
func HealthFactor(liquidationThreshold, ltv float64) float64 {
	if ltv == 0 {
		return math.Inf(1)
	}
	return liquidationThreshold / ltv
}

// Classify maps a health factor onto the fixed risk bands.
func Classify(healthFactor float64) model.LoanStatus {
	switch {
	case healthFactor < dangerBand:
		return model.StatusDanger
	case healthFactor < warningBand:
		return model.StatusWarning
	default:
		return model.StatusSafe
	}
}

// aggregates recomputes the snapshot-level metrics from the loan population
// and the live parameter set. TVL is derived from borrowed volume and the
// utilization target, so utilization lands near target/2 by construction.
func aggregates(loans []model.Loan, params model.ProtocolParams) (totalBorrowed, tvl, utilization, apy float64) {
	for _, loan := range loans {
		totalBorrowed += loan.Amount
	}
	tvl = totalBorrowed * (200 / params.UtilizationTarget)
	if tvl > 0 {
		utilization = totalBorrowed / tvl * 100
	}
	apy = DynamicAPY(utilization, params.UtilizationTarget, params.InterestRate)
	return totalBorrowed, tvl, utilization, apy
}
