package model

import (
	"fmt"
	"math"
)

// ProtocolParams is the operator-tunable parameter set that drives every
// generation and evolution step. All percentage fields are expressed in
// percent (10 == 10%).
type ProtocolParams struct {
	InterestRate         float64 `mapstructure:"interest_rate" json:"interestRate"`
	LTVRatio             float64 `mapstructure:"ltv_ratio" json:"ltvRatio"`
	LiquidationThreshold float64 `mapstructure:"liquidation_threshold" json:"liquidationThreshold"`
	LiquidationPenalty   float64 `mapstructure:"liquidation_penalty" json:"liquidationPenalty"`
	ProtocolFee          float64 `mapstructure:"protocol_fee" json:"protocolFee"`
	MinLoanAmount        float64 `mapstructure:"min_loan_amount" json:"minLoanAmount"`
	MaxLoanAmount        float64 `mapstructure:"max_loan_amount" json:"maxLoanAmount"`
	LoanDurationDays     int     `mapstructure:"loan_duration_days" json:"loanDuration"`
	GracePeriodDays      int     `mapstructure:"grace_period_days" json:"gracePeriod"`
	UtilizationTarget    float64 `mapstructure:"utilization_target" json:"utilizationTarget"`
	ETHVolatility        float64 `mapstructure:"eth_volatility" json:"ethVolatility"`
}

// DefaultParams mirrors the dashboard defaults.
func DefaultParams() ProtocolParams {
	return ProtocolParams{
		InterestRate:         10,
		LTVRatio:             150,
		LiquidationThreshold: 75,
		LiquidationPenalty:   5,
		ProtocolFee:          0.1,
		MinLoanAmount:        100,
		MaxLoanAmount:        100000,
		LoanDurationDays:     365,
		GracePeriodDays:      7,
		UtilizationTarget:    80,
		ETHVolatility:        2,
	}
}

// Validate rejects parameter sets the engine cannot operate on. The engine
// itself is total over valid inputs, so this is the only failure boundary.
func (p ProtocolParams) Validate() error {
	percentages := map[string]float64{
		"interest_rate":         p.InterestRate,
		"ltv_ratio":             p.LTVRatio,
		"liquidation_threshold": p.LiquidationThreshold,
		"liquidation_penalty":   p.LiquidationPenalty,
		"protocol_fee":          p.ProtocolFee,
		"utilization_target":    p.UtilizationTarget,
	}
	for name, value := range percentages {
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return fmt.Errorf("protocol.%s must be a finite number", name)
		}
		if value < 0 {
			return fmt.Errorf("protocol.%s cannot be negative", name)
		}
	}

	if p.LTVRatio <= 100 {
		return fmt.Errorf("protocol.ltv_ratio must exceed 100 (got %v)", p.LTVRatio)
	}
	if p.LiquidationThreshold <= 0 || p.LiquidationThreshold > 100 {
		return fmt.Errorf("protocol.liquidation_threshold must be in (0, 100] (got %v)", p.LiquidationThreshold)
	}
	if p.UtilizationTarget <= 0 || p.UtilizationTarget > 100 {
		return fmt.Errorf("protocol.utilization_target must be in (0, 100] (got %v)", p.UtilizationTarget)
	}
	if math.IsNaN(p.ETHVolatility) || math.IsInf(p.ETHVolatility, 0) || p.ETHVolatility <= 0 {
		return fmt.Errorf("protocol.eth_volatility must be positive (got %v)", p.ETHVolatility)
	}
	if math.IsNaN(p.MinLoanAmount) || math.IsInf(p.MinLoanAmount, 0) ||
		math.IsNaN(p.MaxLoanAmount) || math.IsInf(p.MaxLoanAmount, 0) {
		return fmt.Errorf("protocol loan amounts must be finite numbers")
	}
	if p.MinLoanAmount < 0 {
		return fmt.Errorf("protocol.min_loan_amount cannot be negative")
	}
	if p.MinLoanAmount >= p.MaxLoanAmount {
		return fmt.Errorf("protocol.min_loan_amount (%v) must be below protocol.max_loan_amount (%v)", p.MinLoanAmount, p.MaxLoanAmount)
	}
	if p.LoanDurationDays < 0 || p.GracePeriodDays < 0 {
		return fmt.Errorf("protocol durations cannot be negative")
	}
	return nil
}
