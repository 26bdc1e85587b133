package model

import (
	"math"
	"testing"
)

func TestDefaultParamsValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ProtocolParams)
	}{
		{"negative interest rate", func(p *ProtocolParams) { p.InterestRate = -1 }},
		{"nan protocol fee", func(p *ProtocolParams) { p.ProtocolFee = math.NaN() }},
		{"infinite ltv ratio", func(p *ProtocolParams) { p.LTVRatio = math.Inf(1) }},
		{"ltv ratio at 100", func(p *ProtocolParams) { p.LTVRatio = 100 }},
		{"zero liquidation threshold", func(p *ProtocolParams) { p.LiquidationThreshold = 0 }},
		{"threshold above 100", func(p *ProtocolParams) { p.LiquidationThreshold = 120 }},
		{"zero utilization target", func(p *ProtocolParams) { p.UtilizationTarget = 0 }},
		{"zero volatility", func(p *ProtocolParams) { p.ETHVolatility = 0 }},
		{"negative min loan", func(p *ProtocolParams) { p.MinLoanAmount = -5 }},
		{"infinite max loan", func(p *ProtocolParams) { p.MaxLoanAmount = math.Inf(1) }},
		{"nan min loan", func(p *ProtocolParams) { p.MinLoanAmount = math.NaN() }},
		{"min equals max loan", func(p *ProtocolParams) { p.MinLoanAmount = p.MaxLoanAmount }},
		{"min above max loan", func(p *ProtocolParams) { p.MinLoanAmount = p.MaxLoanAmount + 1 }},
		{"negative grace period", func(p *ProtocolParams) { p.GracePeriodDays = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParams()
			tc.mutate(&params)
			if err := params.Validate(); err == nil {
				t.Fatalf("%s must be rejected", tc.name)
			}
		})
	}
}
