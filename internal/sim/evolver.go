package sim

import (
	"fmt"
	"time"

	"trustlend-sim/internal/model"
)

const (
	// priceWindow is how many existing points are retained before the new
	// point is appended, bounding the history at priceWindow+1.
	priceWindow = 100

	txProbability = 0.3
)

// Health-factor boundaries watched during evolution. Only downward crossings
// emit events; improving health is silent.
const (
	liquidationBoundary     = 1.0
	nearLiquidationBoundary = 1.2
)

// Evolve advances a snapshot by one tick: steps the price walk, re-prices
// every loan against the new price, probabilistically emits a transaction,
// detects worsening health-factor crossings, and recomputes the aggregates
// with the live parameter set. The previous snapshot is left untouched.
func (e *Engine) Evolve(prev model.Snapshot, params model.ProtocolParams) model.Snapshot {
	now := e.now()

	newPrice := round2(clampPrice(prev.ETHPrice + (e.rand.Float64()-0.5)*10*params.ETHVolatility))
	priceHistory := e.advancePriceHistory(prev.PriceHistory, newPrice, now)

	loans := repriceLoans(prev.Loans, newPrice, params)
	transactions := e.advanceTransactions(prev.RecentTransactions, params, now)
	events := e.detectCrossings(prev, loans, params, newPrice, now)

	totalBorrowed, tvl, utilization, apy := aggregates(loans, params)

	return model.Snapshot{
		TVL:                tvl,
		ActiveLoans:        len(loans),
		TotalBorrowed:      totalBorrowed,
		AvailableLiquidity: tvl - totalBorrowed,
		UtilizationRate:    utilization,
		CurrentAPY:         apy,
		ETHPrice:           newPrice,
		Loans:              loans,
		PriceHistory:       priceHistory,
		RecentTransactions: transactions,
		RecentEvents:       events,
		ProtocolParams:     params,
		Timestamp:          now,
	}
}

func (e *Engine) advancePriceHistory(prev []model.PricePoint, newPrice float64, now time.Time) []model.PricePoint {
	retained := prev
	if len(retained) > priceWindow {
		retained = retained[len(retained)-priceWindow:]
	}
	history := make([]model.PricePoint, 0, len(retained)+1)
	history = append(history, retained...)
	history = append(history, model.PricePoint{
		Timestamp: now,
		Price:     newPrice,
		Volume:    e.rand.Float64() * 1_000_000,
	})
	return history
}

// repriceLoans revalues each loan's fixed collateral at the new price. The
// collateral asset amount never changes; only its market value does.
func repriceLoans(prev []model.Loan, newPrice float64, params model.ProtocolParams) []model.Loan {
	loans := make([]model.Loan, len(prev))
	for i, loan := range prev {
		marketValue := loan.CollateralETH * newPrice
		ltv := loan.LTV
		if marketValue > 0 {
			ltv = loan.Amount / marketValue * 100
		}
		health := HealthFactor(params.LiquidationThreshold, ltv)

		loan.LTV = ltv
		loan.HealthFactor = health
		loan.LiquidationThreshold = params.LiquidationThreshold
		loan.Status = Classify(health)
		loans[i] = loan
	}
	return loans
}

func (e *Engine) advanceTransactions(prev []model.Transaction, params model.ProtocolParams, now time.Time) []model.Transaction {
	if e.rand.Float64() >= txProbability {
		// Copy regardless so the new snapshot never aliases the old one.
		return append([]model.Transaction(nil), prev...)
	}

	tx := e.randomTransaction(params, now, fmt.Sprintf("TX-%d", now.UnixMilli()))
	transactions := make([]model.Transaction, 0, len(prev)+1)
	transactions = append(transactions, tx)
	transactions = append(transactions, prev...)
	if len(transactions) > maxTransactions {
		transactions = transactions[:maxTransactions]
	}
	return transactions
}

// detectCrossings emits at most one event per loan per tick, and only when
// health worsened across a boundary: below 1.0 is a liquidation, below 1.2
// while still at or above 1.0 is a near-liquidation. A loan with no previous
// record skips detection rather than failing the tick.
func (e *Engine) detectCrossings(prev model.Snapshot, loans []model.Loan, params model.ProtocolParams, newPrice float64, now time.Time) []model.Event {
	prevByID := make(map[string]model.Loan, len(prev.Loans))
	for _, loan := range prev.Loans {
		prevByID[loan.ID] = loan
	}

	var emitted []model.Event
	for _, loan := range loans {
		before, ok := prevByID[loan.ID]
		if !ok {
			continue
		}

		var kind model.EventType
		switch {
		case before.HealthFactor >= liquidationBoundary && loan.HealthFactor < liquidationBoundary:
			kind = model.EventLiquidation
		case before.HealthFactor >= nearLiquidationBoundary && loan.HealthFactor < nearLiquidationBoundary &&
			loan.HealthFactor >= liquidationBoundary:
			kind = model.EventNearLiquidation
		default:
			continue
		}

		emitted = append(emitted, model.Event{
			ID:        fmt.Sprintf("EVENT-%d-%s", now.UnixMilli(), loan.ID),
			Type:      kind,
			LoanID:    loan.ID,
			Timestamp: now,
			Price:     newPrice,
			Threshold: params.LiquidationThreshold,
			Message:   eventMessage(kind, params.LiquidationThreshold),
		})
	}

	events := make([]model.Event, 0, len(emitted)+len(prev.RecentEvents))
	events = append(events, emitted...)
	events = append(events, prev.RecentEvents...)
	if len(events) > maxEvents {
		events = events[:maxEvents]
	}
	return events
}
