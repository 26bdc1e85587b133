package sim

import (
	"fmt"
	"math"
	"time"

	"trustlend-sim/internal/model"
)

const (
	loanCount        = 50
	pricePointCount  = 100
	seedTransactions = 20
	seedEvents       = 15

	maxTransactions = 20
	maxEvents       = 15

	startPrice = 2500.0
	priceFloor = 2000.0
	priceCeil  = 3000.0

	loanIDBase = 1000
)

// Engine synthesizes protocol snapshots and advances them tick by tick. It is
// pure except for the injected randomness source and clock, so a seeded source
// plus a fixed clock reproduce a run byte for byte.
type Engine struct {
	rand Rand
	now  func() time.Time
}

// NewEngine builds an engine on the wall clock.
func NewEngine(r Rand) *Engine {
	return NewEngineWithClock(r, time.Now)
}

// NewEngineWithClock builds an engine with an explicit clock.
func NewEngineWithClock(r Rand, now func() time.Time) *Engine {
	return &Engine{rand: r, now: now}
}

// Generate builds a complete, internally consistent snapshot from the
// parameter set: loan population, price history, seeded transaction and event
// streams, and the derived aggregates. It is total over validated parameters.
func (e *Engine) Generate(params model.ProtocolParams) model.Snapshot {
	now := e.now()

	priceHistory := e.generatePriceHistory(params, now)
	ethPrice := priceHistory[len(priceHistory)-1].Price

	loans := e.generateLoans(params, ethPrice)
	transactions := e.generateTransactions(params, now)
	events := e.generateEvents(params, now)

	totalBorrowed, tvl, utilization, apy := aggregates(loans, params)

	return model.Snapshot{
		TVL:                tvl,
		ActiveLoans:        len(loans),
		TotalBorrowed:      totalBorrowed,
		AvailableLiquidity: tvl - totalBorrowed,
		UtilizationRate:    utilization,
		CurrentAPY:         apy,
		ETHPrice:           ethPrice,
		Loans:              loans,
		PriceHistory:       priceHistory,
		RecentTransactions: transactions,
		RecentEvents:       events,
		ProtocolParams:     params,
		Timestamp:          now,
	}
}

func (e *Engine) generateLoans(params model.ProtocolParams, ethPrice float64) []model.Loan {
	loans := make([]model.Loan, 0, loanCount)
	for i := 0; i < loanCount; i++ {
		amount := params.MinLoanAmount + e.rand.Float64()*(params.MaxLoanAmount-params.MinLoanAmount)
		collateral := amount * params.LTVRatio / 100

		// Seed LTV spread across [0.3, 0.8] of the threshold keeps the
		// initial population distributed over all three risk bands.
		ltv := (0.3 + e.rand.Float64()*0.5) * params.LiquidationThreshold
		health := HealthFactor(params.LiquidationThreshold, ltv)

		loans = append(loans, model.Loan{
			ID:                   fmt.Sprintf("LOAN-%d", loanIDBase+i),
			Borrower:             "0x" + e.randomHex(8) + "...",
			Amount:               amount,
			Collateral:           collateral,
			CollateralETH:        collateral / ethPrice,
			LTV:                  ltv,
			HealthFactor:         health,
			InterestRate:         params.InterestRate + (e.rand.Float64()*2 - 1),
			DaysActive:           e.rand.Intn(365),
			LiquidationThreshold: params.LiquidationThreshold,
			Status:               Classify(health),
		})
	}
	return loans
}

func (e *Engine) generatePriceHistory(params model.ProtocolParams, now time.Time) []model.PricePoint {
	history := make([]model.PricePoint, 0, pricePointCount+1)
	price := startPrice
	for i := pricePointCount; i >= 0; i-- {
		price = clampPrice(price + (e.rand.Float64()-0.5)*25*params.ETHVolatility)
		history = append(history, model.PricePoint{
			Timestamp: now.Add(-time.Duration(i) * time.Minute),
			Price:     round2(price),
			Volume:    e.rand.Float64() * 1_000_000,
		})
	}
	return history
}

func (e *Engine) generateTransactions(params model.ProtocolParams, now time.Time) []model.Transaction {
	transactions := make([]model.Transaction, 0, seedTransactions)
	for i := 0; i < seedTransactions; i++ {
		id := fmt.Sprintf("TX-%d-%d", now.UnixMilli(), i)
		tx := e.randomTransaction(params, now.Add(-time.Duration(i)*5*time.Second), id)
		transactions = append(transactions, tx)
	}
	return transactions
}

// randomTransaction draws one transaction; shared between seeding and the
// per-tick emission so both follow identical rules.
func (e *Engine) randomTransaction(params model.ProtocolParams, ts time.Time, id string) model.Transaction {
	amount := 100 + e.rand.Float64()*10000
	return model.Transaction{
		ID:        id,
		Type:      model.TransactionTypes[e.rand.Intn(len(model.TransactionTypes))],
		LoanID:    e.randomLoanID(),
		Amount:    amount,
		Fee:       amount * params.ProtocolFee / 100,
		Timestamp: ts,
		Hash:      "0x" + e.randomHex(16) + "...",
	}
}

func (e *Engine) generateEvents(params model.ProtocolParams, now time.Time) []model.Event {
	events := make([]model.Event, 0, seedEvents)
	for i := 0; i < seedEvents; i++ {
		kind := model.EventTypes[e.rand.Intn(len(model.EventTypes))]
		events = append(events, model.Event{
			ID:        fmt.Sprintf("EVENT-%d", i),
			Type:      kind,
			LoanID:    e.randomLoanID(),
			Timestamp: now.Add(-time.Duration(i) * 5 * time.Minute),
			Price:     startPrice + (e.rand.Float64()-0.5)*500,
			Threshold: params.LiquidationThreshold,
			Message:   eventMessage(kind, params.LiquidationThreshold),
		})
	}
	return events
}

func (e *Engine) randomLoanID() string {
	return fmt.Sprintf("LOAN-%d", loanIDBase+e.rand.Intn(loanCount))
}

const hexDigits = "0123456789abcdef"

func (e *Engine) randomHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[e.rand.Intn(len(hexDigits))]
	}
	return string(b)
}

func eventMessage(kind model.EventType, threshold float64) string {
	switch kind {
	case model.EventLiquidation:
		return fmt.Sprintf("Loan liquidated: LTV crossed the %.0f%% threshold", threshold)
	case model.EventNearLiquidation:
		return fmt.Sprintf("Warning: approaching the %.0f%% liquidation threshold", threshold)
	case model.EventSaved:
		return "Borrower added collateral, loan saved"
	default:
		return "New loan created"
	}
}

func clampPrice(price float64) float64 {
	return math.Max(priceFloor, math.Min(priceCeil, price))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
