package model

import "time"

// LoanStatus is derived solely from the loan's health factor.
type LoanStatus string

const (
	StatusSafe    LoanStatus = "safe"
	StatusWarning LoanStatus = "warning"
	StatusDanger  LoanStatus = "danger"
)

// TransactionType enumerates the simulated transaction kinds.
type TransactionType string

const (
	TxLoan        TransactionType = "loan"
	TxRepayment   TransactionType = "repayment"
	TxLiquidation TransactionType = "liquidation"
	TxDeposit     TransactionType = "deposit"
	TxWithdrawal  TransactionType = "withdrawal"
)

// TransactionTypes lists all kinds in the order the generator draws from.
var TransactionTypes = []TransactionType{TxLoan, TxRepayment, TxLiquidation, TxDeposit, TxWithdrawal}

// EventType enumerates protocol event kinds.
type EventType string

const (
	EventLiquidation     EventType = "liquidation"
	EventNearLiquidation EventType = "nearLiquidation"
	EventSaved           EventType = "saved"
	EventNewLoan         EventType = "newLoan"
)

// EventTypes lists all kinds in the order the generator draws from.
var EventTypes = []EventType{EventLiquidation, EventNearLiquidation, EventSaved, EventNewLoan}

// Loan is a simulated borrowing position. ID, Borrower, Amount, Collateral,
// CollateralETH and InterestRate are fixed at creation; LTV, HealthFactor,
// LiquidationThreshold and Status are restamped on every tick.
type Loan struct {
	ID                   string     `json:"id"`
	Borrower             string     `json:"borrower"`
	Amount               float64    `json:"amount"`
	Collateral           float64    `json:"collateral"`
	CollateralETH        float64    `json:"collateralEth"`
	LTV                  float64    `json:"ltv"`
	HealthFactor         float64    `json:"healthFactor"`
	InterestRate         float64    `json:"interestRate"`
	DaysActive           int        `json:"daysActive"`
	LiquidationThreshold float64    `json:"liquidationThreshold"`
	Status               LoanStatus `json:"status"`
}

// PricePoint is one observation on the simulated ETH price walk.
type PricePoint struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
}

// Transaction is a simulated protocol transaction.
type Transaction struct {
	ID        string          `json:"id"`
	Type      TransactionType `json:"type"`
	LoanID    string          `json:"loanId"`
	Amount    float64         `json:"amount"`
	Fee       float64         `json:"fee"`
	Timestamp time.Time       `json:"timestamp"`
	Hash      string          `json:"hash"`
}

// Event records a protocol state transition (or a seeded historical one).
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	LoanID    string    `json:"loanId"`
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message"`
}

// Snapshot is the complete simulated protocol state at one tick. It is never
// mutated after construction; the evolver always returns a fresh value so a
// consumer can keep rendering the previous one.
type Snapshot struct {
	TVL                float64        `json:"tvl"`
	ActiveLoans        int            `json:"activeLoans"`
	TotalBorrowed      float64        `json:"totalBorrowed"`
	AvailableLiquidity float64        `json:"availableLiquidity"`
	UtilizationRate    float64        `json:"utilizationRate"`
	CurrentAPY         float64        `json:"currentApy"`
	ETHPrice           float64        `json:"ethPrice"`
	Loans              []Loan         `json:"loans"`
	PriceHistory       []PricePoint   `json:"priceHistory"`
	RecentTransactions []Transaction  `json:"recentTransactions"`
	RecentEvents       []Event        `json:"recentEvents"`
	ProtocolParams     ProtocolParams `json:"protocolParams"`
	Timestamp          time.Time      `json:"timestamp"`
}

// LoanByID looks a loan up in the snapshot's population.
func (s Snapshot) LoanByID(id string) (Loan, bool) {
	for _, loan := range s.Loans {
		if loan.ID == id {
			return loan, true
		}
	}
	return Loan{}, false
}
