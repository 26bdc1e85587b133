package recorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the pool was not initialised.
var ErrNotConfigured = errors.New("recorder: pool not configured")

const (
	insertTickSampleSQL = `INSERT INTO tick_samples (
        tick_ts,
        eth_price,
        tvl,
        total_borrowed,
        utilization_rate,
        current_apy,
        active_loans,
        danger_loans
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    ON CONFLICT (tick_ts) DO UPDATE
    SET
        eth_price        = EXCLUDED.eth_price,
        tvl              = EXCLUDED.tvl,
        total_borrowed   = EXCLUDED.total_borrowed,
        utilization_rate = EXCLUDED.utilization_rate,
        current_apy      = EXCLUDED.current_apy,
        active_loans     = EXCLUDED.active_loans,
        danger_loans     = EXCLUDED.danger_loans;`

	listRecentTicksSQL = `SELECT
        tick_ts,
        eth_price,
        tvl,
        total_borrowed,
        utilization_rate,
        current_apy,
        active_loans,
        danger_loans,
        created_at
    FROM tick_samples
    ORDER BY tick_ts DESC
    LIMIT $1;`

	countTicksSQL = `SELECT COUNT(*) FROM tick_samples;`

	insertLiquidationSQL = `INSERT INTO liquidations (
        tick_ts,
        loan_id,
        kind,
        health_factor,
        price,
        threshold
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    RETURNING id, tick_ts, loan_id, kind, health_factor, price, threshold, created_at;`

	listRecentLiquidationsSQL = `SELECT
        id,
        tick_ts,
        loan_id,
        kind,
        health_factor,
        price,
        threshold,
        created_at
    FROM liquidations
    ORDER BY created_at DESC
    LIMIT $1;`
)

// TickStore defines operations for tick sample persistence.
type TickStore interface {
	InsertTickSample(ctx context.Context, sample TickSample) error
	ListRecentTicks(ctx context.Context, limit int) ([]TickSample, error)
	CountTicks(ctx context.Context) (int64, error)
}

// LiquidationStore defines operations for the liquidation log.
type LiquidationStore interface {
	InsertLiquidation(ctx context.Context, rec LiquidationRecord) error
	ListRecentLiquidations(ctx context.Context, limit int) ([]LiquidationRecord, error)
}

// Store aggregates access to tick samples and the liquidation log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertTickSample persists or updates a tick summary.
func (s *Store) InsertTickSample(ctx context.Context, sample TickSample) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, insertTickSampleSQL,
		sample.Tick,
		sample.ETHPrice.String(),
		sample.TVL.String(),
		sample.TotalBorrowed.String(),
		sample.UtilizationRate.String(),
		sample.CurrentAPY.String(),
		sample.ActiveLoans,
		sample.DangerLoans,
	)
	if execErr != nil {
		return fmt.Errorf("insert tick sample: %w", execErr)
	}
	return nil
}

// ListRecentTicks lists the most recent tick samples, newest first.
func (s *Store) ListRecentTicks(ctx context.Context, limit int) ([]TickSample, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentTicksSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent ticks: %w", queryErr)
	}
	defer rows.Close()

	samples := make([]TickSample, 0, limit)
	for rows.Next() {
		sample, scanErr := scanTickSample(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		samples = append(samples, sample)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return samples, nil
}

// CountTicks counts stored tick samples.
func (s *Store) CountTicks(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countTicksSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count ticks: %w", scanErr)
	}
	return count, nil
}

// InsertLiquidation appends to the liquidation log.
func (s *Store) InsertLiquidation(ctx context.Context, rec LiquidationRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	row := pool.QueryRow(ctx, insertLiquidationSQL,
		rec.Tick,
		rec.LoanID,
		rec.Kind,
		rec.HealthFactor.String(),
		rec.Price.String(),
		rec.Threshold.String(),
	)
	if _, scanErr := scanLiquidation(row); scanErr != nil {
		return fmt.Errorf("insert liquidation: %w", scanErr)
	}
	return nil
}

// ListRecentLiquidations lists the newest liquidation records.
func (s *Store) ListRecentLiquidations(ctx context.Context, limit int) ([]LiquidationRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentLiquidationsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent liquidations: %w", queryErr)
	}
	defer rows.Close()

	records := make([]LiquidationRecord, 0, limit)
	for rows.Next() {
		rec, scanErr := scanLiquidation(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func scanTickSample(row pgx.Row) (TickSample, error) {
	var (
		sample      TickSample
		price       string
		tvl         string
		borrowed    string
		utilization string
		apy         string
	)

	if err := row.Scan(
		&sample.Tick,
		&price,
		&tvl,
		&borrowed,
		&utilization,
		&apy,
		&sample.ActiveLoans,
		&sample.DangerLoans,
		&sample.CreatedAt,
	); err != nil {
		return TickSample{}, err
	}

	fields := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{price, &sample.ETHPrice},
		{tvl, &sample.TVL},
		{borrowed, &sample.TotalBorrowed},
		{utilization, &sample.UtilizationRate},
		{apy, &sample.CurrentAPY},
	}
	for _, f := range fields {
		parsed, err := decimal.NewFromString(f.raw)
		if err != nil {
			return TickSample{}, fmt.Errorf("parse tick sample field: %w", err)
		}
		*f.dst = parsed
	}
	return sample, nil
}

func scanLiquidation(row pgx.Row) (LiquidationRecord, error) {
	var (
		rec       LiquidationRecord
		health    string
		price     string
		threshold string
	)

	if err := row.Scan(
		&rec.ID,
		&rec.Tick,
		&rec.LoanID,
		&rec.Kind,
		&health,
		&price,
		&threshold,
		&rec.CreatedAt,
	); err != nil {
		return LiquidationRecord{}, err
	}

	var convErr error
	if rec.HealthFactor, convErr = decimal.NewFromString(health); convErr != nil {
		return LiquidationRecord{}, fmt.Errorf("parse health factor: %w", convErr)
	}
	if rec.Price, convErr = decimal.NewFromString(price); convErr != nil {
		return LiquidationRecord{}, fmt.Errorf("parse price: %w", convErr)
	}
	if rec.Threshold, convErr = decimal.NewFromString(threshold); convErr != nil {
		return LiquidationRecord{}, fmt.Errorf("parse threshold: %w", convErr)
	}
	return rec, nil
}

var (
	_ TickStore        = (*Store)(nil)
	_ LiquidationStore = (*Store)(nil)
)
