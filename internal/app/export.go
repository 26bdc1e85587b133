package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"trustlend-sim/internal/model"
)

// tickRow is one exported observation of a simulated run.
type tickRow struct {
	Tick        time.Time
	ETHPrice    float64
	TVL         float64
	Utilization float64
	APY         float64
	DangerLoans int
}

// Export runs a seeded simulation for the requested number of ticks and
// renders the series as CSV and/or PNG. No database is involved: the run is
// reproducible from the seed alone.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}
	if opts.Ticks <= 0 {
		return errors.New("--ticks must be greater than zero")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	engine := a.newEngine(opts.Seed)
	params := a.Config.Protocol
	snap := engine.Generate(params)

	rows := make([]tickRow, 0, opts.Ticks)
	for i := 0; i < opts.Ticks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		snap = engine.Evolve(snap, params)
		rows = append(rows, tickRow{
			Tick:        snap.Timestamp,
			ETHPrice:    snap.ETHPrice,
			TVL:         snap.TVL,
			Utilization: snap.UtilizationRate,
			APY:         snap.CurrentAPY,
			DangerLoans: countDanger(snap.Loans),
		})
	}

	downsampled := downsampleRows(rows, opts.MaxPoints)
	a.Logger.Info().Int("ticks", len(rows)).Int("exported", len(downsampled)).Msg("exporting simulated run")

	if opts.CSVPath != "" {
		if err := writeRunCSV(opts.CSVPath, downsampled); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeRunPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func countDanger(loans []model.Loan) int {
	n := 0
	for _, loan := range loans {
		if loan.Status == model.StatusDanger {
			n++
		}
	}
	return n
}

func downsampleRows(rows []tickRow, max int) []tickRow {
	if max <= 0 || len(rows) <= max {
		return rows
	}

	result := make([]tickRow, 0, max)
	step := float64(len(rows)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(rows) {
			idx = len(rows) - 1
		}
		result = append(result, rows[idx])
	}
	return result
}

func writeRunCSV(path string, rows []tickRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"tick_ts", "eth_price", "tvl", "utilization_pct", "apy_pct", "danger_loans"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Tick.Format(time.RFC3339),
			fmt.Sprintf("%.2f", row.ETHPrice),
			fmt.Sprintf("%.2f", row.TVL),
			fmt.Sprintf("%.4f", row.Utilization),
			fmt.Sprintf("%.4f", row.APY),
			strconv.Itoa(row.DangerLoans),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeRunPNG(path string, rows []tickRow) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(rows))
	price := make([]float64, len(rows))
	utilization := make([]float64, len(rows))
	apy := make([]float64, len(rows))

	for i, row := range rows {
		x[i] = row.Tick
		price[i] = row.ETHPrice
		utilization[i] = row.Utilization
		apy[i] = row.APY
	}

	pctFormatter := func(v interface{}) string {
		return chart.FloatValueFormatterWithFormat(v, "%.2f")
	}
	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "ETH Price (USD)",
			ValueFormatter: pctFormatter,
		},
		YAxisSecondary: chart.YAxis{
			Name:           "Percent",
			ValueFormatter: pctFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "ETH Price",
				XValues: x,
				YValues: price,
			},
			chart.TimeSeries{
				Name:    "Utilization %",
				XValues: x,
				YValues: utilization,
				YAxis:   chart.YAxisSecondary,
			},
			chart.TimeSeries{
				Name:    "APY %",
				XValues: x,
				YValues: apy,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
