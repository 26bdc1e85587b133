package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// Show prints recently recorded tick samples.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openRecorder(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show recorded ticks")
	}
	if closeStore != nil {
		defer closeStore()
	}

	samples, err := store.ListRecentTicks(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no recorded ticks found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tETH Price\tTVL\tUtilization%\tAPY%\tLoans\tDanger")

	for _, sample := range samples {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			sample.Tick.UTC().Format(time.RFC3339),
			formatDecimal(sample.ETHPrice, 2),
			formatDecimal(sample.TVL, 0),
			formatDecimal(sample.UtilizationRate, 2),
			formatDecimal(sample.CurrentAPY, 2),
			sample.ActiveLoans,
			sample.DangerLoans,
		)
	}

	writer.Flush()
	return nil
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
