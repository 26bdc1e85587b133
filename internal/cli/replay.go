package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trustlend-sim/internal/app"
)

var (
	replayTicks  int
	replaySeed   int64
	replayRecord bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run the simulation headlessly for N ticks",
	RunE: func(cmd *cobra.Command, args []string) error {
		if replayTicks <= 0 {
			return fmt.Errorf("--ticks must be greater than zero")
		}

		opts := app.ReplayOptions{
			Ticks:  replayTicks,
			Seed:   replaySeed,
			Record: replayRecord,
		}

		return getApp().Replay(cmd.Context(), opts)
	},
}

func init() {
	replayCmd.Flags().IntVar(&replayTicks, "ticks", 100, "Number of ticks to simulate")
	replayCmd.Flags().Int64Var(&replaySeed, "seed", 0, "Randomness seed (0 uses config)")
	replayCmd.Flags().BoolVar(&replayRecord, "record", false, "Record every tick to the database")
}
