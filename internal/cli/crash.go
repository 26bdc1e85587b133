package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"trustlend-sim/internal/app"
)

var crashDrop float64

var crashCmd = &cobra.Command{
	Use:   "simulate-crash",
	Short: "模拟一次价格砸盘并触发清算告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if crashDrop <= 0 {
			return errors.New("--drop 必须大于 0")
		}

		return getApp().SimulateCrash(cmd.Context(), app.CrashOptions{Drop: crashDrop})
	},
}

func init() {
	crashCmd.Flags().Float64Var(&crashDrop, "drop", 500, "Forced price drop in USD for one tick")
}
