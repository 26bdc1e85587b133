package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot generates one protocol snapshot and prints it as JSON.
func (a *App) Snapshot(_ context.Context) error {
	snap := a.newEngine(0).Generate(a.Config.Protocol)

	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
