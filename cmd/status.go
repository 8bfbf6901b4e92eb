package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"pedtrack/internal/ped"
	"pedtrack/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recently archived session",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		store, err := storage.Open(filepath.Join(dataDir, "sessions.db"))
		if err != nil {
			return err
		}

		rec, err := store.Last()
		if err != nil {
			return err
		}
		if rec == nil {
			fmt.Println("No archived sessions yet.")
			return nil
		}

		row := func(label, value string) {
			fmt.Printf("  %-18s %s\n", label, value)
		}
		fmt.Println()
		fmt.Printf("  Last session — %s\n\n", rec.Activity)
		row("Started:", rec.StartedAt.Format("2006-01-02 15:04:05"))
		row("Ended:", rec.EndedAt.Format("2006-01-02 15:04:05"))
		row("Duration:", rec.EndedAt.Sub(rec.StartedAt).Round(time.Second).String())
		row("Runs:", fmt.Sprintf("%d", len(rec.Runs)))
		row("Creatures Looted:", fmt.Sprintf("%d", rec.CreaturesLooted))
		row("Total Cost:", formatPED(rec.TotalCost))
		row("Total Return:", formatPED(rec.TotalReturn))
		row("% Return:", returnPercent(rec.TotalCost, rec.TotalReturn))
		row("Globals / HOFs:", fmt.Sprintf("%d / %d", rec.Globals, rec.HOFs))
		row("Skill Gain:", rec.TotalSkillGain)
		fmt.Println()
		return nil
	},
}

// formatPED renders a stored decimal string as "x.xx PED"; stored values
// are written by us, so parse failures only mean a hand-edited database.
func formatPED(s string) string {
	a, err := ped.FromString(s)
	if err != nil {
		return s
	}
	return a.Format()
}

func returnPercent(cost, ret string) string {
	c, err := ped.FromString(cost)
	if err != nil {
		return "no data"
	}
	r, err := ped.FromString(ret)
	if err != nil {
		return "no data"
	}
	ratio, ok := r.Div(c)
	if !ok {
		return "no data"
	}
	return ratio.Mul(ped.FromInt(100)).Percent()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
