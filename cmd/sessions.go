package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"pedtrack/internal/storage"
)

var sessionsLimit int

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List archived sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		store, err := storage.Open(filepath.Join(dataDir, "sessions.db"))
		if err != nil {
			return err
		}

		recs, err := store.Recent(sessionsLimit)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No archived sessions yet.")
			return nil
		}

		table := tablewriter.NewTable(os.Stdout,
			tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
				Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
			})))
		headers := []string{"Started", "Activity", "Duration", "Runs", "Looted", "Cost", "Return", "% Return", "Globals", "HOFs"}
		table.Header(headers)

		alignments := make([]tw.Align, len(headers))
		for i := range alignments {
			if i < 2 {
				alignments[i] = tw.AlignLeft
			} else {
				alignments[i] = tw.AlignRight
			}
		}
		table.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.PerColumn = alignments
		})

		for _, rec := range recs {
			table.Append([]string{
				rec.StartedAt.Format("2006-01-02 15:04"),
				rec.Activity,
				rec.EndedAt.Sub(rec.StartedAt).Round(time.Second).String(),
				fmt.Sprintf("%d", len(rec.Runs)),
				fmt.Sprintf("%d", rec.CreaturesLooted),
				formatPED(rec.TotalCost),
				formatPED(rec.TotalReturn),
				returnPercent(rec.TotalCost, rec.TotalReturn),
				fmt.Sprintf("%d", rec.Globals),
				fmt.Sprintf("%d", rec.HOFs),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	sessionsCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "number of sessions to list")
	rootCmd.AddCommand(sessionsCmd)
}
