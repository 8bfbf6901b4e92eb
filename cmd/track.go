package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"pedtrack/internal/monitor"
	"pedtrack/internal/ped"
	"pedtrack/internal/refdata"
	"pedtrack/internal/stats"
	"pedtrack/internal/storage"
	"pedtrack/internal/track"
	"pedtrack/internal/tui"
)

var (
	trackLogPath   string
	trackActivity  string
	trackHeadless  bool
	trackFromStart bool
)

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Tail the game log and track a live session",
	RunE: func(cmd *cobra.Command, args []string) error {
		logPath := trackLogPath
		if logPath == "" {
			logPath = GetConfig().LogPath
		}
		if logPath == "" {
			return fmt.Errorf("no log file configured: pass --log or set log_path in the config (see pedtrack setup)")
		}

		activity := track.Activity(trackActivity)
		switch activity {
		case track.Hunting, track.Crafting, track.Mining:
		default:
			return fmt.Errorf("unknown activity %q (want hunting, crafting or mining)", trackActivity)
		}

		markup, err := ped.FromString(GetConfig().MarkupPercent)
		if err != nil {
			return fmt.Errorf("markup_percent in config: %w", err)
		}

		dataDir, err := resolveDataDir()
		if err != nil {
			return err
		}
		catalog, err := refdata.Open(filepath.Join(dataDir, "catalog.db"))
		if err != nil {
			return err
		}
		store, err := storage.Open(filepath.Join(dataDir, "sessions.db"))
		if err != nil {
			return err
		}

		tracker := track.New(catalog,
			track.WithMarkup(markup),
			track.WithPendingCap(GetConfig().PendingQueue),
		)
		mon := monitor.New(tracker, monitor.Options{
			LogPath:     logPath,
			Interval:    time.Duration(GetConfig().PollIntervalMS) * time.Millisecond,
			DedupWindow: GetConfig().DedupWindow,
			PlayerName:  GetConfig().PlayerName,
			FromStart:   trackFromStart,
		})

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- mon.Run(ctx) }()

		ctrl := &sessionControl{tracker: tracker, store: store}

		if trackHeadless || !term.IsTerminal(os.Stdout.Fd()) {
			err = runHeadless(ctx, ctrl, activity, mon)
		} else {
			err = tui.Run(ctrl, activity, mon.Snapshots(), mon.Globals())
		}
		cancel()
		<-done

		// Whatever ends the process, a still-open session is archived.
		if archiveErr := finishSession(ctrl); archiveErr != nil && err == nil {
			err = archiveErr
		}
		return err
	},
}

// sessionControl wires the dashboard's commands to the tracker and
// archives sessions as they close.
type sessionControl struct {
	tracker *track.Tracker
	store   *storage.Store
}

func (c *sessionControl) StartSession(activity track.Activity) error {
	return c.tracker.StartSession(activity)
}

func (c *sessionControl) EndSession() error {
	sess, err := c.tracker.EndSession()
	if err != nil {
		return err
	}
	if err := c.store.Archive(sess); err != nil {
		return fmt.Errorf("session %s closed but not archived: %w", sess.ID, err)
	}
	return nil
}

// finishSession archives any still-open session on the way out. No open
// session is the normal case (the user already ended it); anything else is
// a real failure the user must see, because the closed session is gone.
func finishSession(ctrl *sessionControl) error {
	err := ctrl.EndSession()
	switch {
	case err == nil:
		fmt.Println("Session archived.")
		return nil
	case errors.Is(err, track.ErrNoSession):
		return nil
	default:
		return err
	}
}

func (c *sessionControl) StartRun(notes string) error      { return c.tracker.StartRun(notes) }
func (c *sessionControl) EndRun() error                    { return c.tracker.EndRun() }
func (c *sessionControl) AddSpend(a ped.Amount) error      { return c.tracker.AddSpend(a) }
func (c *sessionControl) AddExtraSpend(a ped.Amount) error { return c.tracker.AddExtraSpend(a) }

// runHeadless starts a session immediately and prints one summary line per
// snapshot plus every global notification, until interrupted.
func runHeadless(ctx context.Context, ctrl *sessionControl, activity track.Activity, mon *monitor.Monitor) error {
	if err := ctrl.StartSession(activity); err != nil {
		return err
	}
	fmt.Printf("Tracking %s session (ctrl-c to stop).\n", activity)

	var lastLine string
	for {
		select {
		case <-ctx.Done():
			return nil
		case g := <-mon.Globals():
			what := g.Item
			if what == "" {
				what = g.Creature
			}
			kind := "GLOBAL"
			if g.HOF {
				kind = "HOF"
			}
			fmt.Printf("%s! %s — %s (%s)\n", kind, g.Player, what, g.TTValue.Format())
		case snap := <-mon.Snapshots():
			s := snap.Session
			if s == nil {
				continue
			}
			ret := "no data"
			if pct, ok := stats.ReturnPercent(s); ok {
				ret = pct.Percent()
			}
			line := fmt.Sprintf("looted=%d cost=%s return=%s (%s) globals=%d hofs=%d",
				s.CreaturesLooted, s.TotalCost.Format(), s.TotalReturn.Format(), ret, s.Globals, s.HOFs)
			// Snapshots arrive every poll cycle; only echo changes.
			if line != lastLine {
				fmt.Println(line)
				lastLine = line
			}
		}
	}
}

func init() {
	trackCmd.Flags().StringVar(&trackLogPath, "log", "", "path to the game chat log (overrides config)")
	trackCmd.Flags().StringVarP(&trackActivity, "activity", "a", "hunting", "session activity: hunting, crafting or mining")
	trackCmd.Flags().BoolVar(&trackHeadless, "headless", false, "no dashboard; print snapshots to stdout")
	trackCmd.Flags().BoolVar(&trackFromStart, "from-start", false, "read the whole existing log instead of only new lines")
	rootCmd.AddCommand(trackCmd)
}
