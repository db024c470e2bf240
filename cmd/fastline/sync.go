package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/dispatch"
	"github.com/hyperengineering/fastline/internal/types"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push queued changes to the remote store",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var syncQueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Show pending sync entries",
	Long:  "Show pending sync entries. With --clear the entries are discarded; local logs are kept but will only reach the remote store with their next change.",
	Args:  cobra.NoArgs,
	RunE:  runSyncQueue,
}

var clearQueue bool

func init() {
	syncQueueCmd.Flags().BoolVar(&clearQueue, "clear", false, "Discard every pending entry")
	syncCmd.AddCommand(syncQueueCmd)
}

// syncReport is the JSON form of a flush result.
type syncReport struct {
	Outcome  dispatch.Outcome `json:"outcome"`
	Pending  int              `json:"pending"`
	Error    string           `json:"error,omitempty"`
	Families []familyReport   `json:"families"`
}

type familyReport struct {
	Family string `json:"family"`
	Count  int    `json:"count"`
	Error  string `json:"error,omitempty"`
}

func newSyncReport(r dispatch.Result) syncReport {
	rep := syncReport{Outcome: r.Outcome, Pending: r.Pending, Families: []familyReport{}}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	for _, f := range r.Families {
		fr := familyReport{Family: string(f.Family), Count: f.Count}
		if f.Err != nil {
			fr.Error = f.Err.Error()
		}
		rep.Families = append(rep.Families, fr)
	}
	return rep
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.SyncNow(cmd.Context())
	rep := newSyncReport(res)
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, rep)
	}

	if rep.Outcome != dispatch.OutcomePartial && app.IsOffline(res.Err) {
		fmt.Fprintf(out, "Offline: %d entries stay queued (%s)\n", rep.Pending, rep.Error)
		return nil
	}
	if rep.Outcome == dispatch.OutcomeOK && len(rep.Families) == 0 {
		fmt.Fprintln(out, "Nothing to sync.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "FAMILY\tRECORDS\tSTATUS")
	for _, f := range rep.Families {
		status := "ok"
		if f.Error != "" {
			status = "failed: " + f.Error
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", f.Family, f.Count, status)
	}
	w.Flush()
	fmt.Fprintf(out, "Sync %s, %d entries pending\n", rep.Outcome, rep.Pending)
	return nil
}

func runSyncQueue(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	s := a.QueueStatus(ctx)
	out := cmd.OutOrStdout()

	if clearQueue {
		if err := a.Queue.Clear(ctx); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, map[string]int{"discarded": s.Entries})
		}
		fmt.Fprintf(out, "Discarded %d entries.\n", s.Entries)
		return nil
	}

	if jsonOutput {
		return printJSON(out, s)
	}

	if s.Entries == 0 {
		fmt.Fprintln(out, "Queue is empty.")
		return nil
	}
	fmt.Fprintf(out, "Entries:   %d\n", s.Entries)
	fmt.Fprintf(out, "Oldest:    %s\n", s.Oldest.Local().Format("2006-01-02 15:04:05"))
	var fams []string
	for _, f := range types.FamilyNames() {
		if n := s.Families[f]; n > 0 {
			fams = append(fams, fmt.Sprintf("%s=%d", f, n))
		}
	}
	fmt.Fprintf(out, "Families:  %s\n", strings.Join(fams, " "))
	fmt.Fprintf(out, "Attempts:  %d\n", s.Attempts)
	for _, e := range s.Errors {
		fmt.Fprintf(out, "Error:     %s\n", e)
	}
	return nil
}
