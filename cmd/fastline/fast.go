package main

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/fasting"
	"github.com/hyperengineering/fastline/internal/prefs"
	"github.com/hyperengineering/fastline/internal/types"
	"github.com/hyperengineering/fastline/internal/ui"
)

var (
	startHours   int
	historyLimit int
	planWeeks    int
)

var fastCmd = &cobra.Command{
	Use:   "fast",
	Short: "Start, end and inspect fasts",
}

var fastStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a fast",
	Args:  cobra.NoArgs,
	RunE:  runFastStart,
}

var fastEndCmd = &cobra.Command{
	Use:   "end",
	Short: "End the running fast",
	Args:  cobra.NoArgs,
	RunE:  runFastEnd,
}

var fastMoodCmd = &cobra.Command{
	Use:   "mood <tag>",
	Short: "Attach a mood to the completed fast",
	Args:  cobra.ExactArgs(1),
	RunE:  runFastMood,
}

var fastDismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss the completed fast and reset the timer",
	Args:  cobra.NoArgs,
	RunE:  runFastDismiss,
}

var fastTargetCmd = &cobra.Command{
	Use:   "target <hours>",
	Short: "Set the fasting preset",
	Args:  cobra.ExactArgs(1),
	RunE:  runFastTarget,
}

var fastStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current fast",
	Args:  cobra.NoArgs,
	RunE:  runFastStatus,
}

var fastHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed fasts with stats",
	Args:  cobra.NoArgs,
	RunE:  runFastHistory,
}

var fastPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show completed fasts per day over a planning window",
	Args:  cobra.NoArgs,
	RunE:  runFastPlan,
}

var fastWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Open the live fasting timer",
	Args:  cobra.NoArgs,
	RunE:  runFastWatch,
}

func init() {
	fastStartCmd.Flags().IntVar(&startHours, "hours", 0,
		"Target hours (default: preset)")
	fastHistoryCmd.Flags().IntVar(&historyLimit, "limit", 10,
		"Maximum fasts to list, newest first (0 for all)")
	fastPlanCmd.Flags().IntVar(&planWeeks, "weeks", 1,
		"Window length in weeks (1, 2 or 4; up to 52)")

	fastCmd.AddCommand(fastStartCmd)
	fastCmd.AddCommand(fastEndCmd)
	fastCmd.AddCommand(fastMoodCmd)
	fastCmd.AddCommand(fastDismissCmd)
	fastCmd.AddCommand(fastTargetCmd)
	fastCmd.AddCommand(fastStatusCmd)
	fastCmd.AddCommand(fastHistoryCmd)
	fastCmd.AddCommand(fastPlanCmd)
	fastCmd.AddCommand(fastWatchCmd)
}

func runFastStart(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	hours := startHours
	if hours <= 0 {
		hours = a.Fasting.TargetHours()
	}
	log, err := a.Fasting.Start(cmd.Context(), hours)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), log)
	}
	end := log.Start.Add(time.Duration(log.TargetHours) * time.Hour)
	fmt.Fprintf(cmd.OutOrStdout(), "Started %dh fast (ends %s)\n",
		log.TargetHours, fasting.FormatEndsAt(end.Local(), time.Now()))
	return nil
}

func runFastEnd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	log, err := a.Fasting.End(cmd.Context())
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), log)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ended fast after %s\n", fasting.FormatHMS(log.Duration().Milliseconds()))
	fmt.Fprintf(cmd.OutOrStdout(), "How did it feel? fastline fast mood <%s>\n", moodTags())
	return nil
}

func runFastMood(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	log, err := a.Fasting.AnnotateMood(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), log)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved mood %q\n", log.Mood)
	return nil
}

func runFastDismiss(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	a.Fasting.Acknowledge(cmd.Context())
	fmt.Fprintf(cmd.OutOrStdout(), "Timer reset to %dh\n", a.Fasting.TargetHours())
	return nil
}

func runFastTarget(cmd *cobra.Command, args []string) error {
	hours, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid hours %q", args[0])
	}

	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Fasting.SetTarget(hours); err != nil {
		return err
	}
	p, _ := prefs.Load(prefsPath)
	p.PresetHours = hours
	if err := prefs.Save(prefsPath, p); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Preset set to %dh\n", hours)
	return nil
}

// fastStatus is the JSON form of fast status.
type fastStatus struct {
	fasting.Progress
	ID          string     `json:"id,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	EndsAt      *time.Time `json:"endsAt,omitempty"`
	Mood        string     `json:"mood,omitempty"`
	RemoteKnown bool       `json:"remoteKnown"`
}

func runFastStatus(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	p := a.Fasting.Tick(now)
	st := fastStatus{Progress: p, RemoteKnown: a.Fasting.RemoteKnown()}
	if cur, ok := a.Fasting.Current(); ok {
		st.ID = cur.ID
		st.Start = &cur.Start
		st.Mood = cur.Mood
	}
	if end, ok := a.Fasting.EndsAt(); ok {
		st.EndsAt = &end
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, st)
	}

	switch p.Status {
	case types.StatusIdle:
		fmt.Fprintf(out, "Status:     idle\n")
		fmt.Fprintf(out, "Target:     %dh\n", p.TargetHours)
		return nil
	case types.StatusCompleted:
		fmt.Fprintf(out, "Status:     completed\n")
	default:
		fmt.Fprintf(out, "Status:     fasting\n")
	}
	fmt.Fprintf(out, "Target:     %dh\n", p.TargetHours)
	fmt.Fprintf(out, "Elapsed:    %s\n", fasting.FormatHMS(p.ElapsedMs))
	fmt.Fprintf(out, "Remaining:  %s\n", fasting.FormatHMS(p.RemainingMs))
	fmt.Fprintf(out, "Progress:   %.0f%%\n", p.Percent)
	if label := p.Milestone.Label(); label != "" {
		fmt.Fprintf(out, "Milestone:  %s\n", label)
	}
	if st.EndsAt != nil && p.Status == types.StatusRunning {
		fmt.Fprintf(out, "Ends:       %s\n", fasting.FormatEndsAt(st.EndsAt.Local(), now))
	}
	if st.Mood != "" {
		fmt.Fprintf(out, "Mood:       %s\n", st.Mood)
	}
	return nil
}

func runFastHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	sessions := a.Fasting.History(ctx)
	stats := a.Fasting.Stats(ctx)

	// Newest first
	listed := make([]fasting.Session, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		if historyLimit > 0 && len(listed) == historyLimit {
			break
		}
		listed = append(listed, sessions[i])
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, map[string]any{
			"fasts": listed,
			"stats": stats,
		})
	}

	if len(listed) == 0 {
		fmt.Fprintln(out, "No completed fasts yet.")
		return nil
	}

	w := newTabWriter(out)
	fmt.Fprintln(w, "STARTED\tHOURS\tTARGET\tMOOD")
	for _, s := range listed {
		mood := s.Mood
		if mood == "" {
			mood = "-"
		}
		fmt.Fprintf(w, "%s\t%.1f\t%dh\t%s\n",
			s.Start.Local().Format("2006-01-02 15:04"),
			s.Hours,
			s.TargetHours,
			mood,
		)
	}
	w.Flush()

	fmt.Fprintf(out, "\nTotal: %d  Longest: %.1fh  Average: %.1fh  Streak: %d (best %d)\n",
		stats.TotalFasts, stats.LongestHours, stats.AverageHours,
		stats.CurrentStreak, stats.LongestStreak)
	return nil
}

func runFastPlan(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Fasting.Plan(cmd.Context(), planWeeks)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, p)
	}

	fmt.Fprintf(out, "Plan: %d week(s), %s to %s\n", p.Weeks, p.From, p.To)
	w := newTabWriter(out)
	fmt.Fprintln(w, "DATE\tFASTS\tHOURS")
	for _, d := range p.Days {
		fmt.Fprintf(w, "%s\t%d\t%.1f\n", d.Date, d.Fasts, d.Hours)
	}
	w.Flush()
	fmt.Fprintf(out, "\nFast days: %d/%d (%.0f%%)  Average: %.1fh  Streak: %d\n",
		p.FastDays, len(p.Days), p.Adherence, p.AverageHours, p.Streak)
	return nil
}

func runFastWatch(cmd *cobra.Command, args []string) error {
	p, _ := prefs.Load(prefsPath)

	a, err := openApp(cmd, app.Options{
		PresetHours: p.PresetHours,
		OnComplete:  func(types.FastingLog) {},
	})
	if err != nil {
		return err
	}
	defer a.Close()

	// The timer owns the terminal.
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	return ui.Run(cmd.Context(), ui.Options{
		Engine:    a.Fasting,
		Tick:      time.Duration(a.Config.Fasting.TickInterval),
		ThemeName: p.Theme,
		PrefsPath: prefsPath,
		Presets:   prefs.Presets,
	})
}

func moodTags() string {
	tags := ""
	for i, m := range ui.Moods {
		if i > 0 {
			tags += "|"
		}
		tags += m.Tag
	}
	return tags
}
