package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
)

var waterDays int

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Log and review water intake",
}

var waterAddCmd = &cobra.Command{
	Use:   "add <ml>",
	Short: "Record water for today",
	Args:  cobra.ExactArgs(1),
	RunE:  runWaterAdd,
}

var waterTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show today's intake against the goal",
	Args:  cobra.NoArgs,
	RunE:  runWaterToday,
}

var waterHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show daily totals",
	Args:  cobra.NoArgs,
	RunE:  runWaterHistory,
}

func init() {
	waterHistoryCmd.Flags().IntVar(&waterDays, "days", 7,
		"Number of days to show, ending today")

	waterCmd.AddCommand(waterAddCmd)
	waterCmd.AddCommand(waterTodayCmd)
	waterCmd.AddCommand(waterHistoryCmd)
}

func runWaterAdd(cmd *cobra.Command, args []string) error {
	ml, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[0])
	}

	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	log, err := a.Water.Add(cmd.Context(), ml)
	if err != nil {
		return err
	}
	today := a.Water.Today(cmd.Context())

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"log":   log,
			"today": today,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d ml (%d / %d ml today)\n", log.ML, today.TotalML, today.TargetML)
	return nil
}

func runWaterToday(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	today := a.Water.Today(cmd.Context())
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), today)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d / %d ml (%.0f%%)\n", today.Date, today.TotalML, today.TargetML, today.Percent)
	return nil
}

func runWaterHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	totals := a.Water.DailyTotals(cmd.Context(), waterDays)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"days": totals})
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "DATE\tML\tGOAL")
	for _, d := range totals {
		fmt.Fprintf(w, "%s\t%d\t%.0f%%\n", d.Date, d.TotalML, d.Percent)
	}
	return w.Flush()
}
