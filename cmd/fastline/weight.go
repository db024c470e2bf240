package main

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/prefs"
	"github.com/hyperengineering/fastline/internal/tracker"
	"github.com/hyperengineering/fastline/internal/types"
)

var weightCmd = &cobra.Command{
	Use:   "weight",
	Short: "Log and review body weight",
}

var weightSaveCmd = &cobra.Command{
	Use:   "save <kg>",
	Short: "Record today's weight, replacing any earlier entry today",
	Args:  cobra.ExactArgs(1),
	RunE:  runWeightSave,
}

var weightShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show latest weight and goal progress",
	Args:  cobra.NoArgs,
	RunE:  runWeightShow,
}

var weightHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List weight entries, newest first",
	Args:  cobra.NoArgs,
	RunE:  runWeightHistory,
}

var weightGoalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Show or set height and goal weight",
	Long:  "Show or set height and goal weight. With a height the weight view adds BMI and the ideal weight for that height.",
	Args:  cobra.NoArgs,
	RunE:  runWeightGoal,
}

var (
	goalHeightCM float64
	goalTargetKG float64
)

func init() {
	weightGoalCmd.Flags().Float64Var(&goalHeightCM, "height", 0, "Height in cm (0 clears)")
	weightGoalCmd.Flags().Float64Var(&goalTargetKG, "target", 0, "Goal weight in kg (0 uses the configured target)")

	weightCmd.AddCommand(weightSaveCmd)
	weightCmd.AddCommand(weightShowCmd)
	weightCmd.AddCommand(weightHistoryCmd)
	weightCmd.AddCommand(weightGoalCmd)
}

func runWeightSave(cmd *cobra.Command, args []string) error {
	kg, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid weight %q", args[0])
	}

	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	log, err := a.Weight.Save(cmd.Context(), kg)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), log)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %.1f kg for %s\n", log.Weight, log.Date)
	return nil
}

func runWeightShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	s := a.Weight.Summary(cmd.Context())
	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, s)
	}

	if s.Latest == nil {
		fmt.Fprintln(out, "No weight entries yet.")
		return nil
	}
	fmt.Fprintf(out, "Latest:    %.1f kg (%s)\n", s.Latest.Weight, s.Latest.Date)
	fmt.Fprintf(out, "Change:    %+.1f kg\n", s.Diff)
	fmt.Fprintf(out, "Start:     %.1f kg (%s)\n", s.Start.Weight, s.Start.Date)
	fmt.Fprintf(out, "Goal:      %.1f kg (%.1f kg to go)\n", s.TargetKG, s.ToGoKG)
	fmt.Fprintf(out, "Progress:  %.0f%%\n", s.Progress)
	if s.Body != nil {
		printBody(out, *s.Body)
	}
	return nil
}

// weightGoal is the JSON form of the goal settings.
type weightGoal struct {
	HeightCM float64       `json:"heightCm,omitempty"`
	TargetKG float64       `json:"targetKg"`
	IdealKG  float64       `json:"idealKg,omitempty"`
	Body     *tracker.Body `json:"body,omitempty"`
}

func runWeightGoal(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.Changed("height") || flags.Changed("target") {
		p, _ := prefs.Load(prefsPath)
		if flags.Changed("height") {
			if goalHeightCM != 0 && (goalHeightCM < prefs.MinHeightCM || goalHeightCM > prefs.MaxHeightCM) {
				return types.Invalid("height", fmt.Sprintf("must be between %.0f and %.0f cm", prefs.MinHeightCM, prefs.MaxHeightCM))
			}
			p.Goal.HeightCM = goalHeightCM
		}
		if flags.Changed("target") {
			if goalTargetKG != 0 && (goalTargetKG < types.MinWeightKG || goalTargetKG > types.MaxWeightKG) {
				return types.Invalid("target", fmt.Sprintf("must be between %.0f and %.0f kg", types.MinWeightKG, types.MaxWeightKG))
			}
			p.Goal.TargetKG = goalTargetKG
		}
		if err := prefs.Save(prefsPath, p); err != nil {
			return err
		}
	}

	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	g := weightGoal{HeightCM: a.Weight.HeightCM(), TargetKG: a.Weight.TargetKG()}
	if g.HeightCM > 0 {
		g.IdealKG = math.Round(tracker.IdealWeight(g.HeightCM)*10) / 10
	}
	if s := a.Weight.Summary(cmd.Context()); s.Body != nil {
		g.Body = s.Body
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, g)
	}
	fmt.Fprintf(out, "Goal:      %.1f kg\n", g.TargetKG)
	if g.HeightCM == 0 {
		fmt.Fprintln(out, "Height:    not set")
		return nil
	}
	fmt.Fprintf(out, "Height:    %.1f cm\n", g.HeightCM)
	if g.Body == nil {
		fmt.Fprintf(out, "Ideal:     %.1f kg\n", g.IdealKG)
		return nil
	}
	printBody(out, *g.Body)
	return nil
}

func printBody(out io.Writer, b tracker.Body) {
	fmt.Fprintf(out, "BMI:       %.1f (%s)\n", b.BMI, b.Category)
	fmt.Fprintf(out, "Normal:    %.1f-%.1f kg\n", b.MinNormalKG, b.MaxNormalKG)
	fmt.Fprintf(out, "Ideal:     %.1f kg (%+.1f kg)\n", b.IdealKG, b.DiffKG)
	fmt.Fprintf(out, "Toward ideal: %.1f%%\n", b.Progress)
}

func runWeightHistory(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	logs := a.Weight.Logs(cmd.Context())
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"weights": logs})
	}

	if len(logs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No weight entries yet.")
		return nil
	}
	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "DATE\tKG")
	for _, l := range logs {
		fmt.Fprintf(w, "%s\t%.1f\n", l.Date, l.Weight)
	}
	return w.Flush()
}
