package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/config"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show details about the local store",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

type infoReport struct {
	Version    string          `json:"version"`
	Path       string          `json:"path"`
	SizeBytes  int64           `json:"size_bytes"`
	RemoteMode string          `json:"remote_mode"`
	Pending    int             `json:"pending"`
	Partitions []infoPartition `json:"partitions"`
}

type infoPartition struct {
	Name      string `json:"name"`
	Bytes     int    `json:"bytes"`
	UpdatedAt string `json:"updated_at"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()

	dbPath, err := config.ExpandPath(a.Config.Store.Path)
	if err != nil {
		return err
	}
	var sizeBytes int64
	if info, statErr := os.Stat(dbPath); statErr == nil {
		sizeBytes = info.Size()
	}

	stats, err := a.Store.Stats(ctx)
	if err != nil {
		return err
	}
	parts := make([]infoPartition, 0, len(stats))
	for _, s := range stats {
		parts = append(parts, infoPartition{
			Name:      string(s.Partition),
			Bytes:     s.Bytes,
			UpdatedAt: s.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
		})
	}

	rep := infoReport{
		Version:    Version,
		Path:       dbPath,
		SizeBytes:  sizeBytes,
		RemoteMode: a.Config.Remote.Mode,
		Pending:    a.Queue.Len(ctx),
		Partitions: parts,
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, rep)
	}

	fmt.Fprintf(out, "Version:  %s\n", rep.Version)
	fmt.Fprintf(out, "Path:     %s\n", rep.Path)
	fmt.Fprintf(out, "Size:     %s\n", formatSize(rep.SizeBytes))
	fmt.Fprintf(out, "Remote:   %s\n", rep.RemoteMode)
	fmt.Fprintf(out, "Pending:  %d\n", rep.Pending)
	if len(parts) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := newTabWriter(out)
	fmt.Fprintln(w, "PARTITION\tSIZE\tUPDATED")
	for _, p := range parts {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, formatSize(int64(p.Bytes)), p.UpdatedAt)
	}
	return w.Flush()
}
