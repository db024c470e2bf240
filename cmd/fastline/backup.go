package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the local database and upload it",
	Long:  "Write a consistent copy of the local database to the backup directory and, when a bucket is configured, upload it to S3-compatible storage.",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.Backup.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, res)
	}
	fmt.Fprintf(out, "Snapshot:  %s (%s)\n", res.Path, formatSize(res.Bytes))
	if res.Uploaded {
		fmt.Fprintf(out, "Uploaded:  %s\n", res.Key)
		if res.URL != "" {
			fmt.Fprintf(out, "Download:  %s (expires %s)\n", res.URL, res.Expires.Local().Format("15:04"))
		}
	}
	return nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
