package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/fastline/internal/app"
	"github.com/hyperengineering/fastline/internal/remote"
)

var pushUser string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Manage push notification subscriptions",
}

var pushRegisterCmd = &cobra.Command{
	Use:   "register <subscription.json|->",
	Short: "Store a web-push subscription descriptor remotely",
	Long:  "Read a web-push subscription JSON object from a file, or from stdin when the argument is -, and store it with the remote backend.",
	Args:  cobra.ExactArgs(1),
	RunE:  runPushRegister,
}

func init() {
	pushRegisterCmd.Flags().StringVar(&pushUser, "user", "",
		"User id to associate (default: configured user)")

	pushCmd.AddCommand(pushRegisterCmd)
}

func runPushRegister(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read subscription: %w", err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("subscription is not valid JSON")
	}

	a, err := openApp(cmd, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	user := pushUser
	if user == "" {
		user = a.Config.Remote.UserID
	}
	sub := remote.PushSubscription{UserID: user, Subscription: json.RawMessage(data)}
	if err := a.Remote.SavePushSubscription(cmd.Context(), sub); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"endpoint": sub.Endpoint(),
			"userId":   sub.UserID,
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered push subscription %s\n", sub.Endpoint())
	return nil
}
