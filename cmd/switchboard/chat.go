package main

import (
	"github.com/aretw0/switchboard/internal/cli"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the support desk in the terminal",
	Long: `Starts an interactive support conversation. Each line is submitted as a user
message. Use --session to resume an existing conversation; type 'exit' to leave.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		opts := cli.ChatOptions{}
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.UserID, _ = cmd.Flags().GetString("user")
		opts.AccountID, _ = cmd.Flags().GetString("account")
		opts.Headless, _ = cmd.Flags().GetBool("headless")
		return cli.Chat(ctx, app.Engine, opts)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("session", "s", "", "Session ID to resume (a new one is created if empty)")
	chatCmd.Flags().String("user", "", "User ID for long-term recall")
	chatCmd.Flags().String("account", "", "Account ID attached to the session")
	chatCmd.Flags().Bool("headless", false, "Disable banner, prompt and markdown rendering")
}
