package cmd

import (
	"context"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question",
	Long: `Ask a single question against the pinned documents, or all documents
when nothing is pinned.

Examples:
  assistant ask "how do I submit an expense?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer a.Close()

		s := newSession(a)
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		s.Ask(ctx, strings.Join(args, " "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
