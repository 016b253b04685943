package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var historyClear bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the stored chat history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			if historyClear {
				a.chat.ClearChat()
				a.ui.Noticef("Chat history cleared")
				return nil
			}
			for _, m := range a.chat.History() {
				a.ui.Message(m)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "replace the history with a fresh greeting")
}
