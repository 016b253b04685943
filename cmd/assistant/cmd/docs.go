package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var docsFilter string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List workspace documents",
	Long: `List workspace documents. Pinned documents are marked with *.

Examples:
  assistant docs
  assistant docs --filter policy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			docs, err := a.client.ListDocuments(ctx)
			if err != nil {
				return err
			}
			a.selector.Reconcile(docs)
			a.selector.SetFilter(docsFilter)
			a.ui.Documents(a.selector.Visible(docs), a.selector)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)

	docsCmd.Flags().StringVar(&docsFilter, "filter", "", "match against title, category or summary")
}
