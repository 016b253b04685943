package cmd

import (
	"context"
	"fmt"
	"strconv"

	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/rag/selection"

	"github.com/spf13/cobra"
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Manage the documents pinned as chat context",
}

var contextToggleCmd = &cobra.Command{
	Use:   "toggle <id>...",
	Short: "Pin or unpin documents",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIDs(args)
		if err != nil {
			return err
		}
		return withApp(func(ctx context.Context, a *app) error {
			docs, err := a.client.ListDocuments(ctx)
			if err != nil {
				return err
			}
			a.selector.Reconcile(docs)
			for _, id := range ids {
				if err := checkPinnable(a.selector, docs, id); err != nil {
					return err
				}
			}
			for _, id := range ids {
				if a.selector.Toggle(id) {
					a.ui.Noticef("Pinned %d", id)
				} else {
					a.ui.Noticef("Unpinned %d", id)
				}
			}
			return nil
		})
	},
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Unpin every document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			a.selector.Clear()
			a.ui.Noticef("Context cleared")
			return nil
		})
	},
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the pinned documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app) error {
			docs, err := a.client.ListDocuments(ctx)
			if err != nil {
				return err
			}
			a.selector.Reconcile(docs)
			a.ui.Context(docs, a.selector)
			return nil
		})
	},
}

// checkPinnable rejects pinning an id that is not in docs. Unpinning is always allowed.
func checkPinnable(sel *selection.Selector, docs []rag.Document, id int64) error {
	if sel.IsSelected(id) {
		return nil
	}
	if _, ok := rag.FindDocument(docs, id); !ok {
		return fmt.Errorf("no document with id %d", id)
	}
	return nil
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid document id: %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	rootCmd.AddCommand(contextCmd)
	contextCmd.AddCommand(contextToggleCmd, contextClearCmd, contextShowCmd)
}
