package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/pkg/client"
	"knowledge-workspace/pkg/rag/conversation"
	"knowledge-workspace/pkg/rag/selection"
	"knowledge-workspace/pkg/store"
)

// app bundles what every command needs. The assistant core logs to a file
// only so the terminal stays readable.
type app struct {
	kv       store.KV
	client   *client.Client
	selector *selection.Selector
	chat     *conversation.Orchestrator
	ui       *renderer
	logger   *logger.ZapLogger
}

func newApp(out io.Writer) (*app, error) {
	log := logger.NewIsolatedLogger(cfg.LogFile)

	kv, err := store.Open(cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}
	keys := cfg.Keys()

	c, err := client.New(cfg.Server.URL, kv, keys.Session, log)
	if err != nil {
		return nil, err
	}

	selector := selection.New(kv, keys.ContextSelection, log)
	return &app{
		kv:       kv,
		client:   c,
		selector: selector,
		chat:     conversation.New(c, selector, kv, keys.ChatHistory, log),
		ui:       newRenderer(out, cfg.Display),
		logger:   log,
	}, nil
}

func (a *app) Close() {
	a.chat.Close()
	if closer, ok := a.kv.(io.Closer); ok {
		_ = closer.Close()
	}
	_ = a.logger.Sync()
}

// withApp runs fn with a ready app and closes it afterwards.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(os.Stdout)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}
