package cmd

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"knowledge-workspace/pkg/client"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/rag/conversation"
	"knowledge-workspace/pkg/rag/selection"

	"github.com/spf13/cobra"
)

const replHelp = `Type a question, or one of:
  /pin <id>   pin or unpin a document
  /context    show the pinned documents
  /refresh    reload documents from the server
  /clear      start a new conversation
  /quit       leave`

type documentLister interface {
	ListDocuments(ctx context.Context) ([]rag.Document, error)
}

// session is one interactive chat: the loaded corpus plus the commands
// that act on it.
type session struct {
	lister   documentLister
	selector *selection.Selector
	chat     *conversation.Orchestrator
	ui       *renderer

	mu     sync.RWMutex
	corpus []rag.Document
}

func newSession(a *app) *session {
	return &session{
		lister:   a.client,
		selector: a.selector,
		chat:     a.chat,
		ui:       a.ui,
		corpus:   []rag.Document{},
	}
}

// Refresh reloads the corpus and drops pinned ids that disappeared.
func (s *session) Refresh(ctx context.Context) error {
	docs, err := s.lister.ListDocuments(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.corpus = docs
	s.mu.Unlock()

	if s.selector.Reconcile(docs) {
		s.ui.Mutedf("Some pinned documents no longer exist and were unpinned.")
	}
	return nil
}

func (s *session) Documents() []rag.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.corpus
}

// Ask runs one turn and types the reply out.
func (s *session) Ask(ctx context.Context, question string) {
	s.ui.Mutedf("thinking…")
	reply, ok := s.chat.Send(ctx, question, s.Documents())
	if !ok {
		s.ui.Mutedf("Nothing to send.")
		return
	}
	if reply == nil {
		return
	}
	s.ui.Type(*reply)
	s.chat.MarkTypingComplete(reply.ID)
}

// Handle processes one input line and reports whether the session should end.
func (s *session) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		s.Ask(ctx, line)
		return false
	}

	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		s.ui.Mutedf("%s", replHelp)
	case "/clear":
		s.chat.ClearChat()
		for _, m := range s.chat.History() {
			s.ui.Message(m)
		}
	case "/context":
		s.ui.Context(s.Documents(), s.selector)
	case "/refresh":
		if err := s.Refresh(ctx); err != nil {
			s.ui.Errorf("Refresh failed: %v", err)
			return false
		}
		s.ui.Noticef("Loaded %d documents.", len(s.Documents()))
	case "/pin":
		if len(fields) != 2 {
			s.ui.Errorf("Usage: /pin <id>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			s.ui.Errorf("Invalid document id: %s", fields[1])
			return false
		}
		if err := checkPinnable(s.selector, s.Documents(), id); err != nil {
			s.ui.Errorf("Cannot pin: %v", err)
			return false
		}
		if !s.selector.Toggle(id) {
			s.ui.Noticef("Unpinned %d", id)
		}
	default:
		s.ui.Errorf("Unknown command %s. Type /help.", fields[0])
	}
	return false
}

// Run reads lines from in until /quit, EOF or ctx is done.
func (s *session) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
		close(lines)
	}()

	for {
		s.ui.Prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if s.Handle(ctx, line) {
				return nil
			}
		}
	}
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat",
	Args:  cobra.NoArgs,
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
		s.ui.Mutedf("Loaded %d documents. Type /help for commands.", len(s.Documents()))

		a.selector.OnPanelOpen(func() {
			s.ui.Context(s.Documents(), a.selector)
		})

		go a.client.Watch(ctx, func(ev client.ChangeEvent) {
			if err := s.Refresh(ctx); err != nil {
				s.ui.Errorf("Document refresh failed: %v", err)
				return
			}
			s.ui.Noticef("Documents %s, list refreshed.", ev.Data.Kind)
		})

		for _, m := range a.chat.History() {
			s.ui.Message(m)
		}
		return s.Run(ctx, os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
