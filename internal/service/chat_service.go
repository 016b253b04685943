package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/pkg/metrics"
	"knowledge-workspace/pkg/llm"
	"knowledge-workspace/pkg/rag"
	"knowledge-workspace/pkg/rag/conversation"
	"knowledge-workspace/pkg/rag/prompt"
)

const chatModule = "ChatService"

var (
	ErrEmptyMessage         = &DomainError{Status: http.StatusBadRequest, Message: "message is required"}
	ErrTooManyContext       = &DomainError{Status: http.StatusBadRequest, Message: fmt.Sprintf("at most %d context documents are allowed", conversation.MaxContextDocuments)}
	ErrAssistantUnavailable = &DomainError{Status: http.StatusServiceUnavailable, Message: "AI assistant temporarily unavailable"}
)

type IChatService interface {
	Chat(ctx context.Context, req *rag.ChatRequest) (*rag.ChatResponse, error)
}

type chatService struct {
	provider        llm.LLMProvider
	maxContextChars int
	metrics         *metrics.Collector
	logger          logger.ILogger
}

func NewChatService(provider llm.LLMProvider, maxContextChars int, collector *metrics.Collector, log logger.ILogger) IChatService {
	return &chatService{
		provider:        provider,
		maxContextChars: maxContextChars,
		metrics:         collector,
		logger:          log,
	}
}

// Chat answers from the supplied context only. Every failure is a *DomainError
// whose message is safe to show to the user.
func (s *chatService) Chat(ctx context.Context, req *rag.ChatRequest) (*rag.ChatResponse, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Message)
	if question == "" {
		s.metrics.ObserveChat(metrics.OutcomeInvalid, time.Since(start))
		return nil, ErrEmptyMessage
	}
	if len(req.Context) > conversation.MaxContextDocuments {
		s.metrics.ObserveChat(metrics.OutcomeInvalid, time.Since(start))
		return nil, ErrTooManyContext
	}

	messages := prompt.NewGroundedBuilder(question, req.Context, s.maxContextChars).Build()
	answer, err := s.provider.Chat(ctx, messages)
	if err != nil {
		if errors.Is(err, llm.ErrUnavailable) {
			s.metrics.ObserveChat(metrics.OutcomeUnavailable, time.Since(start))
			s.logger.Warn(chatModule, "Provider circuit open, rejecting chat", nil)
			return nil, ErrAssistantUnavailable
		}
		s.metrics.ObserveChat(metrics.OutcomeFailed, time.Since(start))
		s.logger.Error(chatModule, "Provider call failed", map[string]interface{}{"error": err.Error()})
		return nil, &DomainError{Status: http.StatusBadGateway, Message: "AI assistant failed: " + err.Error()}
	}

	answer = strings.TrimSpace(answer)
	res := &rag.ChatResponse{
		Answer:  answer,
		Sources: prompt.CitedSources(answer, req.Context),
	}

	s.metrics.ObserveChat(metrics.OutcomeOK, time.Since(start))
	s.logger.Info(chatModule, "Chat answered", map[string]interface{}{
		"context_docs": len(req.Context),
		"sources":      len(res.Sources),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return res, nil
}
