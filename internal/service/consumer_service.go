package service

import (
	"context"
	"encoding/json"
	"time"

	"knowledge-workspace/internal/pkg/logger"
	"knowledge-workspace/internal/pkg/metrics"
	"knowledge-workspace/internal/repository/memory"
	"knowledge-workspace/pkg/events"
	pktNats "knowledge-workspace/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
)

const consumerModule = "ConsumerService"

// EventBroadcaster is implemented by the websocket hub.
type EventBroadcaster interface {
	Broadcast(ctx context.Context, eventType string, data interface{}) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	cache          *memory.DocumentCache
	broadcaster    EventBroadcaster
	eventPublisher pktNats.AuditPublisher
	metrics        *metrics.Collector
	logger         logger.ILogger
}

// NewConsumerService accepts a nil eventPublisher when NATS is unavailable.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	cache *memory.DocumentCache,
	broadcaster EventBroadcaster,
	eventPublisher pktNats.AuditPublisher,
	collector *metrics.Collector,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		cache:          cache,
		broadcaster:    broadcaster,
		eventPublisher: eventPublisher,
		metrics:        collector,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var change events.DocumentChanged
	if err := json.Unmarshal(msg.Payload, &change); err != nil || change.Kind == "" {
		cs.logger.Error(consumerModule, "Dropping unreadable change message", map[string]interface{}{"message_id": msg.UUID})
		// Retrying a malformed payload can never succeed.
		msg.Ack()
		return
	}

	cs.cache.Invalidate()
	cs.metrics.RecordDocumentChange(change.Kind, len(change.IDs))

	if err := cs.broadcaster.Broadcast(ctx, "documents_changed", map[string]interface{}{
		"kind": change.Kind,
		"ids":  change.IDs,
	}); err != nil {
		cs.logger.Warn(consumerModule, "Failed to broadcast change", map[string]interface{}{"error": err.Error()})
	}

	if cs.eventPublisher != nil {
		if err := cs.eventPublisher.Publish(ctx, change.Audit(time.Now())); err != nil {
			cs.logger.Warn(consumerModule, "Failed to publish audit event", map[string]interface{}{
				"kind":  change.Kind,
				"error": err.Error(),
			})
		}
	}

	cs.logger.Info(consumerModule, "Document change processed", map[string]interface{}{
		"kind":  change.Kind,
		"count": len(change.IDs),
	})
	msg.Ack()
}
