package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/geodocs/webharvest/internal/connector"
)

// PubSub publishes each batch as one JSON message to a Pub/Sub topic and
// blocks until the server acknowledges it, preserving batch back-pressure.
type PubSub struct {
	client *pubsub.Client
	topic  *pubsub.Topic
	logger *zap.Logger
}

// NewPubSub connects to Pub/Sub and verifies the topic exists. It
// authenticates with Application Default Credentials.
func NewPubSub(ctx context.Context, projectID, topicID string, logger *zap.Logger) (*PubSub, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("check topic %q: %w", topicID, err)
	}
	if !exists {
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("close pubsub client after topic check failure", zap.Error(closeErr))
		}
		return nil, fmt.Errorf("pubsub topic %q does not exist in project %q", topicID, projectID)
	}
	return &PubSub{
		client: client,
		topic:  topic,
		logger: logger,
	}, nil
}

// Emit publishes the batch and waits for the ack.
func (s *PubSub) Emit(ctx context.Context, batch []connector.Document) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	result := s.topic.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"document_count": strconv.Itoa(len(batch)),
		},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publish batch: %w", err)
	}
	s.logger.Debug("batch published",
		zap.String("message_id", id),
		zap.Int("documents", len(batch)),
	)
	return nil
}

// Close stops the topic's publish goroutines and closes the client.
func (s *PubSub) Close() error {
	s.topic.Stop()
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("close pubsub client: %w", err)
	}
	return nil
}
