package benchmark

import (
	"context"
	"fmt"
	"time"

	"insider-risk-index/internal/common/logger"
)

const (
	// RefreshMessageName is the Zeebe message that starts a refresh process.
	RefreshMessageName = "benchmark-refresh-requested"
	// RefreshCorrelationKey groups refresh requests; only one refresh process
	// needs to be waiting for them.
	RefreshCorrelationKey = "benchmark-refresh"

	refreshMessageTTL = 10 * time.Minute
)

// RefreshRequest asks the background job to re-aggregate snapshots.
type RefreshRequest struct {
	RequestedAt  time.Time `json:"requestedAt"`
	AssessmentID string    `json:"assessmentId,omitempty"`
	Reason       string    `json:"reason"`
}

// RefreshPublisher hands refresh requests to an asynchronous channel. It must
// never run the refresh inline.
type RefreshPublisher interface {
	PublishRefreshRequest(ctx context.Context, req RefreshRequest) error
}

// MessagePublisher publishes a Zeebe message. camunda.Client satisfies it.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, ttl time.Duration, variables interface{}) error
}

type ZeebeRefreshPublisher struct {
	client MessagePublisher
}

func NewZeebeRefreshPublisher(client MessagePublisher) *ZeebeRefreshPublisher {
	return &ZeebeRefreshPublisher{client: client}
}

func (p *ZeebeRefreshPublisher) PublishRefreshRequest(ctx context.Context, req RefreshRequest) error {
	if err := p.client.PublishMessage(ctx, RefreshMessageName, RefreshCorrelationKey, refreshMessageTTL, req); err != nil {
		return fmt.Errorf("publish %s: %w", RefreshMessageName, err)
	}
	return nil
}

// TopicPublisher publishes a JSON payload to a topic. aws.SNSClient satisfies
// it.
type TopicPublisher interface {
	PublishJSON(ctx context.Context, topicARN string, payload interface{}, attributes map[string]string) (string, error)
}

type SNSRefreshPublisher struct {
	client   TopicPublisher
	topicARN string
}

func NewSNSRefreshPublisher(client TopicPublisher, topicARN string) *SNSRefreshPublisher {
	return &SNSRefreshPublisher{client: client, topicARN: topicARN}
}

func (p *SNSRefreshPublisher) PublishRefreshRequest(ctx context.Context, req RefreshRequest) error {
	if _, err := p.client.PublishJSON(ctx, p.topicARN, req, map[string]string{"type": RefreshMessageName}); err != nil {
		return fmt.Errorf("publish refresh request to %s: %w", p.topicARN, err)
	}
	return nil
}

// LogRefreshPublisher only logs requests. It is used when no queue is
// configured and the scheduled job alone keeps snapshots fresh.
type LogRefreshPublisher struct {
	logger logger.Logger
}

func NewLogRefreshPublisher(log logger.Logger) *LogRefreshPublisher {
	return &LogRefreshPublisher{logger: log}
}

func (p *LogRefreshPublisher) PublishRefreshRequest(_ context.Context, req RefreshRequest) error {
	p.logger.Debug("benchmark refresh requested", map[string]interface{}{
		"assessmentId": req.AssessmentID,
		"reason":       req.Reason,
	})
	return nil
}
