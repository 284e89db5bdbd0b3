package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"edubba/application/ports"
	"edubba/domain/events"
	pkgerrors "edubba/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const (
	// SourceMemory is the EventBridge source for node lifecycle events.
	SourceMemory = "edubba.memory"
	// SourceDiode is the EventBridge source for audit packets.
	SourceDiode = "edubba.diode"
	// DetailTypeDiodePacket is the detail type of every audit record.
	DetailTypeDiodePacket = "DiodePacket"

	// EventBridge accepts at most 10 entries per PutEvents call
	batchSize = 10
)

// API is the subset of the EventBridge client used here.
type API interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// NewBreaker returns the circuit breaker shared by one EventBridge target.
// It trips once at least five calls in the interval have mostly failed.
func NewBreaker(name string, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Publisher implements ports.EventPublisher using AWS EventBridge
type Publisher struct {
	client       API
	eventBusName string
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

// NewPublisher creates a new EventBridge publisher
func NewPublisher(client API, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		breaker:      NewBreaker("eventbridge-events", logger),
		logger:       logger,
	}
}

// Publish sends events in batches of at most ten.
func (p *Publisher) Publish(ctx context.Context, domainEvents ...events.DomainEvent) error {
	for i := 0; i < len(domainEvents); i += batchSize {
		end := min(i+batchSize, len(domainEvents))
		if err := p.publishBatch(ctx, domainEvents[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Publisher) publishBatch(ctx context.Context, domainEvents []events.DomainEvent) error {
	entries := make([]types.PutEventsRequestEntry, 0, len(domainEvents))
	for _, event := range domainEvents {
		detail, err := json.Marshal(event)
		if err != nil {
			p.logger.Error("Failed to marshal event",
				zap.Error(err),
				zap.String("eventType", event.GetEventType()),
			)
			continue
		}
		entries = append(entries, types.PutEventsRequestEntry{
			EventBusName: aws.String(p.eventBusName),
			Source:       aws.String(SourceMemory),
			DetailType:   aws.String(event.GetEventType()),
			Detail:       aws.String(string(detail)),
			Time:         aws.Time(event.GetTimestamp()),
			Resources:    []string{fmt.Sprintf("edubba:memory-node:%s", event.GetAggregateID())},
		})
	}
	if len(entries) == 0 {
		return nil
	}

	if err := putEvents(ctx, p.client, p.breaker, entries, p.logger); err != nil {
		return err
	}

	p.logger.Debug("Events published to EventBridge",
		zap.Int("count", len(entries)),
		zap.String("eventBus", p.eventBusName),
	)
	return nil
}

// DiodeSink sends diode records to a dedicated audit bus. Only the packet
// and node id leave the process.
type DiodeSink struct {
	client       API
	eventBusName string
	breaker      *gobreaker.CircuitBreaker
	logger       *zap.Logger
}

// NewDiodeSink creates a new EventBridge diode sink
func NewDiodeSink(client API, eventBusName string, logger *zap.Logger) *DiodeSink {
	return &DiodeSink{
		client:       client,
		eventBusName: eventBusName,
		breaker:      NewBreaker("eventbridge-diode", logger),
		logger:       logger,
	}
}

// Emit implements ports.DiodeSink
func (s *DiodeSink) Emit(ctx context.Context, record ports.DiodeRecord) error {
	detail, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal diode record: %w", err)
	}

	entry := types.PutEventsRequestEntry{
		EventBusName: aws.String(s.eventBusName),
		Source:       aws.String(SourceDiode),
		DetailType:   aws.String(DetailTypeDiodePacket),
		Detail:       aws.String(string(detail)),
		Time:         aws.Time(record.EmittedAt),
	}
	return putEvents(ctx, s.client, s.breaker, []types.PutEventsRequestEntry{entry}, s.logger)
}

func putEvents(ctx context.Context, client API, breaker *gobreaker.CircuitBreaker, entries []types.PutEventsRequestEntry, logger *zap.Logger) error {
	out, err := breaker.Execute(func() (interface{}, error) {
		result, err := client.PutEvents(ctx, &eventbridge.PutEventsInput{Entries: entries})
		if err != nil {
			return nil, err
		}
		if result.FailedEntryCount > 0 {
			return result, fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
		}
		return result, nil
	})
	if err != nil {
		if result, ok := out.(*eventbridge.PutEventsOutput); ok && result != nil {
			for i, entry := range result.Entries {
				if entry.ErrorCode != nil && i < len(entries) {
					logger.Error("Failed to publish event",
						zap.String("detailType", aws.ToString(entries[i].DetailType)),
						zap.String("errorCode", aws.ToString(entry.ErrorCode)),
						zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
					)
				}
			}
		}
		return pkgerrors.NewExternalError("eventbridge", err)
	}
	return nil
}
