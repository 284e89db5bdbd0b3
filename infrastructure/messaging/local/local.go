// Package local provides in-process event and diode delivery for
// development, the CLI and tests.
package local

import (
	"context"
	"sync"

	"edubba/application/ports"
	"edubba/domain/events"

	"go.uber.org/zap"
)

// LogPublisher writes events to the log instead of a bus.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	for _, e := range evts {
		p.logger.Info("Domain event",
			zap.String("eventType", e.GetEventType()),
			zap.String("aggregateID", e.GetAggregateID()),
			zap.Time("timestamp", e.GetTimestamp()),
		)
	}
	return nil
}

// LogDiodeSink writes diode packets to a dedicated logger. Nothing but
// the packet and node id is logged.
type LogDiodeSink struct {
	logger *zap.Logger
}

func NewLogDiodeSink(logger *zap.Logger) *LogDiodeSink {
	return &LogDiodeSink{logger: logger.Named("diode")}
}

func (s *LogDiodeSink) Emit(ctx context.Context, record ports.DiodeRecord) error {
	s.logger.Info("Diode packet",
		zap.String("nodeID", record.NodeID.String()),
		zap.String("diode_packet", record.Packet),
	)
	return nil
}

// Recorder keeps everything it receives. It serves as both publisher and
// sink.
type Recorder struct {
	mu      sync.Mutex
	events  []events.DomainEvent
	records []ports.DiodeRecord
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evts...)
	return nil
}

func (r *Recorder) Emit(ctx context.Context, record ports.DiodeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

// Events returns a copy of the published events.
func (r *Recorder) Events() []events.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.DomainEvent(nil), r.events...)
}

// Records returns a copy of the emitted diode records.
func (r *Recorder) Records() []ports.DiodeRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.DiodeRecord(nil), r.records...)
}
