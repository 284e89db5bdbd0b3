package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used here.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchMetrics publishes domain metrics to CloudWatch. Delivery
// failures are logged and never reach the caller.
type CloudWatchMetrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewCloudWatchMetrics creates a new metrics instance
func NewCloudWatchMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchMetrics {
	return &CloudWatchMetrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordRejection counts a refused node by the rule that refused it
func (m *CloudWatchMetrics) RecordRejection(ctx context.Context, reason string) {
	m.put(ctx, datum("NodeRejected", 1, types.StandardUnitCount, "Reason", reason))
}

// RecordNodeWritten counts a stored node by classification
func (m *CloudWatchMetrics) RecordNodeWritten(ctx context.Context, classification string) {
	m.put(ctx, datum("NodeWritten", 1, types.StandardUnitCount, "Classification", classification))
}

// ObserveQuery records query latency and outcome
func (m *CloudWatchMetrics) ObserveQuery(queryType string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.put(context.Background(),
		datum("QueryLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, "QueryName", queryType),
		datum("QueryCount", 1, types.StandardUnitCount, "Status", status),
	)
}

func datum(name string, value float64, unit types.StandardUnit, dimension, dimensionValue string) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: []types.Dimension{{
			Name:  aws.String(dimension),
			Value: aws.String(dimensionValue),
		}},
		Value:     aws.Float64(value),
		Unit:      unit,
		Timestamp: aws.Time(time.Now()),
	}
}

func (m *CloudWatchMetrics) put(ctx context.Context, data ...types.MetricDatum) {
	if m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordRejection(context.Context, string)   {}
func (NopMetrics) RecordNodeWritten(context.Context, string) {}
func (NopMetrics) ObserveQuery(string, time.Duration, error) {}

// Recorder is every observation the application makes.
type Recorder interface {
	RecordRejection(ctx context.Context, reason string)
	RecordNodeWritten(ctx context.Context, classification string)
	ObserveQuery(queryType string, duration time.Duration, err error)
}

// Multi fans each observation out to every recorder in order.
type Multi []Recorder

func (m Multi) RecordRejection(ctx context.Context, reason string) {
	for _, r := range m {
		r.RecordRejection(ctx, reason)
	}
}

func (m Multi) RecordNodeWritten(ctx context.Context, classification string) {
	for _, r := range m {
		r.RecordNodeWritten(ctx, classification)
	}
}

func (m Multi) ObserveQuery(queryType string, duration time.Duration, err error) {
	for _, r := range m {
		r.ObserveQuery(queryType, duration, err)
	}
}
