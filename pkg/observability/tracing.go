package observability

import (
	"context"
	"net/http"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer opens X-Ray segments around commands and HTTP requests. A
// disabled tracer passes contexts through untouched.
type Tracer struct {
	serviceName string
	enabled     bool
}

// NewTracer creates a new tracer instance
func NewTracer(serviceName string, enabled bool) *Tracer {
	return &Tracer{
		serviceName: serviceName,
		enabled:     enabled,
	}
}

// Enabled reports whether spans are recorded.
func (t *Tracer) Enabled() bool { return t.enabled }

// Start opens a subsegment when ctx already carries a segment (Lambda, or
// HTTPMiddleware) and a new segment otherwise. The operation name is
// indexed as an annotation so traces can be filtered by command. The
// returned function records err, if any, and closes the segment.
func (t *Tracer) Start(ctx context.Context, name string) (context.Context, func(error)) {
	if !t.enabled {
		return ctx, func(error) {}
	}

	var seg *xray.Segment
	if xray.GetSegment(ctx) != nil {
		ctx, seg = xray.BeginSubsegment(ctx, name)
	} else {
		ctx, seg = xray.BeginSegment(ctx, t.serviceName+"."+name)
	}
	if seg == nil {
		return ctx, func(error) {}
	}
	_ = seg.AddAnnotation("operation", name)

	return ctx, func(err error) {
		if err != nil {
			_ = seg.AddError(err)
		}
		seg.Close(err)
	}
}

// HTTPMiddleware opens a segment per request named after the service.
// Inside Lambda the runtime already provides one, so callers leave the
// tracer disabled there.
func (t *Tracer) HTTPMiddleware(next http.Handler) http.Handler {
	if !t.enabled {
		return next
	}
	return xray.Handler(xray.NewFixedSegmentNamer(t.serviceName), next)
}
