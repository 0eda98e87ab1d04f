package observability

import (
	"context"

	"github.com/google/uuid"
)

// WithTrace returns a Context whose Observability Logger tags every record with a
// connection trace id and with the attrs key/value pairs.
//
// If traceId is empty, a random uuid is generated.
func WithTrace(ctx context.Context, traceId string, attrs ...any) (context.Context, string) {
	if "" == traceId {
		traceId = uuid.New().String()
	}

	args := make([]any, 0, 2+len(attrs))
	args = append(args, "tId", traceId)
	args = append(args, attrs...)
	log := GetObservability(ctx).Log().With(args...)

	return SetObservability(ctx, &Observability{Logger: log}), traceId
}
