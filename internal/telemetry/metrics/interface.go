package metrics

import (
	"context"
)

// Custom type to represent a metric name,
// providing a type-safe way to handle metric names.
type MetricName string

const (
	AttachmentSaved         MetricName = "attachment.saved"
	ThumbCreated            MetricName = "thumbnail.created"
	ThumbDeleted            MetricName = "thumbnail.deleted"
	ThumbGenRequestReceived MetricName = "thumbnail.gen_request.received"
	ThumbDelRequestReceived MetricName = "thumbnail.del_request.received"
)

type MetricsSvc interface {
	Increment(metric MetricName, attrs map[string]string)
	Shutdown(ctx context.Context) error
}
