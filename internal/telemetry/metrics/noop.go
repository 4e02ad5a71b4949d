package metrics

import (
	"context"
)

var _ MetricsSvc = (*NoopMetricsSvc)(nil)

// NoopMetricsSvc discards every increment. Used when OTEL_ENABLED is
// not set and as the default of components built without metrics.
type NoopMetricsSvc struct{}

func NewNoopMetricsSvc() *NoopMetricsSvc {
	return &NoopMetricsSvc{}
}

func (n *NoopMetricsSvc) Increment(MetricName, map[string]string) {}

func (n *NoopMetricsSvc) Shutdown(context.Context) error {
	return nil
}
