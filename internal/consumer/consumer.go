package consumer

import (
	"context"
)

// MessageConsumer receives thumbnail requests from a message broker
// until stopped.
type MessageConsumer interface {
	Start(ctx context.Context) error

	Stop()
}
