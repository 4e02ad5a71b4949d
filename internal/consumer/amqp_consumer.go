package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/giobyte8/newsroom/internal/config"
	"github.com/giobyte8/newsroom/internal/models"
	"github.com/giobyte8/newsroom/internal/services"
	"github.com/giobyte8/newsroom/internal/telemetry/metrics"
)

// Handles a decoded thumbnail request
type requestHandler func(ctx context.Context, req models.ThumbRequest) error

type AMQPConsumer struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	config       config.AMQPConfig
	thumbnailSvc *services.ThumbnailsService
	metrics      metrics.MetricsSvc
}

// Creates a new AMQPConsumer instance ready to connect to broker
func NewAMQPConsumer(
	cfg config.AMQPConfig,
	thumbnailSvc *services.ThumbnailsService,
	metricsSvc metrics.MetricsSvc,
) (*AMQPConsumer, error) {

	if cfg.Host == "" {
		return nil, fmt.Errorf("AMQP host cannot be empty in config")
	}
	if cfg.Exchange == "" {
		return nil, fmt.Errorf("AMQP exchange cannot be empty in config")
	}
	if cfg.ThumbsGenQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP thumbs generation queue name cannot be empty in config",
		)
	}
	if cfg.ThumbsDelQueueName == "" {
		return nil, fmt.Errorf(
			"AMQP thumbs delete queue name cannot be empty in config",
		)
	}

	if metricsSvc == nil {
		metricsSvc = metrics.NewNoopMetricsSvc()
	}

	return &AMQPConsumer{
		config:       cfg,
		thumbnailSvc: thumbnailSvc,
		metrics:      metricsSvc,
	}, nil
}

// Connects to AMQP broker, declares exchange and queue and
// starts consuming messages
func (c *AMQPConsumer) Start(ctx context.Context) error {
	slog.Debug("AMQP - Initializing AMQP Consumer")

	var err error
	c.conn, err = amqp.Dial(c.config.URI())
	if err != nil {
		return fmt.Errorf("AMQP - Connection to broker failed: %w", err)
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to open channel: %w", err)
	}

	err = c.channel.ExchangeDeclare(
		c.config.Exchange,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf("AMQP - Failed to declare exchange: %w", err)
	}

	// Helper function to declare and bind a given queue
	declareAndBind := func(queueName string) error {
		_, err := c.channel.QueueDeclare(
			queueName,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return err
		}

		return c.channel.QueueBind(
			queueName,         // Queue
			queueName,         // Routing key
			c.config.Exchange, // Exchange
			false,             // No-wait
			nil,               // Arguments
		)
	}

	if err := declareAndBind(c.config.ThumbsGenQueueName); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf(
			"AMQP - Failed to declare/bind thumbs generation queue: %w",
			err,
		)
	}

	if err := declareAndBind(c.config.ThumbsDelQueueName); err != nil {
		c.channel.Close()
		c.conn.Close()
		return fmt.Errorf(
			"AMQP - Failed to declare/bind thumbs delete queue: %w",
			err,
		)
	}

	go c.consumeThumbsGenRequests(ctx)
	go c.consumeThumbsDelRequests(ctx)
	return nil
}

// Gracefully stops the AMQP consumer
func (c *AMQPConsumer) Stop() {
	slog.Info("AMQP - Stopping AMQP Consumer...")

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			slog.Error("AMQP - Failed to close channel", "error", err)
		} else {
			slog.Debug("AMQP - Channel closed")
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			slog.Error("AMQP - Failed to close connection", "error", err)
		} else {
			slog.Debug("AMQP - Connection closed")
		}
	}

	slog.Info("AMQP - AMQP Consumer stopped")
}

func (c *AMQPConsumer) consumeThumbsGenRequests(ctx context.Context) {
	c.consume(
		ctx,
		c.config.ThumbsGenQueueName,
		"newsroom-gen",
		"gen",
		metrics.ThumbGenRequestReceived,
		c.thumbnailSvc.ProcessGenRequest,
	)
}

func (c *AMQPConsumer) consumeThumbsDelRequests(ctx context.Context) {
	c.consume(
		ctx,
		c.config.ThumbsDelQueueName,
		"newsroom-del",
		"del",
		metrics.ThumbDelRequestReceived,
		c.thumbnailSvc.ProcessDelRequest,
	)
}

// Consumes messages from queue until the channel is closed or ctx
// is done. Malformed or failed requests are nacked without requeue.
func (c *AMQPConsumer) consume(
	ctx context.Context,
	queueName string,
	consumerTag string,
	kind string,
	received metrics.MetricName,
	handle requestHandler,
) {
	msgs, err := c.channel.Consume(
		queueName,
		consumerTag, // Consumer tag
		false,       // Auto-acknowledge
		false,       // Exclusive
		false,       // No-local
		false,       // No-wait
		nil,         // Arguments
	)
	if err != nil {
		slog.Error(
			"AMQP - Failed to create thumbs queue consumer",
			"kind",
			kind,
			"error",
			err,
		)
		return
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				slog.Info(
					"AMQP - Thumbs message channel closed. goroutine exiting",
					"kind",
					kind,
				)
				return
			}

			c.handleDelivery(ctx, msg, kind, received, handle)

		case <-ctx.Done():
			slog.Info(
				"AMQP - Context done signal received, "+
					"stopping thumbs consumption goroutine...",
				"kind",
				kind,
			)
			return
		}
	}
}

// Decodes and processes a single delivery, then acks or nacks it
func (c *AMQPConsumer) handleDelivery(
	ctx context.Context,
	msg amqp.Delivery,
	kind string,
	received metrics.MetricName,
	handle requestHandler,
) {
	thumbRequest, err := decodeThumbRequest(msg.Body)
	if err != nil {
		slog.Error(
			"AMQP - Failed to unmarshal thumbs message",
			"kind",
			kind,
			"error",
			err,
			"message",
			string(msg.Body),
		)

		if nackErr := msg.Nack(false, false); nackErr != nil {
			slog.Error("AMQP - Failed to nack thumbs message", "error", nackErr)
		}
		return
	}

	c.metrics.Increment(received, map[string]string{"field": thumbRequest.Field})

	err = handle(ctx, thumbRequest)
	if err != nil {
		slog.Error(
			"AMQP - Failed to process thumbnails request",
			"kind",
			kind,
			"error",
			err,
			"fileName",
			thumbRequest.FileName,
		)

		if nackErr := msg.Nack(false, false); nackErr != nil {
			slog.Error("AMQP - Failed to nack thumbs message", "error", nackErr)
		}
		return
	}

	// Acknowledge the message
	if err := msg.Ack(false); err != nil {
		slog.Error("AMQP - Failed to acknowledge thumbs message", "error", err)
	}
}

func decodeThumbRequest(body []byte) (models.ThumbRequest, error) {
	var req models.ThumbRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}

	if req.Field == "" || req.FileName == "" {
		return req, fmt.Errorf("field and fileName are required")
	}
	return req, nil
}
