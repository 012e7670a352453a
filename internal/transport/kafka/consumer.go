package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/IBM/sarama"

	"service-fulfillment/internal/logx"
	"service-fulfillment/internal/service/orders"
)

// HandleFunc processes a single orders.Event from Kafka
type HandleFunc func(context.Context, orders.Event) error

// Consumer wraps a Sarama consumer group and dispatches events to a handler
type Consumer struct {
	group        sarama.ConsumerGroup
	topic        string
	handler      HandleFunc
	logger       logx.Logger
	retryBackoff time.Duration
}

// Config holds the consumer group coordinates.
type Config struct {
	Brokers []string
	GroupID string
	Topic   string
}

var newConsumerGroup = sarama.NewConsumerGroup

// NewConsumer joins the consumer group described by cfg.
func NewConsumer(cfg Config, h HandleFunc, logger logx.Logger) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Return.Errors = false

	group, err := newConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, err
	}
	return NewConsumerWithGroup(group, cfg.Topic, h, logger), nil
}

// NewConsumerWithGroup builds a Consumer over an existing group.
func NewConsumerWithGroup(group sarama.ConsumerGroup, topic string, h HandleFunc, logger logx.Logger) *Consumer {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Consumer{
		group:        group,
		topic:        topic,
		handler:      h,
		logger:       logger.With(logx.String("topic", topic)),
		retryBackoff: time.Second,
	}
}

// Run consumes until ctx is done. Rebalances restart the session transparently.
func (c *Consumer) Run(ctx context.Context) error {
	h := &groupHandler{c: c}
	for {
		err := c.group.Consume(ctx, []string{c.topic}, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			c.logger.Error("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryBackoff):
			}
		}
	}
}

// Close leaves the consumer group.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim handles messages in order. A transient handler error ends the
// claim without marking, so the message is delivered again after the rebalance.
func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log := h.c.logger
	for msg := range claim.Messages() {
		var dto EventDTO
		if err := json.Unmarshal(msg.Value, &dto); err != nil {
			log.Warn("kafka bad json", logx.Int64("offset", msg.Offset), logx.Err(err))
			sess.MarkMessage(msg, "")
			continue
		}
		if dto.OrderID <= 0 {
			log.Warn("kafka invalid order_id", logx.Int64("offset", msg.Offset), logx.OrderID(dto.OrderID))
			sess.MarkMessage(msg, "")
			continue
		}

		ev := ToDomain(dto)
		if err := h.c.handler(sess.Context(), ev); err != nil {
			if IsPermanent(err) {
				log.Warn("kafka event dropped",
					logx.OrderID(ev.OrderID),
					logx.String("status", ev.Status),
					logx.Err(err),
				)
				sess.MarkMessage(msg, "")
				continue
			}
			log.Error("kafka handle failed, will retry",
				logx.OrderID(ev.OrderID),
				logx.String("status", ev.Status),
				logx.Duration("backoff", h.c.retryBackoff),
				logx.Err(err),
			)
			// ending the session rejoins the group at once; hold the claim first
			select {
			case <-sess.Context().Done():
			case <-time.After(h.c.retryBackoff):
			}
			return err
		}

		log.Debug("kafka event handled", logx.OrderID(ev.OrderID), logx.String("status", ev.Status))
		sess.MarkMessage(msg, "")
	}
	return nil
}
