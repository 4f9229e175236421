package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"tradefeed/internal/config"
	trade "tradefeed/internal/domain/entity/trade"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const consumerTag = "tradefeed-trades"

// Consumer subscribes to the trades fanout exchange and forwards messages
// into the trade store via a buffered batch writer.
type Consumer struct {
	cfg    config.RabbitMQConfig
	logger *logrus.Entry

	conn    *amqp.Connection
	channel *amqp.Channel
	wg      sync.WaitGroup
	batcher *BatchWriter
}

// NewConsumer prepares a consumer for the given configuration. onFlush, if
// set, is told how many trades each successful flush wrote.
func NewConsumer(cfg config.RabbitMQConfig, saver TradeSaver, logger *logrus.Logger, onFlush func(n int)) (*Consumer, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.TradesExchange == "" {
		return nil, errors.New("rabbitmq trades exchange is required")
	}
	batchCfg := BatchConfig{
		Size:    cfg.BatchSize,
		Timeout: cfg.BatchTimeout,
	}
	return &Consumer{
		cfg:     cfg,
		logger:  logger.WithField("component", "trade_consumer"),
		batcher: NewBatchWriter(batchCfg, saver, logger, onFlush),
	}, nil
}

// Start establishes the AMQP connection and begins consuming trades.
func (c *Consumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("connect to rabbitmq: %w", err)
	}
	c.conn = conn
	c.batcher.Run(ctx)

	deliveries, err := c.subscribe()
	if err != nil {
		c.Close(ctx)
		return err
	}
	c.wg.Add(1)
	go c.consumeLoop(ctx, deliveries)

	c.logger.WithField("exchange", c.cfg.TradesExchange).Info("rabbitmq consumer started")
	return nil
}

// Close stops consumption, flushes pending trades so their deliveries are
// settled, and then releases the channel and connection.
func (c *Consumer) Close(ctx context.Context) error {
	if c.channel != nil {
		if err := c.channel.Cancel(consumerTag, false); err != nil {
			c.logger.WithError(err).Warn("cancel consumer")
		}
	}
	c.wg.Wait()
	err := c.batcher.Stop(ctx)
	if c.channel != nil {
		_ = c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	return err
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	exchange := c.cfg.TradesExchange
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", exchange, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind queue %s to %s: %w", queue.Name, exchange, err)
	}
	if err := ch.Qos(max(c.cfg.Prefetch, 1), 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := ch.Consume(queue.Name, consumerTag, false, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("start consume: %w", err)
	}
	c.channel = ch
	return deliveries, nil
}

func (c *Consumer) consumeLoop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer c.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				return
			}
			if err := c.handleDelivery(delivery.Body, c.settler(delivery)); err != nil {
				c.logger.WithError(err).Warn("failed to process message")
			}
		}
	}
}

// settler acks a delivery once its trade is stored. A failed store requeues
// the message; a malformed one is dropped.
func (c *Consumer) settler(delivery amqp.Delivery) Settle {
	return func(err error) {
		if err == nil {
			if ackErr := delivery.Ack(false); ackErr != nil {
				c.logger.WithError(ackErr).Warn("failed to ack delivery")
			}
			return
		}
		if nackErr := delivery.Nack(false, !errors.Is(err, errMalformed)); nackErr != nil {
			c.logger.WithError(nackErr).Warn("failed to nack delivery")
		}
	}
}

var errMalformed = errors.New("malformed trade message")

// handleDelivery buffers one message. settle is called once the outcome is
// known. Messages that can never be processed are settled with errMalformed
// so they are dropped instead of redelivered.
func (c *Consumer) handleDelivery(body []byte, settle Settle) error {
	record, err := decodeTrade(body)
	if err != nil {
		if settle != nil {
			settle(err)
		}
		return err
	}
	return c.batcher.AddTrade(record, settle)
}

func decodeTrade(body []byte) (*trade.Record, error) {
	var payload TradeMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	if payload.Trade == nil {
		return nil, fmt.Errorf("%w: trade payload is nil", errMalformed)
	}
	if err := payload.Trade.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformed, err)
	}
	return payload.Trade, nil
}
