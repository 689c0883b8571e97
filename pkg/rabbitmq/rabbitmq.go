package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	amqp "github.com/streadway/amqp"
)

// DefaultMailQueue is used when Config.Queue is empty.
const DefaultMailQueue = "mail_queue"

// MailMessage is the JSON payload of a queued email.
type MailMessage struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Body    string   `json:"body"`
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	log     zerolog.Logger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares the mail queue.
func NewClient(cfg Config, log zerolog.Logger) (*Client, error) {
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultMailQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if _, err := declare(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	log = log.With().Str("component", "rabbitmq").Str("queue", queue).Logger()
	log.Info().Msg("RabbitMQ client connected and queue declared")

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
		log:     log,
	}, nil
}

func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return q, fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message to the client's queue through the
// default exchange.
func (c *Client) Publish(ctx context.Context, body []byte) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.channel.Publish(
		"",      // default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// PublishMail queues msg for the mail worker.
func (c *Client) PublishMail(ctx context.Context, msg MailMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal mail message: %w", err)
	}
	if err := c.Publish(ctx, body); err != nil {
		return err
	}
	c.log.Debug().Strs("to", msg.To).Str("subject", msg.Subject).Msg("mail queued")
	return nil
}

// ConsumeMail starts a goroutine delivering queued emails to handler until
// the channel closes. Messages are acked when handler succeeds and requeued
// when it fails; payloads that do not decode are dropped.
func (c *Client) ConsumeMail(handler func(MailMessage) error) error {
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	c.mu.Lock()
	queue, err := declare(c.channel, c.queue)
	if err == nil {
		err = c.channel.Qos(1, 0, false)
	}
	var msgs <-chan amqp.Delivery
	if err == nil {
		msgs, err = c.channel.Consume(
			queue.Name,
			"",    // consumer tag
			false, // auto-ack
			false, // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
	}
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.Info().Msg("waiting for mail messages")

	go func() {
		for d := range msgs {
			handleDelivery(c.log, d, handler)
		}
		c.log.Info().Msg("mail consumer stopped")
	}()
	return nil
}

// Acknowledger settles a delivery. amqp.Delivery implements it.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// handleDelivery decodes one delivery, passes it to handler and settles it.
func handleDelivery(log zerolog.Logger, d amqp.Delivery, handler func(MailMessage) error) {
	settle(log, d.DeliveryTag, d.Body, d, handler)
}

func settle(log zerolog.Logger, tag uint64, body []byte, ack Acknowledger, handler func(MailMessage) error) {
	var msg MailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		log.Error().Err(err).Uint64("tag", tag).Msg("dropping undecodable mail message")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			log.Error().Err(nackErr).Uint64("tag", tag).Msg("failed to nack message")
		}
		return
	}

	if err := handler(msg); err != nil {
		log.Error().Err(err).Uint64("tag", tag).Msg("failed to process mail message, requeueing")
		if nackErr := ack.Nack(false, true); nackErr != nil {
			log.Error().Err(nackErr).Uint64("tag", tag).Msg("failed to nack message")
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		log.Error().Err(ackErr).Uint64("tag", tag).Msg("failed to ack message")
	}
}
