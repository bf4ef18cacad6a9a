/**
 * @description
 * This package provides a RabbitMQ event producer used to announce payment
 * method lifecycle changes on a topic exchange.
 *
 * Key features:
 * - Manages the AMQP connection and channel.
 * - Declares the topic exchange once, on first use.
 * - Provides a `Publish` method that marshals a Go struct into JSON and sends it.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The official Go client for RabbitMQ.
 * - github.com/sirupsen/logrus: Structured logging.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// EventProducer is a client for publishing events to RabbitMQ.
type EventProducer struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	logger  logrus.FieldLogger

	mu       sync.Mutex
	declared map[string]bool
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	// An empty path selects the default vhost; a non-empty path is the vhost name.
	if u.Path == "" {
		clean += "/"
	}
	return clean, nil
}

// NewEventProducer creates and returns a new EventProducer.
func NewEventProducer(amqpURL string, logger logrus.FieldLogger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	conn, err := amqp091.Dial(cleanURL)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &EventProducer{
		conn:     conn,
		channel:  channel,
		logger:   logger,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends an event to a specific exchange with a routing key.
func (p *EventProducer) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	// amqp091 channels are not safe for concurrent publishing.
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[exchange] {
		err := p.channel.ExchangeDeclare(
			exchange, // name
			"topic",  // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			return err
		}
		p.declared[exchange] = true
	}

	err = p.channel.PublishWithContext(ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         jsonBody,
		})
	if err != nil {
		return err
	}

	p.logger.WithFields(logrus.Fields{"exchange": exchange, "routing_key": routingKey}).Debug("published message")
	return nil
}

// Close gracefully closes the channel and connection.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
