package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mahirjain10/copyurl-service/internal/types"
	"github.com/mahirjain10/copyurl-service/internal/utils"
	amqp "github.com/rabbitmq/amqp091-go"
)

// StatusPublisher delivers job status events to whoever listens for them.
type StatusPublisher interface {
	Publish(ctx context.Context, msg *types.StatusMessage) error
	Close() error
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *types.StatusMessage) error { return nil }
func (NoopPublisher) Close() error { return nil }

// amqpChannel is the part of *amqp.Channel the publisher needs.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// RabbitMqService publishes status messages to a direct exchange. Workers
// publish concurrently, so the channel is guarded by mu.
type RabbitMqService struct {
	mu         sync.Mutex
	channel    amqpChannel
	reopen     func() (amqpChannel, error)
	closeConn  func() error
	exchange   string
	routingKey string
}

// NewRabbitMqService dials url, declares the exchange and returns a ready publisher.
func NewRabbitMqService(url string, exchange string, routingKey string) (*RabbitMqService, error) {
	conn, err := NewRabbitMQClient(url)
	if err != nil {
		return nil, err
	}

	open := func() (amqpChannel, error) {
		if conn.IsClosed() {
			return nil, amqp.ErrClosed
		}
		ch, err := NewChannel(conn)
		if err != nil {
			return nil, err
		}
		if err := DeclareStatusExchange(ch, exchange); err != nil {
			ch.Close()
			return nil, err
		}
		return ch, nil
	}

	ch, err := open()
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &RabbitMqService{
		channel:    ch,
		reopen:     open,
		closeConn:  conn.Close,
		exchange:   exchange,
		routingKey: routingKey,
	}, nil
}

// Publish serializes msg and sends it, reopening the channel once if the
// broker closed it. It can block while the broker applies flow control, so
// callers on a hot path go through AsyncPublisher.
func (service *RabbitMqService) Publish(ctx context.Context, msg *types.StatusMessage) error {
	body, err := utils.SerializeJSON(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %w", err)
	}

	service.mu.Lock()
	defer service.mu.Unlock()

	if service.channel == nil || service.channel.IsClosed() {
		if err := service.reopenLocked(); err != nil {
			return err
		}
	}

	err = service.channel.PublishWithContext(ctx,
		service.exchange,
		service.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (service *RabbitMqService) reopenLocked() error {
	if service.reopen == nil {
		return errors.New("status channel is closed")
	}
	ch, err := service.reopen()
	if err != nil {
		return fmt.Errorf("reopen status channel: %w", err)
	}
	slog.Info("status channel reopened", "exchange", service.exchange)
	service.channel = ch
	return nil
}

func (service *RabbitMqService) Close() error {
	service.mu.Lock()
	defer service.mu.Unlock()

	var errs []error
	if service.channel != nil && !service.channel.IsClosed() {
		errs = append(errs, service.channel.Close())
	}
	if service.closeConn != nil {
		errs = append(errs, service.closeConn())
	}
	return errors.Join(errs...)
}
