// Package service publishes domain events to RabbitMQ. Publish errors are
// logged and returned so callers can ignore failures without interrupting
// the request flow.
package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/movie-catalog-api/internal/queue"
)

// CatalogPublisher is the event-publishing contract handlers depend on.
type CatalogPublisher interface {
	PublishCatalogChanged(ctx context.Context, event q.CatalogChangedEvent) error
}

// NewCatalogEvent stamps a catalog event with the current UTC time.
func NewCatalogEvent(entity, action string, id uint64, name string) q.CatalogChangedEvent {
	return q.CatalogChangedEvent{
		Entity:     entity,
		Action:     action,
		EntityID:   id,
		Name:       name,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// AMQPPublisher publishes catalog events over RabbitMQ. The zero value is
// not usable; construct it with NewAMQPPublisher.
type AMQPPublisher struct {
	url string
}

func NewAMQPPublisher() *AMQPPublisher {
	return &AMQPPublisher{url: q.BrokerURL()}
}

// PublishCatalogChanged publishes an event to the catalog.changed queue.
// It never panics; any error is logged and returned so the caller can
// choose to ignore it. Messages are marked persistent so they survive
// broker restarts.
func (p *AMQPPublisher) PublishCatalogChanged(ctx context.Context, event q.CatalogChangedEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(q.CatalogQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", q.CatalogQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
