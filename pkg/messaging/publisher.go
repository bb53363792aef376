// Package messaging defines product change events and the publishers that deliver them.
package messaging

import (
	"context"
)

const (
	ProductsCreatedSubject = "products.created"
	ProductsUpdatedSubject = "products.updated"
	ProductsDeletedSubject = "products.deleted"

	// ProductsSubjects matches every product subject, used when declaring the stream.
	ProductsSubjects = "products.>"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublishObserver is notified about the result of every publish attempt.
type PublishObserver interface {
	ObservePublish(subject string, err error)
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error {
	return nil
}

// ObservedPublisher reports every publish result of the wrapped publisher to an observer.
type ObservedPublisher struct {
	next     Publisher
	observer PublishObserver
}

func NewObservedPublisher(next Publisher, observer PublishObserver) *ObservedPublisher {
	return &ObservedPublisher{next: next, observer: observer}
}

func (p *ObservedPublisher) Publish(ctx context.Context, event Event) error {
	err := p.next.Publish(ctx, event)
	p.observer.ObservePublish(event.Subject(), err)
	return err
}
