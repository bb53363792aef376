// Package events holds the product change events published on the broker.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/abgdnv/productapi/pkg/messaging"
	"github.com/abgdnv/productapi/pkg/telemetry"
)

// ProductEvent describes a change of a single product.
// Product is omitted for deletions. Carrier holds the W3C trace context of the originating request.
type ProductEvent struct {
	subject    string
	ProductID  string            `json:"product_id"`
	Product    any               `json:"product,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Carrier    map[string]string `json:"carrier,omitempty"`
}

func ProductCreated(ctx context.Context, productID string, product any) ProductEvent {
	return newProductEvent(ctx, messaging.ProductsCreatedSubject, productID, product)
}

func ProductUpdated(ctx context.Context, productID string, product any) ProductEvent {
	return newProductEvent(ctx, messaging.ProductsUpdatedSubject, productID, product)
}

func ProductDeleted(ctx context.Context, productID string) ProductEvent {
	return newProductEvent(ctx, messaging.ProductsDeletedSubject, productID, nil)
}

func newProductEvent(ctx context.Context, subject, productID string, product any) ProductEvent {
	return ProductEvent{
		subject:    subject,
		ProductID:  productID,
		Product:    product,
		OccurredAt: time.Now().UTC(),
		Carrier:    telemetry.InjectCarrier(ctx),
	}
}

func (e ProductEvent) Subject() string {
	return e.subject
}

func (e ProductEvent) Payload() ([]byte, error) {
	return json.Marshal(e)
}
