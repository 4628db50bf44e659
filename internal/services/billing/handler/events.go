package handler

import (
	"context"
	"time"

	"whisk-system/internal/api"
)

const (
	EventInvoiceCreated = "invoice.created"
	EventInvoiceUpdated = "invoice.updated"
	EventInvoiceDeleted = "invoice.deleted"

	EventChannelPrefix = "whisk:events:"
	EventChannelAll    = EventChannelPrefix + "all"
)

// -- Pub/Sub Related --
type InvoiceEvent struct {
	EventType     string       `json:"event_type"`
	InvoiceID     int64        `json:"invoice_id"`
	InvoiceNumber string       `json:"invoice_number"`
	CustomerID    int64        `json:"customer_id"`
	Total         float64      `json:"total"`
	PaymentStatus string       `json:"payment_status"`
	Timestamp     time.Time    `json:"timestamp"`
	InvoiceData   *api.Invoice `json:"invoice_data,omitempty"`
}

func newInvoiceEvent(eventType string, inv *api.Invoice, at time.Time) InvoiceEvent {
	ev := InvoiceEvent{
		EventType:     eventType,
		InvoiceID:     inv.ID,
		InvoiceNumber: inv.InvoiceNumber,
		CustomerID:    inv.CustomerID,
		Total:         inv.Total,
		PaymentStatus: inv.PaymentStatus,
		Timestamp:     at,
	}
	if eventType != EventInvoiceDeleted {
		ev.InvoiceData = inv
	}
	return ev
}

func (s *BillingHandler) publishInvoiceEvent(ctx context.Context, event InvoiceEvent) error {
	return s.cache.Publish(ctx, event, EventChannelPrefix+event.EventType, EventChannelAll)
}
