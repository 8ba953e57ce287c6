package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	SubjectListingCreated       = "barter.listing.created"
	SubjectListingUpdated       = "barter.listing.updated"
	SubjectListingStatusChanged = "barter.listing.status_changed"
	SubjectListingDeleted       = "barter.listing.deleted"
	SubjectMessageSent          = "barter.message.sent"
)

type ListingEvent struct {
	ListingID  uint64    `json:"listingId"`
	OwnerID    uint64    `json:"ownerId"`
	Status     string    `json:"status,omitempty"`
	PrevStatus string    `json:"prevStatus,omitempty"`
	At         time.Time `json:"at"`
}

type MessageEvent struct {
	MessageID  uint64    `json:"messageId"`
	FromUserID uint64    `json:"fromUserId"`
	ToUserID   uint64    `json:"toUserId"`
	ListingID  *uint64   `json:"listingId,omitempty"`
	At         time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close()
}

type NATSPublisher struct {
	conn *nats.Conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("barter-backend"))
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{conn: conn}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return p.conn.Publish(subject, payload)
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}

// NopPublisher drops events; used when NATS_URL is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (NopPublisher) Close() {}
