// Package notify delivers "parcel arrived / collected" signals to residents'
// channels. Delivery is best effort: callers never retry and never block a
// request on it.
package notify

import (
	"context"
	"time"
)

// Kind mirrors the lifecycle event that triggered a message.
type Kind string

const (
	KindParcelReceived  Kind = "parcel_received"
	KindParcelCollected Kind = "parcel_collected"
)

// Message is the sink-neutral notification.
type Message struct {
	Kind           Kind      `json:"kind"`
	ParcelID       int64     `json:"parcel_id"`
	TrackingNumber string    `json:"tracking_number"`
	RoomNumber     string    `json:"room_number"`
	Text           string    `json:"text"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier delivers a message to one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, msg Message) error
}
