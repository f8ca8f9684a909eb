package events

import (
	"time"

	"github.com/icondo/parcel-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventParcelReceived  EventType = "parcel_received"
	EventParcelCollected EventType = "parcel_collected"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID int64       `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ParcelID  int64       `json:"parcel_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ParcelReceivedPayload payload.
type ParcelReceivedPayload struct {
	TrackingNumber string  `json:"tracking_number"`
	CarrierName    string  `json:"carrier_name"`
	ResidentID     int64   `json:"resident_id"`
	RoomNumber     *string `json:"room_number,omitempty"`
	PhoneNumber    string  `json:"phone_number,omitempty"`
}

// ParcelCollectedPayload payload.
type ParcelCollectedPayload struct {
	TrackingNumber string    `json:"tracking_number"`
	ResidentID     int64     `json:"resident_id"`
	RoomNumber     *string   `json:"room_number,omitempty"`
	CollectedAt    time.Time `json:"collected_at"`
	HasEvidence    bool      `json:"has_evidence"`
}
