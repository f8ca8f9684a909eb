package domain

import "time"

// ParcelStatus enumerates lifecycle states for parcels.
type ParcelStatus string

const (
	ParcelStatusPending   ParcelStatus = "pending"
	ParcelStatusCollected ParcelStatus = "collected"
)

// Valid reports whether s is a known status.
func (s ParcelStatus) Valid() bool {
	return s == ParcelStatusPending || s == ParcelStatusCollected
}

// Parcel is a package held at the front desk for a resident.
//
// CollectedAt, StaffOutID and PhotoOutPath are only set once Status is
// ParcelStatusCollected.
type Parcel struct {
	ID             int64
	TrackingNumber string
	ResidentID     int64
	CarrierName    string
	PhotoInPath    *string
	Status         ParcelStatus
	CreatedAt      time.Time
	CollectedAt    *time.Time
	PhotoOutPath   *string
	StaffInID      *int64
	StaffOutID     *int64
}

// IsPending reports whether the parcel still waits for pickup.
func (p *Parcel) IsPending() bool {
	return p != nil && p.Status == ParcelStatusPending
}

// ParcelView is a parcel joined with the display names of the people involved.
type ParcelView struct {
	Parcel
	ResidentName string
	RoomNumber   *string
	PhoneNumber  string
	StaffInName  *string
	StaffOutName *string
}
