package dto

import (
	"time"

	"github.com/icondo/parcel-service/internal/domain"
)

// CreateParcelRequest payload. Either resident_id or room_number must be set;
// photo_in carries an inline data URL as an alternative to photo_in_path.
type CreateParcelRequest struct {
	TrackingNumber string  `json:"tracking_number"`
	ResidentID     *int64  `json:"resident_id"`
	RoomNumber     *string `json:"room_number"`
	CarrierName    string  `json:"carrier_name"`
	PhotoInPath    *string `json:"photo_in_path"`
	PhotoIn        *string `json:"photo_in"`
}

// CollectParcelRequest payload. Every field is optional.
type CollectParcelRequest struct {
	PhotoOutPath *string `json:"photo_out_path"`
	PhotoOut     *string `json:"photo_out"`
}

// ScanRequest carries the raw text read from a pickup QR code.
type ScanRequest struct {
	Code string `json:"code"`
}

// ParcelResponse is a parcel with the names of the people involved.
type ParcelResponse struct {
	ID             int64               `json:"id"`
	TrackingNumber string              `json:"tracking_number"`
	CarrierName    string              `json:"carrier_name"`
	Status         domain.ParcelStatus `json:"status"`
	ResidentID     int64               `json:"resident_id"`
	ResidentName   string              `json:"resident_name"`
	RoomNumber     *string             `json:"room_number"`
	PhoneNumber    string              `json:"phone_number"`
	PhotoInPath    *string             `json:"photo_in_path"`
	PhotoOutPath   *string             `json:"photo_out_path"`
	CreatedAt      time.Time           `json:"created_at"`
	CollectedAt    *time.Time          `json:"collected_at"`
	StaffInID      *int64              `json:"staff_in_id"`
	StaffInName    *string             `json:"staff_in_name"`
	StaffOutID     *int64              `json:"staff_out_id"`
	StaffOutName   *string             `json:"staff_out_name"`
}

// NewParcelResponse maps a joined parcel view.
func NewParcelResponse(view *domain.ParcelView) ParcelResponse {
	return ParcelResponse{
		ID:             view.ID,
		TrackingNumber: view.TrackingNumber,
		CarrierName:    view.CarrierName,
		Status:         view.Status,
		ResidentID:     view.ResidentID,
		ResidentName:   view.ResidentName,
		RoomNumber:     view.RoomNumber,
		PhoneNumber:    view.PhoneNumber,
		PhotoInPath:    view.PhotoInPath,
		PhotoOutPath:   view.PhotoOutPath,
		CreatedAt:      view.CreatedAt,
		CollectedAt:    view.CollectedAt,
		StaffInID:      view.StaffInID,
		StaffInName:    view.StaffInName,
		StaffOutID:     view.StaffOutID,
		StaffOutName:   view.StaffOutName,
	}
}

// NewParcelResponses maps a list, never returning nil.
func NewParcelResponses(views []domain.ParcelView) []ParcelResponse {
	out := make([]ParcelResponse, 0, len(views))
	for i := range views {
		out = append(out, NewParcelResponse(&views[i]))
	}
	return out
}

// HistoryResponse is one page of history.
type HistoryResponse struct {
	Items      []ParcelResponse `json:"items"`
	Total      int64            `json:"total"`
	Pagination Pagination       `json:"pagination"`
}

// Pagination echoes the applied page bounds.
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// PickupCodeResponse mirrors the QR payload returned to residents.
type PickupCodeResponse struct {
	ParcelID int64  `json:"parcel_id"`
	QRCode   string `json:"qr_code"`
	Payload  string `json:"payload"`
}

// Base64PhotoRequest uploads a camera capture encoded as a data URL.
type Base64PhotoRequest struct {
	ImageData string `json:"image_data"`
	ParcelID  *int64 `json:"parcel_id"`
	PhotoType string `json:"photo_type"`
}

// PhotoResponse identifies a stored photo.
type PhotoResponse struct {
	PhotoPath string `json:"photo_path"`
	Key       string `json:"key"`
}
