package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/icondo/parcel-service/internal/api/dto"
	"github.com/icondo/parcel-service/internal/service"
	"github.com/icondo/parcel-service/internal/storage"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// UploadsHandler stores standalone photos whose path is later attached to an
// intake or collection.
type UploadsHandler struct {
	photos *service.PhotoService
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(photos *service.PhotoService) *UploadsHandler {
	return &UploadsHandler{photos: photos}
}

// Multipart handles POST /api/uploads/photos.
func (h *UploadsHandler) Multipart(c *fiber.Ctx) error {
	upload, err := multipartPhoto(c, h.photos.MaxBytes())
	if err != nil {
		return err
	}
	if upload == nil {
		return apperrors.NewValidationError("photo file required", nil)
	}
	purpose, err := parsePurpose(c.FormValue("photo_type"))
	if err != nil {
		return err
	}
	ref, err := parcelRef(c.FormValue("parcel_id"))
	if err != nil {
		return err
	}
	return h.store(c, ref, purpose, *upload)
}

// Base64 handles POST /api/uploads/photos/base64.
func (h *UploadsHandler) Base64(c *fiber.Ctx) error {
	var req dto.Base64PhotoRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if !strings.HasPrefix(strings.TrimSpace(req.ImageData), "data:image/") {
		return apperrors.NewValidationError("image_data must be an image data url", nil)
	}
	purpose, err := parsePurpose(req.PhotoType)
	if err != nil {
		return err
	}
	ref := ""
	if req.ParcelID != nil {
		if *req.ParcelID <= 0 {
			return apperrors.NewValidationError("invalid parcel_id", nil)
		}
		ref = strconv.FormatInt(*req.ParcelID, 10)
	}
	upload, err := service.DecodeDataURL(req.ImageData)
	if err != nil {
		return err
	}
	return h.store(c, ref, purpose, upload)
}

func (h *UploadsHandler) store(c *fiber.Ctx, ref string, purpose storage.Purpose, upload service.PhotoUpload) error {
	stored, err := h.photos.Store(c.UserContext(), ref, purpose, upload)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.PhotoResponse{
		PhotoPath: stored.URL,
		Key:       stored.Key,
	}})
}

// parsePurpose maps the photo_type field; the mobile client sent "parcel" and
// "evidence" for the same two slots.
func parsePurpose(raw string) (storage.Purpose, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "in", "parcel":
		return storage.PurposeIntake, nil
	case "out", "evidence":
		return storage.PurposeCollection, nil
	default:
		return "", apperrors.NewValidationError("photo_type must be in or out", map[string]any{"photo_type": raw})
	}
}

func parcelRef(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", apperrors.NewValidationError("invalid parcel_id", map[string]any{"parcel_id": raw})
	}
	return strconv.FormatInt(id, 10), nil
}
