package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/icondo/parcel-service/internal/api/dto"
	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
	"github.com/icondo/parcel-service/internal/service"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ParcelsHandler exposes the parcel lifecycle.
type ParcelsHandler struct {
	parcels       *service.ParcelService
	maxPhotoBytes int64
	now           func() time.Time
}

// NewParcelsHandler constructs handler.
func NewParcelsHandler(parcels *service.ParcelService, maxPhotoBytes int64) *ParcelsHandler {
	return &ParcelsHandler{parcels: parcels, maxPhotoBytes: maxPhotoBytes, now: time.Now}
}

// Create handles POST /api/parcels.
func (h *ParcelsHandler) Create(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateParcelRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}

	input := service.IntakeInput{
		TrackingNumber: req.TrackingNumber,
		ResidentID:     req.ResidentID,
		RoomNumber:     req.RoomNumber,
		CarrierName:    req.CarrierName,
		PhotoInPath:    req.PhotoInPath,
	}
	if req.PhotoIn != nil && strings.TrimSpace(*req.PhotoIn) != "" {
		upload, err := service.DecodeDataURL(*req.PhotoIn)
		if err != nil {
			return err
		}
		input.Photo = &upload
	}

	view, err := h.parcels.Intake(c.UserContext(), p.UserID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewParcelResponse(view)})
}

// Get handles GET /api/parcels/:id.
func (h *ParcelsHandler) Get(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	view, err := h.parcels.Get(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParcelResponse(view)})
}

// ListForResident handles GET /api/parcels/resident/:id.
func (h *ParcelsHandler) ListForResident(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	views, err := h.parcels.ListForResident(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParcelResponses(views)})
}

// Collect handles PUT /api/parcels/:id/collect. The body is either JSON or a
// multipart form with an optional "photo" file.
func (h *ParcelsHandler) Collect(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}

	var input service.CollectInput
	if isMultipart(c) {
		upload, err := multipartPhoto(c, h.maxPhotoBytes)
		if err != nil {
			return err
		}
		input.Photo = upload
		if path := strings.TrimSpace(c.FormValue("photo_out_path")); path != "" {
			input.PhotoOutPath = &path
		}
	} else {
		var req dto.CollectParcelRequest
		if err := decodeOptionalJSON(c, &req); err != nil {
			return err
		}
		input.PhotoOutPath = req.PhotoOutPath
		if req.PhotoOut != nil && strings.TrimSpace(*req.PhotoOut) != "" {
			upload, err := service.DecodeDataURL(*req.PhotoOut)
			if err != nil {
				return err
			}
			input.Photo = &upload
		}
	}

	view, err := h.parcels.Collect(c.UserContext(), id, p.UserID, input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParcelResponse(view)})
}

// PickupCode handles GET /api/parcels/:id/qrcode. ?format=png returns the raw image.
func (h *ParcelsHandler) PickupCode(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	code, err := h.parcels.PickupCode(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	if strings.EqualFold(c.Query("format"), "png") {
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Type("png")
		return c.Send(code.PNG)
	}
	return c.JSON(fiber.Map{"data": dto.PickupCodeResponse{
		ParcelID: code.ParcelID,
		QRCode:   code.DataURL(),
		Payload:  code.Payload,
	}})
}

// Scan handles POST /api/parcels/scan.
func (h *ParcelsHandler) Scan(c *fiber.Ctx) error {
	var req dto.ScanRequest
	if err := decodeJSON(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Code) == "" {
		return apperrors.NewValidationError("code required", nil)
	}
	view, err := h.parcels.ScanPickupCode(c.UserContext(), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewParcelResponse(view)})
}

// History handles GET /api/parcels/history.
func (h *ParcelsHandler) History(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}
	result, err := h.parcels.SearchHistory(c.UserContext(), filter, page)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.HistoryResponse{
		Items:      dto.NewParcelResponses(result.Items),
		Total:      result.Total,
		Pagination: dto.Pagination{Limit: result.Limit, Offset: result.Offset},
	}})
}

// ExportHistory handles GET /api/parcels/history/export.
func (h *ParcelsHandler) ExportHistory(c *fiber.Ctx) error {
	filter, err := parseHistoryFilter(c)
	if err != nil {
		return err
	}
	data, err := h.parcels.ExportHistory(c.UserContext(), filter)
	if err != nil {
		return err
	}
	filename := fmt.Sprintf("parcel-history-%s.xlsx", h.now().UTC().Format("20060102-150405"))
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, xlsxMIME)
	return c.Send(data)
}

func parseHistoryFilter(c *fiber.Ctx) (repository.ParcelFilter, error) {
	var filter repository.ParcelFilter
	if room := strings.TrimSpace(c.Query("room_number")); room != "" {
		filter.RoomNumber = &room
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		s := domain.ParcelStatus(strings.ToLower(status))
		filter.Status = &s
	}
	var err error
	if filter.CreatedFrom, err = parseDateParam(c, "start_date", false); err != nil {
		return filter, err
	}
	if filter.CreatedTo, err = parseDateParam(c, "end_date", true); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDateParam accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDateParam(c *fiber.Ctx, name string, endOfDay bool) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parsePage(c *fiber.Ctx) (repository.Page, error) {
	var page repository.Page
	for name, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := strings.TrimSpace(c.Query(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return page, apperrors.NewValidationError("invalid "+name, map[string]any{name: raw})
		}
		*dst = v
	}
	return page, nil
}
