package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/events"
	"github.com/icondo/parcel-service/internal/pickup"
	"github.com/icondo/parcel-service/internal/repository"
	"github.com/icondo/parcel-service/internal/storage"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// LifecycleMetrics counts parcel transitions.
type LifecycleMetrics interface {
	ParcelReceived()
	ParcelCollected()
}

type noopLifecycleMetrics struct{}

func (noopLifecycleMetrics) ParcelReceived()  {}
func (noopLifecycleMetrics) ParcelCollected() {}

// ParcelDependencies wires the parcel service.
type ParcelDependencies struct {
	Parcels    repository.ParcelRepository
	Users      repository.UserRepository
	Photos     *PhotoService
	Codec      *pickup.Codec
	Dispatcher events.Dispatcher
	Metrics    LifecycleMetrics
	Logger     *zap.Logger
}

// ParcelService owns every parcel state transition.
type ParcelService struct {
	parcels    repository.ParcelRepository
	users      repository.UserRepository
	photos     *PhotoService
	codec      *pickup.Codec
	dispatcher events.Dispatcher
	metrics    LifecycleMetrics
	logger     *zap.Logger
	now        func() time.Time
}

// NewParcelService constructs the service.
func NewParcelService(deps ParcelDependencies) *ParcelService {
	svc := &ParcelService{
		parcels:    deps.Parcels,
		users:      deps.Users,
		photos:     deps.Photos,
		codec:      deps.Codec,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        time.Now,
	}
	if svc.metrics == nil {
		svc.metrics = noopLifecycleMetrics{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.codec == nil {
		svc.codec = pickup.NewCodec(0)
	}
	return svc
}

// IntakeInput describes a parcel arriving at the front desk. ResidentID wins
// over RoomNumber; when both are given they must agree.
type IntakeInput struct {
	TrackingNumber string
	ResidentID     *int64
	RoomNumber     *string
	CarrierName    string
	PhotoInPath    *string
	Photo          *PhotoUpload
}

// CollectInput carries optional pickup evidence. Photo takes precedence over
// PhotoOutPath.
type CollectInput struct {
	PhotoOutPath *string
	Photo        *PhotoUpload
}

// Intake records a new pending parcel for a resident.
func (s *ParcelService) Intake(ctx context.Context, staffID int64, input IntakeInput) (*domain.ParcelView, error) {
	tracking := strings.TrimSpace(input.TrackingNumber)
	carrier := strings.TrimSpace(input.CarrierName)
	room := trimmedOrNil(input.RoomNumber)

	missing := []string{}
	if tracking == "" {
		missing = append(missing, "tracking_number")
	}
	if carrier == "" {
		missing = append(missing, "carrier_name")
	}
	if input.ResidentID == nil && room == nil {
		missing = append(missing, "resident_id|room_number")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if input.ResidentID != nil && *input.ResidentID <= 0 {
		return nil, apperrors.NewValidationError("resident_id must be positive", nil)
	}

	resident, err := s.resolveResident(ctx, input.ResidentID, room)
	if err != nil {
		return nil, err
	}

	var stored storage.Stored
	photoIn := trimmedOrNil(input.PhotoInPath)
	if input.Photo != nil {
		if s.photos == nil {
			return nil, apperrors.NewStorageFailure("photo storage is not configured", nil)
		}
		stored, err = s.photos.Store(ctx, "", storage.PurposeIntake, *input.Photo)
		if err != nil {
			return nil, err
		}
		photoIn = &stored.URL
	}

	parcel := &domain.Parcel{
		TrackingNumber: tracking,
		ResidentID:     resident.ID,
		CarrierName:    carrier,
		PhotoInPath:    photoIn,
		Status:         domain.ParcelStatusPending,
		StaffInID:      &staffID,
	}
	if err := s.parcels.Create(ctx, parcel); err != nil {
		s.discard(ctx, stored)
		if errors.Is(err, repository.ErrDuplicateTrackingNumber) {
			return nil, apperrors.NewConflict(apperrors.CodeDuplicateTrackingNumber, "tracking number already exists",
				map[string]any{"tracking_number": tracking})
		}
		return nil, err
	}

	s.metrics.ParcelReceived()
	s.publish(ctx, events.Event{
		Type:     events.EventParcelReceived,
		ParcelID: parcel.ID,
		Actor:    events.Actor{UserID: staffID, Role: domain.RoleStaff},
		Payload: events.ParcelReceivedPayload{
			TrackingNumber: parcel.TrackingNumber,
			CarrierName:    parcel.CarrierName,
			ResidentID:     resident.ID,
			RoomNumber:     resident.RoomNumber,
			PhoneNumber:    resident.PhoneNumber,
		},
	})

	return s.reload(ctx, parcel, resident), nil
}

func (s *ParcelService) resolveResident(ctx context.Context, residentID *int64, room *string) (*domain.User, error) {
	id := int64(0)
	if residentID != nil {
		id = *residentID
	}
	if room != nil {
		byRoom, err := s.users.GetResidentByRoom(ctx, *room)
		if err != nil {
			if isNotFound(err) {
				return nil, apperrors.NewResidentNotFound(map[string]any{"room_number": *room})
			}
			return nil, err
		}
		if id != 0 && id != byRoom.ID {
			return nil, apperrors.NewValidationError("resident_id does not match room_number",
				map[string]any{"resident_id": id, "room_number": *room})
		}
		id = byRoom.ID
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewResidentNotFound(map[string]any{"resident_id": id})
		}
		return nil, err
	}
	if !user.IsResident() {
		return nil, apperrors.NewResidentNotFound(map[string]any{"resident_id": id})
	}
	return user, nil
}

// Collect hands a pending parcel over. Evidence is written before the
// transition; exactly one concurrent caller wins the conditional update.
func (s *ParcelService) Collect(ctx context.Context, parcelID, staffID int64, input CollectInput) (*domain.ParcelView, error) {
	if parcelID <= 0 {
		return nil, apperrors.NewValidationError("invalid parcel id", nil)
	}

	var stored storage.Stored
	photoOut := trimmedOrNil(input.PhotoOutPath)
	if input.Photo != nil {
		if s.photos == nil {
			return nil, apperrors.NewStorageFailure("photo storage is not configured", nil)
		}
		var err error
		stored, err = s.photos.Store(ctx, strconv.FormatInt(parcelID, 10), storage.PurposeCollection, *input.Photo)
		if err != nil {
			return nil, err
		}
		photoOut = &stored.URL
	}

	parcel, err := s.parcels.MarkCollected(ctx, parcelID, staffID, photoOut)
	if err != nil {
		s.discard(ctx, stored)
		if errors.Is(err, repository.ErrNotPending) {
			return nil, apperrors.NewConflict(apperrors.CodeNotFoundOrAlreadyCollected,
				"parcel not found or already collected", map[string]any{"parcel_id": parcelID})
		}
		return nil, err
	}

	s.metrics.ParcelCollected()
	view := s.reload(ctx, parcel, nil)

	collectedAt := s.now()
	if parcel.CollectedAt != nil {
		collectedAt = *parcel.CollectedAt
	}
	s.publish(ctx, events.Event{
		Type:     events.EventParcelCollected,
		ParcelID: parcel.ID,
		Actor:    events.Actor{UserID: staffID, Role: domain.RoleStaff},
		Payload: events.ParcelCollectedPayload{
			TrackingNumber: parcel.TrackingNumber,
			ResidentID:     parcel.ResidentID,
			RoomNumber:     view.RoomNumber,
			CollectedAt:    collectedAt,
			HasEvidence:    parcel.PhotoOutPath != nil,
		},
	})
	return view, nil
}

// PickupCode renders the QR code a resident shows at the desk.
func (s *ParcelService) PickupCode(ctx context.Context, principal *domain.Principal, parcelID int64) (pickup.Code, error) {
	view, err := s.getView(ctx, parcelID)
	if err != nil {
		return pickup.Code{}, err
	}
	if !principal.Owns(view.ResidentID) {
		return pickup.Code{}, apperrors.NewForbidden("only the parcel owner may request a pickup code")
	}
	if !view.IsPending() {
		return pickup.Code{}, apperrors.NewConflict(apperrors.CodeParcelNotPending, "parcel already collected",
			map[string]any{"parcel_id": parcelID})
	}
	return s.codec.Encode(view.ID)
}

// ScanPickupCode resolves scanned QR text to the parcel's current state.
func (s *ParcelService) ScanPickupCode(ctx context.Context, scanned string) (*domain.ParcelView, error) {
	payload, err := s.codec.Decode(scanned)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid pickup code", nil)
	}
	return s.getView(ctx, payload.ParcelID)
}

// Get returns a parcel visible to the caller.
func (s *ParcelService) Get(ctx context.Context, principal *domain.Principal, parcelID int64) (*domain.ParcelView, error) {
	view, err := s.getView(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if !principal.IsStaff() && !principal.Owns(view.ResidentID) {
		return nil, apperrors.NewForbidden("parcel belongs to another resident")
	}
	return view, nil
}

// ListForResident lists a resident's parcels, newest first.
func (s *ParcelService) ListForResident(ctx context.Context, principal *domain.Principal, residentID int64) ([]domain.ParcelView, error) {
	switch {
	case principal.IsStaff():
		user, err := s.users.GetByID(ctx, residentID)
		if err != nil {
			if isNotFound(err) {
				return nil, apperrors.NewNotFound("resident", map[string]any{"resident_id": residentID})
			}
			return nil, err
		}
		if !user.IsResident() {
			return nil, apperrors.NewNotFound("resident", map[string]any{"resident_id": residentID})
		}
	case !principal.Owns(residentID):
		return nil, apperrors.NewForbidden("residents may only list their own parcels")
	}

	views, err := s.parcels.ListByResident(ctx, residentID)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []domain.ParcelView{}
	}
	return views, nil
}

// HistoryPage is one page of the parcel history.
type HistoryPage struct {
	Items  []domain.ParcelView
	Total  int64
	Limit  int
	Offset int
}

// SearchHistory filters the parcel history. Bounds on created_at are inclusive.
func (s *ParcelService) SearchHistory(ctx context.Context, filter repository.ParcelFilter, page repository.Page) (*HistoryPage, error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	page = page.Normalize()

	items, total, err := s.parcels.Search(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.ParcelView{}
	}
	return &HistoryPage{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset}, nil
}

func normalizeFilter(filter repository.ParcelFilter) (repository.ParcelFilter, error) {
	filter.RoomNumber = trimmedOrNil(filter.RoomNumber)
	if filter.Status != nil && !filter.Status.Valid() {
		return filter, apperrors.NewValidationError("status must be pending or collected",
			map[string]any{"status": string(*filter.Status)})
	}
	if filter.CreatedFrom != nil && filter.CreatedTo != nil && filter.CreatedFrom.After(*filter.CreatedTo) {
		return filter, apperrors.NewValidationError("start_date must not be after end_date", nil)
	}
	return filter, nil
}

func (s *ParcelService) getView(ctx context.Context, parcelID int64) (*domain.ParcelView, error) {
	if parcelID <= 0 {
		return nil, apperrors.NewValidationError("invalid parcel id", nil)
	}
	view, err := s.parcels.GetByID(ctx, parcelID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("parcel", map[string]any{"parcel_id": parcelID})
		}
		return nil, err
	}
	return view, nil
}

// reload re-reads the joined view after a committed write. The write already
// succeeded, so a failed read degrades to the data at hand.
func (s *ParcelService) reload(ctx context.Context, parcel *domain.Parcel, resident *domain.User) *domain.ParcelView {
	view, err := s.parcels.GetByID(ctx, parcel.ID)
	if err == nil {
		return view
	}
	s.logger.Warn("failed to reload parcel after write", zap.Int64("parcel_id", parcel.ID), zap.Error(err))
	view = &domain.ParcelView{Parcel: *parcel}
	if resident != nil {
		view.ResidentName = resident.Username
		view.RoomNumber = resident.RoomNumber
		view.PhoneNumber = resident.PhoneNumber
	}
	return view
}

func (s *ParcelService) discard(ctx context.Context, stored storage.Stored) {
	if s.photos != nil {
		s.photos.Discard(context.WithoutCancel(ctx), stored)
	}
}

func (s *ParcelService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)),
			zap.Int64("parcel_id", event.ParcelID), zap.Error(err))
	}
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
