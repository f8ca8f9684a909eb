package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/icondo/parcel-service/internal/domain"
)

// ParcelFilter captures history search parameters. All set fields must match.
type ParcelFilter struct {
	RoomNumber  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Status      *domain.ParcelStatus
}

// Page bounds a listing.
type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// ParcelRepository encapsulates parcel persistence.
type ParcelRepository interface {
	Create(ctx context.Context, parcel *domain.Parcel) error
	GetByID(ctx context.Context, id int64) (*domain.ParcelView, error)
	ListByResident(ctx context.Context, residentID int64) ([]domain.ParcelView, error)
	Search(ctx context.Context, filter ParcelFilter, page Page) ([]domain.ParcelView, int64, error)
	MarkCollected(ctx context.Context, id, staffID int64, photoOutPath *string) (*domain.Parcel, error)
}

type parcelRepository struct {
	db DBTX
}

// NewParcelRepository instantiates repository.
func NewParcelRepository(db DBTX) ParcelRepository {
	return &parcelRepository{db: db}
}

const parcelViewSelect = `
        SELECT p.id, p.tracking_number, p.resident_id, p.carrier_name, p.photo_in_path, p.status,
               p.created_at, p.collected_at, p.photo_out_path, p.staff_in_id, p.staff_out_id,
               u.username, u.room_number, u.phone_number, u_in.username, u_out.username
        FROM parcels p
        JOIN users u ON p.resident_id = u.id
        LEFT JOIN users u_in ON p.staff_in_id = u_in.id
        LEFT JOIN users u_out ON p.staff_out_id = u_out.id`

const parcelColumns = `id, tracking_number, resident_id, carrier_name, photo_in_path, status,
               created_at, collected_at, photo_out_path, staff_in_id, staff_out_id`

// Create inserts a pending parcel. Tracking number uniqueness is enforced by
// the parcels_tracking_number_key constraint.
func (r *parcelRepository) Create(ctx context.Context, parcel *domain.Parcel) error {
	const query = `
        INSERT INTO parcels (tracking_number, resident_id, carrier_name, photo_in_path, status, staff_in_id)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		parcel.TrackingNumber,
		parcel.ResidentID,
		parcel.CarrierName,
		parcel.PhotoInPath,
		parcel.Status,
		parcel.StaffInID,
	).Scan(&parcel.ID, &parcel.CreatedAt)
	return translateUniqueViolation(err)
}

func (r *parcelRepository) GetByID(ctx context.Context, id int64) (*domain.ParcelView, error) {
	query := parcelViewSelect + ` WHERE p.id=$1`
	view, err := scanParcelView(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (r *parcelRepository) ListByResident(ctx context.Context, residentID int64) ([]domain.ParcelView, error) {
	query := parcelViewSelect + ` WHERE p.resident_id=$1 ORDER BY p.created_at DESC, p.id DESC`
	rows, err := r.db.Query(ctx, query, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanParcelViews(rows)
}

// Search returns one page of matching parcels, newest first, together with
// the size of the whole filtered set.
func (r *parcelRepository) Search(ctx context.Context, filter ParcelFilter, page Page) ([]domain.ParcelView, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RoomNumber != nil {
		args = append(args, *filter.RoomNumber)
		clauses = append(clauses, fmt.Sprintf("u.room_number=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("p.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("p.created_at <= $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("p.status=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM parcels p JOIN users u ON p.resident_id = u.id WHERE ` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page = page.Normalize()
	query := fmt.Sprintf(`%s WHERE %s ORDER BY p.created_at DESC, p.id DESC LIMIT %d OFFSET %d`,
		parcelViewSelect, where, page.Limit, page.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	views, err := scanParcelViews(rows)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// MarkCollected performs the pending -> collected transition as a single
// conditional update. ErrNotPending covers both a missing parcel and one that
// was already collected.
func (r *parcelRepository) MarkCollected(ctx context.Context, id, staffID int64, photoOutPath *string) (*domain.Parcel, error) {
	const query = `
        UPDATE parcels
        SET status='collected', collected_at=NOW(), staff_out_id=$2, photo_out_path=$3
        WHERE id=$1 AND status='pending'
        RETURNING ` + parcelColumns

	var parcel domain.Parcel
	err := r.db.QueryRow(ctx, query, id, staffID, photoOutPath).Scan(
		&parcel.ID,
		&parcel.TrackingNumber,
		&parcel.ResidentID,
		&parcel.CarrierName,
		&parcel.PhotoInPath,
		&parcel.Status,
		&parcel.CreatedAt,
		&parcel.CollectedAt,
		&parcel.PhotoOutPath,
		&parcel.StaffInID,
		&parcel.StaffOutID,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotPending
	}
	if err != nil {
		return nil, err
	}
	return &parcel, nil
}

func scanParcelView(row pgx.Row) (*domain.ParcelView, error) {
	var view domain.ParcelView
	if err := row.Scan(
		&view.ID,
		&view.TrackingNumber,
		&view.ResidentID,
		&view.CarrierName,
		&view.PhotoInPath,
		&view.Status,
		&view.CreatedAt,
		&view.CollectedAt,
		&view.PhotoOutPath,
		&view.StaffInID,
		&view.StaffOutID,
		&view.ResidentName,
		&view.RoomNumber,
		&view.PhoneNumber,
		&view.StaffInName,
		&view.StaffOutName,
	); err != nil {
		return nil, err
	}
	return &view, nil
}

func scanParcelViews(rows pgx.Rows) ([]domain.ParcelView, error) {
	var result []domain.ParcelView
	for rows.Next() {
		view, err := scanParcelView(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, rows.Err()
}
