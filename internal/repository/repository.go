package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conflicts raised by unique constraints and conditional updates.
var (
	ErrDuplicateUsername       = errors.New("username already exists")
	ErrRoomOccupied            = errors.New("room already assigned to another resident")
	ErrDuplicateTrackingNumber = errors.New("tracking number already exists")
	ErrNotPending              = errors.New("parcel not found or already collected")
)

// Constraint names declared by the migrations.
const (
	constraintUsernameUnique       = "users_username_key"
	constraintResidentRoomUnique   = "users_resident_room_key"
	constraintTrackingNumberUnique = "parcels_tracking_number_key"
)

const uniqueViolation = "23505"

// DBTX is the subset of pgxpool.Pool used by the repositories.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// translateUniqueViolation maps known unique constraint violations to
// repository sentinels and passes everything else through untouched.
func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintUsernameUnique:
		return ErrDuplicateUsername
	case constraintResidentRoomUnique:
		return ErrRoomOccupied
	case constraintTrackingNumberUnique:
		return ErrDuplicateTrackingNumber
	default:
		return err
	}
}
