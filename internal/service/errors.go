package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func mapUserConflict(err error, user *domain.User) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperrors.NewConflict(apperrors.CodeDuplicateUsername, "username already exists",
			map[string]any{"username": user.Username})
	case errors.Is(err, repository.ErrRoomOccupied):
		details := map[string]any{}
		if user.RoomNumber != nil {
			details["room_number"] = *user.RoomNumber
		}
		return apperrors.NewConflict(apperrors.CodeRoomOccupied, "room already has a registered resident", details)
	default:
		return err
	}
}
