// Package seed loads the demo accounts and parcels used for local
// development and walkthroughs. Running it twice is harmless.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
	"github.com/icondo/parcel-service/internal/service"
	apperrors "github.com/icondo/parcel-service/pkg/util/errorutil"
)

// Services are the entry points the seed goes through, so demo data obeys the
// same rules as real traffic.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Parcels  *service.ParcelService
	UserRepo repository.UserRepository
}

type demoResident struct {
	username, password, room, phone string
}

type demoParcel struct {
	tracking, room, carrier string
	collected               bool
}

var (
	demoResidents = []demoResident{
		{"resident101", "resident123", "101", "081-111-1111"},
		{"resident102", "resident123", "102", "081-222-2222"},
	}
	demoParcels = []demoParcel{
		{tracking: "TH123456789", room: "101", carrier: "Kerry Express"},
		{tracking: "TH987654321", room: "102", carrier: "Flash"},
		{tracking: "TH555555555", room: "101", carrier: "ThaiPost", collected: true},
	}
)

// Demo creates staff01/staff123, two residents and three parcels, skipping
// anything that already exists.
func Demo(ctx context.Context, svc Services, logger *zap.Logger) error {
	staff, err := svc.Auth.ProvisionStaff(ctx, "staff01", "staff123", "081-234-5678")
	if apperrors.IsCode(err, apperrors.CodeDuplicateUsername) {
		staff, err = svc.UserRepo.GetByUsernameAndRole(ctx, "staff01", domain.RoleStaff)
	}
	if err != nil {
		return fmt.Errorf("seed staff: %w", err)
	}

	for _, r := range demoResidents {
		_, err := svc.Users.RegisterResident(ctx, service.RegisterResidentInput{
			Username:    r.username,
			Password:    r.password,
			RoomNumber:  r.room,
			PhoneNumber: r.phone,
		})
		if err != nil && !apperrors.IsCode(err, apperrors.CodeDuplicateUsername) && !apperrors.IsCode(err, apperrors.CodeRoomOccupied) {
			return fmt.Errorf("seed resident %s: %w", r.username, err)
		}
	}

	for _, p := range demoParcels {
		room := p.room
		view, err := svc.Parcels.Intake(ctx, staff.ID, service.IntakeInput{
			TrackingNumber: p.tracking,
			RoomNumber:     &room,
			CarrierName:    p.carrier,
		})
		if apperrors.IsCode(err, apperrors.CodeDuplicateTrackingNumber) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seed parcel %s: %w", p.tracking, err)
		}
		if p.collected {
			if _, err := svc.Parcels.Collect(ctx, view.ID, staff.ID, service.CollectInput{}); err != nil {
				return fmt.Errorf("seed collection %s: %w", p.tracking, err)
			}
		}
	}

	logger.Info("demo data ready",
		zap.String("staff", "staff01"),
		zap.Strings("residents", []string{"resident101", "resident102"}))
	return nil
}
