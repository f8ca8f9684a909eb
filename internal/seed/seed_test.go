package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/icondo/parcel-service/internal/config"
	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
	"github.com/icondo/parcel-service/internal/repository/memory"
	"github.com/icondo/parcel-service/internal/service"
)

func TestDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "seed", AccessTokenTTLMinutes: 60, BcryptCost: bcrypt.MinCost}}
	parcels := service.NewParcelService(service.ParcelDependencies{Parcels: store.Parcels(), Users: store.Users()})
	svc := Services{
		Auth:     service.NewAuthService(cfg, store.Users()),
		Users:    service.NewUserService(store.Users(), bcrypt.MinCost),
		Parcels:  parcels,
		UserRepo: store.Users(),
	}

	require.NoError(t, Demo(ctx, svc, zap.NewNop()))
	require.NoError(t, Demo(ctx, svc, zap.NewNop()))

	residents, err := store.Users().ListByRole(ctx, domain.RoleResident)
	require.NoError(t, err)
	assert.Len(t, residents, 2)

	page, err := parcels.SearchHistory(ctx, repository.ParcelFilter{}, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	collected := domain.ParcelStatusCollected
	page, err = parcels.SearchHistory(ctx, repository.ParcelFilter{Status: &collected}, repository.Page{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "TH555555555", page.Items[0].TrackingNumber)

	_, _, _, err = svc.Auth.Login(ctx, "resident101", "resident123", domain.RoleResident)
	assert.NoError(t, err)
}
