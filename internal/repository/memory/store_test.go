package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
)

func room(r string) *string { return &r }

func seedResident(t *testing.T, s *Store, username, roomNumber string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Role: domain.RoleResident, RoomNumber: room(roomNumber), PhoneNumber: "000"}
	require.NoError(t, s.Users().Create(context.Background(), user))
	return user
}

func TestUserConstraints(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	seedResident(t, s, "resident101", "101")

	err := s.Users().Create(ctx, &domain.User{Username: "resident101", Role: domain.RoleResident, RoomNumber: room("999")})
	assert.ErrorIs(t, err, repository.ErrDuplicateUsername)

	err = s.Users().Create(ctx, &domain.User{Username: "other", Role: domain.RoleResident, RoomNumber: room("101")})
	assert.ErrorIs(t, err, repository.ErrRoomOccupied)

	_, err = s.Users().GetResidentByRoom(ctx, "102")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestListResidentsOrderedByRoom(t *testing.T) {
	s := NewStore()
	seedResident(t, s, "b", "305")
	seedResident(t, s, "a", "101")
	seedResident(t, s, "c", "202")
	require.NoError(t, s.Users().Create(context.Background(), &domain.User{Username: "staff01", Role: domain.RoleStaff}))

	residents, err := s.Users().ListByRole(context.Background(), domain.RoleResident)
	require.NoError(t, err)
	require.Len(t, residents, 3)
	assert.Equal(t, []string{"101", "202", "305"}, []string{*residents[0].RoomNumber, *residents[1].RoomNumber, *residents[2].RoomNumber})
}

func TestMarkCollectedIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	resident := seedResident(t, s, "resident101", "101")
	parcel := &domain.Parcel{TrackingNumber: "TH1", ResidentID: resident.ID, CarrierName: "Kerry", Status: domain.ParcelStatusPending}
	require.NoError(t, s.Parcels().Create(ctx, parcel))

	const callers = 16
	var wg sync.WaitGroup
	var successes, conflicts int32
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(staffID int64) {
			defer wg.Done()
			_, err := s.Parcels().MarkCollected(ctx, parcel.ID, staffID, nil)
			switch err {
			case nil:
				atomic.AddInt32(&successes, 1)
			case repository.ErrNotPending:
				atomic.AddInt32(&conflicts, 1)
			}
		}(int64(i + 1))
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
	assert.Equal(t, int32(callers-1), conflicts)
}

func TestSearchFiltersAndPaginates(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	r101 := seedResident(t, s, "resident101", "101")
	r102 := seedResident(t, s, "resident102", "102")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	day := 0
	s.SetClock(func() time.Time { return base.AddDate(0, 0, day) })
	for i, owner := range []int64{r101.ID, r102.ID, r101.ID, r101.ID} {
		day = i
		require.NoError(t, s.Parcels().Create(ctx, &domain.Parcel{
			TrackingNumber: "TH" + string(rune('A'+i)),
			ResidentID:     owner,
			Status:         domain.ParcelStatusPending,
		}))
	}

	all, total, err := s.Parcels().Search(ctx, repository.ParcelFilter{}, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, all, 4)
	assert.Equal(t, "THD", all[0].TrackingNumber)

	page, total, err := s.Parcels().Search(ctx, repository.ParcelFilter{RoomNumber: room("101")}, repository.Page{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "THC", page[0].TrackingNumber)
	assert.Equal(t, "THA", page[1].TrackingNumber)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 2)
	ranged, total, err := s.Parcels().Search(ctx, repository.ParcelFilter{CreatedFrom: &from, CreatedTo: &to}, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, ranged, 2)

	_, total, err = s.Parcels().Search(ctx, repository.ParcelFilter{}, repository.Page{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}
