package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/events"
	"github.com/icondo/parcel-service/internal/pickup"
	"github.com/icondo/parcel-service/internal/repository/memory"
	"github.com/icondo/parcel-service/internal/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(_ context.Context, obj storage.Object) (storage.Stored, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return storage.Stored{}, f.putErr
	}
	f.objects[obj.Key] = obj.Data
	return storage.Stored{Key: obj.Key, URL: "/uploads/" + obj.Key}, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) Ping(context.Context) error { return nil }

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type countingMetrics struct {
	mu        sync.Mutex
	received  int
	collected int
}

func (m *countingMetrics) ParcelReceived() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received++
}

func (m *countingMetrics) ParcelCollected() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collected++
}

type harness struct {
	store   *memory.Store
	blobs   *fakeBlobStore
	metrics *countingMetrics
	svc     *ParcelService

	mu     sync.Mutex
	events []events.Event

	staff *domain.User
	r101  *domain.User
	r102  *domain.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		store:   memory.NewStore(),
		blobs:   newFakeBlobStore(),
		metrics: &countingMetrics{},
	}
	ctx := context.Background()
	h.staff = &domain.User{Username: "staff01", Role: domain.RoleStaff, PhoneNumber: "0800000000"}
	h.r101 = &domain.User{Username: "resident101", Role: domain.RoleResident, RoomNumber: strPtr("101"), PhoneNumber: "0811111111"}
	h.r102 = &domain.User{Username: "resident102", Role: domain.RoleResident, RoomNumber: strPtr("102"), PhoneNumber: "0822222222"}
	for _, u := range []*domain.User{h.staff, h.r101, h.r102} {
		require.NoError(t, h.store.Users().Create(ctx, u))
	}

	dispatcher := events.NewInMemoryDispatcher()
	record := func(_ context.Context, e events.Event) error {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, e)
		return nil
	}
	dispatcher.Subscribe(events.EventParcelReceived, record)
	dispatcher.Subscribe(events.EventParcelCollected, record)

	h.svc = NewParcelService(ParcelDependencies{
		Parcels:    h.store.Parcels(),
		Users:      h.store.Users(),
		Photos:     NewPhotoService(h.blobs, 1024, nil),
		Codec:      pickup.NewCodec(64),
		Dispatcher: dispatcher,
		Metrics:    h.metrics,
	})
	return h
}

func (h *harness) recorded() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.events...)
}

func (h *harness) staffPrincipal() *domain.Principal {
	return &domain.Principal{UserID: h.staff.ID, Username: h.staff.Username, Role: domain.RoleStaff}
}

func (h *harness) residentPrincipal(u *domain.User) *domain.Principal {
	return &domain.Principal{UserID: u.ID, Username: u.Username, Role: domain.RoleResident, RoomNumber: u.RoomNumber}
}

func (h *harness) intake(t *testing.T, tracking, room string) *domain.ParcelView {
	t.Helper()
	view, err := h.svc.Intake(context.Background(), h.staff.ID, IntakeInput{
		TrackingNumber: tracking,
		RoomNumber:     strPtr(room),
		CarrierName:    "Kerry Express",
	})
	require.NoError(t, err)
	return view
}

var errBucketDown = errors.New("bucket unavailable")
