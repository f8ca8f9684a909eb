// Package memory keeps users and parcels in process memory. It backs the
// service when no Postgres DSN is configured in development and serves as the
// store for unit tests. Constraint and conditional-update semantics mirror
// the Postgres repositories.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/icondo/parcel-service/internal/domain"
	"github.com/icondo/parcel-service/internal/repository"
)

// Store holds both tables behind one lock.
type Store struct {
	mu         sync.Mutex
	users      map[int64]domain.User
	parcels    map[int64]domain.Parcel
	nextUserID int64
	nextParcel int64
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[int64]domain.User),
		parcels: make(map[int64]domain.Parcel),
		now:     time.Now,
	}
}

// SetClock overrides the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users exposes the store as a UserRepository.
func (s *Store) Users() repository.UserRepository {
	return userRepo{s}
}

// Parcels exposes the store as a ParcelRepository.
func (s *Store) Parcels() repository.ParcelRepository {
	return parcelRepo{s}
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
		if user.Role == domain.RoleResident && existing.Role == domain.RoleResident &&
			user.RoomNumber != nil && existing.RoomNumber != nil && *existing.RoomNumber == *user.RoomNumber {
			return repository.ErrRoomOccupied
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.now()
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneUser(user)
	return &out, nil
}

func (r userRepo) GetByUsernameAndRole(_ context.Context, username string, role domain.Role) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username && u.Role == role })
}

func (r userRepo) GetResidentByRoom(_ context.Context, roomNumber string) (*domain.User, error) {
	return r.find(func(u domain.User) bool {
		return u.Role == domain.RoleResident && u.RoomNumber != nil && *u.RoomNumber == roomNumber
	})
}

func (r userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []domain.User
	for _, u := range s.users {
		if u.Role == role {
			users = append(users, cloneUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if role == domain.RoleResident {
			ri, rj := deref(users[i].RoomNumber), deref(users[j].RoomNumber)
			if ri != rj {
				return ri < rj
			}
			return users[i].ID < users[j].ID
		}
		return users[i].Username < users[j].Username
	})
	return users, nil
}

func (r userRepo) find(match func(domain.User) bool) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type parcelRepo struct{ s *Store }

func (r parcelRepo) Create(_ context.Context, parcel *domain.Parcel) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.parcels {
		if existing.TrackingNumber == parcel.TrackingNumber {
			return repository.ErrDuplicateTrackingNumber
		}
	}
	s.nextParcel++
	parcel.ID = s.nextParcel
	parcel.CreatedAt = s.now()
	s.parcels[parcel.ID] = cloneParcel(*parcel)
	return nil
}

func (r parcelRepo) GetByID(_ context.Context, id int64) (*domain.ParcelView, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	parcel, ok := s.parcels[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	view := s.viewLocked(parcel)
	return &view, nil
}

func (r parcelRepo) ListByResident(_ context.Context, residentID int64) ([]domain.ParcelView, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []domain.ParcelView
	for _, p := range s.parcels {
		if p.ResidentID == residentID {
			views = append(views, s.viewLocked(p))
		}
	}
	sortNewestFirst(views)
	return views, nil
}

func (r parcelRepo) Search(_ context.Context, filter repository.ParcelFilter, page repository.Page) ([]domain.ParcelView, int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.ParcelView
	for _, p := range s.parcels {
		view := s.viewLocked(p)
		if filter.RoomNumber != nil && (view.RoomNumber == nil || *view.RoomNumber != *filter.RoomNumber) {
			continue
		}
		if filter.CreatedFrom != nil && p.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && p.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		matched = append(matched, view)
	}
	sortNewestFirst(matched)

	total := int64(len(matched))
	page = page.Normalize()
	if page.Offset >= len(matched) {
		return nil, total, nil
	}
	end := page.Offset + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[page.Offset:end], total, nil
}

func (r parcelRepo) MarkCollected(_ context.Context, id, staffID int64, photoOutPath *string) (*domain.Parcel, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	parcel, ok := s.parcels[id]
	if !ok || parcel.Status != domain.ParcelStatusPending {
		return nil, repository.ErrNotPending
	}
	now := s.now()
	parcel.Status = domain.ParcelStatusCollected
	parcel.CollectedAt = &now
	parcel.StaffOutID = &staffID
	parcel.PhotoOutPath = cloneString(photoOutPath)
	s.parcels[id] = parcel

	out := cloneParcel(parcel)
	return &out, nil
}

func (s *Store) viewLocked(p domain.Parcel) domain.ParcelView {
	view := domain.ParcelView{Parcel: cloneParcel(p)}
	if resident, ok := s.users[p.ResidentID]; ok {
		view.ResidentName = resident.Username
		view.RoomNumber = cloneString(resident.RoomNumber)
		view.PhoneNumber = resident.PhoneNumber
	}
	view.StaffInName = s.usernameLocked(p.StaffInID)
	view.StaffOutName = s.usernameLocked(p.StaffOutID)
	return view
}

func (s *Store) usernameLocked(id *int64) *string {
	if id == nil {
		return nil
	}
	user, ok := s.users[*id]
	if !ok {
		return nil
	}
	name := user.Username
	return &name
}

func sortNewestFirst(views []domain.ParcelView) {
	sort.Slice(views, func(i, j int) bool {
		if !views[i].CreatedAt.Equal(views[j].CreatedAt) {
			return views[i].CreatedAt.After(views[j].CreatedAt)
		}
		return views[i].ID > views[j].ID
	})
}

func cloneUser(u domain.User) domain.User {
	u.RoomNumber = cloneString(u.RoomNumber)
	return u
}

func cloneParcel(p domain.Parcel) domain.Parcel {
	p.PhotoInPath = cloneString(p.PhotoInPath)
	p.PhotoOutPath = cloneString(p.PhotoOutPath)
	if p.CollectedAt != nil {
		t := *p.CollectedAt
		p.CollectedAt = &t
	}
	if p.StaffInID != nil {
		v := *p.StaffInID
		p.StaffInID = &v
	}
	if p.StaffOutID != nil {
		v := *p.StaffOutID
		p.StaffOutID = &v
	}
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
