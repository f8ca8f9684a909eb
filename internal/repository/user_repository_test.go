package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icondo/parcel-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var userCols = []string{"id", "username", "password_hash", "role", "room_number", "phone_number", "created_at"}

func TestUserRepositoryCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("resident101", "hash", domain.RoleResident, strPtr("101"), "081-111-1111").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), created))

	user := &domain.User{
		Username:     "resident101",
		PasswordHash: "hash",
		Role:         domain.RoleResident,
		RoomNumber:   strPtr("101"),
		PhoneNumber:  "081-111-1111",
	}
	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, int64(3), user.ID)
	assert.Equal(t, created, user.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateMapsConstraints(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraint: "users_username_key", want: ErrDuplicateUsername},
		{constraint: "users_resident_room_key", want: ErrRoomOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			mock := newMock(t)
			repo := NewUserRepository(mock)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			err := repo.Create(context.Background(), &domain.User{Username: "x", Role: domain.RoleResident})
			assert.ErrorIs(t, err, tt.want)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepositoryCreatePassesOtherErrors(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(boom)

	err := repo.Create(context.Background(), &domain.User{Username: "x", Role: domain.RoleStaff})
	assert.ErrorIs(t, err, boom)
}

func TestUserRepositoryGetByUsernameAndRole(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE username=$1 AND role=$2")).
		WithArgs("staff01", domain.RoleStaff).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(1), "staff01", "hash", domain.RoleStaff, (*string)(nil), "081-234-5678", created))

	user, err := repo.GetByUsernameAndRole(context.Background(), "staff01", domain.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, domain.RoleStaff, user.Role)
	assert.Nil(t, user.RoomNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetResidentByRoomNotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE role='resident' AND room_number=$1")).
		WithArgs("999").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetResidentByRoom(context.Background(), "999")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestUserRepositoryListResidentsOrdersByRoom(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock)
	created := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE role=$1 ORDER BY room_number ASC")).
		WithArgs(domain.RoleResident).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(int64(2), "resident101", "h", domain.RoleResident, strPtr("101"), "1", created).
			AddRow(int64(3), "resident102", "h", domain.RoleResident, strPtr("102"), "2", created))

	users, err := repo.ListByRole(context.Background(), domain.RoleResident)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "101", *users[0].RoomNumber)
	assert.Equal(t, "102", *users[1].RoomNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}
