package repository

import (
	"context"

	"github.com/icondo/parcel-service/internal/domain"
)

// UserRepository defines persistence access for staff and residents.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsernameAndRole(ctx context.Context, username string, role domain.Role) (*domain.User, error)
	GetResidentByRoom(ctx context.Context, roomNumber string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, password_hash, role, room_number, phone_number, created_at`

// Create inserts the user. Username and resident room uniqueness are left to
// the database so concurrent registrations cannot both succeed.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (username, password_hash, role, room_number, phone_number)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.RoomNumber,
		user.PhoneNumber,
	).Scan(&user.ID, &user.CreatedAt)
	return translateUniqueViolation(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByUsernameAndRole(ctx context.Context, username string, role domain.Role) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username=$1 AND role=$2`
	return r.fetchSingle(ctx, query, username, role)
}

func (r *userRepository) GetResidentByRoom(ctx context.Context, roomNumber string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE role='resident' AND room_number=$1`
	return r.fetchSingle(ctx, query, roomNumber)
}

// ListByRole orders residents by room number and staff by username.
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	orderBy := "username ASC"
	if role == domain.RoleResident {
		orderBy = "room_number ASC, id ASC"
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE role=$1 ORDER BY ` + orderBy

	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Role,
			&user.RoomNumber,
			&user.PhoneNumber,
			&user.CreatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.RoomNumber,
		&user.PhoneNumber,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
