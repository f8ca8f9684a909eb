package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("load parcel: %w", pgx.ErrNoRows))
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)

	internal := ToDomainError(errors.New("boom"))
	assert.Equal(t, CodeInternal, internal.Code)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)

	conflict := NewConflict(CodeRoomOccupied, "room taken", map[string]any{"room_number": "101"})
	wrapped := fmt.Errorf("register: %w", conflict)
	assert.Same(t, conflict, ToDomainError(wrapped))
	assert.True(t, IsCode(wrapped, CodeRoomOccupied))
	assert.False(t, IsCode(wrapped, CodeDuplicateUsername))
}

func TestStorageFailureUnwraps(t *testing.T) {
	cause := errors.New("bucket gone")
	err := NewStorageFailure("failed to store photo", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, ToDomainError(err).HTTPStatus)
	assert.Contains(t, err.Error(), "bucket gone")
}

func TestDatabaseErrorsAreStorageFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "connection failure", err: &pgconn.PgError{Code: "08006", Message: "connection failure"}},
		{name: "wrapped server error", err: fmt.Errorf("insert parcel: %w", &pgconn.PgError{Code: "53300"})},
		{name: "deadline", err: fmt.Errorf("search parcels: %w", context.DeadlineExceeded)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			domainErr := ToDomainError(tt.err)
			assert.Equal(t, CodeStorageFailure, domainErr.Code)
			assert.Equal(t, http.StatusBadGateway, domainErr.HTTPStatus)
			assert.ErrorIs(t, domainErr, tt.err)
		})
	}
}
