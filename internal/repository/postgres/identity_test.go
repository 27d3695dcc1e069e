package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"linguo/internal/domain"
	"linguo/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIdentityRepo_GetByDeviceKey(t *testing.T) {
	created := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		deviceKey     string
		mockRows      *sqlmock.Rows
		mockError     error
		expectedNil   bool
		expectedError bool
	}{
		{
			name:          "identity found",
			deviceKey:     "123",
			mockRows:      sqlmock.NewRows([]string{"id", "device_key", "created_at"}).AddRow("uuid-1", "123", created),
			expectedNil:   false,
			expectedError: false,
		},
		{
			name:          "no identity yet",
			deviceKey:     "456",
			mockError:     sql.ErrNoRows,
			expectedNil:   true,
			expectedError: false,
		},
		{
			name:          "database error",
			deviceKey:     "789",
			mockError:     fmt.Errorf("db error"),
			expectedNil:   true,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewIdentityRepo(db)

			query := "SELECT id, device_key, created_at FROM identities WHERE device_key = \\$1"
			if tt.mockError != nil {
				mock.ExpectQuery(query).WithArgs(tt.deviceKey).WillReturnError(tt.mockError)
			} else {
				mock.ExpectQuery(query).WithArgs(tt.deviceKey).WillReturnRows(tt.mockRows)
			}

			identity, err := repo.GetByDeviceKey(context.Background(), tt.deviceKey)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.expectedNil {
				assert.Nil(t, identity)
			} else {
				assert.Equal(t, &domain.Identity{ID: "uuid-1", DeviceKey: "123", CreatedAt: created}, identity)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIdentityRepo_Create(t *testing.T) {
	created := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		mockError   error
		expectedErr error
		expectAny   bool
	}{
		{
			name: "created",
		},
		{
			name:        "duplicate device key",
			mockError:   &pq.Error{Code: "23505"},
			expectedErr: repository.ErrIdentityExists,
		},
		{
			name:      "database error",
			mockError: fmt.Errorf("db error"),
			expectAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			assert.NoError(t, err)
			defer db.Close()

			repo := NewIdentityRepo(db)

			expect := mock.ExpectQuery("INSERT INTO identities").WithArgs("uuid-1", "123")
			if tt.mockError != nil {
				expect.WillReturnError(tt.mockError)
			} else {
				expect.WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))
			}

			identity, err := repo.Create(context.Background(), domain.Identity{ID: "uuid-1", DeviceKey: "123"})

			switch {
			case tt.expectedErr != nil:
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, identity)
			case tt.expectAny:
				assert.Error(t, err)
				assert.Nil(t, identity)
			default:
				assert.NoError(t, err)
				assert.Equal(t, created, identity.CreatedAt)
				assert.Equal(t, "uuid-1", identity.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
