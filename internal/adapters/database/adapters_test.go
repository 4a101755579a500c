package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/adapters/database"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

func setupMockDB(t *testing.T) (*postgres.Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewClientFromDB(db), mock
}

func newReview() *entities.Review {
	return &entities.Review{
		ID:         "r-1",
		BookingID:  "b-1",
		UserID:     "u-1",
		ProviderID: "p-1",
		ServiceID:  "s-1",
		Rating:     5,
		Comment:    "Great job",
		CreatedAt:  time.Now(),
	}
}

func TestReviewAdapter_CreateForBooking(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewReviewAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .*"reviewed"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "reviews"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`UPDATE providers SET`).
		WithArgs("p-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "review_count"}).AddRow(4.5, 2))
	mock.ExpectCommit()

	rating, err := adapter.CreateForBooking(context.Background(), newReview())
	require.NoError(t, err)
	assert.Equal(t, "p-1", rating.ProviderID)
	assert.Equal(t, 4.5, rating.Rating)
	assert.Equal(t, 2, rating.ReviewCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAdapter_CreateForBooking_AlreadyReviewed(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewReviewAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	rating, err := adapter.CreateForBooking(context.Background(), newReview())
	require.Error(t, err)
	assert.Nil(t, rating)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAdapter_CreateForBooking_UniqueViolationRollsBack(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewReviewAdapter(client)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "reviews"`).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	_, err := adapter.CreateForBooking(context.Background(), newReview())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewAdapter_RecomputeProviderRating_UnknownProvider(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewReviewAdapter(client)

	mock.ExpectQuery(`UPDATE providers SET`).
		WithArgs("missing", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"rating", "review_count"}))

	_, err := adapter.RecomputeProviderRating(context.Background(), "missing")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingAdapter_UpdateStatus_OtherProviderNotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewBookingAdapter(client)

	mock.ExpectQuery(`UPDATE "bookings" SET .*"provider_id" = 'p-2'.*RETURNING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	booking, err := adapter.UpdateStatus(context.Background(), "b-1", "p-2", entities.BookingStatusConfirmed)
	require.Error(t, err)
	assert.Nil(t, booking)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingAdapter_List_FiltersByUser(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewBookingAdapter(client)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "service_id", "user_id", "provider_id", "date", "time", "status",
		"special_requests", "price", "reviewed", "created_at", "updated_at",
	}).AddRow("b-1", "s-1", "u-1", "p-1", "2026-11-02", "10:00", "pending", "", 40.0, false, now, now)

	mock.ExpectQuery(`SELECT .* FROM "bookings" WHERE \("user_id" = 'u-1'\) ORDER BY "created_at" DESC`).
		WillReturnRows(rows)

	bookings, err := adapter.List(context.Background(), repositories.BookingFilter{UserID: "u-1"})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, entities.BookingStatusPending, bookings[0].Status)
	assert.Equal(t, 40.0, bookings[0].Price)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceAdapter_Delete(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(sqlmock.Sqlmock)
		wantType apperrors.ErrorType
	}{
		{
			name: "referenced by bookings",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`DELETE FROM "services"`).WillReturnError(&pq.Error{Code: "23503"})
			},
			wantType: apperrors.ErrorTypeConflict,
		},
		{
			name: "owned by someone else",
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectExec(`DELETE FROM "services"`).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantType: apperrors.ErrorTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := setupMockDB(t)
			adapter := database.NewServiceAdapter(client)
			tt.setup(mock)

			err := adapter.Delete(context.Background(), "s-1", "p-1")
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, tt.wantType))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserAdapter_CreateDuplicateEmail(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewUserAdapter(client)

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnError(&pq.Error{Code: "23505"})

	err := adapter.Create(context.Background(), &entities.User{ID: "u-1", Email: "jane@example.com"})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
}

func TestUserAdapter_GetByEmail(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewUserAdapter(client)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE \("email" = 'jane@example.com'\)`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "name", "profile_photo", "phone",
			"address", "payment_methods", "created_at", "updated_at",
		}).AddRow("u-1", "jane@example.com", "hash", "Jane", "", "555", "", "{card,cash}", now, now))

	user, err := adapter.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)
	assert.Equal(t, []string{"card", "cash"}, user.PaymentMethods)
}

func TestProviderAdapter_GetByID(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewProviderAdapter(client)

	now := time.Now()
	mock.ExpectQuery(`SELECT .* FROM "providers"`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "password_hash", "name", "business_name", "owner_name",
			"phone_number", "business_address", "cities", "services_offered",
			"contact_info", "license_number", "description", "business_hours",
			"profile_picture", "rating", "review_count", "created_at", "updated_at",
		}).AddRow(
			"p-1", "shop@example.com", "hash", "Sam", "Sam's Plumbing", "Sam", "555", "1 Main St",
			"{Lagos}", "{plumbing}", "call us", "LIC-1", "", `{"monday":{"open":"09:00","close":"17:00"}}`,
			"", 4.5, 2, now, now,
		))

	provider, err := adapter.GetByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Sam's Plumbing", provider.DisplayName())
	assert.Equal(t, []string{"Lagos"}, provider.Cities)
	assert.Equal(t, "09:00", provider.BusinessHours["monday"].Open)
	assert.Equal(t, 2, provider.ReviewCount)
}

func TestProviderAdapter_GetByID_NotFound(t *testing.T) {
	client, mock := setupMockDB(t)
	adapter := database.NewProviderAdapter(client)

	mock.ExpectQuery(`SELECT .* FROM "providers"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := adapter.GetByID(context.Background(), "nope")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
}
