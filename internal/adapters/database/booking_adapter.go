package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var bookingColumns = []interface{}{
	"id", "service_id", "user_id", "provider_id", "date", "time", "status",
	"special_requests", "price", "reviewed", "created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	record := goqu.Record{
		"id":               booking.ID,
		"service_id":       booking.ServiceID,
		"user_id":          booking.UserID,
		"provider_id":      booking.ProviderID,
		"date":             booking.Date,
		"time":             booking.Time,
		"status":           booking.Status,
		"special_requests": booking.SpecialRequests,
		"price":            booking.Price,
		"reviewed":         booking.Reviewed,
		"created_at":       booking.CreatedAt,
		"updated_at":       booking.UpdatedAt,
	}

	query, args, err := a.db.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return insertError(err, "booking already exists", "failed to create booking")
	}

	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).From("bookings").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	booking, err := scanBooking(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return booking, nil
}

// List retrieves bookings with filters, newest first
func (a *BookingAdapter) List(ctx context.Context, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.db.Select(bookingColumns...).From("bookings")

	if filter.UserID != "" {
		ds = ds.Where(goqu.Ex{"user_id": filter.UserID})
	}
	if filter.ProviderID != "" {
		ds = ds.Where(goqu.Ex{"provider_id": filter.ProviderID})
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}

	ds = ds.Order(goqu.I("created_at").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	bookings := []*entities.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating bookings", err)
	}
	return bookings, nil
}

// UpdateStatus sets the status of a booking owned by providerID
func (a *BookingAdapter) UpdateStatus(ctx context.Context, id, providerID string, status entities.BookingStatus) (*entities.Booking, error) {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{"status": status, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id, "provider_id": providerID}).
		Returning(bookingColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	booking, err := scanBooking(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update booking", err)
	}
	return booking, nil
}

func scanBooking(row rowScanner) (*entities.Booking, error) {
	booking := &entities.Booking{}
	err := row.Scan(
		&booking.ID,
		&booking.ServiceID,
		&booking.UserID,
		&booking.ProviderID,
		&booking.Date,
		&booking.Time,
		&booking.Status,
		&booking.SpecialRequests,
		&booking.Price,
		&booking.Reviewed,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return booking, nil
}
