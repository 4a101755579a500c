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
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var reviewColumns = []interface{}{
	"id", "booking_id", "user_id", "provider_id", "service_id", "rating", "comment", "created_at",
}

// recomputeRatingQuery rebuilds a provider aggregate from the reviews table
const recomputeRatingQuery = `
	UPDATE providers SET
		rating = COALESCE((SELECT AVG(rating)::float8 FROM reviews WHERE provider_id = $1), 0),
		review_count = (SELECT COUNT(*) FROM reviews WHERE provider_id = $1),
		updated_at = $2
	WHERE id = $1
	RETURNING rating, review_count
`

// execQuerier is satisfied by *sql.DB and *sql.Tx
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ReviewAdapter implements the ReviewRepository interface
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateForBooking flips the booking's reviewed flag, inserts the review and
// recomputes the provider aggregate inside one transaction.
func (a *ReviewAdapter) CreateForBooking(ctx context.Context, review *entities.Review) (*entities.ProviderRating, error) {
	flagQuery, flagArgs, err := a.db.Update("bookings").
		Set(goqu.Record{"reviewed": true, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": review.BookingID, "reviewed": false}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	insertQuery, insertArgs, err := a.db.Insert("reviews").Rows(goqu.Record{
		"id":          review.ID,
		"booking_id":  review.BookingID,
		"user_id":     review.UserID,
		"provider_id": review.ProviderID,
		"service_id":  review.ServiceID,
		"rating":      review.Rating,
		"comment":     review.Comment,
		"created_at":  review.CreatedAt,
	}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build insert query", err)
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			observability.LoggerFromContext(ctx).Error().Err(err).Str("booking_id", review.BookingID).Msg("review transaction rollback failed")
		}
	}()

	result, err := tx.ExecContext(ctx, flagQuery, flagArgs...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to mark booking reviewed", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return nil, apperrors.NewConflictError("booking already reviewed")
	}

	if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		return nil, insertError(err, "booking already reviewed", "failed to create review")
	}

	rating, err := recompute(ctx, tx, review.ProviderID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewInternalError("failed to commit review", err)
	}

	return rating, nil
}

// RecomputeProviderRating rebuilds a provider's aggregate outside any review write
func (a *ReviewAdapter) RecomputeProviderRating(ctx context.Context, providerID string) (*entities.ProviderRating, error) {
	return recompute(ctx, a.client.DB(), providerID)
}

func recompute(ctx context.Context, q execQuerier, providerID string) (*entities.ProviderRating, error) {
	rating := &entities.ProviderRating{ProviderID: providerID}
	err := q.QueryRowContext(ctx, recomputeRatingQuery, providerID, time.Now()).Scan(&rating.Rating, &rating.ReviewCount)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("provider with id %s not found", providerID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to recompute provider rating", err)
	}
	return rating, nil
}

// List retrieves reviews with filters, newest first
func (a *ReviewAdapter) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	ds := a.db.Select(reviewColumns...).From("reviews")

	if filter.ProviderID != "" {
		ds = ds.Where(goqu.Ex{"provider_id": filter.ProviderID})
	}
	if filter.ServiceID != "" {
		ds = ds.Where(goqu.Ex{"service_id": filter.ServiceID})
	}
	if filter.UserID != "" {
		ds = ds.Where(goqu.Ex{"user_id": filter.UserID})
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
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := []*entities.Review{}
	for rows.Next() {
		review := &entities.Review{}
		if err := rows.Scan(
			&review.ID,
			&review.BookingID,
			&review.UserID,
			&review.ProviderID,
			&review.ServiceID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		); err != nil {
			return nil, apperrors.NewInternalError("failed to scan review", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating reviews", err)
	}
	return reviews, nil
}
