package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

var userColumns = []interface{}{
	"id", "email", "password_hash", "name", "profile_photo", "phone",
	"address", "payment_methods", "created_at", "updated_at",
}

// UserAdapter implements the UserRepository interface
type UserAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewUserAdapter creates a new user adapter
func NewUserAdapter(client *postgres.Client) repositories.UserRepository {
	return &UserAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new user
func (a *UserAdapter) Create(ctx context.Context, user *entities.User) error {
	record := goqu.Record{
		"id":              user.ID,
		"email":           user.Email,
		"password_hash":   user.PasswordHash,
		"name":            user.Name,
		"profile_photo":   user.ProfilePhoto,
		"phone":           user.Phone,
		"address":         user.Address,
		"payment_methods": pq.StringArray(nonNil(user.PaymentMethods)),
		"created_at":      user.CreatedAt,
		"updated_at":      user.UpdatedAt,
	}

	query, args, err := a.db.Insert("users").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return insertError(err, "an account with this email already exists", "failed to create user")
	}

	return nil
}

// GetByID retrieves a user by ID
func (a *UserAdapter) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("user with id %s not found", id))
}

// GetByEmail retrieves a user by email
func (a *UserAdapter) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return a.getOne(ctx, goqu.Ex{"email": email}, "user not found")
}

func (a *UserAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.User, error) {
	query, args, err := a.db.Select(userColumns...).From("users").Where(where).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	user, err := scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get user", err)
	}
	return user, nil
}

// GetByIDs retrieves users for a batch of IDs
func (a *UserAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.User, error) {
	if len(ids) == 0 {
		return []*entities.User{}, nil
	}

	query, args, err := a.db.Select(userColumns...).From("users").Where(goqu.Ex{"id": ids}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list users", err)
	}
	defer rows.Close()

	users := make([]*entities.User, 0, len(ids))
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating users", err)
	}
	return users, nil
}

// UpdateProfile updates the contact fields of a user
func (a *UserAdapter) UpdateProfile(ctx context.Context, id string, update entities.UserProfileUpdate) (*entities.User, error) {
	record := goqu.Record{"updated_at": time.Now()}
	if update.Phone != nil {
		record["phone"] = *update.Phone
	}
	if update.Address != nil {
		record["address"] = *update.Address
	}
	if update.PaymentMethods != nil {
		record["payment_methods"] = pq.StringArray(update.PaymentMethods)
	}

	query, args, err := a.db.Update("users").
		Set(record).
		Where(goqu.Ex{"id": id}).
		Returning(userColumns...).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build update query", err)
	}

	user, err := scanUser(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("user with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to update user", err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*entities.User, error) {
	user := &entities.User{}
	var paymentMethods pq.StringArray
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.ProfilePhoto,
		&user.Phone,
		&user.Address,
		&paymentMethods,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.PaymentMethods = nonNil(paymentMethods)
	return user, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
