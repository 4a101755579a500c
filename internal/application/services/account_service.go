package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zatekoja/servicehub/internal/auth"
	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/providers"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
	"github.com/zatekoja/servicehub/pkg/validation"
)

const (
	loginAttemptLimit  = 10
	loginAttemptWindow = 15 * time.Minute
)

// TokenIssuer signs identity tokens for authenticated principals
type TokenIssuer interface {
	Issue(principalID, email string, role entities.Role) (string, error)
}

// RegisterInput carries a registration form for either principal kind
type RegisterInput struct {
	Role            entities.Role `json:"role" validate:"required,oneof=user provider"`
	Name            string        `json:"name" validate:"required,max=100"`
	Email           string        `json:"email" validate:"required,email"`
	Password        string        `json:"password" validate:"required,min=6,max=72"`
	Phone           string        `json:"phone" validate:"max=30"`
	Address         string        `json:"address" validate:"max=300"`
	BusinessName    string        `json:"businessName" validate:"required_if=Role provider,max=200"`
	OwnerName       string        `json:"ownerName" validate:"max=100"`
	PhoneNumber     string        `json:"phoneNumber" validate:"max=30"`
	BusinessAddress string        `json:"businessAddress" validate:"max=300"`
	Cities          []string      `json:"cities"`
	Services        []string      `json:"services"`
	ContactInfo     string        `json:"contactInfo" validate:"required_if=Role provider,max=300"`
	LicenseNumber   string        `json:"licenseNumber" validate:"required_if=Role provider,max=100"`
	Description     string        `json:"description" validate:"max=5000"`
	Image           *ImageFile    `json:"-" validate:"-"`
}

// LoginInput carries a login attempt
type LoginInput struct {
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"required"`
	Role     entities.Role `json:"role" validate:"required,oneof=user provider"`
}

// LoginResult is a signed token plus the public view of its principal
type LoginResult struct {
	Token string
	User  entities.PrincipalSummary
}

// AccountService registers and authenticates users and providers
type AccountService struct {
	users     repositories.UserRepository
	providers repositories.ProviderRepository
	tokens    TokenIssuer
	uploader  providers.ImageUploader
	limiter   providers.RateCounter
	now       func() time.Time
}

// NewAccountService creates an account service. uploader and limiter may be nil.
func NewAccountService(
	users repositories.UserRepository,
	providerRepo repositories.ProviderRepository,
	tokens TokenIssuer,
	uploader providers.ImageUploader,
	limiter providers.RateCounter,
) *AccountService {
	return &AccountService{
		users:     users,
		providers: providerRepo,
		tokens:    tokens,
		uploader:  uploader,
		limiter:   limiter,
		now:       time.Now,
	}
}

// Register creates a user or provider account
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*entities.PrincipalSummary, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Services = compact(input.Services)
	input.Cities = compact(input.Cities)

	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.Role == entities.RoleProvider && len(input.Services) == 0 {
		return nil, apperrors.NewValidationError("Validation failed").WithField("services", "services is required")
	}

	exists, err := s.emailTaken(ctx, input.Role, input.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		if input.Role == entities.RoleProvider {
			return nil, apperrors.NewConflictError("Provider already exists")
		}
		return nil, apperrors.NewConflictError("User already exists")
	}

	imageURL, err := s.uploadImage(ctx, input.Image)
	if err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	now := s.now().UTC()
	id := uuid.New().String()

	if input.Role == entities.RoleProvider {
		provider := &entities.Provider{
			ID:              id,
			Email:           input.Email,
			PasswordHash:    hash,
			Name:            input.Name,
			BusinessName:    strings.TrimSpace(input.BusinessName),
			OwnerName:       input.OwnerName,
			PhoneNumber:     input.PhoneNumber,
			BusinessAddress: input.BusinessAddress,
			Cities:          input.Cities,
			ServicesOffered: input.Services,
			ContactInfo:     input.ContactInfo,
			LicenseNumber:   input.LicenseNumber,
			Description:     input.Description,
			ProfilePicture:  imageURL,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.providers.Create(ctx, provider); err != nil {
			return nil, err
		}
		observability.LoggerFromContext(ctx).Info().Str("provider_id", id).Msg("provider registered")
		return &entities.PrincipalSummary{ID: id, Name: provider.DisplayName(), Email: provider.Email, Role: entities.RoleProvider}, nil
	}

	user := &entities.User{
		ID:             id,
		Email:          input.Email,
		PasswordHash:   hash,
		Name:           input.Name,
		ProfilePhoto:   imageURL,
		Phone:          input.Phone,
		Address:        input.Address,
		PaymentMethods: []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.LoggerFromContext(ctx).Info().Str("user_id", id).Msg("user registered")
	return &entities.PrincipalSummary{ID: id, Name: user.Name, Email: user.Email, Role: entities.RoleUser}, nil
}

// Login verifies credentials and issues a token. clientKey identifies the
// caller for rate limiting, usually the remote IP.
func (s *AccountService) Login(ctx context.Context, input LoginInput, clientKey string) (*LoginResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	if err := s.checkRate(ctx, clientKey, input.Email); err != nil {
		return nil, err
	}

	invalid := apperrors.NewUnauthorizedError("Invalid credentials")

	var (
		summary entities.PrincipalSummary
		hash    string
	)
	switch input.Role {
	case entities.RoleProvider:
		provider, err := s.providers.GetByEmail(ctx, input.Email)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, invalid
		}
		if err != nil {
			return nil, err
		}
		hash = provider.PasswordHash
		summary = entities.PrincipalSummary{ID: provider.ID, Name: provider.DisplayName(), Email: provider.Email, Role: entities.RoleProvider}
	default:
		user, err := s.users.GetByEmail(ctx, input.Email)
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			return nil, invalid
		}
		if err != nil {
			return nil, err
		}
		hash = user.PasswordHash
		summary = entities.PrincipalSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: entities.RoleUser}
	}

	if !auth.CheckPassword(hash, input.Password) {
		return nil, invalid
	}

	token, err := s.tokens.Issue(summary.ID, summary.Email, summary.Role)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to issue token", err)
	}

	return &LoginResult{Token: token, User: summary}, nil
}

func (s *AccountService) emailTaken(ctx context.Context, role entities.Role, email string) (bool, error) {
	var err error
	if role == entities.RoleProvider {
		_, err = s.providers.GetByEmail(ctx, email)
	} else {
		_, err = s.users.GetByEmail(ctx, email)
	}
	if err == nil {
		return true, nil
	}
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return false, nil
	}
	return false, err
}

func (s *AccountService) uploadImage(ctx context.Context, image *ImageFile) (string, error) {
	if image.Empty() {
		return "", nil
	}
	if s.uploader == nil {
		observability.LoggerFromContext(ctx).Warn().Msg("image upload is not configured, ignoring registration image")
		return "", nil
	}
	url, err := s.uploader.Upload(ctx, image.Data, image.Filename)
	if err != nil {
		return "", apperrors.NewInternalError("Image upload failed", err)
	}
	return url, nil
}

// checkRate counts the attempt and refuses it once the window's budget is
// spent. A counter outage lets the attempt through.
func (s *AccountService) checkRate(ctx context.Context, clientKey, email string) error {
	if s.limiter == nil {
		return nil
	}
	key := fmt.Sprintf("login:%s:%s", clientKey, email)
	count, err := s.limiter.Increment(ctx, key, loginAttemptWindow)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("login rate counter unavailable")
		return nil
	}
	if count > loginAttemptLimit {
		return apperrors.NewRateLimitedError("Too many login attempts, please try again later")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
