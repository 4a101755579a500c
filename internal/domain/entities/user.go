package entities

import (
	"time"
)

// Role tags the kind of principal a token was issued for
type Role string

const (
	RoleUser     Role = "user"
	RoleProvider Role = "provider"
)

// Valid reports whether r is a known principal kind
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleProvider
}

// User represents an end user who books services
type User struct {
	ID             string    `json:"id" db:"id"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Name           string    `json:"name" db:"name"`
	ProfilePhoto   string    `json:"profilePhoto,omitempty" db:"profile_photo"`
	Phone          string    `json:"phone,omitempty" db:"phone"`
	Address        string    `json:"address,omitempty" db:"address"`
	PaymentMethods []string  `json:"paymentMethods" db:"payment_methods"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// Role always reports RoleUser; users and providers live in separate tables
func (u *User) Role() Role { return RoleUser }

// BusinessHours holds an opening window for a weekday
type BusinessHours struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Provider represents a business offering services on the marketplace
type Provider struct {
	ID              string                   `json:"id" db:"id"`
	Email           string                   `json:"email" db:"email"`
	PasswordHash    string                   `json:"-" db:"password_hash"`
	Name            string                   `json:"name" db:"name"`
	BusinessName    string                   `json:"businessName" db:"business_name"`
	OwnerName       string                   `json:"ownerName,omitempty" db:"owner_name"`
	PhoneNumber     string                   `json:"phoneNumber,omitempty" db:"phone_number"`
	BusinessAddress string                   `json:"businessAddress,omitempty" db:"business_address"`
	Cities          []string                 `json:"cities" db:"cities"`
	ServicesOffered []string                 `json:"servicesOffered" db:"services_offered"`
	ContactInfo     string                   `json:"contactInfo,omitempty" db:"contact_info"`
	LicenseNumber   string                   `json:"licenseNumber,omitempty" db:"license_number"`
	Description     string                   `json:"description,omitempty" db:"description"`
	BusinessHours   map[string]BusinessHours `json:"businessHours,omitempty" db:"business_hours"`
	ProfilePicture  string                   `json:"profilePicture,omitempty" db:"profile_picture"`
	Rating          float64                  `json:"rating" db:"rating"`
	ReviewCount     int                      `json:"reviewCount" db:"review_count"`
	CreatedAt       time.Time                `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time                `json:"updatedAt" db:"updated_at"`
}

// Role always reports RoleProvider
func (p *Provider) Role() Role { return RoleProvider }

// DisplayName prefers the business name and falls back to the contact name
func (p *Provider) DisplayName() string {
	if p.BusinessName != "" {
		return p.BusinessName
	}
	return p.Name
}

// PrincipalSummary is the public view of an authenticated account
type PrincipalSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// UserProfileUpdate lists the user fields a user may change
type UserProfileUpdate struct {
	Phone          *string  `json:"phone"`
	Address        *string  `json:"address"`
	PaymentMethods []string `json:"paymentMethods"`
}

// ProviderProfileUpdate lists the provider fields a provider may change
type ProviderProfileUpdate struct {
	Name            *string                  `json:"name"`
	BusinessName    *string                  `json:"businessName"`
	OwnerName       *string                  `json:"ownerName"`
	PhoneNumber     *string                  `json:"phoneNumber"`
	BusinessAddress *string                  `json:"businessAddress"`
	Cities          []string                 `json:"cities"`
	ServicesOffered []string                 `json:"servicesOffered"`
	ContactInfo     *string                  `json:"contactInfo"`
	LicenseNumber   *string                  `json:"licenseNumber"`
	Description     *string                  `json:"description"`
	BusinessHours   map[string]BusinessHours `json:"businessHours"`
	ProfilePicture  *string                  `json:"profilePicture"`
}

// Principal is the verified identity behind a request
type Principal struct {
	ID    string
	Email string
	Role  Role
}

// IsUser reports whether the principal is an end user
func (p Principal) IsUser() bool { return p.Role == RoleUser }

// IsProvider reports whether the principal is a provider
func (p Principal) IsProvider() bool { return p.Role == RoleProvider }
