package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
	"github.com/zatekoja/servicehub/internal/loaders"
	apperrors "github.com/zatekoja/servicehub/pkg/errors"
)

// store is an in-memory database shared by the fake repositories. It keeps
// insertion order so listings can be returned newest first.
type store struct {
	mu        sync.Mutex
	users     []*entities.User
	providers []*entities.Provider
	services  []*entities.Service
	bookings  []*entities.Booking
	reviews   []*entities.Review
}

func newStore() *store { return &store{} }

func (s *store) loaders() *loaders.Factory {
	return loaders.NewFactory(userRepo{s}, providerRepo{s}, serviceRepo{s})
}

func (s *store) addUser(u *entities.User) *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append(s.users, u)
	return u
}

func (s *store) addProvider(p *entities.Provider) *entities.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.providers = append(s.providers, p)
	return p
}

func (s *store) addService(svc *entities.Service) *entities.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services = append(s.services, svc)
	return svc
}

func (s *store) addBooking(b *entities.Booking) *entities.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, b)
	return b
}

func (s *store) booking(id string) *entities.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bookings {
		if b.ID == id {
			cp := *b
			return &cp
		}
	}
	return nil
}

func (s *store) provider(id string) *entities.Provider {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.ID == id {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (s *store) reviewCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reviews)
}

// userRepo

type userRepo struct{ s *store }

func (r userRepo) Create(_ context.Context, u *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperrors.NewConflictError("user with this email already exists")
		}
	}
	cp := *u
	r.s.users = append(r.s.users, &cp)
	return nil
}

func (r userRepo) find(match func(*entities.User) bool) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (r userRepo) GetByID(_ context.Context, id string) (*entities.User, error) {
	return r.find(func(u *entities.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	return r.find(func(u *entities.User) bool { return u.Email == email })
}

func (r userRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.User, error) {
	var out []*entities.User
	for _, id := range ids {
		if u, err := r.find(func(u *entities.User) bool { return u.ID == id }); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r userRepo) UpdateProfile(_ context.Context, id string, update entities.UserProfileUpdate) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.ID != id {
			continue
		}
		if update.Phone != nil {
			u.Phone = *update.Phone
		}
		if update.Address != nil {
			u.Address = *update.Address
		}
		if update.PaymentMethods != nil {
			u.PaymentMethods = update.PaymentMethods
		}
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

// providerRepo

type providerRepo struct{ s *store }

func (r providerRepo) Create(_ context.Context, p *entities.Provider) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.providers {
		if existing.Email == p.Email {
			return apperrors.NewConflictError("provider with this email already exists")
		}
	}
	cp := *p
	r.s.providers = append(r.s.providers, &cp)
	return nil
}

func (r providerRepo) find(match func(*entities.Provider) bool) (*entities.Provider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if match(p) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("provider not found")
}

func (r providerRepo) GetByID(_ context.Context, id string) (*entities.Provider, error) {
	return r.find(func(p *entities.Provider) bool { return p.ID == id })
}

func (r providerRepo) GetByEmail(_ context.Context, email string) (*entities.Provider, error) {
	return r.find(func(p *entities.Provider) bool { return p.Email == email })
}

func (r providerRepo) GetByIDs(_ context.Context, ids []string) ([]*entities.Provider, error) {
	var out []*entities.Provider
	for _, id := range ids {
		if p, err := r.find(func(p *entities.Provider) bool { return p.ID == id }); err == nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r providerRepo) UpdateProfile(_ context.Context, id string, update entities.ProviderProfileUpdate) (*entities.Provider, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if p.ID != id {
			continue
		}
		if update.BusinessName != nil {
			p.BusinessName = *update.BusinessName
		}
		if update.Description != nil {
			p.Description = *update.Description
		}
		if update.Cities != nil {
			p.Cities = update.Cities
		}
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NewNotFoundError("provider not found")
}

// serviceRepo

type serviceRepo struct{ s *store }

func (r serviceRepo) Create(_ context.Context, svc *entities.Service) error {
	r.s.addService(cloneService(svc))
	return nil
}

func cloneService(svc *entities.Service) *entities.Service {
	cp := *svc
	cp.Provider = nil
	return &cp
}

func (r serviceRepo) GetByID(_ context.Context, id string) (*entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, svc := range r.s.services {
		if svc.ID == id {
			return cloneService(svc), nil
		}
	}
	return nil, apperrors.NewNotFoundError("service not found")
}

func (r serviceRepo) GetByIDs(ctx context.Context, ids []string) ([]*entities.Service, error) {
	var out []*entities.Service
	for _, id := range ids {
		if svc, err := r.GetByID(ctx, id); err == nil {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (r serviceRepo) List(_ context.Context, filter repositories.ServiceFilter) ([]*entities.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	query := strings.ToLower(filter.Query)
	var out []*entities.Service
	for i := len(r.s.services) - 1; i >= 0; i-- {
		svc := r.s.services[i]
		if filter.ProviderID != "" && svc.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Category != "" && svc.Category != filter.Category {
			continue
		}
		if filter.ActiveOnly && !svc.IsActive {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(svc.Title+" "+svc.Description+" "+svc.Category), query) {
			continue
		}
		out = append(out, cloneService(svc))
	}
	return out, nil
}

func (r serviceRepo) Update(_ context.Context, svc *entities.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, existing := range r.s.services {
		if existing.ID == svc.ID && existing.ProviderID == svc.ProviderID {
			r.s.services[i] = cloneService(svc)
			return nil
		}
	}
	return apperrors.NewNotFoundError("service not found")
}

func (r serviceRepo) Delete(_ context.Context, id, providerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ServiceID == id {
			return apperrors.NewConflictError("service has bookings and cannot be deleted")
		}
	}
	for i, svc := range r.s.services {
		if svc.ID == id && svc.ProviderID == providerID {
			r.s.services = append(r.s.services[:i], r.s.services[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("service not found")
}

// bookingRepo

type bookingRepo struct{ s *store }

func (r bookingRepo) Create(_ context.Context, b *entities.Booking) error {
	cp := *b
	r.s.addBooking(&cp)
	return nil
}

func (r bookingRepo) GetByID(_ context.Context, id string) (*entities.Booking, error) {
	if b := r.s.booking(id); b != nil {
		return b, nil
	}
	return nil, apperrors.NewNotFoundError("booking not found")
}

func (r bookingRepo) List(_ context.Context, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Booking
	for i := len(r.s.bookings) - 1; i >= 0; i-- {
		b := r.s.bookings[i]
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.ProviderID != "" && b.ProviderID != filter.ProviderID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r bookingRepo) UpdateStatus(_ context.Context, id, providerID string, status entities.BookingStatus) (*entities.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.bookings {
		if b.ID == id && b.ProviderID == providerID {
			b.Status = status
			cp := *b
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("booking not found")
}

// reviewRepo mirrors the transactional adapter: the flag flip, the insert and
// the recompute happen under one lock.
type reviewRepo struct{ s *store }

func (r reviewRepo) CreateForBooking(_ context.Context, review *entities.Review) (*entities.ProviderRating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var booking *entities.Booking
	for _, b := range r.s.bookings {
		if b.ID == review.BookingID && !b.Reviewed {
			booking = b
		}
	}
	if booking == nil {
		return nil, apperrors.NewConflictError("booking already reviewed")
	}
	for _, existing := range r.s.reviews {
		if existing.BookingID == review.BookingID {
			return nil, apperrors.NewConflictError("booking already reviewed")
		}
	}

	booking.Reviewed = true
	cp := *review
	r.s.reviews = append(r.s.reviews, &cp)
	return r.recomputeLocked(review.ProviderID), nil
}

func (r reviewRepo) recomputeLocked(providerID string) *entities.ProviderRating {
	var sum, count int
	for _, rv := range r.s.reviews {
		if rv.ProviderID == providerID {
			sum += rv.Rating
			count++
		}
	}
	rating := &entities.ProviderRating{ProviderID: providerID, ReviewCount: count}
	if count > 0 {
		rating.Rating = float64(sum) / float64(count)
	}
	for _, p := range r.s.providers {
		if p.ID == providerID {
			p.Rating = rating.Rating
			p.ReviewCount = rating.ReviewCount
		}
	}
	return rating
}

func (r reviewRepo) List(_ context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Review
	for i := len(r.s.reviews) - 1; i >= 0; i-- {
		rv := r.s.reviews[i]
		if filter.ProviderID != "" && rv.ProviderID != filter.ProviderID {
			continue
		}
		if filter.ServiceID != "" && rv.ServiceID != filter.ServiceID {
			continue
		}
		if filter.UserID != "" && rv.UserID != filter.UserID {
			continue
		}
		cp := *rv
		out = append(out, &cp)
	}
	return out, nil
}

func (r reviewRepo) RecomputeProviderRating(_ context.Context, providerID string) (*entities.ProviderRating, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.providers {
		if p.ID == providerID {
			return r.recomputeLocked(providerID), nil
		}
	}
	return nil, apperrors.NewNotFoundError("provider not found")
}

// Collaborators

type recordingBus struct {
	mu     sync.Mutex
	events []*entities.MarketplaceEvent
}

func (b *recordingBus) Publish(_ context.Context, channel string, event *entities.MarketplaceEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if channel == "marketplace:events" {
		b.events = append(b.events, event)
	}
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan *entities.MarketplaceEvent, error) {
	return make(chan *entities.MarketplaceEvent), nil
}

func (b *recordingBus) Unsubscribe(context.Context, string) error { return nil }
func (b *recordingBus) Close() error                              { return nil }

func (b *recordingBus) types() []entities.MarketplaceEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.MarketplaceEventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType)
	}
	return out
}

type recordingSender struct {
	mu   sync.Mutex
	sent []entities.EmailMessage
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg entities.EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSender) messages() []entities.EmailMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.EmailMessage(nil), s.sent...)
}

type MockImageUploader struct {
	mock.Mock
}

func (m *MockImageUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	args := m.Called(ctx, data, filename)
	return args.String(0), args.Error(1)
}

type MockSearchRepository struct {
	mock.Mock
}

func (m *MockSearchRepository) Search(ctx context.Context, params repositories.SearchParams) ([]*entities.Service, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Service), args.Error(1)
}

func (m *MockSearchRepository) Index(ctx context.Context, service *entities.Service, rating *entities.ProviderRating) error {
	args := m.Called(ctx, service, rating)
	return args.Error(0)
}

func (m *MockSearchRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockReindexer struct {
	mock.Mock
}

func (m *MockReindexer) ReindexProvider(ctx context.Context, providerID string, rating *entities.ProviderRating) error {
	args := m.Called(ctx, providerID, rating)
	return args.Error(0)
}

var errBoom = errors.New("boom")
