package routes

import (
	"net/http"

	"github.com/zatekoja/servicehub/internal/api/handlers"
	"github.com/zatekoja/servicehub/internal/api/middleware"
	"github.com/zatekoja/servicehub/internal/infrastructure/observability"
	"github.com/zatekoja/servicehub/internal/loaders"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	authHandler        *handlers.AuthHandler
	serviceHandler     *handlers.ServiceHandler
	bookingHandler     *handlers.BookingHandler
	reviewHandler      *handlers.ReviewHandler
	profileHandler     *handlers.ProfileHandler
	uploadHandler      *handlers.UploadHandler
	dashboardHandler   *handlers.DashboardHandler
	eventStreamHandler *handlers.EventStreamHandler

	accessGate      *middleware.AccessGate
	cacheMiddleware *middleware.CacheMiddleware
	loaders         *loaders.Factory
	allowedOrigins  []string
	metrics         *observability.Metrics
}

// Handlers groups the request handlers mounted by the router
type Handlers struct {
	Auth        *handlers.AuthHandler
	Services    *handlers.ServiceHandler
	Bookings    *handlers.BookingHandler
	Reviews     *handlers.ReviewHandler
	Profiles    *handlers.ProfileHandler
	Upload      *handlers.UploadHandler
	Dashboard   *handlers.DashboardHandler
	EventStream *handlers.EventStreamHandler
}

// NewRouter creates a new router
func NewRouter(
	h Handlers,
	accessGate *middleware.AccessGate,
	cacheMiddleware *middleware.CacheMiddleware,
	loaderFactory *loaders.Factory,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		authHandler:        h.Auth,
		serviceHandler:     h.Services,
		bookingHandler:     h.Bookings,
		reviewHandler:      h.Reviews,
		profileHandler:     h.Profiles,
		uploadHandler:      h.Upload,
		dashboardHandler:   h.Dashboard,
		eventStreamHandler: h.EventStream,

		accessGate:      accessGate,
		cacheMiddleware: cacheMiddleware,
		loaders:         loaderFactory,
		allowedOrigins:  allowedOrigins,
		metrics:         metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	r.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"servicehub","status":"ok"}`))
	})

	// Auth endpoints
	r.mux.HandleFunc("POST /api/register", r.authHandler.Register)
	r.mux.HandleFunc("POST /api/login", r.authHandler.Login)
	r.mux.HandleFunc("POST /api/logout", r.authHandler.Logout)

	// Public catalog
	r.mux.HandleFunc("GET /api/services", r.serviceHandler.ListServices)
	r.mux.HandleFunc("GET /api/services/search", r.serviceHandler.SearchServices)
	r.mux.HandleFunc("GET /api/services/{id}", r.serviceHandler.GetService)
	r.mux.HandleFunc("GET /api/reviews", r.reviewHandler.ListReviews)

	// User endpoints
	r.mux.HandleFunc("POST /api/bookings", r.bookingHandler.CreateBooking)
	r.mux.HandleFunc("GET /api/bookings", r.bookingHandler.ListBookings)
	r.mux.HandleFunc("POST /api/reviews", r.reviewHandler.SubmitReview)
	r.mux.HandleFunc("GET /api/user/profile", r.profileHandler.GetUserProfile)
	r.mux.HandleFunc("PUT /api/user/profile", r.profileHandler.UpdateUserProfile)
	r.mux.HandleFunc("POST /api/upload", r.uploadHandler.Upload)

	// Provider endpoints
	r.mux.HandleFunc("GET /api/provider/services", r.serviceHandler.ListProviderServices)
	r.mux.HandleFunc("POST /api/provider/services", r.serviceHandler.CreateService)
	r.mux.HandleFunc("PUT /api/provider/services", r.serviceHandler.UpdateService)
	r.mux.HandleFunc("PUT /api/provider/services/{id}", r.serviceHandler.UpdateService)
	r.mux.HandleFunc("DELETE /api/provider/services", r.serviceHandler.DeleteService)
	r.mux.HandleFunc("DELETE /api/provider/services/{id}", r.serviceHandler.DeleteService)
	r.mux.HandleFunc("GET /api/provider/bookings", r.bookingHandler.ListProviderBookings)
	r.mux.HandleFunc("PUT /api/provider/bookings", r.bookingHandler.UpdateBookingStatus)
	r.mux.HandleFunc("GET /api/provider/reviews", r.reviewHandler.ListProviderReviews)
	r.mux.HandleFunc("GET /api/provider/profile", r.profileHandler.GetProviderProfile)
	r.mux.HandleFunc("PUT /api/provider/profile", r.profileHandler.UpdateProviderProfile)
	if r.eventStreamHandler != nil {
		r.mux.HandleFunc("GET /api/provider/events", r.eventStreamHandler.StreamProviderEvents)
	}

	// Dashboards
	r.mux.HandleFunc("GET /dashboard/user", r.dashboardHandler.Dashboard)
	r.mux.HandleFunc("GET /dashboard/user/", r.dashboardHandler.Dashboard)
	r.mux.HandleFunc("GET /dashboard/provider", r.dashboardHandler.Dashboard)
	r.mux.HandleFunc("GET /dashboard/provider/", r.dashboardHandler.Dashboard)

	// Apply middleware in reverse order (last middleware wraps first).
	// Nothing between observability and the mux may copy the request: the
	// mux records the matched pattern on the request it is handed.
	var handler http.Handler = r.mux

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ResponseOptimization(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	if r.loaders != nil {
		handler = r.loaders.Middleware(handler)
	}

	handler = r.accessGate.Middleware(handler)
	handler = middleware.LoggingMiddleware(handler)

	// CORS wraps everything so headers are set even on rejected requests
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)
	handler = middleware.RequestID(handler)

	return handler
}
