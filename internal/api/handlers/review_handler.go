package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/servicehub/internal/application/services"
	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// ReviewService defines the review operations used by the handler
type ReviewService interface {
	SubmitReview(ctx context.Context, principal entities.Principal, input services.SubmitReviewInput) (*entities.Review, error)
	ListReviews(ctx context.Context, query services.ReviewQuery) ([]*entities.Review, error)
	ListProviderReviews(ctx context.Context, principal entities.Principal) ([]*entities.Review, error)
}

// ReviewHandler handles review requests
type ReviewHandler struct {
	reviews ReviewService
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(reviews ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// SubmitReview handles POST /api/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	var input services.SubmitReviewInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, r, err)
		return
	}

	review, err := h.reviews.SubmitReview(r.Context(), p, input)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, review)
}

// ListReviews handles GET /api/reviews?providerId=&serviceId=
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, offset, err := pagination(q)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	reviews, err := h.reviews.ListReviews(r.Context(), services.ReviewQuery{
		ProviderID: q.Get("providerId"),
		ServiceID:  q.Get("serviceId"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nonNilReviews(reviews))
}

// ListProviderReviews handles GET /api/provider/reviews
func (h *ReviewHandler) ListProviderReviews(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	reviews, err := h.reviews.ListProviderReviews(r.Context(), p)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, nonNilReviews(reviews))
}

func nonNilReviews(reviews []*entities.Review) []*entities.Review {
	if reviews == nil {
		return []*entities.Review{}
	}
	return reviews
}
