package handlers

import (
	"net/http"

	"github.com/zatekoja/servicehub/internal/domain/entities"
)

// DashboardHandler answers the role dashboards. Routing and redirects are the
// access gate's job; by the time a request lands here the role matches.
type DashboardHandler struct{}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Dashboard handles GET /dashboard/user and GET /dashboard/provider
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	p, err := principal(r)
	if err != nil {
		respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": entities.PrincipalSummary{
			ID:    p.ID,
			Email: p.Email,
			Role:  p.Role,
		},
	})
}
