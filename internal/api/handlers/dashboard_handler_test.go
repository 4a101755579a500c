package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/api/handlers"
)

func TestDashboardHandler_Dashboard(t *testing.T) {
	handler := handlers.NewDashboardHandler()

	w := httptest.NewRecorder()
	handler.Dashboard(w, asPrincipal(httptest.NewRequest(http.MethodGet, "/dashboard/provider", nil), acme))

	require.Equal(t, http.StatusOK, w.Code)
	user := decodeBody(t, w.Body)["user"].(map[string]interface{})
	assert.Equal(t, acme.ID, user["_id"])
	assert.Equal(t, "provider", user["role"])
}
