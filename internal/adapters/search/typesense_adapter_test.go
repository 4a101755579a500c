package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/internal/domain/entities"
	"github.com/zatekoja/servicehub/internal/domain/repositories"
)

func TestBuildServiceTags(t *testing.T) {
	tags := buildServiceTags(&entities.Service{
		Title:    "Deep Home Cleaning of Home",
		Category: " Cleaning ",
	})

	assert.Equal(t, []string{"cleaning", "deep", "home"}, tags)
	assert.Nil(t, buildServiceTags(nil))
}

func TestSearchParams(t *testing.T) {
	p := searchParams(repositories.SearchParams{Query: "  plumber ", Category: "Home `Repair`", Page: 0, PerPage: 500})

	assert.Equal(t, "plumber", *p.Q)
	assert.Equal(t, "is_active:=true && category:=`Home Repair`", *p.FilterBy)
	assert.Equal(t, 1, *p.Page)
	assert.Equal(t, maxPerPage, *p.PerPage)

	p = searchParams(repositories.SearchParams{})
	assert.Equal(t, "*", *p.Q)
	assert.Equal(t, defaultPerPage, *p.PerPage)
}

func TestServiceDocumentRoundTrip(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service := &entities.Service{
		ID:         "s-1",
		ProviderID: "p-1",
		Title:      "Boiler repair",
		Category:   "Plumbing",
		Price:      80,
		Duration:   90,
		IsActive:   true,
		CreatedAt:  created,
		Provider:   &entities.ProviderRef{ID: "p-1", BusinessName: "Sam's Plumbing"},
	}
	doc := serviceDocument(service, &entities.ProviderRating{ProviderID: "p-1", Rating: 4.5, ReviewCount: 2})

	// Typesense returns JSON numbers as float64.
	decoded := map[string]interface{}{}
	for k, v := range doc {
		switch n := v.(type) {
		case int:
			decoded[k] = float64(n)
		case int64:
			decoded[k] = float64(n)
		default:
			decoded[k] = v
		}
	}

	got := serviceFromDocument(decoded)
	require.NotNil(t, got.Provider)
	assert.Equal(t, "s-1", got.ID)
	assert.Equal(t, 80.0, got.Price)
	assert.Equal(t, 90, got.Duration)
	assert.True(t, got.IsActive)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, 4.5, got.Provider.Rating)
	assert.Equal(t, 2, got.Provider.ReviewCount)
	assert.Equal(t, "Sam's Plumbing", got.Provider.BusinessName)
}
