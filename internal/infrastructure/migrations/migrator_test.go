package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(files, dir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		body, err := fs.ReadFile(files, dir+"/"+e.Name())
		require.NoError(t, err)
		assert.Contains(t, string(body), "-- +goose Up", e.Name())
		assert.Contains(t, string(body), "-- +goose Down", e.Name())
	}
}

func TestReviewsAreUniquePerBooking(t *testing.T) {
	body, err := fs.ReadFile(files, dir+"/00003_create_bookings_reviews.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "booking_id  TEXT NOT NULL UNIQUE"))
}
