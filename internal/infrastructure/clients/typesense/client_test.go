package typesense

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/servicehub/pkg/config"
)

func TestServicesSchema(t *testing.T) {
	schema := ServicesSchema()

	assert.Equal(t, ServicesCollection, schema.Name)
	require.NotNil(t, schema.DefaultSortingField)
	assert.Equal(t, "created_at", *schema.DefaultSortingField)

	fields := map[string]string{}
	for _, f := range schema.Fields {
		fields[f.Name] = f.Type
	}
	assert.Equal(t, "float", fields["provider_rating"])
	assert.Equal(t, "string[]", fields["tags"])
	assert.Equal(t, "bool", fields["is_active"])
}

func TestClient_Integration(t *testing.T) {
	if os.Getenv("TYPESENSE_INTEGRATION") != "true" {
		t.Skip("set TYPESENSE_INTEGRATION=true to run against a live Typesense")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, &config.TypesenseConfig{
		URL:    "http://localhost:8108",
		APIKey: "xyz",
	})
	require.NoError(t, err)
	assert.NoError(t, client.InitSchema(ctx))
	assert.NoError(t, client.InitSchema(ctx), "schema init must be idempotent")
}
