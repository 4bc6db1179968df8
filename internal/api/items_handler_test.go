package api_test

import (
	"net/http"
	"testing"

	"github.com/altscribe/altscribe-api/internal/api"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListItems(t *testing.T) {
	e := newTestEnv(t, map[string]string{secrets.WebflowCollectionID: "col"})
	token := e.register(t, "owner@example.com")

	resp := e.do(t, http.MethodGet, "/api/v1/items?limit=1", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[api.ItemsResponse](t, resp)
	require.Len(t, body.Items, 1)
	assert.Equal(t, 2, body.Pagination.Total)

	item := body.Items[0]
	assert.Equal(t, "item_001", item.ID)
	assert.Equal(t, "Test Project 1", item.Name)
	require.Len(t, item.Images, 2)
	assert.Equal(t, api.ImageSlot{
		Field:        "1-after",
		URL:          "https://example.com/image1.jpg",
		AltTextField: "1-after-alt-text",
		AltText:      "Old alt text",
	}, item.Images[0])
	assert.True(t, e.cms.Closed())

	bad := e.do(t, http.MethodGet, "/api/v1/items?limit=-3", token, nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestListItemsRequiresCollection(t *testing.T) {
	e := newTestEnv(t, nil)
	token := e.register(t, "owner@example.com")

	resp := e.do(t, http.MethodGet, "/api/v1/items", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, nil)

	for _, path := range []string{"/health", "/api/v1/health"} {
		resp := e.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[api.HealthResponse](t, resp)
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, "redis", body.Storage)
	}
}
