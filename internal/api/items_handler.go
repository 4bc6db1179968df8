package api

import (
	"net/http"

	"github.com/altscribe/altscribe-api/internal/api/shared"
	"github.com/altscribe/altscribe-api/internal/domain"
	"github.com/altscribe/altscribe-api/internal/platform/observability"
	"github.com/altscribe/altscribe-api/internal/platform/webflow"
	"github.com/altscribe/altscribe-api/internal/service"
	"github.com/altscribe/altscribe-api/internal/service/secrets"
)

// maxItemsLimit caps the page size a client may request.
const maxItemsLimit = 100

// ItemsHandler lists CMS items so operators can pick what to describe.
type ItemsHandler struct {
	cms  service.CMSProvider
	keys service.KeySource
}

// NewItemsHandler creates an ItemsHandler.
func NewItemsHandler(cms service.CMSProvider, keys service.KeySource) *ItemsHandler {
	return &ItemsHandler{cms: cms, keys: keys}
}

// ListItems handles GET /items?collection_id&limit&offset.
func (h *ItemsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", webflow.DefaultPageSize)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	limit = min(max(limit, 1), maxItemsLimit)

	collectionID := r.URL.Query().Get("collection_id")
	if collectionID == "" {
		collectionID = h.keys.Value(r.Context(), secrets.WebflowCollectionID)
	}
	if collectionID == "" {
		HandleAPIError(w, r, domain.NewValidationError("collection_id", "collection id is required"), "")
		return
	}

	client, err := h.cms.CMS(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	defer func() { _ = client.Close() }()

	timing := observability.StartServerTiming(r.Context(), "cms")
	page, err := client.GetCollectionItems(r.Context(), collectionID, limit, offset)
	timing.Stop()
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	items := make([]ItemSummary, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, newItemSummary(item))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, ItemsResponse{Items: items, Pagination: page.Pagination})
}
