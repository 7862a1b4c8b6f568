package api

import (
	"database/sql"
	"fmt"
	"net/http"
	"strconv"

	"github.com/erazemk/darila/internal/model"
	"github.com/erazemk/darila/internal/reservation"
	"github.com/erazemk/darila/internal/store"
)

// multipartOverhead is allowed on top of the screenshot size for form
// boundaries and headers.
const multipartOverhead = 1 << 20

// ItemsHandler handles item listing and editing endpoints.
type ItemsHandler struct {
	DB          *sql.DB
	Coordinator *reservation.Coordinator
	MaxUpload   int64
}

type createItemRequest struct {
	Title         string `json:"title"`
	Category      string `json:"category"`
	ScreenshotRef string `json:"screenshot_ref"`
}

type updateItemRequest struct {
	Title    string `json:"title"`
	Category string `json:"category"`
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

// List handles GET /api/items. Hidden items of other owners are only listed
// for admins asking for them with include_hidden=true.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	q := r.URL.Query()

	f := store.ItemFilter{
		Status:    model.Status(q.Get("status")),
		Category:  q.Get("category"),
		VisibleTo: actor.ID,
	}
	if f.Status != "" && !f.Status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if owner := q.Get("owner"); owner != "" {
		id, err := strconv.ParseInt(owner, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid owner id")
			return
		}
		f.OwnerID = id
	}
	if q.Get("include_hidden") == "true" && actor.IsAdmin() {
		f.IncludeHidden = true
	}

	listings, err := store.ListItems(r.Context(), h.DB, f)
	if err != nil {
		coreError(w, err)
		return
	}
	if listings == nil {
		listings = []model.Listing{}
	}
	jsonResponse(w, http.StatusOK, listings)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Coordinator.SubmitItem(r.Context(), actorFrom(r), req.Title, req.Category, req.ScreenshotRef)
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, l)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, ok := h.visibleListing(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Coordinator.UpdateItem(r.Context(), id, req.Title, req.Category, actorFrom(r))
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// SetVisibility handles PUT /api/items/{id}/visibility.
func (h *ItemsHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req visibilityRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	l, err := h.Coordinator.SetVisibility(r.Context(), id, req.Visibility, actorFrom(r))
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// UploadScreenshot handles PUT /api/items/{id}/screenshot. The image is sent
// as the "screenshot" field of a multipart form.
func (h *ItemsHandler) UploadScreenshot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload+multipartOverhead)
	if err := r.ParseMultipartForm(h.MaxUpload + multipartOverhead); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("screenshot")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "screenshot file required")
		return
	}
	defer file.Close()

	l, err := h.Coordinator.UploadScreenshot(r.Context(), id, file, actorFrom(r))
	if err != nil {
		coreError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, l)
}

// GetScreenshot handles GET /api/items/{id}/screenshot.
func (h *ItemsHandler) GetScreenshot(w http.ResponseWriter, r *http.Request) {
	l, ok := h.visibleListing(w, r)
	if !ok {
		return
	}

	data, mime, err := store.GetScreenshot(r.Context(), h.DB, l.Item.ID)
	if err != nil {
		coreError(w, err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no screenshot")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.Write(data)
}

// History handles GET /api/items/{id}/history. Only the owner and admins
// may read an item's audit trail.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	l, ok := h.visibleListing(w, r)
	if !ok {
		return
	}
	if !l.ManagedBy(actorFrom(r)) {
		jsonError(w, http.StatusForbidden, "only the owner may view item history")
		return
	}

	entries, err := store.ListAudit(r.Context(), h.DB, store.AuditFilter{
		TargetType: model.TargetItem,
		TargetID:   l.Item.ID,
	})
	if err != nil {
		coreError(w, err)
		return
	}
	if entries == nil {
		entries = []model.AuditEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

// visibleListing loads the {id} item, answering 404 when it does not exist
// or is hidden from the caller.
func (h *ItemsHandler) visibleListing(w http.ResponseWriter, r *http.Request) (*model.Listing, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	l, err := store.GetListing(r.Context(), h.DB, id)
	if err != nil {
		coreError(w, err)
		return nil, false
	}
	if !l.VisibleTo(actorFrom(r)) {
		coreError(w, fmt.Errorf("item %d: %w", id, model.ErrNotFound))
		return nil, false
	}
	return l, true
}
