package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/haulquote/internal/imaging"
	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/store"
)

// ItemsHandler handles the line items of quotes.
type ItemsHandler struct {
	DB *sql.DB
}

type createItemRequest struct {
	Link        string           `json:"link" validate:"max=2048"`
	Name        string           `json:"name" validate:"required,max=300"`
	Yuan        *float64         `json:"yuan" validate:"required,gte=0"`
	Type        model.ItemType   `json:"type" validate:"required,oneof=tee hoodie pants shoes accessory custom"`
	WeightGrams *float64         `json:"weightGrams" validate:"omitempty,gte=0"`
	Include     *bool            `json:"include"`
	Status      model.ItemStatus `json:"status" validate:"omitempty,oneof=ordered arrived returning exchanging refunded"`
}

type updateItemRequest struct {
	Link        *string                          `json:"link" validate:"omitempty,max=2048"`
	Name        *string                          `json:"name" validate:"omitempty,min=1,max=300"`
	Yuan        *float64                         `json:"yuan" validate:"omitempty,gte=0"`
	Type        *model.ItemType                  `json:"type" validate:"omitempty,oneof=tee hoodie pants shoes accessory custom"`
	WeightGrams model.Nullable[float64]          `json:"weightGrams"`
	Include     *bool                            `json:"include"`
	Status      model.Nullable[model.ItemStatus] `json:"status"`
}

type reorderRequest struct {
	ItemIDs []string `json:"itemIds" validate:"required,min=1,dive,required"`
}

// Create handles POST /api/quotes/{id}/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if !decodeValid(w, r, &req) {
		return
	}

	include := true
	if req.Include != nil {
		include = *req.Include
	}

	item, err := store.CreateItem(r.Context(), h.DB, r.PathValue("id"), store.NewItem{
		Link:        req.Link,
		Name:        req.Name,
		Yuan:        *req.Yuan,
		Type:        req.Type,
		WeightGrams: req.WeightGrams,
		Include:     include,
		Status:      req.Status,
	})
	if err != nil {
		serverError(w, "failed to create item", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "quote not found")
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/items/{id}. A null weightGrams or status clears it.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.WeightGrams.Valid && req.WeightGrams.Value < 0 {
		jsonError(w, http.StatusBadRequest, "weightGrams must be at least 0")
		return
	}
	if req.Status.Valid && !req.Status.Value.Valid() {
		jsonError(w, http.StatusBadRequest, "status must be one of: ordered, arrived, returning, exchanging, refunded")
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, r.PathValue("id"), store.ItemUpdate{
		Link:        req.Link,
		Name:        req.Name,
		Yuan:        req.Yuan,
		Type:        req.Type,
		WeightGrams: req.WeightGrams,
		Include:     req.Include,
		Status:      req.Status,
	})
	if err != nil {
		serverError(w, "failed to update item", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := store.DeleteItem(r.Context(), h.DB, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	if err != nil {
		serverError(w, "failed to delete item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reorder handles PUT /api/quotes/{id}/items/order.
func (h *ItemsHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decodeValid(w, r, &req) {
		return
	}

	quoteID := r.PathValue("id")
	q, err := store.GetQuote(r.Context(), h.DB, quoteID)
	if err != nil {
		serverError(w, "failed to get quote", err)
		return
	}
	if q == nil {
		jsonError(w, http.StatusNotFound, "quote not found")
		return
	}

	err = store.ReorderItems(r.Context(), h.DB, quoteID, req.ItemIDs)
	if errors.Is(err, store.ErrItemNotInQuote) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		serverError(w, "failed to reorder items", err)
		return
	}

	q, err = store.GetQuote(r.Context(), h.DB, quoteID)
	if err != nil {
		serverError(w, "failed to get quote", err)
		return
	}
	jsonResponse(w, http.StatusOK, newQuoteView(q))
}

// UploadImage handles PUT /api/items/{id}/image with a multipart "image" file.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		serverError(w, "failed to get item", err)
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	// Leave room for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		jsonError(w, http.StatusRequestEntityTooLarge, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "image too large")
		return
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		jsonError(w, http.StatusBadRequest, "image must be JPEG, PNG, or WebP")
		return
	case err != nil:
		jsonError(w, http.StatusBadRequest, "could not read image")
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, photo.Data, photo.MIME); err != nil {
		serverError(w, "failed to save image", err)
		return
	}

	slog.Info("item image uploaded", "user", GetClaims(r.Context()).Username, "item", id, "width", photo.Width, "height", photo.Height)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		serverError(w, "failed to get image", err)
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
