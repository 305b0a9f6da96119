package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/haulquote/internal/imaging"
	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/store"
)

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// ItemCreateSubmit handles POST /quotes/{id}/items.
func (s *Server) ItemCreateSubmit(w http.ResponseWriter, r *http.Request) {
	q := s.loadQuote(w, r)
	if q == nil {
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		s.renderQuote(w, r, http.StatusBadRequest, q, "Enter an item name.")
		return
	}
	itemType := model.ItemType(r.FormValue("type"))
	if !itemType.Valid() {
		s.renderQuote(w, r, http.StatusBadRequest, q, "Unknown item type.")
		return
	}
	yuan, err := formFloat(r, "yuan")
	if err == nil && yuan < 0 {
		err = errors.New("yuan must not be negative")
	}
	if err != nil {
		s.renderQuote(w, r, http.StatusBadRequest, q, capitalize(err.Error())+".")
		return
	}
	weight, err := optionalWeight(r)
	if err != nil {
		s.renderQuote(w, r, http.StatusBadRequest, q, capitalize(err.Error())+".")
		return
	}

	item, err := store.CreateItem(r.Context(), s.DB, q.ID, store.NewItem{
		Link:        strings.TrimSpace(r.FormValue("link")),
		Name:        name,
		Yuan:        yuan,
		Type:        itemType,
		WeightGrams: weight,
		Include:     true,
	})
	if err != nil {
		slog.Error("failed to create item", "error", err)
		http.Error(w, "failed to create item", http.StatusInternalServerError)
		return
	}

	slog.Info("item added", "user", GetWebClaims(r.Context()).Username, "quote", q.ID, "item", item.Name)
	http.Redirect(w, r, "/quotes/"+q.ID, http.StatusSeeOther)
}

// ItemUpdateSubmit handles POST /items/{id}: weight override and status.
// A blank weight clears the override.
func (s *Server) ItemUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	item := s.loadItem(w, r)
	if item == nil {
		return
	}

	weight, err := optionalWeight(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	status := model.ItemStatus(r.FormValue("status"))
	if !status.Valid() {
		http.Error(w, "unknown item status", http.StatusBadRequest)
		return
	}

	upd := store.ItemUpdate{Status: model.NullableOf(status)}
	if status == model.ItemStatusNone {
		upd.Status = model.Null[model.ItemStatus]()
	}
	if weight != nil {
		upd.WeightGrams = model.NullableOf(*weight)
	} else {
		upd.WeightGrams = model.Null[float64]()
	}

	if _, err := store.UpdateItem(r.Context(), s.DB, item.ID, upd); err != nil {
		slog.Error("failed to update item", "error", err)
		http.Error(w, "failed to update item", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/quotes/"+item.QuoteID, http.StatusSeeOther)
}

// ItemToggleSubmit handles POST /items/{id}/toggle, flipping whether the
// item counts toward the totals.
func (s *Server) ItemToggleSubmit(w http.ResponseWriter, r *http.Request) {
	item := s.loadItem(w, r)
	if item == nil {
		return
	}

	include := !item.Include
	if _, err := store.UpdateItem(r.Context(), s.DB, item.ID, store.ItemUpdate{Include: &include}); err != nil {
		slog.Error("failed to toggle item", "error", err)
		http.Error(w, "failed to update item", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/quotes/"+item.QuoteID, http.StatusSeeOther)
}

// ItemDeleteSubmit handles POST /items/{id}/delete.
func (s *Server) ItemDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	item := s.loadItem(w, r)
	if item == nil {
		return
	}

	if err := store.DeleteItem(r.Context(), s.DB, item.ID); err != nil && !isNotFound(err) {
		slog.Error("failed to delete item", "error", err)
		http.Error(w, "failed to delete item", http.StatusInternalServerError)
		return
	}

	slog.Info("item removed", "user", GetWebClaims(r.Context()).Username, "quote", item.QuoteID, "item", item.Name)
	http.Redirect(w, r, "/quotes/"+item.QuoteID, http.StatusSeeOther)
}

// ItemImageSubmit handles POST /items/{id}/image.
func (s *Server) ItemImageSubmit(w http.ResponseWriter, r *http.Request) {
	item := s.loadItem(w, r)
	if item == nil {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(imaging.MaxUploadBytes); err != nil {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "image required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	photo, err := imaging.Process(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := store.SetItemImage(r.Context(), s.DB, item.ID, photo.Data, photo.MIME); err != nil {
		slog.Error("failed to save image", "error", err)
		http.Error(w, "failed to save image", http.StatusInternalServerError)
		return
	}

	slog.Info("item image uploaded", "user", GetWebClaims(r.Context()).Username, "item", item.Name)
	http.Redirect(w, r, "/quotes/"+item.QuoteID, http.StatusSeeOther)
}

// ItemImageGet handles GET /items/{id}/image (web route, cookie-authenticated).
func (s *Server) ItemImageGet(w http.ResponseWriter, r *http.Request) {
	data, mime, err := store.GetItemImage(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get image", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write image response", "error", err)
	}
}

func (s *Server) loadItem(w http.ResponseWriter, r *http.Request) *model.Item {
	item, err := store.GetItem(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get item", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if item == nil {
		http.Error(w, "item not found", http.StatusNotFound)
		return nil
	}
	return item
}

// optionalWeight reads the weight_grams field; blank means no override.
func optionalWeight(r *http.Request) (*float64, error) {
	if strings.TrimSpace(r.FormValue("weight_grams")) == "" {
		return nil, nil
	}
	v, err := formFloat(r, "weight_grams")
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, errors.New("weight grams must not be negative")
	}
	return &v, nil
}
