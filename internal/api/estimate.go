package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/haulquote/internal/estimate"
	"github.com/erazemk/haulquote/internal/model"
)

// EstimateHandler proxies weight estimates to the configured model.
type EstimateHandler struct {
	Client *estimate.Client
}

type estimateRequest struct {
	Name string         `json:"name" validate:"required,max=300"`
	Type model.ItemType `json:"type" validate:"omitempty,oneof=tee hoodie pants shoes accessory custom"`
	Link string         `json:"link" validate:"max=2048"`
}

// Estimate handles POST /api/estimate-weight.
func (h *EstimateHandler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !decodeValid(w, r, &req) {
		return
	}

	res, err := h.Client.Estimate(r.Context(), estimate.Request{
		Name: req.Name,
		Type: string(req.Type),
		Link: req.Link,
	})
	switch {
	case errors.Is(err, estimate.ErrNotConfigured):
		jsonError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		slog.Error("weight estimate failed", "item", req.Name, "error", err)
		jsonError(w, http.StatusBadGateway, "weight estimation failed")
		return
	}

	jsonResponse(w, http.StatusOK, res)
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
