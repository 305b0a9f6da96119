package api

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/haulquote/internal/export"
	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/quote"
	"github.com/erazemk/haulquote/internal/store"
)

// QuotesHandler handles quotes and their derived outputs.
type QuotesHandler struct {
	DB *sql.DB
	// Pricing fills in pricing fields a new quote omits.
	Pricing model.Pricing
}

type quoteRequest struct {
	CustomerName     *string                `json:"customerName" validate:"omitempty,max=200"`
	CustomerHandle   *string                `json:"customerHandle" validate:"omitempty,max=100"`
	OrderID          *string                `json:"orderId" validate:"omitempty,max=100"`
	CustomerID       model.Nullable[string] `json:"customerId"`
	Status           *model.QuoteStatus     `json:"status" validate:"omitempty,oneof=draft sent paid shipped complete"`
	Notes            *string                `json:"notes" validate:"omitempty,max=5000"`
	ExchangeRate     *float64               `json:"exchangeRate" validate:"omitempty,gt=0"`
	FixedFeeUSD      *float64               `json:"fixedFeeUsd" validate:"omitempty,gte=0"`
	ShippingPerKgUSD *float64               `json:"shippingPerKgUsd" validate:"omitempty,gte=0"`
	InsuranceRate    *float64               `json:"insuranceRate" validate:"omitempty,gte=0,lte=1"`
	HaulFeeUSD       *float64               `json:"haulFeeUsd" validate:"omitempty,gte=0"`
}

// quoteView is a quote as the API returns it: stored fields plus the
// derived totals and any pricing warnings.
type quoteView struct {
	*model.Quote
	Totals   quote.Totals `json:"totals"`
	Warnings []string     `json:"warnings"`
}

func newQuoteView(q *model.Quote) quoteView {
	warnings := []string{}
	for _, item := range quote.MissingWeights(q) {
		warnings = append(warnings, fmt.Sprintf("%q is a custom item without a weight and counts as 0 g", item.Name))
	}
	return quoteView{Quote: q, Totals: quote.ComputeTotals(q), Warnings: warnings}
}

// loadQuote fetches the quote named by the {id} path value, writing a 404
// or 500 and returning nil when it cannot.
func (h *QuotesHandler) loadQuote(w http.ResponseWriter, r *http.Request) *model.Quote {
	q, err := store.GetQuote(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		serverError(w, "failed to get quote", err)
		return nil
	}
	if q == nil {
		jsonError(w, http.StatusNotFound, "quote not found")
		return nil
	}
	return q
}

// List handles GET /api/quotes.
func (h *QuotesHandler) List(w http.ResponseWriter, r *http.Request) {
	quotes, err := store.ListQuotes(r.Context(), h.DB, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		serverError(w, "failed to list quotes", err)
		return
	}

	views := make([]quoteView, 0, len(quotes))
	for i := range quotes {
		views = append(views, newQuoteView(&quotes[i]))
	}
	jsonResponse(w, http.StatusOK, views)
}

// Create handles POST /api/quotes.
func (h *QuotesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeValid(w, r, &req) {
		return
	}

	nq := store.NewQuote{
		CustomerName:   deref(req.CustomerName),
		CustomerHandle: deref(req.CustomerHandle),
		OrderID:        deref(req.OrderID),
		CustomerID:     req.CustomerID.Ptr(),
		Notes:          deref(req.Notes),
		Pricing:        h.Pricing,
	}
	if nq.CustomerName == "" && nq.CustomerID == nil {
		jsonError(w, http.StatusBadRequest, "customerName or customerId is required")
		return
	}
	if req.Status != nil {
		nq.Status = *req.Status
	}
	overlay(&nq.Pricing, req)

	q, err := store.CreateQuote(r.Context(), h.DB, nq)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusBadRequest, "customer not found")
		return
	}
	if err != nil {
		serverError(w, "failed to create quote", err)
		return
	}

	slog.Info("quote created", "user", GetClaims(r.Context()).Username, "quote", q.ID)
	jsonResponse(w, http.StatusCreated, newQuoteView(q))
}

// Get handles GET /api/quotes/{id}.
func (h *QuotesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if q := h.loadQuote(w, r); q != nil {
		jsonResponse(w, http.StatusOK, newQuoteView(q))
	}
}

// Update handles PUT /api/quotes/{id}.
func (h *QuotesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.CustomerName != nil && *req.CustomerName == "" {
		jsonError(w, http.StatusBadRequest, "customerName must not be empty")
		return
	}

	q, err := store.UpdateQuote(r.Context(), h.DB, r.PathValue("id"), store.QuoteUpdate{
		CustomerName:     req.CustomerName,
		CustomerHandle:   req.CustomerHandle,
		OrderID:          req.OrderID,
		CustomerID:       req.CustomerID,
		Status:           req.Status,
		Notes:            req.Notes,
		ExchangeRate:     req.ExchangeRate,
		FixedFeeUSD:      req.FixedFeeUSD,
		ShippingPerKgUSD: req.ShippingPerKgUSD,
		InsuranceRate:    req.InsuranceRate,
		HaulFeeUSD:       req.HaulFeeUSD,
	})
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusBadRequest, "customer not found")
		return
	}
	if err != nil {
		serverError(w, "failed to update quote", err)
		return
	}
	if q == nil {
		jsonError(w, http.StatusNotFound, "quote not found")
		return
	}
	jsonResponse(w, http.StatusOK, newQuoteView(q))
}

// Delete handles DELETE /api/quotes/{id}.
func (h *QuotesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := store.DeleteQuote(r.Context(), h.DB, id)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "quote not found")
		return
	}
	if err != nil {
		serverError(w, "failed to delete quote", err)
		return
	}

	slog.Info("quote deleted", "user", GetClaims(r.Context()).Username, "quote", id)
	w.WriteHeader(http.StatusNoContent)
}

// Duplicate handles POST /api/quotes/{id}/duplicate.
func (h *QuotesHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	q, err := store.DuplicateQuote(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		serverError(w, "failed to duplicate quote", err)
		return
	}
	if q == nil {
		jsonError(w, http.StatusNotFound, "quote not found")
		return
	}
	jsonResponse(w, http.StatusCreated, newQuoteView(q))
}

// Totals handles GET /api/quotes/{id}/totals.
func (h *QuotesHandler) Totals(w http.ResponseWriter, r *http.Request) {
	if q := h.loadQuote(w, r); q != nil {
		jsonResponse(w, http.StatusOK, quote.ComputeTotals(q))
	}
}

// Message handles GET /api/quotes/{id}/message.
func (h *QuotesHandler) Message(w http.ResponseWriter, r *http.Request) {
	q := h.loadQuote(w, r)
	if q == nil {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, quote.FormatMessage(q, quote.ComputeTotals(q)))
}

// ExportJSON handles GET /api/quotes/{id}/export.json.
func (h *QuotesHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "json", "application/json", export.WriteJSON)
}

// ExportCSV handles GET /api/quotes/{id}/export.csv.
func (h *QuotesHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "csv", "text/csv; charset=utf-8", export.WriteCSV)
}

type exportFunc func(io.Writer, *model.Quote, quote.Totals) error

func (h *QuotesHandler) export(w http.ResponseWriter, r *http.Request, ext, contentType string, write exportFunc) {
	q := h.loadQuote(w, r)
	if q == nil {
		return
	}

	// Render fully before writing headers so a failure can still be a 500.
	var buf bytes.Buffer
	if err := write(&buf, q, quote.ComputeTotals(q)); err != nil {
		serverError(w, "failed to export quote", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(q, ext)))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// overlay copies the pricing fields present in req onto p.
func overlay(p *model.Pricing, req quoteRequest) {
	if req.ExchangeRate != nil {
		p.ExchangeRate = *req.ExchangeRate
	}
	if req.FixedFeeUSD != nil {
		p.FixedFeeUSD = *req.FixedFeeUSD
	}
	if req.ShippingPerKgUSD != nil {
		p.ShippingPerKgUSD = *req.ShippingPerKgUSD
	}
	if req.InsuranceRate != nil {
		p.InsuranceRate = *req.InsuranceRate
	}
	if req.HaulFeeUSD != nil {
		p.HaulFeeUSD = *req.HaulFeeUSD
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
