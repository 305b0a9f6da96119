package web

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/haulquote/internal/config"
	"github.com/erazemk/haulquote/internal/export"
	"github.com/erazemk/haulquote/internal/model"
	"github.com/erazemk/haulquote/internal/quote"
	"github.com/erazemk/haulquote/internal/store"
)

type quotesPage struct {
	PageData
	Search string
	Quotes []quoteRow
}

type quoteRow struct {
	model.Quote
	GrandTotal float64
}

type quotePage struct {
	PageData
	Quote         *model.Quote
	Totals        quote.Totals
	NetTotal      float64
	Missing       []model.Item
	Message       string
	QuoteStatuses []model.QuoteStatus
	ItemTypes     []model.ItemType
	ItemStatuses  []model.ItemStatus
}

// QuotesPage handles GET / with an optional ?search= filter.
func (s *Server) QuotesPage(w http.ResponseWriter, r *http.Request) {
	s.renderQuotes(w, r, http.StatusOK, "")
}

func (s *Server) renderQuotes(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	search := strings.TrimSpace(r.URL.Query().Get("search"))
	quotes, err := store.ListQuotes(r.Context(), s.DB, search)
	if err != nil {
		slog.Error("failed to list quotes", "error", err)
	}

	rows := make([]quoteRow, 0, len(quotes))
	for i := range quotes {
		rows = append(rows, quoteRow{Quote: quotes[i], GrandTotal: quote.ComputeTotals(&quotes[i]).GrandTotal})
	}

	data := &quotesPage{PageData: s.page(r, "Quotes"), Search: search, Quotes: rows}
	data.Error = errMsg
	s.Templates.RenderStatus(w, status, "quotes.html", data)
}

// QuoteCreateSubmit handles POST /quotes.
func (s *Server) QuoteCreateSubmit(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.FormValue("customer_name"))
	if name == "" {
		s.renderQuotes(w, r, http.StatusBadRequest, "Enter a customer name.")
		return
	}

	q, err := store.CreateQuote(r.Context(), s.DB, store.NewQuote{
		CustomerName:   name,
		CustomerHandle: strings.TrimSpace(r.FormValue("customer_handle")),
		Pricing:        s.Pricing,
	})
	if err != nil {
		slog.Error("failed to create quote", "error", err)
		http.Error(w, "failed to create quote", http.StatusInternalServerError)
		return
	}

	slog.Info("quote created", "user", GetWebClaims(r.Context()).Username, "quote", q.ID)
	http.Redirect(w, r, "/quotes/"+q.ID, http.StatusSeeOther)
}

// loadQuote fetches the quote named by the {id} path value. It writes an
// error response and returns nil when the quote cannot be loaded.
func (s *Server) loadQuote(w http.ResponseWriter, r *http.Request) *model.Quote {
	q, err := store.GetQuote(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get quote", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil
	}
	if q == nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return nil
	}
	return q
}

// QuotePage handles GET /quotes/{id}.
func (s *Server) QuotePage(w http.ResponseWriter, r *http.Request) {
	if q := s.loadQuote(w, r); q != nil {
		s.renderQuote(w, r, http.StatusOK, q, "")
	}
}

func (s *Server) renderQuote(w http.ResponseWriter, r *http.Request, status int, q *model.Quote, errMsg string) {
	totals := quote.ComputeTotals(q)
	data := &quotePage{
		PageData:      s.page(r, q.CustomerName),
		Quote:         q,
		Totals:        totals,
		NetTotal:      totals.NetTotal(),
		Missing:       quote.MissingWeights(q),
		Message:       quote.FormatMessage(q, totals),
		QuoteStatuses: model.QuoteStatuses,
		ItemTypes:     model.ItemTypes,
		ItemStatuses:  model.ItemStatuses,
	}
	data.Error = errMsg
	s.Templates.RenderStatus(w, status, "quote.html", data)
}

// QuoteUpdateSubmit handles POST /quotes/{id}: customer details, status,
// notes and pricing settings.
func (s *Server) QuoteUpdateSubmit(w http.ResponseWriter, r *http.Request) {
	q := s.loadQuote(w, r)
	if q == nil {
		return
	}

	fail := func(msg string) {
		s.renderQuote(w, r, http.StatusBadRequest, q, msg)
	}

	name := strings.TrimSpace(r.FormValue("customer_name"))
	if name == "" {
		fail("Customer name must not be empty.")
		return
	}
	status := model.QuoteStatus(r.FormValue("status"))
	if !status.Valid() {
		fail("Unknown quote status.")
		return
	}

	var p model.Pricing
	for _, f := range []struct {
		field string
		dst   *float64
	}{
		{"exchange_rate", &p.ExchangeRate},
		{"fixed_fee_usd", &p.FixedFeeUSD},
		{"shipping_per_kg_usd", &p.ShippingPerKgUSD},
		{"insurance_percent", &p.InsuranceRate},
		{"haul_fee_usd", &p.HaulFeeUSD},
	} {
		v, err := formFloat(r, f.field)
		if err != nil {
			fail(capitalize(err.Error()) + ".")
			return
		}
		*f.dst = v
	}
	// The form shows insurance as a percentage.
	p.InsuranceRate /= 100
	if err := config.ValidatePricing(p); err != nil {
		fail(capitalize(err.Error()) + ".")
		return
	}

	handle := strings.TrimSpace(r.FormValue("customer_handle"))
	orderID := strings.TrimSpace(r.FormValue("order_id"))
	notes := r.FormValue("notes")
	_, err := store.UpdateQuote(r.Context(), s.DB, q.ID, store.QuoteUpdate{
		CustomerName:     &name,
		CustomerHandle:   &handle,
		OrderID:          &orderID,
		Status:           &status,
		Notes:            &notes,
		ExchangeRate:     &p.ExchangeRate,
		FixedFeeUSD:      &p.FixedFeeUSD,
		ShippingPerKgUSD: &p.ShippingPerKgUSD,
		InsuranceRate:    &p.InsuranceRate,
		HaulFeeUSD:       &p.HaulFeeUSD,
	})
	if err != nil {
		slog.Error("failed to update quote", "error", err)
		http.Error(w, "failed to update quote", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/quotes/"+q.ID, http.StatusSeeOther)
}

// QuoteDuplicateSubmit handles POST /quotes/{id}/duplicate.
func (s *Server) QuoteDuplicateSubmit(w http.ResponseWriter, r *http.Request) {
	dup, err := store.DuplicateQuote(r.Context(), s.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to duplicate quote", "error", err)
		http.Error(w, "failed to duplicate quote", http.StatusInternalServerError)
		return
	}
	if dup == nil {
		http.Error(w, "quote not found", http.StatusNotFound)
		return
	}
	http.Redirect(w, r, "/quotes/"+dup.ID, http.StatusSeeOther)
}

// QuoteDeleteSubmit handles POST /quotes/{id}/delete.
func (s *Server) QuoteDeleteSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteQuote(r.Context(), s.DB, id); err != nil && !isNotFound(err) {
		slog.Error("failed to delete quote", "error", err)
		http.Error(w, "failed to delete quote", http.StatusInternalServerError)
		return
	}

	slog.Info("quote deleted", "user", GetWebClaims(r.Context()).Username, "quote", id)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// QuoteExport handles GET /quotes/{id}/export.json and /quotes/{id}/export.csv.
func (s *Server) QuoteExport(ext, contentType string, write func(io.Writer, *model.Quote, quote.Totals) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := s.loadQuote(w, r)
		if q == nil {
			return
		}

		var buf bytes.Buffer
		if err := write(&buf, q, quote.ComputeTotals(q)); err != nil {
			slog.Error("failed to export quote", "error", err)
			http.Error(w, "failed to export quote", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(q, ext)))
		w.Write(buf.Bytes())
	}
}

// formFloat parses a required numeric form field.
func formFloat(r *http.Request, field string) (float64, error) {
	raw := strings.TrimSpace(r.FormValue(field))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", strings.ReplaceAll(field, "_", " "))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s must be a number", strings.ReplaceAll(field, "_", " "))
	}
	return v, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
