package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/erazemk/haulquote/internal/store"
)

// CustomersHandler handles the customer directory.
type CustomersHandler struct {
	DB *sql.DB
}

type createCustomerRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	DiscordHandle string `json:"discordHandle" validate:"max=100"`
}

type updateCustomerRequest struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=200"`
	DiscordHandle *string `json:"discordHandle" validate:"omitempty,max=100"`
}

// List handles GET /api/customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := store.ListCustomers(r.Context(), h.DB)
	if err != nil {
		serverError(w, "failed to list customers", err)
		return
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Create handles POST /api/customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeValid(w, r, &req) {
		return
	}

	customer, err := store.CreateCustomer(r.Context(), h.DB, req.Name, req.DiscordHandle)
	if err != nil {
		serverError(w, "failed to create customer", err)
		return
	}
	jsonResponse(w, http.StatusCreated, customer)
}

// Update handles PUT /api/customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateCustomerRequest
	if !decodeValid(w, r, &req) {
		return
	}

	customer, err := store.UpdateCustomer(r.Context(), h.DB, r.PathValue("id"), store.CustomerUpdate{
		Name:          req.Name,
		DiscordHandle: req.DiscordHandle,
	})
	if err != nil {
		serverError(w, "failed to update customer", err)
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

// Delete handles DELETE /api/customers/{id}.
func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := store.DeleteCustomer(r.Context(), h.DB, r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		serverError(w, "failed to delete customer", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
