package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/haulquote/internal/model"
)

const quoteColumns = `id, customer_name, customer_handle, order_id, customer_id, status, notes,
	exchange_rate, fixed_fee_usd, shipping_per_kg_usd, insurance_rate, haul_fee_usd,
	created_at, updated_at`

func scanQuote(s rowScanner) (*model.Quote, error) {
	q := &model.Quote{}
	var customerID sql.NullString
	err := s.Scan(&q.ID, &q.CustomerName, &q.CustomerHandle, &q.OrderID, &customerID, &q.Status, &q.Notes,
		&q.ExchangeRate, &q.FixedFeeUSD, &q.ShippingPerKgUSD, &q.InsuranceRate, &q.HaulFeeUSD,
		&q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if customerID.Valid {
		id := customerID.String
		q.CustomerID = &id
	}
	return q, nil
}

// NewQuote holds the fields of a quote to create. Pricing must already have
// its defaults applied.
type NewQuote struct {
	CustomerName   string
	CustomerHandle string
	OrderID        string
	CustomerID     *string
	Status         model.QuoteStatus
	Notes          string
	Pricing        model.Pricing
}

// CreateQuote creates a quote with no items. When CustomerID is set, the
// customer's name and handle fill in whichever of CustomerName and
// CustomerHandle are empty; an unknown customer yields ErrNotFound.
func CreateQuote(ctx context.Context, db *sql.DB, nq NewQuote) (*model.Quote, error) {
	if nq.CustomerID != nil {
		c, err := GetCustomer(ctx, db, *nq.CustomerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("customer %s: %w", *nq.CustomerID, ErrNotFound)
		}
		if nq.CustomerName == "" {
			nq.CustomerName = c.Name
		}
		if nq.CustomerHandle == "" {
			nq.CustomerHandle = c.DiscordHandle
		}
	}
	if nq.Status == "" {
		nq.Status = model.QuoteStatusDraft
	}

	id := newID()
	if err := insertQuote(ctx, db, id, nq); err != nil {
		return nil, err
	}
	return GetQuote(ctx, db, id)
}

func insertQuote(ctx context.Context, q querier, id string, nq NewQuote) error {
	ts := now()
	p := nq.Pricing
	_, err := q.ExecContext(ctx,
		`INSERT INTO quotes (id, customer_name, customer_handle, order_id, customer_id, status, notes,
		   exchange_rate, fixed_fee_usd, shipping_per_kg_usd, insurance_rate, haul_fee_usd,
		   created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, nq.CustomerName, nq.CustomerHandle, nq.OrderID, nq.CustomerID, string(nq.Status), nq.Notes,
		p.ExchangeRate, p.FixedFeeUSD, p.ShippingPerKgUSD, p.InsuranceRate, p.HaulFeeUSD,
		ts, ts,
	)
	if err != nil {
		return fmt.Errorf("creating quote: %w", err)
	}
	return nil
}

// GetQuote returns a quote by ID with its items in position order.
func GetQuote(ctx context.Context, db *sql.DB, id string) (*model.Quote, error) {
	return getQuote(ctx, db, id)
}

func getQuote(ctx context.Context, db querier, id string) (*model.Quote, error) {
	q, err := scanQuote(db.QueryRowContext(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting quote: %w", err)
	}

	q.Items, err = listItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	return q, nil
}

// ListQuotes returns quotes with their items, most recently updated first.
// A non-empty search matches customer name, handle or order ID, ignoring
// case.
func ListQuotes(ctx context.Context, db *sql.DB, search string) ([]model.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes`
	var args []any
	if search != "" {
		pattern := likePattern(search)
		query += ` WHERE customer_name LIKE ? ESCAPE '\'
		   OR customer_handle LIKE ? ESCAPE '\'
		   OR order_id LIKE ? ESCAPE '\'`
		args = append(args, pattern, pattern, pattern)
	}
	query += ` ORDER BY updated_at DESC, rowid DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing quotes: %w", err)
	}

	quotes := []model.Quote{}
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("listing quotes: %w", err)
	}
	rows.Close()

	// Items are loaded after the quote cursor is closed so a single-connection
	// pool does not deadlock.
	for i := range quotes {
		quotes[i].Items, err = listItems(ctx, db, quotes[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return quotes, nil
}

// QuoteUpdate holds the fields to change. Nil pointers and an unset
// CustomerID are left as they are; a null CustomerID unlinks the customer.
type QuoteUpdate struct {
	CustomerName     *string
	CustomerHandle   *string
	OrderID          *string
	CustomerID       model.Nullable[string]
	Status           *model.QuoteStatus
	Notes            *string
	ExchangeRate     *float64
	FixedFeeUSD      *float64
	ShippingPerKgUSD *float64
	InsuranceRate    *float64
	HaulFeeUSD       *float64
}

// UpdateQuote applies a partial update and returns the quote, or nil if it
// does not exist. Linking an unknown customer yields ErrNotFound.
func UpdateQuote(ctx context.Context, db *sql.DB, id string, upd QuoteUpdate) (*model.Quote, error) {
	var set setClause
	if upd.CustomerName != nil {
		set.add("customer_name", *upd.CustomerName)
	}
	if upd.CustomerHandle != nil {
		set.add("customer_handle", *upd.CustomerHandle)
	}
	if upd.OrderID != nil {
		set.add("order_id", *upd.OrderID)
	}
	if upd.CustomerID.Set {
		if upd.CustomerID.Valid {
			c, err := GetCustomer(ctx, db, upd.CustomerID.Value)
			if err != nil {
				return nil, err
			}
			if c == nil {
				return nil, fmt.Errorf("customer %s: %w", upd.CustomerID.Value, ErrNotFound)
			}
		}
		set.add("customer_id", upd.CustomerID.Ptr())
	}
	if upd.Status != nil {
		set.add("status", string(*upd.Status))
	}
	if upd.Notes != nil {
		set.add("notes", *upd.Notes)
	}
	if upd.ExchangeRate != nil {
		set.add("exchange_rate", *upd.ExchangeRate)
	}
	if upd.FixedFeeUSD != nil {
		set.add("fixed_fee_usd", *upd.FixedFeeUSD)
	}
	if upd.ShippingPerKgUSD != nil {
		set.add("shipping_per_kg_usd", *upd.ShippingPerKgUSD)
	}
	if upd.InsuranceRate != nil {
		set.add("insurance_rate", *upd.InsuranceRate)
	}
	if upd.HaulFeeUSD != nil {
		set.add("haul_fee_usd", *upd.HaulFeeUSD)
	}
	set.add("updated_at", now())

	result, err := db.ExecContext(ctx,
		`UPDATE quotes SET `+set.String()+` WHERE id = ?`,
		append(set.args, id)...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating quote: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return GetQuote(ctx, db, id)
}

// DeleteQuote removes a quote and all of its items.
func DeleteQuote(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting quote: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DuplicateQuote copies a quote with its pricing, customer fields, notes and
// items. The copy is a draft and its name is suffixed with " (Copy)". It
// returns nil if the source does not exist.
func DuplicateQuote(ctx context.Context, db *sql.DB, id string) (*model.Quote, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	src, err := getQuote(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, nil
	}

	copyID := newID()
	err = insertQuote(ctx, tx, copyID, NewQuote{
		CustomerName:   src.CustomerName + " (Copy)",
		CustomerHandle: src.CustomerHandle,
		OrderID:        src.OrderID,
		CustomerID:     src.CustomerID,
		Status:         model.QuoteStatusDraft,
		Notes:          src.Notes,
		Pricing:        src.Pricing,
	})
	if err != nil {
		return nil, err
	}

	ts := now()
	for _, item := range src.Items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (id, quote_id, link, name, yuan, type, weight_grams, include, status, position,
			   image, image_mime, created_at, updated_at)
			 SELECT ?, ?, link, name, yuan, type, weight_grams, include, status, position,
			   image, image_mime, ?, ?
			 FROM items WHERE id = ?`,
			newID(), copyID, ts, ts, item.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("copying item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing duplicate: %w", err)
	}
	return GetQuote(ctx, db, copyID)
}

// touchQuote bumps a quote's updated_at.
func touchQuote(ctx context.Context, q querier, id string) error {
	if _, err := q.ExecContext(ctx, `UPDATE quotes SET updated_at = ? WHERE id = ?`, now(), id); err != nil {
		return fmt.Errorf("touching quote: %w", err)
	}
	return nil
}
