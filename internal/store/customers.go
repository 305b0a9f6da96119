package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/haulquote/internal/model"
)

// CreateCustomer creates a new customer.
func CreateCustomer(ctx context.Context, db *sql.DB, name, discordHandle string) (*model.Customer, error) {
	id := newID()
	ts := now()
	_, err := db.ExecContext(ctx,
		`INSERT INTO customers (id, name, discord_handle, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, discordHandle, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}
	return GetCustomer(ctx, db, id)
}

// GetCustomer returns a customer by ID.
func GetCustomer(ctx context.Context, db *sql.DB, id string) (*model.Customer, error) {
	return getCustomer(ctx, db, id)
}

func getCustomer(ctx context.Context, q querier, id string) (*model.Customer, error) {
	c := &model.Customer{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, discord_handle, created_at, updated_at FROM customers WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.DiscordHandle, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all customers ordered by name.
func ListCustomers(ctx context.Context, db *sql.DB) ([]model.Customer, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, discord_handle, created_at, updated_at
		 FROM customers ORDER BY name COLLATE NOCASE, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.DiscordHandle, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// CustomerUpdate holds the fields to change; nil fields are left as they are.
type CustomerUpdate struct {
	Name          *string
	DiscordHandle *string
}

// UpdateCustomer applies a partial update and returns the customer, or nil
// if it does not exist.
func UpdateCustomer(ctx context.Context, db *sql.DB, id string, upd CustomerUpdate) (*model.Customer, error) {
	var set setClause
	if upd.Name != nil {
		set.add("name", *upd.Name)
	}
	if upd.DiscordHandle != nil {
		set.add("discord_handle", *upd.DiscordHandle)
	}
	set.add("updated_at", now())

	result, err := db.ExecContext(ctx,
		`UPDATE customers SET `+set.String()+` WHERE id = ?`,
		append(set.args, id)...,
	)
	if err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}
	return GetCustomer(ctx, db, id)
}

// DeleteCustomer removes a customer. Quotes that referenced it keep their
// copied name and handle and lose the link.
func DeleteCustomer(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE quotes SET customer_id = NULL WHERE customer_id = ?`, id); err != nil {
		return fmt.Errorf("unlinking quotes: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}
