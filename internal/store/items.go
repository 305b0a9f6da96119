package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/haulquote/internal/model"
)

const itemColumns = `id, quote_id, link, name, yuan, type, weight_grams, include, status, position,
	image IS NOT NULL, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var weight sql.NullFloat64
	var status sql.NullString
	err := s.Scan(&item.ID, &item.QuoteID, &item.Link, &item.Name, &item.Yuan, &item.Type,
		&weight, &item.Include, &status, &item.Position, &item.HasImage, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if weight.Valid {
		w := weight.Float64
		item.WeightGrams = &w
	}
	item.Status = model.ItemStatus(status.String)
	return item, nil
}

func nullStatus(s model.ItemStatus) sql.NullString {
	return sql.NullString{String: string(s), Valid: s != model.ItemStatusNone}
}

// NewItem holds the fields of an item to create.
type NewItem struct {
	Link        string
	Name        string
	Yuan        float64
	Type        model.ItemType
	WeightGrams *float64
	Include     bool
	Status      model.ItemStatus
}

// CreateItem appends an item to the end of a quote. It returns nil if the
// quote does not exist.
func CreateItem(ctx context.Context, db *sql.DB, quoteID string, ni NewItem) (*model.Item, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE id = ?`, quoteID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking quote: %w", err)
	}
	if exists == 0 {
		return nil, nil
	}

	var position int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM items WHERE quote_id = ?`, quoteID,
	).Scan(&position)
	if err != nil {
		return nil, fmt.Errorf("getting next position: %w", err)
	}

	id := newID()
	ts := now()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (id, quote_id, link, name, yuan, type, weight_grams, include, status, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, quoteID, ni.Link, ni.Name, ni.Yuan, string(ni.Type), ni.WeightGrams, ni.Include, nullStatus(ni.Status), position, ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	if err := touchQuote(ctx, tx, quoteID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, db *sql.DB, id string) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// listItems returns the items of a quote in position order.
func listItems(ctx context.Context, q querier, quoteID string) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE quote_id = ? ORDER BY position, created_at`, quoteID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ItemUpdate holds the fields to change. Nil pointers and unset Nullable
// fields are left as they are; a set-but-null Nullable clears the column.
type ItemUpdate struct {
	Link        *string
	Name        *string
	Yuan        *float64
	Type        *model.ItemType
	WeightGrams model.Nullable[float64]
	Include     *bool
	Status      model.Nullable[model.ItemStatus]
}

// UpdateItem applies a partial update and returns the item, or nil if it
// does not exist.
func UpdateItem(ctx context.Context, db *sql.DB, id string, upd ItemUpdate) (*model.Item, error) {
	var set setClause
	if upd.Link != nil {
		set.add("link", *upd.Link)
	}
	if upd.Name != nil {
		set.add("name", *upd.Name)
	}
	if upd.Yuan != nil {
		set.add("yuan", *upd.Yuan)
	}
	if upd.Type != nil {
		set.add("type", string(*upd.Type))
	}
	if upd.WeightGrams.Set {
		set.add("weight_grams", upd.WeightGrams.Ptr())
	}
	if upd.Include != nil {
		set.add("include", *upd.Include)
	}
	if upd.Status.Set {
		set.add("status", nullStatus(upd.Status.Value))
	}
	set.add("updated_at", now())

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var quoteID string
	err = tx.QueryRowContext(ctx, `SELECT quote_id FROM items WHERE id = ?`, id).Scan(&quoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item quote: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE items SET `+set.String()+` WHERE id = ?`, append(set.args, id)...); err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if err := touchQuote(ctx, tx, quoteID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// DeleteItem removes an item from its quote.
func DeleteItem(ctx context.Context, db *sql.DB, id string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var quoteID string
	err = tx.QueryRowContext(ctx, `SELECT quote_id FROM items WHERE id = ?`, id).Scan(&quoteID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("getting item quote: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if err := touchQuote(ctx, tx, quoteID); err != nil {
		return err
	}
	return tx.Commit()
}

// ReorderItems sets the position of each listed item to its index in
// itemIDs. Either every position is written or none is.
func ReorderItems(ctx context.Context, db *sql.DB, quoteID string, itemIDs []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i, id := range itemIDs {
		result, err := tx.ExecContext(ctx,
			`UPDATE items SET position = ? WHERE id = ? AND quote_id = ?`,
			i, id, quoteID,
		)
		if err != nil {
			return fmt.Errorf("reordering items: %w", err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrItemNotInQuote, id)
		}
	}

	if err := touchQuote(ctx, tx, quoteID); err != nil {
		return err
	}
	return tx.Commit()
}

// SetItemImage stores a reference photo for an item.
func SetItemImage(ctx context.Context, db *sql.DB, id string, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = ? WHERE id = ?`,
		image, mime, now(), id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItemImage returns an item's photo and its MIME type. Both are empty if
// the item has no photo.
func GetItemImage(ctx context.Context, db *sql.DB, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}
