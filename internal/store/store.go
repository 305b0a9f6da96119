// Package store persists users, customers, quotes and their items in SQLite.
//
// Functions return (nil, nil) when a single record is not found. Deletes and
// reorders report missing records through the sentinel errors below.
package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when the record to change does not exist.
	ErrNotFound = errors.New("not found")
	// ErrItemNotInQuote is returned by ReorderItems for an item id that does
	// not belong to the quote.
	ErrItemNotInQuote = errors.New("item does not belong to quote")
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func newID() string {
	return uuid.NewString()
}

// now is truncated to microseconds so values survive a round trip through
// the TEXT timestamp columns unchanged.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// likePattern builds a case-insensitive substring pattern for LIKE ... ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// setClause accumulates the SET part of a partial UPDATE.
type setClause struct {
	cols []string
	args []any
}

func (s *setClause) add(col string, v any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, v)
}

func (s *setClause) String() string {
	return strings.Join(s.cols, ", ")
}
