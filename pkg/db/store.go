package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DateLayout is the storage format of calendar-day columns.
const DateLayout = "2006-01-02"

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store provides owner-scoped access to the ledger tables.
// Every read filters by the owner and every write carries it.
type Store struct {
	conn    *Connection
	q       queryer
	ownerID string
	now     func() time.Time
}

// NewStore creates a Store scoped to ownerID.
func NewStore(conn *Connection, ownerID string) *Store {
	return &Store{
		conn:    conn,
		q:       conn.db,
		ownerID: ownerID,
		now:     time.Now,
	}
}

// OwnerID returns the tenant this store is scoped to.
func (s *Store) OwnerID() string {
	return s.ownerID
}

// ForOwner returns a Store on the same connection scoped to another owner.
func (s *Store) ForOwner(ownerID string) *Store {
	return &Store{conn: s.conn, q: s.q, ownerID: ownerID, now: s.now}
}

// Transaction runs fn with a Store bound to a single database transaction.
// Nested calls on a transactional Store reuse the outer transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	if _, ok := s.q.(*sql.Tx); ok {
		return fn(s)
	}
	return s.conn.Transaction(ctx, func(tx *sql.Tx) error {
		return fn(&Store{conn: s.conn, q: tx, ownerID: s.ownerID, now: s.now})
	})
}

func newID() string {
	return uuid.New().String()
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid stored date %q: %w", s, err)
	}
	return t, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
