package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// scope decides which lifecycle states an entity read sees. Reads of
// lifecycle tables build their WHERE clause with scope.where. Forecast
// references have no lifecycle, and softDelete's existence check looks at
// every state on purpose.
type scope int

const (
	activeOnly scope = iota
	allStates
)

// where joins the lifecycle filter with an optional extra condition.
func (s scope) where(cond string) string {
	var parts []string
	if s == activeOnly {
		parts = append(parts, "state = 'active'")
	}
	if cond != "" {
		parts = append(parts, cond)
	}
	if len(parts) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err is a SQLite uniqueness failure.
func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE")
}

// insertErr maps a failed INSERT to types.ErrConflict when an active row
// already holds the key.
func insertErr(what string, err error) error {
	if isUniqueViolation(err) {
		return types.Conflictf("an active %s already exists", what)
	}
	return fmt.Errorf("inserting %s: %w", what, err)
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

func formatDate(t time.Time) string { return types.DateOf(t).Format(types.DateLayout) }

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(types.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// nullDate formats an optional date for storage.
func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// encodeJSON stores v as JSON text, or NULL when v is a nil map or slice.
func encodeJSON[T any](v T) (sql.NullString, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(b) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeJSON decodes nullable JSON text into dst, leaving dst untouched for NULL.
func decodeJSON(s sql.NullString, dst any) error {
	if !s.Valid {
		return nil
	}
	return json.Unmarshal([]byte(s.String), dst)
}

// stateTimes scans the trailing state, created_at, updated_at columns.
type stateTimes struct {
	state   string
	created string
	updated string
}

func (st *stateTimes) dest() []any { return []any{&st.state, &st.created, &st.updated} }

func (st *stateTimes) apply(state *types.Lifecycle, created, updated *time.Time) error {
	var err error
	*state = types.Lifecycle(st.state)
	if *created, err = parseTime(st.created); err != nil {
		return err
	}
	if *updated, err = parseTime(st.updated); err != nil {
		return err
	}
	return nil
}

// softDelete moves an active row to deleted. Deleting an already-deleted row
// is a no-op; an unknown id yields types.ErrNotFound.
func (b *Backend) softDelete(ctx context.Context, table, idCol, id, what string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		"UPDATE "+table+" SET state = 'deleted', updated_at = ? WHERE "+idCol+" = ? AND state = 'active'",
		formatTime(b.stamp()), id,
	)
	if err != nil {
		return fmt.Errorf("deleting %s %s: %w", what, id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var one int
	err = db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE "+idCol+" = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFoundf("%s %s", what, id)
	}
	if err != nil {
		return fmt.Errorf("checking %s %s: %w", what, id, err)
	}
	return nil
}

// notFound converts sql.ErrNoRows into types.ErrNotFound.
func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.NotFoundf("%s %s", what, id)
	}
	return fmt.Errorf("reading %s %s: %w", what, id, err)
}
