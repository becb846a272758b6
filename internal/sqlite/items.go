package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const itemCols = "item_id, owner_id, item_type_id, name, acquired_at, details, state, created_at, updated_at"

// InsertItem stores a new active item together with its forecast
// references in one transaction. A failure leaves neither behind.
func (b *Backend) InsertItem(ctx context.Context, item *types.Item, refs ...*types.ForecastReference) error {
	if strings.TrimSpace(item.Name) == "" {
		return types.Validationf("item name must not be empty")
	}
	if item.ItemTypeID == "" {
		return types.Validationf("item requires an item type")
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	details, err := encodeJSON(item.Details)
	if err != nil {
		return types.Validationf("item details are not serializable: %v", err)
	}
	if item.ItemID == "" {
		if item.ItemID, err = newID(); err != nil {
			return err
		}
	}
	if item.AcquiredAt != nil {
		d := types.DateOf(*item.AcquiredAt)
		item.AcquiredAt = &d
	}
	now := b.stamp()
	item.State, item.CreatedAt, item.UpdatedAt = types.LifecycleActive, now, now

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning item transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO items ("+itemCols+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		item.ItemID, nullString(item.OwnerID), item.ItemTypeID, item.Name,
		nullDate(item.AcquiredAt), details, item.State, formatTime(now), formatTime(now),
	)
	if err != nil {
		return insertErr("item "+item.ItemID, err)
	}
	for _, ref := range refs {
		ref.ItemID = item.ItemID
		if err := putForecast(ctx, tx, ref, now); err != nil {
			return fmt.Errorf("importing %s forecast: %w", ref.MeasurementKind, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item %s: %w", item.ItemID, err)
	}
	return nil
}

// GetItem returns an active item.
func (b *Backend) GetItem(ctx context.Context, id string) (*types.Item, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+itemCols+" FROM items"+activeOnly.where("item_id = ?"), id)
	item, err := scanItem(row)
	if err != nil {
		return nil, notFound(err, "item", id)
	}
	return item, nil
}

// ListItems returns active items in creation order. A non-empty owner
// restricts the list to that owner's items.
func (b *Backend) ListItems(ctx context.Context, owner string) ([]*types.Item, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	query := "SELECT " + itemCols + " FROM items"
	var args []any
	if owner != "" {
		query += activeOnly.where("owner_id = ?")
		args = append(args, owner)
	} else {
		query += activeOnly.where("")
	}
	rows, err := db.QueryContext(ctx, query+" ORDER BY created_at, rowid", args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var out []*types.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// SoftDeleteItem marks an item deleted. Its plans and tasks are left as is.
func (b *Backend) SoftDeleteItem(ctx context.Context, id string) error {
	return b.softDelete(ctx, "items", "item_id", id, "item")
}

func scanItem(s rowScanner) (*types.Item, error) {
	var (
		item     types.Item
		owner    sql.NullString
		acquired sql.NullString
		details  sql.NullString
		st       stateTimes
	)
	dest := append([]any{&item.ItemID, &owner, &item.ItemTypeID, &item.Name, &acquired, &details}, st.dest()...)
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if owner.Valid {
		item.OwnerID = &owner.String
	}
	if acquired.Valid {
		d, err := parseDate(acquired.String)
		if err != nil {
			return nil, err
		}
		item.AcquiredAt = &d
	}
	if err := decodeJSON(details, &item.Details); err != nil {
		return nil, fmt.Errorf("decoding item details: %w", err)
	}
	if err := st.apply(&item.State, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

