package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/upkeep/pkg/types"
)

const forecastCols = "item_id, measurement_kind, start_date, start_measurement, reference_date, reference_measurement, updated_at"

// PutForecastReference stores the reference for (item, measurement kind),
// replacing any previous one. Last write wins.
func (b *Backend) PutForecastReference(ctx context.Context, ref *types.ForecastReference) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	return putForecast(ctx, db, ref, b.stamp())
}

// putForecast upserts ref through ex, which is the database or an open
// transaction.
func putForecast(ctx context.Context, ex execer, ref *types.ForecastReference, now time.Time) error {
	ref.StartDate = types.DateOf(ref.StartDate)
	ref.ReferenceDate = types.DateOf(ref.ReferenceDate)
	ref.UpdatedAt = now

	_, err := ex.ExecContext(ctx,
		`INSERT INTO forecast_references (`+forecastCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(item_id, measurement_kind) DO UPDATE SET
		   start_date = excluded.start_date,
		   start_measurement = excluded.start_measurement,
		   reference_date = excluded.reference_date,
		   reference_measurement = excluded.reference_measurement,
		   updated_at = excluded.updated_at`,
		ref.ItemID, ref.MeasurementKind,
		formatDate(ref.StartDate), ref.StartMeasurement,
		formatDate(ref.ReferenceDate), ref.ReferenceMeasurement,
		formatTime(ref.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("storing forecast reference: %w", err)
	}
	return nil
}

// GetForecastReference returns the reference for an item and measurement kind.
func (b *Backend) GetForecastReference(ctx context.Context, itemID, kind string) (*types.ForecastReference, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	row := db.QueryRowContext(ctx,
		"SELECT "+forecastCols+" FROM forecast_references WHERE item_id = ? AND measurement_kind = ?",
		itemID, kind)
	ref, err := scanForecast(row)
	if err != nil {
		return nil, notFound(err, "forecast reference", kind)
	}
	return ref, nil
}

// ListForecastReferences returns an item's references ordered by kind.
func (b *Backend) ListForecastReferences(ctx context.Context, itemID string) ([]*types.ForecastReference, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx,
		"SELECT "+forecastCols+" FROM forecast_references WHERE item_id = ? ORDER BY measurement_kind",
		itemID)
	if err != nil {
		return nil, fmt.Errorf("listing forecast references: %w", err)
	}
	defer rows.Close()

	var out []*types.ForecastReference
	for rows.Next() {
		ref, err := scanForecast(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning forecast reference: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func scanForecast(s rowScanner) (*types.ForecastReference, error) {
	var (
		ref                    types.ForecastReference
		start, refDate, update string
	)
	if err := s.Scan(&ref.ItemID, &ref.MeasurementKind, &start, &ref.StartMeasurement,
		&refDate, &ref.ReferenceMeasurement, &update); err != nil {
		return nil, err
	}
	var err error
	if ref.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	if ref.ReferenceDate, err = parseDate(refDate); err != nil {
		return nil, err
	}
	if ref.UpdatedAt, err = parseTime(update); err != nil {
		return nil, err
	}
	return &ref, nil
}
