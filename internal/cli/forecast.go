package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/upkeep/internal/forecast"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

func newForecastCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast usage measurements such as mileage",
	}

	var (
		startDate, refDate string
		start, ref         float64
	)
	set := &cobra.Command{
		Use:   "set <item-id> <kind>",
		Short: "Set the two calibration points of a usage forecast",
		Long: `Set the reference window used to extrapolate a measurement linearly.
An existing reference for the same item and kind is replaced.

  upkeep forecast set <item-id> mileage --start-date 2014-01-01 --start 0 \
    --ref-date 2015-01-01 --ref 365`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sd, err := types.ParseDate(startDate)
			if err != nil {
				return err
			}
			rd, err := types.ParseDate(refDate)
			if err != nil {
				return err
			}
			saved, err := a.forecaster(time.Time{}).SetForecastReference(ctxOf(cmd), types.ForecastReference{
				ItemID:               args[0],
				MeasurementKind:      args[1],
				StartDate:            sd,
				StartMeasurement:     start,
				ReferenceDate:        rd,
				ReferenceMeasurement: ref,
			})
			if err != nil {
				return err
			}
			return a.emit(cmd, saved, func(w io.Writer) {
				fmt.Fprintf(w, "Set %s forecast for %s: %s at %s, %s at %s\n", saved.MeasurementKind, saved.ItemID,
					formatNumber(saved.StartMeasurement), formatDate(saved.StartDate),
					formatNumber(saved.ReferenceMeasurement), formatDate(saved.ReferenceDate))
			})
		},
	}
	set.Flags().StringVar(&startDate, "start-date", "", "start of the window (YYYY-MM-DD)")
	set.Flags().Float64Var(&start, "start", 0, "measurement at the start date")
	set.Flags().StringVar(&refDate, "ref-date", "", "end of the window (YYYY-MM-DD)")
	set.Flags().Float64Var(&ref, "ref", 0, "measurement at the reference date")
	for _, f := range []string{"start-date", "start", "ref-date", "ref"} {
		_ = set.MarkFlagRequired(f)
	}

	var at string
	predict := &cobra.Command{
		Use:   "predict <item-id> <kind>",
		Short: "Predict a measurement for today or a given date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := a.forecaster(time.Time{})
			date := types.DateOf(a.now())
			if at != "" {
				var err error
				if date, err = types.ParseDate(at); err != nil {
					return err
				}
			}
			value, err := f.PredictMeasurementAt(ctxOf(cmd), args[0], args[1], date)
			if err != nil {
				return err
			}
			result := struct {
				ItemID          string  `json:"item_id"`
				MeasurementKind string  `json:"measurement_kind"`
				Date            string  `json:"date"`
				Value           float64 `json:"value"`
			}{args[0], args[1], formatDate(date), value}
			return a.emit(cmd, result, func(w io.Writer) {
				fmt.Fprintf(w, "%s on %s: %s\n", args[1], result.Date, formatNumber(value))
			})
		},
	}
	predict.Flags().StringVar(&at, "date", "", "date to predict for (YYYY-MM-DD, default today)")

	list := &cobra.Command{
		Use:   "list <item-id>",
		Short: "List the forecast references of an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := a.forecaster(time.Time{}).ListForecastReferences(ctxOf(cmd), args[0])
			if err != nil {
				return err
			}
			rows := make([]forecastRow, len(refs))
			for i, r := range refs {
				rows[i].ForecastReference = r
				if rate, err := forecast.DailyRate(*r); err == nil {
					rows[i].DailyRate = &rate
				}
			}
			return a.emit(cmd, rows, func(w io.Writer) {
				tw := newTable(w, "KIND", "START", "START VALUE", "REFERENCE", "REFERENCE VALUE", "PER DAY")
				for _, r := range rows {
					rate := "-"
					if r.DailyRate != nil {
						rate = formatNumber(*r.DailyRate)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.MeasurementKind,
						formatDate(r.StartDate), formatNumber(r.StartMeasurement),
						formatDate(r.ReferenceDate), formatNumber(r.ReferenceMeasurement), rate)
				}
				tw.Flush()
			})
		},
	}

	cmd.AddCommand(set, predict, list)
	return cmd
}

// forecastRow is a stored reference with the usage per day it implies.
type forecastRow struct {
	*types.ForecastReference
	DailyRate *float64 `json:"daily_rate,omitempty"`
}

// formatNumber prints whole numbers without decimals and others with two.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
