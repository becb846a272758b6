package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mesh-intelligence/upkeep/internal/interval"
	"github.com/mesh-intelligence/upkeep/pkg/types"
)

// parseAssignments parses key=value arguments. With jsonValues, each value
// is decoded as JSON when it parses and kept as a string otherwise.
func parseAssignments(args []string, jsonValues bool) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, usagef("invalid assignment %q (expected key=value)", arg)
		}
		var parsed any = value
		if jsonValues {
			var v any
			if err := json.Unmarshal([]byte(value), &v); err == nil {
				parsed = v
			}
		}
		out[key] = parsed
	}
	return out, nil
}

// parseSchemaFields parses name=kind arguments into a schema.
func parseSchemaFields(args []string, parseKind func(string) (types.FieldKind, error)) (types.IntervalSchema, error) {
	if len(args) == 0 {
		return nil, nil
	}
	schema := make(types.IntervalSchema, 0, len(args))
	for _, arg := range args {
		name, kind, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, usagef("invalid field %q (expected name=kind)", arg)
		}
		k, err := parseKind(kind)
		if err != nil {
			return nil, err
		}
		schema = append(schema, types.IntervalField{Name: name, Kind: k})
	}
	return schema, nil
}

// schemaFromSamples infers a schema from name=value example arguments.
func schemaFromSamples(args []string) (types.IntervalSchema, error) {
	sample := make(map[string]string, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, usagef("invalid sample %q (expected name=value)", arg)
		}
		sample[name] = value
	}
	return interval.SchemaFromSample(sample)
}

// optionalDate parses a YYYY-MM-DD flag value; empty input yields nil.
func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := types.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func newTable(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	dashes := make([]string, len(header))
	for i, h := range header {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))
	return tw
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(types.DateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}

// formatValue renders a custom interval value as "k=v, ..." in key order.
func formatValue(v types.IntervalValue) string {
	if len(v) == 0 {
		return "-"
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + v[k].String()
	}
	return strings.Join(parts, ", ")
}

func formatSchema(s types.IntervalSchema) string {
	if len(s) == 0 {
		return "-"
	}
	parts := make([]string, len(s))
	for i, f := range s {
		parts[i] = f.Name + ":" + string(f.Kind)
	}
	return strings.Join(parts, ", ")
}
