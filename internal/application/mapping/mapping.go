// Package mapping converts raw Admin API payloads into local records.
// Every mapper decodes into a pointer-field intermediate, fills absent
// fields with safe defaults while tracking which ones were defaulted, and
// reports a per-record outcome instead of failing the batch.
package mapping

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// tracker records which fields were absent upstream and defaulted locally.
type tracker struct {
	fields []string
}

func (t *tracker) mark(field string) {
	t.fields = append(t.fields, field)
}

func (t *tracker) str(v *string, field, def string) string {
	if v == nil || *v == "" {
		t.mark(field)
		return def
	}
	return *v
}

func (t *tracker) boolean(v *bool, field string, def bool) bool {
	if v == nil {
		t.mark(field)
		return def
	}
	return *v
}

func (t *tracker) integer(v *int, field string, def int) int {
	if v == nil {
		t.mark(field)
		return def
	}
	return *v
}

// money parses a decimal carried as a JSON string. Absent or malformed
// values default to zero.
func (t *tracker) money(v *string, field string) decimal.Decimal {
	if v == nil || *v == "" {
		t.mark(field)
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		t.mark(field)
		return decimal.Zero
	}
	return d
}

// parseTime parses an ISO-8601 timestamp and strips the offset, leaving the
// wall-clock instant in UTC. Unparseable values yield nil, never an error.
func parseTime(v *string) *time.Time {
	if v == nil || *v == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		return nil
	}
	naive := time.Date(
		parsed.Year(), parsed.Month(), parsed.Day(),
		parsed.Hour(), parsed.Minute(), parsed.Second(), parsed.Nanosecond(),
		time.UTC,
	)
	return &naive
}

// externalID renders the numeric upstream id as text; local storage never
// depends on upstream id width.
func externalID(id *json.Number) string {
	if id == nil {
		return ""
	}
	return id.String()
}

// joinIDs renders an id list as comma-separated text.
func joinIDs(ids []json.Number) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

func decimalZero() decimal.Decimal {
	return decimal.Zero
}

func intDecimal(v int) decimal.Decimal {
	return decimal.NewFromInt(int64(v))
}

func trimJoin(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

func decode(raw json.RawMessage, dst any) error {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	return dec.Decode(dst)
}
