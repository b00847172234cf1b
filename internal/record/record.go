// Package record models the uniform rows every dashboard screen works on.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record maps a field name to a scalar value: string, number or nil.
// Records are treated as immutable once loaded.
type Record map[string]any

// Text renders a field as a string. Missing and null fields render empty.
func (r Record) Text(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

// Or returns the field text, or placeholder when it is empty.
func (r Record) Or(field, placeholder string) string {
	if text := r.Text(field); text != "" {
		return text
	}
	return placeholder
}

// Number reads a numeric field. Numeric strings are accepted.
func (r Record) Number(field string) (float64, bool) {
	switch v := r[field].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Decode parses a JSON array of objects. Null entries are dropped.
func Decode(raw []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var items []Record
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("record: decode snapshot: %w", err)
	}
	out := make([]Record, 0, len(items))
	for _, item := range items {
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

// DecodeSnapshot is Decode that never fails: a missing or malformed payload
// yields an empty snapshot.
func DecodeSnapshot(raw []byte) []Record {
	records, err := Decode(raw)
	if err != nil {
		return []Record{}
	}
	return records
}

// Encode serialises records as the embedded JSON payload.
func Encode(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

// SortBy orders records by field. Numeric values compare numerically, the
// rest lexically; records missing the field sort as zero.
func SortBy(records []Record, field string, desc bool) {
	if field == "" {
		return
	}
	sort.SliceStable(records, func(i, j int) bool {
		c := compare(records[i], records[j], field)
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func compare(a, b Record, field string) int {
	av, aok := a.Number(field)
	bv, bok := b.Number(field)
	if aok || bok {
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.Text(field), b.Text(field))
}

// Clone copies the slice header so callers can reorder without touching the
// source. Records themselves are shared.
func Clone(records []Record) []Record {
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
