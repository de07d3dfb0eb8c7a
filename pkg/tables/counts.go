package tables

import (
	"sort"
	"strconv"
	"strings"
)

// ValueCount is one entry of a column's value distribution.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FormatScalar renders a flattened scalar as a string. Numbers drop
// insignificant trailing zeros so 42.0 and 42 count as the same value.
// Nil and non-scalar values render as "".
func FormatScalar(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case nil:
		return ""
	default:
		return ""
	}
}

// ValueCounts computes the distribution of a column's values. Absent keys,
// explicit nulls, and values that are empty after trimming are excluded.
// Results are ordered by count descending, then value ascending; topN <= 0
// returns all values.
func (t *Table) ValueCounts(col string, topN int) []ValueCount {
	if !t.HasColumn(col) {
		return nil
	}

	counts := make(map[string]int)
	for _, rec := range t.rows {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(FormatScalar(v))
		if s == "" {
			continue
		}
		counts[s]++
	}

	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// NormalizedValueCounts is ValueCounts with a per-value normalization step
// applied before counting, collapsing vocabulary and case variants
// (e.g. "m" and "Male"). A nil normalize is the identity.
func (t *Table) NormalizedValueCounts(col string, topN int, normalize func(string) string) []ValueCount {
	if normalize == nil {
		return t.ValueCounts(col, topN)
	}
	if !t.HasColumn(col) {
		return nil
	}

	counts := make(map[string]int)
	for _, rec := range t.rows {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(FormatScalar(v))
		if s == "" {
			continue
		}
		s = normalize(s)
		if s == "" {
			continue
		}
		counts[s]++
	}

	out := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		out = append(out, ValueCount{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}

// NumericValues coerces a column to numbers, dropping values that do not
// parse. Both native numbers and numeric strings are accepted.
func (t *Table) NumericValues(col string) []float64 {
	if !t.HasColumn(col) {
		return nil
	}

	var out []float64
	for _, rec := range t.rows {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			out = append(out, n)
		case string:
			s := strings.TrimSpace(n)
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				out = append(out, f)
			}
		}
	}
	return out
}

// NonEmptyCount returns how many rows carry a present, non-null,
// non-blank value for the column.
func (t *Table) NonEmptyCount(col string) int {
	count := 0
	for _, rec := range t.rows {
		v, ok := rec[col]
		if !ok || v == nil {
			continue
		}
		if strings.TrimSpace(FormatScalar(v)) != "" {
			count++
		}
	}
	return count
}
