package reconcile

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/flatten"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// buildTable creates a table with counts[value] rows carrying that value in
// column col. Identities are prefix0, prefix1, ... so two tables built with
// the same prefix share their identity sets.
func buildTable(t *testing.T, prefix, col string, counts map[string]int, opts ...tables.Option) *tables.Table {
	t.Helper()
	var rows []tables.Row
	i := 0
	// Deterministic row order keeps tests stable.
	for _, value := range sortedKeys(counts) {
		for n := 0; n < counts[value]; n++ {
			raw := fmt.Sprintf(`{%q:%q}`, col, value)
			v, err := flatten.Parse([]byte(raw))
			require.NoError(t, err)
			rows = append(rows, tables.Row{
				Identity: fmt.Sprintf("%s%d@x.com", prefix, i),
				Payload:  &v,
			})
			i++
		}
	}
	return tables.Normalize(rows, opts...)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	return keys
}

func identityTable(t *testing.T, ids ...string) *tables.Table {
	t.Helper()
	rows := make([]tables.Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, tables.Row{Identity: id})
	}
	return tables.Normalize(rows)
}

func findAnomaly(anomalies []Anomaly, metric string) (Anomaly, bool) {
	for _, a := range anomalies {
		if a.Metric == metric {
			return a, true
		}
	}
	return Anomaly{}, false
}

func TestIdentitySets(t *testing.T) {
	left := identityTable(t, "a@x.com", "b@x.com", "c@x.com")
	right := identityTable(t, "b@x.com", "c@x.com", "d@x.com")

	result, err := Reconcile(left, right, Config{})
	require.NoError(t, err)

	assert.Equal(t, IdentitySets{
		LeftRows:    3,
		RightRows:   3,
		LeftUnique:  3,
		RightUnique: 3,
		Overlap:     2,
		OnlyLeft:    1,
		OnlyRight:   1,
		Union:       4,
	}, result.Identity)
}

func TestRowCountSeverityHigh(t *testing.T) {
	left := identityTable(t, manyIDs("l", 100)...)
	right := identityTable(t, manyIDs("l", 80)...)

	result, err := Reconcile(left, right, Config{LeftName: "vendor_a", RightName: "vendor_b"})
	require.NoError(t, err)

	anomaly, ok := findAnomaly(result.Anomalies, "Record count")
	require.True(t, ok)
	// 20 missing rows is 20% of the larger count, past the 10% default.
	assert.Equal(t, SeverityHigh, anomaly.Severity)
	assert.Contains(t, anomaly.Detail, "vendor_a: 100")
	assert.Contains(t, anomaly.Detail, "vendor_b: 80")
	assert.Contains(t, anomaly.Detail, "Difference: 20")
}

func TestRowCountSeverityMedium(t *testing.T) {
	left := identityTable(t, manyIDs("l", 100)...)
	right := identityTable(t, manyIDs("l", 95)...)

	result, err := Reconcile(left, right, Config{})
	require.NoError(t, err)

	anomaly, ok := findAnomaly(result.Anomalies, "Record count")
	require.True(t, ok)
	// 5% is within the 10% boundary.
	assert.Equal(t, SeverityMedium, anomaly.Severity)
}

func TestRowCountEqualNoAnomaly(t *testing.T) {
	left := identityTable(t, manyIDs("l", 50)...)
	right := identityTable(t, manyIDs("l", 50)...)

	result, err := Reconcile(left, right, Config{})
	require.NoError(t, err)

	_, ok := findAnomaly(result.Anomalies, "Record count")
	assert.False(t, ok)
	assert.False(t, result.HasAnomalies())
}

func TestOneSidedIdentityAnomalies(t *testing.T) {
	left := identityTable(t, "a@x.com", "b@x.com")
	right := identityTable(t, "a@x.com", "c@x.com")

	result, err := Reconcile(left, right, Config{LeftName: "postgres", RightName: "fullcontact"})
	require.NoError(t, err)

	anomaly, ok := findAnomaly(result.Anomalies, "Identities only in fullcontact")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, anomaly.Severity)

	anomaly, ok = findAnomaly(result.Anomalies, "Identities only in postgres")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, anomaly.Severity)
}

func manyIDs(prefix string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%s%d@x.com", prefix, i)
	}
	return ids
}

func TestMissingIdentityColumnIsConfigError(t *testing.T) {
	left := buildTable(t, "l", "gender", map[string]int{"f": 1},
		tables.WithIdentityColumn("uid"))
	right := identityTable(t, "a@x.com")

	_, err := Reconcile(left, right, Config{LeftName: "vendor_a"})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
	assert.Contains(t, err.Error(), "vendor_a")

	_, err = Reconcile(right, left, Config{})
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestDistributionDeltaHigh(t *testing.T) {
	left := buildTable(t, "l", "gender", map[string]int{"Male": 60, "Female": 40})
	right := buildTable(t, "l", "gender", map[string]int{"Male": 50, "Female": 50})

	cfg := Config{
		Fields: []Field{{
			Name:      "Gender",
			Left:      []string{"gender"},
			Right:     []string{"gender"},
			LeftKind:  KindCategorical,
			RightKind: KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	// 60% vs 50% is exactly 10pp; the high boundary is inclusive.
	anomaly, ok := findAnomaly(result.Anomalies, "Gender (Male)")
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, anomaly.Severity)
	assert.Contains(t, anomaly.Detail, "60.0%")
	assert.Contains(t, anomaly.Detail, "50.0%")

	anomaly, ok = findAnomaly(result.Anomalies, "Gender (Female)")
	require.True(t, ok)
	assert.Equal(t, SeverityHigh, anomaly.Severity)

	require.Len(t, result.Fields, 1)
	comparison := result.Fields[0]
	assert.Equal(t, StatusOK, comparison.Status)
	require.Len(t, comparison.Distribution, 2)
	// Most represented value first.
	assert.Equal(t, "Male", comparison.Distribution[0].Value)
	assert.Equal(t, 10.0, comparison.Distribution[0].DeltaPP)
}

func TestDistributionDeltaMediumBoundary(t *testing.T) {
	left := buildTable(t, "l", "gender", map[string]int{"Male": 60, "Female": 40})
	right := buildTable(t, "l", "gender", map[string]int{"Male": 55, "Female": 45})

	cfg := Config{
		Fields: []Field{{
			Name:      "Gender",
			Left:      []string{"gender"},
			Right:     []string{"gender"},
			LeftKind:  KindCategorical,
			RightKind: KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	// 5pp is exactly the medium boundary, inclusive.
	anomaly, ok := findAnomaly(result.Anomalies, "Gender (Male)")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, anomaly.Severity)
}

func TestDistributionDeltaBelowThreshold(t *testing.T) {
	left := buildTable(t, "l", "gender", map[string]int{"Male": 60, "Female": 40})
	right := buildTable(t, "l", "gender", map[string]int{"Male": 56, "Female": 44})

	cfg := Config{
		Fields: []Field{{
			Name:      "Gender",
			Left:      []string{"gender"},
			Right:     []string{"gender"},
			LeftKind:  KindCategorical,
			RightKind: KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	_, ok := findAnomaly(result.Anomalies, "Gender (Male)")
	assert.False(t, ok)
	// The distribution is still reported even when nothing is flagged.
	require.Len(t, result.Fields, 1)
	assert.Len(t, result.Fields[0].Distribution, 2)
}

func TestTopValueShift(t *testing.T) {
	left := buildTable(t, "l", "device", map[string]int{"ios": 52, "android": 48})
	right := buildTable(t, "l", "device", map[string]int{"ios": 48, "android": 52})

	cfg := Config{
		Fields: []Field{{
			Name:      "Device",
			Left:      []string{"device"},
			Right:     []string{"device"},
			LeftKind:  KindCategorical,
			RightKind: KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	// 4pp deltas are below every numeric threshold, but the most common
	// value changed sides.
	anomaly, ok := findAnomaly(result.Anomalies, "Top device")
	require.True(t, ok)
	assert.Equal(t, SeverityMedium, anomaly.Severity)
	assert.Contains(t, anomaly.Detail, "ios")
	assert.Contains(t, anomaly.Detail, "android")
}

func TestUnresolvedAliasIsNoData(t *testing.T) {
	left := buildTable(t, "l", "gender", map[string]int{"f": 2})
	right := buildTable(t, "l", "other", map[string]int{"x": 2})

	cfg := Config{
		Fields: []Field{{
			Name:      "Gender",
			Left:      []string{"gender"},
			Right:     []string{"gender", "demographics.gender"},
			LeftKind:  KindCategorical,
			RightKind: KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	require.Len(t, result.Fields, 1)
	comparison := result.Fields[0]
	assert.Equal(t, StatusNoData, comparison.Status)
	assert.Equal(t, "gender", comparison.Left.Column)
	assert.Equal(t, "", comparison.Right.Column)
	assert.Empty(t, comparison.Distribution)

	// An unresolved field is a reportable outcome, not an anomaly.
	_, ok := findAnomaly(result.Anomalies, "Gender (f)")
	assert.False(t, ok)
}

func TestContainsFallback(t *testing.T) {
	left := buildTable(t, "l", "demographics.gender", map[string]int{"f": 2})
	right := buildTable(t, "l", "profile.basic.gender", map[string]int{"f": 2})

	cfg := Config{
		Fields: []Field{{
			Name:          "Gender",
			Left:          []string{"gender"},
			LeftContains:  "gender",
			Right:         []string{"gender"},
			RightContains: "gender",
			LeftKind:      KindCategorical,
			RightKind:     KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	require.Len(t, result.Fields, 1)
	assert.Equal(t, StatusOK, result.Fields[0].Status)
	assert.Equal(t, "demographics.gender", result.Fields[0].Left.Column)
	assert.Equal(t, "profile.basic.gender", result.Fields[0].Right.Column)
}

func TestMixedKindsAreNeverCrossCompared(t *testing.T) {
	leftRows := []tables.Row{}
	for i, income := range []string{"55000", "72000", "61000"} {
		raw := fmt.Sprintf(`{"income":%s}`, income)
		v, err := flatten.Parse([]byte(raw))
		require.NoError(t, err)
		leftRows = append(leftRows, tables.Row{
			Identity: fmt.Sprintf("l%d@x.com", i),
			Payload:  &v,
		})
	}
	left := tables.Normalize(leftRows)
	right := buildTable(t, "l", "income", map[string]int{"50k-75k": 2, "75k-100k": 1})

	cfg := Config{
		Fields: []Field{{
			Name:      "Income",
			Left:      []string{"income"},
			Right:     []string{"income"},
			LeftKind:  KindNumeric,
			RightKind: KindCategorical,
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	require.Len(t, result.Fields, 1)
	comparison := result.Fields[0]
	assert.Equal(t, StatusMixed, comparison.Status)
	assert.Empty(t, comparison.Distribution)

	// Each side is summarized in its own units.
	require.NotNil(t, comparison.Left.Numeric)
	assert.Equal(t, 3, comparison.Left.Numeric.Count)
	assert.InDelta(t, 62666.67, comparison.Left.Numeric.Mean, 0.01)
	assert.Equal(t, 61000.0, comparison.Left.Numeric.Median)
	assert.NotEmpty(t, comparison.Right.Top)

	// No cross-type anomaly is ever computed.
	for _, a := range result.Anomalies {
		assert.NotContains(t, a.Metric, "Income")
	}
}

func TestNormalizerCollapsesVariants(t *testing.T) {
	left := buildTable(t, "l", "gender", map[string]int{"m": 30, "male": 30, "f": 40})
	right := buildTable(t, "l", "gender", map[string]int{"Male": 60, "Female": 40})

	cfg := Config{
		Fields: []Field{{
			Name:       "Gender",
			Left:       []string{"gender"},
			Right:      []string{"gender"},
			LeftKind:   KindCategorical,
			RightKind:  KindCategorical,
			Normalizer: "gender",
		}},
	}
	result, err := Reconcile(left, right, cfg)
	require.NoError(t, err)

	require.Len(t, result.Fields, 1)
	comparison := result.Fields[0]
	assert.Equal(t, StatusOK, comparison.Status)
	require.Len(t, comparison.Distribution, 2)

	// "m" and "male" collapse into one bucket; both sides agree exactly.
	for _, row := range comparison.Distribution {
		assert.Equal(t, 0.0, row.DeltaPP)
	}
	assert.False(t, result.HasAnomalies())
}

func TestResultSummaryAndSeverity(t *testing.T) {
	left := identityTable(t, manyIDs("l", 100)...)
	right := identityTable(t, manyIDs("l", 80)...)

	result, err := Reconcile(left, right, Config{LeftName: "a", RightName: "b"})
	require.NoError(t, err)

	assert.True(t, result.HasAnomalies())
	assert.Equal(t, SeverityHigh, result.MaxSeverity())
	assert.Contains(t, result.Summary(), "a vs b")
	assert.False(t, result.GeneratedAt.IsZero())

	clean, err := Reconcile(left, left, Config{})
	require.NoError(t, err)
	assert.Equal(t, Severity(""), clean.MaxSeverity())
	assert.Contains(t, clean.Summary(), "no anomalies")
}
