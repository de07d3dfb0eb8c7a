// Package reconcile compares two normalized vendor tables and surfaces
// disagreements: identity coverage gaps, row-count mismatches, and per-field
// distribution shifts beyond configured thresholds. Every computation is a
// pure function of the two tables and the configuration; re-running on the
// same inputs yields the same result.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentstation/utc"

	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/logging"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// Reconcile joins the two tables on the identity field, computes coverage
// set differences and per-field distribution deltas, and emits
// severity-tagged anomalies per the configured thresholds.
//
// A missing identity column in either table is a configuration error and
// fails immediately. A field whose alias list resolves to no column is a
// first-class no-data outcome for that field, never an error.
func Reconcile(left, right *tables.Table, cfg Config) (*Result, error) {
	cfg = cfg.withDefaults()

	if !left.HasColumn(cfg.IdentityField) {
		return nil, errors.NewConfigError("reconcile",
			fmt.Sprintf("identity field %q missing from %s table", cfg.IdentityField, cfg.LeftName), nil)
	}
	if !right.HasColumn(cfg.IdentityField) {
		return nil, errors.NewConfigError("reconcile",
			fmt.Sprintf("identity field %q missing from %s table", cfg.IdentityField, cfg.RightName), nil)
	}

	result := &Result{
		LeftName:    cfg.LeftName,
		RightName:   cfg.RightName,
		Thresholds:  cfg.Thresholds,
		GeneratedAt: utc.Now(),
	}

	result.Identity = identitySets(left, right, cfg.IdentityField)
	result.Anomalies = append(result.Anomalies, coverageAnomalies(result.Identity, cfg)...)

	for _, field := range cfg.Fields {
		comparison, anomalies := compareField(left, right, field, cfg)
		result.Fields = append(result.Fields, comparison)
		result.Anomalies = append(result.Anomalies, anomalies...)
	}

	logging.Debug().
		Str("left", cfg.LeftName).
		Str("right", cfg.RightName).
		Int("fields", len(result.Fields)).
		Int("anomalies", len(result.Anomalies)).
		Msg("Reconciliation complete")

	return result, nil
}

// identitySets builds the trimmed identity sets of both tables and their
// overlap arithmetic.
func identitySets(left, right *tables.Table, identityField string) IdentitySets {
	l := left.DistinctValues(identityField)
	r := right.DistinctValues(identityField)

	sets := IdentitySets{
		LeftRows:    left.Len(),
		RightRows:   right.Len(),
		LeftUnique:  len(l),
		RightUnique: len(r),
	}

	for id := range l {
		if _, ok := r[id]; ok {
			sets.Overlap++
		} else {
			sets.OnlyLeft++
		}
	}
	sets.OnlyRight = len(r) - sets.Overlap
	sets.Union = len(l) + len(r) - sets.Overlap
	return sets
}

// coverageAnomalies flags row-count mismatches and one-sided identity
// presence. Row-count severity is high when the absolute difference exceeds
// RowCountHighPct percent of the larger count, else medium.
func coverageAnomalies(sets IdentitySets, cfg Config) []Anomaly {
	var anomalies []Anomaly

	if sets.LeftRows != sets.RightRows {
		diff := sets.LeftRows - sets.RightRows
		if diff < 0 {
			diff = -diff
		}
		larger := sets.LeftRows
		if sets.RightRows > larger {
			larger = sets.RightRows
		}
		severity := SeverityMedium
		if float64(diff) > float64(larger)*cfg.Thresholds.RowCountHighPct/100 {
			severity = SeverityHigh
		}
		anomalies = append(anomalies, Anomaly{
			Metric: "Record count",
			Detail: fmt.Sprintf("%s: %d | %s: %d | Difference: %d",
				cfg.LeftName, sets.LeftRows, cfg.RightName, sets.RightRows, diff),
			Severity: severity,
		})
	}

	if sets.OnlyRight > 0 {
		anomalies = append(anomalies, Anomaly{
			Metric: fmt.Sprintf("Identities only in %s", cfg.RightName),
			Detail: fmt.Sprintf("%d identities have %s data but no %s match (possible enrichment gap or different feed)",
				sets.OnlyRight, cfg.RightName, cfg.LeftName),
			Severity: SeverityMedium,
		})
	}
	if sets.OnlyLeft > 0 {
		anomalies = append(anomalies, Anomaly{
			Metric: fmt.Sprintf("Identities only in %s", cfg.LeftName),
			Detail: fmt.Sprintf("%d identities have %s data but no %s match",
				sets.OnlyLeft, cfg.LeftName, cfg.RightName),
			Severity: SeverityMedium,
		})
	}

	return anomalies
}

// compareField resolves one logical field on both sides, summarizes each
// side, and, when both sides are categorical, flags distribution deltas and
// top-value shifts.
func compareField(left, right *tables.Table, field Field, cfg Config) (FieldComparison, []Anomaly) {
	comparison := FieldComparison{
		Name:   field.Name,
		Left:   summarizeSide(left, field.Left, field.LeftContains, field.LeftKind, field),
		Right:  summarizeSide(right, field.Right, field.RightContains, field.RightKind, field),
		Status: StatusOK,
	}

	if comparison.Left.Column == "" || comparison.Right.Column == "" {
		// No resolved column on at least one side: a reportable no-data
		// outcome, not an anomaly.
		comparison.Status = StatusNoData
		return comparison, nil
	}

	if field.LeftKind != field.RightKind {
		// Units are not directly comparable; each side is summarized
		// independently and no cross-type anomaly is computed.
		comparison.Status = StatusMixed
		return comparison, nil
	}

	if field.LeftKind != KindCategorical {
		return comparison, nil
	}

	// Deltas are computed over the complete distributions; the side
	// summaries above are display-truncated to top-N.
	leftFull := left.NormalizedValueCounts(comparison.Left.Column, 0, field.normalizer())
	rightFull := right.NormalizedValueCounts(comparison.Right.Column, 0, field.normalizer())

	distribution, anomalies := compareDistributions(leftFull, rightFull, left.Len(), right.Len(), field, cfg)
	comparison.Distribution = distribution
	return comparison, anomalies
}

// summarizeSide resolves the column for one side and computes its summary:
// value counts for categorical fields, mean/median/count for numeric ones.
func summarizeSide(t *tables.Table, aliases []string, contains string, kind FieldKind, field Field) SideSummary {
	summary := SideSummary{Kind: kind}

	col, ok := t.Resolve(aliases...)
	if !ok && contains != "" {
		// Fall back to a path-substring scan; vendors move fields
		// between schema versions.
		if matches := t.MatchingColumns(contains); len(matches) > 0 {
			col, ok = matches[0], true
		}
	}
	if !ok {
		return summary
	}
	summary.Column = col

	switch kind {
	case KindNumeric:
		values := t.NumericValues(col)
		if len(values) > 0 {
			summary.Numeric = summarizeNumeric(values)
		}
	default:
		summary.Top = t.NormalizedValueCounts(col, field.topN(), field.normalizer())
	}
	return summary
}

// summarizeNumeric computes mean, median, and count over parsed values.
func summarizeNumeric(values []float64) *NumericSummary {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	median := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		median = (sorted[len(sorted)/2-1] + sorted[len(sorted)/2]) / 2
	}

	return &NumericSummary{
		Count:  len(sorted),
		Mean:   sum / float64(len(sorted)),
		Median: median,
	}
}

// compareDistributions computes per-value percentage-point deltas over the
// union of values seen on either side. Percentages are of each table's
// total row count, not the identity overlap. Threshold boundaries are
// inclusive. A qualitative top-value shift is flagged even when magnitudes
// are close.
func compareDistributions(leftFull, rightFull []tables.ValueCount, leftTotal, rightTotal int, field Field, cfg Config) ([]DistributionRow, []Anomaly) {
	leftCounts := countsByValue(leftFull)
	rightCounts := countsByValue(rightFull)

	values := make([]string, 0, len(leftCounts)+len(rightCounts))
	seen := make(map[string]struct{})
	for v := range leftCounts {
		values = append(values, v)
		seen[v] = struct{}{}
	}
	for v := range rightCounts {
		if _, ok := seen[v]; !ok {
			values = append(values, v)
		}
	}

	rows := make([]DistributionRow, 0, len(values))
	for _, value := range values {
		lc, rc := leftCounts[value], rightCounts[value]
		lp, rp := pct(lc, leftTotal), pct(rc, rightTotal)
		delta := lp - rp
		if delta < 0 {
			delta = -delta
		}
		rows = append(rows, DistributionRow{
			Value:      value,
			LeftCount:  lc,
			RightCount: rc,
			LeftPct:    lp,
			RightPct:   rp,
			DeltaPP:    delta,
		})
	}
	// Most represented values first; ties broken by name for determinism.
	sort.Slice(rows, func(i, j int) bool {
		ci, cj := rows[i].LeftCount+rows[i].RightCount, rows[j].LeftCount+rows[j].RightCount
		if ci != cj {
			return ci > cj
		}
		return rows[i].Value < rows[j].Value
	})

	var anomalies []Anomaly
	for _, row := range rows {
		severity, flagged := deltaSeverity(row.DeltaPP, cfg.Thresholds)
		if !flagged {
			continue
		}
		anomalies = append(anomalies, Anomaly{
			Metric: fmt.Sprintf("%s (%s)", field.Name, row.Value),
			Detail: fmt.Sprintf("%s: %.1f%% | %s: %.1f%% | Δ %.1fpp",
				cfg.LeftName, row.LeftPct, cfg.RightName, row.RightPct, row.DeltaPP),
			Severity: severity,
		})
	}

	if anomaly, ok := topValueShift(leftFull, rightFull, leftTotal, rightTotal, field, cfg); ok {
		anomalies = append(anomalies, anomaly)
	}

	return rows, anomalies
}

// topValueShift flags a medium anomaly when the single most frequent value
// differs between the two distributions, regardless of the numeric delta.
func topValueShift(leftFull, rightFull []tables.ValueCount, leftTotal, rightTotal int, field Field, cfg Config) (Anomaly, bool) {
	if len(leftFull) == 0 || len(rightFull) == 0 {
		return Anomaly{}, false
	}
	leftTop, rightTop := leftFull[0], rightFull[0]
	if leftTop.Value == rightTop.Value {
		return Anomaly{}, false
	}
	return Anomaly{
		Metric: fmt.Sprintf("Top %s", strings.ToLower(field.Name)),
		Detail: fmt.Sprintf("%s top: %s (%.1f%%) | %s top: %s (%.1f%%)",
			cfg.LeftName, leftTop.Value, pct(leftTop.Count, leftTotal),
			cfg.RightName, rightTop.Value, pct(rightTop.Count, rightTotal)),
		Severity: SeverityMedium,
	}, true
}

// deltaSeverity maps a percentage-point delta to a severity. Boundaries are
// inclusive; deltas below the medium threshold are not flagged.
func deltaSeverity(deltaPP float64, t Thresholds) (Severity, bool) {
	switch {
	case deltaPP >= t.DistributionHighPP:
		return SeverityHigh, true
	case deltaPP >= t.DistributionMediumPP:
		return SeverityMedium, true
	default:
		return "", false
	}
}

// countsByValue indexes value counts by value.
func countsByValue(counts []tables.ValueCount) map[string]int {
	out := make(map[string]int, len(counts))
	for _, vc := range counts {
		out[vc.Value] = vc.Count
	}
	return out
}

// pct returns part as a percentage of whole, 0 when whole is 0.
func pct(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}
