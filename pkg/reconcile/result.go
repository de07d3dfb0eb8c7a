package reconcile

import (
	"fmt"

	"github.com/agentstation/utc"

	"github.com/audiencekit/vendorlens/pkg/tables"
)

// Severity classifies how strongly two vendors disagree on a metric.
type Severity string

// Severity levels. Low is reserved for future graduated thresholds and is
// currently unused.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// rank orders severities for MaxSeverity.
func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Anomaly is one reconciliation finding where the two sources disagree
// beyond a configured threshold.
type Anomaly struct {
	Metric   string   `json:"metric" yaml:"metric"`
	Detail   string   `json:"detail" yaml:"detail"`
	Severity Severity `json:"severity" yaml:"severity"`
}

// IdentitySets holds the row counts and identity-set arithmetic of one
// reconciliation run.
type IdentitySets struct {
	LeftRows    int `json:"left_rows" yaml:"left_rows"`
	RightRows   int `json:"right_rows" yaml:"right_rows"`
	LeftUnique  int `json:"left_unique" yaml:"left_unique"`
	RightUnique int `json:"right_unique" yaml:"right_unique"`
	Overlap     int `json:"overlap" yaml:"overlap"`
	OnlyLeft    int `json:"only_left" yaml:"only_left"`
	OnlyRight   int `json:"only_right" yaml:"only_right"`
	Union       int `json:"union" yaml:"union"`
}

// ComparisonStatus describes whether a field produced a comparable result.
type ComparisonStatus string

// Field comparison outcomes.
const (
	// StatusOK means both sides resolved and were compared.
	StatusOK ComparisonStatus = "ok"
	// StatusNoData means at least one side resolved to no column.
	StatusNoData ComparisonStatus = "no data"
	// StatusMixed means the sides carry different representations
	// (e.g. a continuous estimate vs bucket labels) and were summarized
	// independently, never cross-compared.
	StatusMixed ComparisonStatus = "mixed"
)

// NumericSummary describes one side's continuous values.
type NumericSummary struct {
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
}

// SideSummary is one vendor's view of a logical field.
type SideSummary struct {
	// Column is the resolved flattened path, "" when no alias matched.
	Column  string              `json:"column" yaml:"column"`
	Kind    FieldKind           `json:"kind" yaml:"kind"`
	Top     []tables.ValueCount `json:"top,omitempty" yaml:"top,omitempty"`
	Numeric *NumericSummary     `json:"numeric,omitempty" yaml:"numeric,omitempty"`
}

// DistributionRow is one value's frequency on both sides, as counts and as
// percentages of each table's total row count.
type DistributionRow struct {
	Value      string  `json:"value" yaml:"value"`
	LeftCount  int     `json:"left_count" yaml:"left_count"`
	RightCount int     `json:"right_count" yaml:"right_count"`
	LeftPct    float64 `json:"left_pct" yaml:"left_pct"`
	RightPct   float64 `json:"right_pct" yaml:"right_pct"`
	DeltaPP    float64 `json:"delta_pp" yaml:"delta_pp"`
}

// FieldComparison is the reconciliation outcome for one logical field.
type FieldComparison struct {
	Name         string            `json:"name" yaml:"name"`
	Status       ComparisonStatus  `json:"status" yaml:"status"`
	Left         SideSummary       `json:"left" yaml:"left"`
	Right        SideSummary       `json:"right" yaml:"right"`
	Distribution []DistributionRow `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

// Result is the outcome of one reconciliation run.
type Result struct {
	LeftName    string            `json:"left_name" yaml:"left_name"`
	RightName   string            `json:"right_name" yaml:"right_name"`
	Identity    IdentitySets      `json:"identity" yaml:"identity"`
	Fields      []FieldComparison `json:"fields" yaml:"fields"`
	Anomalies   []Anomaly         `json:"anomalies" yaml:"anomalies"`
	Thresholds  Thresholds        `json:"thresholds" yaml:"thresholds"`
	GeneratedAt utc.Time          `json:"generated_at" yaml:"generated_at"`
}

// HasAnomalies returns true if any anomaly was flagged.
func (r *Result) HasAnomalies() bool {
	return len(r.Anomalies) > 0
}

// MaxSeverity returns the highest severity among the anomalies, "" when
// there are none.
func (r *Result) MaxSeverity() Severity {
	var max Severity
	for _, a := range r.Anomalies {
		if a.Severity.rank() > max.rank() {
			max = a.Severity
		}
	}
	return max
}

// CountBySeverity returns how many anomalies carry the given severity.
func (r *Result) CountBySeverity(s Severity) int {
	n := 0
	for _, a := range r.Anomalies {
		if a.Severity == s {
			n++
		}
	}
	return n
}

// Summary returns a one-line human-readable summary of the run.
func (r *Result) Summary() string {
	if !r.HasAnomalies() {
		return fmt.Sprintf("%s vs %s: no anomalies; %d shared identities of %d",
			r.LeftName, r.RightName, r.Identity.Overlap, r.Identity.Union)
	}
	return fmt.Sprintf("%s vs %s: %d anomalies (%d high, %d medium); %d shared identities of %d",
		r.LeftName, r.RightName, len(r.Anomalies),
		r.CountBySeverity(SeverityHigh), r.CountBySeverity(SeverityMedium),
		r.Identity.Overlap, r.Identity.Union)
}
