package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentstation/utc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencekit/vendorlens/pkg/reconcile"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

func sampleResult() *reconcile.Result {
	return &reconcile.Result{
		LeftName:  "postgres",
		RightName: "fullcontact",
		Identity: reconcile.IdentitySets{
			LeftRows:    1200,
			RightRows:   1100,
			LeftUnique:  1180,
			RightUnique: 1090,
			Overlap:     1000,
			OnlyLeft:    180,
			OnlyRight:   90,
			Union:       1270,
		},
		Fields: []reconcile.FieldComparison{
			{
				Name:   "Gender",
				Status: reconcile.StatusOK,
				Left:   reconcile.SideSummary{Column: "gender", Kind: reconcile.KindCategorical},
				Right:  reconcile.SideSummary{Column: "demographics.gender", Kind: reconcile.KindCategorical},
				Distribution: []reconcile.DistributionRow{
					{Value: "Female", LeftCount: 700, RightCount: 560, LeftPct: 58.3, RightPct: 50.9, DeltaPP: 7.4},
					{Value: "Male", LeftCount: 480, RightCount: 520, LeftPct: 40.0, RightPct: 47.3, DeltaPP: 7.3},
				},
			},
			{
				Name:   "Income",
				Status: reconcile.StatusMixed,
				Left: reconcile.SideSummary{
					Column:  "family.estimated_income",
					Kind:    reconcile.KindNumeric,
					Numeric: &reconcile.NumericSummary{Count: 950, Mean: 68250, Median: 61000},
				},
				Right: reconcile.SideSummary{
					Column: "household.finance.income",
					Kind:   reconcile.KindCategorical,
					Top: []tables.ValueCount{
						{Value: "$50,000 - $74,999", Count: 320},
						{Value: "$75,000 - $99,999", Count: 280},
					},
				},
			},
			{
				Name:   "Education",
				Status: reconcile.StatusNoData,
				Left:   reconcile.SideSummary{Column: "education", Kind: reconcile.KindCategorical},
				Right:  reconcile.SideSummary{Kind: reconcile.KindCategorical},
			},
		},
		Anomalies: []reconcile.Anomaly{
			{Metric: "Record count", Detail: "postgres: 1200 | fullcontact: 1100 | Difference: 100", Severity: reconcile.SeverityMedium},
			{Metric: "Gender (Female)", Detail: "postgres: 58.3% | fullcontact: 50.9% | Δ 7.4pp", Severity: reconcile.SeverityMedium},
		},
		Thresholds:  reconcile.DefaultThresholds(),
		GeneratedAt: utc.Now(),
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	err := New(WithSegment("store_412")).Render(&buf, sampleResult())
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Vendor Comparison: postgres vs fullcontact")
	assert.Contains(t, html, "Segment: <strong>store_412</strong>")
	assert.Contains(t, html, "1,200")
	assert.Contains(t, html, "Only in postgres")
	assert.Contains(t, html, `class="anomaly medium"`)
	assert.Contains(t, html, "Gender (Female)")

	// Flagged distribution rows are highlighted.
	assert.Contains(t, html, `class="flagged"`)
	assert.Contains(t, html, "58.3%")

	// Mixed fields show each side in its own units.
	assert.Contains(t, html, "Mean 68250 | Median 61000 | N=950")
	assert.Contains(t, html, "$50,000 - $74,999: 320")
	assert.Contains(t, html, "never compared numerically")

	// No-data fields name the missing side.
	assert.Contains(t, html, "No resolvable column on")
}

func TestRenderNoAnomalies(t *testing.T) {
	result := sampleResult()
	result.Anomalies = nil
	result.Fields = nil

	var buf bytes.Buffer
	require.NoError(t, New().Render(&buf, result))
	assert.Contains(t, buf.String(), "No major anomalies detected")
}

func TestRenderTitleOverride(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(WithTitle("Custom Title")).Render(&buf, sampleResult()))
	assert.Contains(t, buf.String(), "<title>Custom Title</title>")
}

func TestRenderNilResult(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, New().Render(&buf, nil))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comparison.html")
	require.NoError(t, New().WriteFile(path, sampleResult()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<!DOCTYPE html>")
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
	assert.Equal(t, "1,234,567", formatCount(1234567))
	assert.Equal(t, "-1,234", formatCount(-1234))
}
