package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/audiencekit/vendorlens/internal/cmd/output"
	"github.com/audiencekit/vendorlens/internal/config"
	"github.com/audiencekit/vendorlens/internal/loader"
	"github.com/audiencekit/vendorlens/internal/report"
	"github.com/audiencekit/vendorlens/pkg/logging"
	"github.com/audiencekit/vendorlens/pkg/reconcile"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

var compareFlags = struct {
	left          sourceFlags
	right         sourceFlags
	databaseURL   string
	segment       string
	segmentColumn string
	reportPath    string
}{}

// compareCmd reconciles two vendor populations.
var compareCmd = &cobra.Command{
	Use:   "compare <config.yaml>",
	Short: "Reconcile two vendor populations",
	Long: `Load both vendor populations, normalize them into flat tables, and
reconcile them per the comparison config: identity overlap, row counts,
and per-field distribution deltas with severity-tagged anomalies.

Each side reads from a Postgres match table by default, or from a JSONL
export when the corresponding --*-jsonl flag is set.`,
	Example: `  # Compare the two default match tables
  vendorlens compare compare.yaml --database-url $DATABASE_URL

  # Offline comparison of two exports, filtered to one store
  vendorlens compare compare.yaml \
    --left-jsonl matched.jsonl --right-jsonl fullcontact.jsonl \
    --segment store_412 --report comparison_store_412.html`,
	Args: cobra.ExactArgs(1),
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareFlags.left.register(compareCmd, "left", "matched_emails")
	compareFlags.right.register(compareCmd, "right", "fullcontact_matches")
	compareCmd.Flags().StringVar(&compareFlags.databaseURL, "database-url", "",
		"Postgres connection string (defaults to VENDORLENS_DATABASE_URL / DATABASE_URL)")
	compareCmd.Flags().StringVar(&compareFlags.segment, "segment", "",
		"Filter both sides to rows with this segment label")
	compareCmd.Flags().StringVar(&compareFlags.segmentColumn, "segment-column", loader.DefaultSegmentColumn,
		"Column holding the segment label")
	compareCmd.Flags().StringVar(&compareFlags.reportPath, "report", "",
		"Write an HTML comparison report to this path")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := reconcile.LoadConfigFile(args[0])
	if err != nil {
		return err
	}

	databaseURL := config.DatabaseURL(compareFlags.databaseURL)

	leftRows, err := compareFlags.left.load(ctx, databaseURL, compareFlags.segmentColumn)
	if err != nil {
		return fmt.Errorf("loading %s rows: %w", cfg.LeftName, err)
	}
	rightRows, err := compareFlags.right.load(ctx, databaseURL, compareFlags.segmentColumn)
	if err != nil {
		return fmt.Errorf("loading %s rows: %w", cfg.RightName, err)
	}

	opts := []tables.Option{tables.WithSegmentColumn(compareFlags.segmentColumn)}
	left := tables.Normalize(leftRows, opts...)
	right := tables.Normalize(rightRows, opts...)

	if compareFlags.segment != "" {
		left = left.FilterSegment(compareFlags.segment)
		right = right.FilterSegment(compareFlags.segment)
		logging.Debug().
			Str("segment", compareFlags.segment).
			Int("left_rows", left.Len()).
			Int("right_rows", right.Len()).
			Msg("Filtered to segment")
	}

	result, err := reconcile.Reconcile(left, right, cfg)
	if err != nil {
		return err
	}

	if compareFlags.reportPath != "" {
		gen := report.New(report.WithSegment(compareFlags.segment))
		if err := gen.WriteFile(compareFlags.reportPath, result); err != nil {
			return err
		}
		if !globalFlags.Quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", compareFlags.reportPath)
		}
	}

	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return err
	}
	if format == output.FormatTable {
		return writeCompareTable(cmd, result)
	}
	return output.NewFormatter(format).Format(cmd.OutOrStdout(), result)
}

// writeCompareTable prints the run summary and the anomaly table.
func writeCompareTable(cmd *cobra.Command, result *reconcile.Result) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, result.Summary())

	if !result.HasAnomalies() {
		return nil
	}

	data := output.Data{
		Headers:         []string{"Severity", "Metric", "Detail"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignLeft, output.AlignLeft},
	}
	for _, a := range result.Anomalies {
		data.Rows = append(data.Rows, []string{string(a.Severity), a.Metric, a.Detail})
	}
	return output.NewFormatter(output.FormatTable).Format(w, data)
}
