package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/audiencekit/vendorlens/internal/cmd/output"
	"github.com/audiencekit/vendorlens/internal/config"
	"github.com/audiencekit/vendorlens/internal/loader"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

var inspectFlags = struct {
	source        sourceFlags
	databaseURL   string
	segment       string
	segmentColumn string
	column        string
	contains      string
	top           int
}{}

// inspectCmd shows the shape of one normalized vendor table.
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect one vendor population",
	Long: `Normalize one vendor source into a flat table and show its shape:
row count, the flattened column vocabulary with per-column coverage,
or the top value counts of a single column.`,
	Example: `  # Column vocabulary of a JSONL export
  vendorlens inspect --jsonl fullcontact.jsonl

  # Top genders in the Postgres match table
  vendorlens inspect --table fullcontact_matches --column demographics.gender`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectFlags.source.register(inspectCmd, "", "matched_emails")
	inspectCmd.Flags().StringVar(&inspectFlags.databaseURL, "database-url", "",
		"Postgres connection string (defaults to VENDORLENS_DATABASE_URL / DATABASE_URL)")
	inspectCmd.Flags().StringVar(&inspectFlags.segment, "segment", "",
		"Filter to rows with this segment label")
	inspectCmd.Flags().StringVar(&inspectFlags.segmentColumn, "segment-column", loader.DefaultSegmentColumn,
		"Column holding the segment label")
	inspectCmd.Flags().StringVar(&inspectFlags.column, "column", "",
		"Show top value counts for this column")
	inspectCmd.Flags().StringVar(&inspectFlags.contains, "columns-containing", "",
		"List only columns whose path contains this substring")
	inspectCmd.Flags().IntVar(&inspectFlags.top, "top", 15,
		"How many values to show with --column")
}

func runInspect(cmd *cobra.Command, _ []string) error {
	rows, err := inspectFlags.source.load(cmd.Context(),
		config.DatabaseURL(inspectFlags.databaseURL), inspectFlags.segmentColumn)
	if err != nil {
		return err
	}

	table := tables.Normalize(rows, tables.WithSegmentColumn(inspectFlags.segmentColumn))
	if inspectFlags.segment != "" {
		table = table.FilterSegment(inspectFlags.segment)
	}

	format, err := output.ParseFormat(globalFlags.Output)
	if err != nil {
		return err
	}
	formatter := output.NewFormatter(format)
	w := cmd.OutOrStdout()

	if inspectFlags.column != "" {
		counts := table.ValueCounts(inspectFlags.column, inspectFlags.top)
		if format != output.FormatTable {
			return formatter.Format(w, counts)
		}
		data := output.Data{
			Headers:         []string{output.TitleHeader(inspectFlags.column), "Count"},
			ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight},
		}
		for _, vc := range counts {
			data.Rows = append(data.Rows, []string{vc.Value, strconv.Itoa(vc.Count)})
		}
		return formatter.Format(w, data)
	}

	columns := table.Columns()
	if inspectFlags.contains != "" {
		columns = table.MatchingColumns(inspectFlags.contains)
	}

	if format != output.FormatTable {
		type columnInfo struct {
			Column   string `json:"column"`
			NonEmpty int    `json:"non_empty"`
		}
		info := make([]columnInfo, 0, len(columns))
		for _, col := range columns {
			info = append(info, columnInfo{Column: col, NonEmpty: table.NonEmptyCount(col)})
		}
		return formatter.Format(w, info)
	}

	fmt.Fprintf(w, "%d rows, %d columns\n", table.Len(), len(table.Columns()))
	data := output.Data{
		Headers:         []string{"Column", "Non-Empty"},
		ColumnAlignment: []output.Align{output.AlignLeft, output.AlignRight},
	}
	for _, col := range columns {
		data.Rows = append(data.Rows, []string{col, strconv.Itoa(table.NonEmptyCount(col))})
	}
	return formatter.Format(w, data)
}
