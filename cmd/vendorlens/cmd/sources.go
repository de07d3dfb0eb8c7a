package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/audiencekit/vendorlens/internal/loader"
	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// sourceFlags describes where one vendor population comes from: a Postgres
// match table or a JSONL export, plus payload shaping.
type sourceFlags struct {
	jsonl  string
	table  string
	rebase string
	prefix string
}

// register adds the source flags with the given prefix, e.g. "left-table".
func (s *sourceFlags) register(cmd *cobra.Command, prefix, defaultTable string) {
	name := func(base string) string {
		if prefix == "" {
			return base
		}
		return prefix + "-" + base
	}

	cmd.Flags().StringVar(&s.jsonl, name("jsonl"), "",
		"JSONL export to read instead of Postgres")
	cmd.Flags().StringVar(&s.table, name("table"), defaultTable,
		"Postgres table holding the match rows")
	cmd.Flags().StringVar(&s.rebase, name("rebase"), "",
		"Comma-separated envelope keys to descend into before flattening")
	cmd.Flags().StringVar(&s.prefix, name("prefix"), "",
		"Dotted prefix to namespace flattened paths under")
}

func (s *sourceFlags) shape() loader.Shape {
	shape := loader.Shape{Prefix: s.prefix}
	for _, key := range strings.Split(s.rebase, ",") {
		if key = strings.TrimSpace(key); key != "" {
			shape.Rebase = append(shape.Rebase, key)
		}
	}
	return shape
}

// load reads the source rows, preferring JSONL when configured.
func (s *sourceFlags) load(ctx context.Context, databaseURL, segmentColumn string) ([]tables.Row, error) {
	if s.jsonl != "" {
		return loader.FromJSONL(s.jsonl, s.shape())
	}
	if databaseURL == "" {
		return nil, errors.NewConfigError("cmd",
			"no source configured: pass a JSONL file or set a database URL", nil)
	}
	return loader.FromPostgres(ctx, databaseURL, s.table, loader.Options{
		SegmentColumn: segmentColumn,
		Shape:         s.shape(),
	})
}
