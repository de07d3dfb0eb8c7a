package loader

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/audiencekit/vendorlens/pkg/errors"
	"github.com/audiencekit/vendorlens/pkg/logging"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// FromPostgres reads one vendor's match rows from a Postgres table. Column
// and table names are quoted identifiers, never interpolated values. Rows
// with a null identity are dropped; rows with a missing or malformed
// payload degrade to identity-only rows.
func FromPostgres(ctx context.Context, connString, table string, opts Options) ([]tables.Row, error) {
	opts = opts.withDefaults()
	if connString == "" {
		return nil, errors.NewConfigError("loader", "postgres connection string required", nil)
	}
	if table == "" {
		return nil, errors.NewConfigError("loader", "source table name required", nil)
	}

	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, errors.WrapQuery(table, err)
	}
	defer func() { _ = conn.Close(ctx) }()

	columns := []string{opts.IdentityColumn, opts.DataColumn}
	if opts.SegmentColumn != "" {
		columns = append(columns, opts.SegmentColumn)
	}
	query := fmt.Sprintf("SELECT %s FROM %s", quotedList(columns), quoteIdentifier(table))

	pgRows, err := conn.Query(ctx, query)
	if err != nil {
		return nil, errors.WrapQuery(table, err)
	}
	defer pgRows.Close()

	var rows []tables.Row
	for pgRows.Next() {
		var identity, segment *string
		var raw []byte

		dest := []any{&identity, &raw}
		if opts.SegmentColumn != "" {
			dest = append(dest, &segment)
		}
		if err := pgRows.Scan(dest...); err != nil {
			return nil, errors.WrapQuery(table, err)
		}
		if identity == nil {
			continue
		}

		var seg string
		if segment != nil {
			seg = *segment
		}
		rows = append(rows, row(*identity, seg, raw, opts.Shape))
	}
	if err := pgRows.Err(); err != nil {
		return nil, errors.WrapQuery(table, err)
	}

	logging.Debug().
		Str("table", table).
		Int("rows", len(rows)).
		Msg("Loaded rows from postgres")

	return rows, nil
}

// quoteIdentifier quotes a SQL identifier, doubling embedded quotes.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quotedList(names []string) string {
	quoted := make([]string, len(names))
	for i, name := range names {
		quoted[i] = quoteIdentifier(name)
	}
	return strings.Join(quoted, ", ")
}
