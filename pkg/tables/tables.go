// Package tables assembles flattened vendor payloads into normalized,
// chart-ready tables. A table is an ordered sequence of flat records plus
// the union of all keys seen across rows; rows keep heterogeneous schemas,
// so a row missing a key is "absent", which is distinct from a key present
// with an explicit null.
package tables

import (
	"sort"
	"strings"

	"github.com/audiencekit/vendorlens/pkg/flatten"
)

// DefaultIdentityColumn is the reserved column the identity value is merged
// under when no override is configured.
const DefaultIdentityColumn = "email"

// Row is one fetched subject: its identity value, its raw payload (nil when
// the vendor had no data or the payload was malformed), and an optional
// segment label carried through for per-segment slicing.
type Row struct {
	Identity string
	Payload  *flatten.Value
	Segment  string
}

// Table is a normalized population from one vendor. Treated as immutable
// once assembled.
type Table struct {
	identityColumn string
	segmentColumn  string
	columns        []string
	columnSet      map[string]struct{}
	rows           []flatten.FlatRecord
}

// Option configures Normalize.
type Option func(*settings)

type settings struct {
	identityColumn string
	segmentColumn  string
}

// WithIdentityColumn overrides the reserved column name the identity value
// is written to. Renaming it to a name no vendor payload uses avoids the
// silent last-write-wins overwrite on collision.
func WithIdentityColumn(name string) Option {
	return func(s *settings) { s.identityColumn = name }
}

// WithSegmentColumn sets the column name segment labels are written to.
// When empty, segments are dropped.
func WithSegmentColumn(name string) Option {
	return func(s *settings) { s.segmentColumn = name }
}

// Normalize flattens every row of one data source into a Table. Rows are
// processed independently: a nil or non-map payload degrades to an
// identity-only record, so one bad row never aborts a batch. The identity
// value is written after flattening, so a flattened path colliding with the
// identity column name is overwritten (last write wins).
//
// Normalize is deterministic: identical input rows produce identical tables.
func Normalize(rows []Row, opts ...Option) *Table {
	s := settings{identityColumn: DefaultIdentityColumn}
	for _, opt := range opts {
		opt(&s)
	}

	t := &Table{
		identityColumn: s.identityColumn,
		segmentColumn:  s.segmentColumn,
		columnSet:      make(map[string]struct{}),
		rows:           make([]flatten.FlatRecord, 0, len(rows)),
	}

	for _, row := range rows {
		var rec flatten.FlatRecord
		if row.Payload != nil && row.Payload.Kind() == flatten.KindMap {
			rec = flatten.Flatten(*row.Payload)
		} else {
			rec = make(flatten.FlatRecord, 2)
		}

		// Identity wins over any flattened path with the same name.
		rec[s.identityColumn] = row.Identity
		if s.segmentColumn != "" && row.Segment != "" {
			rec[s.segmentColumn] = row.Segment
		}

		for key := range rec {
			if _, seen := t.columnSet[key]; !seen {
				t.columnSet[key] = struct{}{}
				t.columns = append(t.columns, key)
			}
		}
		t.rows = append(t.rows, rec)
	}

	// Identity column first, remaining columns sorted: flat records are
	// maps, so first-seen order would depend on map iteration.
	sort.Slice(t.columns, func(i, j int) bool {
		if t.columns[i] == s.identityColumn {
			return t.columns[j] != s.identityColumn
		}
		if t.columns[j] == s.identityColumn {
			return false
		}
		return t.columns[i] < t.columns[j]
	})

	return t
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the union of all row keys. The identity column is first;
// the rest are sorted.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether any row carries the given key.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.columnSet[name]
	return ok
}

// IdentityColumn returns the reserved identity column name.
func (t *Table) IdentityColumn() string {
	return t.identityColumn
}

// SegmentColumn returns the segment column name, or "" when unset.
func (t *Table) SegmentColumn() string {
	return t.segmentColumn
}

// Record returns the i-th row. The record is shared; callers must not
// modify it.
func (t *Table) Record(i int) flatten.FlatRecord {
	return t.rows[i]
}

// Resolve returns the first of the candidate paths present in the table's
// column set, in declared priority order. Alias order encodes schema
// evolution (most specific or newest alias first); the winner is the first
// present column, never the one with the most non-null values.
func (t *Table) Resolve(aliases ...string) (string, bool) {
	for _, alias := range aliases {
		if t.HasColumn(alias) {
			return alias, true
		}
	}
	return "", false
}

// MatchingColumns returns the columns whose path contains substr, in column
// order. Vendors sometimes move a field between schema versions; suffix
// scanning finds it wherever it landed.
func (t *Table) MatchingColumns(substr string) []string {
	var out []string
	for _, col := range t.columns {
		if strings.Contains(col, substr) {
			out = append(out, col)
		}
	}
	return out
}

// Identities returns the trimmed, non-empty identity values as a set.
func (t *Table) Identities() map[string]struct{} {
	return t.DistinctValues(t.identityColumn)
}

// DistinctValues returns the set of trimmed, non-empty values of a column.
func (t *Table) DistinctValues(col string) map[string]struct{} {
	set := make(map[string]struct{}, len(t.rows))
	for _, rec := range t.rows {
		v, ok := rec[col]
		if !ok {
			continue
		}
		s := strings.TrimSpace(FormatScalar(v))
		if s == "" {
			continue
		}
		set[s] = struct{}{}
	}
	return set
}

// Filter returns a new table holding the rows for which pred is true.
// The column set is preserved.
func (t *Table) Filter(pred func(flatten.FlatRecord) bool) *Table {
	out := &Table{
		identityColumn: t.identityColumn,
		segmentColumn:  t.segmentColumn,
		columns:        t.columns,
		columnSet:      t.columnSet,
	}
	for _, rec := range t.rows {
		if pred(rec) {
			out.rows = append(out.rows, rec)
		}
	}
	return out
}

// FilterSegment returns the rows whose segment column equals value.
// It returns t unchanged when no segment column is configured.
func (t *Table) FilterSegment(value string) *Table {
	if t.segmentColumn == "" {
		return t
	}
	return t.Filter(func(rec flatten.FlatRecord) bool {
		v, ok := rec[t.segmentColumn]
		return ok && FormatScalar(v) == value
	})
}
