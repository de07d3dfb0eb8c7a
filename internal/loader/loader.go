// Package loader fetches vendor match populations and turns them into rows
// ready for table normalization. Both the Postgres and JSONL loaders apply
// the same payload shaping, so the downstream column vocabulary does not
// depend on where the rows came from.
package loader

import (
	"github.com/audiencekit/vendorlens/pkg/flatten"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

// Default source column names, matching the vendor match tables.
const (
	DefaultIdentityColumn = "email"
	DefaultDataColumn     = "response_json"
	DefaultSegmentColumn  = "external_store_id"
)

// Shape adjusts a raw payload before flattening so both vendors' columns
// land in a predictable vocabulary.
type Shape struct {
	// Rebase descends into each named key in order when present. A key
	// absent from the payload is skipped, so envelopes with and without
	// the wrapper shape the same way.
	Rebase []string
	// Prefix renests the payload under a dotted prefix, namespacing every
	// flattened path.
	Prefix string
}

// Apply shapes a parsed payload. A rebase that lands on a non-map value is
// left as is; normalization degrades such rows to identity-only records.
func (s Shape) Apply(v flatten.Value) flatten.Value {
	for _, key := range s.Rebase {
		if child, ok := v.Get(key); ok {
			v = child
		}
	}
	if s.Prefix != "" {
		v = flatten.Nest(s.Prefix, v)
	}
	return v
}

// Options configures a source read.
type Options struct {
	// IdentityColumn is the source column holding the join identity.
	// Defaults to "email".
	IdentityColumn string
	// DataColumn is the source column holding the vendor payload.
	// Defaults to "response_json".
	DataColumn string
	// SegmentColumn is the optional source column holding a segment
	// label. Empty disables segment reading; the default is
	// "external_store_id".
	SegmentColumn string
	// Shape is applied to every parsed payload.
	Shape Shape
}

func (o Options) withDefaults() Options {
	if o.IdentityColumn == "" {
		o.IdentityColumn = DefaultIdentityColumn
	}
	if o.DataColumn == "" {
		o.DataColumn = DefaultDataColumn
	}
	return o
}

// row builds one table row from raw source values. A missing or malformed
// payload degrades to an identity-only row; one bad payload never aborts a
// batch.
func row(identity, segment string, raw []byte, shape Shape) tables.Row {
	r := tables.Row{Identity: identity, Segment: segment}
	if len(raw) == 0 {
		return r
	}
	v, err := flatten.Parse(raw)
	if err != nil {
		return r
	}
	shaped := shape.Apply(v)
	r.Payload = &shaped
	return r
}
