package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencekit/vendorlens/pkg/flatten"
	"github.com/audiencekit/vendorlens/pkg/tables"
)

func parse(t *testing.T, raw string) flatten.Value {
	t.Helper()
	v, err := flatten.Parse([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestShapeRebaseAndPrefix(t *testing.T) {
	shape := Shape{
		Rebase: []string{"document", "attributes"},
		Prefix: "data.document.attributes",
	}

	shaped := shape.Apply(parse(t, `{"document":{"attributes":{"age":41}}}`))
	assert.Equal(t, flatten.FlatRecord{
		"data.document.attributes.age": float64(41),
	}, flatten.Flatten(shaped))
}

func TestShapeRebaseSkipsAbsentKeys(t *testing.T) {
	shape := Shape{Rebase: []string{"document", "attributes"}}

	// Payloads without the envelope wrapper shape the same way.
	shaped := shape.Apply(parse(t, `{"age":41}`))
	assert.Equal(t, flatten.FlatRecord{"age": float64(41)}, flatten.Flatten(shaped))

	shaped = shape.Apply(parse(t, `{"document":{"age":41}}`))
	assert.Equal(t, flatten.FlatRecord{"age": float64(41)}, flatten.Flatten(shaped))
}

func TestShapeZeroValueIsIdentity(t *testing.T) {
	v := parse(t, `{"k":"v"}`)
	shaped := Shape{}.Apply(v)
	assert.Equal(t, flatten.Flatten(v), flatten.Flatten(shaped))
}

func TestRowDegradesBadPayloads(t *testing.T) {
	r := row("a@x.com", "", nil, Shape{})
	assert.Equal(t, "a@x.com", r.Identity)
	assert.Nil(t, r.Payload)

	r = row("a@x.com", "", []byte(`{not json`), Shape{})
	assert.Nil(t, r.Payload)

	r = row("a@x.com", "store_1", []byte(`{"k":1}`), Shape{})
	require.NotNil(t, r.Payload)
	assert.Equal(t, "store_1", r.Segment)
}

func writeJSONL(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))
	return path
}

func TestFromJSONL(t *testing.T) {
	path := writeJSONL(t, `
{"identity":"a@x.com","payload":{"gender":"f"},"segment":"store_1"}

{"identity":"b@x.com","payload":{"gender":"m"}}
{"identity":"c@x.com"}
{"identity":"","payload":{"gender":"x"}}
`)

	rows, err := FromJSONL(path, Shape{})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	table := tables.Normalize(rows, tables.WithSegmentColumn("segment"))
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, "f", table.Record(0)["gender"])
	assert.Equal(t, "store_1", table.Record(0)["segment"])
	assert.Equal(t, flatten.FlatRecord{"email": "c@x.com"}, table.Record(2))
}

func TestFromJSONLShaped(t *testing.T) {
	path := writeJSONL(t,
		`{"identity":"a@x.com","payload":{"document":{"attributes":{"age":41}}}}`)

	rows, err := FromJSONL(path, Shape{
		Rebase: []string{"document", "attributes"},
		Prefix: "data.document.attributes",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	table := tables.Normalize(rows)
	assert.Equal(t, float64(41), table.Record(0)["data.document.attributes.age"])
}

func TestFromJSONLErrors(t *testing.T) {
	_, err := FromJSONL(filepath.Join(t.TempDir(), "missing.jsonl"), Shape{})
	require.Error(t, err)

	path := writeJSONL(t, `not an object`)
	_, err = FromJSONL(path, Shape{})
	require.Error(t, err)

	// A malformed payload inside a valid line degrades instead of failing.
	path = writeJSONL(t, `{"identity":"a@x.com","payload":"just a string"}`)
	rows, err := FromJSONL(path, Shape{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	table := tables.Normalize(rows)
	assert.Equal(t, flatten.FlatRecord{"email": "a@x.com"}, table.Record(0))
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"matched_emails"`, quoteIdentifier("matched_emails"))
	assert.Equal(t, `"weird""name"`, quoteIdentifier(`weird"name`))
	assert.Equal(t, `"email", "response_json"`, quotedList([]string{"email", "response_json"}))
}
