package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencekit/vendorlens/pkg/flatten"
)

func payload(t *testing.T, raw string) *flatten.Value {
	t.Helper()
	v, err := flatten.Parse([]byte(raw))
	require.NoError(t, err)
	return &v
}

func TestNormalizeUnionColumns(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "a@x.com", Payload: payload(t, `{"demographics":{"age":30}}`)},
		{Identity: "b@x.com", Payload: payload(t, `{"demographics":{"gender":"f"},"employment":{"title":"VP"}}`)},
	})

	assert.Equal(t, []string{
		"email",
		"demographics.age",
		"demographics.gender",
		"employment.title",
	}, table.Columns())
	assert.Equal(t, 2, table.Len())
}

func TestNormalizeAbsentVersusNull(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "a@x.com", Payload: payload(t, `{"age":null}`)},
		{Identity: "b@x.com", Payload: payload(t, `{"name":"B"}`)},
	})

	first := table.Record(0)
	v, present := first["age"]
	assert.True(t, present)
	assert.Nil(t, v)

	second := table.Record(1)
	_, present = second["age"]
	assert.False(t, present)
}

func TestNormalizeDegradedPayloads(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "a@x.com", Payload: nil},
		{Identity: "b@x.com", Payload: payload(t, `"not an object"`)},
	})

	// Bad payloads degrade to identity-only records instead of aborting
	// the batch.
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, flatten.FlatRecord{"email": "a@x.com"}, table.Record(0))
	assert.Equal(t, flatten.FlatRecord{"email": "b@x.com"}, table.Record(1))
}

func TestNormalizeIdentityLastWriteWins(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "real@x.com", Payload: payload(t, `{"email":"payload@x.com"}`)},
	})

	assert.Equal(t, "real@x.com", table.Record(0)["email"])
}

func TestNormalizeIdentityColumnOverride(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "real@x.com", Payload: payload(t, `{"email":"payload@x.com"}`)},
	}, WithIdentityColumn("subject_email"))

	rec := table.Record(0)
	assert.Equal(t, "real@x.com", rec["subject_email"])
	assert.Equal(t, "payload@x.com", rec["email"])
	assert.Equal(t, "subject_email", table.Columns()[0])
}

func TestNormalizeSegments(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "a@x.com", Segment: "mailing_a", Payload: payload(t, `{"k":1}`)},
		{Identity: "b@x.com", Segment: "mailing_b", Payload: payload(t, `{"k":2}`)},
		{Identity: "c@x.com", Payload: payload(t, `{"k":3}`)},
	}, WithSegmentColumn("segment"))

	assert.Equal(t, 3, table.Len())
	only := table.FilterSegment("mailing_a")
	require.Equal(t, 1, only.Len())
	assert.Equal(t, "a@x.com", only.Record(0)["email"])

	// Rows without a segment label carry no segment key at all.
	_, present := table.Record(2)["segment"]
	assert.False(t, present)
}

func TestResolvePriorityOrder(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "a@x.com", Payload: payload(t, `{"old":{"age":null},"new":{"age":30}}`)},
	})

	// The first present alias wins even when its values are all null.
	col, ok := table.Resolve("old.age", "new.age")
	require.True(t, ok)
	assert.Equal(t, "old.age", col)

	col, ok = table.Resolve("missing.age", "new.age")
	require.True(t, ok)
	assert.Equal(t, "new.age", col)

	_, ok = table.Resolve("nope", "also.nope")
	assert.False(t, ok)
}

func TestMatchingColumns(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "a@x.com", Payload: payload(t, `{"demographics":{"gender":"f"},"household":{"gender_mix":"even"}}`)},
	})

	assert.Equal(t, []string{"demographics.gender", "household.gender_mix"},
		table.MatchingColumns("gender"))
	assert.Empty(t, table.MatchingColumns("income"))
}

func TestDistinctValuesTrimsAndDropsEmpty(t *testing.T) {
	table := Normalize([]Row{
		{Identity: "  a@x.com ", Payload: nil},
		{Identity: "a@x.com", Payload: nil},
		{Identity: "", Payload: nil},
		{Identity: "   ", Payload: nil},
		{Identity: "b@x.com", Payload: nil},
	})

	ids := table.Identities()
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, "a@x.com")
	assert.Contains(t, ids, "b@x.com")
}

func TestNormalizeDeterministic(t *testing.T) {
	rows := func() []Row {
		return []Row{
			{Identity: "a@x.com", Payload: payload(t, `{"z":1,"m":{"q":2}}`)},
			{Identity: "b@x.com", Payload: payload(t, `{"a":"x"}`)},
		}
	}

	first := Normalize(rows())
	second := Normalize(rows())

	assert.Equal(t, first.Columns(), second.Columns())
	for i := 0; i < first.Len(); i++ {
		assert.Equal(t, first.Record(i), second.Record(i))
	}
}
