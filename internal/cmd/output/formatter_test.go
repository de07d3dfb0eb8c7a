package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, Format(""), format)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatJSON).Format(&buf, map[string]int{"rows": 3})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"rows": 3`)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatYAML).Format(&buf, map[string]string{"left": "postgres"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "left: postgres")
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := Data{
		Headers: []string{"Value", "Count"},
		Rows: [][]string{
			{"Female", "700"},
			{"Male", "480"},
		},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	err := NewFormatter(FormatTable).Format(&buf, data)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Female")
	assert.Contains(t, out, "700")
}

func TestTableFormatterFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	err := NewFormatter(FormatTable).Format(&buf, map[string]int{"rows": 3})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"rows": 3`)
}

func TestTitleHeader(t *testing.T) {
	assert.Equal(t, "Non Empty", TitleHeader("non_empty"))
	assert.Equal(t, "Demographics Gender", TitleHeader("demographics.gender"))
}
