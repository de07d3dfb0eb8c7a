package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiencekit/vendorlens/pkg/errors"
)

func TestSourceShapeParsing(t *testing.T) {
	s := sourceFlags{rebase: "document, attributes", prefix: "data.document.attributes"}

	shape := s.shape()
	assert.Equal(t, []string{"document", "attributes"}, shape.Rebase)
	assert.Equal(t, "data.document.attributes", shape.Prefix)

	empty := sourceFlags{}
	assert.Nil(t, empty.shape().Rebase)
	assert.Equal(t, "", empty.shape().Prefix)
}

func TestSourceLoadRequiresASource(t *testing.T) {
	s := sourceFlags{table: "matched_emails"}

	_, err := s.load(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}
