package models

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryJSONOmitsBodyKeys(t *testing.T) {
	meta := NewMetadata()
	meta.Set("title", "Line follower")
	meta.Set("body", "## leaked")
	meta.Set("content", "more leaked")
	meta.Set("slug", "spoofed")
	meta.Set("author", "Ada")

	data, err := json.Marshal(Summary{Slug: "line-follower", Metadata: meta})
	require.NoError(t, err)

	assert.JSONEq(t, `{"title":"Line follower","author":"Ada","slug":"line-follower"}`, string(data))
}

func TestSummaryJSONWithOnlyReservedKeys(t *testing.T) {
	meta := NewMetadata()
	meta.Set("body", "x")

	data, err := json.Marshal(Summary{Slug: "a", Metadata: meta})
	require.NoError(t, err)
	assert.Equal(t, `{"slug":"a"}`, string(data))
}

func TestMetadataJSONKeepsOrder(t *testing.T) {
	meta := NewMetadata()
	meta.Set("title", "T")
	meta.Set("date", "2024-01-01")
	meta.Set("body", "kept in full metadata")

	data, err := json.Marshal(meta)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"T","date":"2024-01-01","body":"kept in full metadata"}`, string(data))
}
