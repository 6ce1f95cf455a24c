package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-site/pkg/models"
)

func TestParseFrontMatterYAML(t *testing.T) {
	src := "---\ntitle: Hello\nauthor: Ada\ndate: 2024-03-01\ndescription: \"A: quoted value\"\n---\n## Intro\ntext\n"

	meta, body, err := ParseFrontMatter([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "author", "date", "description"}, meta.Keys())
	assert.Equal(t, "Hello", meta.Title())
	assert.Equal(t, "Ada", meta.Author())
	assert.Equal(t, "2024-03-01", meta.Date())
	assert.Equal(t, "A: quoted value", meta.Description())
	assert.Equal(t, "## Intro\ntext\n", body)
}

func TestParseFrontMatterKeepsScalarsVerbatim(t *testing.T) {
	src := "---\nversion: 1.10\npublished: yes\nempty:\ntags: [ros, lidar]\n---\nbody"

	meta, body, err := ParseFrontMatter([]byte(src))
	require.NoError(t, err)

	v, _ := meta.Get("version")
	assert.Equal(t, "1.10", v)
	v, _ = meta.Get("published")
	assert.Equal(t, "yes", v)
	v, ok := meta.Get("empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)
	v, _ = meta.Get("tags")
	assert.Equal(t, "ros, lidar", v)
	assert.Equal(t, "body", body)
}

func TestParseFrontMatterTOML(t *testing.T) {
	src := "+++\ntitle = \"Rover build log\"\nauthor = \"Grace\"\ndate = 2024-05-06\ndraft = false\n+++\nBody text\n"

	meta, body, err := ParseFrontMatter([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"title", "author", "date", "draft"}, meta.Keys())
	assert.Equal(t, "Rover build log", meta.Title())
	assert.Equal(t, "2024-05-06", meta.Date())
	v, _ := meta.Get("draft")
	assert.Equal(t, "false", v)
	assert.Equal(t, "Body text\n", body)
}

func TestParseFrontMatterWithoutFence(t *testing.T) {
	src := "# Just markdown\n\n---\n\nwith a rule"

	meta, body, err := ParseFrontMatter([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Len())
	assert.Equal(t, src, body)
}

func TestParseFrontMatterFenceMustStartTheFile(t *testing.T) {
	src := "\n---\ntitle: late\n---\nbody"

	meta, body, err := ParseFrontMatter([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Len())
	assert.Equal(t, src, body)
}

func TestParseFrontMatterCRLF(t *testing.T) {
	src := "---\r\ntitle: Windows\r\n---\r\nbody\r\n"

	meta, body, err := ParseFrontMatter([]byte(src))
	require.NoError(t, err)
	assert.Equal(t, "Windows", meta.Title())
	assert.Equal(t, "body\r\n", body)
}

func TestParseFrontMatterMalformed(t *testing.T) {
	tests := map[string]string{
		"unterminated":      "---\ntitle: Hello\n\n## Intro\n",
		"only fence":        "---",
		"not a mapping":     "---\n- a\n- b\n---\nbody",
		"invalid yaml":      "---\ntitle: [unclosed\n---\nbody",
		"unterminated toml": "+++\ntitle = \"x\"\nbody",
		"invalid toml":      "+++\ntitle = \n+++\nbody",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseFrontMatter([]byte(src))
			assert.ErrorIs(t, err, ErrMalformedFrontMatter)
		})
	}
}

func TestParseFrontMatterEmptyBlock(t *testing.T) {
	meta, body, err := ParseFrontMatter([]byte("---\n---\nbody"))
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Len())
	assert.Equal(t, "body", body)
}

func TestFormatFrontMatterRoundTrip(t *testing.T) {
	meta := models.NewMetadata()
	meta.Set("title", "Hello: World")
	meta.Set("author", "Ada")
	meta.Set("date", "2024-01-02")
	meta.Set("published", "yes")

	out, err := FormatFrontMatter(meta, "## Intro\n")
	require.NoError(t, err)

	got, body, err := ParseFrontMatter(out)
	require.NoError(t, err)
	assert.Equal(t, meta.Keys(), got.Keys())
	assert.Equal(t, meta.Map(), got.Map())
	assert.Equal(t, "## Intro\n", body)
}
