package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iris-site/pkg/events"
	"iris-site/pkg/models"
)

func TestListOmitsBodyAndKeepsOrder(t *testing.T) {
	store := NewFSStore(fstest.MapFS{
		"b-gearbox.md": {Data: []byte("---\ntitle: Gearbox\ndate: 2024-02-01\n---\nsecret body")},
		"a-sensors.md": {Data: []byte("---\ntitle: Sensors\n---\nanother body")},
		"c-plain.md":   {Data: []byte("no front matter")},
	})

	res, err := NewLister(store, WithConcurrency(2)).List(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Summaries, 3)
	assert.Zero(t, res.Skipped)

	assert.Equal(t, "a-sensors", res.Summaries[0].Slug)
	assert.Equal(t, "Sensors", res.Summaries[0].Metadata.Title())
	assert.Equal(t, "b-gearbox", res.Summaries[1].Slug)
	assert.Equal(t, "c-plain", res.Summaries[2].Slug)
	assert.Equal(t, 0, res.Summaries[2].Metadata.Len())

	for _, s := range res.Summaries {
		data, err := s.MarshalJSON()
		require.NoError(t, err)
		assert.NotContains(t, string(data), "body")
	}
}

func TestListSkipsMalformedDocuments(t *testing.T) {
	coord := events.NewCoordinator()
	var skipped []string
	coord.Subscribe(func(e events.Event) {
		if e.Kind == events.DocumentSkipped {
			skipped = append(skipped, e.Slug)
		}
	})
	store := NewFSStore(fstest.MapFS{
		"one.md":    {Data: []byte("---\ntitle: One\n---\n")},
		"two.md":    {Data: []byte("+++\ntitle = \"Two\"\n+++\n")},
		"broken.md": {Data: []byte("---\ntitle: never closed\n")},
	})

	res, err := NewLister(store, WithConcurrency(1), WithListerEvents(coord)).List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Summaries, 2)
	assert.Equal(t, "One", res.Summaries[0].Metadata.Title())
	assert.Equal(t, "Two", res.Summaries[1].Metadata.Title())
	assert.Equal(t, []string{"broken"}, skipped)
}

type flakyStore struct {
	slugs []string
	docs  map[string]string
	fail  string
}

func (s *flakyStore) Slugs() ([]string, error) { return s.slugs, nil }

func (s *flakyStore) Read(slug string) ([]byte, error) {
	if slug == s.fail {
		return nil, &IOError{Op: "read", Path: slug + ArticleExt, Err: errors.New("input/output error")}
	}
	doc, ok := s.docs[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(doc), nil
}

func TestListFailsOnReadError(t *testing.T) {
	store := &flakyStore{
		slugs: []string{"ok", "bad"},
		docs:  map[string]string{"ok": "fine"},
		fail:  "bad",
	}

	_, err := NewLister(store).List(context.Background())
	assert.ErrorIs(t, err, ErrIO)
}

func TestListIgnoresVanishedDocuments(t *testing.T) {
	store := &flakyStore{
		slugs: []string{"here", "gone"},
		docs:  map[string]string{"here": "---\ntitle: Here\n---\n"},
	}

	res, err := NewLister(store).List(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Summaries, 1)
	assert.Equal(t, "here", res.Summaries[0].Slug)
	assert.Zero(t, res.Skipped)
}

func TestListEnumerationFailure(t *testing.T) {
	_, err := NewLister(failingStore{err: &IOError{Op: "readdir", Path: ".", Err: errors.New("gone")}}).List(context.Background())
	assert.ErrorIs(t, err, ErrIO)
}

func TestListManyDocuments(t *testing.T) {
	files := fstest.MapFS{}
	for i := range 100 {
		files[fmt.Sprintf("post-%03d.md", i)] = &fstest.MapFile{Data: []byte(fmt.Sprintf("---\ntitle: Post %d\n---\n", i))}
	}

	res, err := NewLister(NewFSStore(files), WithConcurrency(8)).List(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Summaries, 100)
	for i, s := range res.Summaries {
		assert.Equal(t, fmt.Sprintf("post-%03d", i), s.Slug)
		assert.Equal(t, fmt.Sprintf("Post %d", i), s.Metadata.Title())
	}
}

func summary(slug, date string) models.Summary {
	meta := models.NewMetadata()
	if date != "" {
		meta.Set("date", date)
	}
	return models.Summary{Slug: slug, Metadata: meta}
}

func TestSortByDateDesc(t *testing.T) {
	list := []models.Summary{
		summary("old", "2023-01-05"),
		summary("undated", ""),
		summary("new", "2024-06-01"),
		summary("spelled", "March 3, 2024"),
		summary("garbage", "someday"),
		summary("also-new", "2024-06-01"),
	}

	SortByDateDesc(list)

	var order []string
	for _, s := range list {
		order = append(order, s.Slug)
	}
	assert.Equal(t, []string{"also-new", "new", "spelled", "old", "garbage", "undated"}, order)
}
