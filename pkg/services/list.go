package services

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"iris-site/pkg/events"
	"iris-site/pkg/models"
)

const defaultListConcurrency = 20

// Lister enumerates article summaries from the content store.
type Lister struct {
	store       ContentStore
	concurrency int
	events      *events.Coordinator
	log         *zap.Logger
}

type ListerOption func(*Lister)

// WithConcurrency bounds the number of documents read at once.
func WithConcurrency(n int) ListerOption {
	return func(l *Lister) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

func WithListerEvents(c *events.Coordinator) ListerOption {
	return func(l *Lister) { l.events = c }
}

func WithListerLogger(log *zap.Logger) ListerOption {
	return func(l *Lister) { l.log = log.Named("lister") }
}

func NewLister(store ContentStore, opts ...ListerOption) *Lister {
	l := &Lister{
		store:       store,
		concurrency: defaultListConcurrency,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// List returns a summary for every document, in store enumeration order.
// Documents with malformed front matter are skipped and counted; any read
// failure fails the whole listing.
func (l *Lister) List(ctx context.Context) (*models.ListResult, error) {
	start := time.Now()

	slugs, err := l.store.Slugs()
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.Summary, len(slugs))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, slug := range slugs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			raw, err := l.store.Read(slug)
			if err != nil {
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				return err
			}
			meta, _, err := ParseFrontMatter(raw)
			if err != nil {
				skipped.Add(1)
				l.log.Warn("skipping document", zap.String("slug", slug), zap.Error(err))
				l.events.Publish(events.Event{Kind: events.DocumentSkipped, Slug: slug, Err: err})
				return nil
			}
			summaries[i] = &models.Summary{Slug: slug, Metadata: meta}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.events.Publish(events.Event{Kind: events.ListFinished, Outcome: events.OutcomeFault, Err: err, Duration: time.Since(start)})
		return nil, err
	}

	result := &models.ListResult{
		Summaries: make([]models.Summary, 0, len(slugs)),
		Skipped:   int(skipped.Load()),
	}
	for _, s := range summaries {
		if s != nil {
			result.Summaries = append(result.Summaries, *s)
		}
	}
	l.events.Publish(events.Event{Kind: events.ListFinished, Outcome: events.OutcomeSuccess, Duration: time.Since(start)})
	return result, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"02/01/2006",
}

// ParseDate reads a front matter date in any of the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SortByDateDesc orders summaries newest first. Undated or unparseable
// entries go last; ties are broken by slug.
func SortByDateDesc(summaries []models.Summary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		ti, oki := ParseDate(summaries[i].Metadata.Date())
		tj, okj := ParseDate(summaries[j].Metadata.Date())
		switch {
		case oki && okj && !ti.Equal(tj):
			return ti.After(tj)
		case oki != okj:
			return oki
		default:
			return summaries[i].Slug < summaries[j].Slug
		}
	})
}
