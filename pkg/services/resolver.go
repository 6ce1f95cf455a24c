package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"iris-site/pkg/events"
	"iris-site/pkg/models"
)

// Fallback supplies documents the content store does not have.
type Fallback interface {
	// Lookup returns the document for slug, or ErrNotFound.
	Lookup(ctx context.Context, slug string) (*models.Document, error)
}

// Resolver renders one article per slug from the content store.
type Resolver struct {
	store    ContentStore
	pipeline *Pipeline
	fallback Fallback
	events   *events.Coordinator
	log      *zap.Logger
}

type ResolverOption func(*Resolver)

func WithFallback(f Fallback) ResolverOption {
	return func(r *Resolver) { r.fallback = f }
}

func WithResolverEvents(c *events.Coordinator) ResolverOption {
	return func(r *Resolver) { r.events = c }
}

func WithResolverLogger(l *zap.Logger) ResolverOption {
	return func(r *Resolver) { r.log = l.Named("resolver") }
}

func NewResolver(store ContentStore, pipeline *Pipeline, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		pipeline: pipeline,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve renders the article for slug. Errors are ErrNotFound, an *IOError,
// ErrParse, or whatever the fallback reports.
func (r *Resolver) Resolve(ctx context.Context, slug string) (art *models.RenderedArticle, err error) {
	end := r.events.Begin(slug)
	defer func() { end(OutcomeOf(err), err) }()

	doc, err := r.Document(ctx, slug)
	if err != nil {
		return nil, err
	}
	return r.Render(doc)
}

// Standalone renders the article for slug as a complete HTML document.
func (r *Resolver) Standalone(ctx context.Context, slug string) (string, error) {
	doc, err := r.Document(ctx, slug)
	if err != nil {
		return "", err
	}
	return r.pipeline.Render(doc.Body, RenderOptions{Title: titleOf(doc), Standalone: true})
}

// Document loads and splits the document for slug. Malformed front matter
// degrades to empty metadata with the whole file as body.
func (r *Resolver) Document(ctx context.Context, slug string) (*models.Document, error) {
	if !ValidSlug(slug) {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, ErrInvalidSlug)
	}

	raw, err := r.store.Read(slug)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound) && r.fallback != nil:
		return r.fallback.Lookup(ctx, slug)
	default:
		return nil, err
	}

	meta, body, err := ParseFrontMatter(raw)
	if err != nil {
		if !errors.Is(err, ErrMalformedFrontMatter) {
			return nil, err
		}
		r.log.Warn("rendering without front matter", zap.String("slug", slug), zap.Error(err))
		meta, body = models.NewMetadata(), string(raw)
	}
	return &models.Document{Slug: slug, Metadata: meta, Body: body}, nil
}

// Render runs doc through the pipeline and collects its headings.
func (r *Resolver) Render(doc *models.Document) (*models.RenderedArticle, error) {
	out, err := r.pipeline.Render(doc.Body, RenderOptions{Title: titleOf(doc)})
	if err != nil {
		return nil, err
	}
	headings, err := ExtractHeadings(out)
	if err != nil {
		return nil, fmt.Errorf("%w: extract headings: %v", ErrParse, err)
	}
	return &models.RenderedArticle{
		Slug:     doc.Slug,
		HTML:     out,
		Metadata: doc.Metadata,
		Headings: headings,
	}, nil
}

func titleOf(doc *models.Document) string {
	if t := doc.Metadata.Title(); t != "" {
		return t
	}
	return UntitledPlaceholder
}

// OutcomeOf classifies an error returned by Resolve.
func OutcomeOf(err error) events.Outcome {
	switch {
	case err == nil:
		return events.OutcomeSuccess
	case errors.Is(err, ErrNotFound):
		return events.OutcomeNotFound
	default:
		return events.OutcomeFault
	}
}
