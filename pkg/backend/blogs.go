package backend

import (
	"context"
	"fmt"
	"time"

	"iris-site/pkg/models"
	"iris-site/pkg/services"
)

// Blogs serves database-backed posts to the article resolver for slugs the
// content directory does not have.
type Blogs struct {
	client *Client
}

func NewBlogs(c *Client) *Blogs {
	return &Blogs{client: c}
}

func (b *Blogs) Lookup(ctx context.Context, slug string) (*models.Document, error) {
	blog, err := b.client.Blog(ctx, slug)
	if err != nil {
		if IsNotFound(err) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("fetch blog %s: %w", slug, err)
	}
	return &models.Document{Slug: slug, Metadata: blogMetadata(blog), Body: blog.Content}, nil
}

func blogMetadata(b *models.Blog) models.Metadata {
	meta := models.NewMetadata()
	meta.Set("title", b.Title)
	meta.Set("description", b.Description)

	author := b.AuthorName
	if author == "" {
		author = "Unknown"
	}
	meta.Set("author", author)

	date := b.CreatedAt
	if t, err := time.Parse(time.RFC3339, b.CreatedAt); err == nil {
		date = t.Format("January 2, 2006")
	}
	meta.Set("date", date)

	if b.ImageURL != "" {
		meta.Set("image_url", b.ImageURL)
	}
	if b.Category != "" {
		meta.Set("category", b.Category)
	}
	return meta
}
