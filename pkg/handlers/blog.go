package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"iris-site/pkg/models"
	"iris-site/pkg/services"
)

func (s *Server) BlogIndex(c *gin.Context) {
	res, err := s.Lister.List(c.Request.Context())
	if err != nil {
		s.Log.Error("list articles", zap.Error(err))
		s.errorPage(c, http.StatusInternalServerError, "The blog is unavailable right now.")
		return
	}
	posts := append([]models.Summary(nil), res.Summaries...)
	services.SortByDateDesc(posts)
	s.page(c, http.StatusOK, "blog.html", gin.H{"Title": "Blog", "Posts": posts})
}

// BlogData returns every article's metadata plus slug, in content store order.
func (s *Server) BlogData(c *gin.Context) {
	res, err := s.Lister.List(c.Request.Context())
	if err != nil {
		s.Log.Error("list articles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch blogs"})
		return
	}
	c.JSON(http.StatusOK, res.Summaries)
}

func (s *Server) BlogPost(c *gin.Context) {
	art, err := s.Resolver.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			s.errorPage(c, http.StatusNotFound, "Blog post not found.")
			return
		}
		s.Log.Error("render article", zap.String("slug", c.Param("slug")), zap.Error(err))
		s.errorPage(c, http.StatusInternalServerError, "This post could not be rendered.")
		return
	}

	title := art.Metadata.Title()
	if title == "" {
		title = services.UntitledPlaceholder
	}
	s.page(c, http.StatusOK, "article.html", gin.H{
		"Title":   title,
		"Article": art,
		// Pipeline output is sanitized: raw HTML in the markdown is dropped.
		"Body": template.HTML(art.HTML),
	})
}

func (s *Server) ArticleJSON(c *gin.Context) {
	art, err := s.Resolver.Resolve(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Blog not found"})
			return
		}
		s.Log.Error("render article", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render blog"})
		return
	}
	c.JSON(http.StatusOK, art)
}
