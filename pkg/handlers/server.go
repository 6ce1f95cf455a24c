package handlers

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"iris-site/pkg/auth"
	"iris-site/pkg/backend"
	"iris-site/pkg/services"
	"iris-site/pkg/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Server holds everything the HTTP handlers need. Optional collaborators
// (Backend, Media, Tokens, Metrics) turn their routes off when nil.
type Server struct {
	Resolver  *services.Resolver
	Lister    *services.Lister
	Exchanger auth.Exchanger
	// Tokens, when set, re-verifies the stored session token on every request.
	Tokens  *auth.Tokens
	Backend *backend.Client
	Media   services.MediaStore
	// MediaDir is served at MediaRoute for the local media backend.
	MediaDir   string
	MediaRoute string
	MaxUpload  int64
	Metrics    http.Handler
	Log        *zap.Logger
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Routes registers every route on r. Session middleware must already be installed.
func (s *Server) Routes(r *gin.Engine) error {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(static))
	if s.MediaDir != "" && s.MediaRoute != "" {
		r.Static(s.MediaRoute, s.MediaDir)
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics))
	}

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/blog") })
	r.GET("/blog", s.BlogIndex)
	r.GET("/blogpost/:slug", s.BlogPost)
	r.GET("/api/blogdata", s.BlogData)
	r.GET("/api/articles/:slug", s.ArticleJSON)

	r.GET("/login", s.LoginPage)
	r.GET("/auth/github", s.GithubLogin)
	r.GET("/auth/callback", s.AuthCallback)
	r.GET("/logout", s.Logout)

	authorized := r.Group("/")
	authorized.Use(s.RequireAuth)
	{
		if s.Backend != nil {
			authorized.GET("/dashboard", s.Dashboard)
			authorized.GET("/dashboard/member", s.MemberDashboard)
			authorized.GET("/dashboard/admin", s.RequireAdmin, s.AdminDashboard)
			s.dashboardAPI(authorized.Group("/api/dashboard"))
		}
		if s.Media != nil {
			authorized.GET("/api/media", s.ListMedia)
			authorized.POST("/api/media", s.UploadMedia)
			authorized.DELETE("/api/media", s.DeleteMedia)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		if isAPI(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		s.errorPage(c, http.StatusNotFound, "This page does not exist.")
	})
	return nil
}

func isAPI(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/")
}

// page renders a template with the header data every page needs.
func (s *Server) page(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	sess := session.From(c)
	data["User"] = sess.User()
	data["Flashes"] = sess.Flashes()
	if _, ok := data["Title"]; !ok {
		data["Title"] = ""
	}
	c.HTML(status, name, data)
}

func (s *Server) errorPage(c *gin.Context, status int, message string) {
	s.page(c, status, "error.html", gin.H{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": message,
	})
}
