package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"iris-site/pkg/auth"
	"iris-site/pkg/backend"
	"iris-site/pkg/config"
	"iris-site/pkg/events"
	"iris-site/pkg/handlers"
	"iris-site/pkg/metrics"
	"iris-site/pkg/models"
	"iris-site/pkg/services"
	"iris-site/pkg/session"
)

var rootCmd = &cobra.Command{
	Use:   "iris-site",
	Short: "IRIS robotics club site",
	Long: `Serves the club blog from a directory of markdown articles,
along with member sign-in and the dashboard backed by the REST API.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var renderCmd = &cobra.Command{
	Use:   "render <slug>",
	Short: "Render one article as a standalone HTML document",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print article summaries as JSON",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var newCmd = &cobra.Command{
	Use:   "new <slug>",
	Short: "Create an article with a front matter block",
	Args:  cobra.ExactArgs(1),
	RunE:  runNew,
}

func init() {
	rootCmd.PersistentFlags().String("content", "", "articles directory (overrides CONTENT_DIR)")

	renderCmd.Flags().Bool("fragment", false, "print the article body only, without the document wrapper")
	listCmd.Flags().Bool("by-date", false, "sort newest first instead of directory order")
	newCmd.Flags().String("title", "", "article title")
	newCmd.Flags().String("author", "", "article author")
	newCmd.Flags().String("description", "", "one-line summary")

	rootCmd.AddCommand(serveCmd, renderCmd, listCmd, newCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("content"); dir != "" {
		cfg.Content.Dir = dir
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

type content struct {
	resolver *services.Resolver
	lister   *services.Lister
	client   *backend.Client
}

func newContent(cfg *config.Config, log *zap.Logger, coord *events.Coordinator) *content {
	store := services.NewDirStore(cfg.Content.Dir)
	pipeline := services.NewPipeline(services.PipelineOptions{HighlightStyle: cfg.Content.HighlightStyle})
	client := backend.NewClient(cfg.Backend.URL, cfg.Backend.Timeout)

	opts := []services.ResolverOption{
		services.WithResolverEvents(coord),
		services.WithResolverLogger(log),
	}
	if cfg.Backend.BlogFallback {
		opts = append(opts, services.WithFallback(backend.NewBlogs(client)))
	}

	return &content{
		resolver: services.NewResolver(store, pipeline, opts...),
		lister: services.NewLister(store,
			services.WithConcurrency(cfg.Content.ListConcurrency),
			services.WithListerEvents(coord),
			services.WithListerLogger(log),
		),
		client: client,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := events.NewCoordinator()
	collectors := metrics.New()
	collectors.Attach(coord)
	coord.Subscribe(func(e events.Event) {
		if e.Kind == events.RenderFinished {
			log.Debug("render finished",
				zap.String("slug", e.Slug),
				zap.String("outcome", string(e.Outcome)),
				zap.Duration("took", e.Duration),
				zap.Int("inflight", e.Inflight),
			)
		}
	})

	c := newContent(cfg, log, coord)
	exchanger, tokens, err := newExchanger(cfg)
	if err != nil {
		return err
	}
	media, err := newMediaStore(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &handlers.Server{
		Resolver:  c.resolver,
		Lister:    c.lister,
		Exchanger: exchanger,
		Tokens:    tokens,
		Backend:   c.client,
		Media:     media,
		MaxUpload: cfg.Media.MaxUploadSize,
		Metrics:   collectors.Handler(),
		Log:       log,
	}
	if cfg.Media.Backend == config.MediaBackendLocal {
		srv.MediaDir = cfg.Media.Dir
		srv.MediaRoute = cfg.Media.PublicURL
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(handlers.RequestLogger(log), gin.Recovery())

	cookies := cookie.NewStore([]byte(cfg.SessionSecret))
	cookies.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Auth.JWTTTL.Seconds()),
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.AppURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("iris_session", cookies))
	r.Use(session.Middleware(session.GinStorage))

	if err := srv.Routes(r); err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("content", cfg.Content.Dir), zap.String("auth", cfg.Auth.Mode))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Int("inflight_renders", coord.Inflight()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func newExchanger(cfg *config.Config) (auth.Exchanger, *auth.Tokens, error) {
	client := resty.New().SetTimeout(cfg.Backend.Timeout)

	var tokens *auth.Tokens
	if cfg.Auth.JWTSecret != "" {
		tokens = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	}

	switch cfg.Auth.Mode {
	case config.AuthModeGitHub:
		if tokens == nil {
			return nil, nil, errors.New("AUTH_MODE=github requires JWT_SECRET")
		}
		if cfg.Auth.GithubClientID == "" || cfg.Auth.GithubClientSecret == "" {
			return nil, nil, errors.New("AUTH_MODE=github requires GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET")
		}
		return auth.NewGitHubExchanger(cfg.OAuth(), client, tokens, cfg.IsAdminLogin), tokens, nil
	default:
		return auth.NewBackendExchanger(cfg.Backend.URL, client), tokens, nil
	}
}

func newMediaStore(ctx context.Context, cfg *config.Config) (services.MediaStore, error) {
	if cfg.Media.Backend == config.MediaBackendS3 {
		return services.NewS3MediaStore(ctx, services.S3Options{
			Endpoint:  cfg.Media.S3Endpoint,
			Region:    cfg.Media.S3Region,
			Bucket:    cfg.Media.S3Bucket,
			AccessKey: cfg.Media.S3AccessKey,
			SecretKey: cfg.Media.S3SecretKey,
			PublicURL: cfg.Media.S3PublicURL,
		})
	}
	return services.NewLocalMediaStore(cfg.Media.Dir, cfg.Media.PublicURL), nil
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	c := newContent(cfg, log, nil)
	if fragment, _ := cmd.Flags().GetBool("fragment"); fragment {
		art, err := c.resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), art.HTML)
		return err
	}

	out, err := c.resolver.Standalone(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	res, err := newContent(cfg, log, nil).lister.List(cmd.Context())
	if err != nil {
		return err
	}
	if byDate, _ := cmd.Flags().GetBool("by-date"); byDate {
		services.SortByDateDesc(res.Summaries)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d document(s) with malformed front matter\n", res.Skipped)
	}

	out, err := json.MarshalIndent(res.Summaries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	name, err := services.StorageName(args[0])
	if err != nil {
		return fmt.Errorf("%q: %w", args[0], err)
	}

	meta := models.NewMetadata()
	title, _ := cmd.Flags().GetString("title")
	if title == "" {
		title = strings.ReplaceAll(args[0], "-", " ")
	}
	meta.Set("title", title)
	for _, key := range []string{"description", "author"} {
		if v, _ := cmd.Flags().GetString(key); v != "" {
			meta.Set(key, v)
		}
	}
	meta.Set("date", time.Now().Format("2006-01-02"))

	data, err := services.FormatFrontMatter(meta, "\n## Introduction\n\n")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(cfg.Content.Dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
