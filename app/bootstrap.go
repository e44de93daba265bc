package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"blog-api/internal/auth"
	"blog-api/internal/blog"
	"blog-api/internal/comment"
	"blog-api/internal/config"
	"blog-api/internal/db"
	"blog-api/internal/like"
	"blog-api/internal/maintenance"
	"blog-api/internal/media"
	"blog-api/internal/middleware"
	"blog-api/internal/observability"
	"blog-api/internal/respond"
	"blog-api/internal/user"
)

type Options struct {
	LoadDotEnv    bool
	RunMigrations bool
}

type Runtime struct {
	Config  config.Config
	Logger  *observability.Logger
	Handler http.Handler
	Close   func() error
}

// Build constructs the full request pipeline and its collaborators. The
// returned Runtime is ready to serve; Close flushes Sentry and releases the
// database pool.
func Build(options Options) (*Runtime, error) {
	if options.LoadDotEnv {
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger("blog-api")

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Error("init_sentry_failed", observability.Fields{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)
	database.SetConnMaxLifetime(cfg.DBConnMaxLifetime)
	database.SetConnMaxIdleTime(cfg.DBConnMaxIdleTime)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	codec := auth.NewCodec(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userStore := auth.NewPostgresUserStore(database)
	tokenStore := auth.NewPostgresRefreshTokenStore(database)
	authService := auth.NewService(userStore, tokenStore, codec, cfg.AdminEmails, logger)
	authHandler := auth.NewHandler(authService, cfg.IsProduction())

	cloudinary, err := media.NewCloudinary(cfg.CloudinaryURL)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	mediaHandler := media.NewUploadHandler(cloudinary)

	blogRepo := blog.NewRepository(database)
	blogHandler := blog.NewHandler(blogRepo, userStore, cloudinary, cfg.DefaultPageLimit, cfg.MaxPageLimit)

	commentRepo := comment.NewRepository(database)
	commentHandler := comment.NewHandler(commentRepo, blogRepo, userStore)

	likeRepo := like.NewRepository(database)
	likeHandler := like.NewHandler(likeRepo, blogRepo)

	profileRepo := user.NewRepository(database)
	userHandler := user.NewHandler(profileRepo, cfg.DefaultPageLimit, cfg.MaxPageLimit)

	cleanupHandler := maintenance.NewCleanupHandler(tokenStore, logger, cfg.CronSecret, cfg.RefreshTokenSweepSize)

	authenticate := auth.Authenticate(codec)
	adminOnly := auth.RequireRole(userStore, auth.RoleAdmin)
	authLimiter := middleware.RateLimit(cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.HandleFunc("GET /api/v1", rootHandler)

	mux.Handle("POST /api/v1/auth/register", chain(http.HandlerFunc(authHandler.Register), authLimiter))
	mux.Handle("POST /api/v1/auth/login", chain(http.HandlerFunc(authHandler.Login), authLimiter))
	mux.HandleFunc("POST /api/v1/auth/refresh-token", authHandler.Refresh)
	mux.Handle("POST /api/v1/auth/logout", chain(http.HandlerFunc(authHandler.Logout), authenticate))

	mux.Handle("GET /api/v1/users/current", chain(http.HandlerFunc(userHandler.GetCurrent), authenticate))
	mux.Handle("PUT /api/v1/users/current", chain(http.HandlerFunc(userHandler.UpdateCurrent), authenticate))
	mux.Handle("DELETE /api/v1/users/current", chain(http.HandlerFunc(userHandler.DeleteCurrent), authenticate))
	mux.Handle("GET /api/v1/users", chain(http.HandlerFunc(userHandler.List), authenticate, adminOnly))
	mux.Handle("GET /api/v1/users/{userId}", chain(http.HandlerFunc(userHandler.GetByID), authenticate, adminOnly))
	mux.Handle("DELETE /api/v1/users/{userId}", chain(http.HandlerFunc(userHandler.DeleteByID), authenticate, adminOnly))

	mux.Handle("POST /api/v1/blogs", chain(http.HandlerFunc(blogHandler.Create), authenticate, adminOnly))
	mux.Handle("GET /api/v1/blogs", chain(http.HandlerFunc(blogHandler.List), authenticate))
	mux.Handle("GET /api/v1/blogs/user/{userId}", chain(http.HandlerFunc(blogHandler.ListByAuthor), authenticate))
	mux.Handle("GET /api/v1/blogs/{slug}", chain(http.HandlerFunc(blogHandler.GetBySlug), authenticate))
	mux.Handle("PUT /api/v1/blogs/{blogId}", chain(http.HandlerFunc(blogHandler.Update), authenticate, adminOnly))
	mux.Handle("DELETE /api/v1/blogs/{blogId}", chain(http.HandlerFunc(blogHandler.Delete), authenticate, adminOnly))

	mux.Handle("POST /api/v1/blogs/{blogId}/comments", chain(http.HandlerFunc(commentHandler.Create), authenticate))
	mux.Handle("GET /api/v1/blogs/{blogId}/comments", chain(http.HandlerFunc(commentHandler.ListByBlog), authenticate))
	mux.Handle("DELETE /api/v1/comments/{commentId}", chain(http.HandlerFunc(commentHandler.Delete), authenticate))

	mux.Handle("POST /api/v1/likes/blog/{blogId}", chain(http.HandlerFunc(likeHandler.LikeBlog), authenticate))
	mux.Handle("DELETE /api/v1/likes/blog/{blogId}", chain(http.HandlerFunc(likeHandler.UnlikeBlog), authenticate))

	mux.Handle("POST /api/v1/media/upload", chain(http.HandlerFunc(mediaHandler.Upload), authenticate, adminOnly))

	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)

	handler := chain(mux,
		func(next http.Handler) http.Handler { return observability.RecoverMiddleware(logger, next) },
		func(next http.Handler) http.Handler { return observability.RequestLoggingMiddleware(logger, next) },
		middleware.CORS(cfg.WhitelistOrigins, cfg.Env, logger),
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Handler: handler,
		Close: func() error {
			observability.FlushSentry()
			return database.Close()
		},
	}, nil
}

// EnvBoolOrDefault reads a boolean environment variable, falling back when the
// variable is unset or unparseable.
func EnvBoolOrDefault(name string, fallback bool) bool {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]any{
		"message":   "API is live",
		"status":    "OK",
		"version":   "1.0.0",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		respond.JSON(w, status, body)
	}
}
