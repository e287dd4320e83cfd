package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ayush/spot-finder/backend/internal/admin"
	"github.com/ayush/spot-finder/backend/internal/auth"
	"github.com/ayush/spot-finder/backend/internal/config"
	"github.com/ayush/spot-finder/backend/internal/middleware"
	"github.com/ayush/spot-finder/backend/internal/observability"
	"github.com/ayush/spot-finder/backend/internal/spots"
	"github.com/ayush/spot-finder/backend/internal/store"
	"github.com/ayush/spot-finder/backend/internal/users"
)

func main() {
	cfg := config.Load()
	observability.InitLogger("spot-finder", cfg.Env)
	ctx := context.Background()

	// ── PostgreSQL (flag ledger) ─────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connect")
	}
	defer pgPool.Close()
	flagStore := store.NewFlagStore(pgPool)
	if err := flagStore.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("postgres migrate")
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := store.Connect(ctx, cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connect")
	}
	defer mongoClient.Disconnect(context.Background())
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB), cfg.MongoTransactions)
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("mongo indexes")
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connect")
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	minioStore, err := store.NewMinioStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("minio connect")
	}

	// ── Services ─────────────────────────────────────────────
	userService := users.NewService(mongoStore)
	spotService := spots.NewService(mongoStore, mongoStore, minioStore)
	defer spotService.Close()

	// ── Handlers ─────────────────────────────────────────────
	authHandler := auth.NewHandler(userService, sessions, auth.LogMailer{}, cfg.SecureCookies)
	spotHandler := spots.NewHandler(spotService, flagStore, minioStore)
	adminHandler := admin.NewHandler(spotService, flagStore, admin.NewSweeper(mongoStore, minioStore, admin.DefaultGrace))

	requireAuth := middleware.RequireAuth(sessions)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/username/{username}", authHandler.UsernameAvailable)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.Me)
			r.Patch("/me", authHandler.UpdateProfile)
			r.Post("/otp", authHandler.SendOTP)
			r.Post("/otp/verify", authHandler.VerifyOTP)
		})
	})

	r.Route("/api/users/{id}", func(r chi.Router) {
		r.Get("/", authHandler.User)
		r.Get("/spots", spotHandler.ByUser)
	})

	r.Route("/api/spots", func(r chi.Router) {
		r.Get("/", spotHandler.List)
		r.Get("/{id}", spotHandler.Get)
		r.Get("/{id}/comments", spotHandler.Comments)
		r.Get("/{id}/ratings", spotHandler.Ratings)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", spotHandler.Create)
			r.Patch("/{id}", spotHandler.Update)
			r.Delete("/{id}", spotHandler.Delete)
			r.Post("/{id}/report", spotHandler.ReportSpot)
			r.Post("/{id}/comments", spotHandler.AddComment)
			r.Get("/{id}/rating", spotHandler.MyRating)
			r.Put("/{id}/rating", spotHandler.Rate)
			r.Delete("/{id}/rating", spotHandler.Unrate)
		})
	})

	r.Route("/api/comments/{id}", func(r chi.Router) {
		r.Use(requireAuth)
		r.Patch("/", spotHandler.UpdateComment)
		r.Delete("/", spotHandler.DeleteComment)
		r.Post("/report", spotHandler.ReportComment)
	})

	r.Route("/api/images", func(r chi.Router) {
		r.With(requireAuth).Post("/", spotHandler.UploadImage)
		r.Get("/*", spotHandler.ServeImage)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(middleware.RequireAdmin(userService))
		r.Get("/reported/spots", adminHandler.ReportedSpots)
		r.Get("/reported/comments", adminHandler.ReportedComments)
		r.Get("/flags/{target}/{id}", adminHandler.Flags)
		r.Post("/images/sweep", adminHandler.Sweep)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("backend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}
}
