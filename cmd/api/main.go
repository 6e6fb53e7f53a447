package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pixelcove/gallery/internal/caption"
	"github.com/pixelcove/gallery/internal/config"
	"github.com/pixelcove/gallery/internal/db"
	"github.com/pixelcove/gallery/internal/gallery"
	"github.com/pixelcove/gallery/internal/identity"
	appMiddleware "github.com/pixelcove/gallery/internal/middleware"
	"github.com/pixelcove/gallery/internal/namespace"
	"github.com/pixelcove/gallery/internal/session"
	"github.com/pixelcove/gallery/internal/storage"
	"github.com/pixelcove/gallery/internal/web"
)

func main() {
	cfg := config.Load()

	pool, err := db.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	store, err := storage.NewMinioStore(
		cfg.StorageEndpoint,
		cfg.StorageAccessKey,
		cfg.StorageSecretKey,
		cfg.StorageBucket,
		cfg.StorageUseSSL,
	)
	if err != nil {
		log.Fatalf("object storage init failed: %v", err)
	}

	var captioner caption.Generator
	if cfg.CaptionDisabled {
		log.Println("captioning disabled, uploads will carry fallback text")
		captioner = caption.DisabledGenerator{}
	} else {
		captioner = caption.NewGeminiGenerator(cfg.CaptionEndpoint, cfg.CaptionAPIKey)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatalf("template parsing failed: %v", err)
	}

	// Wire dependencies: repository → service → handler
	sessions := session.NewManager(cfg.SessionSecret, cfg.IsProduction())
	deriver := namespace.NewDeriver(cfg.HashSalt)

	identityRepo := identity.NewPostgresRepository(pool)
	identitySvc := identity.NewService(identityRepo)
	identityHandler := identity.NewHandler(identitySvc, sessions, deriver, renderer)

	gallerySvc := gallery.NewService(store, captioner, cfg.MaxUploadBytes)
	galleryHandler := gallery.NewHandler(gallerySvc, renderer, cfg.MaxUploadBytes)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/static/*", web.StaticHandler())

	// Public identity endpoints
	r.Get("/login", identityHandler.ShowLogin)
	r.Post("/login", identityHandler.Login)
	r.Get("/register", identityHandler.ShowRegister)
	r.Post("/register", identityHandler.Register)
	r.Get("/logout", identityHandler.Logout)

	// Protected gallery endpoints
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.RequireSession(sessions))
		r.Get("/", galleryHandler.Index)
		r.Post("/", galleryHandler.Upload)
		r.Get("/images/*", galleryHandler.Image)
		r.Get("/image-info/*", galleryHandler.ImageInfo)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gallery listening on :%s (env=%s)", cfg.Port, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}
