package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ashkan-django/bookstore-api/auth"
	"github.com/ashkan-django/bookstore-api/config"
	paymentControllers "github.com/ashkan-django/bookstore-api/controllers/payment"
	"github.com/ashkan-django/bookstore-api/database"
	"github.com/ashkan-django/bookstore-api/notify"
	"github.com/ashkan-django/bookstore-api/recommend"
	"github.com/ashkan-django/bookstore-api/routes"
	"github.com/ashkan-django/bookstore-api/session"
	"github.com/ashkan-django/bookstore-api/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func main() {
	root := &cobra.Command{
		Use:   "bookstore-api",
		Short: "Online bookstore HTTP API",
		RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate the schema and start the HTTP server",
			RunE:  func(cmd *cobra.Command, args []string) error { return serve() },
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := initDatabase(config.Load())
				return err
			},
		},
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

// initDatabase connects and auto-migrates every table.
func initDatabase(cfg config.Config) (*gorm.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL or DB_HOST/DB_NAME must be set")
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func serve() error {
	log.Println("✅ Starting application...")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := initDatabase(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := session.NewGormStore(db, cfg.GuestTokenTTL)
	go purgeSessions(ctx, sessions, time.Hour)

	hub := notify.NewHub()
	email := notify.NewEmailSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	dispatcher := notify.NewDispatcher(cfg.NotifyWorkers, 100, email, hub)
	dispatcher.Start(context.Background())
	defer dispatcher.Stop()

	services := routes.Services{
		Config:      cfg,
		DB:          db,
		Sessions:    sessions,
		Tokens:      utils.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.GuestTokenTTL),
		Payments:    paymentControllers.NewStripeProvider(cfg.StripeSecretKey),
		Notifier:    dispatcher,
		Hub:         hub,
		Recommender: recommend.New(cfg.RecommenderURL),
	}
	if cfg.FirebaseCredentialsJSON != "" {
		verifier, err := auth.NewFirebaseVerifier(ctx, cfg.FirebaseCredentialsJSON, cfg.FirebaseProjectID)
		if err != nil {
			return err
		}
		services.Google = verifier
	} else {
		log.Println("⚠️ FIREBASE_CREDENTIALS_JSON not set, Google sign-in disabled")
	}

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: !allowsAll(cfg.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))
	routes.SetupRoutes(r, services)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server running on port %s...", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// purgeSessions drops expired guest sessions on every tick until ctx ends.
func purgeSessions(ctx context.Context, store *session.GormStore, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Printf("❌ Failed to purge sessions: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("🗑️ Removed %d expired sessions", n)
			}
		}
	}
}

// cors rejects AllowCredentials together with a wildcard origin.
func allowsAll(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
