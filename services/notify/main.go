// Notification service: ingests events from the chat API, keeps per-user
// history in Postgres, and delivers Web Push to subscribed browsers.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/DulakshanaMalith/Photography-Learning/internal/auth"
	"github.com/DulakshanaMalith/Photography-Learning/internal/config"
	"github.com/DulakshanaMalith/Photography-Learning/internal/handler"
	"github.com/DulakshanaMalith/Photography-Learning/internal/logger"
	"github.com/DulakshanaMalith/Photography-Learning/internal/middleware"
	"github.com/DulakshanaMalith/Photography-Learning/internal/push"
	"github.com/DulakshanaMalith/Photography-Learning/internal/repository"
	"github.com/DulakshanaMalith/Photography-Learning/internal/startup"
)

func main() {
	logger.SetPrefix("notify")
	if len(os.Args) > 1 && (os.Args[1] == "-gen-vapid" || os.Args[1] == "--gen-vapid") {
		priv, pub, err := webpush.GenerateVAPIDKeys()
		if err != nil {
			logger.Errorf("generate VAPID: %v", err)
			os.Exit(1)
		}
		logger.Infof("VAPID_PUBLIC_KEY=%s", pub)
		logger.Infof("VAPID_PRIVATE_KEY=%s", priv)
		return
	}
	logger.Info("starting notify service")
	cfg := config.Load()

	keys := &push.VAPIDKeys{
		PublicKey:  os.Getenv("VAPID_PUBLIC_KEY"),
		PrivateKey: os.Getenv("VAPID_PRIVATE_KEY"),
	}
	if keys.PublicKey == "" || keys.PrivateKey == "" {
		loaded, err := push.EnsureVAPIDKeys("")
		if err != nil {
			logger.Errorf("VAPID: could not load or generate keys: %v (web push disabled)", err)
			keys = nil
		} else {
			keys = loaded
		}
	}
	if keys == nil || keys.PublicKey == "" || keys.PrivateKey == "" {
		logger.Info("VAPID keys not set: subscriptions are stored, web push delivery is off")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("notify: parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())

	pool := startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "notify: ")
	defer pool.Close()
	startup.ApplyMigrations(pool, "notify: ")

	rdb := startup.ConnectRedisWithRetry(cfg.Redis.URL, 60*time.Second, "notify: ")
	defer rdb.Close()
	logger.Info("database and redis connected")

	subs := push.NewSubscriptionStore(rdb)
	sender := push.NewSender(subs, keys)
	notifRepo := repository.NewNotificationRepository(pool)
	authClient := auth.NewClient(cfg.AuthServiceURL, nil)
	notifH := handler.NewNotificationHandler(notifRepo, subs, sender)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSAllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK); w.Write([]byte("ok")) })
	r.Get("/api/vapid-public", func(w http.ResponseWriter, r *http.Request) {
		if keys == nil || keys.PublicKey == "" {
			http.Error(w, "push not configured", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(keys.PublicKey))
	})

	// Event ingestion comes from the chat API over the internal network.
	r.With(middleware.InternalOnly).Post("/api/notify", notifH.Accept)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(authClient))
		r.Get("/api/notifications", notifH.List)
		r.Post("/api/notifications/read", notifH.MarkAllRead)
		r.Delete("/api/notifications/{id}", notifH.Delete)
		r.Delete("/api/notifications", notifH.DeleteAll)
		r.Post("/api/push/subscribe", notifH.Subscribe)
		r.Delete("/api/push/subscribe", notifH.Unsubscribe)
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("notify server listening on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("notify server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutdown signal received")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
	logger.Info("notify server stopped")
}
