package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homecook/db"
	"homecook/globals"
	"homecook/middleware"
	"homecook/mq"
	"homecook/notify"
	"homecook/orders"
	"homecook/ratelim"
	"homecook/rdx"
	"homecook/routes"
	"homecook/store"
	"homecook/telemetry"
	"homecook/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func openStore(ctx context.Context, cfg *globals.Config) (*store.Store, func(context.Context), error) {
	if cfg.Store == "memory" {
		log.Println("Using in-memory store; data is lost on restart")
		return store.NewMemory().Store(), func(context.Context) {}, nil
	}

	if err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
		return nil, nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		return nil, nil, err
	}
	closeFn := func(ctx context.Context) {
		if err := db.Disconnect(ctx); err != nil {
			log.Printf("mongo disconnect: %v", err)
		}
	}
	return store.NewMongo(db.Client, db.Database), closeFn, nil
}

func newMailer(ctx context.Context, cfg *globals.Config) notify.Mailer {
	if cfg.Mail.Sender == "" {
		log.Println("MAIL_SENDER not set; cook notifications are logged only")
		return notify.LogMailer{}
	}
	m, err := notify.NewSESMailer(ctx, cfg.Mail)
	if err != nil {
		log.Printf("SES unavailable, falling back to log mailer: %v", err)
		return notify.LogMailer{}
	}
	return m
}

func main() {
	cfg, err := globals.Load()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}
	globals.JwtSecret = []byte(cfg.JwtSecret)
	utils.ShowStack = !cfg.Production()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTracing, err := telemetry.Init(cfg.Tracing)
	if err != nil {
		log.Fatalf("❌ tracing: %v", err)
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ store: %v", err)
	}

	orderOpts := []orders.Option{orders.WithDeliveryFee(cfg.DeliveryFee)}
	notifier := notify.NewCookNotifier(st.Users, newMailer(ctx, cfg))

	redisClient, err := rdx.Connect(ctx, cfg.RedisAddr)
	if err != nil {
		log.Printf("Redis unavailable (%v); using local lock and in-process events", err)
		local := mq.NewLocal(256)
		orderOpts = append(orderOpts, orders.WithPublisher(local))
		go local.Run(ctx, notifier)
	} else {
		st.Users = rdx.NewUserCache(st.Users, redisClient)
		orderOpts = append(orderOpts,
			orders.WithPublisher(mq.NewEmitter(redisClient)),
			orders.WithLocker(rdx.NewLocker(redisClient)),
		)
		go mq.StartNotificationWorker(ctx, redisClient, notifier)
	}

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go rateLimiter.RunEviction(time.Minute, ctx.Done())

	router := httprouter.New()
	router.GET("/health", Index)
	routes.RoutesWrapper(router, routes.NewHandlers(st, orderOpts...), rateLimiter)

	// CORS → security headers → request id → tracing → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
	}).Handler(middleware.SecurityHeaders(middleware.RequestID(telemetry.Middleware(middleware.Logging(router)))))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           corsHandler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Stopping notification worker...")
		stop()
	})

	go func() {
		log.Printf("🚀 Server listening on %s (store=%s, env=%s)", cfg.Port, cfg.Store, cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}
	if redisClient != nil {
		redisClient.Close()
	}
	closeStore(shutdownCtx)
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("tracing shutdown: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
