package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/GenACT-Africa/swahiba-web-sub001/internal/auth"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/config"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/httpapi"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/hub"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/metrics"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/notify"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/store/postgres"
	"github.com/GenACT-Africa/swahiba-web-sub001/internal/telemetry"

	"github.com/igm/sockjs-go/sockjs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	shutdownTelemetry := telemetry.Setup("pack-service")
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	st := postgres.NewStore(pool)
	prom := metrics.NewProm("pack_service")
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	resolver := auth.NewResolver(tokens, st)

	feedHub := hub.New()
	engine := notify.NewEngine(st, feedHub, cfg.FeedLimit, prom)
	listener := notify.NewListener(cfg.DatabaseDSN, cfg.ListenChannel, engine, cfg.StoreTimeout)

	handler := httpapi.NewHandler(st, resolver, tokens, httpapi.Options{
		FeedLimit: cfg.FeedLimit,
		Metrics:   prom,
	})
	limiter := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	sockjsHandler := sockjs.NewHandler("/realtime", sockjs.DefaultOptions, func(session sockjs.Session) {
		req := session.Request()
		token := tokenFromRequest(req)
		if token == "" {
			_ = session.Close(4001, "missing token")
			return
		}
		principal, err := resolver.Resolve(context.Background(), token)
		if err != nil {
			_ = session.Close(4002, "invalid token")
			return
		}
		if decision := auth.Authorize(principal, nil, nil, true); !decision.Allowed {
			_ = session.Close(4003, "access denied")
			return
		}

		attachCtx, cancelAttach := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		client := engine.Attach(attachCtx, principal.UserID)
		cancelAttach()
		defer engine.Detach(client)

		go func() {
			for msg := range client.Send {
				_ = session.Send(string(msg))
			}
		}()

		// The feed is server-push only; the read loop exists to notice the
		// session closing.
		for {
			if _, err := session.Recv(); err != nil {
				return
			}
		}
	})
	mux.Handle("/realtime/", sockjsHandler)
	mux.Handle("/", handler.Routes())

	otelHandler := otelhttp.NewHandler(httpapi.LoggingMiddleware(prom, limiter.Middleware(mux)), "pack-service")
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelHandler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	listenCtx, stopListener := context.WithCancel(context.Background())
	go listener.Run(listenCtx)

	go func() {
		log.Printf("pack-service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	stopListener()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func tokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
