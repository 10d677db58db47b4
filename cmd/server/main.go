package main

import (
	"context"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	authhttp "github.com/bookshare/server/internal/auth/http"
	authrepo "github.com/bookshare/server/internal/auth/repository"
	authservice "github.com/bookshare/server/internal/auth/service"
	bookhttp "github.com/bookshare/server/internal/book/http"
	bookrepo "github.com/bookshare/server/internal/book/repository"
	bookservice "github.com/bookshare/server/internal/book/service"
	"github.com/bookshare/server/internal/common/clock"
	"github.com/bookshare/server/internal/common/config"
	"github.com/bookshare/server/internal/common/db"
	commonhttp "github.com/bookshare/server/internal/common/http"
	"github.com/bookshare/server/internal/common/httpmetrics"
	"github.com/bookshare/server/internal/common/jwtverify"
	"github.com/bookshare/server/internal/common/logger"
	srv "github.com/bookshare/server/internal/common/server"
	"github.com/bookshare/server/internal/push/notify"
	"github.com/bookshare/server/internal/push/websocket"
)

func main() {
	log := logger.GetInstance()
	if err := log.Initialize(os.Getenv("LOG_DIR"), "bookshare", os.Getenv("LOG_LEVEL")); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	userRepo := authrepo.NewPgRepository(pool)
	tokenService := authservice.NewTokenService(userRepo, cfg.JWTSecret, cfg.TokenTTL, clock.NewRealClock(), log)
	authService := authservice.NewAuthService(userRepo, tokenService, log)

	hub := websocket.NewHub(tokenService, cfg.WSAuthTimeout, log)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		hub.Run(hubCtx)
	}()

	notifier := notify.NewRouter(hub, log)
	bookService := bookservice.NewService(bookrepo.NewPgRepository(pool), notifier, log)

	authHandler := authhttp.NewHandler(authService, log)
	jwtMw := jwtverify.Middleware(tokenService, log)

	apiMux := http.NewServeMux()
	apiMux.Handle("/login", authHandler.Public())
	apiMux.Handle("/logout", jwtMw(authHandler.Protected()))
	apiMux.Handle("/checkToken", jwtMw(authHandler.Protected()))
	booksHandler := jwtMw(bookhttp.NewHandler(bookService, log))
	apiMux.Handle("/books", booksHandler)
	apiMux.Handle("/books/", booksHandler)

	corsMw := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	// The delay sits innermost so health checks, metrics and the push
	// channel are not throttled with the API. The handler timeout sits
	// inside the delay so throttling does not eat the request budget.
	delay := commonhttp.DelayMiddleware(cfg.RequestDelay)
	timeout := commonhttp.WithTimeout(cfg.RequestTimeout)
	api := corsMw.Handler(delay(timeout(apiMux)))

	restMux := http.NewServeMux()
	restMux.HandleFunc("/health", commonhttp.HealthHandler(log))
	restMux.Handle("/metrics", promhttp.Handler())
	restMux.Handle("/", api)

	recovery := commonhttp.RecoveryMiddleware(log)
	requestLog := commonhttp.RequestLogMiddleware(log)
	wrappedRest := recovery(commonhttp.TraceIDMiddleware(requestLog(httpmetrics.Wrap(restMux))))

	wsHandler := websocket.NewHandler(hub, websocket.ClientConfig{
		WriteWait:   cfg.WSWriteWait,
		PongWait:    cfg.WSPongWait,
		PingPeriod:  cfg.WSPingPeriod,
		MaxMsgSize:  cfg.WSMaxMsgSize,
		SendBufSize: cfg.WSSendBufSize,
	}, log)

	mainMux := http.NewServeMux()
	mainMux.Handle("/ws", wsHandler)
	mainMux.Handle("/", wrappedRest)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mainMux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srv.StartWithGracefulShutdown(server, log, "bookshare", []srv.ShutdownHook{
		func(ctx context.Context) error {
			hubCancel()
			wg.Wait()
			return nil
		},
	})
}
