package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/sessions"

	"upfi-web/core"
)

func main() {
	cfg := core.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "web.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	site, err := core.LoadSiteConfig(cfg.SiteConfigPath)
	if err != nil {
		log.Fatalf("failed to load site config: %v", err)
	}

	views, err := core.NewViews()
	if err != nil {
		log.Fatalf("failed to load templates: %v", err)
	}

	var responses core.ResponseLog
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		responses = core.NewRedisResponseLog(redisClient, cfg.ResponseLogLimit)
	} else {
		responses = core.NewMemoryResponseLog(cfg.ResponseLogLimit)
	}

	// Gorilla cookie store for CSRF tokens and flash messages.
	store := sessions.NewCookieStore([]byte(cfg.SessionKey))

	api := core.NewHTTPAPIClient(cfg.APIBaseURL, cfg.APITimeout())

	router := core.NewRouter(cfg, core.Deps{
		Store:     store,
		API:       api,
		Responses: responses,
		Views:     views,
		Site:      site,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("starting web client on %s (api %s)", srv.Addr, api.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown failed: %v", err)
	}
}
