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

	"taskboard/api/internal/app"
	"taskboard/api/internal/config"
	"taskboard/api/internal/prefs"
	"taskboard/api/internal/proxy"
	"taskboard/api/internal/search"
	"taskboard/api/internal/store"
	"taskboard/api/internal/tracker"
)

func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prefsStore, err := prefs.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Fatalf("redis connection failed: %v", err)
	}
	defer prefsStore.Close()

	memoryIndex := search.NewMemory()
	var primary search.Searcher
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient := search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
		primary = meiliClient
	}
	searchService := search.NewService(primary, memoryIndex)

	proxyHandler := proxy.New(cfg.TrackerBaseURL, cfg.TrackerEmail, cfg.TrackerToken)
	trackerClient := tracker.NewClientWithHTTP(cfg.TrackerBaseURL, &http.Client{
		Transport: proxyHandler,
		Timeout:   60 * time.Second,
	})

	taskStore := store.New(trackerClient, prefsStore, searchService, store.Options{
		RefreshInterval: cfg.RefreshInterval,
		ActiveHourStart: cfg.ActiveHourStart,
		ActiveHourEnd:   cfg.ActiveHourEnd,
	})
	if err := taskStore.Bootstrap(ctx, cfg.ProjectKey); err != nil {
		log.Fatalf("bootstrap failed: %v", err)
	}
	if err := taskStore.Refresh(ctx, true); err != nil {
		log.Printf("WARNING: initial refresh failed, serving sample data: %v", err)
	}
	go taskStore.Run(ctx)

	service := app.New(cfg, taskStore, searchService, trackerClient)
	httpServer := app.NewHTTPServer(service, proxyHandler, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Taskboard API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
