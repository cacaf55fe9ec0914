// cmd/shopez/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopez/internal/platform/di"
)

func main() {
	ctx := context.Background()

	container, err := di.New(ctx)
	if err != nil {
		log.Fatalf("[boot] container init failed: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + container.Config.Port,
		Handler:      container.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c
		log.Printf("[boot] signal received (%v), shutting down", sig)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[boot] server shutdown error: %v", err)
		}
		close(idleConnsClosed)
	}()

	log.Printf("[boot] shopez listening on :%s", container.Config.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[boot] server error: %v", err)
	}

	<-idleConnsClosed
	if err := container.Close(); err != nil {
		log.Printf("[boot] container close error: %v", err)
	}
	log.Printf("[boot] bye")
}
