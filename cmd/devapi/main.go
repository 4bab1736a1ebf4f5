// devapi is a mock platform backend for local development. It serves the
// endpoints the client core consumes with deterministic seed data, so the
// client can be exercised without the real platform or payment gateway.
//
// Magic inputs let manual tests steer behavior: any login password except
// "wrong" succeeds, and a verify call whose signature is "sig_fail" is
// rejected.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"seva/internal/platform/logger"
)

func main() {
	log := logger.New()

	addr := os.Getenv("DEVAPI_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	signingKey := os.Getenv("DEVAPI_SIGNING_KEY")
	if signingKey == "" {
		signingKey = "devapi-signing-key"
	}

	api := newServer(signingKey, log)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting devapi", "addr", addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down devapi")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
