package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-api/app"
	"blog-api/internal/observability"
)

func main() {
	runtime, err := app.Build(app.Options{LoadDotEnv: true, RunMigrations: true})
	if err != nil {
		logger := observability.NewLogger("blog-api")
		logger.Error("bootstrap_failed", observability.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			runtime.Logger.Error("shutdown_cleanup_failed", observability.Fields{"error": err.Error()})
		}
	}()

	server := &http.Server{
		Addr:              ":" + runtime.Config.Port,
		Handler:           runtime.Handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		runtime.Logger.Info("server_listening", observability.Fields{
			"port": runtime.Config.Port,
			"env":  runtime.Config.Env,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			runtime.Logger.Error("server_failed", observability.Fields{"error": err.Error()})
			done <- syscall.SIGTERM
		}
	}()

	<-done
	runtime.Logger.Info("server_stopping", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		runtime.Logger.Error("server_shutdown_failed", observability.Fields{"error": err.Error()})
	}
}
