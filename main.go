package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mangrovewatch/report-api/app"
	"mangrovewatch/report-api/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		zap.L().Error("Application error", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	gin.SetMode(gin.ReleaseMode)

	if err := config.Setup(); err != nil {
		return err
	}

	if err := app.MakeLogger(viper.GetString("app.log_level"), viper.GetString("app.env") == "production"); err != nil {
		return fmt.Errorf("failed to create logger, %w", err)
	}
	defer zap.L().Sync()

	for _, w := range config.Warnings() {
		zap.L().Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := app.NewDeps(ctx)
	if err != nil {
		return err
	}

	if email := viper.GetString("promote-admin"); email != "" {
		if err := d.Accounts.PromoteAdmin(ctx, email); err != nil {
			return fmt.Errorf("failed to promote %s, %w", email, err)
		}

		zap.L().Info("User promoted to admin", zap.String("email", email))
		return nil
	}

	server := &http.Server{
		Addr:              ":" + viper.GetString("host.port"),
		Handler:           app.NewRouter(ctx, d),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting", zap.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error, %w", err)
		}
	case <-ctx.Done():
		zap.L().Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed, %w", err)
		}
	}

	return nil
}
