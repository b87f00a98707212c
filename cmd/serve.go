package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chrisdamba/foodlens/internal/cache"
	"github.com/chrisdamba/foodlens/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		src, _, cleanup, err := buildSource(ctx, cfg.Analytics.Source)
		defer cleanup()
		if err != nil {
			return err
		}

		client := newRedisClient(ctx, cfg.Redis, log)
		if client != nil {
			defer client.Close()
		}

		gin.SetMode(cfg.Server.Mode)
		srv := server.New(server.Config{
			Source:          src,
			Cache:           cache.NewAnalyticsCache(client, cfg.Redis.TTL, log),
			Logger:          log,
			Location:        loc,
			UpstreamTimeout: cfg.Server.UpstreamTimeout,
		})

		httpServer := &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      srv.Router(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("Starting analytics server",
				zap.String("port", cfg.Server.Port),
				zap.String("source", src.Name()),
				zap.String("timezone", loc.String()),
			)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case err, ok := <-errCh:
			if ok {
				log.Error("Server failed", zap.Error(err))
				return err
			}
			return nil
		case <-quit:
		}

		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		log.Info("Server exited")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("port", "8080", "HTTP listen port")
	serveCmd.Flags().String("source", "postgres", "transaction source: postgres, feed or file")
	bindFlag(serveCmd, "server.port", "port")
	bindFlag(serveCmd, "analytics.source", "source")
	rootCmd.AddCommand(serveCmd)
}
