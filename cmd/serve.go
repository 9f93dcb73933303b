package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vivahvendors/vendor-crawler/internal/api"
	"github.com/vivahvendors/vendor-crawler/internal/pipeline"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the operator API for triggering and inspecting crawls",
	RunE: func(cmd *cobra.Command, _ []string) error {
		port := servePort
		if port == 0 {
			if err := cfg.Validate("server"); err != nil {
				return err
			}
			port = cfg.Server.Port
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initCrawler(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		g, gctx := errgroup.WithContext(ctx)
		apiSrv := api.NewServer(gctx, env.Store, env.Registry, env.Pipeline, api.Options{
			Defaults: pipeline.RunOpts{
				Source:     cfg.Crawl.DefaultSource,
				Region:     cfg.Crawl.DefaultRegion,
				City:       cfg.Crawl.DefaultCity,
				MaxResults: cfg.Crawl.DefaultMax,
			},
			CORSOrigins: cfg.Server.CORSOrigins,
			Recorder:    env.Recorder,
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           apiSrv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), 30*time.Second)
			defer cancel()
			err := srv.Shutdown(shutdownCtx)
			// Crawls started over the API see the canceled context and finalize
			// their run rows before returning.
			apiSrv.Wait()
			return err
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
