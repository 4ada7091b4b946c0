package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/xtding233/gacha-simulator/internal/config"
	"github.com/xtding233/gacha-simulator/internal/logging"
	"github.com/xtding233/gacha-simulator/internal/profile"
	"github.com/xtding233/gacha-simulator/internal/simulator"
	"github.com/xtding233/gacha-simulator/internal/transport/grpcapi"
	"github.com/xtding233/gacha-simulator/internal/transport/httpapi"
)

var log = logging.For("server")

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	if err := logging.Setup(cfg.LogLevel, os.Stdout); err != nil {
		log.WithError(err).Fatal("failed to set up logging")
	}

	loader := profile.NewLoader(cfg.ProfileDir, logging.For("profile"))
	if _, _, err := loader.Resolve(profile.DefaultName, profile.Overrides{}); err != nil {
		log.WithError(err).WithField("dir", loader.Paths().Dir()).Fatal("default profile is unusable")
	}
	svc := simulator.NewService(loader, simulator.Options{
		MaxTrials:    cfg.MaxTrials,
		BatchWorkers: cfg.BatchWorkers,
		Logger:       logging.For("simulator"),
	})

	e := httpapi.NewServer(svc, logging.For("http"))
	gs := grpcapi.NewServer(svc, logging.For("grpc"))

	// Graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.WatchInterval > 0 {
		g.Go(func() error {
			profile.WatchLoader(loader, cfg.WatchInterval).Run(gctx)
			return nil
		})
	}
	g.Go(func() error {
		log.WithField("addr", cfg.HTTPAddr).Info("starting http server")
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		log.WithField("addr", cfg.GRPCAddr).Info("starting grpc server")
		return gs.Serve(lis)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		gs.GracefulStop()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Error("http shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Fatal("server error")
	}
}
