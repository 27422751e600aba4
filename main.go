package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mjpegfan/streameye/internal/broadcast"
	"github.com/mjpegfan/streameye/internal/config"
	"github.com/mjpegfan/streameye/internal/logging"
	"github.com/mjpegfan/streameye/internal/metrics"
	"github.com/mjpegfan/streameye/internal/segmenter"
	"github.com/mjpegfan/streameye/internal/server"
	"github.com/mjpegfan/streameye/internal/snapshot"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	app, err := config.App(run)
	if err != nil {
		fmt.Fprintf(os.Stderr, "streameye: %v\n", err)
		os.Exit(1)
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "streameye: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logging.New(logging.ParseLevel(cfg.LogLevel))
	defer log.Sync() //nolint:errcheck

	promMetrics := metrics.New()

	srv, err := server.New(
		cfg.ListenAddr(),
		time.Duration(cfg.ClientReadTimeout)*time.Second,
		log,
		promMetrics,
	)
	if err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	log.Infof("listening on %s", srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	producerErr := make(chan error, 1)
	if cfg.SnapshotURL != "" {
		log.Infof("producer: polling %s at %d fps", cfg.SnapshotURL, cfg.SnapshotFPS)
		client := snapshot.NewClient(cfg.SnapshotToken, cfg.SnapshotCookie)
		source := snapshot.NewSource(client, cfg.SnapshotURL, cfg.SnapshotFPS, srv.Slot, log, promMetrics)
		go func() { producerErr <- source.Run(ctx) }()
	} else {
		log.Infof("producer: reading JPEG frames from stdin")
		opts := []segmenter.Option{segmenter.WithDiscardHook(promMetrics.InputDiscarded)}
		if cfg.InputSeparator != "" {
			opts = append(opts, segmenter.WithSeparator([]byte(cfg.InputSeparator)))
		}
		seg := segmenter.New(os.Stdin, log, opts...)
		go func() {
			producerErr <- seg.Run(func(frame []byte) {
				srv.Slot.Publish(broadcast.Frame{Data: frame})
				promMetrics.FramePublished()
			})
		}()
	}

	if cfg.MetricsAddr != "" {
		log.Infof("metrics: serving /metrics on %s", cfg.MetricsAddr)
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Errorf("metrics listener: %v", err)
			}
		}()
	}

	go srv.Accept()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
	case err := <-producerErr:
		if err != nil {
			log.Errorf("producer stopped: %v", err)
		} else {
			log.Infof("producer reached end of input, shutting down")
		}
	}

	cancel()
	srv.Shutdown()
	return nil
}
