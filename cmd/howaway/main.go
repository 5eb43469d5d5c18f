// howaway - measures how far away the face nearest the frame center is
// and streams the resulting danger status to overlay viewers
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/el-hoshino/HowAwayAreYou/internal/config"
	"github.com/el-hoshino/HowAwayAreYou/internal/log"
	"github.com/el-hoshino/HowAwayAreYou/pkg/capture"
	"github.com/el-hoshino/HowAwayAreYou/pkg/detection"
	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
	"github.com/el-hoshino/HowAwayAreYou/pkg/web"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing howaway.yaml")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	source := flag.String("source", "", "Capture source: replay or webcam (overrides config)")
	session := flag.String("session", "", "Session manifest for replay (overrides config)")
	port := flag.String("port", "", "HTTP port (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Capture.Source = *source
	}
	if *session != "" {
		cfg.Capture.Session = *session
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.L().Error("runtime error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	det, err := loadDetector(cfg)
	if err != nil {
		return err
	}
	if det != nil {
		defer det.Close()
	}

	src, err := openSource(cfg, det)
	if err != nil {
		return err
	}

	processor := pipeline.NewProcessor(pipeline.Options{
		MonocularFallback: cfg.Pipeline.MonocularFallback,
		Logger:            log.L(),
	})

	server := web.NewServer(cfg.Server.Port, processor, web.Settings{
		Source:            cfg.Capture.Source,
		Orientation:       cfg.Pipeline.Orientation,
		MonocularFallback: cfg.Pipeline.MonocularFallback,
	})
	if det != nil {
		server.SetDetector(det, cfg.Detector.Confidence)
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(ctx) }()

	frames, err := src.Frames(ctx)
	if err != nil {
		_ = server.Shutdown()
		return fmt.Errorf("start capture: %w", err)
	}

	log.L().Info("howaway started", "source", cfg.Capture.Source, "port", cfg.Server.Port)

	runErr := make(chan error, 1)
	go func() {
		runErr <- processor.Run(ctx, frames, server.Publish)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case err := <-runErr:
		_ = server.Shutdown()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		if ctx.Err() == nil {
			log.L().Info("capture finished")
		}
		return nil
	}
}

// loadDetector loads YuNet. The webcam needs it; for replay it only serves
// posted frames without faces, so a missing model is skipped.
func loadDetector(cfg config.Config) (*detection.YuNetDetector, error) {
	det, err := detection.NewYuNet(detection.Config{
		ModelPath:        cfg.Detector.Model,
		ConfidenceThresh: cfg.Detector.Confidence,
		InputWidth:       320,
		InputHeight:      320,
	})
	if err == nil {
		return det, nil
	}
	if cfg.Capture.Source == config.SourceWebcam {
		return nil, fmt.Errorf("load face detector: %w", err)
	}
	log.L().Warn("face detector unavailable, posted frames need faces", "error", err)
	return nil, nil
}

// openSource builds the configured capture source
func openSource(cfg config.Config, det *detection.YuNetDetector) (capture.Source, error) {
	switch cfg.Capture.Source {
	case config.SourceWebcam:
		return capture.NewWebcam(capture.WebcamConfig{
			Device:        cfg.Capture.Device,
			Interval:      cfg.Capture.Interval,
			Quality:       cfg.Capture.Quality,
			MinConfidence: cfg.Detector.Confidence,
			Orientation:   cfg.Orientation(),
		}, det), nil

	default:
		s, err := capture.LoadSession(cfg.Capture.Session)
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		return capture.NewReplay(s, cfg.Capture.Loop), nil
	}
}
