package capture

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/el-hoshino/HowAwayAreYou/internal/log"
	"github.com/el-hoshino/HowAwayAreYou/pkg/detection"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
)

// MatDetector finds faces in a decoded image
type MatDetector interface {
	DetectMat(img gocv.Mat) ([]detection.Detection, error)
}

// WebcamConfig configures a webcam source
type WebcamConfig struct {
	Device        int
	Interval      time.Duration
	Quality       int // JPEG quality for forwarded images
	MinConfidence float64
	Orientation   geometry.Orientation
}

// Webcam grabs frames from a local camera and runs face detection.
// It has no depth sensor, so frames carry no depth map.
type Webcam struct {
	config   WebcamConfig
	detector MatDetector
	logger   *slog.Logger
}

// NewWebcam creates a webcam source
func NewWebcam(cfg WebcamConfig, detector MatDetector) *Webcam {
	return &Webcam{
		config:   cfg,
		detector: detector,
		logger:   log.With("component", "webcam", "device", cfg.Device),
	}
}

// Frames implements Source. Frames are dropped while the consumer is busy.
func (w *Webcam) Frames(ctx context.Context) (<-chan pipeline.Frame, error) {
	cam, err := gocv.OpenVideoCapture(w.config.Device)
	if err != nil {
		return nil, fmt.Errorf("open camera %d: %w", w.config.Device, err)
	}

	out := make(chan pipeline.Frame, 1)
	go func() {
		defer close(out)
		defer cam.Close()

		img := gocv.NewMat()
		defer img.Close()

		ticker := time.NewTicker(w.config.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if ok := cam.Read(&img); !ok || img.Empty() {
				w.logger.Warn("camera read failed")
				continue
			}

			f, err := w.frame(img)
			if err != nil {
				w.logger.Warn("frame dropped", "error", err)
				continue
			}
			if !send(ctx, out, f, true) {
				return
			}
		}
	}()

	w.logger.Info("webcam started", "interval", w.config.Interval)
	return out, nil
}

func (w *Webcam) frame(img gocv.Mat) (pipeline.Frame, error) {
	dets, err := w.detector.DetectMat(img)
	if err != nil {
		return pipeline.Frame{}, err
	}

	f := pipeline.NewFrame(nil, detection.Boxes(dets, w.config.MinConfidence), w.config.Orientation)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, w.config.Quality})
	if err != nil {
		return pipeline.Frame{}, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()
	f.Image = append([]byte(nil), buf.GetBytes()...)

	return f, nil
}
