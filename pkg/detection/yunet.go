package detection

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/el-hoshino/HowAwayAreYou/internal/log"
)

// ErrEmptyImage is returned when the input decodes to nothing
var ErrEmptyImage = errors.New("detection: empty image")

// YuNetDetector uses OpenCV's FaceDetectorYN for face detection
type YuNetDetector struct {
	detector gocv.FaceDetectorYN
	config   Config
	logger   *slog.Logger
	mu       sync.Mutex // Protects inference
}

// NewYuNet creates a YuNet face detector
func NewYuNet(cfg Config) (*YuNetDetector, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	// Input size is updated per image
	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"",
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.ConfidenceThresh),
		0.3,  // NMS threshold
		5000, // Top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNetDetector{
		detector: detector,
		config:   cfg,
		logger:   log.With("component", "yunet"),
	}, nil
}

// Detect finds faces in the JPEG image
func (d *YuNetDetector) Detect(jpeg []byte) ([]Detection, error) {
	if len(jpeg) == 0 {
		return nil, ErrEmptyImage
	}

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	return d.DetectMat(img)
}

// DetectMat finds faces in an already decoded BGR image
func (d *YuNetDetector) DetectMat(img gocv.Mat) ([]Detection, error) {
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	imgW := float64(img.Cols())
	imgH := float64(img.Rows())
	d.detector.SetInputSize(image.Pt(img.Cols(), img.Rows()))

	faces := gocv.NewMat()
	defer faces.Close()
	d.detector.Detect(img, &faces)

	detections := make([]Detection, 0, faces.Rows())
	for r := 0; r < faces.Rows(); r++ {
		// YuNet rows: 0-3 box in pixels, 4-13 landmarks, 14 score
		detections = append(detections, Detection{
			X:          float64(faces.GetFloatAt(r, 0)) / imgW,
			Y:          float64(faces.GetFloatAt(r, 1)) / imgH,
			W:          float64(faces.GetFloatAt(r, 2)) / imgW,
			H:          float64(faces.GetFloatAt(r, 3)) / imgH,
			Confidence: float64(faces.GetFloatAt(r, 14)),
		})
	}

	if len(detections) > 0 {
		d.logger.Debug("faces detected", "count", len(detections))
	}
	return detections, nil
}

// Close releases the detector resources
func (d *YuNetDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.detector.Close()
	return nil
}
