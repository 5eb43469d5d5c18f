// Package detection provides face detection for frames without
// platform face metadata.
package detection

import (
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// Detection is a detected face
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Box returns the detection as a face box for the pipeline
func (d Detection) Box() target.FaceBox {
	return target.FaceBox{
		Origin: geometry.Point{X: d.X, Y: d.Y},
		Size:   geometry.Size{Width: d.W, Height: d.H},
	}
}

// Detector is the interface for face detection backends
type Detector interface {
	// Detect finds faces in a JPEG image
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources
	Close() error
}

// Config holds detector configuration
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// Boxes converts detections at or above minConfidence into face boxes,
// keeping detector order so the selector's tie-break stays stable.
func Boxes(dets []Detection, minConfidence float64) []target.FaceBox {
	boxes := make([]target.FaceBox, 0, len(dets))
	for _, d := range dets {
		if d.Confidence < minConfidence {
			continue
		}
		boxes = append(boxes, d.Box())
	}
	return boxes
}
