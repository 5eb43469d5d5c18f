// Package pipeline runs the per-frame face distance computation:
// select the face nearest the center, sample its depth, classify the danger.
package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/el-hoshino/HowAwayAreYou/pkg/danger"
	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// Frame is everything the capture side delivers for one camera frame
type Frame struct {
	ID          uuid.UUID
	Captured    time.Time
	Depth       *depth.Map // nil on devices without a depth sensor
	Faces       []target.FaceBox
	Orientation geometry.Orientation
	Image       []byte // optional JPEG, forwarded to viewers untouched
}

// NewFrame stamps a frame with a fresh ID and capture time
func NewFrame(m *depth.Map, faces []target.FaceBox, o geometry.Orientation) Frame {
	return Frame{
		ID:          uuid.New(),
		Captured:    time.Now(),
		Depth:       m,
		Faces:       faces,
		Orientation: o,
	}
}

// Result is the outcome of one frame
type Result struct {
	FrameID  uuid.UUID     `json:"frame_id"`
	Captured time.Time     `json:"captured"`
	Target   *target.Info  `json:"target,omitempty"` // nil when no face was measured
	Estimate bool          `json:"estimate"`         // distance came from face width, not depth
	Status   danger.Status `json:"status"`
	Overlay  Overlay       `json:"overlay"`
	Category string        `json:"category"`
	Image    []byte        `json:"-"` // the frame's JPEG, if any
}
