// Package target picks the face to measure in a frame and packages its
// position, size and distance for the overlay.
package target

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
)

// FaceBox is a detected face in normalized sensor-space coordinates
type FaceBox = geometry.Rect

// Select returns the box whose center is nearest the frame center.
// Ties go to the box that appears first. Returns false when boxes is empty.
func Select(boxes []FaceBox) (FaceBox, bool) {
	if len(boxes) == 0 {
		return FaceBox{}, false
	}

	best := 0
	bestDist := geometry.SquaredDistanceToCenter(boxes[0].Center())
	for i := 1; i < len(boxes); i++ {
		// strict < keeps the earlier box on ties
		if d := geometry.SquaredDistanceToCenter(boxes[i].Center()); d < bestDist {
			best, bestDist = i, d
		}
	}
	return boxes[best], true
}

// Info describes the selected face for one frame.
// Position and size are kept in sensor space; use the Oriented* accessors for display.
type Info struct {
	RelativePosition geometry.Point       `json:"relative_position"`
	RelativeSize     geometry.Size        `json:"relative_size"`
	Orientation      geometry.Orientation `json:"orientation"`
	Distance         float32              `json:"distance"`
}

// MarshalJSON implements json.Marshaler. A non-finite distance (an invalid
// or infinite depth pixel) is written as null.
func (i Info) MarshalJSON() ([]byte, error) {
	type plain Info
	out := struct {
		plain
		Distance *float32 `json:"distance"`
	}{plain: plain(i)}
	if d := float64(i.Distance); !math.IsNaN(d) && !math.IsInf(d, 0) {
		out.Distance = &i.Distance
	}
	return json.Marshal(out)
}

// OrientedRelativePosition returns the face center in display space
func (i Info) OrientedRelativePosition() geometry.Point {
	return geometry.OrientedPosition(i.RelativePosition, i.Orientation)
}

// OrientedRelativeSize returns the face size in display space
func (i Info) OrientedRelativeSize() geometry.Size {
	return geometry.OrientedSize(i.RelativeSize, i.Orientation)
}

// Build samples the depth map under the box center and returns the target info.
// The depth map shares the detector's un-rotated coordinate space, so sampling
// happens before any orientation is applied.
func Build(box FaceBox, m *depth.Map, o geometry.Orientation) (Info, error) {
	center := box.Center()
	distance, err := depth.Sample(m, center)
	if err != nil {
		return Info{}, fmt.Errorf("target: sample at %v: %w", center, err)
	}
	return WithDistance(box, distance, o), nil
}

// WithDistance builds target info from an externally measured distance
func WithDistance(box FaceBox, distance float32, o geometry.Orientation) Info {
	return Info{
		RelativePosition: box.Center(),
		RelativeSize:     box.Size,
		Orientation:      o,
		Distance:         distance,
	}
}

// Find selects a target among boxes and measures it.
// ok is false when there is no face; err is set only when sampling failed.
func Find(boxes []FaceBox, m *depth.Map, o geometry.Orientation) (info Info, ok bool, err error) {
	box, ok := Select(boxes)
	if !ok {
		return Info{}, false, nil
	}
	info, err = Build(box, m, o)
	if err != nil {
		return Info{}, false, err
	}
	return info, true, nil
}
