// Package geometry provides normalized frame coordinates and the orientation
// remapping between sensor space and display space.
package geometry

import (
	"fmt"

	"github.com/golang/geo/r2"
)

// Point is a coordinate relative to the frame: (0,0) is top-left, (1,1) bottom-right.
type Point = r2.Point

// Center is the middle of the frame
var Center = Point{X: 0.5, Y: 0.5}

// Size is a width/height pair relative to the frame dimensions (0-1)
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ShorterLength returns the smaller of width and height
func (s Size) ShorterLength() float64 {
	return min(s.Width, s.Height)
}

// LongerLength returns the larger of width and height
func (s Size) LongerLength() float64 {
	return max(s.Width, s.Height)
}

// Orientation describes the rotation between the sensor and the display
type Orientation int

const (
	// Up means sensor and display share the same rotation
	Up Orientation = iota
	// RotatedRight means the display is the sensor image rotated 90° clockwise
	RotatedRight
)

// String returns the orientation name used in config files and JSON
func (o Orientation) String() string {
	switch o {
	case Up:
		return "up"
	case RotatedRight:
		return "right"
	default:
		return fmt.Sprintf("orientation(%d)", int(o))
	}
}

// ParseOrientation parses "up" or "right"
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "up", "":
		return Up, nil
	case "right", "rotated_right":
		return RotatedRight, nil
	}
	return Up, fmt.Errorf("geometry: unknown orientation %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// OrientedPosition maps a sensor-space point into display space.
// Under RotatedRight (x, y) becomes (1-y, x).
func OrientedPosition(p Point, o Orientation) Point {
	switch o {
	case RotatedRight:
		return Point{X: 1 - p.Y, Y: p.X}
	default:
		return p
	}
}

// OrientedSize maps a sensor-space size into display space.
// Under RotatedRight width and height are swapped.
func OrientedSize(s Size, o Orientation) Size {
	switch o {
	case RotatedRight:
		return Size{Width: s.Height, Height: s.Width}
	default:
		return s
	}
}

// SquaredDistanceToCenter returns (x-0.5)² + (y-0.5)².
// Only meant for ranking, so the square root is skipped.
func SquaredDistanceToCenter(p Point) float64 {
	d := p.Sub(Center)
	return d.Dot(d)
}

// Rect is a normalized rectangle anchored at its top-left corner
type Rect struct {
	Origin Point `json:"origin"`
	Size   Size  `json:"size"`
}

// RectFromCenter builds a rectangle around a center point
func RectFromCenter(center Point, size Size) Rect {
	return Rect{
		Origin: Point{X: center.X - size.Width/2, Y: center.Y - size.Height/2},
		Size:   size,
	}
}

// Center returns the midpoint of the rectangle
func (r Rect) Center() Point {
	return Point{X: r.Origin.X + r.Size.Width/2, Y: r.Origin.Y + r.Size.Height/2}
}

// Area returns width * height
func (r Rect) Area() float64 {
	return r.Size.Width * r.Size.Height
}
