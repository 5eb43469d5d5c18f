// Package depth holds per-frame depth maps and the nearest-sample lookup
// used to measure how far a detected face is.
package depth

import (
	"errors"
	"fmt"
	"math"

	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
)

// Sentinel errors for depth map access.
var (
	// ErrOutOfBounds is returned when a sample falls outside the map.
	ErrOutOfBounds = errors.New("depth: sample out of bounds")

	// ErrBadDimensions is returned when width/height don't match the data.
	ErrBadDimensions = errors.New("depth: bad dimensions")
)

// maxSamples bounds width*height for any map, including decoded ones
const maxSamples = 1 << 26

// checkDimensions rejects non-positive sizes and sizes whose product
// overflows or exceeds maxSamples
func checkDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrBadDimensions, width, height)
	}
	if height > maxSamples/width {
		return fmt.Errorf("%w: %dx%d exceeds %d samples", ErrBadDimensions, width, height, maxSamples)
	}
	return nil
}

// Map is a row-major grid of single-precision distances in meters, origin top-left.
// It is owned by the capture side for one frame and only read here.
type Map struct {
	width  int
	height int
	data   []float32
}

// NewMap wraps data as a width x height depth map. len(data) must equal width*height.
func NewMap(width, height int, data []float32) (*Map, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("%w: %dx%d needs %d samples, got %d",
			ErrBadDimensions, width, height, width*height, len(data))
	}
	return &Map{width: width, height: height, data: data}, nil
}

// NewFilled creates a map where every sample is v
func NewFilled(width, height int, v float32) (*Map, error) {
	if err := checkDimensions(width, height); err != nil {
		return nil, err
	}
	data := make([]float32, width*height)
	for i := range data {
		data[i] = v
	}
	return &Map{width: width, height: height, data: data}, nil
}

// FromRows builds a map from a slice of equal-length rows
func FromRows(rows [][]float32) (*Map, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrBadDimensions)
	}
	width := len(rows[0])
	data := make([]float32, 0, width*len(rows))
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d samples, want %d", ErrBadDimensions, i, len(row), width)
		}
		data = append(data, row...)
	}
	return NewMap(width, len(rows), data)
}

// Width returns the number of columns
func (m *Map) Width() int {
	return m.width
}

// Height returns the number of rows
func (m *Map) Height() int {
	return m.height
}

// Data returns the underlying samples. Callers must not modify them.
func (m *Map) Data() []float32 {
	return m.data
}

// At returns the sample at pixel (col, row)
func (m *Map) At(col, row int) (float32, error) {
	if col < 0 || row < 0 || col >= m.width || row >= m.height {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, col, row, m.width, m.height)
	}
	return m.data[row*m.width+col], nil
}

// Sample reads the value under a normalized point.
// The point is scaled by the map dimensions and truncated; no interpolation.
func Sample(m *Map, p geometry.Point) (float32, error) {
	if m == nil {
		return 0, fmt.Errorf("%w: no depth map", ErrOutOfBounds)
	}

	x := p.X * float64(m.width)
	y := p.Y * float64(m.height)
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, fmt.Errorf("%w: non-finite point %v", ErrOutOfBounds, p)
	}

	return m.At(int(math.Floor(x)), int(math.Floor(y)))
}
