package pipeline

import (
	"github.com/el-hoshino/HowAwayAreYou/pkg/danger"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// Sight mark defaults while searching
const (
	openDiameterScale = 0.6
)

// Overlay is the presentation parameters for the sight mark.
// Position is in display space; Scale is relative to the display's shorter side
// when locked and to its width while open.
type Overlay struct {
	Position geometry.Point `json:"position"`
	Scale    float64        `json:"scale"`
	Color    string         `json:"color"`
	Alpha    float64        `json:"alpha"`
	Spins    bool           `json:"spins"`
}

// NewOverlay derives the sight mark parameters from a frame's result
func NewOverlay(info *target.Info, status danger.Status) Overlay {
	o := Overlay{
		Position: geometry.Center,
		Scale:    openDiameterScale,
		Color:    status.Color().Hex(),
		Alpha:    status.Alpha(),
		Spins:    status.Spins(),
	}
	if info != nil {
		o.Position = info.OrientedRelativePosition()
		o.Scale = info.OrientedRelativeSize().LongerLength()
	}
	return o
}

// Locked reports whether the overlay tracks a target
func (o Overlay) Locked() bool {
	return !o.Spins
}

// Diameter returns the sight mark diameter in pixels for a display of w x h
func (o Overlay) Diameter(width, height float64) float64 {
	if o.Spins {
		return width * o.Scale
	}
	return geometry.Size{Width: width, Height: height}.ShorterLength() * o.Scale
}

// PixelPosition returns the sight mark center in pixels for a display of w x h
func (o Overlay) PixelPosition(width, height float64) (x, y float64) {
	return o.Position.X * width, o.Position.Y * height
}
