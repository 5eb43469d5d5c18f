// Package danger turns a measured distance into the overlay status:
// Open while searching, Locked with a danger level once a face is measured.
package danger

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// Distance thresholds in meters
const (
	// SafeDistance and beyond is danger level 0
	SafeDistance = 2.0
	// DangerDistance and closer is danger level 1
	DangerDistance = 1.0
)

// Level maps a distance to a danger level in [0, 1].
// Negative distances fall into the closest bucket. NaN yields NaN; use Classify.
func Level(distance float64) float64 {
	switch {
	case distance >= SafeDistance:
		return 0
	case distance <= DangerDistance:
		return 1
	default:
		return SafeDistance - distance
	}
}

// Status is the overlay state for one frame
type Status struct {
	locked bool
	level  float64
}

// Open is the searching state, used when no target was found
func Open() Status {
	return Status{}
}

// LockedAt returns a locked status; level is clamped to [0, 1]
func LockedAt(level float64) Status {
	return Status{locked: true, level: math.Max(0, math.Min(1, level))}
}

// Classify returns the status for a measured distance.
// NaN is treated as no target.
func Classify(distance float64) Status {
	if math.IsNaN(distance) {
		return Open()
	}
	return LockedAt(Level(distance))
}

// FromInfo classifies a target, or returns Open when ok is false
func FromInfo(info target.Info, ok bool) Status {
	if !ok {
		return Open()
	}
	return Classify(float64(info.Distance))
}

// IsOpen reports whether no target is locked
func (s Status) IsOpen() bool {
	return !s.locked
}

// IsLocked reports whether a target is locked
func (s Status) IsLocked() bool {
	return s.locked
}

// Level returns the danger level; 0 when open
func (s Status) Level() float64 {
	return s.level
}

// Spins reports whether the sight mark should keep spinning (only while open)
func (s Status) Spins() bool {
	return !s.locked
}

// Color returns the sight mark color.
// Locked hue runs from red at level 1 to green at level 0.
func (s Status) Color() colorful.Color {
	if !s.locked {
		return colorful.Color{R: 0.5, G: 0.5, B: 0.5}
	}
	hue := (1 - s.level) / math.Pi
	return colorful.Hsv(hue*360, 0.8, 0.8)
}

// Alpha returns the sight mark opacity
func (s Status) Alpha() float64 {
	if !s.locked {
		return 0.8
	}
	return 1
}

// String implements fmt.Stringer
func (s Status) String() string {
	if !s.locked {
		return "open"
	}
	return fmt.Sprintf("locked(%.2f)", s.level)
}

type statusJSON struct {
	State       string   `json:"state"`
	DangerLevel *float64 `json:"danger_level,omitempty"`
	Color       string   `json:"color"`
	Alpha       float64  `json:"alpha"`
	Spins       bool     `json:"spins"`
}

// MarshalJSON implements json.Marshaler
func (s Status) MarshalJSON() ([]byte, error) {
	out := statusJSON{
		State: "open",
		Color: s.Color().Hex(),
		Alpha: s.Alpha(),
		Spins: s.Spins(),
	}
	if s.locked {
		level := s.level
		out.State = "locked"
		out.DangerLevel = &level
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Status) UnmarshalJSON(data []byte) error {
	var in statusJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.State {
	case "open":
		*s = Open()
	case "locked":
		if in.DangerLevel == nil {
			return fmt.Errorf("danger: locked status without danger_level")
		}
		*s = LockedAt(*in.DangerLevel)
	default:
		return fmt.Errorf("danger: unknown state %q", in.State)
	}
	return nil
}
