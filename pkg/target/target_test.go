package target

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
)

func box(cx, cy, w, h float64) FaceBox {
	return geometry.RectFromCenter(geometry.Point{X: cx, Y: cy}, geometry.Size{Width: w, Height: h})
}

func scenarioMap(t *testing.T) *depth.Map {
	t.Helper()
	m, err := depth.FromRows([][]float32{
		{1.0, 1.2},
		{0.8, 2.5},
	})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return m
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name      string
		boxes     []FaceBox
		expectNil bool
		expectIdx int
	}{
		{
			name:      "empty list",
			boxes:     nil,
			expectNil: true,
		},
		{
			name:      "single box",
			boxes:     []FaceBox{box(0.1, 0.1, 0.25, 0.25)},
			expectIdx: 0,
		},
		{
			name: "nearest to center wins",
			boxes: []FaceBox{
				box(0.125, 0.125, 0.25, 0.25),
				box(0.5, 0.625, 0.125, 0.125),
				box(0.875, 0.5, 0.25, 0.25),
			},
			expectIdx: 1,
		},
		{
			name: "size does not matter",
			boxes: []FaceBox{
				box(0.75, 0.75, 0.5, 0.5),
				box(0.5, 0.5, 0.0625, 0.0625),
			},
			expectIdx: 1,
		},
		{
			name: "tie goes to first",
			boxes: []FaceBox{
				box(0.25, 0.25, 0.125, 0.125),
				box(0.75, 0.75, 0.125, 0.125),
			},
			expectIdx: 0,
		},
		{
			name: "tie goes to first after a farther box",
			boxes: []FaceBox{
				box(0, 0, 0.125, 0.125),
				box(0.75, 0.25, 0.125, 0.125),
				box(0.25, 0.75, 0.125, 0.125),
			},
			expectIdx: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Select(tc.boxes)
			if tc.expectNil {
				if ok {
					t.Errorf("Select: expected no target, got %+v", got)
				}
				return
			}
			if !ok {
				t.Fatal("Select: expected a target, got none")
			}
			if got != tc.boxes[tc.expectIdx] {
				t.Errorf("Select = %+v, want box %d %+v", got, tc.expectIdx, tc.boxes[tc.expectIdx])
			}
		})
	}
}

func TestSelect_MinimizesSquaredDistance(t *testing.T) {
	boxes := []FaceBox{
		box(0.1, 0.9, 0.1, 0.1),
		box(0.6, 0.3, 0.2, 0.2),
		box(0.45, 0.55, 0.3, 0.1),
		box(0.9, 0.1, 0.05, 0.05),
	}

	got, ok := Select(boxes)
	if !ok {
		t.Fatal("expected a target")
	}
	gotDist := geometry.SquaredDistanceToCenter(got.Center())
	for i, b := range boxes {
		if d := geometry.SquaredDistanceToCenter(b.Center()); d < gotDist {
			t.Errorf("box %d is nearer (%v) than selected (%v)", i, d, gotDist)
		}
	}
}

func TestBuild(t *testing.T) {
	m := scenarioMap(t)
	b := box(0.75, 0.25, 0.25, 0.125)

	info, err := Build(b, m, geometry.RotatedRight)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// Sampled in sensor space: (0.75, 0.25) -> col 1, row 0
	if info.Distance != 1.2 {
		t.Errorf("Distance = %v, want 1.2", info.Distance)
	}
	if info.RelativePosition != (geometry.Point{X: 0.75, Y: 0.25}) {
		t.Errorf("RelativePosition = %v", info.RelativePosition)
	}
	if got := info.OrientedRelativePosition(); got != (geometry.Point{X: 0.75, Y: 0.75}) {
		t.Errorf("OrientedRelativePosition = %v, want (0.75, 0.75)", got)
	}
	if got := info.OrientedRelativeSize(); got != (geometry.Size{Width: 0.125, Height: 0.25}) {
		t.Errorf("OrientedRelativeSize = %v", got)
	}
}

func TestBuild_OutOfBounds(t *testing.T) {
	m := scenarioMap(t)
	b := box(1.0, 0.5, 0.25, 0.25)

	if _, err := Build(b, m, geometry.Up); !errors.Is(err, depth.ErrOutOfBounds) {
		t.Errorf("Build error = %v, want ErrOutOfBounds", err)
	}
}

func TestFind(t *testing.T) {
	m := scenarioMap(t)

	if _, ok, err := Find(nil, m, geometry.Up); ok || err != nil {
		t.Errorf("Find(nil) = ok %v, err %v; want no target, no error", ok, err)
	}

	boxes := []FaceBox{
		box(0.25, 0.25, 0.125, 0.125),
		box(0.75, 0.75, 0.125, 0.125),
	}
	info, ok, err := Find(boxes, m, geometry.Up)
	if err != nil || !ok {
		t.Fatalf("Find = ok %v, err %v", ok, err)
	}
	if info.Distance != 1.0 {
		t.Errorf("Distance = %v, want 1.0 (first of tied boxes)", info.Distance)
	}
}

func TestInfo_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		distance float32
		want     *float32
	}{
		{"finite", 1.5, ptr(1.5)},
		{"positive infinity", float32(math.Inf(1)), nil},
		{"negative infinity", float32(math.Inf(-1)), nil},
		{"NaN", float32(math.NaN()), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info := WithDistance(box(0.5, 0.5, 0.25, 0.25), tc.distance, geometry.RotatedRight)
			data, err := json.Marshal(info)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}

			var got struct {
				Distance    *float32 `json:"distance"`
				Orientation string   `json:"orientation"`
			}
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal: %v (%s)", err, data)
			}
			if (got.Distance == nil) != (tc.want == nil) ||
				(got.Distance != nil && *got.Distance != *tc.want) {
				t.Errorf("distance = %v, want %v (%s)", got.Distance, tc.want, data)
			}
			if got.Orientation != "right" {
				t.Errorf("orientation = %q, want right", got.Orientation)
			}
		})
	}
}

func ptr(v float32) *float32 {
	return &v
}
