package capture

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
)

func writeSession(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	m, err := depth.FromRows([][]float32{{1.0, 1.2}, {0.8, 2.5}})
	if err != nil {
		t.Fatal(err)
	}
	if err := depth.Save(filepath.Join(dir, "0001.hayd.gz"), m); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "0001.jpg"), []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	manifest := `
orientation: right
interval: 5ms
frames:
  - depth: 0001.hayd.gz
    image: 0001.jpg
    faces:
      - {x: 0.125, y: 0.125, w: 0.25, h: 0.25}
  - faces: []
`
	path := filepath.Join(dir, "session.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSession(t *testing.T) {
	s, err := LoadSession(writeSession(t))
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}

	if s.Orientation != geometry.RotatedRight {
		t.Errorf("Orientation = %v, want right", s.Orientation)
	}
	if s.Interval != 5*time.Millisecond {
		t.Errorf("Interval = %v, want 5ms", s.Interval)
	}
	if len(s.Frames) != 2 {
		t.Fatalf("Frames = %d, want 2", len(s.Frames))
	}

	f, err := s.Frame(0)
	if err != nil {
		t.Fatalf("Frame(0): %v", err)
	}
	if f.Depth == nil || f.Depth.Width() != 2 {
		t.Errorf("Frame(0) depth not loaded: %+v", f.Depth)
	}
	if len(f.Faces) != 1 || f.Faces[0].Center() != (geometry.Point{X: 0.25, Y: 0.25}) {
		t.Errorf("Frame(0) faces = %+v", f.Faces)
	}
	if string(f.Image) != "jpeg" {
		t.Errorf("Frame(0) image = %q", f.Image)
	}

	empty, err := s.Frame(1)
	if err != nil {
		t.Fatalf("Frame(1): %v", err)
	}
	if empty.Depth != nil || len(empty.Faces) != 0 {
		t.Errorf("Frame(1) = %+v, want no depth and no faces", empty)
	}
}

func TestSession_PNGDepth(t *testing.T) {
	dir := t.TempDir()

	img := gocv.NewMatWithSize(2, 2, gocv.MatTypeCV16UC1)
	defer img.Close()
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			img.SetShortAt(row, col, 1024)
		}
	}
	if !gocv.IMWrite(filepath.Join(dir, "0001.png"), img) {
		t.Fatal("IMWrite failed")
	}

	manifest := `
depthScale: 0.0009765625
frames:
  - depth: 0001.png
    faces: []
`
	path := filepath.Join(dir, "session.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	f, err := s.Frame(0)
	if err != nil {
		t.Fatalf("Frame(0): %v", err)
	}
	v, err := depth.Sample(f.Depth, geometry.Center)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if v != 1.0 {
		t.Errorf("depth = %v, want 1.0", v)
	}
}

func TestLoadSession_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadSession(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(dir, "empty.yaml")
	os.WriteFile(path, []byte("orientation: up\nframes: []\n"), 0644)
	if _, err := LoadSession(path); err == nil {
		t.Error("expected error for session without frames")
	}

	path = filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("orientation: sideways\nframes:\n  - faces: []\n"), 0644)
	if _, err := LoadSession(path); err == nil {
		t.Error("expected error for unknown orientation")
	}
}

func TestSession_SaveRoundTrip(t *testing.T) {
	s, err := LoadSession(writeSession(t))
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "copy.yaml")
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := LoadSession(path)
	if err != nil {
		t.Fatalf("LoadSession(copy): %v", err)
	}
	if got.Orientation != s.Orientation || got.Interval != s.Interval || len(got.Frames) != len(s.Frames) {
		t.Errorf("copy = %+v, want %+v", got, s)
	}
}

func TestReplay_Frames(t *testing.T) {
	s, err := LoadSession(writeSession(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	frames, err := NewReplay(s, false).Frames(ctx)
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}

	count := 0
	for range frames {
		count++
	}
	if count != 2 {
		t.Errorf("got %d frames, want 2", count)
	}
}

func TestReplay_LoopStopsOnCancel(t *testing.T) {
	s, err := LoadSession(writeSession(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	frames, err := NewReplay(s, true).Frames(ctx)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if _, ok := <-frames; !ok {
			t.Fatalf("looping replay closed after %d frames", i)
		}
	}
	cancel()

	timeout := time.After(time.Second)
	for {
		select {
		case _, ok := <-frames:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("replay did not stop after cancel")
		}
	}
}
