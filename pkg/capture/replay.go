package capture

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/el-hoshino/HowAwayAreYou/internal/log"
	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// FaceRecord is a face box as stored in a session file, top-left anchored
type FaceRecord struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// FrameRecord is one recorded frame. Paths are relative to the session file.
type FrameRecord struct {
	Depth string       `yaml:"depth,omitempty"`
	Image string       `yaml:"image,omitempty"`
	Faces []FaceRecord `yaml:"faces"`
}

// Session is a recorded capture: depth files plus detector output per frame
type Session struct {
	Orientation geometry.Orientation `yaml:"orientation"`
	Interval    time.Duration        `yaml:"interval"`
	DepthScale  float64              `yaml:"depthScale,omitempty"` // meters per unit for PNG depth, default 0.001
	Frames      []FrameRecord        `yaml:"frames"`

	dir string
}

// LoadSession parses a session manifest
func LoadSession(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse session %s: %w", path, err)
	}
	if len(s.Frames) == 0 {
		return nil, fmt.Errorf("session %s has no frames", path)
	}
	s.dir = filepath.Dir(path)
	return &s, nil
}

// Save writes the session manifest to path
func (s *Session) Save(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (s *Session) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.dir, p)
}

// loadDepth reads a HAYD file, or a 16-bit PNG scaled by DepthScale
func (s *Session) loadDepth(path string) (*depth.Map, error) {
	if !strings.EqualFold(filepath.Ext(path), ".png") {
		return depth.Load(path)
	}
	scale := s.DepthScale
	if scale <= 0 {
		scale = 0.001
	}
	return depth.LoadImage(path, scale)
}

// Frame loads the i-th recorded frame
func (s *Session) Frame(i int) (pipeline.Frame, error) {
	rec := s.Frames[i]

	var m *depth.Map
	if rec.Depth != "" {
		loaded, err := s.loadDepth(s.resolve(rec.Depth))
		if err != nil {
			return pipeline.Frame{}, err
		}
		m = loaded
	}

	faces := make([]target.FaceBox, len(rec.Faces))
	for j, fr := range rec.Faces {
		faces[j] = target.FaceBox{
			Origin: geometry.Point{X: fr.X, Y: fr.Y},
			Size:   geometry.Size{Width: fr.W, Height: fr.H},
		}
	}

	f := pipeline.NewFrame(m, faces, s.Orientation)
	if rec.Image != "" {
		img, err := os.ReadFile(s.resolve(rec.Image))
		if err != nil {
			return pipeline.Frame{}, err
		}
		f.Image = img
	}
	return f, nil
}

// Replay plays a session back at its recorded interval
type Replay struct {
	session *Session
	loop    bool
	logger  *slog.Logger
}

// NewReplay creates a replay source. With loop set it restarts at the end.
func NewReplay(s *Session, loop bool) *Replay {
	return &Replay{
		session: s,
		loop:    loop,
		logger:  log.With("component", "replay"),
	}
}

// Frames implements Source
func (r *Replay) Frames(ctx context.Context) (<-chan pipeline.Frame, error) {
	interval := r.session.Interval
	if interval <= 0 {
		interval = 66 * time.Millisecond
	}

	out := make(chan pipeline.Frame)
	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			for i := range r.session.Frames {
				f, err := r.session.Frame(i)
				if err != nil {
					// a broken frame is skipped like a dropped one
					r.logger.Warn("skipping frame", "index", i, "error", err)
				} else if !send(ctx, out, f, false) {
					return
				}

				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
			if !r.loop {
				r.logger.Info("replay finished", "frames", len(r.session.Frames))
				return
			}
		}
	}()
	return out, nil
}
