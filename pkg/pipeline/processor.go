package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/el-hoshino/HowAwayAreYou/internal/log"
	"github.com/el-hoshino/HowAwayAreYou/pkg/danger"
	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// Options configures a Processor
type Options struct {
	// MonocularFallback estimates distance from face width when a frame has no depth map
	MonocularFallback bool

	Logger *slog.Logger
}

// Stats counts processed frames
type Stats struct {
	Frames      int           `json:"frames"`
	Locked      int           `json:"locked"`
	Estimated   int           `json:"estimated"`
	SampleFails int           `json:"sample_fails"`
	LastLatency time.Duration `json:"last_latency"`
}

// Processor turns frames into results. Frames are independent: nothing
// carries over from one call to the next apart from the counters.
type Processor struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewProcessor creates a frame processor
func NewProcessor(opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = log.L()
	}
	return &Processor{
		opts:   opts,
		logger: logger.With("component", "pipeline"),
	}
}

// Process runs select -> sample -> classify for one frame.
// A failed depth sample is logged and reported as no target for that frame.
func (p *Processor) Process(f Frame) Result {
	start := time.Now()
	res := Result{FrameID: f.ID, Captured: f.Captured, Image: f.Image}

	info, estimated, ok := p.measure(f)
	res.Status = danger.FromInfo(info, ok)
	if res.Status.IsLocked() {
		res.Target = &info
		res.Estimate = estimated
		res.Category = depth.Category(float64(info.Distance))
	} else {
		res.Category = depth.Category(0)
	}
	res.Overlay = NewOverlay(res.Target, res.Status)

	p.mu.Lock()
	p.stats.Frames++
	if res.Target != nil {
		p.stats.Locked++
		if estimated {
			p.stats.Estimated++
		}
	}
	p.stats.LastLatency = time.Since(start)
	p.mu.Unlock()

	p.logger.Debug("frame processed",
		"frame", f.ID,
		"faces", len(f.Faces),
		"status", res.Status.String(),
		"category", res.Category)

	return res
}

func (p *Processor) measure(f Frame) (info target.Info, estimated, ok bool) {
	box, ok := target.Select(f.Faces)
	if !ok {
		return target.Info{}, false, false
	}

	if f.Depth == nil {
		if !p.opts.MonocularFallback {
			return target.Info{}, false, false
		}
		d := depth.EstimateFromFaceWidth(box.Size.Width)
		if d == 0 {
			return target.Info{}, false, false
		}
		return target.WithDistance(box, float32(d), f.Orientation), true, true
	}

	info, err := target.Build(box, f.Depth, f.Orientation)
	if err != nil {
		p.mu.Lock()
		p.stats.SampleFails++
		p.mu.Unlock()
		p.logger.Warn("depth sample failed", "frame", f.ID, "error", err)
		return target.Info{}, false, false
	}
	return info, false, true
}

// Stats returns a snapshot of the counters
func (p *Processor) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Run processes frames until ctx is done or frames is closed, calling emit
// once per delivered frame. Dropped frames simply never arrive.
func (p *Processor) Run(ctx context.Context, frames <-chan Frame, emit func(Result)) error {
	p.logger.Info("pipeline started", "monocular_fallback", p.opts.MonocularFallback)
	defer p.logger.Info("pipeline stopped", "frames", p.Stats().Frames)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case f, ok := <-frames:
			if !ok {
				return nil
			}
			res := p.Process(f)
			if emit != nil {
				emit(res)
			}
		}
	}
}
