// Package capture delivers frames to the pipeline, either replayed from a
// recorded session or grabbed live from a webcam.
package capture

import (
	"context"

	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
)

// Source produces frames until ctx is done. The returned channel is
// closed when the source stops.
type Source interface {
	Frames(ctx context.Context) (<-chan pipeline.Frame, error)
}

// send delivers f unless ctx is done. With drop set, a busy receiver
// loses the frame instead of stalling capture.
func send(ctx context.Context, out chan<- pipeline.Frame, f pipeline.Frame, drop bool) bool {
	if drop {
		select {
		case out <- f:
		case <-ctx.Done():
			return false
		default:
		}
		return true
	}

	select {
	case out <- f:
		return true
	case <-ctx.Done():
		return false
	}
}
