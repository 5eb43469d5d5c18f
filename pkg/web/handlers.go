package web

import (
	"math"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/el-hoshino/HowAwayAreYou/pkg/danger"
	"github.com/el-hoshino/HowAwayAreYou/pkg/depth"
	"github.com/el-hoshino/HowAwayAreYou/pkg/detection"
	"github.com/el-hoshino/HowAwayAreYou/pkg/geometry"
	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
	"github.com/el-hoshino/HowAwayAreYou/pkg/target"
)

// FaceRequest is a face box in a posted frame, top-left anchored
type FaceRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// FrameRequest is the body of POST /api/frames.
// Depth holds width*height little-endian float32 samples; omit it for
// frames without a depth sensor. When faces is omitted and an image is
// sent, the server's detector finds the faces.
type FrameRequest struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	Depth       []byte        `json:"depth"`
	Faces       []FaceRequest `json:"faces"`
	Orientation string        `json:"orientation"`
	Image       []byte        `json:"image"`
}

// Frame converts the request into a pipeline frame
func (r FrameRequest) Frame() (pipeline.Frame, error) {
	o, err := geometry.ParseOrientation(r.Orientation)
	if err != nil {
		return pipeline.Frame{}, err
	}

	var m *depth.Map
	if len(r.Depth) > 0 {
		m, err = depth.DecodeSamples(r.Width, r.Height, r.Depth)
		if err != nil {
			return pipeline.Frame{}, err
		}
	}

	faces := make([]target.FaceBox, len(r.Faces))
	for i, f := range r.Faces {
		faces[i] = target.FaceBox{
			Origin: geometry.Point{X: f.X, Y: f.Y},
			Size:   geometry.Size{Width: f.W, Height: f.H},
		}
	}

	frame := pipeline.NewFrame(m, faces, o)
	frame.Image = r.Image
	return frame, nil
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// handleStatus returns the latest result, or an open status before the first frame
func (s *Server) handleStatus(c *fiber.Ctx) error {
	res, ok := s.Latest()
	if !ok {
		return c.JSON(fiber.Map{
			"status":  danger.Open(),
			"overlay": pipeline.NewOverlay(nil, danger.Open()),
		})
	}
	return c.JSON(res)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"pipeline":       s.processor.Stats(),
		"status_clients": s.statusHub.ClientCount(),
		"camera_clients": s.cameraHub.ClientCount(),
		"dropped":        s.statusHub.Dropped() + s.cameraHub.Dropped(),
	})
}

func (s *Server) handleConfig(c *fiber.Ctx) error {
	return c.JSON(s.settings)
}

// handleClassify maps ?distance= to a status without a frame
func (s *Server) handleClassify(c *fiber.Ctx) error {
	d, err := strconv.ParseFloat(c.Query("distance"), 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "distance must be a number",
		})
	}
	return c.JSON(fiber.Map{
		"distance": jsonFloat(d),
		"status":   danger.Classify(d),
		"category": depth.Category(d),
	})
}

// handleFrame processes a posted frame and publishes the result
func (s *Server) handleFrame(c *fiber.Ctx) error {
	var req FrameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid frame: " + err.Error(),
		})
	}

	frame, err := req.Frame()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if req.Faces == nil && len(req.Image) > 0 && s.detector != nil {
		dets, err := s.detector.Detect(req.Image)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "detect faces: " + err.Error(),
			})
		}
		frame.Faces = detection.Boxes(dets, s.minConfidence)
	}

	res := s.processor.Process(frame)
	s.Publish(res)
	return c.JSON(res)
}

// jsonFloat keeps non-finite values out of JSON
func jsonFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
