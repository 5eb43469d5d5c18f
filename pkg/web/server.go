// Package web exposes frame results to the presentation layer:
// a small JSON API plus websocket streams for status and camera images.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/el-hoshino/HowAwayAreYou/internal/log"
	"github.com/el-hoshino/HowAwayAreYou/pkg/detection"
	"github.com/el-hoshino/HowAwayAreYou/pkg/hub"
	"github.com/el-hoshino/HowAwayAreYou/pkg/pipeline"
)

// Settings is the read-only view of runtime settings served at /api/config
type Settings struct {
	Source            string `json:"source"`
	Orientation       string `json:"orientation"`
	MonocularFallback bool   `json:"monocular_fallback"`
}

// Server is the overlay API server
type Server struct {
	app       *fiber.App
	port      string
	processor *pipeline.Processor
	settings  Settings
	logger    *slog.Logger

	detector      detection.Detector
	minConfidence float64

	latest   pipeline.Result
	hasFrame bool
	mu       sync.RWMutex

	statusHub *hub.Hub
	cameraHub *hub.Hub
}

// NewServer creates the API server. Frames posted to /api/frames run through processor.
func NewServer(port string, processor *pipeline.Processor, settings Settings) *Server {
	s := &Server{
		port:      port,
		processor: processor,
		settings:  settings,
		logger:    log.With("component", "web"),
		statusHub: hub.New("status", true),
		cameraHub: hub.New("camera", false),
	}

	app := fiber.New(fiber.Config{
		AppName:               "howaway",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/status", s.handleStatus)
	api.Get("/stats", s.handleStats)
	api.Get("/config", s.handleConfig)
	api.Get("/classify", s.handleClassify)
	api.Post("/frames", s.handleFrame)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.serveHub(s.statusHub)))
	app.Get("/ws/camera", websocket.New(s.serveHub(s.cameraHub)))

	s.app = app
	return s
}

// SetDetector enables face detection for posted frames that carry an
// image but no face list. Call before Start.
func (s *Server) SetDetector(d detection.Detector, minConfidence float64) {
	s.detector = d
	s.minConfidence = minConfidence
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and blocks serving HTTP until Shutdown
func (s *Server) Start(ctx context.Context) error {
	go s.statusHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Publish records res as the latest result and streams it to viewers.
// The frame image, if any, goes to camera viewers.
func (s *Server) Publish(res pipeline.Result) {
	s.mu.Lock()
	s.latest = res
	s.hasFrame = true
	s.mu.Unlock()

	if err := s.statusHub.BroadcastJSON(res); err != nil {
		s.logger.Warn("encode result", "error", err)
	}
	if len(res.Image) > 0 {
		s.cameraHub.BroadcastBinary(res.Image)
	}
}

// Latest returns the most recent result and whether any frame was seen
func (s *Server) Latest() (pipeline.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest, s.hasFrame
}

func (s *Server) serveHub(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}
