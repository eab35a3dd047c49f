package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"travelease/internal/config"
	"travelease/internal/external"
	"travelease/internal/handlers"
	"travelease/internal/messaging"
	"travelease/internal/middleware"
	"travelease/internal/session"
	"travelease/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wires the HTTP surface of the booking workflow service
type Server struct {
	router   *gin.Engine
	config   *config.Config
	nats     *messaging.NATSClient
	sessions *session.Provider
	registry *workflow.Registry
}

// NewServer creates a configured server instance
func NewServer(cfg *config.Config) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	bookingClient := external.NewBookingClient(cfg.Booking)
	paymentClient := external.NewPaymentClient(cfg.Payment)

	sessions, err := session.NewProvider(cfg.Session, bookingClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create session provider: %w", err)
	}

	// Event publishing is best-effort; without NATS the service still runs
	var events workflow.Publisher
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS unavailable, workflow events disabled", "error", err)
		natsClient = nil
	} else {
		events = natsClient
	}

	registry := workflow.NewRegistry(cfg.WorkflowIdleTTL)

	deps := workflow.Deps{
		Backend:  bookingClient,
		Gateway:  paymentClient,
		Profiles: sessions,
		Events:   events,
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())

	server := &Server{
		router:   router,
		config:   cfg,
		nats:     natsClient,
		sessions: sessions,
		registry: registry,
	}

	server.setupRoutes(handlers.NewHandlers(registry, deps))

	return server, nil
}

func (s *Server) setupRoutes(h *handlers.Handlers) {
	api := s.router.Group("/api")
	api.Use(middleware.BearerAuth(s.config.JWTSecret))
	{
		workflows := api.Group("/workflows")
		{
			workflows.POST("", h.OpenWorkflow)
			workflows.GET("/:id", h.GetWorkflow)
			workflows.PATCH("/:id/draft", h.UpdateDraftField)
			workflows.PATCH("/:id/guests", h.AdjustGuests)
			workflows.POST("/:id/steps/next", h.NextStep)
			workflows.POST("/:id/steps/prev", h.PrevStep)
			workflows.POST("/:id/booking", h.CreateBooking)
			workflows.POST("/:id/payment", h.InitiatePayment)
			workflows.GET("/:id/redirect", h.RedirectPage)
			workflows.POST("/:id/confirm", h.ConfirmBooking)
			workflows.POST("/:id/cancel", h.CancelBooking)
		}
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/health", s.healthCheck)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "travelease-booking-workflow",
		"version": "1.0.0",
	})
}

// Registry returns the workflow registry for lifecycle management
func (s *Server) Registry() *workflow.Registry {
	return s.registry
}

// GetRouter returns the router for testing
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes external connections
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}
	if s.sessions != nil {
		if err := s.sessions.Close(); err != nil {
			slog.Error("Error closing session provider", "error", err)
		}
	}
	return nil
}
