package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vietddude/cinemap/internal/aggregate"
	"github.com/vietddude/cinemap/internal/core/domain"
	"github.com/vietddude/cinemap/internal/health"
)

// maxLocationNames bounds one POST /api/locations batch.
const maxLocationNames = 50

type Handler struct {
	Explorer Explorer
}

func NewHandler(explorer Explorer) *Handler {
	return &Handler{Explorer: explorer}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/movies", h.searchMovie)          // GET /api/movies?title=
	rg.POST("/locations", h.resolveLocations) // POST /api/locations
	rg.GET("/explore", h.explore)             // GET /api/explore?title=
}

type locationsRequest struct {
	Names []string `json:"names"`
}

type locationsResponse struct {
	Locations []*domain.LocationRecord `json:"locations"`
	Requested int                      `json:"requested"`
	Resolved  int                      `json:"resolved"`
}

type exploreResponse struct {
	*aggregate.Exploration
	Requested      int    `json:"requested"`
	Resolved       int    `json:"resolved"`
	LocationsError string `json:"locations_error,omitempty"`
}

func (h *Handler) searchMovie(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	movie, err := h.Explorer.SearchMovie(c.Request.Context(), title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

func (h *Handler) resolveLocations(c *gin.Context) {
	var req locationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Names) > maxLocationNames {
		c.JSON(http.StatusBadRequest, gin.H{"error": "too many location names"})
		return
	}

	locations, err := h.Explorer.ResolveLocations(c.Request.Context(), req.Names)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, locationsResponse{
		Locations: locations,
		Requested: len(req.Names),
		Resolved:  len(locations),
	})
}

func (h *Handler) explore(c *gin.Context) {
	title := strings.TrimSpace(c.Query("title"))
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}

	result, err := h.Explorer.Explore(c.Request.Context(), title)
	if err != nil && (result == nil || result.Movie == nil) {
		writeError(c, err)
		return
	}
	resp := exploreResponse{
		Exploration: result,
		Requested:   len(result.Movie.Locations),
		Resolved:    len(result.Locations),
	}
	// The movie resolved; a failed location batch is reported alongside it.
	if err != nil {
		resp.LocationsError = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsUnavailable(err), errors.Is(err, aggregate.ErrLocationsUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// HealthHandler serves the health endpoints.
type HealthHandler struct {
	Monitor HealthChecker
}

func NewHealthHandler(monitor HealthChecker) *HealthHandler {
	return &HealthHandler{Monitor: monitor}
}

func (h *HealthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.health)            // GET /health
	rg.GET("/detailed", h.detailed) // GET /health/detailed
}

func (h *HealthHandler) health(c *gin.Context) {
	report := h.Monitor.CheckHealth(c.Request.Context())
	status := http.StatusOK
	if report.SystemStatus == health.StatusCritical {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": report.SystemStatus})
}

func (h *HealthHandler) detailed(c *gin.Context) {
	c.JSON(http.StatusOK, h.Monitor.CheckHealth(c.Request.Context()))
}
