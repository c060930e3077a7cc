package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"drainage-route-server/models"
	"drainage-route-server/services"
)

const apiVersion = "v1"

type DrainageHandler struct {
	drainageService *services.DrainageService
}

func NewDrainageHandler(drainageService *services.DrainageService) *DrainageHandler {
	return &DrainageHandler{
		drainageService: drainageService,
	}
}

func (h *DrainageHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	api.GET("/networks", h.ListNetworks)
	api.GET("/networks/:name/facilities", h.ListFacilities)
	api.POST("/networks/:name/nearest", h.Nearest)
	api.POST("/networks/:name/batch", h.Batch)
	api.POST("/nearest-facility", h.NearestAdhoc)
}

func (h *DrainageHandler) ListNetworks(c *gin.Context) {
	start := time.Now()

	summaries, err := h.drainageService.Summaries()
	if err != nil {
		respondError(c, err)
		return
	}
	count := len(summaries)
	respond(c, start, summaries, &count)
}

func (h *DrainageHandler) ListFacilities(c *gin.Context) {
	start := time.Now()

	facilities, err := h.drainageService.Facilities(c.Param("name"), c.Query("kind"))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]models.FacilityView, 0, len(facilities))
	for _, f := range facilities {
		views = append(views, models.FacilityView{
			ID:       f.ID,
			Kind:     string(f.Kind),
			Location: models.Location{Latitude: f.Location.Lat(), Longitude: f.Location.Lon()},
		})
	}
	count := len(views)
	respond(c, start, views, &count)
}

func (h *DrainageHandler) Nearest(c *gin.Context) {
	start := time.Now()
	name := c.Param("name")
	log.Printf("=== Received nearest facility request for network %s ===", name)

	var req models.NearestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("ERROR: Failed to parse request: %v", err)
		respondInvalid(c, err)
		return
	}

	log.Printf("Request details: source(%.6f, %.6f) targets=%d kind=%q",
		req.Source.Latitude, req.Source.Longitude, len(req.TargetIDs), req.TargetKind)

	result, err := h.drainageService.Nearest(name, req)
	if err != nil {
		log.Printf("ERROR: Nearest facility query failed: %v", err)
		respondError(c, err)
		return
	}

	if result.Found {
		log.Printf("Nearest facility %s at %.1f m", result.NearestTargetID, result.DistanceMeters)
	} else {
		log.Println("No connected target facility found")
	}
	respond(c, start, result, nil)
}

func (h *DrainageHandler) NearestAdhoc(c *gin.Context) {
	start := time.Now()
	log.Println("=== Received ad-hoc nearest facility request ===")

	var req models.AdhocRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Printf("ERROR: Failed to parse request: %v", err)
		respondInvalid(c, err)
		return
	}

	log.Printf("Request details: %d pipes, %d targets", len(req.Pipes), len(req.Targets))
	respond(c, start, h.drainageService.Adhoc(req), nil)
}

func (h *DrainageHandler) Batch(c *gin.Context) {
	start := time.Now()
	name := c.Param("name")
	log.Printf("=== Received batch request for network %s ===", name)

	// The body is optional; an empty one selects the default kinds.
	var req models.BatchRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			log.Printf("ERROR: Failed to parse request: %v", err)
			respondInvalid(c, err)
			return
		}
	}

	resp, err := h.drainageService.Batch(c.Request.Context(), name, req)
	if err != nil {
		log.Printf("ERROR: Batch query failed: %v", err)
		respondError(c, err)
		return
	}

	log.Printf("Batch completed: %d matched, %d unreachable", len(resp.Results), len(resp.Unreachable))
	count := len(resp.Results)
	respond(c, start, resp, &count)
}

func respond(c *gin.Context, start time.Time, data interface{}, count *int) {
	c.JSON(http.StatusOK, models.ApiResponse{
		Success: true,
		Data:    data,
		Meta: &models.MetaData{
			ProcessTime: fmt.Sprintf("%.3f", float64(time.Since(start).Microseconds())/1000),
			ApiVersion:  apiVersion,
			ResultCount: count,
		},
		RequestID: uuid.NewString(),
	})
}

func respondInvalid(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ApiResponse{
		Success: false,
		Error: &models.ApiError{
			Code:    models.CodeInvalidRequest,
			Message: "invalid request body",
			Details: err.Error(),
		},
		RequestID: uuid.NewString(),
	})
}

func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := models.CodeInternal

	switch {
	case errors.Is(err, services.ErrNetworkNotFound):
		status, code = http.StatusNotFound, models.CodeNetworkNotFound
	case errors.Is(err, services.ErrUnknownFacility), errors.Is(err, services.ErrInvalidKind):
		status, code = http.StatusBadRequest, models.CodeInvalidRequest
	}

	c.JSON(status, models.ApiResponse{
		Success: false,
		Error: &models.ApiError{
			Code:    code,
			Message: err.Error(),
		},
		RequestID: uuid.NewString(),
	})
}
