package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/axellelanca/qrforge/internal/capacity"
	"github.com/axellelanca/qrforge/internal/content"
	apperrors "github.com/axellelanca/qrforge/internal/errors"
	"github.com/axellelanca/qrforge/internal/models"
	"github.com/axellelanca/qrforge/internal/services"
)

// ScanEventsChannel is the global channel used to hand scan
// observations to the recording workers. Resolution never waits on it.
var ScanEventsChannel chan models.ScanEventMsg

// unavailableMessage is the only thing a scanning client learns about
// rejected codes. Deliberately generic: the owner's internal state is
// not for arbitrary scanners.
const unavailableMessage = "this code is not available"

// SetupRoutes configures all Gin API routes and injects dependencies.
func SetupRoutes(router *gin.Engine, codeService *services.CodeService, resolver *services.ResolverService, log *logrus.Logger, jwtSecret string, bufferSize int) {
	if ScanEventsChannel == nil {
		ScanEventsChannel = make(chan models.ScanEventMsg, bufferSize)
	}

	router.GET("/health", HealthCheckHandler)

	// Owner-scoped management endpoints.
	api := router.Group("/api/v1")
	api.Use(AuthMiddleware(jwtSecret))
	{
		api.POST("/codes", CreateCodeHandler(codeService, log))
		api.GET("/codes", ListCodesHandler(codeService, log))
		api.GET("/codes/:shortCode/stats", GetCodeStatsHandler(codeService, log))
		api.GET("/codes/:shortCode/events", ListEventsHandler(codeService, log))
		api.GET("/codes/:shortCode/image", GetCodeImageHandler(codeService, log))
		api.PUT("/codes/:shortCode/destination", UpdateDestinationHandler(codeService, log))
		api.DELETE("/codes/:shortCode", DeleteCodeHandler(codeService, log))
	}

	// Public scan surface: anyone may resolve a code or report a link
	// tap on a multi-destination page.
	router.GET("/:shortCode", ResolveHandler(resolver, log))
	router.POST("/:shortCode/links/:linkID/click", LinkClickHandler(resolver, log))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreateCodeRequest is the JSON body of a generation request.
type CreateCodeRequest struct {
	Kind    string          `json:"kind" binding:"required"`
	Mode    string          `json:"mode"`
	Payload json.RawMessage `json:"payload" binding:"required"`
	Options struct {
		ErrorTolerance string          `json:"error_tolerance"`
		UseCase        string          `json:"use_case"`
		HasLogo        bool            `json:"has_logo"`
		SizePx         int             `json:"size_px"`
		Format         string          `json:"format"`
		Style          json.RawMessage `json:"style"`
	} `json:"options"`
	Metadata struct {
		Name      string     `json:"name"`
		Folder    string     `json:"folder"`
		Tags      string     `json:"tags"`
		ExpiresAt *time.Time `json:"expires_at"`
	} `json:"metadata"`
}

// CreateCodeResponse is returned for a successful generation.
type CreateCodeResponse struct {
	ID             uint   `json:"id"`
	Kind           string `json:"kind"`
	Mode           string `json:"mode"`
	Version        int    `json:"version"`
	ModuleCount    int    `json:"module_count"`
	ErrorTolerance string `json:"error_tolerance"`
	ShortCode      string `json:"short_code,omitempty"`
	ShortURL       string `json:"short_url,omitempty"`
	EncodedText    string `json:"encoded_text"`
}

// CreateCodeHandler handles the creation of a new scannable code.
// Validation failures come back as a structured error list with 422;
// generation is simply refused, nothing is persisted.
func CreateCodeHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		code, err := codeService.CreateCode(services.CreateRequest{
			Kind:           content.Kind(req.Kind),
			Mode:           models.Mode(req.Mode),
			Payload:        req.Payload,
			ErrorTolerance: content.ErrorTolerance(req.Options.ErrorTolerance),
			UseCase:        capacity.UseCase(req.Options.UseCase),
			HasLogo:        req.Options.HasLogo,
			SizePx:         req.Options.SizePx,
			Format:         req.Options.Format,
			Style:          req.Options.Style,
			Name:           req.Metadata.Name,
			Folder:         req.Metadata.Folder,
			Tags:           req.Metadata.Tags,
			Owner:          OwnerFromContext(c),
			ExpiresAt:      req.Metadata.ExpiresAt,
		})
		if err != nil {
			var verr apperrors.ValidationError
			if errors.As(err, &verr) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Errors})
				return
			}
			if errors.Is(err, apperrors.ErrShortCodeGenerationFailed) {
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "unable to generate unique short code, please try again later"})
				return
			}
			log.WithError(err).Error("failed to create code")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create code"})
			return
		}

		resp := CreateCodeResponse{
			ID:             code.ID,
			Kind:           string(code.Kind),
			Mode:           string(code.Mode),
			Version:        code.Version,
			ModuleCount:    capacity.ModuleCount(code.Version),
			ErrorTolerance: string(code.ErrorTolerance),
			EncodedText:    code.EncodedText,
		}
		if code.ShortCode != nil {
			resp.ShortCode = *code.ShortCode
			resp.ShortURL = codeService.ShortURL(*code.ShortCode)
		}
		c.JSON(http.StatusCreated, resp)
	}
}

// ResolveHandler handles the public scan endpoint. URL-like kinds
// redirect straight to their destination; everything else returns the
// live payload as JSON. The scan observation is queued for the workers
// with a non-blocking send so tracking never delays the scanner.
func ResolveHandler(resolver *services.ResolverService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")
		now := time.Now()

		res, err := resolver.Resolve(shortCode, now)
		if err != nil {
			log.WithField("short_code", shortCode).WithError(err).Error("resolution failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		switch res.Outcome {
		case services.OutcomeNotFound:
			c.JSON(http.StatusNotFound, gin.H{"error": unavailableMessage})
			return
		case services.OutcomeInactive, services.OutcomeExpired:
			c.JSON(http.StatusGone, gin.H{"status": string(res.Outcome), "error": unavailableMessage})
			return
		}

		msg := models.ScanEventMsg{
			CodeID:    res.Code.ID,
			EventType: models.EventScan,
			Timestamp: now,
			UserAgent: c.GetHeader("User-Agent"),
			IPAddress: c.ClientIP(),
		}
		select {
		case ScanEventsChannel <- msg:
		default:
			// Buffer full: drop the observation rather than stall the
			// scanning client.
			log.WithField("code_id", res.Code.ID).Warn("scan events channel full, dropping event")
		}

		switch payload := res.Payload.(type) {
		case content.URLPayload:
			c.Redirect(http.StatusFound, content.NormalizeURL(payload.URL))
		case content.MultiDestinationPayload:
			c.JSON(http.StatusOK, gin.H{
				"kind":        string(res.Code.Kind),
				"title":       payload.Title,
				"description": payload.Description,
				"links":       res.ActiveLinks,
			})
		default:
			c.JSON(http.StatusOK, gin.H{
				"kind":    string(res.Code.Kind),
				"payload": res.Payload,
			})
		}
	}
}

// LinkClickHandler records a tap on one link of a multi-destination
// page, reported back by the rendering surface.
func LinkClickHandler(resolver *services.ResolverService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")
		linkID := c.Param("linkID")

		msg := models.ScanEventMsg{
			Timestamp: time.Now(),
			UserAgent: c.GetHeader("User-Agent"),
			IPAddress: c.ClientIP(),
		}
		if err := resolver.RecordLinkClick(shortCode, linkID, msg); err != nil {
			if errors.Is(err, apperrors.ErrCodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": unavailableMessage})
				return
			}
			log.WithField("short_code", shortCode).WithError(err).Error("failed to record link click")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "recorded"})
	}
}

// UpdateDestinationRequest carries the replacement payload for a
// dynamic code.
type UpdateDestinationRequest struct {
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// UpdateDestinationHandler edits a dynamic code's destination. The new
// payload is re-validated against the code's original kind; the printed
// image never changes.
func UpdateDestinationHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		var req UpdateDestinationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}

		code, err := codeService.UpdateDestination(shortCode, OwnerFromContext(c), req.Payload)
		if err != nil {
			var verr apperrors.ValidationError
			switch {
			case errors.Is(err, apperrors.ErrCodeNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
			case errors.Is(err, apperrors.ErrNotDynamic):
				c.JSON(http.StatusConflict, gin.H{"error": "code is not dynamic"})
			case errors.As(err, &verr):
				c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Errors})
			default:
				log.WithField("short_code", shortCode).WithError(err).Error("failed to update destination")
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{"short_code": shortCode, "updated_at": code.UpdatedAt})
	}
}

// ListCodesHandler returns every code owned by the authenticated owner.
func ListCodesHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := OwnerFromContext(c)
		codes, err := codeService.ListCodes(owner)
		if err != nil {
			log.WithField("owner", owner).WithError(err).Error("failed to list codes")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		items := make([]gin.H, 0, len(codes))
		for _, code := range codes {
			item := gin.H{
				"id":         code.ID,
				"kind":       string(code.Kind),
				"mode":       string(code.Mode),
				"name":       code.Name,
				"status":     string(code.Status),
				"scan_count": code.ScanCount,
				"created_at": code.CreatedAt,
			}
			if code.ShortCode != nil {
				item["short_code"] = *code.ShortCode
				item["short_url"] = codeService.ShortURL(*code.ShortCode)
			}
			items = append(items, item)
		}
		c.JSON(http.StatusOK, gin.H{"codes": items})
	}
}

// ListEventsHandler returns the most recent analytics events for one
// owned code, a raw export next to the aggregated stats endpoint.
func ListEventsHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}

		events, err := codeService.ListEvents(shortCode, OwnerFromContext(c), limit)
		if err != nil {
			if errors.Is(err, apperrors.ErrCodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
				return
			}
			log.WithField("short_code", shortCode).WithError(err).Error("failed to list events")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		items := make([]gin.H, 0, len(events))
		for _, ev := range events {
			items = append(items, gin.H{
				"id":         ev.ID,
				"event_type": string(ev.EventType),
				"timestamp":  ev.Timestamp,
				"session_id": ev.SessionID,
				"metadata":   json.RawMessage(ev.Metadata),
			})
		}
		c.JSON(http.StatusOK, gin.H{"short_code": shortCode, "events": items})
	}
}

// DeleteCodeHandler removes one owned code. The short code stops
// resolving immediately; recorded events are retained.
func DeleteCodeHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		if err := codeService.DeleteCode(shortCode, OwnerFromContext(c)); err != nil {
			if errors.Is(err, apperrors.ErrCodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
				return
			}
			log.WithField("short_code", shortCode).WithError(err).Error("failed to delete code")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"short_code": shortCode, "deleted": true})
	}
}

// GetCodeStatsHandler returns scan statistics for one owned code.
func GetCodeStatsHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		stats, err := codeService.GetCodeStats(shortCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrCodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
				return
			}
			log.WithField("short_code", shortCode).WithError(err).Error("failed to retrieve stats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if stats.Code.Owner != OwnerFromContext(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"short_code":      shortCode,
			"kind":            string(stats.Code.Kind),
			"status":          string(stats.Code.Status),
			"total_scans":     stats.TotalScans,
			"unique_visitors": stats.UniqueVisitors,
			"link_clicks":     stats.LinkClicks,
			"last_scanned_at": stats.Code.LastScannedAt,
			"created_at":      stats.Code.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// GetCodeImageHandler serves the stored rendered image for one owned
// code.
func GetCodeImageHandler(codeService *services.CodeService, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		stats, err := codeService.GetCodeStats(shortCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrCodeNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
				return
			}
			log.WithField("short_code", shortCode).WithError(err).Error("failed to retrieve image")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if stats.Code.Owner != OwnerFromContext(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "short code not found"})
			return
		}
		c.Data(http.StatusOK, "image/png", stats.Code.Image)
	}
}
