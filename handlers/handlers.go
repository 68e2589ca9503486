package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"plantapp/labels"
	"plantapp/middleware"
	"plantapp/models"
	"plantapp/service"
	"plantapp/version"
)

const (
	serviceName = "plantapp"

	// UploadField is the multipart field carrying the image.
	UploadField = "imageFile"
)

// ImageLabeler is the part of *service.Service the handlers use.
type ImageLabeler interface {
	Label(ctx context.Context, req service.Request) ([]labels.Label, error)
}

// Handlers represents the HTTP handlers
type Handlers struct {
	labeler        ImageLabeler
	maxUploadBytes int64
}

// NewHandlers creates new HTTP handlers
func NewHandlers(labeler ImageLabeler, maxUploadBytes int64) *Handlers {
	return &Handlers{labeler: labeler, maxUploadBytes: maxUploadBytes}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
	})
}

// Version reports build information
func (h *Handlers) Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get(serviceName))
}

// Analyze labels the uploaded image and answers with one "<description> (<pct>%)"
// string per label. No labels is an empty array; a failed request is never a 200.
func (h *Handlers) Analyze(c *gin.Context) {
	result, ok := h.label(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, labels.Compact.Items(result))
}

// Labels labels the uploaded image and answers with the raw description/score pairs.
func (h *Handlers) Labels(c *gin.Context) {
	result, ok := h.label(c)
	if !ok {
		return
	}
	if result == nil {
		result = []labels.Label{}
	}
	c.JSON(http.StatusOK, models.LabelsResponse{Labels: result, Count: len(result)})
}

func (h *Handlers) label(c *gin.Context) ([]labels.Label, bool) {
	image, filename, err := h.readUpload(c)
	if err != nil {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			status = http.StatusRequestEntityTooLarge
		}
		log.WithError(err).Warn("Rejected image upload")
		c.JSON(status, models.ErrorResponse{Error: "invalid_upload", Details: err.Error()})
		return nil, false
	}

	result, err := h.labeler.Label(c.Request.Context(), service.Request{
		ID:       middleware.GetRequestID(c),
		Source:   "http",
		Filename: filename,
		Image:    image,
	})
	if err != nil {
		respondLabelError(c, err)
		return nil, false
	}
	return result, true
}

// readUpload accepts either a multipart form with UploadField or a raw image body.
func (h *Handlers) readUpload(c *gin.Context) ([]byte, string, error) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	mediaType, _, _ := mime.ParseMediaType(c.ContentType())
	if strings.HasPrefix(mediaType, "image/") || mediaType == "application/octet-stream" {
		image, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read body: %w", err)
		}
		if len(image) == 0 {
			return nil, "", errors.New("empty image body")
		}
		return image, "", nil
	}

	header, err := c.FormFile(UploadField)
	if err != nil {
		return nil, "", fmt.Errorf("no file uploaded in field %q: %w", UploadField, err)
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(image) == 0 {
		return nil, "", errors.New("uploaded file is empty")
	}
	return image, header.Filename, nil
}

func respondLabelError(c *gin.Context, err error) {
	switch labels.KindOf(err) {
	case labels.KindService:
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "vision_service_error",
			Details: labels.Message(err),
		})
	default:
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error:   "vision_transport_error",
			Details: labels.Message(err),
		})
	}
}
