package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rawen554/uploader/internal/config"
	"github.com/rawen554/uploader/internal/logic"
	"github.com/rawen554/uploader/internal/models"
	"go.uber.org/zap"
)

const (
	fileField     = "file"
	servicesField = "services"

	errNoFileUploaded    = "No file uploaded"
	errNoServiceSelected = "No service selected"
	errInternal          = "Internal server error"
	errNotFound          = "Not found"
)

type App struct {
	config    *config.ServerConfig
	coreLogic *logic.CoreLogic
	gatherer  prometheus.Gatherer
	logger    *zap.SugaredLogger
}

func NewApp(
	config *config.ServerConfig,
	coreLogic *logic.CoreLogic,
	gatherer prometheus.Gatherer,
	logger *zap.SugaredLogger,
) *App {
	return &App{
		config:    config,
		coreLogic: coreLogic,
		gatherer:  gatherer,
		logger:    logger,
	}
}

func (a *App) Upload(c *gin.Context) {
	file, fileName, fileSize, err := readUploadedFile(c)
	if err != nil {
		a.logger.Errorf("error reading uploaded file: %v", err)
		a.internalError(c, err)
		return
	}

	services := parseServices(c.PostForm(servicesField))

	// Uploads outlive the client connection once they have started.
	ctx := context.WithoutCancel(c.Request.Context())
	record, err := a.coreLogic.Upload(ctx, file, fileName, fileSize, services)
	if err != nil {
		switch {
		case errors.Is(err, logic.ErrNoFile):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errNoFileUploaded})
		case errors.Is(err, logic.ErrNoServiceSelected):
			c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: errNoServiceSelected})
		default:
			a.internalError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, models.UploadResponse{
		Success:      true,
		Results:      record.Results,
		UploadRecord: record,
	})
}

// readUploadedFile returns a nil file when the request carries none, leaving
// the decision to the orchestrator.
func readUploadedFile(c *gin.Context) ([]byte, string, uint64, error) {
	header, err := c.FormFile(fileField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, "", 0, nil
		}
		return nil, "", 0, fmt.Errorf("error parsing multipart form: %w", err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, "", 0, fmt.Errorf("error opening form file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", 0, fmt.Errorf("error reading form file: %w", err)
	}

	return data, header.Filename, uint64(len(data)), nil
}

// parseServices splits a comma separated list and drops blank entries.
func parseServices(raw string) []models.ProviderID {
	parts := strings.Split(raw, ",")
	services := make([]models.ProviderID, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		services = append(services, models.ProviderID(p))
	}
	return services
}

func (a *App) History(c *gin.Context) {
	records, err := a.coreLogic.History(c.Request.Context(), logic.DefaultHistoryLimit)
	if err != nil {
		a.internalError(c, err)
		return
	}
	if records == nil {
		records = []models.UploadRecord{}
	}

	c.JSON(http.StatusOK, models.HistoryResponse{History: records})
}

func (a *App) Ping(c *gin.Context) {
	if err := a.coreLogic.Ping(c.Request.Context()); err != nil {
		c.Writer.WriteHeader(http.StatusInternalServerError)
		return
	}

	c.Writer.WriteHeader(http.StatusOK)
}

func (a *App) NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{Error: errNotFound})
}

func (a *App) internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   errInternal,
		Message: err.Error(),
	})
}
