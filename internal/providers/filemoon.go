package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/rawen554/uploader/internal/models"
	"go.uber.org/zap"
)

const (
	filemoonKeyField        = "api_key"
	invalidFilemoonResponse = "Invalid response from Filemoon"
)

type FilemoonOptions struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// Filemoon uploads with a single multipart request.
type Filemoon struct {
	opts   FilemoonOptions
	client *http.Client
	logger *zap.SugaredLogger
}

func NewFilemoon(opts FilemoonOptions, client *http.Client, logger *zap.SugaredLogger) *Filemoon {
	return &Filemoon{opts: opts, client: client, logger: logger}
}

func (f *Filemoon) ID() models.ProviderID {
	return models.Filemoon
}

func (f *Filemoon) Execute(ctx context.Context, file []byte, fileName string) models.UploadResult {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	res, err := postMultipart(ctx, f.client, f.opts.Endpoint, filemoonKeyField, f.opts.APIKey, file, fileName)
	if err != nil {
		f.logger.Errorf("upload error: %v", err)
		return models.Failed(models.Filemoon, failureMessage(err, invalidFilemoonResponse))
	}

	f.logger.Debugw("upload response", "status", res.Status, "result", res.Result, "msg", res.Msg)

	if res.Status == http.StatusOK && res.Result != "" {
		return models.Succeeded(models.Filemoon, res.Result)
	}

	f.logger.Errorf("upload error: unexpected response status %v", res.Status)
	return models.Failed(models.Filemoon, invalidFilemoonResponse)
}
