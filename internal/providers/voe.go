package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rawen554/uploader/internal/models"
	"go.uber.org/zap"
)

const (
	voeKeyParam        = "key"
	voeKeyField        = "key"
	invalidVoeResponse = "Invalid response from Voe.sx"
	noVoeUploadServer  = "Failed to get upload server URL from Voe.sx"
)

var errNoUploadServer = errors.New(noVoeUploadServer)

type VoeOptions struct {
	APIKey           string
	ServerURL        string
	DiscoveryTimeout time.Duration
	UploadTimeout    time.Duration
}

// Voe uploads in two steps: it asks the discovery endpoint for an upload
// server, then posts the file there.
type Voe struct {
	opts   VoeOptions
	client *http.Client
	logger *zap.SugaredLogger
}

func NewVoe(opts VoeOptions, client *http.Client, logger *zap.SugaredLogger) *Voe {
	return &Voe{opts: opts, client: client, logger: logger}
}

func (v *Voe) ID() models.ProviderID {
	return models.Voe
}

func (v *Voe) Execute(ctx context.Context, file []byte, fileName string) models.UploadResult {
	uploadURL, err := v.discover(ctx)
	if err != nil {
		v.logger.Errorf("upload server discovery error: %v", err)
		return models.Failed(models.Voe, failureMessage(err, noVoeUploadServer))
	}

	ctx, cancel := context.WithTimeout(ctx, v.opts.UploadTimeout)
	defer cancel()

	res, err := postMultipart(ctx, v.client, uploadURL, voeKeyField, v.opts.APIKey, file, fileName)
	if err != nil {
		v.logger.Errorf("upload error: %v", err)
		return models.Failed(models.Voe, failureMessage(err, invalidVoeResponse))
	}

	v.logger.Debugw("upload response", "status", res.Status, "result", res.Result,
		"file_url", res.FileURL, "url", res.URL)

	if res.Status == http.StatusOK {
		if fileURL := hostedURL(res); fileURL != "" {
			return models.Succeeded(models.Voe, fileURL)
		}
	}

	v.logger.Errorf("upload error: unexpected response status %v", res.Status)
	return models.Failed(models.Voe, invalidVoeResponse)
}

func (v *Voe) discover(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, v.opts.DiscoveryTimeout)
	defer cancel()

	u, err := url.Parse(v.opts.ServerURL)
	if err != nil {
		return "", fmt.Errorf("error parsing server URL: %w", err)
	}
	q := u.Query()
	q.Set(voeKeyParam, v.opts.APIKey)
	u.RawQuery = q.Encode()

	res, err := getJSON(ctx, v.client, u.String())
	if err != nil {
		return "", err
	}

	v.logger.Debugw("server response", "status", res.Status, "result", res.Result)

	if res.Result == "" {
		return "", errNoUploadServer
	}

	return res.Result, nil
}

// hostedURL returns the first non-empty of result, file_url and url.
func hostedURL(res *envelope) string {
	for _, candidate := range []string{res.Result, res.FileURL, res.URL} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}
