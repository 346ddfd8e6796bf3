// Package providers implements the upload protocols of the supported hosting
// services and normalizes their responses into models.UploadResult.
package providers

import (
	"context"
	"net/http"

	"github.com/rawen554/uploader/internal/config"
	"github.com/rawen554/uploader/internal/models"
	"go.uber.org/zap"
)

// Adapter uploads a file to one hosting provider. Execute never returns an
// error: every failure is reported through UploadResult.Error.
type Adapter interface {
	ID() models.ProviderID
	Execute(ctx context.Context, file []byte, fileName string) models.UploadResult
}

// Registry holds the known adapters in dispatch priority order.
type Registry struct {
	adapters []Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	return &Registry{adapters: adapters}
}

// New builds the production registry: filemoon first, then voe.
func New(cfg *config.ServerConfig, client *http.Client, logger *zap.SugaredLogger) *Registry {
	if client == nil {
		client = &http.Client{}
	}

	return NewRegistry(
		NewFilemoon(FilemoonOptions{
			APIKey:   cfg.FilemoonAPIKey,
			Endpoint: cfg.FilemoonUploadURL,
			Timeout:  cfg.UploadTimeout,
		}, client, logger.Named("filemoon")),
		NewVoe(VoeOptions{
			APIKey:           cfg.VoeAPIKey,
			ServerURL:        cfg.VoeServerURL,
			DiscoveryTimeout: cfg.VoeDiscoveryTimeout,
			UploadTimeout:    cfg.UploadTimeout,
		}, client, logger.Named("voe")),
	)
}

// Select returns the adapters matching requested, in registry order.
// Unknown ids are dropped and duplicates collapse to a single adapter.
func (r *Registry) Select(requested []models.ProviderID) []Adapter {
	want := make(map[models.ProviderID]struct{}, len(requested))
	for _, id := range requested {
		want[id] = struct{}{}
	}

	selected := make([]Adapter, 0, len(want))
	for _, a := range r.adapters {
		if _, ok := want[a.ID()]; ok {
			selected = append(selected, a)
		}
	}

	return selected
}

func (r *Registry) IDs() []models.ProviderID {
	ids := make([]models.ProviderID, 0, len(r.adapters))
	for _, a := range r.adapters {
		ids = append(ids, a.ID())
	}
	return ids
}
