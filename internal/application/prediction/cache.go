// Package prediction turns protein sequences into structure files through an
// opaque Model.  The model is loaded lazily and shared through a ModelCache
// owned by the caller.
package prediction

import (
	"context"
	"sync"

	"github.com/turtacn/protflow/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/protflow/pkg/errors"
)

// Model writes a predicted structure for seq to outPath.
type Model interface {
	Predict(ctx context.Context, id, seq, outPath string) error
}

// Loader constructs a Model.
type Loader func(ctx context.Context) (Model, error)

// ModelCache holds at most one loaded Model.
type ModelCache struct {
	mu     sync.Mutex
	loader Loader
	model  Model
	logger logging.Logger
}

// NewModelCache returns an empty cache that loads with loader.
func NewModelCache(loader Loader, logger logging.Logger) *ModelCache {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ModelCache{loader: loader, logger: logger.Named("prediction")}
}

// GetOrLoad returns the cached Model, loading it on first use.  A failed load
// leaves the cache empty.
func (c *ModelCache) GetOrLoad(ctx context.Context) (Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.model != nil {
		c.logger.Debug("using cached model")
		return c.model, nil
	}
	if c.loader == nil {
		return nil, apperrors.New(apperrors.ErrCodeModelLoadFailed, "no model loader configured")
	}
	m, err := c.loader(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeModelLoadFailed, "failed to load structure model")
	}
	c.model = m
	c.logger.Info("structure model loaded")
	return m, nil
}

// Clear drops the cached Model.
func (c *ModelCache) Clear() {
	c.mu.Lock()
	c.model = nil
	c.mu.Unlock()
	c.logger.Info("model cache cleared")
}

//Personal.AI order the ending
