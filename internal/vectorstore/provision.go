package vectorstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/vectord/internal/qdrant"
)

// provisioner lazily creates physical collections and their secondary
// payload indexes. It is called opportunistically before every write that
// may target a collection that does not exist yet.
type provisioner struct {
	client    qdrant.Client
	dimension uint64
	logger    *zap.Logger

	// known caches collection existence to avoid re-listing on every write.
	known sync.Map
}

func newProvisioner(client qdrant.Client, dimension uint64, logger *zap.Logger) *provisioner {
	return &provisioner{
		client:    client,
		dimension: dimension,
		logger:    logger,
	}
}

// ensure makes sure the collection exists with the configured dimensionality,
// cosine distance, and the given payload indexes. Idempotent, and safe under
// concurrent callers racing to create the same collection: an already-exists
// failure from the engine is treated as success, never propagated.
func (p *provisioner) ensure(ctx context.Context, name string, indexes []qdrant.FieldIndex) error {
	if _, ok := p.known.Load(name); ok {
		return nil
	}

	existing, err := p.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: listing collections: %v", ErrEngine, err)
	}
	if slices.Contains(existing, name) {
		p.known.Store(name, true)
		return nil
	}

	p.logger.Info("creating collection",
		zap.String("collection", name),
		zap.Uint64("dimension", p.dimension))

	if err := p.client.CreateCollection(ctx, name, p.dimension); err != nil {
		if !qdrant.IsAlreadyExists(err) && !p.lostCreationRace(ctx, name) {
			return fmt.Errorf("%w: creating collection %s: %v", ErrEngine, name, err)
		}
		p.logger.Debug("collection created by concurrent caller", zap.String("collection", name))
	}

	for _, idx := range indexes {
		if err := p.client.CreateFieldIndex(ctx, name, idx.Field, idx.Type); err != nil {
			return fmt.Errorf("%w: creating index on %s.%s: %v", ErrEngine, name, idx.Field, err)
		}
	}

	p.known.Store(name, true)
	return nil
}

// lostCreationRace re-checks existence after a failed create. Some engine
// versions report duplicate creation as a generic error rather than
// ALREADY_EXISTS, so presence after the failure means another caller won.
func (p *provisioner) lostCreationRace(ctx context.Context, name string) bool {
	existing, err := p.client.ListCollections(ctx)
	if err != nil {
		return false
	}
	return slices.Contains(existing, name)
}
