package qdrant

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ClientConfig configures the Qdrant gRPC client.
type ClientConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334
	Port int

	// APIKey is the optional API key for authentication.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool

	// MaxMessageSize is the maximum gRPC message size in bytes.
	// Default: 50MB
	MaxMessageSize int

	// RequestTimeout bounds individual engine calls.
	// Default: 30 seconds
	RequestTimeout time.Duration

	// RetryAttempts is the number of retry attempts for transient failures.
	// Default: 3
	RetryAttempts int
}

// ApplyDefaults sets default values for unset fields.
func (c *ClientConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = 50 * 1024 * 1024
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 3
	}
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d (must be 1-65535)", c.Port)
	}
	if c.MaxMessageSize <= 0 {
		return fmt.Errorf("invalid max message size: %d (must be > 0)", c.MaxMessageSize)
	}
	return nil
}

// IsTransientError reports whether an engine error is worth retrying.
// Network timeouts and temporary unavailability are transient; invalid
// arguments, not-found, and auth failures are not.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// IsAlreadyExists reports whether an error is the engine rejecting creation
// of a collection that already exists. Concurrent provisioners racing to
// create the same collection treat this as success.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if st, ok := status.FromError(err); ok && st.Code() == grpccodes.AlreadyExists {
		return true
	}
	return false
}

// IsNotFound reports whether an error is the engine's not-found condition.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	return ok && st.Code() == grpccodes.NotFound
}

// GRPCClient implements Client using Qdrant's official Go client.
//
// The native gRPC transport (port 6334) avoids the HTTP layer's payload
// limits and is safe for concurrent use from any number of request
// goroutines.
type GRPCClient struct {
	client *qdrant.Client
	config *ClientConfig
	logger *zap.Logger
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient creates a Qdrant gRPC client and verifies connectivity.
func NewGRPCClient(config *ClientConfig, logger *zap.Logger) (*GRPCClient, error) {
	if config == nil {
		config = &ClientConfig{}
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(config.MaxMessageSize),
				grpc.MaxCallSendMsgSize(config.MaxMessageSize),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", config.Host, config.Port, err)
	}

	return &GRPCClient{
		client: client,
		config: config,
		logger: logger.Named("qdrant"),
	}, nil
}

// retryOperation retries transient failures with exponential backoff.
func (c *GRPCClient) retryOperation(ctx context.Context, name string, operation func() error) error {
	backoff := time.Second
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		err := operation()
		if err == nil {
			if attempt > 0 {
				c.logger.Info("operation recovered after retries",
					zap.String("operation", name),
					zap.Int("attempts", attempt))
			}
			return nil
		}
		if !IsTransientError(err) {
			return err
		}
		lastErr = err
		if attempt == c.config.RetryAttempts {
			break
		}
		c.logger.Warn("transient engine error, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", name, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return fmt.Errorf("%s failed after %d retries: %w", name, c.config.RetryAttempts, lastErr)
}

// ListCollections returns the names of all collections.
func (c *GRPCClient) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var names []string
	err := c.retryOperation(ctx, "list_collections", func() error {
		result, err := c.client.ListCollections(ctx)
		if err != nil {
			return err
		}
		names = result
		return nil
	})
	return names, err
}

// CreateCollection creates a collection with cosine distance.
func (c *GRPCClient) CreateCollection(ctx context.Context, name string, vectorSize uint64) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return c.retryOperation(ctx, "create_collection", func() error {
		return c.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     vectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
}

// CreateFieldIndex creates a secondary payload index on a field.
func (c *GRPCClient) CreateFieldIndex(ctx context.Context, collection, field string, fieldType FieldType) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return c.retryOperation(ctx, "create_field_index", func() error {
		_, err := c.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      field,
			FieldType:      toQdrantFieldType(fieldType),
		})
		return err
	})
}

// Upsert writes points, replacing existing points with the same IDs.
func (c *GRPCClient) Upsert(ctx context.Context, collection string, points []*Point) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	qdrantPoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: toQdrantPayload(p.Payload),
		}
	}

	return c.retryOperation(ctx, "upsert", func() error {
		_, err := c.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Points:         qdrantPoints,
		})
		return err
	})
}

// Get retrieves points by numeric ID.
func (c *GRPCClient) Get(ctx context.Context, collection string, ids []uint64, withVectors bool) ([]*RetrievedPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDNum(id)
	}

	var result []*qdrant.RetrievedPoint
	err := c.retryOperation(ctx, "get", func() error {
		points, err := c.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: collection,
			Ids:            pointIDs,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(withVectors),
		})
		if err != nil {
			return err
		}
		result = points
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*RetrievedPoint, len(result))
	for i, p := range result {
		out[i] = fromQdrantRetrievedPoint(p)
	}
	return out, nil
}

// DeletePoints removes points by numeric ID.
func (c *GRPCClient) DeletePoints(ctx context.Context, collection string, ids []uint64) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewIDNum(id)
	}

	return c.retryOperation(ctx, "delete_points", func() error {
		_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Points{
					Points: &qdrant.PointsIdsList{Ids: pointIDs},
				},
			},
		})
		return err
	})
}

// DeleteByFilter removes every point matching the filter.
func (c *GRPCClient) DeleteByFilter(ctx context.Context, collection string, filter *Filter) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return c.retryOperation(ctx, "delete_by_filter", func() error {
		_, err := c.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: toQdrantFilter(filter),
				},
			},
		})
		return err
	})
}

// Count returns the number of points matching the filter.
func (c *GRPCClient) Count(ctx context.Context, collection string, filter *Filter) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var count uint64
	err := c.retryOperation(ctx, "count", func() error {
		result, err := c.client.Count(ctx, &qdrant.CountPoints{
			CollectionName: collection,
			Filter:         toQdrantFilter(filter),
			Exact:          qdrant.PtrOf(true),
		})
		if err != nil {
			return err
		}
		count = result
		return nil
	})
	return count, err
}

// Search runs similarity search with an engine-side score threshold.
func (c *GRPCClient) Search(ctx context.Context, collection string, vector []float32, limit uint64, filter *Filter, scoreThreshold float32) ([]*ScoredPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	query := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(limit),
		Filter:         toQdrantFilter(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if scoreThreshold > 0 {
		query.ScoreThreshold = qdrant.PtrOf(scoreThreshold)
	}

	var result []*qdrant.ScoredPoint
	err := c.retryOperation(ctx, "search", func() error {
		points, err := c.client.Query(ctx, query)
		if err != nil {
			return err
		}
		result = points
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*ScoredPoint, len(result))
	for i, p := range result {
		out[i] = &ScoredPoint{
			RetrievedPoint: RetrievedPoint{
				ID:      pointIDNum(p.Id),
				Payload: fromQdrantPayload(p.Payload),
			},
			Score: p.Score,
		}
	}
	return out, nil
}

// Scroll enumerates one page of points matching the filter.
func (c *GRPCClient) Scroll(ctx context.Context, collection string, filter *Filter, limit uint32, offset *uint64, withVectors bool) ([]*RetrievedPoint, *uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req := &qdrant.ScrollPoints{
		CollectionName: collection,
		Filter:         toQdrantFilter(filter),
		Limit:          qdrant.PtrOf(limit),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(withVectors),
	}
	if offset != nil {
		req.Offset = qdrant.NewIDNum(*offset)
	}

	var (
		points     []*qdrant.RetrievedPoint
		nextOffset *qdrant.PointId
	)
	err := c.retryOperation(ctx, "scroll", func() error {
		result, next, err := c.client.ScrollAndOffset(ctx, req)
		if err != nil {
			return err
		}
		points, nextOffset = result, next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	out := make([]*RetrievedPoint, len(points))
	for i, p := range points {
		out[i] = fromQdrantRetrievedPoint(p)
	}

	var next *uint64
	if nextOffset != nil {
		n := pointIDNum(nextOffset)
		next = &n
	}
	return out, next, nil
}

// SetPayload patches payload keys on every point matching the filter.
func (c *GRPCClient) SetPayload(ctx context.Context, collection string, filter *Filter, payload map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return c.retryOperation(ctx, "set_payload", func() error {
		_, err := c.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
			CollectionName: collection,
			Payload:        toQdrantPayload(payload),
			PointsSelector: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: toQdrantFilter(filter),
				},
			},
		})
		return err
	})
}

// CollectionInfo returns status and point count for a collection.
func (c *GRPCClient) CollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	var info *CollectionInfo
	err := c.retryOperation(ctx, "collection_info", func() error {
		result, err := c.client.GetCollectionInfo(ctx, collection)
		if err != nil {
			return err
		}
		info = &CollectionInfo{
			Status:     result.GetStatus().String(),
			PointCount: result.GetPointsCount(),
		}
		return nil
	})
	return info, err
}

// Health verifies the engine is reachable.
func (c *GRPCClient) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	_, err := c.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying gRPC connection.
func (c *GRPCClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
