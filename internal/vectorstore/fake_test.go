package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"

	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fyrsmithlabs/vectord/internal/qdrant"
)

var (
	errAlreadyExists = status.Error(grpccodes.AlreadyExists, "collection already exists")
	errNoCollection  = status.Error(grpccodes.NotFound, "collection not found")
)

// fakeEngine is an in-memory qdrant.Client. It mimics the engine behaviors
// the stores rely on: filtered search with cosine scores and a score
// threshold, paged scroll ordered by numeric ID, payload patching, and
// duplicate-create errors from CreateCollection.
type fakeEngine struct {
	mu          sync.Mutex
	collections map[string]*fakeCollection
	calls       map[string]int
	failures    map[string]error
}

type fakeCollection struct {
	size    uint64
	points  map[uint64]fakePoint
	indexes []string
}

type fakePoint struct {
	vector  []float32
	payload map[string]any
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		collections: make(map[string]*fakeCollection),
		calls:       make(map[string]int),
		failures:    make(map[string]error),
	}
}

func (f *fakeEngine) failWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

func (f *fakeEngine) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeEngine) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

// enter records the call and returns any injected failure.
func (f *fakeEngine) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	return f.failures[method]
}

func (f *fakeEngine) ListCollections(ctx context.Context) ([]string, error) {
	if err := f.enter("ListCollections"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.collections))
	for name := range f.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeEngine) CreateCollection(ctx context.Context, name string, vectorSize uint64) error {
	if err := f.enter("CreateCollection"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.collections[name]; ok {
		return errAlreadyExists
	}
	f.collections[name] = &fakeCollection{size: vectorSize, points: make(map[uint64]fakePoint)}
	return nil
}

func (f *fakeEngine) CreateFieldIndex(ctx context.Context, collection, field string, fieldType qdrant.FieldType) error {
	if err := f.enter("CreateFieldIndex"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return errNoCollection
	}
	c.indexes = append(c.indexes, field)
	return nil
}

func (f *fakeEngine) Upsert(ctx context.Context, collection string, points []*qdrant.Point) error {
	if err := f.enter("Upsert"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return errNoCollection
	}
	for _, p := range points {
		c.points[p.ID] = fakePoint{vector: p.Vector, payload: p.Payload}
	}
	return nil
}

func (f *fakeEngine) Get(ctx context.Context, collection string, ids []uint64, withVectors bool) ([]*qdrant.RetrievedPoint, error) {
	if err := f.enter("Get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return nil, nil
	}
	var out []*qdrant.RetrievedPoint
	for _, id := range ids {
		p, ok := c.points[id]
		if !ok {
			continue
		}
		rp := &qdrant.RetrievedPoint{ID: id, Payload: p.payload}
		if withVectors {
			rp.Vector = p.vector
		}
		out = append(out, rp)
	}
	return out, nil
}

func (f *fakeEngine) DeletePoints(ctx context.Context, collection string, ids []uint64) error {
	if err := f.enter("DeletePoints"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.collections[collection]; ok {
		for _, id := range ids {
			delete(c.points, id)
		}
	}
	return nil
}

func (f *fakeEngine) DeleteByFilter(ctx context.Context, collection string, filter *qdrant.Filter) error {
	if err := f.enter("DeleteByFilter"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.collections[collection]; ok {
		for id, p := range c.points {
			if matchesFilter(p.payload, filter) {
				delete(c.points, id)
			}
		}
	}
	return nil
}

func (f *fakeEngine) Count(ctx context.Context, collection string, filter *qdrant.Filter) (uint64, error) {
	if err := f.enter("Count"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return 0, nil
	}
	var n uint64
	for _, p := range c.points {
		if matchesFilter(p.payload, filter) {
			n++
		}
	}
	return n, nil
}

func (f *fakeEngine) Search(ctx context.Context, collection string, vector []float32, limit uint64, filter *qdrant.Filter, scoreThreshold float32) ([]*qdrant.ScoredPoint, error) {
	if err := f.enter("Search"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return nil, nil
	}
	var hits []*qdrant.ScoredPoint
	for id, p := range c.points {
		if !matchesFilter(p.payload, filter) {
			continue
		}
		score := cosine(vector, p.vector)
		if score < scoreThreshold {
			continue
		}
		hits = append(hits, &qdrant.ScoredPoint{
			RetrievedPoint: qdrant.RetrievedPoint{ID: id, Payload: p.payload},
			Score:          score,
		})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if uint64(len(hits)) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeEngine) Scroll(ctx context.Context, collection string, filter *qdrant.Filter, limit uint32, offset *uint64, withVectors bool) ([]*qdrant.RetrievedPoint, *uint64, error) {
	if err := f.enter("Scroll"); err != nil {
		return nil, nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return nil, nil, nil
	}
	var ids []uint64
	for id, p := range c.points {
		if matchesFilter(p.payload, filter) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if offset != nil {
		for len(ids) > 0 && ids[0] < *offset {
			ids = ids[1:]
		}
	}
	var next *uint64
	if uint32(len(ids)) > limit {
		n := ids[limit]
		next = &n
		ids = ids[:limit]
	}
	out := make([]*qdrant.RetrievedPoint, 0, len(ids))
	for _, id := range ids {
		p := c.points[id]
		rp := &qdrant.RetrievedPoint{ID: id, Payload: p.payload}
		if withVectors {
			rp.Vector = p.vector
		}
		out = append(out, rp)
	}
	return out, next, nil
}

func (f *fakeEngine) SetPayload(ctx context.Context, collection string, filter *qdrant.Filter, payload map[string]any) error {
	if err := f.enter("SetPayload"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return errNoCollection
	}
	for id, p := range c.points {
		if !matchesFilter(p.payload, filter) {
			continue
		}
		merged := make(map[string]any, len(p.payload)+len(payload))
		for k, v := range p.payload {
			merged[k] = v
		}
		for k, v := range payload {
			merged[k] = v
		}
		c.points[id] = fakePoint{vector: p.vector, payload: merged}
	}
	return nil
}

func (f *fakeEngine) CollectionInfo(ctx context.Context, collection string) (*qdrant.CollectionInfo, error) {
	if err := f.enter("CollectionInfo"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.collections[collection]
	if !ok {
		return nil, errNoCollection
	}
	return &qdrant.CollectionInfo{Status: "green", PointCount: uint64(len(c.points))}, nil
}

func (f *fakeEngine) Health(ctx context.Context) error {
	return f.enter("Health")
}

func (f *fakeEngine) Close() error { return nil }

func matchesFilter(payload map[string]any, filter *qdrant.Filter) bool {
	if filter == nil {
		return true
	}
	for _, cond := range filter.Must {
		if payload[cond.Field] != cond.Match {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
