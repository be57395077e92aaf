package memory

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/agentperf/agentperf/pkg/utils"
)

// PrefetchConfig controls batch size and load rate of the prefetcher.
type PrefetchConfig struct {
	// MaxItems bounds how many queued requests a single Flush processes.
	MaxItems int `yaml:"max_items"`

	// Rate is the maximum number of store loads per second.
	Rate float64 `yaml:"rate"`

	// Burst is the rate limiter burst size. Zero means MaxItems.
	Burst int `yaml:"burst"`
}

// DefaultPrefetchConfig returns the default prefetcher configuration.
func DefaultPrefetchConfig() *PrefetchConfig {
	return &PrefetchConfig{
		MaxItems: 10,
		Rate:     50,
		Burst:    10,
	}
}

type prefetchRequest struct {
	kind string
	id   string
}

// PrefetchManager accumulates (kind, id) requests and warms the cache in
// rate-limited batches. Prefetching is an optimization: individual load
// failures are logged at debug level and never returned to the caller.
type PrefetchManager struct {
	mu      sync.Mutex
	queue   []prefetchRequest
	queued  map[prefetchRequest]bool
	manager *Manager
	limiter *rate.Limiter
	config  *PrefetchConfig
	logger  *utils.Logger
}

// NewPrefetchManager creates a prefetcher over the given memory manager.
// A nil config uses defaults.
func NewPrefetchManager(manager *Manager, config *PrefetchConfig, logger *utils.Logger) *PrefetchManager {
	if config == nil {
		config = DefaultPrefetchConfig()
	}
	if config.MaxItems <= 0 {
		config.MaxItems = DefaultPrefetchConfig().MaxItems
	}
	if config.Rate <= 0 {
		config.Rate = DefaultPrefetchConfig().Rate
	}
	burst := config.Burst
	if burst <= 0 {
		burst = config.MaxItems
	}

	return &PrefetchManager{
		queued:  make(map[prefetchRequest]bool),
		manager: manager,
		limiter: rate.NewLimiter(rate.Limit(config.Rate), burst),
		config:  config,
		logger:  utils.OrDiscard(logger).WithComponent("prefetch"),
	}
}

// Queue adds one prefetch request. Duplicate requests still in the queue
// are ignored.
func (p *PrefetchManager) Queue(kind, id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req := prefetchRequest{kind: kind, id: id}
	if p.queued[req] {
		return
	}
	p.queued[req] = true
	p.queue = append(p.queue, req)
}

// QueueMany adds one request per id for the given kind.
func (p *PrefetchManager) QueueMany(kind string, ids []string) {
	for _, id := range ids {
		p.Queue(kind, id)
	}
}

// Pending returns the number of queued requests.
func (p *PrefetchManager) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Flush processes up to MaxItems queued requests and returns how many
// loaded successfully. Failed loads are dropped from the queue; a
// cancelled context stops the flush and requeues the remainder.
func (p *PrefetchManager) Flush(ctx context.Context) int {
	batch := p.takeBatch()
	if len(batch) == 0 {
		return 0
	}

	loaded := 0
	for i, req := range batch {
		if err := p.limiter.Wait(ctx); err != nil {
			p.requeue(batch[i:])
			return loaded
		}

		if _, err := p.manager.Get(ctx, req.kind, req.id); err != nil {
			p.logger.Debug("prefetch %s/%s failed: %v", req.kind, req.id, err)
			continue
		}
		loaded++
	}

	p.logger.Debug("prefetched %d/%d records", loaded, len(batch))
	return loaded
}

func (p *PrefetchManager) takeBatch() []prefetchRequest {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.queue)
	if n > p.config.MaxItems {
		n = p.config.MaxItems
	}

	batch := p.queue[:n]
	p.queue = append([]prefetchRequest(nil), p.queue[n:]...)
	for _, req := range batch {
		delete(p.queued, req)
	}
	return batch
}

func (p *PrefetchManager) requeue(reqs []prefetchRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, req := range reqs {
		if p.queued[req] {
			continue
		}
		p.queued[req] = true
		p.queue = append(p.queue, req)
	}
}
