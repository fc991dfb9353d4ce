package rmq

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"image_compression/entity"
	"image_compression/pkg/logger"
)

const pollInterval = 100 * time.Millisecond

type job struct {
	resp      entity.CompressionResponse
	updatedAt time.Time
}

// JobClient correlates published compression requests with the worker's
// replies. Entries not touched for ttl are evicted by Run.
type JobClient struct {
	l    logger.Interface
	ttl  time.Duration
	now  func() time.Time
	jobs map[string]*job
	mu   sync.Mutex
}

func NewJobClient(ttl time.Duration, l logger.Interface) *JobClient {
	return &JobClient{l: l, ttl: ttl, now: time.Now, jobs: make(map[string]*job)}
}

// GetOrCreateJob returns the id of a pending job for the same object and
// budget, or registers a new one. The bool is true for an existing job.
func (jc *JobClient) GetOrCreateJob(req entity.CompressionRequest) (string, bool) {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	for id, j := range jc.jobs {
		r := j.resp
		if !r.Finished() && r.Bucket == req.Bucket && r.Key == req.Key && r.MaxSizeBytes == req.MaxSizeBytes {
			return id, true
		}
	}

	id := req.JobID
	if id == "" {
		id = uuid.NewString()
	}
	jc.jobs[id] = &job{
		resp: entity.CompressionResponse{
			JobID:        id,
			Bucket:       req.Bucket,
			Key:          req.Key,
			MaxSizeBytes: req.MaxSizeBytes,
			Status:       entity.StatusPending,
		},
		updatedAt: jc.now(),
	}

	return id, false
}

// SetResponse stores the worker's reply; replies for unknown ids are dropped.
func (jc *JobClient) SetResponse(corrID string, res entity.CompressionResponse) bool {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	j, ok := jc.jobs[corrID]
	if !ok {
		return false
	}
	res.JobID = corrID
	j.resp = res
	j.updatedAt = jc.now()
	return true
}

func (jc *JobClient) Forget(corrID string) {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	delete(jc.jobs, corrID)
}

func (jc *JobClient) lookup(corrID string) (entity.CompressionResponse, bool) {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	j, ok := jc.jobs[corrID]
	if !ok {
		return entity.CompressionResponse{}, false
	}
	return j.resp, true
}

// GetResponse polls for the reply to corrID for at most wait. A job still
// pending when wait elapses is returned with StatusPending.
func (jc *JobClient) GetResponse(ctx context.Context, corrID string, wait time.Duration) (entity.CompressionResponse, error) {
	res, ok := jc.lookup(corrID)
	if !ok {
		return entity.CompressionResponse{}, entity.ErrJobNotFound
	}
	if res.Finished() || wait <= 0 {
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return res, nil
		case <-ticker.C:
			res, ok = jc.lookup(corrID)
			if !ok {
				return entity.CompressionResponse{}, entity.ErrJobNotFound
			}
			if res.Finished() {
				return res, nil
			}
		}
	}
}

// Evict drops entries last updated before now-ttl and returns how many.
func (jc *JobClient) Evict(now time.Time) int {
	jc.mu.Lock()
	defer jc.mu.Unlock()

	evicted := 0
	for id, j := range jc.jobs {
		if now.Sub(j.updatedAt) > jc.ttl {
			delete(jc.jobs, id)
			evicted++
		}
	}
	return evicted
}

func (jc *JobClient) Len() int {
	jc.mu.Lock()
	defer jc.mu.Unlock()
	return len(jc.jobs)
}

// Run evicts expired entries every ttl/2 until ctx is done.
func (jc *JobClient) Run(ctx context.Context) {
	interval := jc.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := jc.Evict(jc.now()); n > 0 {
				jc.l.Debug("job client - evicted %d jobs", n)
			}
		}
	}
}
