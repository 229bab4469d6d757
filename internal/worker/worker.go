package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/nexconsult/fssp-api/internal/models"
	"github.com/nexconsult/fssp-api/internal/services"
)

// ErrPoolStopped is returned for jobs submitted after Stop
var ErrPoolStopped = errors.New("worker pool stopped")

// WorkerPool runs batch searches on a fixed number of workers
type WorkerPool struct {
	workers  []*Worker
	jobQueue chan *Job
	service  services.FSSPServiceInterface
	logger   *logrus.Logger

	stats WorkerPoolStats

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	stopped bool
}

// WorkerPoolStats holds pool counters
type WorkerPoolStats struct {
	TotalJobs     int64     `json:"total_jobs"`
	CompletedJobs int64     `json:"completed_jobs"`
	FailedJobs    int64     `json:"failed_jobs"`
	ActiveWorkers int32     `json:"active_workers"`
	Workers       int       `json:"workers"`
	QueueSize     int       `json:"queue_size"`
	StartTime     time.Time `json:"start_time"`
}

// Job is one query waiting for a worker
type Job struct {
	ID       string
	Index    int
	Query    models.Query
	Created  time.Time
	Started  time.Time
	Finished time.Time

	ctx    context.Context
	result chan models.BatchItemResult
}

// Worker represents a single worker goroutine
type Worker struct {
	ID            int
	pool          *WorkerPool
	jobsProcessed int64
}

// NewWorkerPool creates a pool of workerCount workers over service
func NewWorkerPool(workerCount, queueSize int, service services.FSSPServiceInterface, logger *logrus.Logger) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPool{
		workers:  make([]*Worker, workerCount),
		jobQueue: make(chan *Job, queueSize),
		service:  service,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		stats: WorkerPoolStats{
			Workers:   workerCount,
			StartTime: time.Now(),
		},
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = &Worker{ID: i, pool: pool}
	}

	return pool
}

// Start launches the workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.start()
	}

	wp.logger.WithField("workers", len(wp.workers)).Info("Worker pool started")
}

// Stop stops the workers and waits for running jobs to finish.
// Jobs still queued fail with ErrPoolStopped.
func (wp *WorkerPool) Stop() {
	wp.cancel()

	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	wp.mu.Unlock()

	wp.logger.Info("Stopping worker pool...")
	wp.wg.Wait()

	for {
		select {
		case job := <-wp.jobQueue:
			job.result <- failedResult(job, ErrPoolStopped)
		default:
			wp.logger.Info("Worker pool stopped")
			return
		}
	}
}

// ProcessBatch runs all queries and returns their outcomes in request order
func (wp *WorkerPool) ProcessBatch(ctx context.Context, queries []models.Query) models.BatchResponse {
	start := time.Now()

	jobs := make([]*Job, len(queries))
	for i, query := range queries {
		jobs[i] = &Job{
			ID:      uuid.New().String(),
			Index:   i,
			Query:   query,
			Created: time.Now(),
			ctx:     ctx,
			result:  make(chan models.BatchItemResult, 1),
		}
	}

	for _, job := range jobs {
		if err := wp.submit(ctx, job); err != nil {
			job.result <- failedResult(job, err)
		}
	}

	results := make([]models.BatchItemResult, len(jobs))
	stats := models.BatchStats{Total: len(jobs), StartTime: start}

	for i, job := range jobs {
		results[i] = <-job.result
		switch results[i].Status {
		case statusCached:
			stats.Cached++
			stats.Success++
		case statusSuccess:
			stats.Success++
		default:
			stats.Errors++
		}
	}

	stats.EndTime = time.Now()
	stats.DurationMs = stats.EndTime.Sub(start).Milliseconds()

	return models.BatchResponse{Results: results, Stats: stats}
}

func (wp *WorkerPool) submit(ctx context.Context, job *Job) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.jobQueue <- job:
		atomic.AddInt64(&wp.stats.TotalJobs, 1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return ErrPoolStopped
	}
}

// GetStats returns a snapshot of pool statistics
func (wp *WorkerPool) GetStats() WorkerPoolStats {
	return WorkerPoolStats{
		TotalJobs:     atomic.LoadInt64(&wp.stats.TotalJobs),
		CompletedJobs: atomic.LoadInt64(&wp.stats.CompletedJobs),
		FailedJobs:    atomic.LoadInt64(&wp.stats.FailedJobs),
		ActiveWorkers: atomic.LoadInt32(&wp.stats.ActiveWorkers),
		Workers:       len(wp.workers),
		QueueSize:     len(wp.jobQueue),
		StartTime:     wp.stats.StartTime,
	}
}

// start runs the worker loop
func (w *Worker) start() {
	defer w.pool.wg.Done()

	w.pool.logger.WithField("worker_id", w.ID).Debug("Worker started")

	for {
		select {
		case job := <-w.pool.jobQueue:
			w.processJob(job)
		case <-w.pool.ctx.Done():
			w.pool.logger.WithField("worker_id", w.ID).Debug("Worker stopped")
			return
		}
	}
}

// processJob runs one search
func (w *Worker) processJob(job *Job) {
	atomic.AddInt32(&w.pool.stats.ActiveWorkers, 1)
	defer func() {
		atomic.AddInt32(&w.pool.stats.ActiveWorkers, -1)
		atomic.AddInt64(&w.jobsProcessed, 1)
	}()

	job.Started = time.Now()

	logger := w.pool.logger.WithFields(logrus.Fields{
		"worker_id": w.ID,
		"job_id":    job.ID,
		"query":     job.Query.Kind(),
	})
	logger.Debug("Processing job")

	// a job whose request went away is not searched at all
	err := job.ctx.Err()
	var found *models.SearchResult
	if err == nil {
		found, err = w.pool.service.Search(job.ctx, job.Query)
	}

	var result models.BatchItemResult
	if err != nil {
		result = failedResult(job, err)
	} else {
		result = models.BatchItemResult{
			Index:  job.Index,
			Query:  job.Query.Kind(),
			Status: statusSuccess,
			Count:  found.Count,
			Items:  found.Items,
		}
		if found.Cached {
			result.Status = statusCached
		}
	}

	job.Finished = time.Now()
	result.DurationMs = job.Finished.Sub(job.Started).Milliseconds()

	if err != nil {
		atomic.AddInt64(&w.pool.stats.FailedJobs, 1)
		logger.WithError(err).WithFields(logrus.Fields{
			"code":     result.Code,
			"duration": job.Finished.Sub(job.Started),
		}).Warn("Job failed")
	} else {
		atomic.AddInt64(&w.pool.stats.CompletedJobs, 1)
		logger.WithField("duration", job.Finished.Sub(job.Started)).Info("Job completed successfully")
	}

	job.result <- result
}

const (
	statusSuccess = "success"
	statusCached  = "cached"
	statusError   = "error"
)

// failedResult reports err without its cause chain
func failedResult(job *Job, err error) models.BatchItemResult {
	result := models.BatchItemResult{
		Index:  job.Index,
		Query:  job.Query.Kind(),
		Status: statusError,
		Code:   "INTERNAL_ERROR",
		Error:  models.UnexpectedErrorMessage,
	}

	kind, classified := models.KindOf(err)
	switch {
	case classified:
		result.Code = kind.Code()
		result.Error = models.PublicMessage(err)
	case errors.Is(err, ErrPoolStopped):
		result.Error = ErrPoolStopped.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result.Code = "REQUEST_CANCELLED"
		result.Error = "request ended before the lookup ran"
	}
	return result
}
