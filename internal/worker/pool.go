package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"bank-office/internal/utils"
)

var (
	ErrQueueFull       = errors.New("worker queue is full")
	ErrShutdownTimeout = errors.New("worker pool shutdown timed out")
)

// Job is a unit of async work. Jobs carry side effects that must never run
// inside a database transaction: notification dispatch, cache invalidation.
type Job struct {
	ID      string
	Task    func() error
	RetryOn func(error) bool // nil retries every failure
	OnDone  func(error)
}

// Pool is a fixed-size worker pool with a bounded queue and per-job retries.
type Pool struct {
	workers    int
	maxRetries int
	jobQueue   chan Job
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup

	mu    sync.Mutex
	stats Stats
}

type Stats struct {
	TotalJobs     int64
	CompletedJobs int64
	FailedJobs    int64
	ActiveWorkers int
	QueuedJobs    int
}

func New(workers, queueSize, maxRetries int) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &Pool{
		workers:    workers,
		maxRetries: maxRetries,
		jobQueue:   make(chan Job, queueSize),
		ctx:        ctx,
		cancel:     cancel,
		stats:      Stats{ActiveWorkers: workers},
	}

	utils.LogInfo("WorkerPool", "pool created: %d workers, queue %d, max retries %d", workers, queueSize, maxRetries)
	return pool
}

func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	utils.LogSuccess("WorkerPool", "all %d workers started", p.workers)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.executeJob(id, job)
		}
	}
}

func (p *Pool) executeJob(workerID int, job Job) {
	startTime := time.Now()
	var err error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			utils.LogWarning("WorkerPool", "worker #%d: retry #%d for job %s", workerID, attempt, job.ID)
			time.Sleep(time.Millisecond * time.Duration(100*attempt))
		}

		err = job.Task()
		if err == nil {
			p.mu.Lock()
			p.stats.CompletedJobs++
			p.mu.Unlock()

			utils.LogDebug("WorkerPool", "worker #%d: job %s done in %v", workerID, job.ID, time.Since(startTime))
			if job.OnDone != nil {
				job.OnDone(nil)
			}
			return
		}

		if job.RetryOn != nil && !job.RetryOn(err) {
			break
		}
	}

	p.mu.Lock()
	p.stats.FailedJobs++
	p.mu.Unlock()

	utils.LogError("WorkerPool", fmt.Sprintf("worker #%d: job %s failed after %v", workerID, job.ID, time.Since(startTime)), err)
	if job.OnDone != nil {
		job.OnDone(err)
	}
}

// Submit enqueues a job without blocking; callers fall back to running the
// task synchronously when the queue is full.
func (p *Pool) Submit(job Job) error {
	select {
	case <-p.ctx.Done():
		return context.Canceled
	case p.jobQueue <- job:
		p.mu.Lock()
		p.stats.TotalJobs++
		p.mu.Unlock()
		return nil
	default:
		utils.LogWarning("WorkerPool", "queue full, job %s rejected", job.ID)
		return ErrQueueFull
	}
}

// SubmitBlocking enqueues a job, waiting for queue space.
func (p *Pool) SubmitBlocking(job Job) error {
	select {
	case <-p.ctx.Done():
		return context.Canceled
	case p.jobQueue <- job:
		p.mu.Lock()
		p.stats.TotalJobs++
		p.mu.Unlock()
		return nil
	}
}

// Shutdown stops accepting jobs and waits for in-flight work up to timeout.
func (p *Pool) Shutdown(timeout time.Duration) error {
	close(p.jobQueue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		utils.LogSuccess("WorkerPool", "all workers drained")
		return nil
	case <-time.After(timeout):
		p.cancel()
		utils.LogWarning("WorkerPool", "shutdown timeout exceeded, cancelling workers")
		return ErrShutdownTimeout
	}
}

func (p *Pool) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := p.stats
	stats.QueuedJobs = len(p.jobQueue)
	return stats
}
