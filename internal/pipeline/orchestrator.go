package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/config"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/extract"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/metasink"
	"github.com/legacylogicpro/Legacy-Logic-Pro/internal/session"
)

// cleanupInterval is how often expired jobs and idle sessions are swept.
const cleanupInterval = 5 * time.Minute

// Orchestrator manages the document extraction pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	cascade  *extract.Cascade
	meta     *metasink.Client
	sessions *session.Manager
	log      *slog.Logger
	cfg      config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch workers.
func NewOrchestrator(cfg config.Config, cascade *extract.Cascade, meta *metasink.Client, sessions *session.Manager, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		cascade:  cascade,
		meta:     meta,
		sessions: sessions,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines and the registry sweeper.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for i := 0; i < o.cfg.WorkerCount; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.cascade, o.meta, o.log)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					jobCtx, done := context.WithTimeout(workerCtx, o.cfg.ProcessTimeout)
					job.SetCancel(done)
					w.Process(jobCtx, job)
					job.SetCancel(nil)
					done()
				}
			}
		}()
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
				o.sessions.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// CancelJob cancels a queued or running job. Returns false if the job is
// unknown.
func (o *Orchestrator) CancelJob(id string) bool {
	job := o.jobs.Get(id)
	if job == nil {
		return false
	}
	job.Cancel()
	return true
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
