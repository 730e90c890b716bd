package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Job is a unit of work submitted to the pool.
type Job func(ctx context.Context) error

// WorkingPool runs submitted jobs on a fixed set of workers. Billing runs go
// through here so a slow bulk pass never blocks the scheduler tick.
type WorkingPool struct {
	NumWorkers int
	jobChan    chan Job
}

func NewWorkingPool(numWorkers int, queueSize int) *WorkingPool {
	return &WorkingPool{
		NumWorkers: numWorkers,
		jobChan:    make(chan Job, queueSize),
	}
}

// SubmitJob enqueues the job, reporting false once ctx is done. The job
// channel is never closed, so a submit racing shutdown is dropped rather
// than panicking.
func (p *WorkingPool) SubmitJob(ctx context.Context, job Job) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case <-ctx.Done():
		return false
	case p.jobChan <- job:
		return true
	}
}

func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup

	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()

	slog.Info("Working pool shutdown signaled, waiting for workers")
	workerWg.Wait()
	slog.Info("All workers stopped")
}

func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()

	for {
		select {
		case job := <-p.jobChan:
			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			// Exit immediately; queued jobs are abandoned.
			return
		}
	}
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in worker job", "worker_id", workerID, "panic", r)
		}
	}()

	if err := job(ctx); err != nil {
		slog.Error("worker job failed", "worker_id", workerID, "error", err)
	}
}
