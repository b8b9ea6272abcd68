package actions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/boelens/internal/config"
	"github.com/dgallion1/boelens/internal/document"
)

var (
	// ErrInFlight is returned when the same action on the same document is
	// already queued or running for the user.
	ErrInFlight = errors.New("action already in progress")
	// ErrQueueFull is returned when the job queue has no room.
	ErrQueueFull = errors.New("job queue is full")
	// ErrUnknownKind is returned for an action that does not exist.
	ErrUnknownKind = errors.New("unknown action")
)

// Backend performs document actions on the BOE backend.
type Backend interface {
	SaveDocument(ctx context.Context, userID, docID string) error
	ExportPDF(ctx context.Context, userID, docID string) ([]byte, error)
}

// Summarizer writes a summary of a document's text.
type Summarizer interface {
	Summarize(ctx context.Context, title, text string) (string, error)
}

// Orchestrator runs user actions on a pool of workers.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	backend Backend
	docs    document.Source
	llm     Summarizer
	log     *slog.Logger
	cfg     config.Config
	backoff func(int) time.Duration

	mu       sync.Mutex
	inFlight map[string]string // job key -> job id

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the orchestrator. llm may be nil, in which case
// summarize jobs fail.
func NewOrchestrator(cfg config.Config, be Backend, docs document.Source, llm Summarizer, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		backend:  be,
		docs:     docs,
		llm:      llm,
		log:      log,
		cfg:      cfg,
		backoff:  Backoff,
		inFlight: make(map[string]string),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.backend, o.docs, o.llm, o.log, o.backoff)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
					o.release(job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the workers.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues an action. A second submission of the same action on the
// same document by the same user fails with ErrInFlight until the first job
// finishes.
func (o *Orchestrator) Submit(kind Kind, userID, docID string) (*Job, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	job := newJob(uuid.NewString(), kind, userID, docID)

	o.mu.Lock()
	if id, busy := o.inFlight[job.key()]; busy {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: job %s", ErrInFlight, id)
	}
	o.inFlight[job.key()] = job.ID
	o.mu.Unlock()

	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return job, nil
	default:
		job.Fail("queue_full")
		o.release(job)
		return nil, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

func (o *Orchestrator) release(job *Job) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[job.key()] == job.ID {
		delete(o.inFlight, job.key())
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}
