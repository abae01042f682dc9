package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by [Pool.Execute] once [Pool.Shutdown] has begun.
	ErrClosed = errors.New("pool is shut down")

	// ErrQueueFull is returned by [Pool.Execute] when a queue limit is
	// configured and that many jobs are already waiting.
	ErrQueueFull = errors.New("job queue is full")
)

// Job is a unit of work executed exactly once by exactly one worker.
type Job func()

type messageKind int

const (
	newJob messageKind = iota
	terminate
)

// message is the only type carried by the queue. A terminate message is
// consumed by exactly one worker.
type message struct {
	kind messageKind
	job  Job
}

// Option configures a [Pool] during construction.
type Option func(*Pool)

// WithQueueLimit bounds the number of jobs waiting for a worker.
// Zero, the default, leaves the queue unbounded.
func WithQueueLimit(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithLogger sets the logger used for worker lifecycle and recovered panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Pool runs jobs on a fixed set of worker goroutines.
//
// The queue supports any number of concurrent callers of [Pool.Execute],
// although tinyweb only ever has one (the accept loop). Every message is
// delivered to exactly one worker, in FIFO order. Completion order across
// workers is not defined.
type Pool struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []message
	pending int // newJob messages currently in queue
	limit   int
	closed  bool

	size   int
	wg     sync.WaitGroup
	logger *slog.Logger
	panics atomic.Uint64

	shutdownOnce sync.Once
}

type worker struct {
	id   int
	pool *Pool
}

// New creates a [Pool] and starts size workers immediately.
//
// New panics if size is less than 1; a pool without workers would accept
// jobs it can never run.
func New(size int, opts ...Option) *Pool {
	if size < 1 {
		panic(fmt.Sprintf("pool: size must be at least 1, got %d", size))
	}

	p := &Pool{
		size:   size,
		logger: slog.Default(),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}

	for id := range size {
		w := &worker{id: id, pool: p}
		p.wg.Add(1)
		go w.run()
	}

	return p
}

// Execute enqueues job for a future worker and returns immediately.
//
// Returns [ErrClosed] after [Pool.Shutdown] has been called and
// [ErrQueueFull] when the configured queue limit is reached. With the
// default unbounded queue, Execute always succeeds while the pool is open.
func (p *Pool) Execute(job Job) error {
	if job == nil {
		return errors.New("pool: nil job")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.limit > 0 && p.pending >= p.limit {
		return ErrQueueFull
	}

	p.push(message{kind: newJob, job: job})
	p.pending++
	return nil
}

// Shutdown sends one terminate message per worker and waits for every
// worker to exit.
//
// Jobs accepted by Execute before Shutdown was called sit ahead of the
// terminate messages in the queue, so they all run before Shutdown
// returns. Shutdown is idempotent and safe to call concurrently.
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		pending := p.pending
		for range p.size {
			p.push(message{kind: terminate})
		}
		p.mu.Unlock()

		p.logger.Info("worker pool shutting down",
			"workers", p.size,
			"pending_jobs", pending,
		)
	})

	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Pending returns the number of jobs waiting for a worker.
func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Panics returns how many jobs have panicked since the pool started.
func (p *Pool) Panics() uint64 {
	return p.panics.Load()
}

// push appends m and wakes one waiting worker. Caller holds p.mu.
func (p *Pool) push(m message) {
	p.queue = append(p.queue, m)
	p.cond.Signal()
}

// receive blocks until a message is available and removes it from the queue.
func (p *Pool) receive() message {
	p.mu.Lock()
	defer p.mu.Unlock()

	for len(p.queue) == 0 {
		p.cond.Wait()
	}

	m := p.queue[0]
	p.queue[0] = message{} // release the job closure
	p.queue = p.queue[1:]
	if m.kind == newJob {
		p.pending--
	}
	return m
}

func (w *worker) run() {
	defer w.pool.wg.Done()

	for {
		m := w.pool.receive()
		switch m.kind {
		case newJob:
			w.pool.logger.Debug("worker got a job", "worker", w.id)
			w.pool.runSafe(w.id, m.job)
		case terminate:
			w.pool.logger.Debug("worker terminating", "worker", w.id)
			return
		}
	}
}

// runSafe runs job with panic recovery.
// A panic is logged with a correlation ID and the full stack trace, and the
// worker goes back to the queue instead of dying with the job.
func (p *Pool) runSafe(workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.panics.Add(1)
			p.logger.Error("job panicked",
				"worker", workerID,
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	job()
}
