package foreign

import (
	"sync"
	"sync/atomic"

	"github.com/wippyai/ffi-bridge/errors"
	"go.uber.org/zap"
)

// Executor runs tasks on a fixed pool of worker goroutines fed by a bounded
// queue. Spawn never blocks: a full queue is reported as an error.
type Executor struct {
	tasks   chan func()
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	running atomic.Int64
}

func NewExecutor(workers, depth int) *Executor {
	if workers < 1 {
		workers = 1
	}
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	e := &Executor{tasks: make(chan func(), depth)}
	e.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go e.worker(i)
	}
	return e
}

func (e *Executor) worker(id int) {
	defer e.wg.Done()
	for task := range e.tasks {
		e.run(id, task)
	}
}

func (e *Executor) run(id int, task func()) {
	e.running.Add(1)
	defer e.running.Add(-1)
	defer func() {
		if r := recover(); r != nil {
			if trap, ok := errors.AsTrap(r); ok {
				Logger().Error("task trapped", zap.Int("worker", id), zap.Error(trap))
			} else {
				Logger().Error("task panicked", zap.Int("worker", id), zap.Any("panic", r))
			}
			panic(r)
		}
	}()
	task()
}

// Spawn queues task. It fails once the executor is closed or when the
// queue is full.
func (e *Executor) Spawn(task func()) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return errors.New(errors.PhaseAsync, errors.KindNotInitialized).
			Detail("executor closed").
			Build()
	}
	select {
	case e.tasks <- task:
		return nil
	default:
		Logger().Warn("task queue full", zap.Int("depth", cap(e.tasks)))
		return errors.New(errors.PhaseAsync, errors.KindAllocation).
			Value(cap(e.tasks)).
			Detail("task queue full").
			Build()
	}
}

// Pending returns queued plus running tasks.
func (e *Executor) Pending() int {
	return len(e.tasks) + int(e.running.Load())
}

// Close stops accepting tasks, drains the queue and waits for the workers.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()
	e.wg.Wait()
}
