package async

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"prefstore/internal/logging"

	"github.com/VictoriaMetrics/metrics"
)

var ErrClosed = errors.New("dispatcher is closed")

var logger = logging.For("async")

// failureBuffer is how many failed tasks may wait for the reporter before
// their goroutines block.
const failureBuffer = 64

type failure struct {
	op  string
	err error
}

// Dispatcher runs fire-and-forget tasks. Each task gets its own goroutine,
// so tasks run concurrently and in no particular order. Task errors and
// panics go through a channel to a single reporter goroutine that logs
// them; a failing task never affects any other task.
type Dispatcher struct {
	name     string
	failures chan failure
	done     chan struct{}

	mu      sync.Mutex
	idle    *sync.Cond // broadcast when pending drops to zero
	pending int
	closed  bool

	set       *metrics.Set
	submitted *metrics.Counter
	completed *metrics.Counter
	failed    *metrics.Counter
}

// NewDispatcher starts a dispatcher. name labels its log lines and metrics.
func NewDispatcher(name string) *Dispatcher {
	set := metrics.NewSet()
	d := &Dispatcher{
		name:      name,
		failures:  make(chan failure, failureBuffer),
		done:      make(chan struct{}),
		set:       set,
		submitted: set.NewCounter(fmt.Sprintf(`prefstore_async_tasks_submitted_total{dispatcher=%q}`, name)),
		completed: set.NewCounter(fmt.Sprintf(`prefstore_async_tasks_completed_total{dispatcher=%q}`, name)),
		failed:    set.NewCounter(fmt.Sprintf(`prefstore_async_tasks_failed_total{dispatcher=%q}`, name)),
	}
	d.idle = sync.NewCond(&d.mu)
	go d.report()
	return d
}

// Go schedules fn and returns immediately. op names the task in logs.
func (d *Dispatcher) Go(op string, fn func() error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.pending++
	d.mu.Unlock()

	d.submitted.Inc()
	go func() {
		if err := run(fn); err != nil {
			d.failures <- failure{op: op, err: err}
			return
		}
		d.completed.Inc()
		d.finish()
	}()
	return nil
}

// Wait blocks until no task is pending and any failure has been reported.
// Tasks scheduled while Wait is blocked are waited for too. It is safe to
// call Wait from several goroutines while others call Go.
func (d *Dispatcher) Wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.pending > 0 {
		d.idle.Wait()
	}
}

// Close waits for pending tasks and stops the reporter. Go fails after
// Close.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for d.pending > 0 {
		d.idle.Wait()
	}
	d.mu.Unlock()
	close(d.failures)
	<-d.done
}

func (d *Dispatcher) finish() {
	d.mu.Lock()
	d.pending--
	if d.pending == 0 {
		d.idle.Broadcast()
	}
	d.mu.Unlock()
}

func (d *Dispatcher) Submitted() uint64 { return d.submitted.Get() }
func (d *Dispatcher) Completed() uint64 { return d.completed.Get() }
func (d *Dispatcher) Failed() uint64    { return d.failed.Get() }

// WritePrometheus writes the dispatcher counters in Prometheus text format.
func (d *Dispatcher) WritePrometheus(w io.Writer) {
	d.set.WritePrometheus(w)
}

func (d *Dispatcher) report() {
	defer close(d.done)
	for f := range d.failures {
		logger.Error("async operation failed", "dispatcher", d.name, "op", f.op, "err", f.err)
		d.failed.Inc()
		d.finish()
	}
}

func run(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
