// Package async spreads batches of small CPU tasks over several frames.
package async

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/bluebear/internal/logger"
)

// DefaultAmountPerFrame is the number of task items Update runs per call.
const DefaultAmountPerFrame = 3000

// Task is one unit of deferred work.
type Task func() error

type batch struct {
	tasks      []Task
	next       int
	onComplete func()
}

func (b *batch) done() bool {
	return b.next >= len(b.tasks)
}

// Table queues task batches and drains a bounded number of items per
// Update. Enqueue may be called from any goroutine; Update must be called
// from the main loop only.
type Table struct {
	mu             sync.Mutex
	batches        []*batch
	amountPerFrame int
	log            *zap.Logger
}

// NewTable creates a table that runs at most amountPerFrame items per
// Update. Non-positive values select DefaultAmountPerFrame.
func NewTable(amountPerFrame int) *Table {
	t := &Table{log: logger.Named("async")}
	t.SetAmountPerFrame(amountPerFrame)
	return t
}

// SetAmountPerFrame changes the per-Update budget.
func (t *Table) SetAmountPerFrame(n int) {
	if n <= 0 {
		n = DefaultAmountPerFrame
	}
	t.mu.Lock()
	t.amountPerFrame = n
	t.mu.Unlock()
}

// Enqueue appends a batch. Nothing runs until the next Update. onComplete
// may be nil.
func (t *Table) Enqueue(tasks []Task, onComplete func()) {
	b := &batch{
		tasks:      append([]Task(nil), tasks...),
		onComplete: onComplete,
	}
	t.mu.Lock()
	t.batches = append(t.batches, b)
	t.mu.Unlock()
}

// Pending returns the number of task items not yet run.
func (t *Table) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, b := range t.batches {
		n += len(b.tasks) - b.next
	}
	return n
}

// Update runs up to the per-frame budget of items in submission order.
// A batch's callback fires right after its last item, on this goroutine.
// The lock is not held while tasks or callbacks run, so either may
// enqueue more work.
func (t *Table) Update() {
	t.mu.Lock()
	budget := t.amountPerFrame
	t.mu.Unlock()

	for {
		t.mu.Lock()
		if len(t.batches) == 0 {
			t.mu.Unlock()
			return
		}
		b := t.batches[0]
		if b.done() {
			t.batches[0] = nil
			t.batches = t.batches[1:]
			t.mu.Unlock()
			if b.onComplete != nil {
				b.onComplete()
			}
			continue
		}
		if budget == 0 {
			t.mu.Unlock()
			return
		}
		task := b.tasks[b.next]
		b.tasks[b.next] = nil
		b.next++
		t.mu.Unlock()

		t.run(task)
		budget--
	}
}

func (t *Table) run(task Task) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Warn("async task panicked", zap.String("panic", fmt.Sprint(r)))
		}
	}()
	if err := task(); err != nil {
		t.log.Warn("async task failed", zap.Error(err))
	}
}
