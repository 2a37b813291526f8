// Copyright © 2018 The ELPS authors

package lisp

import (
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// Task is a function call running on its own thread.
type Task struct {
	done  chan struct{}
	value Value
	err   error
}

func (task *Task) String() string {
	return "#<task>"
}

// Wait blocks until the task finishes and returns its result.
func (task *Task) Wait() (Value, error) {
	<-task.done
	return task.value, task.err
}

// StartTask calls fn on a thread spawned from t.  The call runs on a new
// goroutine.
func (t *Thread) StartTask(fn Value) *Task {
	child := t.Spawn()
	task := &Task{done: make(chan struct{})}
	t.Runtime.runtimeLog.Debugf("task started")
	go func() {
		defer close(task.done)
		task.value, task.err = child.spawnedCall(fn, nil)
		t.Runtime.runtimeLog.Debugf("task finished")
	}()
	return task
}

// spawnedCall calls fn as the entrypoint of a spawned thread.  Panics and
// escaped control signals are converted to errors.
func (t *Thread) spawnedCall(fn Value, args []Value) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = nil, t.Errorf(nil, CondPanic, "%v", r)
		}
	}()
	v, err = t.Apply(fn, args, nil)
	if err != nil {
		return nil, t.escapedSignal(err, nil)
	}
	return v, nil
}

func builtinTask(t *Thread, fn Value) *Task {
	return t.StartTask(fn)
}

func builtinAwait(t *Thread, task *Task) (Value, error) {
	ctx := t.Runtime.Context
	select {
	case <-task.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return task.Wait()
}

type genItem struct {
	value Value
	err   error
	end   bool
}

// Generator produces values yielded by a function running on its own
// thread.  The function starts when the first value is requested and each
// yield blocks until the consumer takes the value.
//
// A consumer that stops requesting values leaves the producing goroutine
// blocked for the life of the process.
type Generator struct {
	mut     sync.Mutex
	fn      Value
	thread  *Thread
	items   chan genItem
	started bool
	done    bool
	peeked  *genItem
}

// NewGenerator returns a generator for fn on a thread spawned from t.
func (t *Thread) NewGenerator(fn Value) *Generator {
	g := &Generator{
		fn:     fn,
		thread: t.Spawn(),
		items:  make(chan genItem),
	}
	g.thread.gen = g
	return g
}

func (g *Generator) String() string {
	return "#<generator>"
}

func (g *Generator) start() {
	if g.started {
		return
	}
	g.started = true
	log := g.thread.Runtime.runtimeLog
	log.Debugf("generator started")
	go func() {
		_, err := g.thread.spawnedCall(g.fn, nil)
		g.items <- genItem{err: err, end: true}
		log.Debugf("generator finished")
	}()
}

// next returns the next item.  The caller must hold g.mut.
func (g *Generator) next() genItem {
	if g.peeked != nil {
		item := *g.peeked
		g.peeked = nil
		return item
	}
	if g.done {
		return genItem{end: true}
	}
	g.start()
	return <-g.items
}

// Resume returns the next value of g.  When g has no more values the error
// has condition generator-exhausted.  An error raised by the generator
// function is returned once.
func (g *Generator) Resume(t *Thread) (Value, error) {
	g.mut.Lock()
	defer g.mut.Unlock()
	item := g.next()
	if item.end {
		g.done = true
		if item.err != nil {
			return nil, item.err
		}
		return nil, t.Errorf(nil, CondGeneratorExhausted, "generator has no more values")
	}
	return item.value, nil
}

// Done returns true if g has no more values.  Done blocks until the
// generator yields its next value or finishes.
func (g *Generator) Done() bool {
	g.mut.Lock()
	defer g.mut.Unlock()
	if g.done {
		return true
	}
	if g.peeked == nil {
		item := g.next()
		g.peeked = &item
	}
	return g.peeked.end && g.peeked.err == nil
}

func builtinGenerator(t *Thread, fn Value) *Generator {
	return t.NewGenerator(fn)
}

func builtinYield(t *Thread, v Value) error {
	if t.gen == nil {
		return t.Errorf(nil, CondControlError, "yield outside of a generator")
	}
	ctx := t.Runtime.Context
	select {
	case t.gen.items <- genItem{value: v}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func builtinResume(t *Thread, g *Generator) (Value, error) {
	return g.Resume(t)
}

func builtinGeneratorDone(g *Generator) bool {
	return g.Done()
}

// parallel calls fn on each item on spawned threads, at most
// Runtime.Parallelism at a time.  Results are in the order of items.  If
// calls fail the error of the lowest index is returned.
func (t *Thread) parallel(fn Value, items []Value) ([]Value, error) {
	results := make([]Value, len(items))
	errs := make([]error, len(items))
	p := pool.New().WithMaxGoroutines(t.Runtime.Parallelism)
	t.Runtime.runtimeLog.Debugf("parallel call over %d items", len(items))
	for i, x := range items {
		i, x := i, x
		child := t.Spawn()
		p.Go(func() {
			results[i], errs[i] = child.spawnedCall(fn, []Value{x})
		})
	}
	p.Wait()
	for i, err := range errs {
		if err != nil {
			t.Runtime.runtimeLog.Debugf("parallel call %d failed: %v", i, err)
			return nil, err
		}
	}
	return results, nil
}

func builtinParallelMap(t *Thread, fn Value, seq Value) (Value, error) {
	items, err := t.Items(seq)
	if err != nil {
		return nil, err
	}
	results, err := t.parallel(fn, items)
	if err != nil {
		return nil, err
	}
	return sameKind(seq, results), nil
}

func builtinParallelEach(t *Thread, fn Value, seq Value) error {
	items, err := t.Items(seq)
	if err != nil {
		return err
	}
	_, err = t.parallel(fn, items)
	return err
}
