package profiler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/luthersystems/kiln/lisp"
)

// errWriter wraps an io.Writer and captures the first write error,
// short-circuiting subsequent writes after a failure.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprint(ew.w, s)
}

// A profiler implementation that builds Callgrind files.  The resulting
// files can be opened in KCacheGrind or QCacheGrind.  Calls are recorded as
// a single call tree so concurrent tasks produce interleaved entries.
type callgrindProfiler struct {
	profiler
	writer     io.Writer
	writeErr   error
	startTime  time.Time
	refs       map[string]int
	refCounter int
	current    *callRef
}

var _ lisp.Profiler = &callgrindProfiler{}

// NewCallgrindProfiler returns a new Callgrind profiler attached to runtime.
func NewCallgrindProfiler(runtime *lisp.Runtime, opts ...Option) *callgrindProfiler {
	p := new(callgrindProfiler)
	p.runtime = runtime
	runtime.Profiler = p

	p.applyConfigs(opts...)
	return p
}

// Represents something that got called
type callRef struct {
	start       time.Time
	prev        *callRef
	name        string
	children    []*callRef
	duration    time.Duration
	startMemory uint64
	endMemory   uint64
	file        string
	line        int
}

func (p *callgrindProfiler) Enable() error {
	p.mut.Lock()
	if p.writer == nil {
		p.mut.Unlock()
		return errors.New("no output set in profiler")
	}
	w := &errWriter{w: p.writer}
	w.printf("version: 1\ncreator: kiln %s (Go %s)\n", lisp.Version, runtime.Version())
	w.printf("cmd: Eval\npart: 1\npositions: line\n\n")
	w.printf("events: Time_(ns) Memory_(bytes)\n\n")
	if w.err != nil {
		p.mut.Unlock()
		return w.err
	}
	p.startTime = time.Now()
	p.refs = make(map[string]int)
	p.refCounter = 0
	p.pushCallRef("ENTRYPOINT", "-", 0)
	p.mut.Unlock()
	return p.profiler.Enable()
}

// SetFile creates filename and writes the profile to it.
func (p *callgrindProfiler) SetFile(filename string) error {
	pointer, err := os.Create(filename) //#nosec G304
	if err != nil {
		return err
	}
	return p.SetWriter(pointer)
}

// SetWriter writes the profile to w.  If w is an io.Closer it is closed by
// Complete.
func (p *callgrindProfiler) SetWriter(w io.Writer) error {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.enabled {
		return errors.New("profiler already enabled")
	}
	p.writer = w
	return nil
}

func (p *callgrindProfiler) Complete() error {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	ref := p.popCallRef()
	if ref == nil {
		return errors.New("profiler not enabled")
	}
	p.enabled = false
	// Generate entrypoint
	ref.duration = time.Since(ref.start)
	w := &errWriter{w: p.writer}
	w.printf("fl=%s\n", p.getRef(ref.file))
	w.printf("fn=%s\n", p.getRef(ref.name))
	w.printf("%d %d %d\n", 0, ref.duration, 0)
	// Output the things we called
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", entry.line, entry.duration, 0)
	}
	w.print("\n")
	duration := time.Since(p.startTime)
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	w.printf("summary %d %d\n\n", duration.Nanoseconds(), ms.TotalAlloc)
	if w.err != nil {
		return w.err
	}
	if c, ok := p.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *callgrindProfiler) getRef(name string) string {
	if ref, ok := p.refs[name]; ok {
		return fmt.Sprintf("(%d)", ref)
	}
	p.refCounter++
	p.refs[name] = p.refCounter
	return fmt.Sprintf("(%d) %s", p.refCounter, name)
}

func (p *callgrindProfiler) Start(fun *lisp.Lambda) func() {
	p.mut.Lock()
	defer p.mut.Unlock()
	if p.skipTrace(fun) {
		return func() {}
	}
	prettyLabel, _ := p.prettyFunName(fun)
	file, line, _ := getSourceLoc(fun)
	// Mark the time and point of entry.
	p.pushCallRef(prettyLabel, file, line)

	return func() {
		p.end(prettyLabel, file, line)
	}
}

// pushCallRef records entry into a call.  The caller must hold p.mut.
func (p *callgrindProfiler) pushCallRef(name string, file string, line int) *callRef {
	frameRef := &callRef{
		name: name,
		file: file,
		line: line,
		prev: p.current,
	}
	if p.current != nil {
		p.current.children = append(p.current.children, frameRef)
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	frameRef.startMemory = ms.TotalAlloc
	frameRef.start = time.Now()
	p.current = frameRef
	return frameRef
}

// popCallRef returns the innermost call.  The caller must hold p.mut.
func (p *callgrindProfiler) popCallRef() *callRef {
	ref := p.current
	if ref != nil {
		p.current = ref.prev
	}
	return ref
}

func (p *callgrindProfiler) end(name string, file string, line int) {
	p.mut.Lock()
	defer p.mut.Unlock()
	if !p.enabled || p.writeErr != nil {
		return
	}
	w := &errWriter{w: p.writer}
	// Write what function we've been observing and where to find it
	w.printf("fl=%s\n", p.getRef(file))
	w.printf("fn=%s\n", p.getRef(name))
	ref := p.popCallRef()
	ref.duration = time.Since(ref.start)
	if ref.duration == 0 {
		ref.duration = 1
	}
	ms := &runtime.MemStats{}
	runtime.ReadMemStats(ms)
	ref.endMemory = ms.TotalAlloc
	memory := ref.endMemory - ref.startMemory
	// Output timing and line ref
	w.printf("%d %d %d\n", line, ref.duration, memory)
	// Output the things we called
	for _, entry := range ref.children {
		w.printf("cfl=%s\n", p.getRef(entry.file))
		w.printf("cfn=%s\n", p.getRef(entry.name))
		w.print("calls=1 0 0\n")
		w.printf("%d %d %d\n", entry.line, entry.duration, memory)
	}
	// and end the entry
	w.print("\n")
	if w.err != nil {
		p.writeErr = w.err
	}
}
