// Package loop is the event loop and dispatcher (spec.md §4.1, component
// C1). Exactly one goroutine drains it for the life of the process; every
// other subsystem (process readers, the X event reader, the WebSocket
// server) only ever reaches back into host state by posting a closure here.
package loop

// Loop serializes every host-state mutation onto a single goroutine.
// External events (X11, child stdout, WebSocket frames/timers) arrive on a
// channel; between any two of them, the deferred-task queue (run_later) is
// drained completely, in FIFO order, including tasks enqueued while
// draining (spec.md §8 property 6).
type Loop struct {
	external chan func()
	deferred []func()
	stopping bool
	fatal    error
}

// New creates a Loop with a reasonably sized external-event buffer; a full
// buffer applies natural backpressure to worker goroutines rather than
// dropping events.
func New() *Loop {
	return &Loop{external: make(chan func(), 256)}
}

// Post enqueues fn as an external event. Safe to call from any goroutine;
// this is the sole crossing point back onto the loop thread.
func (l *Loop) Post(fn func()) {
	l.external <- fn
}

// RunLater enqueues fn on the deferred-task queue. Must only be called from
// the loop thread, i.e. from inside a closure the loop itself is running.
func (l *Loop) RunLater(fn func()) {
	l.deferred = append(l.deferred, fn)
}

// Stop requests the loop to exit after the in-flight external event (and
// its deferred tasks) finishes.
func (l *Loop) Stop() {
	l.Post(func() { l.stopping = true })
}

// Fatal records err and requests shutdown, mirroring Stop but letting the
// caller later distinguish a clean exit from an XFatal-triggered one
// (spec.md §7 "XFatal ... process exits non-zero").
func (l *Loop) Fatal(err error) {
	l.Post(func() {
		if l.fatal == nil {
			l.fatal = err
		}
		l.stopping = true
	})
}

// FatalErr returns the error that caused a fatal shutdown, or nil for a
// clean one. Only meaningful after Run has returned.
func (l *Loop) FatalErr() error { return l.fatal }

// Run drains external events until Stop or Fatal is observed, running the
// full deferred queue between each one. onShutdown is invoked once, on the
// loop thread, immediately before Run returns. This is the hook point for running
// every plugin instance's on_cleanup while child processes are still alive
// (spec.md §4.1 "Cancellation").
func (l *Loop) Run(onShutdown func()) {
	for !l.stopping {
		fn := <-l.external
		fn()
		l.drainDeferred()
	}
	if onShutdown != nil {
		onShutdown()
	}
}

func (l *Loop) drainDeferred() {
	for len(l.deferred) > 0 {
		fn := l.deferred[0]
		l.deferred = l.deferred[1:]
		fn()
	}
}
