// Package wm is the X11 window manager (spec.md §4.3, component C3): it
// redirects, claims, positions, maps/unmaps managed windows, elects a
// primary, and maintains root geometry. All exported methods are meant to
// be called only from the event loop's single goroutine; none of them
// acquire a lock of their own because the loop already serializes every
// call (spec.md §4.3.5, §5).
package wm

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"

	"github.com/sdoering01/neopult/internal/handle"
)

// ErrReentrantCall is raised when a virtual-window callback, or any other
// WM-triggered code path, tries to call back into the manager directly
// instead of going through run_later (spec.md §9 "Cross-subsystem
// callbacks").
var ErrReentrantCall = errors.New("wm: reentrant call into window manager")

// ErrStaleHandle is returned for any operation on a handle that no longer
// names a managed window.
var ErrStaleHandle = errors.New("wm: stale window handle")

// ClaimOptions configures claim_window (spec.md §4.3.1).
type ClaimOptions struct {
	TimeoutMs     int
	MinGeometry   string
	IgnoreManaged bool
}

// VirtualWindowOptions configures create_virtual_window (spec.md §4.3.2).
type VirtualWindowOptions struct {
	Callbacks       VirtualCallbacks
	PrimaryDemotion DemotionAction
	MinGeometry     string
}

type claimWaiter struct {
	classSubstring string
	opts           ClaimOptions
	onResult       func(ref handle.Ref, ok bool)
	timer          *time.Timer
	done           bool
}

// Manager is the window manager for one X display.
type Manager struct {
	cn       *conn
	runLater func(func())
	dispatch func(func())
	logger   *slog.Logger

	windows  *handle.Table[*Window]
	managed  map[xproto.Window]handle.Ref
	waiters  []*claimWaiter

	insertSeq uint64
	maxSeq    uint64

	primary    handle.Ref
	hasPrimary bool

	busy bool

	onFatal func(error)
}

// New connects to display and becomes its window manager. dispatch crosses
// reader-goroutine events back onto the loop; runLater enqueues onto C1's
// deferred-task queue (used for virtual-window callbacks, per spec.md §9
// and testable scenario S3). onFatal is invoked, on the loop thread, when
// the X connection is lost.
func New(display string, dispatch, runLater func(func()), onFatal func(error), logger *slog.Logger) (*Manager, error) {
	cn, err := dial(display, logger)
	if err != nil {
		return nil, err
	}
	m := &Manager{
		cn:       cn,
		runLater: runLater,
		dispatch: dispatch,
		logger:   logger,
		windows:  handle.New[*Window](),
		managed:  map[xproto.Window]handle.Ref{},
		onFatal:  onFatal,
	}
	go cn.readEvents(dispatch, m.handleXEvent, m.handleFatal)
	return m, nil
}

// Close releases the X connection. Called once, during shutdown.
func (m *Manager) Close() { m.cn.close() }

func (m *Manager) handleFatal(err error) {
	if m.onFatal != nil {
		m.onFatal(err)
	}
}

func (m *Manager) enter() error {
	if m.busy {
		return ErrReentrantCall
	}
	m.busy = true
	return nil
}

func (m *Manager) leave() { m.busy = false }

// ---- X event handling -----------------------------------------------

func (m *Manager) handleXEvent(ev xgb.Event) {
	switch e := ev.(type) {
	case xproto.MapRequestEvent:
		// A new top-level client appeared. We deliberately do not map it:
		// unclaimed windows stay invisible until claim_window installs
		// them (spec.md §4.3.1). We only use this as a trigger to retry
		// any pending claims.
		m.tryWaiters()
	case xproto.ConfigureRequestEvent:
		if _, managed := m.managed[e.Window]; managed {
			// We own geometry for managed windows; client requests for
			// them are ignored.
			return
		}
		mask := uint16(0)
		values := []uint32{}
		if e.ValueMask&xproto.ConfigWindowX != 0 {
			mask |= xproto.ConfigWindowX
			values = append(values, uint32(e.X))
		}
		if e.ValueMask&xproto.ConfigWindowY != 0 {
			mask |= xproto.ConfigWindowY
			values = append(values, uint32(e.Y))
		}
		if e.ValueMask&xproto.ConfigWindowWidth != 0 {
			mask |= xproto.ConfigWindowWidth
			values = append(values, uint32(e.Width))
		}
		if e.ValueMask&xproto.ConfigWindowHeight != 0 {
			mask |= xproto.ConfigWindowHeight
			values = append(values, uint32(e.Height))
		}
		if mask != 0 {
			_ = xproto.ConfigureWindowChecked(m.cn.c, e.Window, mask, values).Check()
		}
	case xproto.DestroyNotifyEvent:
		if ref, ok := m.managed[e.Window]; ok {
			m.forceRemove(ref)
		}
	}
}

// ---- Claim -------------------------------------------------------------

// ClaimWindow implements claim_window (spec.md §4.3.1). onResult is invoked
// exactly once, synchronously if a match already exists, otherwise later
// from the loop once a matching window appears or the timeout elapses.
func (m *Manager) ClaimWindow(owner, classSubstring string, opts ClaimOptions, onResult func(ref handle.Ref, ok bool)) error {
	mg, err := resolveMinGeometry(opts.MinGeometry)
	if err != nil {
		return err
	}

	if err := m.enter(); err != nil {
		return err
	}
	win, matched := m.bestCandidate(classSubstring, opts.IgnoreManaged)
	var ref handle.Ref
	if matched {
		ref = m.install(owner, win, mg)
	}
	m.leave()

	// onResult runs after the busy guard is released: a script callback
	// that immediately calls max()/min() on the freshly claimed handle
	// must not be rejected as a reentrant WM call (spec.md §4.3.5).
	if matched {
		onResult(ref, true)
		return nil
	}

	timeoutMs := opts.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = 250
	}
	w := &claimWaiter{classSubstring: classSubstring, opts: opts, onResult: onResult}
	w.timer = time.AfterFunc(time.Duration(timeoutMs)*time.Millisecond, func() {
		m.dispatch(func() { m.expireWaiter(w) })
	})
	m.waiters = append(m.waiters, w)
	return nil
}

func (m *Manager) expireWaiter(w *claimWaiter) {
	if w.done {
		return
	}
	for i, other := range m.waiters {
		if other == w {
			m.waiters = append(m.waiters[:i], m.waiters[i+1:]...)
			break
		}
	}
	w.done = true
	w.onResult(handle.Ref{}, false)
}

func (m *Manager) tryWaiters() {
	remaining := m.waiters[:0]
	for _, w := range m.waiters {
		if w.done {
			continue
		}
		mg, err := resolveMinGeometry(w.opts.MinGeometry)
		if err != nil {
			w.done = true
			w.timer.Stop()
			w.onResult(handle.Ref{}, false)
			continue
		}
		if win, ok := m.bestCandidate(w.classSubstring, w.opts.IgnoreManaged); ok {
			ref := m.install("", win, mg)
			w.done = true
			w.timer.Stop()
			w.onResult(ref, true)
			continue
		}
		remaining = append(remaining, w)
	}
	m.waiters = remaining
}

// bestCandidate finds the most recently created top-level window whose
// WM_CLASS contains substr, honoring ignoreManaged.
func (m *Manager) bestCandidate(substr string, ignoreManaged bool) (xproto.Window, bool) {
	wins, err := m.cn.topLevelWindows()
	if err != nil {
		m.logger.Warn("failed to query top-level windows", "error", err)
		return 0, false
	}
	var best xproto.Window
	found := false
	for _, w := range wins {
		if !ignoreManaged {
			if _, managed := m.managed[w]; managed {
				continue
			}
		}
		class, err := m.cn.windowClass(w)
		if err != nil || class == "" {
			continue
		}
		if strings.Contains(class, substr) {
			best = w
			found = true
		}
	}
	return best, found
}

func resolveMinGeometry(descriptor string) (MinGeometry, error) {
	if descriptor == "" {
		descriptor = DefaultMinGeometry
	}
	return ParseMinGeometry(descriptor)
}

func (m *Manager) install(owner string, xwin xproto.Window, mg MinGeometry) handle.Ref {
	m.insertSeq++
	w := &Window{
		owner:       owner,
		xwin:        xwin,
		mode:        Min,
		minGeometry: mg,
		insertSeq:   m.insertSeq,
	}
	ref := m.windows.Insert(w)
	m.managed[xwin] = ref
	m.placeAll()
	return ref
}

// ---- Virtual windows -----------------------------------------------

// CreateVirtualWindow implements create_virtual_window (spec.md §4.3.2).
func (m *Manager) CreateVirtualWindow(owner string, opts VirtualWindowOptions) (handle.Ref, error) {
	mg, err := resolveMinGeometry(opts.MinGeometry)
	if err != nil {
		return handle.Ref{}, err
	}
	m.insertSeq++
	cbs := opts.Callbacks
	w := &Window{
		owner:       owner,
		virtual:     &cbs,
		demotion:    opts.PrimaryDemotion,
		mode:        Hidden,
		minGeometry: mg,
		insertSeq:   m.insertSeq,
	}
	ref := m.windows.Insert(w)
	return ref, nil
}

// ---- Mode transitions (spec.md §4.3.3) -----------------------------

// Max marks the window max, designates it primary, and stores its size and
// margins.
func (m *Manager) Max(ref handle.Ref, size Size, margin Margin) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	w, ok := m.windows.Get(ref)
	if !ok {
		return ErrStaleHandle
	}

	w.mode = Max
	w.maxSize = size
	w.maxMargin = margin
	m.maxSeq++
	w.maxSeq = m.maxSeq

	previous := m.primary
	hadPrimary := m.hasPrimary
	m.primary = ref
	m.hasPrimary = true

	if hadPrimary && previous != ref {
		if prevWin, ok := m.windows.Get(previous); ok && prevWin.mode == Max {
			m.applyDemotion(previous, prevWin)
		}
	}

	m.placeAll()
	return nil
}

// applyDemotion runs the demoted window's primary-demotion-action policy
// after it has been unseated as primary while remaining in max mode
// (spec.md §4.3.3 "Primary-demotion-action", scenario S3). Real claimed
// windows always use DoNothing.
func (m *Manager) applyDemotion(ref handle.Ref, w *Window) {
	switch w.demotion {
	case MakeMin:
		w.mode = Min
		m.invokeModeCallback(ref, w)
	case HideOnDemotion:
		w.mode = Hidden
		m.invokeModeCallback(ref, w)
	default:
		// do_nothing: window stays max, simply no longer primary.
	}
}

// Min marks the window min; it renders at its min-geometry slot.
func (m *Manager) Min(ref handle.Ref) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	w, ok := m.windows.Get(ref)
	if !ok {
		return ErrStaleHandle
	}
	w.mode = Min
	if m.hasPrimary && m.primary == ref {
		m.reelectPrimary(ref)
	}
	m.placeAll()
	return nil
}

// Hide marks the window hidden; a window already hidden is a no-op, the
// one transition the table permits to be a silent no-op (spec.md §8
// property 8).
func (m *Manager) Hide(ref handle.Ref) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	w, ok := m.windows.Get(ref)
	if !ok {
		return ErrStaleHandle
	}
	if w.mode == Hidden {
		return nil
	}
	w.mode = Hidden
	if m.hasPrimary && m.primary == ref {
		m.reelectPrimary(ref)
	}
	m.placeAll()
	return nil
}

// Unclaim removes the window from management, re-electing primary if it
// was primary.
func (m *Manager) Unclaim(ref handle.Ref) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.leave()

	_, ok := m.windows.Get(ref)
	if !ok {
		return ErrStaleHandle
	}
	wasPrimary := m.hasPrimary && m.primary == ref
	m.forceRemove(ref)
	if wasPrimary {
		m.reelectPrimary(ref)
	}
	m.placeAll()
	return nil
}

func (m *Manager) forceRemove(ref handle.Ref) {
	w, ok := m.windows.Get(ref)
	if !ok {
		return
	}
	if !w.IsVirtual() {
		delete(m.managed, w.xwin)
	}
	m.windows.Remove(ref)
}

// IsPrimary reports whether ref is the current primary window.
func (m *Manager) IsPrimary(ref handle.Ref) bool {
	return m.hasPrimary && m.primary == ref
}

// reelectPrimary scans for the most-recently-maxed window still in max
// mode, excluding leaving, and installs it as primary (spec.md §4.3.4).
func (m *Manager) reelectPrimary(leaving handle.Ref) {
	var bestRef handle.Ref
	var bestSeq uint64
	found := false
	m.windows.Each(func(ref handle.Ref, w *Window) {
		if ref == leaving {
			return
		}
		if w.mode != Max {
			return
		}
		if !found || w.maxSeq > bestSeq {
			bestRef = ref
			bestSeq = w.maxSeq
			found = true
		}
	})
	m.hasPrimary = found
	if found {
		m.primary = bestRef
	} else {
		m.primary = handle.Ref{}
	}
}

// ---- Placement (spec.md §4.3.3 "Root size", "Primary placement", "Min
// placement", "Z-order") -------------------------------------------

// placeAll recomputes root geometry and every window's position in one
// pass. It is called after any mode transition; the X round trips this
// implies are small in practice (a handful of managed windows per
// channel).
func (m *Manager) placeAll() {
	root := m.rootSize()
	if err := m.cn.resizeRoot(root); err != nil {
		m.logger.Warn("failed to resize root", "error", err)
	}

	// Each walks the handle table in slot order, which is not a stable
	// insertion order once a freed slot is reused by a later claim. Among
	// min windows, z-stacking must reflect insertion order (spec.md
	// §4.3.3), so windows are sorted by insertSeq before zIndex is
	// assigned.
	type entry struct {
		ref handle.Ref
		w   *Window
	}
	var entries []entry
	m.windows.Each(func(ref handle.Ref, w *Window) {
		entries = append(entries, entry{ref, w})
	})
	sort.Slice(entries, func(i, j int) bool { return entries[i].w.insertSeq < entries[j].w.insertSeq })

	zIndex := 0
	for _, e := range entries {
		ref, w := e.ref, e.w
		switch w.mode {
		case Max:
			pos := Position{X: w.maxMargin.Left, Y: w.maxMargin.Top}
			if ref == m.primary && m.hasPrimary {
				m.place(ref, w, pos, w.maxSize, 0, "")
			} else if w.demotion == DoNothing {
				// Non-primary max windows (do_nothing policy) stay at
				// their last max geometry, just not driving root size.
				m.place(ref, w, pos, w.maxSize, 0, "")
			}
		case Min:
			pos := w.minGeometry.Place(root)
			size := Size{W: w.minGeometry.Width, H: w.minGeometry.Height}
			zIndex++
			m.place(ref, w, pos, size, zIndex, w.minGeometry.Alignment())
		case Hidden:
			m.unplace(ref, w)
		}
	}
}

func (m *Manager) rootSize() Size {
	if m.hasPrimary {
		if w, ok := m.windows.Get(m.primary); ok {
			return Size{
				W: w.maxSize.W + w.maxMargin.Left + w.maxMargin.Right,
				H: w.maxSize.H + w.maxMargin.Top + w.maxMargin.Bottom,
			}
		}
	}
	return m.cn.defaultSize
}

func (m *Manager) place(ref handle.Ref, w *Window, pos Position, size Size, zIndex int, alignment string) {
	if w.IsVirtual() {
		if !w.mapped {
			m.invokeVirtual(w.virtual.Map)
			w.mapped = true
		}
		m.invokeVirtual(func() {
			if w.virtual.SetGeometry != nil {
				w.virtual.SetGeometry(pos, size, zIndex, alignment)
			}
		})
		return
	}
	if err := m.cn.configureWindow(w.xwin, pos, size, nil); err != nil {
		m.logger.Warn("failed to configure window", "error", err)
	}
	if !w.mapped {
		if err := m.cn.mapWindow(w.xwin); err != nil {
			m.logger.Warn("failed to map window", "error", err)
		}
		w.mapped = true
	}
	m.cn.stack(w.xwin, ref == m.primary)
}

func (m *Manager) unplace(ref handle.Ref, w *Window) {
	if w.IsVirtual() {
		if w.mapped {
			m.invokeVirtual(w.virtual.Unmap)
		}
		w.mapped = false
		return
	}
	if w.mapped {
		if err := m.cn.unmapWindow(w.xwin); err != nil {
			m.logger.Warn("failed to unmap window", "error", err)
		}
		w.mapped = false
	}
}

// invokeVirtual defers cb onto the event loop's run_later queue rather
// than calling it inline, so virtual callbacks never observe the WM
// mid-transition and can never reenter it on the same call stack (spec.md
// §4.3.5, §9; scenario S3).
func (m *Manager) invokeVirtual(cb func()) {
	if cb == nil {
		return
	}
	m.runLater(cb)
}

func (m *Manager) invokeModeCallback(ref handle.Ref, w *Window) {
	switch w.mode {
	case Min, Max:
		m.placeAll()
	case Hidden:
		m.unplace(ref, w)
	}
}
