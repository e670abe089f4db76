package wm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"
)

// ErrXFatal marks loss of the X connection or failure to become the window
// manager (spec.md §7 "XFatal"), the one error category that terminates
// the process rather than being logged and absorbed.
var ErrXFatal = errors.New("wm: fatal X error")

// conn wraps the xgb connection and the handful of raw X operations the
// manager needs; kept separate from manager.go so the mode/primary/geometry
// logic in that file stays free of xgb types wherever possible.
type conn struct {
	c    *xgb.Conn
	root xproto.Window

	// defaultSize is the display's own geometry, reported at connect time,
	// used as root geometry whenever there is no primary (spec.md §4.3.3).
	defaultSize Size

	randrAvailable bool

	logger *slog.Logger
}

// dial connects to display, claims substructure redirection on the root
// window (fatal if another window manager already holds it), and attempts
// to initialize RandR for later root resizes.
func dial(display string, logger *slog.Logger) (*conn, error) {
	c, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %q: %v", ErrXFatal, display, err)
	}

	setup := xproto.Setup(c)
	screen := setup.DefaultScreen(c)

	cookie := xproto.ChangeWindowAttributesChecked(c, screen.Root, xproto.CwEventMask, []uint32{
		uint32(xproto.EventMaskSubstructureRedirect | xproto.EventMaskSubstructureNotify),
	})
	if err := cookie.Check(); err != nil {
		c.Close()
		return nil, fmt.Errorf("%w: another window manager is already running on %q: %v", ErrXFatal, display, err)
	}

	cn := &conn{
		c:           c,
		root:        screen.Root,
		defaultSize: Size{W: int(screen.WidthInPixels), H: int(screen.HeightInPixels)},
		logger:      logger,
	}

	if err := randr.Init(c); err != nil {
		logger.Warn("randr unavailable, root resize is a no-op", "error", err)
	} else {
		cn.randrAvailable = true
	}

	return cn, nil
}

func (cn *conn) close() { cn.c.Close() }

// windowClass fetches WM_CLASS and returns it joined as "instance\x00class"
// split into its two NUL-separated parts; callers only need the substring
// match on the whole value, so we just return the raw decoded string.
func (cn *conn) windowClass(win xproto.Window) (string, error) {
	reply, err := xproto.GetProperty(cn.c, false, win, xproto.AtomWmClass, xproto.AtomString, 0, 1<<16).Reply()
	if err != nil {
		return "", err
	}
	if reply == nil || reply.ValueLen == 0 {
		return "", nil
	}
	return strings.ReplaceAll(string(reply.Value), "\x00", " "), nil
}

func (cn *conn) mapWindow(win xproto.Window) error {
	return xproto.MapWindowChecked(cn.c, win).Check()
}

func (cn *conn) unmapWindow(win xproto.Window) error {
	return xproto.UnmapWindowChecked(cn.c, win).Check()
}

func (cn *conn) configureWindow(win xproto.Window, pos Position, size Size, stackMode *uint32) error {
	mask := xproto.ConfigWindowX | xproto.ConfigWindowY | xproto.ConfigWindowWidth | xproto.ConfigWindowHeight
	values := []uint32{uint32(pos.X), uint32(pos.Y), uint32(size.W), uint32(size.H)}
	if stackMode != nil {
		mask |= xproto.ConfigWindowStackMode
		values = append(values, *stackMode)
	}
	return xproto.ConfigureWindowChecked(cn.c, win, uint16(mask), values).Check()
}

func (cn *conn) stack(win xproto.Window, above bool) {
	mode := uint32(xproto.StackModeBelow)
	if above {
		mode = uint32(xproto.StackModeAbove)
	}
	_ = xproto.ConfigureWindowChecked(cn.c, win, uint16(xproto.ConfigWindowStackMode), []uint32{mode}).Check()
}

// resizeRoot changes the reported root geometry via RandR, the mechanism
// spec.md §6.5 names explicitly ("Xrandr or a native equivalent"). A best
// guess of 0 physical millimeters is supplied; Xvnc, the only server this
// runs against in production, does not use it for anything but DPI
// reporting.
func (cn *conn) resizeRoot(size Size) error {
	if !cn.randrAvailable {
		return nil
	}
	return randr.SetScreenSizeChecked(cn.c, cn.root, uint16(size.W), uint16(size.H), 0, 0).Check()
}

// topLevelWindows lists the root's current children, oldest first, which
// is also X's creation order for windows that have never been restacked.
func (cn *conn) topLevelWindows() ([]xproto.Window, error) {
	reply, err := xproto.QueryTree(cn.c, cn.root).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Children, nil
}

// rawEvent is what the reader goroutine hands to the loop: either an xgb
// event or a connection-fatal error.
type rawEvent struct {
	ev  xgb.Event
	err error
}

// readEvents runs on its own goroutine for the connection's lifetime,
// posting every event to dispatch on the loop thread, the same
// "goroutine blocks in a read, owner thread gets a decoded message" shape
// used for child stdout in internal/process.
func (cn *conn) readEvents(dispatch func(func()), onEvent func(xgb.Event), onFatal func(error)) {
	for {
		ev, xerr, err := cn.c.WaitForEvent()
		if err != nil {
			dispatch(func() { onFatal(fmt.Errorf("%w: %v", ErrXFatal, err)) })
			return
		}
		if xerr != nil {
			cn.logger.Warn("x11 protocol error", "error", xerr)
			continue
		}
		if ev == nil {
			continue
		}
		dispatch(func() { onEvent(ev) })
	}
}
