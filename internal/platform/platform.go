// internal/platform/platform.go
//
// Host platform abstraction: where the client config comes from, how
// updates are checked, and what the favicon badge shows.
//
// Context
// -------
// The app runs either as a plain web deployment or inside the desktop
// shell.  Both share Base, which owns the update-check state machine and
// the badge.  Web and Desktop add config loading, the updater, and (for
// Desktop) the application menu.
//
// Update-check events
// -------------------
// StartUpdateCheck emits {Active: true, Status: CHECKING}; StopUpdateCheck
// emits {Active: false}.  Updaters report progress through ReportUpdate,
// which only emits while a check is being shown.
//
// Notes
// -----
//   • Badge setters are no-ops when the value does not change.
//   • Oxford commas, two spaces after periods.

package platform

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/menu"
)

// Kind names a platform in settings.
type Kind string

const (
	KindWeb     Kind = "web"
	KindDesktop Kind = "desktop"
)

// UpdateStatus is the state of an update check.
type UpdateStatus string

const (
	UpdateChecking     UpdateStatus = "CHECKING"
	UpdateError        UpdateStatus = "ERROR"
	UpdateNotAvailable UpdateStatus = "NOTAVAILABLE"
	UpdateDownloading  UpdateStatus = "DOWNLOADING"
	UpdateReady        UpdateStatus = "READY"
)

// UpdateEvent is published to the subscriber on each update-check change.
type UpdateEvent struct {
	Active bool         `json:"active"`
	Status UpdateStatus `json:"status,omitempty"`
}

// Badge is the favicon overlay.  An empty Text means no badge.
type Badge struct {
	Text  string `json:"text,omitempty"`
	Color string `json:"color,omitempty"`
}

const (
	badgeColor      = "#d00"
	badgeErrorColor = "#f00"
	badgeErrorText  = "×"
)

// Platform is implemented by Web and Desktop.
type Platform interface {
	Name() string
	GetConfig(ctx context.Context) (config.Raw, error)
	StartUpdater(ctx context.Context)
	CanSelfUpdate() bool
	StartUpdateCheck()
	StopUpdateCheck()
	UpdateCheck() UpdateEvent
	DefaultDeviceDisplayName(r *http.Request) string
	SetNotificationCount(n int)
	SetErrorStatus(errorDidOccur bool)
	Badge() Badge
	Menu() []menu.Item
}

//
// Base
//

// Base carries state shared by every platform.  Embed it by value; the
// zero value is ready once Init has run.
type Base struct {
	mu        sync.Mutex
	notifs    int
	errored   bool
	badge     Badge
	showCheck bool
	status    UpdateStatus
	subscribe func(UpdateEvent)
	log       *zap.SugaredLogger
}

// Init sets the logger.  nil means zap.S().
func (b *Base) Init(log *zap.SugaredLogger) {
	if log == nil {
		log = zap.S()
	}
	b.log = log
}

func (b *Base) logger() *zap.SugaredLogger {
	if b.log == nil {
		return zap.S()
	}
	return b.log
}

// Subscribe sets the single receiver of update-check events.
func (b *Base) Subscribe(fn func(UpdateEvent)) {
	b.mu.Lock()
	b.subscribe = fn
	b.mu.Unlock()
}

func (b *Base) emit(ev UpdateEvent) {
	b.mu.Lock()
	fn := b.subscribe
	b.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// StartUpdater begins update polling.  Base has nothing to poll.
func (b *Base) StartUpdater(context.Context) {}

// CanSelfUpdate reports whether the platform can check for updates.
func (b *Base) CanSelfUpdate() bool { return false }

func (b *Base) StartUpdateCheck() {
	b.mu.Lock()
	b.showCheck = true
	b.status = UpdateChecking
	b.mu.Unlock()
	b.emit(UpdateEvent{Active: true, Status: UpdateChecking})
}

func (b *Base) StopUpdateCheck() {
	b.mu.Lock()
	b.showCheck = false
	b.status = ""
	b.mu.Unlock()
	b.emit(UpdateEvent{Active: false})
}

// ReportUpdate records an updater result.  It is only published while an
// update check is shown.
func (b *Base) ReportUpdate(s UpdateStatus) {
	b.mu.Lock()
	show := b.showCheck
	if show {
		b.status = s
	}
	b.mu.Unlock()
	if show {
		b.emit(UpdateEvent{Active: true, Status: s})
	}
}

// UpdateCheck returns the current update-check state.
func (b *Base) UpdateCheck() UpdateEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return UpdateEvent{Active: b.showCheck, Status: b.status}
}

// DefaultDeviceDisplayName is used when the platform knows nothing better.
func (b *Base) DefaultDeviceDisplayName(*http.Request) string { return "Unknown device" }

// SetNotificationCount updates the badge count.
func (b *Base) SetNotificationCount(n int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.notifs == n {
		return
	}
	b.notifs = n
	b.updateBadge()
}

// SetErrorStatus flags a sync error on the badge.
func (b *Base) SetErrorStatus(errorDidOccur bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.errored == errorDidOccur {
		return
	}
	b.errored = errorDidOccur
	b.updateBadge()
}

// Badge returns the current favicon badge.
func (b *Base) Badge() Badge {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.badge
}

// updateBadge recomputes the badge.  Caller holds mu.
func (b *Base) updateBadge() {
	next := Badge{Color: badgeColor}
	if b.notifs != 0 {
		next.Text = strconv.Itoa(b.notifs)
	}
	if b.errored {
		if next.Text == "" {
			next.Text = badgeErrorText
		}
		next.Color = badgeErrorColor
	}
	if next.Text == "" {
		next = Badge{}
	}
	b.badge = next
	b.logger().Debugw("badge updated", "text", next.Text, "color", next.Color)
}

// Menu returns the application menu, or nil when there is none.
func (b *Base) Menu() []menu.Item { return nil }

//
// Constructor
//

// Options configures New.
type Options struct {
	Kind        Kind
	WebappDir   string
	UserDataDir string
	PublicHost  string
	AppName     string
	GOOS        string
	Logger      *zap.SugaredLogger
}

// New returns the platform for opts.Kind.
func New(opts Options) (Platform, error) {
	switch opts.Kind {
	case KindWeb, "":
		return NewWeb(opts), nil
	case KindDesktop:
		return NewDesktop(opts), nil
	default:
		return nil, fmt.Errorf("platform: unknown kind %q", opts.Kind)
	}
}

// FromSettings maps settings onto Options.
func FromSettings(s *config.Settings, goos string, log *zap.SugaredLogger) Options {
	return Options{
		Kind:        Kind(s.Platform.Kind),
		WebappDir:   s.Platform.WebappDir,
		UserDataDir: s.Platform.UserDataDir,
		PublicHost:  s.HTTP.PublicHost,
		AppName:     s.Platform.AppName,
		GOOS:        goos,
		Logger:      log,
	}
}
