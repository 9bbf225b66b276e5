package platform

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/requestinfo"
)

// DefaultPollInterval is how often Web checks the deployed version.
const DefaultPollInterval = 10 * time.Minute

const versionFile = "version"

// Web is a plain web deployment.  The deployed version is read from
// <webapp>/version; a change while running means an update is ready.
type Web struct {
	Base
	webappDir    string
	publicHost   string
	pollInterval time.Duration

	verMu   sync.Mutex
	running string
}

// NewWeb builds a Web platform.
func NewWeb(opts Options) *Web {
	w := &Web{
		webappDir:    opts.WebappDir,
		publicHost:   opts.PublicHost,
		pollInterval: DefaultPollInterval,
	}
	w.Init(opts.Logger)
	return w
}

func (w *Web) Name() string { return "Web Platform" }

// GetConfig prefers config.<public_host>.json and falls back to
// config.json when the specific file is missing, empty, or unreadable.
func (w *Web) GetConfig(context.Context) (config.Raw, error) {
	if w.publicHost != "" {
		specific := filepath.Join(w.webappDir, "config."+w.publicHost+".json")
		raw, err := config.LoadRaw(specific)
		if err == nil && len(raw) > 0 {
			return raw, nil
		}
		if err != nil {
			w.logger().Warnw("host-specific config unusable; using config.json", "file", specific, "err", err)
		}
	}
	return config.LoadRaw(filepath.Join(w.webappDir, "config.json"))
}

// CanSelfUpdate is true: a reload picks up a new deployment.
func (w *Web) CanSelfUpdate() bool { return true }

// StartUpdater records the running version and polls until ctx is done.
func (w *Web) StartUpdater(ctx context.Context) {
	if v, err := w.readVersion(); err == nil {
		w.setRunning(v)
	} else {
		w.logger().Warnw("cannot read deployed version", "err", err)
	}

	go func() {
		t := time.NewTicker(w.pollInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				w.PollForUpdate()
			}
		}
	}()
}

// StartUpdateCheck shows the check and polls once.
func (w *Web) StartUpdateCheck() {
	w.Base.StartUpdateCheck()
	w.PollForUpdate()
}

// PollForUpdate compares the deployed version with the running one and
// reports the result.
func (w *Web) PollForUpdate() UpdateStatus {
	status := UpdateNotAvailable
	v, err := w.readVersion()
	switch {
	case err != nil:
		w.logger().Warnw("version poll failed", "err", err)
		status = UpdateError
	case w.setRunning(v) != v:
		w.logger().Infow("new version available", "version", v)
		status = UpdateReady
	}
	w.ReportUpdate(status)
	return status
}

// setRunning stores v as the running version if none is known yet and
// returns the running version.
func (w *Web) setRunning(v string) string {
	w.verMu.Lock()
	defer w.verMu.Unlock()
	if w.running == "" {
		w.running = v
	}
	return w.running
}

func (w *Web) readVersion() (string, error) {
	b, err := os.ReadFile(filepath.Join(w.webappDir, versionFile))
	if err != nil {
		return "", err
	}
	v := strings.TrimSpace(string(b))
	if v == "" {
		return "", errors.New("version file is empty")
	}
	return v, nil
}

// DefaultDeviceDisplayName is "<app url> via <browser> on <os>".
func (w *Web) DefaultDeviceDisplayName(r *http.Request) string {
	info := requestinfo.FromContext(r.Context())
	ua := requestinfo.ParseUA(r.UserAgent(), "")
	if info != nil {
		ua = info.UA
	}

	browser, osName := ua.Browser, ua.OS
	if browser == "" || browser == "Unknown" {
		browser = "unknown browser"
	}
	if osName == "" || osName == "Unknown" {
		osName = "unknown OS"
	}

	host := w.publicHost
	if host == "" {
		host = r.Host
	}
	scheme := "https"
	if r.TLS == nil && w.publicHost == "" {
		scheme = "http"
	}
	return scheme + "://" + host + appPath(r) + " via " + browser + " on " + osName
}

// appPath is the path the app was loaded from.  API calls carry it in the
// Referer.
func appPath(r *http.Request) string {
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" {
		return ref.Path
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return "/"
	}
	return r.URL.Path
}
