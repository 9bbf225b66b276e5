// internal/requestinfo/compat.go
//
// Browser support floor for the web client.
//
// Context
// -------
// The client needs ES2019 (Object.fromEntries, Promise.prototype.finally).
// The browser cannot be asked, so the floor is kept per browser family as
// the first release that ships both.  Families not listed, bots, and
// unparseable versions pass.
//
// A visitor below the floor sees the compatibility page until they accept
// the risk, which sets UnsupportedBrowserCookie.
//
// Notes
// -----
// • uasurfer reports Edge as "IE": 12 to 18 are legacy Edge, 79 and up
//   are Chromium.
// • uasurfer gives Safari the OS version, so Safari is judged by the
//   "Version/" token of the raw header.
// • Oxford commas, two spaces after periods.

package requestinfo

import (
	"net/http"
	"strconv"
	"strings"
)

// UnsupportedBrowserCookie is set to "true" once the visitor accepts
// running on an unsupported browser.
const UnsupportedBrowserCookie = "mx_accepts_unsupported_browser"

type minVersion struct{ major, minor int }

var browserFloor = map[string]minVersion{
	"Chrome":  {73, 0},
	"Firefox": {63, 0},
	"Safari":  {12, 1},
	"IE":      {79, 0},
	"Opera":   {60, 0},
	"Samsung": {11, 0},
}

// SupportedBrowser reports whether u meets the browser floor.
func SupportedBrowser(u UA) bool {
	if u.IsBot {
		return true
	}
	floor, ok := browserFloor[u.Browser]
	if !ok {
		return true
	}
	version := u.Version
	if u.Browser == "Safari" {
		version = safariVersion(u.Raw)
	}
	major, minor, ok := versionParts(version)
	if !ok {
		return true
	}
	if major != floor.major {
		return major > floor.major
	}
	return minor >= floor.minor
}

// WantsCompatibilityPage reports whether the request should be shown the
// compatibility page instead of the app.
func WantsCompatibilityPage(r *http.Request, info *RequestInfo) bool {
	if info == nil || SupportedBrowser(info.UA) {
		return false
	}
	c, err := r.Cookie(UnsupportedBrowserCookie)
	return err != nil || c.Value != "true"
}

// versionParts reads "major[.minor[...]]".  A zero major means uasurfer
// found no version.
func versionParts(v string) (major, minor int, ok bool) {
	parts := strings.SplitN(v, ".", 3)
	major, err := strconv.Atoi(parts[0])
	if err != nil || major == 0 {
		return 0, 0, false
	}
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor, true
}

func safariVersion(raw string) string {
	_, after, found := strings.Cut(raw, "Version/")
	if !found {
		return ""
	}
	if i := strings.IndexAny(after, " ;)"); i != -1 {
		after = after[:i]
	}
	return after
}
