//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, client IP, URL, and timestamp).  These structs
//  are inert.  They contain no pointers to database handles or large
//  buffers, so they are safe to log or JSON-encode.
//
//  The web app shell uses them to decide whether a phone visitor should be
//  sent to the mobile guide instead of the full client.
//
//  Dependencies
//  • github.com/avct/uasurfer     (UA parsing)
//

package requestinfo

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avct/uasurfer"

	"github.com/yanizio/vector/internal/routing"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
type UA struct {
	Raw         string // Entire User-Agent header
	Browser     string // "Chrome", "Firefox", "Safari", etc.
	Version     string // "124.0.6367"
	OS          string // "macOS", "Windows", "Android", "iOS", etc.
	OSVersion   string // "14.5", "11", "10.0"
	Device      string // "Desktop", "Phone", "Tablet", "TV", ...
	IsBot       bool
	PrimaryLang string // First tag from Accept-Language ("en", "es", ...)
}

// IsMobile reports whether the OS has a native client the mobile guide
// points at.
func (u UA) IsMobile() bool { return u.OS == "iOS" || u.OS == "Android" }

// RequestInfo is stored in the request context by Enrich.
type RequestInfo struct {
	UA        UA
	IP        net.IP
	URL       *url.URL // Pointer copy, safe to dereference read-only
	Timestamp time.Time
}

//
//  -----------------------------
//  Mobile guide
//  -----------------------------
//

// MobileGuideCookie opts a browser out of the mobile guide when set to
// "false".
const MobileGuideCookie = "riot_mobile_redirect_to_guide"

// MobileGuidePath is relative to the app root.
const MobileGuidePath = "mobile_guide/"

// WantsMobileGuide reports whether the request should be redirected to the
// mobile guide.  The server never sees the fragment, so frag is usually
// empty here and the shell re-checks it in the browser.
func WantsMobileGuide(r *http.Request, info *RequestInfo, frag routing.Fragment) bool {
	if info == nil || !info.UA.IsMobile() {
		return false
	}
	if c, err := r.Cookie(MobileGuideCookie); err == nil && c.Value == "false" {
		return false
	}
	return !routing.PreventMobileRedirect(routing.ParseQS(r.URL), frag)
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// NewContext returns ctx carrying info.
func NewContext(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

//
//  -----------------------------
//  Internal helpers
//  -----------------------------
//

// ParseUA converts a raw header into our UA struct using uasurfer.
func ParseUA(uaHeader, acceptLang string) UA {
	u := uasurfer.Parse(uaHeader)

	osName := strings.TrimPrefix(u.OS.Name.String(), "OS")
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:         uaHeader,
		Browser:     strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:     trimVersion(u.Browser.Version),
		OS:          osName,
		OSVersion:   trimVersion(u.OS.Version),
		Device:      deviceTypeToString(u.DeviceType),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// trimVersion builds "major.minor.patch" and removes trailing ".0".
func trimVersion(v uasurfer.Version) string {
	out := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	for strings.HasSuffix(out, ".0") {
		out = strings.TrimSuffix(out, ".0")
	}
	return out
}

// deviceTypeToString maps uasurfer.DeviceType to a user-friendly string.
func deviceTypeToString(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}

// primaryLang extracts the first language subtag before any ";q=" rule.
func primaryLang(al string) string {
	if al == "" {
		return ""
	}
	tag := strings.TrimSpace(strings.Split(al, ",")[0])
	if i := strings.Index(tag, ";"); i != -1 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
