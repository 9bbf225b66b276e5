// internal/routing/url.go
//
// Client-side route helpers.
//
// Context
// -------
// The web app routes inside the URL fragment: `#/room/!abc:example.org?via=x`.
// The part before `?` is the screen, the part after is a query string of
// its own.  The fragment never reaches the server, so these helpers serve
// two callers: the HTTP layer, which only sees the real query string, and
// tests or tools that hold a full URL.
//
// Notes
// -----
//   • Params in the fragment are split off *before* URI-decoding, because
//     values may carry `?` and `&` that are encoded only once.
//   • Oxford commas, two spaces after periods.

package routing

import (
	"net/url"
	"sort"
	"strings"
)

// Fragment is a parsed `#location?params` fragment.
type Fragment struct {
	Location string
	Params   url.Values
}

// Screen is what the client shows for a fragment: the location without its
// leading "/" plus the fragment params.
type Screen struct {
	Screen string     `json:"screen"`
	Params url.Values `json:"params"`
}

// ParseQS returns the real query string of u.
func ParseQS(u *url.URL) url.Values {
	if u == nil {
		return url.Values{}
	}
	q, _ := url.ParseQuery(u.RawQuery)
	if q == nil {
		q = url.Values{}
	}
	return q
}

// ParseQSFromFragment parses the fragment of u.
func ParseQSFromFragment(u *url.URL) Fragment {
	if u == nil {
		return ParseFragment("")
	}
	frag := u.EscapedFragment()
	return ParseFragment(frag)
}

// ParseFragment parses a fragment given without its leading '#'.  Only the
// text between the first and second '?' is read as params.
func ParseFragment(fragment string) Fragment {
	parts := strings.Split(fragment, "?")

	loc, err := url.PathUnescape(parts[0])
	if err != nil {
		loc = parts[0]
	}

	f := Fragment{Location: loc, Params: url.Values{}}
	if len(parts) > 1 {
		if q, _ := url.ParseQuery(parts[1]); q != nil {
			f.Params = q
		}
	}
	return f
}

// ScreenFromFragment returns the screen u points at.
func ScreenFromFragment(u *url.URL) Screen {
	f := ParseQSFromFragment(u)
	return Screen{Screen: strings.TrimPrefix(f.Location, "/"), Params: f.Params}
}

// hostedRegisterURL is used when the app runs from a non-web scheme, where
// passing the page's own URL to an identity server would break.
const hostedRegisterURL = "https://riot.im/app/#/register"

// DesktopScheme is the scheme the desktop shell serves the app from.
const DesktopScheme = "vector"

// RegistrationURL builds the link a user follows back into the app after
// registering elsewhere.  Params are appended in key order, first value
// only.
func RegistrationURL(page *url.URL, params url.Values) string {
	var b strings.Builder
	if page == nil || page.Scheme == DesktopScheme {
		b.WriteString(hostedRegisterURL)
	} else {
		b.WriteString(page.Scheme + "://" + page.Host + page.Path + "#/register")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(k + "=" + encodeComponent(params.Get(k)))
	}
	return b.String()
}

// PreventMobileRedirect reports whether a visit must not be sent to the
// mobile guide: the user is verifying a third-party id (client_secret) or
// following a deep link.
func PreventMobileRedirect(query url.Values, frag Fragment) bool {
	if frag.Params.Get("client_secret") != "" || query.Get("client_secret") != "" {
		return true
	}
	return frag.Location != ""
}

// encodeComponent escapes like a browser's encodeURIComponent for the
// characters that matter in a query value.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
