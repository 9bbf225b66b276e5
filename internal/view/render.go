// internal/view/render.go
//
// View engine for the few server-rendered pages: the app shell, the
// blocking error pages shown when the client config is unusable, and the
// compatibility page for browsers below the support floor.
//
// Public helpers
// --------------
//   - Render         – write rendered HTML to an http.ResponseWriter.
//   - RenderToString – return template.HTML (tests, previews).
//
// Lookup precedence (later wins):
//   1. Templates embedded in the binary (templates/*.html).
//   2. <override_dir>/*.html, when the directory exists.
//
// Every template wraps its markup in {{ define "<name>" }} so the whole set
// shares sub-templates such as "footer".
//
// Style
// -----
// • Oxford commas, two spaces after periods.

package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"

	"github.com/yanizio/vector/internal/requestinfo"
)

//go:embed templates/*.html
var embedded embed.FS

// Template names.
const (
	PageApp           = "app"
	PageError         = "error"
	PageCompatibility = "compatibility"
)

//
// page data
//

// Link is one footer link.
type Link struct {
	URL  string
	Text string
	Code bool // render Text in <code>
}

// FooterLinks are shown under every page.
func FooterLinks() []Link {
	return []Link{
		{URL: "https://github.com/RolePlayGateway", Text: "git://", Code: true},
		{URL: "https://twitter.com/RolePlayGateway", Text: "@RolePlayGateway"},
		{URL: "https://medium.com/universes", Text: "/universes"},
		{URL: "https://www.roleplaygateway.com", Text: "Home"},
	}
}

// Page holds fields every template reads.
type Page struct {
	Brand  string
	Lang   string
	Footer []Link
}

// NewPage returns a Page with the standard footer.
func NewPage(brand, lang string) Page {
	if brand == "" {
		brand = "Riot"
	}
	return Page{Brand: brand, Lang: lang, Footer: FooterLinks()}
}

// ShellData feeds the "app" template.
type ShellData struct {
	Page
	UA              requestinfo.UA
	ConfigURL       string
	WorkerScript    string
	Scripts         []string
	MobileGuide     bool
	MobileGuidePath string
	Nonce           string
}

// ErrorData feeds the "error" template.  An empty Title renders the plain
// error box instead of the full error page.
type ErrorData struct {
	Page
	Title    string
	Messages []string
}

// CompatibilityData feeds the "compatibility" template.  AcceptURL is
// POSTed when the visitor chooses to continue anyway.
type CompatibilityData struct {
	Page
	Browser   string
	Version   string
	AcceptURL string
}

// MisconfiguredTitle heads every blocking config error page.
func MisconfiguredTitle(brand string) string {
	if brand == "" {
		brand = "Riot"
	}
	return "Your " + brand + " is misconfigured"
}

// InvalidJSONPage describes a config.json that does not parse.
func InvalidJSONPage(p Page, parserMessage string) ErrorData {
	if parserMessage == "" {
		parserMessage = "Invalid JSON"
	}
	return ErrorData{
		Page:  p,
		Title: MisconfiguredTitle(p.Brand),
		Messages: []string{
			"Your " + p.Brand + " configuration contains invalid JSON. Please correct the problem and reload the page.",
			"The message from the parser is: " + parserMessage,
		},
	}
}

// LoadFailedPage is shown when config.json could not be read.
func LoadFailedPage(p Page) ErrorData {
	return ErrorData{
		Page:     p,
		Messages: []string{"Unable to load config file: please refresh the page to try again."},
	}
}

// MisconfiguredPage is shown when the default server cannot be resolved.
func MisconfiguredPage(p Page, message string) ErrorData {
	return ErrorData{Page: p, Title: MisconfiguredTitle(p.Brand), Messages: []string{message}}
}

//
// renderer
//

// Renderer is a parsed template set.  Safe for concurrent use.
type Renderer struct {
	set *template.Template
}

// New parses the embedded templates and, when overrideDir is non-empty and
// exists, any *.html inside it.
func New(overrideDir string) (*Renderer, error) {
	t, err := template.New("").Funcs(funcMap()).ParseFS(embedded, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("view: parse embedded templates: %w", err)
	}

	if overrideDir != "" {
		matches, _ := filepath.Glob(filepath.Join(overrideDir, "*.html"))
		if len(matches) > 0 {
			if t, err = t.ParseFiles(matches...); err != nil {
				return nil, fmt.Errorf("view: parse overrides in %s: %w", overrideDir, err)
			}
		} else if _, statErr := os.Stat(overrideDir); statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("view: override dir: %w", statErr)
		}
	}

	for _, name := range []string{PageApp, PageError, PageCompatibility} {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("view: template %q not defined", name)
		}
	}
	return &Renderer{set: t}, nil
}

// Render executes name into a buffer and writes it with status.  Nothing
// is written if execution fails.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	html, err := r.RenderToString(name, data)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = w.Write([]byte(html))
	return err
}

// RenderToString executes name and returns the HTML.
func (r *Renderer) RenderToString(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.set.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("view: render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

//
// func-map
//

func funcMap() template.FuncMap {
	return template.FuncMap{
		"dict":     dict,
		"device":   func(u requestinfo.UA) string { return u.Device },
		"browser":  func(u requestinfo.UA) string { return u.Browser },
		"os":       func(u requestinfo.UA) string { return u.OS },
		"isMobile": func(u requestinfo.UA) bool { return u.IsMobile() },
	}
}

// dict builds a map in templates: {{ dict "k" 1 "k2" "v" }}.
func dict(kv ...any) map[string]any {
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		m[key] = kv[i+1]
	}
	return m
}
