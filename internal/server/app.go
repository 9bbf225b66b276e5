package server

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/yanizio/vector/internal/middleware"
	"github.com/yanizio/vector/internal/requestinfo"
	"github.com/yanizio/vector/internal/routing"
	"github.com/yanizio/vector/internal/serverconf"
	"github.com/yanizio/vector/internal/view"
)

/*──────────────────────────── app shell ────────────────────────────────────*/

func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	info := requestinfo.FromContext(r.Context())
	lang := ""
	if info != nil {
		lang = info.UA.PrimaryLang
	}
	page := view.NewPage(s.opts.State.Brand(), lang)

	// A config that cannot load blocks every browser.  Otherwise an
	// unsupported browser is stopped before anything else is shown.
	if s.opts.State.LoadErr == nil && requestinfo.WantsCompatibilityPage(r, info) {
		s.renderCompatibility(w, page, info)
		return
	}
	if data, failed := s.errorPage(page); failed {
		if err := s.opts.Views.Render(w, http.StatusInternalServerError, view.PageError, data); err != nil {
			s.log.Errorw("render error page", "err", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	data := view.ShellData{
		Page:            page,
		ConfigURL:       "config.json",
		WorkerScript:    s.opts.WorkerScript,
		Scripts:         s.opts.Scripts,
		MobileGuide:     requestinfo.WantsMobileGuide(r, info, routing.Fragment{}),
		MobileGuidePath: requestinfo.MobileGuidePath,
	}
	if info != nil {
		data.UA = info.UA
	}
	if data.MobileGuide {
		data.Nonce = newNonce()
		w.Header().Set("Content-Security-Policy", middleware.CSPWithNonce(data.Nonce))
	}

	if err := s.opts.Views.Render(w, http.StatusOK, view.PageApp, data); err != nil {
		s.log.Errorw("render app shell", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s *Server) renderCompatibility(w http.ResponseWriter, page view.Page, info *requestinfo.RequestInfo) {
	s.log.Infow("browser below support floor", "browser", info.UA.Browser, "version", info.UA.Version)
	data := view.CompatibilityData{
		Page:      page,
		Browser:   info.UA.Browser,
		Version:   info.UA.Version,
		AcceptURL: compatibilityAcceptPath,
	}
	if err := s.opts.Views.Render(w, http.StatusOK, view.PageCompatibility, data); err != nil {
		s.log.Errorw("render compatibility page", "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// compatibilityAcceptPath is relative so the form works under any mount
// point.
const compatibilityAcceptPath = "compatibility/accept"

// handleCompatibilityAccept remembers that the visitor accepts an
// unsupported browser and sends them back to the app.
func (s *Server) handleCompatibilityAccept(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     requestinfo.UnsupportedBrowserCookie,
		Value:    "true",
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.log.Infow("visitor accepts unsupported browser")
	http.Redirect(w, r, "../", http.StatusSeeOther)
}

// errorPage returns the blocking page for a failed boot.
func (s *Server) errorPage(page view.Page) (view.ErrorData, bool) {
	st := s.opts.State
	switch {
	case st.LoadErr != nil && st.LoadErr.Syntax():
		return view.InvalidJSONPage(page, st.LoadErr.SyntaxMessage()), true
	case st.LoadErr != nil:
		return view.LoadFailedPage(page), true
	case st.ResolveErr != nil:
		return view.MisconfiguredPage(page, st.UserMessage()), true
	}
	return view.ErrorData{}, false
}

/*──────────────────────────── config.json ──────────────────────────────────*/

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	st := s.opts.State
	if !st.Ready() {
		msg := "client config unavailable"
		switch {
		case st.LoadErr != nil && st.LoadErr.Syntax():
			msg = st.LoadErr.SyntaxMessage()
		case st.ResolveErr != nil:
			msg = serverconf.UserMessage(st.ResolveErr)
		}
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: msg})
		return
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, st.Client)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newNonce() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.StdEncoding.EncodeToString(b[:])
}
