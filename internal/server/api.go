package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/yanizio/vector/internal/discovery"
	"github.com/yanizio/vector/internal/platform"
	"github.com/yanizio/vector/internal/routing"
	"github.com/yanizio/vector/internal/serverconf"
)

/*──────────────────────────── discovery ────────────────────────────────────*/

// handleDiscover validates a server name the user typed.  Unlike the
// startup path, the servers must actually answer.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("server_name"))
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "server_name is required"})
		return
	}
	if s.opts.Discovery == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "discovery is not available"})
		return
	}

	res, err := s.opts.Discovery.FindClientConfig(r.Context(), name)
	if err != nil {
		s.log.Warnw("discover lookup failed", "server_name", name, "err", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: string(discovery.ErrGenericFailure)})
		return
	}

	validated, err := discovery.BuildValidatedConfig(name, res, false)
	if err != nil {
		var de *discovery.DiscoveryError
		status := http.StatusBadGateway
		if errors.As(err, &de) && de.Code == discovery.ErrMissingWellKnown {
			status = http.StatusNotFound
		}
		writeJSON(w, status, errorBody{Error: serverconf.UserMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, validated)
}

/*──────────────────────────── links ────────────────────────────────────────*/

// handleRegistrationURL builds the post-registration link.  page is the
// URL the app runs at; every other query param is carried into the link.
// Desktop builds always get the hosted link.
func (s *Server) handleRegistrationURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var page *url.URL
	if raw := q.Get("page"); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != routing.DesktopScheme && u.Host == "") {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "page must be an absolute URL"})
			return
		}
		page = u
	}
	if _, desktop := s.opts.State.Platform.(*platform.Desktop); desktop {
		page = nil
	}
	q.Del("page")
	writeJSON(w, http.StatusOK, map[string]string{"url": routing.RegistrationURL(page, q)})
}

// handleScreen maps an app URL, fragment included, to the screen the
// client should open.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	u, err := url.Parse(r.URL.Query().Get("url"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "url is not valid"})
		return
	}
	writeJSON(w, http.StatusOK, routing.ScreenFromFragment(u))
}

/*──────────────────────────── platform ─────────────────────────────────────*/

func (s *Server) handleMenu(w http.ResponseWriter, _ *http.Request) {
	m := s.opts.State.Platform.Menu()
	if m == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no application menu on this platform"})
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type platformBody struct {
	Name                     string               `json:"name"`
	CanSelfUpdate            bool                 `json:"canSelfUpdate"`
	UpdateCheck              platform.UpdateEvent `json:"updateCheck"`
	Badge                    platform.Badge       `json:"badge"`
	DefaultDeviceDisplayName string               `json:"defaultDeviceDisplayName"`
	EnableGuest              bool                 `json:"enableGuest"`
}

func (s *Server) handlePlatform(w http.ResponseWriter, r *http.Request) {
	p := s.opts.State.Platform
	body := platformBody{
		Name:                     p.Name(),
		CanSelfUpdate:            p.CanSelfUpdate(),
		UpdateCheck:              p.UpdateCheck(),
		Badge:                    p.Badge(),
		DefaultDeviceDisplayName: p.DefaultDeviceDisplayName(r),
	}
	if c := s.opts.State.Client; c != nil {
		body.EnableGuest = c.EnableGuest()
	}
	writeJSON(w, http.StatusOK, body)
}

type badgeRequest struct {
	Count *int  `json:"count"`
	Error *bool `json:"error"`
}

// handleBadge applies the client's unread count and sync error state.
// Omitted fields are left alone.
func (s *Server) handleBadge(w http.ResponseWriter, r *http.Request) {
	var req badgeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid badge request"})
		return
	}
	p := s.opts.State.Platform
	if req.Count != nil {
		p.SetNotificationCount(*req.Count)
	}
	if req.Error != nil {
		p.SetErrorStatus(*req.Error)
	}
	writeJSON(w, http.StatusOK, p.Badge())
}

func (s *Server) handleUpdateCheckStart(w http.ResponseWriter, _ *http.Request) {
	p := s.opts.State.Platform
	if !p.CanSelfUpdate() {
		writeJSON(w, http.StatusConflict, errorBody{Error: "platform cannot self-update"})
		return
	}
	p.StartUpdateCheck()
	writeJSON(w, http.StatusOK, p.UpdateCheck())
}

func (s *Server) handleUpdateCheckStop(w http.ResponseWriter, _ *http.Request) {
	p := s.opts.State.Platform
	p.StopUpdateCheck()
	writeJSON(w, http.StatusOK, p.UpdateCheck())
}
