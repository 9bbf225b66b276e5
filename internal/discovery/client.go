package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/vector/internal/cache"
	"github.com/yanizio/vector/internal/metrics"
)

const (
	wellKnownPath     = "/.well-known/matrix/client"
	versionsPath      = "/_matrix/client/versions"
	identityProbePath = "/_matrix/identity/v2"

	// Well-known files are tiny; anything larger is not one.
	maxBodyBytes = 64 << 10

	defaultTimeout   = 10 * time.Second
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HTTPClient is used for all requests.  If nil, a client with Timeout
	// is built.
	HTTPClient *http.Client
	// Timeout bounds each probe and lookup.  Zero means 10s.
	Timeout time.Duration
	// CacheSize and CacheTTL size the well-known lookup cache.
	CacheSize int
	CacheTTL  time.Duration
	// Logger is used for structured logging.  If nil, zap.S() is used.
	Logger *zap.SugaredLogger
}

// Client performs discovery lookups and server probes.  Safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	log        *zap.SugaredLogger
	sfg        singleflight.Group
	lookups    *cache.LRU[string, Result]
}

// NewClient creates a discovery Client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	size := cfg.CacheSize
	if size < 1 {
		size = defaultCacheSize
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.S()
	}
	return &Client{
		httpClient: httpClient,
		timeout:    timeout,
		log:        log,
		lookups:    cache.New[string, Result](size, ttl),
	}
}

// FromDiscoveryConfig validates a well-known-shaped object and probes the
// servers it names.  wellKnown is usually a map[string]any; any other value
// yields an ErrInvalid result.
func (c *Client) FromDiscoveryConfig(ctx context.Context, wellKnown any) *Result {
	res := &Result{
		Homeserver:     Entry{State: StateFailError, Error: ErrInvalid},
		IdentityServer: Entry{State: StatePrompt},
	}

	wk, _ := wellKnown.(map[string]any)
	hs, _ := wk[KeyHomeserver].(map[string]any)
	if hs == nil {
		res.Homeserver = Entry{State: StateFailPrompt, Error: ErrInvalid}
		return res
	}

	rawHS, _ := hs[KeyBaseURL].(string)
	if rawHS == "" {
		res.Homeserver = Entry{State: StateFailPrompt, Error: ErrInvalidHSBaseURL}
		return res
	}
	hsURL, ok := sanitizeURL(rawHS)
	if !ok {
		res.Homeserver = Entry{State: StateFailError, Error: ErrInvalidHSBaseURL}
		return res
	}

	if _, err := c.ServerVersions(ctx, hsURL); err != nil {
		c.log.Warnw("homeserver probe failed", "hs_url", hsURL, "err", err)
		res.Homeserver = Entry{State: StateFailError, Error: ErrInvalidHomeserver, BaseURL: hsURL}
	} else {
		res.Homeserver = Entry{State: StateSuccess, BaseURL: hsURL}
	}

	isRaw, present := wk[KeyIdentityServer]
	if !present {
		return res
	}

	is, _ := isRaw.(map[string]any)
	rawIS, _ := is[KeyBaseURL].(string)
	isURL, ok := sanitizeURL(rawIS)
	if !ok {
		res.IdentityServer = Entry{State: StateFailError, Error: ErrInvalidISBaseURL}
		res.Homeserver.State = StateFailError
		res.Homeserver.Error = ErrInvalidIS
		return res
	}

	if err := c.probeIdentityServer(ctx, isURL); err != nil {
		c.log.Warnw("identity server probe failed", "is_url", isURL, "err", err)
		res.IdentityServer = Entry{State: StateFailError, Error: ErrInvalidIdentityServer, BaseURL: isURL}
		if res.Homeserver.State == StateSuccess {
			res.Homeserver.State = StateFailError
			res.Homeserver.Error = ErrInvalidIS
		}
		return res
	}
	res.IdentityServer = Entry{State: StateSuccess, BaseURL: isURL}
	return res
}

// FindClientConfig looks up https://<serverName>/.well-known/matrix/client
// and validates what it finds.  Concurrent lookups for the same name share
// one request.  Only definitive answers are cached; a failed fetch is
// retried by the next caller.
func (c *Client) FindClientConfig(ctx context.Context, serverName string) (*Result, error) {
	serverName = strings.ToLower(strings.TrimSpace(serverName))
	if serverName == "" {
		return nil, errors.New("discovery: server name must be non-empty")
	}

	if r, ok := c.lookups.Get(serverName); ok {
		metrics.DiscoveryCacheHits.Inc()
		return &r, nil
	}

	// The shared lookup outlives any single caller; get still bounds it
	// with c.timeout.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.sfg.Do(serverName, func() (any, error) {
		r := c.lookup(shared, serverName)
		if cacheable(r) {
			c.lookups.Add(serverName, *r)
		}
		metrics.DiscoveryLookups.WithLabelValues(string(r.Homeserver.State)).Inc()
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	r := v.(Result)
	return &r, nil
}

// cacheable reports whether a lookup result says something about the
// server rather than about the network.
func cacheable(r *Result) bool {
	if r.Homeserver.State == StateSuccess {
		return true
	}
	switch r.Homeserver.Error {
	case ErrMissingWellKnown, ErrInvalidJSON:
		return true
	}
	return false
}

// ValidateServerConfigWithStaticURLs validates a homeserver URL and optional
// identity server URL the way a well-known object naming them would be.
func (c *Client) ValidateServerConfigWithStaticURLs(ctx context.Context, hsURL, isURL string, syntaxOnly bool) (ValidatedServerConfig, error) {
	wk := map[string]any{
		KeyHomeserver: map[string]any{KeyBaseURL: hsURL},
	}
	if isURL != "" {
		wk[KeyIdentityServer] = map[string]any{KeyBaseURL: isURL}
	}
	res := c.FromDiscoveryConfig(ctx, wk)
	return BuildValidatedConfig(hostname(hsURL), res, syntaxOnly)
}

// ServerVersions returns the protocol versions a homeserver supports.
// Unauthenticated; doubles as the reachability probe.
func (c *Client) ServerVersions(ctx context.Context, hsURL string) (*ServerVersionsResponse, error) {
	body, err := c.get(ctx, hsURL+versionsPath)
	if err != nil {
		return nil, fmt.Errorf("discovery: server versions failed: %w", err)
	}
	var resp ServerVersionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("discovery: failed to parse versions response: %w", err)
	}
	if len(resp.Versions) == 0 {
		return nil, errors.New("discovery: versions response lists no versions")
	}
	return &resp, nil
}

func (c *Client) lookup(ctx context.Context, serverName string) *Result {
	res := &Result{IdentityServer: Entry{State: StatePrompt}}

	body, err := c.get(ctx, "https://"+serverName+wellKnownPath)
	if err != nil {
		var matrixErr *MatrixError
		if errors.As(err, &matrixErr) && matrixErr.StatusCode == http.StatusNotFound {
			c.log.Infow("no well-known file", "server_name", serverName)
			res.Homeserver = Entry{State: StatePrompt, Error: ErrMissingWellKnown}
			return res
		}
		c.log.Warnw("well-known lookup failed", "server_name", serverName, "err", err)
		res.Homeserver = Entry{State: StateFailPrompt, Error: ErrGenericFailure}
		return res
	}

	var wk map[string]any
	if err := json.Unmarshal(body, &wk); err != nil {
		c.log.Warnw("well-known is not JSON", "server_name", serverName, "err", err)
		res.Homeserver = Entry{State: StateFailPrompt, Error: ErrInvalidJSON}
		return res
	}
	return c.FromDiscoveryConfig(ctx, wk)
}

func (c *Client) probeIdentityServer(ctx context.Context, isURL string) error {
	_, err := c.get(ctx, isURL+identityProbePath)
	return err
}

// get performs a bounded GET and returns the body on 2xx.  Other statuses
// return a *MatrixError, decoded from the body when it is a Matrix error.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: GET %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("discovery: failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	matrixErr := &MatrixError{StatusCode: resp.StatusCode}
	if jsonErr := json.Unmarshal(body, matrixErr); jsonErr != nil || matrixErr.Code == "" {
		matrixErr.Code = "M_UNKNOWN"
		matrixErr.Message = http.StatusText(resp.StatusCode)
	}
	return nil, matrixErr
}

// sanitizeURL accepts absolute http(s) URLs with a host and strips any
// trailing slash.
func sanitizeURL(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	if u.Hostname() == "" {
		return "", false
	}
	return strings.TrimRight(u.String(), "/"), true
}

func hostname(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
