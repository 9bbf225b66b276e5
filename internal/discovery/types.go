package discovery

// Well-known keys.
const (
	KeyHomeserver     = "m.homeserver"
	KeyIdentityServer = "m.identity_server"
	KeyBaseURL        = "base_url"
)

// State is the outcome of discovering one service.
type State string

const (
	// StateSuccess means the service is well-formed and responded.
	StateSuccess State = "SUCCESS"
	// StateIgnore means discovery had nothing to say about the service.
	StateIgnore State = "IGNORE"
	// StatePrompt means the user should be asked for the server.
	StatePrompt State = "PROMPT"
	// StateFailPrompt means discovery failed but the user may continue by
	// entering a server by hand.
	StateFailPrompt State = "FAIL_PROMPT"
	// StateFailError means discovery failed and the user must be told.
	StateFailError State = "FAIL_ERROR"
)

// Entry is the discovery outcome for one service.
type Entry struct {
	State   State  `json:"state"`
	Error   Code   `json:"error,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// Result is the outcome of a discovery run.
type Result struct {
	Homeserver     Entry `json:"m.homeserver"`
	IdentityServer Entry `json:"m.identity_server"`
}

// ValidatedServerConfig is the normalized server configuration handed to
// the client.  IsDefault marks a config resolved from static configuration
// rather than from user input at runtime.
type ValidatedServerConfig struct {
	HSURL             string `json:"hsUrl"`
	HSName            string `json:"hsName"`
	HSNameIsDifferent bool   `json:"hsNameIsDifferent"`
	ISURL             string `json:"isUrl"`
	IsDefault         bool   `json:"isDefault"`
	Warning           Code   `json:"warning,omitempty"`
}

// ServerVersionsResponse is returned by /_matrix/client/versions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
