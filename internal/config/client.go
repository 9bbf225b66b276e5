// internal/config/client.go
//
// Resolved client configuration.
//
// Context
// -------
// Once the homeserver resolver has produced a ValidatedServerConfig, it is
// merged with the raw config.json into one `Client` value.  That value is
// built exactly once at boot and handed by pointer to the HTTP layer, which
// serves it to the web app.  Nothing mutates it afterwards, so there is no
// process-wide store and no lock.
package config

import (
	"encoding/json"

	"github.com/yanizio/vector/internal/discovery"
)

// Client is the immutable merged client configuration.
type Client struct {
	raw    Raw
	server discovery.ValidatedServerConfig
}

// NewClient merges raw and server.  raw is copied; later changes to it do
// not leak in.
func NewClient(raw Raw, server discovery.ValidatedServerConfig) *Client {
	return &Client{raw: raw.Clone(), server: server}
}

// Server returns the validated homeserver configuration.
func (c *Client) Server() discovery.ValidatedServerConfig { return c.server }

// Raw returns a copy of the config as loaded, without the validated server.
func (c *Client) Raw() Raw { return c.raw.Clone() }

// Map returns the merged mapping: the raw config plus
// `validated_server_config`.
func (c *Client) Map() map[string]any {
	m := c.raw.Clone()
	m[KeyValidatedServer] = c.server
	return m
}

// EnableGuest mirrors the client's `!disable_guests`.
func (c *Client) EnableGuest() bool { return !c.raw.Bool(KeyDisableGuests) }

// Brand returns the configured brand name, or "Riot".
func (c *Client) Brand() string {
	if b := c.raw.String(KeyBrand); b != "" {
		return b
	}
	return "Riot"
}

// MarshalJSON encodes the merged mapping.
func (c *Client) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Map())
}
