package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanizio/vector/internal/discovery"
)

func writeJSON(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadRaw_KeepsDottedKeys(t *testing.T) {
	p := writeJSON(t, t.TempDir(), "config.json", `{
		"default_server_config": {
			"m.homeserver": {"base_url": "https://matrix-client.matrix.org", "server_name": "matrix.org"},
			"m.identity_server": {"base_url": "https://vector.im"}
		},
		"brand": "Riot",
		"disable_guests": true
	}`)

	raw, err := LoadRaw(p)
	require.NoError(t, err)

	wk, ok := raw[KeyDefaultServerConfig].(map[string]any)
	require.True(t, ok)
	hs, ok := wk["m.homeserver"].(map[string]any)
	require.True(t, ok, "m.homeserver must survive as one key")
	assert.Equal(t, "https://matrix-client.matrix.org", hs["base_url"])
	assert.Equal(t, "Riot", raw.String(KeyBrand))
	assert.True(t, raw.Bool(KeyDisableGuests))
}

func TestLoadRaw_MissingFileIsEmpty(t *testing.T) {
	raw, err := LoadRaw(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestLoadRaw_SyntaxError(t *testing.T) {
	p := writeJSON(t, t.TempDir(), "config.json", `{"brand": "Riot",}`)

	_, err := LoadRaw(p)
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.True(t, le.Syntax())
	assert.Equal(t, p, le.Path)
	assert.Contains(t, le.SyntaxMessage(), "invalid character")
}

func TestLoadRawLayers_LaterWins(t *testing.T) {
	dir := t.TempDir()
	base := writeJSON(t, dir, "base.json", `{"brand": "Riot", "default_hs_url": "https://a.example.org"}`)
	over := writeJSON(t, dir, "over.json", `{"brand": "RPG"}`)

	raw, err := LoadRawLayers(base, over, filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "RPG", raw.String(KeyBrand))
	assert.Equal(t, "https://a.example.org", raw.String(KeyDefaultHSURL))
}

func TestClient_MapIsIsolated(t *testing.T) {
	raw := Raw{"brand": "RPG", "disable_guests": true}
	v := discovery.ValidatedServerConfig{HSURL: "https://matrix.example.org", HSName: "example.org", IsDefault: true}

	c := NewClient(raw, v)
	raw["brand"] = "mutated"

	m := c.Map()
	assert.Equal(t, "RPG", m["brand"])
	assert.Equal(t, v, m[KeyValidatedServer])
	assert.Equal(t, "RPG", c.Brand())
	assert.False(t, c.EnableGuest())

	m["brand"] = "also mutated"
	assert.Equal(t, "RPG", c.Raw().String(KeyBrand))

	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"brand": "RPG",
		"disable_guests": true,
		"validated_server_config": {
			"hsUrl": "https://matrix.example.org",
			"hsName": "example.org",
			"hsNameIsDifferent": false,
			"isUrl": "",
			"isDefault": true
		}
	}`, string(b))
}
