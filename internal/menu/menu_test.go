package menu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func labels(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func find(t *testing.T, items []Item, label string) Item {
	t.Helper()
	for _, it := range items {
		if it.Label == label {
			return it
		}
	}
	t.Fatalf("menu %q not found", label)
	return Item{}
}

func TestTemplate_Linux(t *testing.T) {
	m := Template("linux", "Riot")
	assert.Equal(t,
		[]string{"&File", "&Account", "&Universes", "&Edit", "&View", "&Window", "&Help"},
		labels(m))
	assert.Equal(t, []Item{{Role: "quit"}}, m[0].Submenu)
	assert.Len(t, find(t, m, "&Edit").Submenu, 7)
	assert.Equal(t, []Item{{Role: "minimize"}, {Role: "close"}}, find(t, m, "&Window").Submenu)
}

func TestTemplate_Darwin(t *testing.T) {
	m := Template("darwin", "Riot")
	assert.Equal(t,
		[]string{"Riot", "&Account", "&Universes", "&Edit", "&View", "&Window", "&Help"},
		labels(m))

	app := m[0].Submenu
	assert.Equal(t, "about", app[0].Role)
	assert.Equal(t, "quit", app[len(app)-1].Role)

	edit := find(t, m, "&Edit").Submenu
	require.Len(t, edit, 9)
	assert.Equal(t, "Speech", edit[8].Label)

	window := find(t, m, "&Window").Submenu
	assert.Equal(t, "Bring All to Front", window[len(window)-1].Label)
	assert.Equal(t, accountURL, find(t, m, "&Account").Submenu[0].URL)
}

func TestTemplate_FreshCopies(t *testing.T) {
	a := Template("darwin", "Riot")
	a[0].Label = "changed"
	b := Template("darwin", "Riot")
	assert.Equal(t, "Riot", b[0].Label)
}

func TestTemplate_JSON(t *testing.T) {
	b, err := json.Marshal(Template("windows", "Riot"))
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "&File", decoded[0]["label"])
	assert.Contains(t, string(b), `"url":"https://www.roleplaygateway.com/universes"`)
	assert.Contains(t, string(b), `"type":"separator"`)
}
