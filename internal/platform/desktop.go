package platform

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/yanizio/vector/internal/config"
	"github.com/yanizio/vector/internal/menu"
)

// Desktop is the desktop shell.  Its config is the bundled webapp config
// with the user's own config.json merged over it.
type Desktop struct {
	Base
	webappDir   string
	userDataDir string
	appName     string
	goos        string
}

// NewDesktop builds a Desktop platform.
func NewDesktop(opts Options) *Desktop {
	name := opts.AppName
	if name == "" {
		name = "Riot"
	}
	d := &Desktop{
		webappDir:   opts.WebappDir,
		userDataDir: opts.UserDataDir,
		appName:     name,
		goos:        opts.GOOS,
	}
	d.Init(opts.Logger)
	return d
}

func (d *Desktop) Name() string { return "Desktop Platform" }

// GetConfig merges <user_data>/config.json over <webapp>/config.json.
// Either file may be missing.
func (d *Desktop) GetConfig(context.Context) (config.Raw, error) {
	layers := []string{filepath.Join(d.webappDir, "config.json")}
	if d.userDataDir != "" {
		layers = append(layers, filepath.Join(d.userDataDir, "config.json"))
	}
	return config.LoadRawLayers(layers...)
}

func (d *Desktop) DefaultDeviceDisplayName(*http.Request) string {
	return d.appName + " Desktop on " + friendlyOS(d.goos)
}

// Menu returns the application menu for this OS.
func (d *Desktop) Menu() []menu.Item { return menu.Template(d.goos, d.appName) }

func friendlyOS(goos string) string {
	switch goos {
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	default:
		return "Unknown"
	}
}
