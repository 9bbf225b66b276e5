// Package menu defines the desktop shell's application menu.  The shell
// fetches it as JSON from /api/menu and builds the native menu from it.
package menu

// Item is one menu entry.  Role names a native action; URL opens in the
// browser; Command is sent to the app window.
type Item struct {
	Label       string `json:"label,omitempty"`
	Role        string `json:"role,omitempty"`
	Type        string `json:"type,omitempty"`
	Accelerator string `json:"accelerator,omitempty"`
	Selector    string `json:"selector,omitempty"`
	URL         string `json:"url,omitempty"`
	Command     string `json:"command,omitempty"`
	Submenu     []Item `json:"submenu,omitempty"`
}

// Separator is a horizontal rule.
func Separator() Item { return Item{Type: "separator"} }

const (
	accountURL   = "https://www.roleplaygateway.com/ucp.php?i=profile&mode=reg_details"
	universesURL = "https://www.roleplaygateway.com/universes"
	helpURL      = "https://www.roleplaygateway.com/help-f11.html"
)

// Template returns the menu for goos.  A fresh slice is built on each call.
func Template(goos, appName string) []Item {
	edit := Item{Label: "&Edit", Submenu: []Item{
		{Label: "Undo", Accelerator: "CommandOrControl+Z", Selector: "undo:"},
		{Label: "Redo", Accelerator: "Shift+CommandOrControl+Z", Selector: "redo:"},
		Separator(),
		{Label: "Cut", Accelerator: "CommandOrControl+X", Selector: "cut:"},
		{Label: "Copy", Accelerator: "CommandOrControl+C", Selector: "copy:"},
		{Label: "Paste", Accelerator: "CommandOrControl+V", Selector: "paste:"},
		{Label: "Select All", Accelerator: "CommandOrControl+A", Selector: "selectAll:"},
	}}
	window := Item{Label: "&Window", Role: "window", Submenu: []Item{
		{Role: "minimize"},
		{Role: "close"},
	}}

	var head []Item
	if goos == "darwin" {
		head = []Item{{Label: appName, Submenu: []Item{
			{Role: "about"},
			Separator(),
			{Role: "services"},
			Separator(),
			{Role: "hide"},
			{Role: "hideothers"},
			{Role: "unhide"},
			Separator(),
			{Role: "quit"},
		}}}
		edit.Submenu = append(edit.Submenu,
			Separator(),
			Item{Label: "Speech", Submenu: []Item{
				{Role: "startspeaking"},
				{Role: "stopspeaking"},
			}},
		)
		window.Submenu = []Item{
			{Label: "Close", Accelerator: "CmdOrCtrl+W", Role: "close"},
			{Label: "Minimize", Accelerator: "CmdOrCtrl+M", Role: "minimize"},
			{Label: "Zoom", Role: "zoom"},
			Separator(),
			{Label: "Bring All to Front", Role: "front"},
		}
	} else {
		head = []Item{{Label: "&File", Submenu: []Item{{Role: "quit"}}}}
	}

	return append(head,
		Item{Label: "&Account", Submenu: []Item{{Label: "Manage", URL: accountURL}}},
		Item{Label: "&Universes", Submenu: []Item{{Label: "Browse", URL: universesURL}}},
		edit,
		Item{Label: "&View", Submenu: []Item{
			Separator(),
			{Role: "resetzoom"},
			{Role: "zoomin", Accelerator: "CommandOrControl+="},
			{Role: "zoomout", Accelerator: "CommandOrControl+-"},
			Separator(),
			{Label: "Preferences", Accelerator: "Command+,", Command: "preferences"},
			{Role: "togglefullscreen"},
			{Role: "toggledevtools"},
		}},
		window,
		Item{Label: "&Help", Role: "help", Submenu: []Item{{Label: "RPG Help", URL: helpURL}}},
	)
}
