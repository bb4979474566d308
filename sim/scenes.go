package sim

import (
	"fmt"
	"sort"
)

type sceneDef struct {
	scene Scene
	steps []Step
}

// Built-in scenes. Handles are arbitrary but stable so repeated runs look the
// same; zero is reserved for "no workspace".
var sceneDefs = map[string]func() sceneDef{
	"default": defaultScene,
	"dual":    dualScene,
}

// SceneNames lists the built-in scene names.
func SceneNames() []string {
	names := make([]string, 0, len(sceneDefs))
	for name := range sceneDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScene returns a fresh copy of a built-in scene and its step script.
func LoadScene(name string) (Scene, []Step, error) {
	def, ok := sceneDefs[name]
	if !ok {
		return Scene{}, nil, fmt.Errorf("sim: unknown scene %q (have %v)", name, SceneNames())
	}
	d := def()
	return d.scene, d.steps, nil
}

func defaultScene() sceneDef {
	scene := Scene{
		Outputs: []SceneOutput{
			{Handle: 1, Name: "DP-1", Description: "Simulated 27\" display"},
		},
		Groups: []SceneGroup{
			{Handle: 100, Outputs: []uint32{1}, Workspaces: []uint32{10, 11, 12}},
		},
		Workspaces: []SceneWorkspace{
			{Handle: 10, Name: "1", X: 0, Y: 0, Active: true},
			{Handle: 11, Name: "2", X: 1, Y: 0},
			{Handle: 12, Name: "3", X: 2, Y: 0},
		},
		Toplevels: []SceneToplevel{
			{Handle: 201, AppID: "org.gnome.Terminal", Title: "Terminal", Activated: true, Workspace: 10, Width: 800, Height: 600},
			{Handle: 202, AppID: "firefox", Title: "Mozilla Firefox", Workspace: 11, X: 50, Y: 50, Width: 1280, Height: 720},
		},
	}
	steps := []Step{
		ActivateWorkspace{Workspace: 11},
		OpenToplevel{Toplevel: SceneToplevel{Handle: 203, AppID: "org.kde.kate", Title: "Untitled", Workspace: 11, X: 200, Y: 100, Width: 900, Height: 700}},
		FocusToplevel{Handle: 203},
		RetitleToplevel{Handle: 203, Title: "notes.txt"},
		MoveToplevel{Handle: 203, Workspace: 12},
		ActivateWorkspace{Workspace: 12},
		RetitleToplevel{Handle: 202, Title: "Mozilla Firefox (2 tabs)"},
		CloseToplevel{Handle: 203},
		FocusToplevel{Handle: 201},
		ActivateWorkspace{Workspace: 10},
		RetitleToplevel{Handle: 202, Title: "Mozilla Firefox"},
	}
	return sceneDef{scene: scene, steps: steps}
}

func dualScene() sceneDef {
	scene := Scene{
		Outputs: []SceneOutput{
			{Handle: 1, Name: "DP-1", Description: "Primary"},
			{Handle: 2, Name: "HDMI-1", Description: "Secondary"},
		},
		Groups: []SceneGroup{
			{Handle: 100, Outputs: []uint32{1}, Workspaces: []uint32{10, 11}},
			{Handle: 101, Outputs: []uint32{2}, Workspaces: []uint32{20, 21}},
		},
		Workspaces: []SceneWorkspace{
			{Handle: 10, Name: "web", X: 0, Y: 0, Active: true},
			{Handle: 11, Name: "code", X: 1, Y: 0},
			{Handle: 20, Name: "chat", X: 0, Y: 0, Active: true},
			{Handle: 21, Name: "media", X: 1, Y: 0},
		},
		Toplevels: []SceneToplevel{
			{Handle: 301, AppID: "firefox", Title: "Mozilla Firefox", Activated: true, Workspace: 10, Width: 1920, Height: 1080},
			{Handle: 302, AppID: "org.telegram.desktop", Title: "Telegram", Workspace: 20, Width: 1024, Height: 768},
		},
	}
	steps := []Step{
		OpenToplevel{Toplevel: SceneToplevel{Handle: 303, AppID: "code", Title: "wsmirror - Code", Workspace: 11, Width: 1920, Height: 1080}},
		ActivateWorkspace{Workspace: 11},
		FocusToplevel{Handle: 303},
		RetitleToplevel{Handle: 302, Title: "Telegram (3)"},
		MoveToplevel{Handle: 303, Workspace: 10},
		ActivateWorkspace{Workspace: 10},
		CloseToplevel{Handle: 303},
		RetitleToplevel{Handle: 302, Title: "Telegram"},
		FocusToplevel{Handle: 301},
	}
	return sceneDef{scene: scene, steps: steps}
}
