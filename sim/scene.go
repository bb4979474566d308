// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: sim/scene.go
// Summary: In-memory model of a simulated compositor: outputs, workspace
// groups, workspaces, toplevels, and the scripted steps that mutate them.

package sim

import "github.com/wsmirror/wsmirror/protocol"

// SceneOutput is one simulated display.
type SceneOutput struct {
	Handle      uint32
	Name        string
	Description string
}

// SceneGroup ties a set of workspaces to the outputs they span.
type SceneGroup struct {
	Handle     uint32
	Outputs    []uint32
	Workspaces []uint32
}

// SceneWorkspace is one simulated virtual desktop.
type SceneWorkspace struct {
	Handle uint32
	Name   string
	X      int32
	Y      int32
	Active bool
	Urgent bool
}

// SceneToplevel is one simulated application window. Geometry is reported on
// the first output of the scene.
type SceneToplevel struct {
	Handle    uint32
	AppID     string
	Title     string
	Activated bool
	Workspace uint32
	X         int32
	Y         int32
	Width     int32
	Height    int32
}

// Scene is the complete simulated shell state. The zero handle is reserved;
// scene definitions must not use it.
type Scene struct {
	Outputs    []SceneOutput
	Groups     []SceneGroup
	Workspaces []SceneWorkspace
	Toplevels  []SceneToplevel
}

// snapshotMessages renders the full scene as the message sequence a freshly
// connected client must receive to reconstruct it.
func (sc *Scene) snapshotMessages() []protocol.Message {
	var msgs []protocol.Message
	for _, o := range sc.Outputs {
		msgs = append(msgs, protocol.OutputNew{Output: o.Handle, Name: o.Name, Description: o.Description})
	}
	for _, g := range sc.Groups {
		msgs = append(msgs, protocol.WorkspaceGroup{Group: g.Handle, Outputs: g.Outputs, Workspaces: g.Workspaces})
	}
	for _, w := range sc.Workspaces {
		msgs = append(msgs, workspaceInfo(w))
	}
	msgs = append(msgs, protocol.WorkspacesDone{})
	for _, t := range sc.Toplevels {
		msgs = append(msgs, sc.toplevelInfo(t), protocol.ToplevelNew{Toplevel: t.Handle})
	}
	return msgs
}

func workspaceInfo(w SceneWorkspace) protocol.WorkspaceInfo {
	return protocol.WorkspaceInfo{
		Workspace: w.Handle,
		Name:      w.Name,
		X:         w.X,
		Y:         w.Y,
		Active:    w.Active,
		Urgent:    w.Urgent,
	}
}

func (sc *Scene) toplevelInfo(t SceneToplevel) protocol.ToplevelInfo {
	info := protocol.ToplevelInfo{
		Toplevel:  t.Handle,
		AppID:     t.AppID,
		Title:     t.Title,
		Activated: t.Activated,
	}
	if t.Workspace != 0 {
		info.Workspaces = []uint32{t.Workspace}
	}
	if len(sc.Outputs) > 0 {
		info.Geometries = []protocol.OutputGeometry{{
			Output: sc.Outputs[0].Handle,
			X:      t.X,
			Y:      t.Y,
			Width:  t.Width,
			Height: t.Height,
		}}
	}
	return info
}

func (sc *Scene) findToplevel(handle uint32) *SceneToplevel {
	for i := range sc.Toplevels {
		if sc.Toplevels[i].Handle == handle {
			return &sc.Toplevels[i]
		}
	}
	return nil
}

func (sc *Scene) groupOf(workspace uint32) *SceneGroup {
	for i := range sc.Groups {
		for _, wh := range sc.Groups[i].Workspaces {
			if wh == workspace {
				return &sc.Groups[i]
			}
		}
	}
	return nil
}

// Step is one scripted mutation of the scene. Applying a step returns the
// protocol messages that describe it to connected clients.
type Step interface {
	apply(sc *Scene) []protocol.Message
}

// ActivateWorkspace makes one workspace active and deactivates the others in
// the same group. Activation is per group: each output keeps its own active
// workspace.
type ActivateWorkspace struct {
	Workspace uint32
}

func (st ActivateWorkspace) apply(sc *Scene) []protocol.Message {
	group := sc.groupOf(st.Workspace)
	if group == nil {
		return nil
	}
	members := make(map[uint32]bool, len(group.Workspaces))
	for _, wh := range group.Workspaces {
		members[wh] = true
	}

	var msgs []protocol.Message
	for i := range sc.Workspaces {
		w := &sc.Workspaces[i]
		if !members[w.Handle] {
			continue
		}
		want := w.Handle == st.Workspace
		if w.Active != want {
			w.Active = want
			msgs = append(msgs, workspaceInfo(*w))
		}
	}
	if msgs == nil {
		return nil
	}
	return append(msgs, protocol.WorkspacesDone{})
}

// OpenToplevel adds a window to the scene.
type OpenToplevel struct {
	Toplevel SceneToplevel
}

func (st OpenToplevel) apply(sc *Scene) []protocol.Message {
	if sc.findToplevel(st.Toplevel.Handle) != nil {
		return nil
	}
	sc.Toplevels = append(sc.Toplevels, st.Toplevel)
	return []protocol.Message{sc.toplevelInfo(st.Toplevel), protocol.ToplevelNew{Toplevel: st.Toplevel.Handle}}
}

// CloseToplevel removes a window from the scene.
type CloseToplevel struct {
	Handle uint32
}

func (st CloseToplevel) apply(sc *Scene) []protocol.Message {
	for i := range sc.Toplevels {
		if sc.Toplevels[i].Handle == st.Handle {
			sc.Toplevels = append(sc.Toplevels[:i], sc.Toplevels[i+1:]...)
			return []protocol.Message{protocol.ToplevelClosed{Toplevel: st.Handle}}
		}
	}
	return nil
}

// RetitleToplevel changes a window's title.
type RetitleToplevel struct {
	Handle uint32
	Title  string
}

func (st RetitleToplevel) apply(sc *Scene) []protocol.Message {
	t := sc.findToplevel(st.Handle)
	if t == nil {
		return nil
	}
	t.Title = st.Title
	return []protocol.Message{sc.toplevelInfo(*t), protocol.ToplevelUpdate{Toplevel: st.Handle}}
}

// MoveToplevel reassigns a window to another workspace.
type MoveToplevel struct {
	Handle    uint32
	Workspace uint32
}

func (st MoveToplevel) apply(sc *Scene) []protocol.Message {
	t := sc.findToplevel(st.Handle)
	if t == nil {
		return nil
	}
	t.Workspace = st.Workspace
	return []protocol.Message{sc.toplevelInfo(*t), protocol.ToplevelUpdate{Toplevel: st.Handle}}
}

// FocusToplevel activates one window and deactivates the others.
type FocusToplevel struct {
	Handle uint32
}

func (st FocusToplevel) apply(sc *Scene) []protocol.Message {
	var msgs []protocol.Message
	for i := range sc.Toplevels {
		t := &sc.Toplevels[i]
		want := t.Handle == st.Handle
		if t.Activated != want {
			t.Activated = want
			msgs = append(msgs, sc.toplevelInfo(*t), protocol.ToplevelUpdate{Toplevel: t.Handle})
		}
	}
	return msgs
}
