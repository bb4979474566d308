// Copyright © 2025 Wsmirror contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: mirror/state.go
// Summary: Mirrors compositor-authoritative shell state into a local snapshot.
// Usage: Owned and mutated exclusively by the subscription's dispatch goroutine.
// Notes: Workspace mutations are staged until the batch-completion signal; only
// value-level changes produce events.

package mirror

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/wsmirror/wsmirror/internal/logging"
	"github.com/wsmirror/wsmirror/protocol"
)

type outputRecord struct {
	name        string
	description string
}

type groupRecord struct {
	outputs    []Handle
	workspaces []Handle
}

// State holds the mirrored view of one compositor session. It is not safe for
// concurrent use; a single goroutine must own it.
type State struct {
	selector string

	outputs  map[Handle]outputRecord
	expected Handle
	resolved bool

	groups         map[Handle]groupRecord
	workspaceInfos map[Handle]protocol.WorkspaceInfo
	workspaces     []Workspace

	toplevelInfos map[Handle]protocol.ToplevelInfo
	toplevels     map[Handle]Toplevel
	index         Index

	log *logrus.Entry
}

// NewState creates an empty mirror bound to the named output. An empty
// selector binds to the first output the server advertises.
func NewState(outputSelector string) *State {
	return &State{
		selector:       outputSelector,
		outputs:        make(map[Handle]outputRecord),
		groups:         make(map[Handle]groupRecord),
		workspaceInfos: make(map[Handle]protocol.WorkspaceInfo),
		toplevelInfos:  make(map[Handle]protocol.ToplevelInfo),
		toplevels:      make(map[Handle]Toplevel),
		index:          make(Index),
		log:            logging.NewLogger("mirror"),
	}
}

// Apply folds one protocol message into the mirror and returns the events the
// change produced, if any. Events carry detached copies only.
func (s *State) Apply(msg protocol.Message) []Event {
	switch m := msg.(type) {
	case protocol.OutputNew:
		s.outputNew(m)
	case protocol.OutputUpdate:
		// Accepted but never re-resolves the expected output.
		s.outputs[Handle(m.Output)] = outputRecord{name: m.Name, description: m.Description}
		s.log.WithField("output", m.Output).Debug("output updated")
	case protocol.OutputDestroyed:
		s.outputDestroyed(m)
	case protocol.WorkspaceGroup:
		s.groups[Handle(m.Group)] = groupRecord{
			outputs:    toHandles(m.Outputs),
			workspaces: toHandles(m.Workspaces),
		}
	case protocol.WorkspaceGroupRemoved:
		delete(s.groups, Handle(m.Group))
	case protocol.WorkspaceInfo:
		s.workspaceInfos[Handle(m.Workspace)] = m
	case protocol.WorkspacesDone:
		return s.workspacesDone()
	case protocol.ToplevelInfo:
		s.toplevelInfos[Handle(m.Toplevel)] = m
	case protocol.ToplevelNew:
		return s.toplevelNew(Handle(m.Toplevel))
	case protocol.ToplevelUpdate:
		return s.toplevelUpdate(Handle(m.Toplevel))
	case protocol.ToplevelClosed:
		return s.toplevelClosed(Handle(m.Toplevel))
	default:
		s.log.WithField("type", msg.Type()).Debug("ignoring message")
	}
	return nil
}

func (s *State) outputNew(m protocol.OutputNew) {
	h := Handle(m.Output)
	s.outputs[h] = outputRecord{name: m.Name, description: m.Description}
	if s.resolved {
		return
	}
	if s.selector != "" && s.selector != m.Name {
		return
	}
	s.expected = h
	s.resolved = true
	s.log.WithFields(logrus.Fields{"output": m.Output, "name": m.Name}).Info("bound to output")
}

func (s *State) outputDestroyed(m protocol.OutputDestroyed) {
	h := Handle(m.Output)
	delete(s.outputs, h)
	if s.resolved && h == s.expected {
		// The binding is permanent; groups on the withdrawn output simply
		// stop matching until the process restarts.
		s.log.WithField("output", m.Output).Warn("bound output withdrawn")
	}
}

// groupVisible reports whether a group belongs to the mirrored view. Until an
// expected output is resolved every group is visible.
func (s *State) groupVisible(g groupRecord) bool {
	if !s.resolved {
		return true
	}
	for _, out := range g.outputs {
		if out == s.expected {
			return true
		}
	}
	return false
}

// workspacesDone recomputes the workspace projection at the batch-completion
// signal. Cascade removal of stale index buckets happens before the event is
// emitted, never after.
func (s *State) workspacesDone() []Event {
	groupHandles := make([]Handle, 0, len(s.groups))
	for gh := range s.groups {
		groupHandles = append(groupHandles, gh)
	}
	sort.Slice(groupHandles, func(i, j int) bool { return groupHandles[i] < groupHandles[j] })

	seen := make(map[Handle]bool)
	claimed := make(map[Handle]bool)
	var next []Workspace
	for _, gh := range groupHandles {
		g := s.groups[gh]
		visible := s.groupVisible(g)
		for _, wh := range g.workspaces {
			seen[wh] = true
			if !visible || claimed[wh] {
				continue
			}
			claimed[wh] = true
			info, ok := s.workspaceInfos[wh]
			if !ok {
				s.log.WithField("workspace", wh).Debug("workspace listed without info")
				continue
			}
			next = append(next, Workspace{
				Handle: wh,
				Group:  gh,
				Name:   info.Name,
				X:      info.X,
				Y:      info.Y,
				Active: info.Active,
				Urgent: info.Urgent,
			})
		}
	}
	sortWorkspaces(next)

	// Staged info for handles no group lists anymore is dropped here, not on
	// arrival, so that handle reuse cannot resurrect stale attributes.
	for wh := range s.workspaceInfos {
		if !seen[wh] {
			delete(s.workspaceInfos, wh)
		}
	}

	if workspacesEqual(s.workspaces, next) {
		return nil
	}

	current := make(map[Handle]bool, len(next))
	for _, w := range next {
		current[w.Handle] = true
	}
	for wh := range s.index {
		if wh == UnknownWorkspace || current[wh] {
			continue
		}
		delete(s.index, wh)
	}
	for _, w := range next {
		if _, ok := s.index[w.Handle]; !ok {
			s.index[w.Handle] = []Toplevel{}
		}
	}

	s.workspaces = next
	s.log.WithField("count", len(next)).Debug("workspace set changed")
	return []Event{WorkspacesChanged{Workspaces: cloneWorkspaces(next)}}
}

// resolveToplevel builds the client projection for a handle from its staged
// info. Reports false when no info record exists.
func (s *State) resolveToplevel(h Handle) (Toplevel, bool) {
	info, ok := s.toplevelInfos[h]
	if !ok {
		return Toplevel{}, false
	}
	t := Toplevel{
		Handle:    h,
		AppID:     info.AppID,
		Title:     info.Title,
		Activated: info.Activated,
		Workspace: UnknownWorkspace,
	}
	if len(info.Workspaces) > 0 {
		// First listed membership wins when the server reports several.
		t.Workspace = Handle(info.Workspaces[0])
	}
	if s.resolved {
		for _, g := range info.Geometries {
			if Handle(g.Output) == s.expected {
				t.Geometry = Rect{X: g.X, Y: g.Y, Width: g.Width, Height: g.Height}
				break
			}
		}
	}
	return t, true
}

func (s *State) toplevelNew(h Handle) []Event {
	t, ok := s.resolveToplevel(h)
	if !ok {
		s.log.WithField("toplevel", h).Warn("toplevel announced without info")
		return nil
	}
	s.insertToplevel(t)
	return []Event{ToplevelAdded{Toplevel: t, Index: s.index.Clone()}}
}

func (s *State) toplevelUpdate(h Handle) []Event {
	t, ok := s.resolveToplevel(h)
	if !ok {
		s.log.WithField("toplevel", h).Warn("toplevel update without info")
		return nil
	}
	prev, existed := s.toplevels[h]
	if existed && prev == t {
		return nil
	}
	s.insertToplevel(t)
	if !existed {
		// An update for a handle we never tracked is indistinguishable from
		// a late add; treat it as one.
		return []Event{ToplevelAdded{Toplevel: t, Index: s.index.Clone()}}
	}
	return []Event{ToplevelUpdated{Toplevel: t, Index: s.index.Clone()}}
}

func (s *State) toplevelClosed(h Handle) []Event {
	delete(s.toplevelInfos, h)
	prev, ok := s.toplevels[h]
	if !ok {
		return nil
	}
	delete(s.toplevels, h)
	s.removeFromIndex(prev.Workspace, h)
	return []Event{ToplevelRemoved{Handle: h, AppID: prev.AppID}}
}

// insertToplevel upserts into the flat map and the index, relocating the
// index entry when the toplevel moved workspaces.
func (s *State) insertToplevel(t Toplevel) {
	if prev, ok := s.toplevels[t.Handle]; ok && prev.Workspace != t.Workspace {
		s.removeFromIndex(prev.Workspace, t.Handle)
	}
	s.toplevels[t.Handle] = t

	bucket := s.index[t.Workspace]
	for i := range bucket {
		if bucket[i].Handle == t.Handle {
			bucket[i] = t
			return
		}
	}
	s.index[t.Workspace] = append(bucket, t)
}

// removeFromIndex drops one toplevel from a bucket. The bucket itself stays,
// possibly empty; buckets are only deleted by the workspace cascade.
func (s *State) removeFromIndex(ws, h Handle) {
	bucket, ok := s.index[ws]
	if !ok {
		return
	}
	for i := range bucket {
		if bucket[i].Handle == h {
			s.index[ws] = append(bucket[:i], bucket[i+1:]...)
			return
		}
	}
}

func sortWorkspaces(ws []Workspace) {
	sort.Slice(ws, func(i, j int) bool {
		a, b := ws[i], ws[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Handle < b.Handle
	})
}

func toHandles(raw []uint32) []Handle {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Handle, len(raw))
	for i, v := range raw {
		out[i] = Handle(v)
	}
	return out
}
