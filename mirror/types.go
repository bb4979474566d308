package mirror

// Handle identifies a compositor object. Handles are opaque server-issued
// values; they are only meaningful as map keys and are never dereferenced.
type Handle uint32

// UnknownWorkspace is the sentinel bucket for toplevels that currently list
// no workspace. The compositor side never issues handle zero for a real
// object.
const UnknownWorkspace Handle = 0

// Rect is a toplevel's position and size on the selected output.
type Rect struct {
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// Workspace is the client-facing projection of one workspace. The struct is
// comparable; change detection relies on value equality.
type Workspace struct {
	Handle Handle
	Group  Handle
	Name   string
	X      int32
	Y      int32
	Active bool
	Urgent bool
}

// Toplevel is the client-facing projection of one toplevel window. Like
// Workspace it stays comparable so updates can be suppressed by value.
type Toplevel struct {
	Handle    Handle
	AppID     string
	Title     string
	Activated bool
	Workspace Handle
	Geometry  Rect
}

// Index groups toplevels by the workspace that owns them. Workspaces with no
// toplevels are present with an empty slice so consumers can distinguish
// "empty" from "unknown".
type Index map[Handle][]Toplevel

// Clone returns a deep copy. Emitted events must not alias live state.
func (idx Index) Clone() Index {
	out := make(Index, len(idx))
	for ws, tops := range idx {
		cp := make([]Toplevel, len(tops))
		copy(cp, tops)
		out[ws] = cp
	}
	return out
}

func cloneWorkspaces(ws []Workspace) []Workspace {
	out := make([]Workspace, len(ws))
	copy(out, ws)
	return out
}

func workspacesEqual(a, b []Workspace) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
