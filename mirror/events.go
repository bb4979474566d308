package mirror

// Event is the union delivered over a subscription's channel. Every payload
// is a detached copy; consumers may retain it indefinitely.
type Event interface {
	Kind() string
}

// WorkspacesChanged carries the full recomputed workspace list for the
// selected output, already sorted into presentation order.
type WorkspacesChanged struct {
	Workspaces []Workspace
}

// ToplevelAdded announces a toplevel that became resolvable. Index is a full
// snapshot of the workspace grouping after the insert.
type ToplevelAdded struct {
	Toplevel Toplevel
	Index    Index
}

// ToplevelUpdated announces a materially changed toplevel. Updates equal by
// value to the previous projection are suppressed before this event exists.
type ToplevelUpdated struct {
	Toplevel Toplevel
	Index    Index
}

// ToplevelRemoved announces a departed toplevel. Only the handle and the last
// known application id survive; the full record is already gone.
type ToplevelRemoved struct {
	Handle Handle
	AppID  string
}

func (WorkspacesChanged) Kind() string { return "workspaces-changed" }
func (ToplevelAdded) Kind() string     { return "toplevel-added" }
func (ToplevelUpdated) Kind() string   { return "toplevel-updated" }
func (ToplevelRemoved) Kind() string   { return "toplevel-removed" }
