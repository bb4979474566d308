package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	errStringTooLong = errors.New("protocol: string exceeds 64KB limit")
	errPayloadShort  = errors.New("protocol: payload too short")
	errExtraBytes    = errors.New("protocol: payload has trailing data")

	// ErrUnknownMessage is returned by DecodeMessage for a header type this
	// version does not understand.
	ErrUnknownMessage = errors.New("protocol: unknown message type")
)

// Message is implemented by every decoded wire message.
type Message interface {
	Type() MessageType
}

// Hello initiates the handshake from client to server.
type Hello struct {
	ClientName   string
	Capabilities uint32
}

// Welcome is returned by the server acknowledging the handshake. The session
// id is echoed in the header of every subsequent frame.
type Welcome struct {
	SessionID  [16]byte
	ServerName string
}

// OutputNew advertises a display output.
type OutputNew struct {
	Output      uint32
	Name        string
	Description string
}

// OutputUpdate re-announces an output whose properties changed.
type OutputUpdate struct {
	Output      uint32
	Name        string
	Description string
}

// OutputDestroyed withdraws an output.
type OutputDestroyed struct {
	Output uint32
}

// WorkspaceGroup replaces the full membership of one workspace group: the
// outputs it spans and the workspaces it contains. A workspace that stops
// appearing in any group is gone.
type WorkspaceGroup struct {
	Group      uint32
	Outputs    []uint32
	Workspaces []uint32
}

// WorkspaceGroupRemoved withdraws a workspace group.
type WorkspaceGroupRemoved struct {
	Group uint32
}

// WorkspaceInfo carries the attributes of one workspace. Info records arrive
// separately from group membership and are staged until WorkspacesDone.
type WorkspaceInfo struct {
	Workspace uint32
	Name      string
	X         int32
	Y         int32
	Active    bool
	Urgent    bool
}

// WorkspacesDone is the batch-completion signal: no more mutations belong to
// this logical update, recompute now. It carries no payload.
type WorkspacesDone struct{}

// OutputGeometry is a toplevel's position and size on one output.
type OutputGeometry struct {
	Output uint32
	X      int32
	Y      int32
	Width  int32
	Height int32
}

// ToplevelInfo carries the full attribute set of one toplevel, including the
// workspace handles it occupies and its per-output geometry.
type ToplevelInfo struct {
	Toplevel   uint32
	AppID      string
	Title      string
	Activated  bool
	Workspaces []uint32
	Geometries []OutputGeometry
}

// ToplevelNew announces a toplevel. Its attributes are resolved from the
// most recent ToplevelInfo for the same handle.
type ToplevelNew struct {
	Toplevel uint32
}

// ToplevelUpdate announces that a toplevel's attributes changed.
type ToplevelUpdate struct {
	Toplevel uint32
}

// ToplevelClosed announces that a toplevel went away. No info record is
// resolvable after this message.
type ToplevelClosed struct {
	Toplevel uint32
}

func (Hello) Type() MessageType                 { return MsgHello }
func (Welcome) Type() MessageType               { return MsgWelcome }
func (OutputNew) Type() MessageType             { return MsgOutputNew }
func (OutputUpdate) Type() MessageType          { return MsgOutputUpdate }
func (OutputDestroyed) Type() MessageType       { return MsgOutputDestroyed }
func (WorkspaceGroup) Type() MessageType        { return MsgWorkspaceGroup }
func (WorkspaceGroupRemoved) Type() MessageType { return MsgWorkspaceGroupRemoved }
func (WorkspaceInfo) Type() MessageType         { return MsgWorkspaceInfo }
func (WorkspacesDone) Type() MessageType        { return MsgWorkspacesDone }
func (ToplevelInfo) Type() MessageType          { return MsgToplevelInfo }
func (ToplevelNew) Type() MessageType           { return MsgToplevelNew }
func (ToplevelUpdate) Type() MessageType        { return MsgToplevelUpdate }
func (ToplevelClosed) Type() MessageType        { return MsgToplevelClosed }

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func encodeHandles(buf *bytes.Buffer, handles []uint32) error {
	if len(handles) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(handles))); err != nil {
		return err
	}
	for _, h := range handles {
		if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
			return err
		}
	}
	return nil
}

func decodeHandles(b []byte) ([]uint32, []byte, error) {
	if len(b) < 2 {
		return nil, nil, errPayloadShort
	}
	count := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if len(b) < int(count)*4 {
		return nil, nil, errPayloadShort
	}
	if count == 0 {
		return nil, b, nil
	}
	handles := make([]uint32, count)
	for i := 0; i < int(count); i++ {
		handles[i] = binary.LittleEndian.Uint32(b[i*4 : (i+1)*4])
	}
	return handles, b[int(count)*4:], nil
}

func encodeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(h.ClientName)))
	if err := encodeString(buf, h.ClientName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Capabilities); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	name, rest, err := decodeString(b)
	if err != nil {
		return h, err
	}
	h.ClientName = name
	if len(rest) < 4 {
		return h, errPayloadShort
	}
	h.Capabilities = binary.LittleEndian.Uint32(rest[:4])
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 18+len(w.ServerName)))
	buf.Write(w.SessionID[:])
	if err := encodeString(buf, w.ServerName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	if len(b) < 16 {
		return w, errPayloadShort
	}
	copy(w.SessionID[:], b[:16])
	name, _, err := decodeString(b[16:])
	if err != nil {
		return w, err
	}
	w.ServerName = name
	return w, nil
}

func EncodeOutputNew(o OutputNew) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(o.Name)+len(o.Description)))
	if err := binary.Write(buf, binary.LittleEndian, o.Output); err != nil {
		return nil, err
	}
	if err := encodeString(buf, o.Name); err != nil {
		return nil, err
	}
	if err := encodeString(buf, o.Description); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeOutputNew(b []byte) (OutputNew, error) {
	var o OutputNew
	if len(b) < 4 {
		return o, errPayloadShort
	}
	o.Output = binary.LittleEndian.Uint32(b[:4])
	name, rest, err := decodeString(b[4:])
	if err != nil {
		return o, err
	}
	o.Name = name
	desc, _, err := decodeString(rest)
	if err != nil {
		return o, err
	}
	o.Description = desc
	return o, nil
}

func EncodeOutputUpdate(o OutputUpdate) ([]byte, error) {
	return EncodeOutputNew(OutputNew(o))
}

func DecodeOutputUpdate(b []byte) (OutputUpdate, error) {
	o, err := DecodeOutputNew(b)
	return OutputUpdate(o), err
}

func EncodeOutputDestroyed(o OutputDestroyed) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4))
	if err := binary.Write(buf, binary.LittleEndian, o.Output); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeOutputDestroyed(b []byte) (OutputDestroyed, error) {
	var o OutputDestroyed
	if len(b) < 4 {
		return o, errPayloadShort
	}
	o.Output = binary.LittleEndian.Uint32(b[:4])
	return o, nil
}

func EncodeWorkspaceGroup(g WorkspaceGroup) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+4*(len(g.Outputs)+len(g.Workspaces))))
	if err := binary.Write(buf, binary.LittleEndian, g.Group); err != nil {
		return nil, err
	}
	if err := encodeHandles(buf, g.Outputs); err != nil {
		return nil, err
	}
	if err := encodeHandles(buf, g.Workspaces); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWorkspaceGroup(b []byte) (WorkspaceGroup, error) {
	var g WorkspaceGroup
	if len(b) < 4 {
		return g, errPayloadShort
	}
	g.Group = binary.LittleEndian.Uint32(b[:4])
	outputs, rest, err := decodeHandles(b[4:])
	if err != nil {
		return g, err
	}
	g.Outputs = outputs
	workspaces, rest, err := decodeHandles(rest)
	if err != nil {
		return g, err
	}
	g.Workspaces = workspaces
	if len(rest) != 0 {
		return g, errExtraBytes
	}
	return g, nil
}

func EncodeWorkspaceGroupRemoved(g WorkspaceGroupRemoved) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4))
	if err := binary.Write(buf, binary.LittleEndian, g.Group); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWorkspaceGroupRemoved(b []byte) (WorkspaceGroupRemoved, error) {
	var g WorkspaceGroupRemoved
	if len(b) < 4 {
		return g, errPayloadShort
	}
	g.Group = binary.LittleEndian.Uint32(b[:4])
	return g, nil
}

func EncodeWorkspaceInfo(w WorkspaceInfo) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 16+len(w.Name)))
	if err := binary.Write(buf, binary.LittleEndian, w.Workspace); err != nil {
		return nil, err
	}
	if err := encodeString(buf, w.Name); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.X); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, w.Y); err != nil {
		return nil, err
	}
	encodeBool(buf, w.Active)
	encodeBool(buf, w.Urgent)
	return buf.Bytes(), nil
}

func DecodeWorkspaceInfo(b []byte) (WorkspaceInfo, error) {
	var w WorkspaceInfo
	if len(b) < 4 {
		return w, errPayloadShort
	}
	w.Workspace = binary.LittleEndian.Uint32(b[:4])
	name, rest, err := decodeString(b[4:])
	if err != nil {
		return w, err
	}
	w.Name = name
	if len(rest) < 10 {
		return w, errPayloadShort
	}
	w.X = int32(binary.LittleEndian.Uint32(rest[0:4]))
	w.Y = int32(binary.LittleEndian.Uint32(rest[4:8]))
	w.Active = rest[8] != 0
	w.Urgent = rest[9] != 0
	if len(rest) != 10 {
		return w, errExtraBytes
	}
	return w, nil
}

func EncodeWorkspacesDone(WorkspacesDone) ([]byte, error) {
	return nil, nil
}

func DecodeWorkspacesDone(b []byte) (WorkspacesDone, error) {
	if len(b) != 0 {
		return WorkspacesDone{}, errExtraBytes
	}
	return WorkspacesDone{}, nil
}

func EncodeToplevelInfo(t ToplevelInfo) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+len(t.AppID)+len(t.Title)))
	if err := binary.Write(buf, binary.LittleEndian, t.Toplevel); err != nil {
		return nil, err
	}
	if err := encodeString(buf, t.AppID); err != nil {
		return nil, err
	}
	if err := encodeString(buf, t.Title); err != nil {
		return nil, err
	}
	encodeBool(buf, t.Activated)
	if err := encodeHandles(buf, t.Workspaces); err != nil {
		return nil, err
	}
	if len(t.Geometries) > 0xFFFF {
		return nil, errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(t.Geometries))); err != nil {
		return nil, err
	}
	for _, g := range t.Geometries {
		if err := binary.Write(buf, binary.LittleEndian, g.Output); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, g.X); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, g.Y); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, g.Width); err != nil {
			return nil, err
		}
		if err := binary.Write(buf, binary.LittleEndian, g.Height); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func DecodeToplevelInfo(b []byte) (ToplevelInfo, error) {
	var t ToplevelInfo
	if len(b) < 4 {
		return t, errPayloadShort
	}
	t.Toplevel = binary.LittleEndian.Uint32(b[:4])
	appID, rest, err := decodeString(b[4:])
	if err != nil {
		return t, err
	}
	t.AppID = appID
	title, rest, err := decodeString(rest)
	if err != nil {
		return t, err
	}
	t.Title = title
	if len(rest) < 1 {
		return t, errPayloadShort
	}
	t.Activated = rest[0] != 0
	workspaces, rest, err := decodeHandles(rest[1:])
	if err != nil {
		return t, err
	}
	t.Workspaces = workspaces
	if len(rest) < 2 {
		return t, errPayloadShort
	}
	count := binary.LittleEndian.Uint16(rest[:2])
	rest = rest[2:]
	if len(rest) < int(count)*20 {
		return t, errPayloadShort
	}
	if count > 0 {
		t.Geometries = make([]OutputGeometry, count)
	}
	for i := 0; i < int(count); i++ {
		off := i * 20
		t.Geometries[i] = OutputGeometry{
			Output: binary.LittleEndian.Uint32(rest[off : off+4]),
			X:      int32(binary.LittleEndian.Uint32(rest[off+4 : off+8])),
			Y:      int32(binary.LittleEndian.Uint32(rest[off+8 : off+12])),
			Width:  int32(binary.LittleEndian.Uint32(rest[off+12 : off+16])),
			Height: int32(binary.LittleEndian.Uint32(rest[off+16 : off+20])),
		}
	}
	if len(rest) != int(count)*20 {
		return t, errExtraBytes
	}
	return t, nil
}

func EncodeToplevelNew(t ToplevelNew) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 4))
	if err := binary.Write(buf, binary.LittleEndian, t.Toplevel); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeToplevelNew(b []byte) (ToplevelNew, error) {
	var t ToplevelNew
	if len(b) < 4 {
		return t, errPayloadShort
	}
	t.Toplevel = binary.LittleEndian.Uint32(b[:4])
	return t, nil
}

func EncodeToplevelUpdate(t ToplevelUpdate) ([]byte, error) {
	return EncodeToplevelNew(ToplevelNew(t))
}

func DecodeToplevelUpdate(b []byte) (ToplevelUpdate, error) {
	t, err := DecodeToplevelNew(b)
	return ToplevelUpdate(t), err
}

func EncodeToplevelClosed(t ToplevelClosed) ([]byte, error) {
	return EncodeToplevelNew(ToplevelNew(t))
}

func DecodeToplevelClosed(b []byte) (ToplevelClosed, error) {
	t, err := DecodeToplevelNew(b)
	return ToplevelClosed(t), err
}

// EncodeMessage serialises any wire message to its payload bytes.
func EncodeMessage(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case Hello:
		return EncodeHello(msg)
	case Welcome:
		return EncodeWelcome(msg)
	case OutputNew:
		return EncodeOutputNew(msg)
	case OutputUpdate:
		return EncodeOutputUpdate(msg)
	case OutputDestroyed:
		return EncodeOutputDestroyed(msg)
	case WorkspaceGroup:
		return EncodeWorkspaceGroup(msg)
	case WorkspaceGroupRemoved:
		return EncodeWorkspaceGroupRemoved(msg)
	case WorkspaceInfo:
		return EncodeWorkspaceInfo(msg)
	case WorkspacesDone:
		return EncodeWorkspacesDone(msg)
	case ToplevelInfo:
		return EncodeToplevelInfo(msg)
	case ToplevelNew:
		return EncodeToplevelNew(msg)
	case ToplevelUpdate:
		return EncodeToplevelUpdate(msg)
	case ToplevelClosed:
		return EncodeToplevelClosed(msg)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, m)
	}
}

// DecodeMessage deserialises a payload according to the header type.
func DecodeMessage(hdr Header, payload []byte) (Message, error) {
	switch hdr.Type {
	case MsgHello:
		return DecodeHello(payload)
	case MsgWelcome:
		return DecodeWelcome(payload)
	case MsgOutputNew:
		return DecodeOutputNew(payload)
	case MsgOutputUpdate:
		return DecodeOutputUpdate(payload)
	case MsgOutputDestroyed:
		return DecodeOutputDestroyed(payload)
	case MsgWorkspaceGroup:
		return DecodeWorkspaceGroup(payload)
	case MsgWorkspaceGroupRemoved:
		return DecodeWorkspaceGroupRemoved(payload)
	case MsgWorkspaceInfo:
		return DecodeWorkspaceInfo(payload)
	case MsgWorkspacesDone:
		return DecodeWorkspacesDone(payload)
	case MsgToplevelInfo:
		return DecodeToplevelInfo(payload)
	case MsgToplevelNew:
		return DecodeToplevelNew(payload)
	case MsgToplevelUpdate:
		return DecodeToplevelUpdate(payload)
	case MsgToplevelClosed:
		return DecodeToplevelClosed(payload)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessage, hdr.Type)
	}
}
