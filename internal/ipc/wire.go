// Package ipc implements the wire protocol external tools (status bars,
// CLI clients sending a bare command line, `i3-msg`-compatible tools)
// speak to axewm over a UNIX socket, generalizing the event-stream/
// request-socket split calico32-waybar-niri-windows' niri client uses
// (JSON-lines over a second connection for actions) to the binary i3-ipc
// wire framing, with the request/response shape thiagokokada-hyprland-go's
// client confirms for this class of protocol.
package ipc

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// magic is the 6-byte i3-ipc framing preamble every message starts with.
var magic = []byte("i3-ipc")

// MessageType is the request/reply type field; event pushes use the same
// numbering with the high bit set (eventBit).
type MessageType uint32

const (
	TypeCommand MessageType = iota
	TypeGetWorkspaces
	TypeSubscribe
	TypeGetOutputs
	TypeGetTree
	TypeGetMarks
	TypeGetBarConfig
	TypeGetVersion
)

// eventBit marks a pushed event message rather than a request/reply: event
// pushes carry the same type numbering with the high bit set.
const eventBit MessageType = 1 << 31

// EventType names one of the five event push kinds axewm and i3 agree on.
type EventType uint32

const (
	EventWorkspace EventType = iota
	EventOutput
	_ // mode is reserved but axewm has no binding-mode concept to push for
	EventWindow
	EventBarconfigUpdate
)

var eventNames = map[EventType]string{
	EventWorkspace:       "workspace",
	EventOutput:          "output",
	EventWindow:          "window",
	EventBarconfigUpdate: "barconfig_update",
}

func (e EventType) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", uint32(e))
}

// writeMessage encodes one frame: 6-byte magic, little-endian uint32
// length, little-endian uint32 type, then the raw payload bytes.
func writeMessage(w io.Writer, typ MessageType, payload []byte) error {
	var hdr bytes.Buffer
	hdr.Write(magic)
	if err := binary.Write(&hdr, binary.LittleEndian, uint32(len(payload))); err != nil {
		return err
	}
	if err := binary.Write(&hdr, binary.LittleEndian, uint32(typ)); err != nil {
		return err
	}
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readMessage decodes one frame from r, blocking until a full header and
// payload have arrived.
func readMessage(r io.Reader) (MessageType, []byte, error) {
	var hdr [14]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, nil, err
	}
	if !bytes.Equal(hdr[:6], magic) {
		return 0, nil, fmt.Errorf("ipc: bad magic %q", hdr[:6])
	}
	length := binary.LittleEndian.Uint32(hdr[6:10])
	typ := MessageType(binary.LittleEndian.Uint32(hdr[10:14]))
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return typ, payload, nil
}

func writeJSON(w io.Writer, typ MessageType, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeMessage(w, typ, b)
}

var nameEvents = map[string]EventType{
	"workspace":        EventWorkspace,
	"output":           EventOutput,
	"window":           EventWindow,
	"barconfig_update": EventBarconfigUpdate,
}

// parseSubscribeEvents decodes a SUBSCRIBE request payload, a JSON array
// of event name strings, ignoring names axewm does not push.
func parseSubscribeEvents(payload []byte) []EventType {
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil
	}
	var out []EventType
	for _, n := range names {
		if e, ok := nameEvents[n]; ok {
			out = append(out, e)
		}
	}
	return out
}
