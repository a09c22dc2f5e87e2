package ipc_test

import (
	"bytes"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/config"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/ipc"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

type stubTakeFocuser struct{}

func (stubTakeFocuser) SetInputFocus(leaf *tree.Container) {}
func (stubTakeFocuser) SendTakeFocus(leaf *tree.Container) {}

// writeFrame and readFrame mirror the client-side framing in cmd/axewm/wire.go
// so the test can speak to a Server without importing an unexported helper.
func writeFrame(w net.Conn, typ uint32, payload []byte) error {
	var hdr bytes.Buffer
	hdr.Write([]byte("i3-ipc"))
	var lenBuf, typBuf [4]byte
	putLE(lenBuf[:], uint32(len(payload)))
	putLE(typBuf[:], typ)
	hdr.Write(lenBuf[:])
	hdr.Write(typBuf[:])
	if _, err := w.Write(hdr.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func putLE(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

func readFrame(t *testing.T, r net.Conn) (uint32, []byte) {
	t.Helper()
	hdr := make([]byte, 14)
	if _, err := readFull(r, hdr); err != nil {
		t.Fatalf("read header: %v", err)
	}
	if string(hdr[:6]) != "i3-ipc" {
		t.Fatalf("bad magic %q", hdr[:6])
	}
	length := uint32(hdr[6]) | uint32(hdr[7])<<8 | uint32(hdr[8])<<16 | uint32(hdr[9])<<24
	typ := uint32(hdr[10]) | uint32(hdr[11])<<8 | uint32(hdr[12])<<16 | uint32(hdr[13])<<24
	payload := make([]byte, length)
	if _, err := readFull(r, payload); err != nil {
		t.Fatalf("read payload: %v", err)
	}
	return typ, payload
}

func readFull(r net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// newServer wires a Server against a fresh tree/workspace/focus stack, the
// same shape internal/world.New builds, and listens on a socket under t's
// temp dir.
func newServer(t *testing.T, parser ipc.CommandParser) (*ipc.Server, *tree.Store, string) {
	t.Helper()
	s := tree.New()
	f := focus.New(stubTakeFocuser{})
	w := workspace.New(s, f, config.Default())
	output := w.NewOutput(s.Root, "eDP-1")
	output.Rect = tree.Rect{X: 0, Y: 0, W: 1920, H: 1080}
	ws, _ := w.Get(s.Root, "1")
	w.Show(s.Root, ws)

	server := ipc.New(s, w, f, parser, nil)
	sockPath := filepath.Join(t.TempDir(), "axewm-ipc-test.sock")
	if err := server.Listen(sockPath); err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server, s, sockPath
}

func dial(t *testing.T, path string) net.Conn {
	t.Helper()
	conn, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestGetVersionRepliesWithAxewmName(t *testing.T) {
	_, _, path := newServer(t, nil)
	conn := dial(t, path)

	if err := writeFrame(conn, 7, nil); err != nil { // TypeGetVersion
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, payload := readFrame(t, conn)
	if typ != 7 {
		t.Fatalf("reply type = %d, want 7", typ)
	}
	var v struct {
		HumanReadable string `json:"human_readable"`
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v.HumanReadable != "axewm" {
		t.Fatalf("human_readable = %q, want axewm", v.HumanReadable)
	}
}

func TestGetTreeReturnsRootWithOutputChild(t *testing.T) {
	_, _, path := newServer(t, nil)
	conn := dial(t, path)

	if err := writeFrame(conn, 4, nil); err != nil { // TypeGetTree
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, payload := readFrame(t, conn)
	if typ != 4 {
		t.Fatalf("reply type = %d, want 4", typ)
	}
	var root ipc.NodeJSON
	if err := json.Unmarshal(payload, &root); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(root.Nodes) == 0 {
		t.Fatal("root node should have at least the one output as a child")
	}
}

func TestCommandWithoutParserReportsError(t *testing.T) {
	_, _, path := newServer(t, nil)
	conn := dial(t, path)

	if err := writeFrame(conn, 0, []byte("focus left")); err != nil { // TypeCommand
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, payload := readFrame(t, conn)
	if typ != 0 {
		t.Fatalf("reply type = %d, want 0", typ)
	}
	var reply []struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(payload, &reply); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(reply) != 1 || reply[0].Success {
		t.Fatalf("reply = %+v, want one failing entry", reply)
	}
}

func TestCommandQueuesBatchForPullBatches(t *testing.T) {
	server, _, path := newServer(t, func(payload string) ([]command.Record, error) {
		return []command.Record{{Operations: []command.Operation{{Op: command.OpFocus}}}}, nil
	})
	conn := dial(t, path)

	done := make(chan struct{})
	go func() {
		writeFrame(conn, 0, []byte("focus left"))
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		readFrame(t, conn)
		close(done)
	}()

	var batches []*ipc.Batch
	deadline := time.Now().Add(2 * time.Second)
	for len(batches) == 0 && time.Now().Before(deadline) {
		batches = server.PullBatches()
		if len(batches) == 0 {
			time.Sleep(5 * time.Millisecond)
		}
	}
	if len(batches) != 1 {
		t.Fatalf("got %d batches, want 1", len(batches))
	}
	if len(batches[0].Records) != 1 {
		t.Fatalf("batch has %d records, want 1", len(batches[0].Records))
	}

	batches[0].Done <- []command.Result{{Success: true}}
	<-done
}

func TestSubscribeThenPushDeliversOnlySubscribedEvents(t *testing.T) {
	server, _, path := newServer(t, nil)
	conn := dial(t, path)

	names, _ := json.Marshal([]string{"window"})
	if err := writeFrame(conn, 2, names); err != nil { // TypeSubscribe
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	typ, _ := readFrame(t, conn)
	if typ != 2 {
		t.Fatalf("subscribe reply type = %d, want 2", typ)
	}

	server.Push(ipc.EventOutput, struct{}{})
	server.Push(ipc.EventWindow, struct {
		Change string `json:"change"`
	}{"focus"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	evTyp, payload := readFrame(t, conn)
	if evTyp != uint32(ipc.EventWindow)|1<<31 {
		t.Fatalf("pushed event type = %#x, want window event bit set", evTyp)
	}
	var body struct {
		Change string `json:"change"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Change != "focus" {
		t.Fatalf("change = %q, want focus", body.Change)
	}
}
