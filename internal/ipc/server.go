package ipc

import (
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/axewm/axewm/internal/command"
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

// CommandParser turns a raw COMMAND payload (the string clients send,
// i3's own command grammar) into Records the executor can run. Parsing
// the grammar itself is out of scope here; Server only needs the hook.
type CommandParser func(payload string) ([]command.Record, error)

// Batch is one COMMAND request queued for the reactor's turn: the parsed
// records plus a channel the reactor delivers per-operation Results on
// once it has executed and settled them.
type Batch struct {
	Records []command.Record
	Done    chan []command.Result
}

// Server owns the UNIX socket listener and the set of subscribed event
// connections. GET_TREE/GET_WORKSPACES/GET_OUTPUTS/GET_MARKS are answered
// by reading the Store, Workspace and Focus managers the Server was
// constructed with.
type Server struct {
	Store     *tree.Store
	Workspace *workspace.Manager
	Focus     *focus.Manager
	Parser    CommandParser

	Log *slog.Logger

	listener net.Listener
	path     string

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	pending     []*Batch
}

type subscriber struct {
	conn   net.Conn
	mu     sync.Mutex
	events map[EventType]bool
}

func (s *subscriber) send(typ MessageType, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = writeJSON(s.conn, typ, v)
}

// New creates a Server; call Listen to start accepting connections.
func New(store *tree.Store, ws *workspace.Manager, f *focus.Manager, parser CommandParser, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		Store:       store,
		Workspace:   ws,
		Focus:       f,
		Parser:      parser,
		Log:         log,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Listen binds the UNIX socket at path, removing a stale socket file left
// by a crashed previous instance first, and starts the accept loop in a
// goroutine.
func (s *Server) Listen(path string) error {
	os.Remove(path)
	l, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.listener = l
	s.path = path
	go s.acceptLoop()
	return nil
}

func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	os.Remove(s.path)
	return err
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	sub := &subscriber{conn: conn, events: make(map[EventType]bool)}
	defer func() {
		conn.Close()
		s.mu.Lock()
		delete(s.subscribers, sub)
		s.mu.Unlock()
	}()

	for {
		typ, payload, err := readMessage(conn)
		if err != nil {
			return
		}
		s.handleRequest(sub, typ, payload)
	}
}

func (s *Server) handleRequest(sub *subscriber, typ MessageType, payload []byte) {
	switch typ {
	case TypeCommand:
		s.handleCommand(sub, string(payload))
	case TypeGetWorkspaces:
		sub.send(TypeGetWorkspaces, BuildWorkspaces(s.Store.Root, s.Workspace, s.Focus))
	case TypeGetOutputs:
		sub.send(TypeGetOutputs, BuildOutputs(s.Store.Root, s.Workspace))
	case TypeGetTree:
		sub.send(TypeGetTree, BuildTree(s.Store.Root, s.Focus.FocusedLeaf(s.Store.Root)))
	case TypeGetMarks:
		sub.send(TypeGetMarks, BuildMarks(s.Store.Root))
	case TypeGetBarConfig:
		sub.send(TypeGetBarConfig, struct{}{})
	case TypeGetVersion:
		sub.send(TypeGetVersion, versionReply{Major: 4, Minor: 0, Patch: 0, HumanReadable: "axewm", LoadedConfigFileName: ""})
	case TypeSubscribe:
		s.handleSubscribe(sub, payload)
	}
}

type versionReply struct {
	Major                int    `json:"major"`
	Minor                int    `json:"minor"`
	Patch                int    `json:"patch"`
	HumanReadable        string `json:"human_readable"`
	LoadedConfigFileName string `json:"loaded_config_file_name"`
}

type commandReplyEntry struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleCommand parses the payload, queues it for the reactor's next
// turn, and blocks until the reactor reports back results: command
// records execute after the X event batch on the same turn they arrived
// in, not inline on this goroutine.
func (s *Server) handleCommand(sub *subscriber, payload string) {
	if s.Parser == nil {
		sub.send(TypeCommand, []commandReplyEntry{{Success: false, Error: "ipc: no command parser configured"}})
		return
	}
	records, err := s.Parser(payload)
	if err != nil {
		sub.send(TypeCommand, []commandReplyEntry{{Success: false, Error: err.Error()}})
		return
	}
	if len(records) == 0 {
		sub.send(TypeCommand, []commandReplyEntry{})
		return
	}
	batch := &Batch{Records: records, Done: make(chan []command.Result, 1)}
	s.mu.Lock()
	s.pending = append(s.pending, batch)
	s.mu.Unlock()

	results := <-batch.Done
	reply := make([]commandReplyEntry, len(results))
	for i, r := range results {
		reply[i] = commandReplyEntry{Success: r.Success, Error: r.Error}
	}
	sub.send(TypeCommand, reply)
}

func (s *Server) handleSubscribe(sub *subscriber, payload []byte) {
	names := parseSubscribeEvents(payload)
	s.mu.Lock()
	for _, n := range names {
		sub.events[n] = true
	}
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
	sub.send(TypeSubscribe, struct {
		Success bool `json:"success"`
	}{true})
}

// PullBatches hands the reactor every COMMAND batch queued since the last
// call, for Reactor.Run's "drain queued IPC command records" turn step.
func (s *Server) PullBatches() []*Batch {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := s.pending
	s.pending = nil
	return out
}

// Push delivers an event to every connection subscribed to its kind
// (workspace/output/window/barconfig_update), generalizing taowm's
// complete lack of an IPC layer from scratch, in the shape niri's own
// event-stream push confirms for this protocol family.
func (s *Server) Push(evt EventType, payload any) {
	s.mu.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		if sub.events[evt] {
			subs = append(subs, sub)
		}
	}
	s.mu.Unlock()
	for _, sub := range subs {
		sub.send(MessageType(evt)|eventBit, payload)
	}
}
