/*
Axewm is a dynamic tiling window manager for X11, built around an i3-shaped
container tree (outputs, workspaces, splits, tabs, stacks, floating windows)
and an i3-compatible IPC socket.


INSTALLATION

Build with "go build ./cmd/axewm" and add the resulting binary as your
~/.xsession's final command, the same way any EWMH-compliant window manager
is started:
	exec /path/to/axewm


USAGE

Axewm manages every top-level window placed under the focused output's
current workspace, arranging them in a split tree that grows
horizontally or vertically depending on which direction you split in.
Floating windows (dialogs, windows that ask to float, or windows explicitly
floated) sit above the tiled layer and can be dragged or resized with the
mouse.

Axewm has no built-in key bindings: it runs a command against the tree only
when told to, either over its IPC socket or from an external key-binding
daemon (sxhkd and similar tools work by shelling out to `axewm <command>`,
which is forwarded to the running instance the same way `i3-msg` talks to
i3). The executor implements focus/move/resize/split/layout/floating/
fullscreen/kill/mark/workspace/exec/restart/reload/exit operations, but
this binary installs no parser for the textual command grammar: every
COMMAND request it receives is answered with a single failing entry.


CONFIGURATION

Axewm reads an optional YAML configuration file (-c <path>) for the things
that are not commands: gap and border pixel sizes, floating window size
bounds, a name pool for newly created workspaces, window-to-workspace
assignment rules, and the IPC socket path. Run with -C to validate a
configuration file without starting the window manager.


IPC

Axewm speaks the i3 IPC wire protocol (6-byte "i3-ipc" magic, a
little-endian length and message-type header, then a JSON payload) over a
UNIX socket advertised on the root window's I3_SOCKET_PATH property, so
existing i3-msg-compatible tooling (status bars, scripts) works unmodified.
Run "axewm --get-socketpath" to print the path, or pass a bare command line
as positional arguments to send it to the running instance.


DEVELOPMENT

Run axewm nested under Xephyr while developing:
	Xephyr :9 2>/dev/null &
	DISPLAY=:9 go run ./cmd/axewm
*/
package main
