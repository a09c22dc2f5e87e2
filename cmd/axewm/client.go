package main

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/BurntSushi/xgb"
	xp "github.com/BurntSushi/xgb/xproto"
)

// discoverSocketPath finds a running instance's IPC socket the same way
// i3-msg does: connect to the X display and read the I3_SOCKET_PATH
// property axewm's own SetI3Properties wrote to the root window, rather
// than guessing a path (a guessed path breaks the moment two users or two
// displays are in play).
func discoverSocketPath() (string, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return "", fmt.Errorf("connect to X display: %w", err)
	}
	defer conn.Close()

	setup := xp.Setup(conn)
	if len(setup.Roots) == 0 {
		return "", fmt.Errorf("X setup has no roots")
	}
	root := setup.Roots[0].Root

	atomName := "I3_SOCKET_PATH"
	atomReply, err := xp.InternAtom(conn, true, uint16(len(atomName)), atomName).Reply()
	if err != nil {
		return "", fmt.Errorf("intern I3_SOCKET_PATH: %w", err)
	}
	if atomReply.Atom == xp.AtomNone {
		return "", fmt.Errorf("no axewm instance is running (I3_SOCKET_PATH unset)")
	}

	prop, err := xp.GetProperty(conn, false, root, atomReply.Atom, xp.AtomString, 0, (1<<32)-1).Reply()
	if err != nil {
		return "", fmt.Errorf("read I3_SOCKET_PATH: %w", err)
	}
	if prop.ValueLen == 0 {
		return "", fmt.Errorf("no axewm instance is running (I3_SOCKET_PATH empty)")
	}
	return string(prop.Value), nil
}

// sendCommand dials the running instance's socket, sends args joined by
// spaces as a single COMMAND request, and prints the error of every failing
// entry in the reply (or the raw reply, if it is not a list of results).
// It reports whether every entry succeeded.
func sendCommand(socketPath string, args []string) (bool, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	payload := strings.Join(args, " ")
	if err := writeMessage(conn, typeCommand, []byte(payload)); err != nil {
		return false, err
	}
	_, reply, err := readMessage(conn)
	if err != nil {
		return false, fmt.Errorf("read reply: %w", err)
	}

	var results []struct {
		Success bool   `json:"success"`
		Error   string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(reply, &results); err != nil {
		fmt.Println(string(reply))
		return false, nil
	}
	ok := true
	for _, r := range results {
		if !r.Success {
			ok = false
			fmt.Printf("error: %s\n", r.Error)
		}
	}
	return ok, nil
}

func queryReply(socketPath string, typ messageType) ([]byte, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := writeMessage(conn, typ, nil); err != nil {
		return nil, err
	}
	_, reply, err := readMessage(conn)
	return reply, err
}
