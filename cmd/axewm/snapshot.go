package main

import (
	"encoding/json"
	"os"

	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

// snapshotWorkspace is one workspace's placement, the part of layout state
// that matters for --restart/-L: which output each workspace belongs on.
// Window placement itself is reconstructed by adoption rules matching
// against the workspace names restored here, not by replaying geometry,
// since by the time a new process starts every client window has already
// been re-mapped and will arrive through the normal adopt path again.
type snapshotWorkspace struct {
	Name   string `json:"name"`
	Output string `json:"output"`
	Num    int    `json:"num"`
}

type layoutSnapshot struct {
	Workspaces []snapshotWorkspace `json:"workspaces"`
}

// saveSnapshot writes the current workspace/output assignment to path, for
// a subsequent --restart to hand to -L.
func saveSnapshot(path string, root *tree.Container, ws *workspace.Manager) error {
	var snap layoutSnapshot
	for _, w := range ws.All() {
		outName := ""
		if out := tree.AncestorOfKind(w, tree.Output); out != nil {
			outName = out.Name
		}
		snap.Workspaces = append(snap.Workspaces, snapshotWorkspace{Name: w.Name, Output: outName, Num: w.Num})
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// restoreSnapshot pre-creates every workspace on the output it used to
// live on, ahead of window adoption, so windows reconnecting after a
// restart land back where the user left them.
func restoreSnapshot(path string, root *tree.Container, ws *workspace.Manager) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var snap layoutSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return err
	}
	for _, w := range snap.Workspaces {
		out := findOutputByName(root, w.Output)
		if out == nil {
			outputs := root.Children()
			if len(outputs) == 0 {
				continue
			}
			out = outputs[0]
		}
		created := ws.CreateOnOutput(out, w.Name)
		created.Num = w.Num
	}
	return nil
}

func findOutputByName(root *tree.Container, name string) *tree.Container {
	for _, c := range root.Children() {
		if c.Kind == tree.Output && c.Name == name {
			return c
		}
	}
	return nil
}
