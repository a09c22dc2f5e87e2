package ipc

import (
	"github.com/axewm/axewm/internal/focus"
	"github.com/axewm/axewm/internal/tree"
	"github.com/axewm/axewm/internal/workspace"
)

// rectJSON mirrors the {x,y,width,height} shape i3's GET_TREE uses for
// rect/window_rect/deco_rect/geometry.
type rectJSON struct {
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func rectOf(r tree.Rect) rectJSON {
	return rectJSON{X: r.X, Y: r.Y, Width: r.W, Height: r.H}
}

// NodeJSON is one recursive GET_TREE node, matching i3's documented key list.
type NodeJSON struct {
	ID            string     `json:"id"`
	Type          int        `json:"type"`
	Name          string     `json:"name,omitempty"`
	Orientation   string     `json:"orientation"`
	Layout        string     `json:"layout"`
	Percent       *float64   `json:"percent"`
	Rect          rectJSON   `json:"rect"`
	WindowRect    rectJSON   `json:"window_rect"`
	DecoRect      rectJSON   `json:"deco_rect"`
	Geometry      rectJSON   `json:"geometry"`
	Num           *int       `json:"num,omitempty"`
	Urgent        bool       `json:"urgent"`
	Focused       bool       `json:"focused"`
	Mark          string     `json:"mark,omitempty"`
	Window        *uint32    `json:"window"`
	Focus         []string   `json:"focus"`
	Nodes         []NodeJSON `json:"nodes"`
	FloatingNodes []NodeJSON `json:"floating_nodes"`
}

func orientationName(o tree.Orientation) string {
	switch o {
	case tree.Horizontal:
		return "horizontal"
	case tree.Vertical:
		return "vertical"
	}
	return "none"
}

func layoutName(l tree.Layout) string {
	switch l {
	case tree.LayoutStacked:
		return "stacked"
	case tree.LayoutTabbed:
		return "tabbed"
	case tree.LayoutDockarea:
		return "dockarea"
	case tree.LayoutOutput:
		return "output"
	default:
		return "splith"
	}
}

// BuildTree recursively serializes c for a GET_TREE reply, marking
// focused against the focus manager's single focused leaf.
func BuildTree(c *tree.Container, focused *tree.Container) NodeJSON {
	n := NodeJSON{
		ID:          c.ID.String(),
		Type:        int(c.Kind),
		Name:        c.Name,
		Orientation: orientationName(c.Orientation),
		Layout:      layoutName(c.Layout),
		Rect:        rectOf(c.Rect),
		WindowRect:  rectOf(c.WindowRect),
		DecoRect:    rectOf(c.DecoRect),
		Geometry:    rectOf(c.WindowRect),
		Urgent:      c.Urgent,
		Focused:     c == focused,
		Mark:        c.Mark,
	}
	if c.Kind == tree.Workspace || c.Kind == tree.Output {
		num := c.Num
		n.Num = &num
	}
	if c.Percent != 0 {
		p := c.Percent
		n.Percent = &p
	}
	if c.Window != nil {
		w := c.Window.XWin
		n.Window = &w
	}
	for _, fc := range c.FocusStack() {
		n.Focus = append(n.Focus, fc.ID.String())
	}
	for _, child := range c.Children() {
		n.Nodes = append(n.Nodes, BuildTree(child, focused))
	}
	for _, fw := range c.FloatingChildren() {
		n.FloatingNodes = append(n.FloatingNodes, BuildTree(fw, focused))
	}
	return n
}

// workspaceJSON is one GET_WORKSPACES reply entry (i3's documented
// subset: num, name, visible, focused, urgent, rect, output).
type workspaceJSON struct {
	ID      string   `json:"id"`
	Num     int      `json:"num"`
	Name    string   `json:"name"`
	Visible bool     `json:"visible"`
	Focused bool     `json:"focused"`
	Urgent  bool     `json:"urgent"`
	Rect    rectJSON `json:"rect"`
	Output  string   `json:"output"`
}

func BuildWorkspaces(root *tree.Container, ws *workspace.Manager, f *focus.Manager) []workspaceJSON {
	focused := f.FocusedLeaf(root)
	var out []workspaceJSON
	for _, w := range ws.All() {
		out_ := tree.AncestorOfKind(w, tree.Output)
		outName := ""
		if out_ != nil {
			outName = out_.Name
		}
		out = append(out, workspaceJSON{
			ID:      w.ID.String(),
			Num:     w.Num,
			Name:    w.Name,
			Visible: ws.Visible(out_) == w,
			Focused: focused != nil && tree.AncestorOfKind(focused, tree.Workspace) == w,
			Urgent:  w.Urgent,
			Rect:    rectOf(w.Rect),
			Output:  outName,
		})
	}
	return out
}

// outputJSON is one GET_OUTPUTS reply entry.
type outputJSON struct {
	Name             string   `json:"name"`
	Active           bool     `json:"active"`
	CurrentWorkspace string   `json:"current_workspace"`
	Rect             rectJSON `json:"rect"`
}

func BuildOutputs(root *tree.Container, ws *workspace.Manager) []outputJSON {
	var out []outputJSON
	for _, c := range root.Children() {
		if c.Kind != tree.Output {
			continue
		}
		cur := ws.Visible(c)
		name := ""
		if cur != nil {
			name = cur.Name
		}
		out = append(out, outputJSON{Name: c.Name, Active: true, CurrentWorkspace: name, Rect: rectOf(c.Rect)})
	}
	return out
}

// BuildMarks builds the GET_MARKS reply: simply every distinct mark string
// in use.
func BuildMarks(root *tree.Container) []string {
	var out []string
	seen := map[string]bool{}
	for _, c := range allContainers(root) {
		if c.Mark != "" && !seen[c.Mark] {
			seen[c.Mark] = true
			out = append(out, c.Mark)
		}
	}
	return out
}

func allContainers(root *tree.Container) []*tree.Container {
	var out []*tree.Container
	var walk func(c *tree.Container)
	walk = func(c *tree.Container) {
		out = append(out, c)
		for _, ch := range c.Children() {
			walk(ch)
		}
		for _, fw := range c.FloatingChildren() {
			walk(fw)
		}
	}
	walk(root)
	return out
}
