package entity

// Vec3 is a position or euler orientation in world units.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Node is a named attachment container. Spawned instances parent under a
// caller node; despawned instances parent under their pool's holding node.
// Single-goroutine use only, like everything else in the entity layer.
type Node struct {
	name     string
	children []*Transform
}

func NewNode(name string) *Node {
	return &Node{name: name}
}

func (n *Node) Name() string { return n.name }

// Len reports how many transforms are currently attached.
func (n *Node) Len() int { return len(n.children) }

func (n *Node) attach(t *Transform) {
	t.slot = len(n.children)
	n.children = append(n.children, t)
}

// detach swap-removes, so attachment order is not stable across detaches.
func (n *Node) detach(t *Transform) {
	last := len(n.children) - 1
	if t.slot < 0 || t.slot > last || n.children[t.slot] != t {
		return
	}
	n.children[t.slot] = n.children[last]
	n.children[t.slot].slot = t.slot
	n.children = n.children[:last]
	t.slot = -1
}

// Transform holds an instance's placement: position, euler orientation, and
// an optional parent node.
type Transform struct {
	Pos    Vec3
	Rot    Vec3
	parent *Node
	slot   int
}

func (t *Transform) Parent() *Node { return t.parent }

// SetParent detaches from the current parent (if any) and attaches to n.
// A nil n leaves the transform detached.
func (t *Transform) SetParent(n *Node) {
	if t.parent == n {
		return
	}
	if t.parent != nil {
		t.parent.detach(t)
	}
	t.parent = n
	if n != nil {
		n.attach(t)
	}
}
