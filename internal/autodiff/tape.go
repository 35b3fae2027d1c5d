package autodiff

// Tape is the topological order of the graph reachable from a root.
//
// Every node appears after all of its children and appears exactly once,
// however many parents share it. Backward replays the tape from the end.
//
// Usage:
//
//	tape := autodiff.NewTape(loss)
//	for step := range steps {
//	    tape.Reset()
//	    if err := tape.Backward(); err != nil {
//	        return err
//	    }
//	}
type Tape struct {
	root  *Scalar
	nodes []*Scalar // dependencies before dependents; root is last
}

// NewTape records the topological order of the graph rooted at root.
func NewTape(root *Scalar) *Tape {
	return &Tape{
		root:  root,
		nodes: TopoSort(root),
	}
}

// Root returns the node the tape was recorded from.
func (t *Tape) Root() *Scalar {
	return t.root
}

// Len returns the number of distinct nodes on the tape.
func (t *Tape) Len() int {
	return len(t.nodes)
}

// Nodes returns a copy of the recorded order.
func (t *Tape) Nodes() []*Scalar {
	out := make([]*Scalar, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Backward seeds the root gradient with 1 and applies each node's local
// derivative rule in reverse topological order.
//
// Gradients are accumulated, never assigned, so a node used by several
// parents receives the sum of every contribution. Call Reset before running
// a second pass over the same nodes.
//
// Returns the first arithmetic fault. The gradients of nodes already visited
// are left as they are and should be discarded.
func (t *Tape) Backward() error {
	t.root.grad = 1.0
	for i := len(t.nodes) - 1; i >= 0; i-- {
		if err := t.nodes[i].propagate(); err != nil {
			return err
		}
	}
	return nil
}

// Reset zeroes the gradient of every node on the tape.
func (t *Tape) Reset() {
	for _, n := range t.nodes {
		n.grad = 0
	}
}

// frame is one level of the explicit DFS stack used by TopoSort.
type frame struct {
	node *Scalar
	next int // index of the next child to visit
}

// TopoSort returns the nodes reachable from root in topological order:
// children before parents, each node once, root last.
//
// The traversal is an iterative post-order DFS, so graph depth is bounded by
// memory rather than by the goroutine stack.
func TopoSort(root *Scalar) []*Scalar {
	if root == nil {
		return nil
	}

	visited := map[*Scalar]struct{}{root: {}}
	order := make([]*Scalar, 0, 16)
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.node.children) {
			child := top.node.children[top.next]
			top.next++
			if _, seen := visited[child]; !seen {
				visited[child] = struct{}{}
				stack = append(stack, frame{node: child})
			}
			continue
		}
		order = append(order, top.node)
		stack = stack[:len(stack)-1]
	}

	return order
}
