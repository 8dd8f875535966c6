package taskqueue

// node carries one queued task through the ring. Nodes are drawn from
// the fixed pool on enqueue and batch-released after execution, so the
// hot path never grows the pool.
type node struct {
	task Task
}

// pool is a fixed-size free stack of nodes. Callers synchronize access
// with the Queue's producer lock.
type pool struct {
	free []*node
	size int
}

func newPool(size int) *pool {
	p := &pool{
		free: make([]*node, size),
		size: size,
	}
	for i := range p.free {
		p.free[i] = &node{}
	}
	return p
}

// acquire pops a free node. Returns nil when the pool is exhausted.
func (p *pool) acquire() *node {
	if len(p.free) == 0 {
		return nil
	}
	n := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return n
}

// release returns nodes to the free stack
func (p *pool) release(nodes []*node) {
	for _, n := range nodes {
		n.task = nil
		p.free = append(p.free, n)
	}
}

// available returns the number of free nodes
func (p *pool) available() int {
	return len(p.free)
}
