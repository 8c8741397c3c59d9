package scene

// NodeListener observes node insertion or removal.
type NodeListener func(n *Node)

// ParentVeto is called before a reparent; returning false cancels it.
type ParentVeto func(change ParentChange) bool

// ParentListener observes a completed reparent.
type ParentListener func(change ParentChange)

type listeners struct {
	nodeAdded      []NodeListener
	nodeRemoved    []NodeListener
	parentChanging []ParentVeto
	parentChanged  []ParentListener
}

func (s *Scene) OnNodeAdded(f NodeListener)       { s.events.nodeAdded = append(s.events.nodeAdded, f) }
func (s *Scene) OnNodeRemoved(f NodeListener)     { s.events.nodeRemoved = append(s.events.nodeRemoved, f) }
func (s *Scene) OnParentChanging(f ParentVeto)    { s.events.parentChanging = append(s.events.parentChanging, f) }
func (s *Scene) OnParentChanged(f ParentListener) { s.events.parentChanged = append(s.events.parentChanged, f) }

func (s *Scene) nodeAdded(n *Node) {
	if n.transient {
		return
	}
	for _, f := range s.events.nodeAdded {
		f(n)
	}
}

func (s *Scene) nodeRemoved(n *Node) {
	if n.transient {
		return
	}
	for _, f := range s.events.nodeRemoved {
		f(n)
	}
}

func (s *Scene) parentChanging(c ParentChange) bool {
	for _, f := range s.events.parentChanging {
		if !f(c) {
			return false
		}
	}
	return true
}

func (s *Scene) parentChanged(c ParentChange) {
	for _, f := range s.events.parentChanged {
		f(c)
	}
}
