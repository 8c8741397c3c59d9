package scene

import (
	"slices"
	"time"

	"github.com/heliumproject/editor-go/internal/metrics"
)

// Graph drives evaluation. It owns no nodes; it only hands out a fresh
// traversal id per pass so a node is visited at most once per pass.
type Graph struct {
	traversalID uint64
}

// TraversalID returns the id of the most recent pass.
func (g *Graph) TraversalID() uint64 { return g.traversalID }

type pass struct {
	id    uint64
	dir   Direction
	path  []ID
	count int
}

// Evaluate evaluates nodes so that each one runs after its ancestors
// (Downstream) or its descendants (Upstream). Clean nodes are skipped.
//
// Meeting a node that is still evaluating returns a *CycleError. The nodes
// on the cycle are left dirty.
func (g *Graph) Evaluate(nodes []*Node, dir Direction) error {
	start := time.Now()
	g.traversalID++
	p := &pass{id: g.traversalID, dir: dir}

	var err error
	for _, n := range nodes {
		if err = g.evaluate(n, p); err != nil {
			break
		}
	}

	metrics.NodesEvaluated.WithLabelValues(dir.String()).Add(float64(p.count))
	metrics.EvaluationDuration.WithLabelValues(dir.String()).Observe(time.Since(start).Seconds())
	return err
}

func (g *Graph) evaluate(n *Node, p *pass) error {
	switch n.state[p.dir] {
	case StateEvaluating:
		metrics.CycleErrors.Inc()
		i := slices.Index(p.path, n.id)
		path := append(slices.Clone(p.path[max(i, 0):]), n.id)
		return &CycleError{Path: path}
	case StateClean:
		return nil
	}
	if n.visitedID == p.id {
		return nil
	}
	n.visitedID = p.id
	n.state[p.dir] = StateEvaluating
	p.path = append(p.path, n.id)
	defer func() { p.path = p.path[:len(p.path)-1] }()

	next := &n.ancestors
	if p.dir == Upstream {
		next = &n.descendants
	}
	for _, id := range next.order {
		dep := n.lookup(id)
		if dep == nil || dep.state[p.dir] == StateClean {
			continue
		}
		if err := g.evaluate(dep, p); err != nil {
			n.state[p.dir] = StateDirty
			return err
		}
	}

	n.Evaluate(p.dir)
	n.state[p.dir] = StateClean
	p.count++
	return nil
}
