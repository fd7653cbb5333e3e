// Package metapop couples independent node simulations through migration.
// Every node owns its model and damping container outright; configuration
// shared between nodes is cloned at build time, never referenced.
package metapop

import (
	"fmt"

	"github.com/epiforge/epidamp/internal/seir"
	"github.com/epiforge/epidamp/internal/solver"
	"github.com/epiforge/epidamp/internal/timeseries"
)

// Node is one simulation region with its own model and state.
type Node struct {
	Model *seir.Model
	state []float64
}

// Edge moves a fixed fraction of each state element from one node to
// another at every exchange step.
type Edge struct {
	From, To  int
	Fractions []float64 // per state element, each in [0, 1]
}

// Graph is a set of nodes coupled by directed migration edges.
type Graph struct {
	nodes []*Node
	edges []Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode registers a node with its initial state and returns its index.
func (g *Graph) AddNode(model *seir.Model, y0 []float64) (int, error) {
	if len(y0) != model.NumElements() {
		return 0, fmt.Errorf("state has %d elements, model needs %d", len(y0), model.NumElements())
	}
	g.nodes = append(g.nodes, &Node{
		Model: model,
		state: append([]float64(nil), y0...),
	})
	return len(g.nodes) - 1, nil
}

// AddEdge registers a migration edge. Fractions must match the node state
// length and stay within [0, 1].
func (g *Graph) AddEdge(from, to int, fractions []float64) error {
	if from < 0 || from >= len(g.nodes) || to < 0 || to >= len(g.nodes) {
		return fmt.Errorf("edge %d->%d references unknown node", from, to)
	}
	if from == to {
		return fmt.Errorf("edge %d->%d is a self loop", from, to)
	}
	if len(fractions) != g.nodes[from].Model.NumElements() {
		return fmt.Errorf("edge %d->%d has %d fractions, node state has %d",
			from, to, len(fractions), g.nodes[from].Model.NumElements())
	}
	for i, f := range fractions {
		if f < 0 || f > 1 {
			return fmt.Errorf("edge %d->%d fraction %d is %v, outside [0, 1]", from, to, i, f)
		}
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Fractions: append([]float64(nil), fractions...)})
	return nil
}

// NumNodes returns the number of registered nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// Simulate advances all nodes from t0 to tmax, applying migration after
// every exchange interval. Returns one recorded series per node.
func (g *Graph) Simulate(t0, tmax, exchangeDt float64, cfg solver.Config) ([]*timeseries.TimeSeries, error) {
	if exchangeDt <= 0 {
		return nil, fmt.Errorf("exchange interval must be positive, got %v", exchangeDt)
	}
	if tmax < t0 {
		return nil, fmt.Errorf("tmax %v is before t0 %v", tmax, t0)
	}

	results := make([]*timeseries.TimeSeries, len(g.nodes))
	for i, n := range g.nodes {
		results[i] = timeseries.New(len(n.state))
		if _, err := results[i].AddTimePointValues(t0, n.state); err != nil {
			return nil, err
		}
	}

	for t := t0; t < tmax; {
		next := t + exchangeDt
		if next > tmax {
			next = tmax
		}

		for i, n := range g.nodes {
			ts, err := n.Model.Simulate(n.state, t, next, cfg)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			copy(n.state, ts.LastValue())
		}

		g.applyMigration()

		for i, n := range g.nodes {
			if _, err := results[i].AddTimePointValues(next, n.state); err != nil {
				return nil, err
			}
		}
		t = next
	}

	return results, nil
}

// applyMigration moves edge fractions between node states. Outflows are
// computed against the pre-exchange states so edge order does not matter.
func (g *Graph) applyMigration() {
	outflows := make([][]float64, len(g.edges))
	for e, edge := range g.edges {
		src := g.nodes[edge.From].state
		flow := make([]float64, len(src))
		for i, f := range edge.Fractions {
			flow[i] = f * src[i]
		}
		outflows[e] = flow
	}
	for e, edge := range g.edges {
		for i, v := range outflows[e] {
			g.nodes[edge.From].state[i] -= v
			g.nodes[edge.To].state[i] += v
		}
	}
}
