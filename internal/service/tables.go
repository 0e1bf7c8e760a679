package service

import (
	"fmt"
	"sort"

	"github.com/ledgerkeep/ledgerkeep/models"
)

// graphNode is one table in the arena; parent edges are indices into the
// same arena.
type graphNode struct {
	table   models.Table
	parents []int
}

// tableGraph holds the table dependency DAG and its topological order. The
// order is computed once at construction; every sync phase iterates it
// unmodified, so prune, plant and pull all see the same parent-before-child
// sequence.
type tableGraph struct {
	nodes []graphNode
	index map[models.Table]int
	order []models.Table
}

// newTableGraph builds the graph from a table -> parent tables declaration
// and computes the topological order with a depth-first walk, parents
// visited before the node is appended. Nodes and each node's parents are
// walked in name order so the result is deterministic. A declared cycle is
// a programming error and fails construction.
func newTableGraph(deps map[models.Table][]models.Table) (*tableGraph, error) {
	names := make([]models.Table, 0, len(deps))
	for table := range deps {
		names = append(names, table)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	g := &tableGraph{
		nodes: make([]graphNode, 0, len(names)),
		index: make(map[models.Table]int, len(names)),
	}
	for i, table := range names {
		g.nodes = append(g.nodes, graphNode{table: table})
		g.index[table] = i
	}

	for i, node := range g.nodes {
		parents := append([]models.Table{}, deps[node.table]...)
		sort.Slice(parents, func(a, b int) bool { return parents[a] < parents[b] })

		for _, parent := range parents {
			j, ok := g.index[parent]
			if !ok {
				return nil, fmt.Errorf("table %s depends on undeclared table %s", node.table, parent)
			}
			g.nodes[i].parents = append(g.nodes[i].parents, j)
		}
	}

	if err := g.sortTopologically(); err != nil {
		return nil, err
	}

	return g, nil
}

const (
	colorWhite = iota // unvisited
	colorGray         // on the current DFS path
	colorBlack        // done
)

func (g *tableGraph) sortTopologically() error {
	colors := make([]int, len(g.nodes))
	g.order = make([]models.Table, 0, len(g.nodes))

	var visit func(i int) error
	visit = func(i int) error {
		switch colors[i] {
		case colorBlack:
			return nil
		case colorGray:
			return fmt.Errorf("%w: at table %s", ErrDependencyCycle, g.nodes[i].table)
		}

		colors[i] = colorGray
		for _, p := range g.nodes[i].parents {
			if err := visit(p); err != nil {
				return err
			}
		}
		colors[i] = colorBlack
		g.order = append(g.order, g.nodes[i].table)

		return nil
	}

	for i := range g.nodes {
		if err := visit(i); err != nil {
			return err
		}
	}

	return nil
}

// Order returns the cached topological order. Callers must not mutate the
// returned slice.
func (g *tableGraph) Order() []models.Table {
	return g.order
}

// mustTableGraph builds the graph over the production dependency
// declaration; the declaration is static, so a failure here is a bug caught
// at startup.
func mustTableGraph() *tableGraph {
	g, err := newTableGraph(models.TableDependencies)
	if err != nil {
		panic(err)
	}
	return g
}
