package depwalk

import "github.com/packraft/packraft/pkg/feed"

// Graph is the dependency graph a walk traversed, for rendering and
// inspection. Nodes are deduplicated by id and version; a diamond that the
// walk probed twice appears once here.
type Graph struct {
	Nodes []Node
	Edges []Edge

	index map[string]int
	edges map[[2]string]bool
}

// Node is one package version in the graph.
type Node struct {
	ID        string
	Version   string
	Installed bool
}

// Key is the node's `id@version` identity.
func (n Node) Key() string { return n.ID + "@" + n.Version }

// Edge is a dependency relation between two node keys.
type Edge struct {
	From, To string
}

func newGraph() *Graph {
	return &Graph{index: make(map[string]int), edges: make(map[[2]string]bool)}
}

func (g *Graph) addNode(it *feed.Item, installed bool) {
	n := Node{ID: it.ID, Version: it.Version, Installed: installed}
	if i, ok := g.index[n.Key()]; ok {
		if installed {
			g.Nodes[i].Installed = true
		}
		return
	}
	g.index[n.Key()] = len(g.Nodes)
	g.Nodes = append(g.Nodes, n)
}

func (g *Graph) addEdge(from, to *feed.Item) {
	e := Edge{From: from.ID + "@" + from.Version, To: to.ID + "@" + to.Version}
	if g.edges[[2]string{e.From, e.To}] {
		return
	}
	g.edges[[2]string{e.From, e.To}] = true
	g.Edges = append(g.Edges, e)
}
