package routing

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Node represents a vertex of the drainage network (a pipe vertex or junction).
type Node struct {
	ID    string    // Allocated in first-seen order: n0, n1, ...
	Coord orb.Point // Longitude/latitude in WGS84 degrees
}

// Edge represents a directed connection between two nodes
type Edge struct {
	From   string  // ID of the starting node
	To     string  // ID of the ending node
	Weight float64 // Geodesic length in meters
}

// Graph is an undirected pipe network stored as a directed adjacency list
// with one edge per direction. It is never mutated after BuildGraph returns.
type Graph struct {
	Nodes map[string]*Node   // Map of node IDs to node objects
	Edges map[string][]*Edge // Map of node IDs to outgoing edges
	Order []string           // Node IDs in allocation order
}

func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string][]*Edge),
	}
}

// NodeCount returns the number of distinct nodes.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.Nodes)
}

// EdgeCount returns the number of directed edges (two per pipe segment).
func (g *Graph) EdgeCount() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, edges := range g.Edges {
		n += len(edges)
	}
	return n
}

// Components counts connected components with a breadth-first sweep.
func (g *Graph) Components() int {
	if g == nil {
		return 0
	}
	seen := make(map[string]bool, len(g.Nodes))
	count := 0
	for _, id := range g.Order {
		if seen[id] {
			continue
		}
		count++
		seen[id] = true
		queue := []string{id}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]
			for _, e := range g.Edges[current] {
				if !seen[e.To] {
					seen[e.To] = true
					queue = append(queue, e.To)
				}
			}
		}
	}
	return count
}

// GraphStats summarizes a graph for logging and the networks listing.
type GraphStats struct {
	Nodes      int `json:"nodes"`
	Edges      int `json:"edges"`
	Components int `json:"components"`
}

func (g *Graph) Stats() GraphStats {
	return GraphStats{
		Nodes:      g.NodeCount(),
		Edges:      g.EdgeCount(),
		Components: g.Components(),
	}
}

// GeodesicDistance returns the great-circle distance between two points in meters.
func GeodesicDistance(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b)
}

type buildOptions struct {
	precision int
}

// BuildOption customizes BuildGraph.
type BuildOption func(*buildOptions)

// WithPrecision merges coordinates that are equal once rounded to the given
// number of decimal degrees. A negative value keeps exact equality.
func WithPrecision(decimals int) BuildOption {
	return func(o *buildOptions) {
		o.precision = decimals
	}
}

// BuildGraph converts pipe polylines into a graph, merging vertices that share
// a coordinate into a single node. Polylines with fewer than two coordinates
// are skipped.
func BuildGraph(polylines []orb.LineString, opts ...BuildOption) *Graph {
	o := buildOptions{precision: -1}
	for _, opt := range opts {
		opt(&o)
	}

	g := NewGraph()
	ids := make(map[orb.Point]string)

	resolve := func(p orb.Point) string {
		key := coordinateKey(p, o.precision)
		if id, ok := ids[key]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", len(g.Order))
		ids[key] = id
		g.Nodes[id] = &Node{ID: id, Coord: p}
		g.Order = append(g.Order, id)
		return id
	}

	for _, line := range polylines {
		if len(line) < 2 {
			continue
		}
		for i := 0; i < len(line)-1; i++ {
			fromID := resolve(line[i])
			toID := resolve(line[i+1])
			weight := GeodesicDistance(line[i], line[i+1])

			g.Edges[fromID] = append(g.Edges[fromID], &Edge{From: fromID, To: toID, Weight: weight})
			g.Edges[toID] = append(g.Edges[toID], &Edge{From: toID, To: fromID, Weight: weight})
		}
	}

	return g
}

func coordinateKey(p orb.Point, precision int) orb.Point {
	if precision < 0 {
		return p
	}
	factor := math.Pow(10, float64(precision))
	return orb.Point{
		math.Round(p[0]*factor) / factor,
		math.Round(p[1]*factor) / factor,
	}
}
