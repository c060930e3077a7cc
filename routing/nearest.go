package routing

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/quadtree"
)

// NearestNode returns the ID of the graph node closest to p. On equal
// distances the node allocated first wins. It reports false for an empty graph.
func NearestNode(g *Graph, p orb.Point) (string, bool) {
	id, _, ok := NearestNodeWithDistance(g, p)
	return id, ok
}

// NearestNodeWithDistance is NearestNode that also returns the snap distance in meters.
func NearestNodeWithDistance(g *Graph, p orb.Point) (string, float64, bool) {
	if g == nil || len(g.Order) == 0 {
		return "", 0, false
	}

	var nearest string
	minDistance := math.Inf(1)

	for _, id := range g.Order {
		dist := GeodesicDistance(p, g.Nodes[id].Coord)
		if dist < minDistance {
			minDistance = dist
			nearest = id
		}
	}

	return nearest, minDistance, true
}

// indexCandidates is how many planar neighbours are re-ranked geodesically.
const indexCandidates = 8

// indexedNode places a node in an equirectangular plane scaled around the
// network's mean latitude so planar proximity tracks ground distance.
type indexedNode struct {
	id    string
	order int
	plane orb.Point
}

func (n *indexedNode) Point() orb.Point { return n.plane }

// NodeIndex is a quadtree over graph nodes for snapping on large networks.
type NodeIndex struct {
	graph  *Graph
	tree   *quadtree.Quadtree
	cosLat float64
}

// NewNodeIndex indexes every node of g. The graph must not change afterwards.
func NewNodeIndex(g *Graph) *NodeIndex {
	idx := &NodeIndex{graph: g, cosLat: 1}
	if g == nil || len(g.Order) == 0 {
		return idx
	}

	var latSum float64
	for _, id := range g.Order {
		latSum += g.Nodes[id].Coord.Lat()
	}
	idx.cosLat = math.Cos(latSum / float64(len(g.Order)) * math.Pi / 180)

	nodes := make([]*indexedNode, 0, len(g.Order))
	bound := orb.Bound{Min: orb.Point{math.Inf(1), math.Inf(1)}, Max: orb.Point{math.Inf(-1), math.Inf(-1)}}
	for i, id := range g.Order {
		n := &indexedNode{id: id, order: i, plane: idx.project(g.Nodes[id].Coord)}
		nodes = append(nodes, n)
		bound = bound.Extend(n.plane)
	}

	idx.tree = quadtree.New(bound.Pad(1e-9))
	for _, n := range nodes {
		// Points come from the same bound, so Add cannot fail.
		_ = idx.tree.Add(n)
	}
	return idx
}

func (idx *NodeIndex) project(p orb.Point) orb.Point {
	return orb.Point{p.Lon() * idx.cosLat, p.Lat()}
}

// Nearest mirrors NearestNode using the index.
func (idx *NodeIndex) Nearest(p orb.Point) (string, bool) {
	id, _, ok := idx.NearestWithDistance(p)
	return id, ok
}

// NearestWithDistance mirrors NearestNodeWithDistance using the index.
func (idx *NodeIndex) NearestWithDistance(p orb.Point) (string, float64, bool) {
	if idx == nil || idx.tree == nil {
		return "", 0, false
	}

	candidates := idx.tree.KNearest(nil, idx.project(p), indexCandidates)
	if len(candidates) == 0 {
		return "", 0, false
	}

	var best *indexedNode
	minDistance := math.Inf(1)
	for _, c := range candidates {
		n := c.(*indexedNode)
		dist := GeodesicDistance(p, idx.graph.Nodes[n.id].Coord)
		if dist < minDistance || (dist == minDistance && best != nil && n.order < best.order) {
			minDistance = dist
			best = n
		}
	}

	return best.id, minDistance, true
}
