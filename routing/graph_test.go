package routing

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

// metersPerMilliDegree is the haversine length of 0.001 degrees on a meridian.
const metersPerMilliDegree = 111.3195

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestBuildGraphEmpty(t *testing.T) {
	g := BuildGraph(nil)
	if g.NodeCount() != 0 || g.EdgeCount() != 0 {
		t.Fatalf("expected empty graph, got %d nodes %d edges", g.NodeCount(), g.EdgeCount())
	}
	if g.Components() != 0 {
		t.Errorf("expected 0 components, got %d", g.Components())
	}
}

func TestBuildGraphSkipsDegeneratePolylines(t *testing.T) {
	g := BuildGraph([]orb.LineString{
		{},
		{{1, 1}},
		{{0, 0}, {0, 0.001}},
	})
	if g.NodeCount() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("expected 2 directed edges, got %d", g.EdgeCount())
	}
	if _, ok := g.Nodes["n0"]; !ok {
		t.Errorf("expected first node to be n0, got order %v", g.Order)
	}
}

func TestBuildGraphSizeInvariant(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {0, 0.001}, {0, 0.002}, {0.001, 0.002}},
		{{0, 0.002}, {-0.001, 0.002}},
		{{5, 5}, {5, 5.001}},
	}
	g := BuildGraph(lines)

	distinct := make(map[orb.Point]bool)
	segments := 0
	for _, l := range lines {
		for _, p := range l {
			distinct[p] = true
		}
		segments += len(l) - 1
	}

	if g.NodeCount() != len(distinct) {
		t.Errorf("expected %d nodes, got %d", len(distinct), g.NodeCount())
	}
	if g.EdgeCount() != 2*segments {
		t.Errorf("expected %d directed edges, got %d", 2*segments, g.EdgeCount())
	}
	if len(g.Order) != g.NodeCount() {
		t.Errorf("order has %d ids for %d nodes", len(g.Order), g.NodeCount())
	}
	if g.Components() != 2 {
		t.Errorf("expected 2 components, got %d", g.Components())
	}
}

func TestBuildGraphEdgesAreSymmetricAndNonNegative(t *testing.T) {
	g := BuildGraph([]orb.LineString{
		{{-73.57, 45.50}, {-73.571, 45.501}, {-73.572, 45.5005}},
		{{-73.572, 45.5005}, {-73.57, 45.50}},
	})

	for from, edges := range g.Edges {
		if _, ok := g.Nodes[from]; !ok {
			t.Fatalf("adjacency key %s is not a node", from)
		}
		for _, e := range edges {
			if e.Weight < 0 {
				t.Errorf("negative weight on %s->%s: %f", e.From, e.To, e.Weight)
			}
			if _, ok := g.Nodes[e.To]; !ok {
				t.Fatalf("edge %s->%s points to a missing node", e.From, e.To)
			}
			found := false
			for _, back := range g.Edges[e.To] {
				if back.To == from && back.Weight == e.Weight {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("missing reverse edge for %s->%s", e.From, e.To)
			}
		}
	}
}

func TestBuildGraphJunctionMerge(t *testing.T) {
	g := BuildGraph([]orb.LineString{
		{{0, 0}, {0, 0.001}},
		{{0, 0.001}, {0.001, 0.001}},
	})
	if g.NodeCount() != 3 {
		t.Fatalf("expected junction to merge into 3 nodes, got %d", g.NodeCount())
	}
	junction := g.Order[1]
	if len(g.Edges[junction]) != 2 {
		t.Errorf("expected junction degree 2, got %d", len(g.Edges[junction]))
	}
}

func TestBuildGraphExactMatchKeepsNearMissesApart(t *testing.T) {
	lines := []orb.LineString{
		{{0, 0}, {0, 0.001}},
		{{0, 0.0010000001}, {0.001, 0.001}},
	}

	exact := BuildGraph(lines)
	if exact.NodeCount() != 4 || exact.Components() != 2 {
		t.Errorf("exact build: expected 4 nodes in 2 components, got %d nodes %d components",
			exact.NodeCount(), exact.Components())
	}

	rounded := BuildGraph(lines, WithPrecision(7))
	if rounded.NodeCount() != 3 || rounded.Components() != 1 {
		t.Errorf("rounded build: expected 3 nodes in 1 component, got %d nodes %d components",
			rounded.NodeCount(), rounded.Components())
	}
	if got := rounded.Nodes[rounded.Order[1]].Coord; got != (orb.Point{0, 0.001}) {
		t.Errorf("merged node should keep first-seen coordinate, got %v", got)
	}
}

func TestGeodesicDistanceMilliDegree(t *testing.T) {
	d := GeodesicDistance(orb.Point{0, 0}, orb.Point{0, 0.001})
	if !almostEqual(d, metersPerMilliDegree, 0.01) {
		t.Errorf("expected ~%.4f m, got %.4f m", metersPerMilliDegree, d)
	}
}

func TestGraphStats(t *testing.T) {
	g := BuildGraph([]orb.LineString{{{0, 0}, {0, 0.001}, {0, 0.002}}})
	stats := g.Stats()
	if stats.Nodes != 3 || stats.Edges != 4 || stats.Components != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	var nilGraph *Graph
	if nilGraph.Stats() != (GraphStats{}) {
		t.Errorf("nil graph should report zero stats")
	}
}
