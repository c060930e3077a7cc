package routing

import (
	"context"
	"strings"
	"sync"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
)

type FacilityKind string

const (
	Inlet      FacilityKind = "inlet"
	Outlet     FacilityKind = "outlet"
	StormDrain FacilityKind = "storm_drain"
	Unknown    FacilityKind = "unknown"
)

func ParseFacilityKind(input string) FacilityKind {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "inlet":
		return Inlet
	case "outlet", "outfall":
		return Outlet
	case "storm_drain", "stormdrain", "storm-drain", "drain":
		return StormDrain
	default:
		return Unknown
	}
}

// Facility is a named point on or near the network.
type Facility struct {
	ID       string       `json:"id"`
	Kind     FacilityKind `json:"kind"`
	Location orb.Point    `json:"location"`
}

// FilterKind returns the facilities of the given kind, preserving order.
func FilterKind(facilities []Facility, kind FacilityKind) []Facility {
	var out []Facility
	for _, f := range facilities {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// Result is the answer to a nearest facility query.
type Result struct {
	NearestTargetID string   `json:"nearest_target_id"`
	DistanceMeters  float64  `json:"distance_meters"`
	SourceNodeID    string   `json:"source_node_id"`
	TargetNodeID    string   `json:"target_node_id"`
	Path            []string `json:"path,omitempty"`
}

type matcherOptions struct {
	spatialIndex bool
}

type MatcherOption func(*matcherOptions)

// WithSpatialIndex snaps through a quadtree NodeIndex instead of a linear scan.
func WithSpatialIndex() MatcherOption {
	return func(o *matcherOptions) {
		o.spatialIndex = true
	}
}

// Matcher answers nearest facility queries against one built graph.
// It is safe for concurrent use.
type Matcher struct {
	graph *Graph
	index *NodeIndex
}

func NewMatcher(g *Graph, opts ...MatcherOption) *Matcher {
	var o matcherOptions
	for _, opt := range opts {
		opt(&o)
	}
	m := &Matcher{graph: g}
	if o.spatialIndex {
		m.index = NewNodeIndex(g)
	}
	return m
}

func (m *Matcher) Graph() *Graph { return m.graph }

func (m *Matcher) snap(p orb.Point) (string, float64, bool) {
	if m.index != nil {
		return m.index.NearestWithDistance(p)
	}
	return NearestNodeWithDistance(m.graph, p)
}

type snappedTarget struct {
	facilityID string
	snapDist   float64
}

// NearestFacility snaps source and every target onto the graph and returns
// the target whose snapped node is closest along the network. When several
// targets snap to the same node, the one nearest that node wins and ties keep
// the earlier target.
func (m *Matcher) NearestFacility(source orb.Point, targets []Facility) (Result, bool) {
	if len(targets) == 0 {
		return Result{}, false
	}

	start, _, ok := m.snap(source)
	if !ok {
		return Result{}, false
	}

	byNode := make(map[string]snappedTarget, len(targets))
	targetSet := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		nodeID, d, ok := m.snap(t.Location)
		if !ok {
			continue
		}
		if prev, seen := byNode[nodeID]; seen && prev.snapDist <= d {
			continue
		}
		byNode[nodeID] = snappedTarget{facilityID: t.ID, snapDist: d}
		targetSet[nodeID] = struct{}{}
	}

	match, ok := ShortestDistanceToAny(m.graph, start, targetSet)
	if !ok {
		return Result{}, false
	}

	return Result{
		NearestTargetID: byNode[match.NodeID].facilityID,
		DistanceMeters:  match.Distance,
		SourceNodeID:    start,
		TargetNodeID:    match.NodeID,
		Path:            match.Path,
	}, true
}

// NearestForEach runs NearestFacility for every source on at most workers
// goroutines. Sources without a reachable target are left out of the result.
func (m *Matcher) NearestForEach(ctx context.Context, sources, targets []Facility, workers int) (map[string]Result, error) {
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	results := make(map[string]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, src := range sources {
		if gctx.Err() != nil {
			break
		}
		src := src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, ok := m.NearestFacility(src.Location, targets)
			if !ok {
				return nil
			}
			mu.Lock()
			results[src.ID] = res
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// NearestFacilityDistance builds a graph from polylines and returns the
// target facility nearest to source along the network.
func NearestFacilityDistance(polylines []orb.LineString, source orb.Point, targets []Facility) (Result, bool) {
	return NewMatcher(BuildGraph(polylines)).NearestFacility(source, targets)
}
