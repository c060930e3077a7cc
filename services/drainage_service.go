package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/paulmach/orb"

	"drainage-route-server/models"
	"drainage-route-server/network"
	"drainage-route-server/routing"
)

var (
	ErrNetworkNotFound = errors.New("network not found")
	ErrUnknownFacility = errors.New("unknown facility")
	ErrInvalidKind     = errors.New("invalid facility kind")
)

type Options struct {
	SnapshotDir   string
	SnapPrecision int
	SpatialIndex  bool
	BatchWorkers  int
}

// DrainageService answers nearest facility queries over the loaded networks.
type DrainageService struct {
	opts  Options
	build func(*network.Network) (*routing.Graph, error)

	mu       sync.Mutex
	networks map[string]*network.Network
	cache    *routing.GraphCache
	matchers map[string]*routing.Matcher
}

func NewDrainageService(networks map[string]*network.Network, opts Options) *DrainageService {
	if opts.BatchWorkers < 1 {
		opts.BatchWorkers = 1
	}
	s := &DrainageService{
		networks: networks,
		cache:    routing.NewGraphCache(),
		opts:     opts,
		matchers: make(map[string]*routing.Matcher),
	}
	s.build = s.buildGraph
	return s
}

// Warm builds every network graph up front.
func (s *DrainageService) Warm() error {
	for _, name := range s.names() {
		_, g, err := s.graph(name)
		if err != nil {
			return err
		}
		stats := g.Stats()
		log.Printf("Network %s ready: %d nodes, %d edges, %d components", name, stats.Nodes, stats.Edges, stats.Components)
	}
	return nil
}

// Reload swaps in a new set of networks with an empty graph cache. Builds
// still running against the previous networks land in the discarded cache.
func (s *DrainageService) Reload(networks map[string]*network.Network) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.networks = networks
	s.cache = routing.NewGraphCache()
	s.matchers = make(map[string]*routing.Matcher)
}

func (s *DrainageService) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.networks))
	for name := range s.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup returns a network together with the cache that belongs to the same
// generation of networks.
func (s *DrainageService) lookup(name string) (*network.Network, *routing.GraphCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.networks[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNetworkNotFound, name)
	}
	return n, s.cache, nil
}

func (s *DrainageService) graph(name string) (*network.Network, *routing.Graph, error) {
	n, cache, err := s.lookup(name)
	if err != nil {
		return nil, nil, err
	}
	g, err := cache.GetOrBuild(name, func() (*routing.Graph, error) {
		return s.build(n)
	})
	if err != nil {
		return nil, nil, err
	}
	return n, g, nil
}

// buildGraph reuses a snapshot only when its fingerprint matches the
// network's current pipes and precision; otherwise it rebuilds and rewrites it.
func (s *DrainageService) buildGraph(n *network.Network) (*routing.Graph, error) {
	if s.opts.SnapshotDir == "" {
		return routing.BuildGraph(n.Pipes, routing.WithPrecision(s.opts.SnapPrecision)), nil
	}

	fingerprint := network.Fingerprint(n.Pipes, s.opts.SnapPrecision)
	path := filepath.Join(s.opts.SnapshotDir, n.Name+".gob")
	if _, err := os.Stat(path); err == nil {
		snap, err := network.LoadSnapshot(path)
		switch {
		case err != nil:
			log.Printf("Warning: ignoring snapshot %s: %v", path, err)
		case snap.Fingerprint != fingerprint:
			log.Printf("Snapshot %s is stale, rebuilding graph for %s", path, n.Name)
		default:
			log.Printf("Loaded graph snapshot for %s from %s", n.Name, path)
			return snap.Graph, nil
		}
	}

	g := routing.BuildGraph(n.Pipes, routing.WithPrecision(s.opts.SnapPrecision))
	if err := network.SaveSnapshot(path, network.Snapshot{Fingerprint: fingerprint, Graph: g}); err != nil {
		log.Printf("Warning: could not save snapshot for %s: %v", n.Name, err)
	}
	return g, nil
}

func (s *DrainageService) matcher(name string) (*network.Network, *routing.Matcher, error) {
	n, g, err := s.graph(name)
	if err != nil {
		return nil, nil, err
	}
	if !s.opts.SpatialIndex {
		return n, routing.NewMatcher(g), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.matchers[name]; ok && m.Graph() == g {
		return n, m, nil
	}
	m := routing.NewMatcher(g, routing.WithSpatialIndex())
	s.matchers[name] = m
	return n, m, nil
}

// Summaries lists every network with its graph statistics.
func (s *DrainageService) Summaries() ([]models.NetworkSummary, error) {
	var out []models.NetworkSummary
	for _, name := range s.names() {
		n, g, err := s.graph(name)
		if err != nil {
			return nil, err
		}
		stats := g.Stats()
		out = append(out, models.NetworkSummary{
			Name:       name,
			Nodes:      stats.Nodes,
			Edges:      stats.Edges,
			Components: stats.Components,
			Facilities: len(n.Facilities),
		})
	}
	return out, nil
}

// Facilities returns a network's facilities, optionally filtered by kind.
func (s *DrainageService) Facilities(name, kind string) ([]routing.Facility, error) {
	n, _, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if kind == "" {
		return n.Facilities, nil
	}
	k, err := parseKind(kind, routing.Unknown)
	if err != nil {
		return nil, err
	}
	return n.FacilitiesOfKind(k), nil
}

// Nearest finds the target facility nearest to the request source along a loaded network.
func (s *DrainageService) Nearest(name string, req models.NearestRequest) (models.NearestResult, error) {
	n, m, err := s.matcher(name)
	if err != nil {
		return models.NearestResult{}, err
	}
	targets, err := selectTargets(n, req.TargetIDs, req.TargetKind)
	if err != nil {
		return models.NearestResult{}, err
	}

	res, ok := m.NearestFacility(toPoint(req.Source), targets)
	return toResult(res, ok), nil
}

// Adhoc runs a query over geometry supplied with the request.
func (s *DrainageService) Adhoc(req models.AdhocRequest) models.NearestResult {
	pipes := make([]orb.LineString, 0, len(req.Pipes))
	for _, coords := range req.Pipes {
		line := make(orb.LineString, 0, len(coords))
		for _, c := range coords {
			line = append(line, orb.Point{c[0], c[1]})
		}
		pipes = append(pipes, line)
	}

	targets := make([]routing.Facility, 0, len(req.Targets))
	for _, t := range req.Targets {
		kind := routing.Unknown
		if t.Kind != "" {
			kind = routing.ParseFacilityKind(t.Kind)
		}
		targets = append(targets, routing.Facility{ID: t.ID, Kind: kind, Location: toPoint(t.Location)})
	}

	g := routing.BuildGraph(pipes, routing.WithPrecision(s.opts.SnapPrecision))
	res, ok := routing.NewMatcher(g).NearestFacility(toPoint(req.Source), targets)
	return toResult(res, ok)
}

// Batch matches every facility of the source kind to its nearest target facility.
func (s *DrainageService) Batch(ctx context.Context, name string, req models.BatchRequest) (models.BatchResponse, error) {
	sourceKind, err := parseKind(req.SourceKind, routing.Inlet)
	if err != nil {
		return models.BatchResponse{}, err
	}
	targetKind, err := parseKind(req.TargetKind, routing.Outlet)
	if err != nil {
		return models.BatchResponse{}, err
	}
	n, m, err := s.matcher(name)
	if err != nil {
		return models.BatchResponse{}, err
	}

	sources := n.FacilitiesOfKind(sourceKind)
	results, err := m.NearestForEach(ctx, sources, n.FacilitiesOfKind(targetKind), s.opts.BatchWorkers)
	if err != nil {
		return models.BatchResponse{}, err
	}

	resp := models.BatchResponse{
		Results:     make(map[string]models.NearestResult, len(results)),
		Unreachable: []string{},
	}
	for _, src := range sources {
		res, ok := results[src.ID]
		if !ok {
			resp.Unreachable = append(resp.Unreachable, src.ID)
			continue
		}
		resp.Results[src.ID] = toResult(res, true)
	}
	return resp, nil
}

func selectTargets(n *network.Network, ids []string, kind string) ([]routing.Facility, error) {
	if len(ids) > 0 {
		targets := make([]routing.Facility, 0, len(ids))
		for _, id := range ids {
			f, ok := n.Facility(id)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownFacility, id)
			}
			targets = append(targets, f)
		}
		return targets, nil
	}

	k, err := parseKind(kind, routing.Outlet)
	if err != nil {
		return nil, err
	}
	return n.FacilitiesOfKind(k), nil
}

func parseKind(input string, fallback routing.FacilityKind) (routing.FacilityKind, error) {
	if input == "" {
		return fallback, nil
	}
	k := routing.ParseFacilityKind(input)
	if k == routing.Unknown {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, input)
	}
	return k, nil
}

func toPoint(l models.Location) orb.Point {
	return orb.Point{l.Longitude, l.Latitude}
}

func toResult(res routing.Result, ok bool) models.NearestResult {
	if !ok {
		return models.NearestResult{Found: false}
	}
	return models.NearestResult{
		Found:           true,
		NearestTargetID: res.NearestTargetID,
		DistanceMeters:  res.DistanceMeters,
		SourceNodeID:    res.SourceNodeID,
		TargetNodeID:    res.TargetNodeID,
		Path:            res.Path,
	}
}
