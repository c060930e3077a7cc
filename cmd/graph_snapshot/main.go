package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"drainage-route-server/network"
	"drainage-route-server/routing"
)

func main() {
	var in string
	var out string
	var precision int
	flag.StringVar(&in, "in", "", "Path to a GeoJSON drainage network")
	flag.StringVar(&out, "out", "", "Path to write the gob graph snapshot (default: <name>.gob next to the input)")
	flag.IntVar(&precision, "precision", -1, "Round coordinates to this many decimal degrees before merging junctions (-1 = exact)")
	flag.Parse()

	if in == "" {
		fmt.Fprintln(os.Stderr, "usage: graph_snapshot -in network.geojson [-out network.gob] [-precision 7]")
		os.Exit(2)
	}

	n, err := network.LoadFile(in)
	if err != nil {
		log.Fatalf("failed to load network: %v", err)
	}

	g := routing.BuildGraph(n.Pipes, routing.WithPrecision(precision))
	stats := g.Stats()
	log.Printf("Built graph for %s: %d nodes, %d edges, %d components", n.Name, stats.Nodes, stats.Edges, stats.Components)
	if stats.Components > 1 {
		log.Printf("Warning: %s has %d disconnected components; check junction coordinates or try -precision", n.Name, stats.Components)
	}

	if out == "" {
		out = filepath.Join(filepath.Dir(in), n.Name+".gob")
	}
	if err := network.SaveSnapshot(out, network.Snapshot{
		Fingerprint: network.Fingerprint(n.Pipes, precision),
		Graph:       g,
	}); err != nil {
		log.Fatalf("failed to write snapshot: %v", err)
	}

	fmt.Printf("Graph snapshot written to %s\n", out)
	fmt.Printf("Summary: pipes=%d facilities=%d outlets=%d\n", len(n.Pipes), len(n.Facilities), len(n.Outlets()))
}
