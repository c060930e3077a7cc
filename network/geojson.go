// Package network decodes drainage networks (pipes and facilities) from
// GeoJSON and persists built graphs as gob snapshots.
package network

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"drainage-route-server/routing"
)

// Network is the plain geometry of one drainage network.
type Network struct {
	Name       string
	Pipes      []orb.LineString
	Facilities []routing.Facility
}

// Outlets returns the outlet facilities.
func (n *Network) Outlets() []routing.Facility {
	return n.FacilitiesOfKind(routing.Outlet)
}

func (n *Network) FacilitiesOfKind(kind routing.FacilityKind) []routing.Facility {
	return routing.FilterKind(n.Facilities, kind)
}

// Facility looks up a facility by ID.
func (n *Network) Facility(id string) (routing.Facility, bool) {
	for _, f := range n.Facilities {
		if f.ID == id {
			return f, true
		}
	}
	return routing.Facility{}, false
}

// Decode parses a GeoJSON FeatureCollection. LineString and MultiLineString
// features become pipes and Point features become facilities; other
// geometries are ignored.
func Decode(data []byte) (*Network, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse network GeoJSON: %w", err)
	}

	n := &Network{}
	for i, f := range fc.Features {
		if f == nil {
			continue
		}
		switch geom := f.Geometry.(type) {
		case orb.LineString:
			n.Pipes = append(n.Pipes, geom)
		case orb.MultiLineString:
			n.Pipes = append(n.Pipes, geom...)
		case orb.Point:
			n.Facilities = append(n.Facilities, routing.Facility{
				ID:       facilityID(f, i),
				Kind:     facilityKind(f.Properties),
				Location: geom,
			})
		}
	}

	return n, nil
}

func facilityID(f *geojson.Feature, index int) string {
	if id, ok := idString(f.Properties["id"]); ok {
		return id
	}
	if id, ok := idString(f.ID); ok {
		return id
	}
	return fmt.Sprintf("facility-%d", index)
}

// idString converts the ID formats seen in exported layers to a string.
func idString(v interface{}) (string, bool) {
	switch id := v.(type) {
	case string:
		if id == "" {
			return "", false
		}
		return id, true
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64), true
	case int:
		return strconv.Itoa(id), true
	case int64:
		return strconv.FormatInt(id, 10), true
	default:
		return "", false
	}
}

func facilityKind(props geojson.Properties) routing.FacilityKind {
	for _, key := range []string{"type", "kind"} {
		if s, ok := props[key].(string); ok {
			if kind := routing.ParseFacilityKind(s); kind != routing.Unknown {
				return kind
			}
		}
	}
	return routing.Unknown
}
