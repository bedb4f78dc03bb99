package cli

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// loadPolygon reads a task area from a GeoJSON file. A Feature, a bare
// geometry, or the first feature of a collection are all accepted; the
// geometry must be a Polygon (the first polygon of a MultiPolygon also
// works, matching how task areas are exported).
func loadPolygon(path string) (orb.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task area: %w", err)
	}

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		return polygonOf(fc.Features[0].Geometry, path)
	}
	if f, err := geojson.UnmarshalFeature(data); err == nil {
		return polygonOf(f.Geometry, path)
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("parsing task area %s: %w", path, err)
	}
	return polygonOf(g.Geometry(), path)
}

func polygonOf(g orb.Geometry, path string) (orb.Polygon, error) {
	switch geom := g.(type) {
	case orb.Polygon:
		return geom, nil
	case orb.MultiPolygon:
		if len(geom) > 0 {
			return geom[0], nil
		}
	}
	return nil, fmt.Errorf("task area %s: geometry is %s, want Polygon", path, g.GeoJSONType())
}
