// Package geo converts simulation output into simplefeatures geometries for
// downstream visualization: recorded flight paths become 3D line strings,
// stopped-ion clouds become multipoints.
package geo

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/gotrim/gotrim/internal/trajectory"
	"github.com/gotrim/gotrim/internal/vec"
)

// PathLineString converts a recorded flight path into a 3D LineString.
func PathLineString(path []vec.Vec3) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, fmt.Errorf("path must have at least 2 points, got %d", len(path))
	}

	flat := make([]float64, 0, len(path)*3)
	for _, p := range path {
		flat = append(flat, p.X(), p.Y(), p.Z())
	}
	seq := geom.NewSequence(flat, geom.DimXYZ)
	return geom.NewLineString(seq), nil
}

// StoppedCloud collects the rest positions of all ions that stopped inside
// the target into a 3D MultiPoint.
func StoppedCloud(results []trajectory.Result) geom.MultiPoint {
	var points []geom.Point
	for _, res := range results {
		if !res.StoppedInside {
			continue
		}
		c := geom.Coordinates{
			XY:   geom.XY{X: res.Pos.X(), Y: res.Pos.Y()},
			Z:    res.Pos.Z(),
			Type: geom.DimXYZ,
		}
		points = append(points, geom.NewPoint(c))
	}
	return geom.NewMultiPoint(points)
}

// PathWKT renders a recorded path as WKT for tools that ingest text
// geometries.
func PathWKT(path []vec.Vec3) (string, error) {
	ls, err := PathLineString(path)
	if err != nil {
		return "", err
	}
	return ls.AsText(), nil
}
