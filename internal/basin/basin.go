// Package basin resolves the area of interest for an analysis run: a named
// preset for one of the monitored rivers, a raw bounding box, or a GeoJSON
// AOI file.
package basin

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Basin is the spatial extent the pipeline scans. The geometry is kept only
// when the basin came from an AOI file; the extent is what the catalog query
// uses either way.
type Basin struct {
	Key    string
	Name   string
	Extent orb.Bound

	geometry orb.Geometry
}

// Monitored river reaches. Bounding boxes are west, south, east, north in
// degrees, matching the calibrated deployment.
var presets = map[string]Basin{
	"pra": {
		Key:    "pra",
		Name:   "Pra River (Twifo Praso)",
		Extent: orb.Bound{Min: orb.Point{-1.58, 5.55}, Max: orb.Point{-1.52, 5.65}},
	},
	"ankobra": {
		Key:    "ankobra",
		Name:   "Ankobra River (Prestea)",
		Extent: orb.Bound{Min: orb.Point{-2.15, 5.40}, Max: orb.Point{-2.05, 5.50}},
	},
	"birim": {
		Key:    "birim",
		Name:   "Birim River (Kyebi)",
		Extent: orb.Bound{Min: orb.Point{-0.55, 6.10}, Max: orb.Point{-0.45, 6.20}},
	},
	"offin": {
		Key:    "offin",
		Name:   "Offin River (Dunkwa)",
		Extent: orb.Bound{Min: orb.Point{-1.85, 5.90}, Max: orb.Point{-1.75, 6.00}},
	},
	"white-volta": {
		Key:    "white-volta",
		Name:   "White Volta (Pwalugu)",
		Extent: orb.Bound{Min: orb.Point{-0.85, 10.58}, Max: orb.Point{-0.83, 10.60}},
	},
}

// Preset looks up a monitored basin by key.
func Preset(key string) (Basin, error) {
	b, ok := presets[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		keys := make([]string, 0, len(presets))
		for k := range presets {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return Basin{}, fmt.Errorf("unknown basin %q, available: %s", key, strings.Join(keys, ", "))
	}
	return b, nil
}

// Presets returns all monitored basins sorted by key.
func Presets() []Basin {
	basins := make([]Basin, 0, len(presets))
	for _, b := range presets {
		basins = append(basins, b)
	}
	sort.Slice(basins, func(i, j int) bool { return basins[i].Key < basins[j].Key })
	return basins
}

// FromBBox builds a basin from a raw west,south,east,north box.
func FromBBox(west, south, east, north float64) (Basin, error) {
	b := Basin{
		Key:    "custom",
		Name:   fmt.Sprintf("Custom area (%.4f,%.4f,%.4f,%.4f)", west, south, east, north),
		Extent: orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}},
	}
	if err := ValidateExtent(b.Extent); err != nil {
		return Basin{}, err
	}
	return b, nil
}

// FromGeoJSON loads the first feature of an AOI file and uses its bound as
// the basin extent. The feature geometry is retained so the rainfall context
// can use the true centroid rather than the box center.
func FromGeoJSON(path string) (Basin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Basin{}, fmt.Errorf("failed to read AOI file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return Basin{}, fmt.Errorf("invalid GeoJSON in %s: %w", path, err)
	}
	if len(fc.Features) == 0 {
		return Basin{}, fmt.Errorf("no features in AOI file %s", path)
	}

	feat := fc.Features[0]
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if v, ok := feat.Properties["name"].(string); ok && v != "" {
		name = v
	}

	b := Basin{
		Key:      "aoi",
		Name:     name,
		Extent:   feat.Geometry.Bound(),
		geometry: feat.Geometry,
	}
	if err := ValidateExtent(b.Extent); err != nil {
		return Basin{}, fmt.Errorf("AOI %s: %w", path, err)
	}
	return b, nil
}

// Centroid returns the representative point for the basin, used by the
// rainfall context. AOI basins use the geometric centroid; boxes use the
// center.
func (b Basin) Centroid() orb.Point {
	if b.geometry != nil {
		centroid, area := planar.CentroidArea(b.geometry)
		if area > 0 {
			return centroid
		}
	}
	return b.Extent.Center()
}

// ValidateExtent rejects degenerate or out-of-range boxes before they reach
// the catalog.
func ValidateExtent(extent orb.Bound) error {
	west, south := extent.Min.X(), extent.Min.Y()
	east, north := extent.Max.X(), extent.Max.Y()

	if west >= east {
		return fmt.Errorf("invalid extent: west (%f) must be less than east (%f)", west, east)
	}
	if south >= north {
		return fmt.Errorf("invalid extent: south (%f) must be less than north (%f)", south, north)
	}
	if west < -180 || east > 180 || south < -90 || north > 90 {
		return fmt.Errorf("extent (%f,%f,%f,%f) outside geographic range", west, south, east, north)
	}
	return nil
}
