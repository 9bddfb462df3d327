package sentinel

import "fmt"

// Sentinel-2 L2A asset keys for the bands the pipeline consumes.
const (
	BandBlue  = "B02"
	BandGreen = "B03"
	BandRed   = "B04"
	BandNIR   = "B08"
)

// AnalysisBands are required for the turbidity and water indices.
var AnalysisBands = []string{BandGreen, BandRed, BandNIR}

// CompositeBands additionally pull blue for the true-color rendering.
var CompositeBands = []string{BandBlue, BandGreen, BandRed, BandNIR}

// BandGrid is one band's reflectance raster after decimation, row-major.
type BandGrid struct {
	Width  int
	Height int
	Data   []float64
}

// NewBandGrid allocates a zeroed grid.
func NewBandGrid(width, height int) *BandGrid {
	return &BandGrid{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// At returns the value at column x, row y.
func (g *BandGrid) At(x, y int) float64 {
	return g.Data[y*g.Width+x]
}

// Set writes the value at column x, row y.
func (g *BandGrid) Set(x, y int, v float64) {
	g.Data[y*g.Width+x] = v
}

// SameShape reports whether two grids are co-registered.
func (g *BandGrid) SameShape(o *BandGrid) bool {
	return o != nil && g.Width == o.Width && g.Height == o.Height
}

// checkShapes verifies that every band of a scene shares one shape. The
// reader guarantees this for its own output; the check also guards callers
// assembling grids by hand.
func checkShapes(bands map[string]*BandGrid, names ...string) error {
	var ref *BandGrid
	var refName string
	for _, name := range names {
		g, ok := bands[name]
		if !ok || g == nil {
			return fmt.Errorf("%w: band %s missing", ErrBandUnavailable, name)
		}
		if ref == nil {
			ref, refName = g, name
			continue
		}
		if !ref.SameShape(g) {
			return fmt.Errorf("%w: band %s is %dx%d, band %s is %dx%d",
				ErrGridMismatch, refName, ref.Width, ref.Height, name, g.Width, g.Height)
		}
	}
	return nil
}
