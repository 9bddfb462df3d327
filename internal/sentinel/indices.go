package sentinel

import (
	"fmt"
	"math"
)

// IndexGrid carries the two spectral indices of one scene on a shared grid.
type IndexGrid struct {
	NDTI *BandGrid
	NDWI *BandGrid
}

// normalizedDifference is (a-b)/(a+b), NaN where the denominator is zero.
func normalizedDifference(a, b float64) float64 {
	sum := a + b
	if sum == 0 {
		return math.NaN()
	}
	return (a - b) / sum
}

// turbidityIndex contrasts red against green. Suspended sediment pushes
// red reflectance up, so higher means murkier.
func turbidityIndex(red, green float64) float64 {
	return normalizedDifference(red, green)
}

// waterIndex contrasts green against near infrared. Open water absorbs
// NIR, so higher means wetter.
func waterIndex(green, nir float64) float64 {
	return normalizedDifference(green, nir)
}

// ComputeIndexes derives NDTI and NDWI from a scene's band grids. The
// green, red and NIR bands must be present and co-registered.
func ComputeIndexes(bands map[string]*BandGrid) (*IndexGrid, error) {
	if err := checkShapes(bands, AnalysisBands...); err != nil {
		return nil, err
	}
	green := bands[BandGreen]
	red := bands[BandRed]
	nir := bands[BandNIR]

	ndti := NewBandGrid(green.Width, green.Height)
	ndwi := NewBandGrid(green.Width, green.Height)
	for i := range green.Data {
		ndti.Data[i] = turbidityIndex(red.Data[i], green.Data[i])
		ndwi.Data[i] = waterIndex(green.Data[i], nir.Data[i])
	}
	return &IndexGrid{NDTI: ndti, NDWI: ndwi}, nil
}

// Shape returns the common grid dimensions.
func (ig *IndexGrid) Shape() (width, height int) {
	return ig.NDTI.Width, ig.NDTI.Height
}

// Validate checks the grid pair is complete and co-registered.
func (ig *IndexGrid) Validate() error {
	if ig == nil || ig.NDTI == nil || ig.NDWI == nil {
		return fmt.Errorf("index grid incomplete")
	}
	if !ig.NDTI.SameShape(ig.NDWI) {
		return fmt.Errorf("%w: ndti %dx%d, ndwi %dx%d",
			ErrGridMismatch, ig.NDTI.Width, ig.NDTI.Height, ig.NDWI.Width, ig.NDWI.Height)
	}
	return nil
}
