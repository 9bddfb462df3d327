package sentinel

import (
	"image"
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile window for the per-channel contrast stretch.
const (
	stretchLow  = 0.02
	stretchHigh = 0.98
)

// BuildComposite renders a true-color image from the red, green and blue
// bands, each channel stretched between its 2nd and 98th percentile so
// hazy scenes still show the river.
func BuildComposite(bands map[string]*BandGrid) (*image.RGBA, error) {
	if err := checkShapes(bands, BandRed, BandGreen, BandBlue); err != nil {
		return nil, err
	}
	red := bands[BandRed]
	green := bands[BandGreen]
	blue := bands[BandBlue]

	redLo, redHi := stretchBounds(red.Data)
	greenLo, greenHi := stretchBounds(green.Data)
	blueLo, blueHi := stretchBounds(blue.Data)

	img := image.NewRGBA(image.Rect(0, 0, red.Width, red.Height))
	for y := 0; y < red.Height; y++ {
		for x := 0; x < red.Width; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: scaleByte(red.At(x, y), redLo, redHi),
				G: scaleByte(green.At(x, y), greenLo, greenHi),
				B: scaleByte(blue.At(x, y), blueLo, blueHi),
				A: 255,
			})
		}
	}
	return img, nil
}

func stretchBounds(data []float64) (lo, hi float64) {
	vals := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 1
	}
	sort.Float64s(vals)
	lo = stat.Quantile(stretchLow, stat.Empirical, vals, nil)
	hi = stat.Quantile(stretchHigh, stat.Empirical, vals, nil)
	if hi <= lo {
		hi = lo + 1
	}
	return lo, hi
}

func scaleByte(v, lo, hi float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	s := (v - lo) / (hi - lo)
	if s < 0 {
		s = 0
	}
	if s > 1 {
		s = 1
	}
	return uint8(math.Round(s * 255))
}
