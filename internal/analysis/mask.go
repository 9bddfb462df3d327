package analysis

import (
	"github.com/AgyeDark/galamsey-sentinel/internal/sentinel"
)

// WaterMask flags pixels whose NDWI strictly exceeds the threshold. NaN
// never qualifies, so index holes stay dry.
func WaterMask(ndwi *sentinel.BandGrid, threshold float64) []bool {
	mask := make([]bool, len(ndwi.Data))
	for i, v := range ndwi.Data {
		mask[i] = v > threshold
	}
	return mask
}

// SelectWaterNDTI gathers the turbidity values over pixels the water mask
// selects. The result's length is the scene's water pixel count for the
// minimum-extent guard; NaN entries stay in and drop out of the mean only.
func SelectWaterNDTI(ig *sentinel.IndexGrid, threshold float64) ([]float64, error) {
	if err := ig.Validate(); err != nil {
		return nil, err
	}
	samples := make([]float64, 0, len(ig.NDTI.Data)/4)
	for i, ndwi := range ig.NDWI.Data {
		if ndwi > threshold {
			samples = append(samples, ig.NDTI.Data[i])
		}
	}
	return samples, nil
}
