package output

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"

	"github.com/AgyeDark/galamsey-sentinel/internal/analysis"
	"github.com/AgyeDark/galamsey-sentinel/internal/sentinel"
)

// Display range for the turbidity ramp. River water rarely leaves this
// window and clamping keeps one color scale comparable across scenes.
const (
	heatmapMin = -0.1
	heatmapMax = 0.3
)

const legendHeight = 56

// rampStops walk blue through brown with rising sediment.
var rampStops = []color.RGBA{
	{R: 0, G: 0, B: 255, A: 255},   // Blue
	{R: 0, G: 255, B: 255, A: 255}, // Cyan
	{R: 255, G: 255, B: 0, A: 255}, // Yellow
	{R: 255, G: 0, B: 0, A: 255},   // Red
	{R: 165, G: 42, B: 42, A: 255}, // Brown
}

// maskColor fills everything the water mask excluded.
var maskColor = color.RGBA{R: 16, G: 16, B: 20, A: 255}

func normalizeIndex(value, min, max float64) float64 {
	if max == min {
		return 0
	}
	norm := (value - min) / (max - min)
	if norm < 0 {
		return 0
	}
	if norm > 1 {
		return 1
	}
	return norm
}

func rampColor(norm float64) color.RGBA {
	segments := len(rampStops) - 1
	pos := norm * float64(segments)
	i := int(pos)
	if i >= segments {
		return rampStops[segments]
	}
	ratio := pos - float64(i)
	a, b := rampStops[i], rampStops[i+1]
	return color.RGBA{
		R: uint8(float64(a.R) + (float64(b.R)-float64(a.R))*ratio),
		G: uint8(float64(a.G) + (float64(b.G)-float64(a.G))*ratio),
		B: uint8(float64(a.B) + (float64(b.B)-float64(a.B))*ratio),
		A: 255,
	}
}

// CreateTurbidityHeatmap paints the water pixels of a scene by turbidity
// and everything else near black, with a color bar underneath. Returns
// the written path.
func CreateTurbidityHeatmap(indexes *sentinel.IndexGrid, threshold float64, basinKey string, date time.Time, outputDir string) (string, error) {
	if err := indexes.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}

	width, height := indexes.Shape()
	water := analysis.WaterMask(indexes.NDWI, threshold)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ndti := indexes.NDTI.At(x, y)
			if water[y*width+x] && !math.IsNaN(ndti) {
				img.SetRGBA(x, y, rampColor(normalizeIndex(ndti, heatmapMin, heatmapMax)))
			} else {
				img.SetRGBA(x, y, maskColor)
			}
		}
	}

	dc := gg.NewContext(width, height+legendHeight)
	dc.SetRGB(0.06, 0.06, 0.08)
	dc.Clear()
	dc.DrawImage(img, 0, 0)

	barX := 10.0
	barW := float64(width) - 20.0
	barY := float64(height) + 26
	for i := 0.0; i < barW; i++ {
		c := rampColor(i / barW)
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(barX+i, barY, 1, 12)
		dc.Fill()
	}

	dc.SetRGB(0.9, 0.9, 0.9)
	dc.DrawStringAnchored(fmt.Sprintf("NDTI %s", date.Format("2006-01-02")), barX, float64(height)+12, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", heatmapMin), barX, barY+20, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.1f", heatmapMax), barX+barW, barY+20, 1, 0.5)

	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s_ndti.png", basinKey, date.Format("2006_01_02")))
	if err := dc.SavePNG(outputPath); err != nil {
		return "", fmt.Errorf("failed to save heatmap: %w", err)
	}
	return outputPath, nil
}

// CreateWaterMaskImage renders the mask itself, white water on black
// land, for eyeballing threshold choices.
func CreateWaterMaskImage(indexes *sentinel.IndexGrid, threshold float64, basinKey string, date time.Time, outputDir string) (string, error) {
	if err := indexes.Validate(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}

	width, height := indexes.Shape()
	water := analysis.WaterMask(indexes.NDWI, threshold)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if water[y*width+x] {
				img.SetRGBA(x, y, color.RGBA{R: 255, G: 255, B: 255, A: 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{A: 255})
			}
		}
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s_mask.png", basinKey, date.Format("2006_01_02")))
	if err := gg.SavePNG(outputPath, img); err != nil {
		return "", fmt.Errorf("failed to save water mask: %w", err)
	}
	return outputPath, nil
}
