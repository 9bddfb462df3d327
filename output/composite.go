package output

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
)

// SaveComposite writes the true-color view next to the heatmap so the
// sediment plume can be checked against what the eye would see.
func SaveComposite(img *image.RGBA, basinKey string, date time.Time, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%s_rgb.png", basinKey, date.Format("2006_01_02")))
	if err := gg.SavePNG(outputPath, img); err != nil {
		return "", fmt.Errorf("failed to save composite: %w", err)
	}
	return outputPath, nil
}
