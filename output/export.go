package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/AgyeDark/galamsey-sentinel/internal/analysis"
)

// SeriesRow is one usable scene in the exported time series.
type SeriesRow struct {
	Date        string  `csv:"date"`
	Turbidity   float64 `csv:"turbidity"`
	WaterPixels int     `csv:"water_pixels"`
	SceneID     string  `csv:"scene_id"`
}

// WriteSeriesCSV exports the time series for spreadsheets and notebooks.
func WriteSeriesCSV(series []analysis.SceneEstimate, basinKey string, year int, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}

	rows := make([]SeriesRow, 0, len(series))
	for _, e := range series {
		rows = append(rows, SeriesRow{
			Date:        e.Date.Format("2006-01-02"),
			Turbidity:   e.Turbidity,
			WaterPixels: e.WaterPixels,
			SceneID:     e.SceneID,
		})
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%d_series.csv", basinKey, year))
	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create csv file: %w", err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return "", fmt.Errorf("failed to write csv: %w", err)
	}
	return outputPath, nil
}
