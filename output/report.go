package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AgyeDark/galamsey-sentinel/internal/analysis"
	"github.com/AgyeDark/galamsey-sentinel/internal/weather"
)

// RunReport is the on-disk report, the scan result plus the context and
// artifact paths gathered around it.
type RunReport struct {
	analysis.Report
	Rainfall  []weather.MonthlyRainfall `json:"rainfall,omitempty"`
	Heatmap   string                    `json:"heatmap,omitempty"`
	WaterMask string                    `json:"water_mask,omitempty"`
	Composite string                    `json:"composite,omitempty"`
	SeriesCSV string                    `json:"series_csv,omitempty"`
}

// WriteReportJSON persists the full run record.
func WriteReportJSON(report RunReport, basinKey string, year int, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create result folder: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	outputPath := filepath.Join(outputDir, fmt.Sprintf("%s_%d_report.json", basinKey, year))
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return outputPath, nil
}
