package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AgyeDark/galamsey-sentinel/internal/analysis"
	"github.com/AgyeDark/galamsey-sentinel/internal/weather"
)

func TestWriteSeriesCSV(t *testing.T) {
	series := []analysis.SceneEstimate{
		{SceneID: "s1", Date: time.Date(2023, time.January, 5, 10, 30, 0, 0, time.UTC), Turbidity: 0.125, WaterPixels: 120},
		{SceneID: "s2", Date: time.Date(2023, time.February, 1, 10, 30, 0, 0, time.UTC), Turbidity: 0.5, WaterPixels: 80},
	}

	dir := t.TempDir()
	path, err := WriteSeriesCSV(series, "pra", 2023, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "pra_2023_series.csv" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{
		"date,turbidity,water_pixels,scene_id",
		"2023-01-05,0.125,120,s1",
		"2023-02-01,0.5,80,s2",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, w := range want {
		if strings.TrimSpace(lines[i]) != w {
			t.Errorf("line %d: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestWriteSeriesCSVEmpty(t *testing.T) {
	path, err := WriteSeriesCSV(nil, "pra", 2023, t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "date,turbidity,water_pixels,scene_id" {
		t.Errorf("an empty series should still write the header, got %q", string(data))
	}
}

func TestWriteReportJSON(t *testing.T) {
	report := RunReport{
		Report: analysis.Report{
			Basin:   "Pra River (Twifo Praso)",
			Year:    2023,
			Outcome: analysis.OutcomeOK,
			Scenes: []analysis.SceneResult{
				{SceneID: "s1", Status: analysis.SceneUsed},
			},
			Summary: &analysis.AnalysisSummary{
				MeanTurbidity: 0.07,
				Status:        "MODERATE (Visible Turbidity)",
				ScenesUsed:    1,
			},
		},
		Rainfall: []weather.MonthlyRainfall{{Month: "2023-01", TotalMM: 12.5}},
		Heatmap:  "/tmp/pra_2023_06_01_ndti.png",
	}

	dir := t.TempDir()
	path, err := WriteReportJSON(report, "pra", 2023, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "pra_2023_report.json" {
		t.Errorf("unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var restored RunReport
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("report must round-trip: %v", err)
	}
	if restored.Basin != report.Basin || restored.Year != 2023 {
		t.Errorf("unexpected header %q %d", restored.Basin, restored.Year)
	}
	if restored.Summary == nil || restored.Summary.Status != "MODERATE (Visible Turbidity)" {
		t.Errorf("unexpected summary %+v", restored.Summary)
	}
	if len(restored.Rainfall) != 1 || restored.Rainfall[0].TotalMM != 12.5 {
		t.Errorf("unexpected rainfall %+v", restored.Rainfall)
	}
	if restored.Heatmap != report.Heatmap {
		t.Errorf("unexpected heatmap path %q", restored.Heatmap)
	}

	// unset artifacts stay out of the file entirely
	if strings.Contains(string(data), "water_mask") || strings.Contains(string(data), "series_csv") {
		t.Errorf("empty artifact paths must be omitted:\n%s", data)
	}
}
