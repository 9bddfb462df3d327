// Package properties holds the environment-backed settings and the named
// calibration presets for the monitoring deployments.
package properties

import (
	"fmt"
	"os"
	"sort"
	"time"
)

const (
	DefaultStacEndpoint = "https://planetarycomputer.microsoft.com/api/stac/v1"
	DefaultCollection   = "sentinel-2-l2a"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// RootPath is the base directory for cached catalog responses, rainfall data
// and rendered outputs.
func RootPath() string {
	return envOr("ROOT_PATH", ".")
}

func StacEndpoint() string {
	return envOr("GALAMSEY_STAC_ENDPOINT", DefaultStacEndpoint)
}

func Collection() string {
	return envOr("GALAMSEY_COLLECTION", DefaultCollection)
}

// CatalogCacheTTL bounds how long a cached catalog search stays valid.
func CatalogCacheTTL() time.Duration {
	ttl, err := time.ParseDuration(envOr("GALAMSEY_CATALOG_CACHE_TTL", "24h"))
	if err != nil {
		return 24 * time.Hour
	}
	return ttl
}

// OAuth client credentials for Copernicus-style catalogs. Empty values mean
// the catalog is queried anonymously.
func CopernicusClientID() string {
	return os.Getenv("COPERNICUS_CLIENT_ID")
}

func CopernicusClientSecret() string {
	return os.Getenv("COPERNICUS_CLIENT_SECRET")
}

func CopernicusTokenURL() string {
	return os.Getenv("COPERNICUS_TOKEN_URL")
}

func DiscordErrorNotificationUrl() string {
	return os.Getenv("DISCORD_ERROR_NOTIFICATION_URL")
}

func DiscordReportNotificationUrl() string {
	return os.Getenv("DISCORD_REPORT_NOTIFICATION_URL")
}

// StatusThresholds classifies a period mean turbidity. Both comparisons are
// strict: a mean exactly at Critical is not critical.
type StatusThresholds struct {
	Critical      float64
	Moderate      float64
	CriticalLabel string
	ModerateLabel string
	ClearLabel    string
}

// Calibration is one deployment variant of the tunables the pipeline
// consumes. The variants ship different pixel guards and plausibility gates;
// none of them is more correct than the others, so all values stay
// overridable per run.
type Calibration struct {
	Name string

	// Decimation divides both raster axes when reading bands. Fixed per
	// deployment so sample sizes stay comparable across dates.
	Decimation int

	// MinWaterPixels is the smallest masked-pixel count that still gives a
	// statistically usable scene mean.
	MinWaterPixels int

	// PlausibleLow/High bound scene means that can come from real river
	// water. Means outside are residual cloud, glint or shadow.
	PlausibleLow  float64
	PlausibleHigh float64

	Status StatusThresholds
}

var calibrations = map[string]Calibration{
	"default": {
		Name:           "default",
		Decimation:     8,
		MinWaterPixels: 50,
		PlausibleLow:   -0.5,
		PlausibleHigh:  0.8,
		Status: StatusThresholds{
			Critical:      0.1,
			Moderate:      0.0,
			CriticalLabel: "CRITICAL (Heavy Sediment)",
			ModerateLabel: "MODERATE (Visible Turbidity)",
			ClearLabel:    "CLEAR",
		},
	},
	"coarse": {
		Name:           "coarse",
		Decimation:     8,
		MinWaterPixels: 300,
		PlausibleLow:   -0.5,
		PlausibleHigh:  0.5,
		Status: StatusThresholds{
			Critical:      0.05,
			Moderate:      0.0,
			CriticalLabel: "CRITICAL",
			ModerateLabel: "MODERATE",
			ClearLabel:    "GOOD",
		},
	},
}

// CalibrationPreset returns the named preset.
func CalibrationPreset(name string) (Calibration, error) {
	c, ok := calibrations[name]
	if !ok {
		return Calibration{}, fmt.Errorf("unknown calibration preset %q, available: %v", name, CalibrationNames())
	}
	return c, nil
}

// CalibrationNames lists the available presets in stable order.
func CalibrationNames() []string {
	names := make([]string, 0, len(calibrations))
	for name := range calibrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
