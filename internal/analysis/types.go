package analysis

import (
	"time"
)

// Outcome states how far a run got.
type Outcome string

const (
	// OutcomeOK means at least one scene survived filtering.
	OutcomeOK Outcome = "ok"
	// OutcomeNoScenes means the catalog returned nothing for the query.
	OutcomeNoScenes Outcome = "no_scenes"
	// OutcomeNoUsableData means scenes existed but every one failed or
	// was rejected.
	OutcomeNoUsableData Outcome = "no_usable_data"
)

// SceneStatus states what happened to one scene.
type SceneStatus string

const (
	SceneUsed     SceneStatus = "used"
	SceneRejected SceneStatus = "rejected"
	SceneFailed   SceneStatus = "failed"
)

// Rejection reasons recorded on filtered scenes.
const (
	RejectionInsufficientWater    = "insufficient_water"
	RejectionImplausibleTurbidity = "implausible_turbidity"
)

// SceneEstimate is one usable scene's contribution to the time series.
type SceneEstimate struct {
	SceneID     string    `json:"scene_id"`
	Date        time.Time `json:"date"`
	Turbidity   float64   `json:"turbidity"`
	WaterPixels int       `json:"water_pixels"`
}

// SceneResult records the fate of every scene the catalog offered, so a
// quiet season is distinguishable from a broken one.
type SceneResult struct {
	SceneID    string         `json:"scene_id"`
	Date       time.Time      `json:"date"`
	CloudCover float64        `json:"cloud_cover"`
	Status     SceneStatus    `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Estimate   *SceneEstimate `json:"estimate,omitempty"`
}

// AnalysisSummary is the season verdict over the usable scenes.
type AnalysisSummary struct {
	MeanTurbidity float64 `json:"mean_turbidity"`
	Status        string  `json:"status"`
	ScenesUsed    int     `json:"scenes_used"`
}

// Report is the full product of one basin-year run. Summary is nil unless
// Outcome is OutcomeOK.
type Report struct {
	Basin     string           `json:"basin"`
	Year      int              `json:"year"`
	MaxCloud  float64          `json:"max_cloud"`
	Preset    string           `json:"preset"`
	Generated time.Time        `json:"generated"`
	Outcome   Outcome          `json:"outcome"`
	Scenes    []SceneResult    `json:"scenes"`
	Series    []SceneEstimate  `json:"series"`
	Summary   *AnalysisSummary `json:"summary,omitempty"`
}
