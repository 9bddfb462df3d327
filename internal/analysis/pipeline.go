package analysis

import (
	"context"
	"errors"
	"image"
	"sort"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"

	"github.com/AgyeDark/galamsey-sentinel/internal/basin"
	"github.com/AgyeDark/galamsey-sentinel/internal/log"
	"github.com/AgyeDark/galamsey-sentinel/internal/properties"
	"github.com/AgyeDark/galamsey-sentinel/internal/sentinel"
)

// Pipeline runs the turbidity scan for one basin and season.
type Pipeline struct {
	Catalog       sentinel.Searcher
	Reader        sentinel.BandReader
	Calibration   properties.Calibration
	MaskThreshold float64
	Parallel      int
	Progress      bool
	WithComposite bool
}

// SceneArtifacts keeps the rasters of the most recent usable scene so the
// renderers can draw what the verdict was based on.
type SceneArtifacts struct {
	SceneID   string
	Date      time.Time
	Indexes   *sentinel.IndexGrid
	Composite *image.RGBA
}

// Run searches the catalog and works through every scene. Scene-level
// faults are recorded in the report and never abort the batch, only
// catalog failures and cancellation do.
func (p *Pipeline) Run(ctx context.Context, aoi basin.Basin, year int, maxCloud float64) (*Report, *SceneArtifacts, error) {
	scenes, err := p.Catalog.Search(ctx, aoi.Extent, year, maxCloud)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		Basin:     aoi.Name,
		Year:      year,
		MaxCloud:  maxCloud,
		Preset:    p.Calibration.Name,
		Generated: time.Now().UTC(),
		Scenes:    []SceneResult{},
		Series:    []SceneEstimate{},
	}
	if len(scenes) == 0 {
		log.Infof("no scenes for %s in %d under %.0f%% cloud", aoi.Name, year, maxCloud)
		report.Outcome = OutcomeNoScenes
		return report, nil, nil
	}

	log.Infof("processing %d scenes for %s in %d", len(scenes), aoi.Name, year)
	var bar *progressbar.ProgressBar
	if p.Progress {
		bar = progressbar.Default(int64(len(scenes)), "scanning scenes")
	}

	var artifacts *SceneArtifacts
	if p.Parallel > 1 {
		report.Scenes, artifacts, err = p.scanParallel(ctx, scenes, bar)
	} else {
		report.Scenes, artifacts, err = p.scanSequential(ctx, scenes, bar)
	}
	if err != nil {
		return nil, nil, err
	}

	for i := range report.Scenes {
		if report.Scenes[i].Estimate != nil {
			report.Series = append(report.Series, *report.Scenes[i].Estimate)
		}
	}
	SortSeries(report.Series)

	report.Summary = Summarize(report.Series, p.Calibration.Status)
	if report.Summary == nil {
		report.Outcome = OutcomeNoUsableData
		log.Warnf("all %d scenes failed or were rejected for %s in %d", len(scenes), aoi.Name, year)
	} else {
		report.Outcome = OutcomeOK
		log.Infof("%s %d: mean turbidity %.4f over %d scenes, %s",
			aoi.Name, year, report.Summary.MeanTurbidity, report.Summary.ScenesUsed, report.Summary.Status)
	}
	return report, artifacts, nil
}

func (p *Pipeline) scanSequential(ctx context.Context, scenes []sentinel.SceneDescriptor, bar *progressbar.ProgressBar) ([]SceneResult, *SceneArtifacts, error) {
	results := make([]SceneResult, 0, len(scenes))
	var artifacts *SceneArtifacts
	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		result, art, err := p.processScene(ctx, scene)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, result)
		if art != nil {
			// scenes arrive date ascending, the last usable one wins
			artifacts = art
		}
		if bar != nil {
			bar.Add(1)
		}
	}
	return results, artifacts, nil
}

func (p *Pipeline) scanParallel(ctx context.Context, scenes []sentinel.SceneDescriptor, bar *progressbar.ProgressBar) ([]SceneResult, *SceneArtifacts, error) {
	wp := workerpool.New(p.Parallel)
	var mu sync.Mutex
	results := make([]SceneResult, 0, len(scenes))
	var artifacts *SceneArtifacts
	var firstErr error

	for _, scene := range scenes {
		scene := scene
		wp.Submit(func() {
			mu.Lock()
			aborted := firstErr != nil
			mu.Unlock()
			if aborted || ctx.Err() != nil {
				return
			}

			result, art, err := p.processScene(ctx, scene)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results = append(results, result)
			if art != nil && (artifacts == nil || art.Date.After(artifacts.Date)) {
				artifacts = art
			}
			if bar != nil {
				bar.Add(1)
			}
		})
	}
	wp.StopWait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Date.Equal(results[j].Date) {
			return results[i].SceneID < results[j].SceneID
		}
		return results[i].Date.Before(results[j].Date)
	})
	return results, artifacts, nil
}

// processScene turns one scene into a result. The returned error is only
// non-nil for cancellation, everything else becomes a recorded failure.
func (p *Pipeline) processScene(ctx context.Context, scene sentinel.SceneDescriptor) (SceneResult, *SceneArtifacts, error) {
	result := SceneResult{
		SceneID:    scene.ID,
		Date:       scene.AcquiredAt,
		CloudCover: scene.CloudCover,
	}

	names := sentinel.AnalysisBands
	if p.WithComposite {
		names = sentinel.CompositeBands
	}
	bands, err := p.Reader.ReadBands(ctx, scene, names, p.Calibration.Decimation)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return result, nil, err
		}
		log.Warnf("scene %s: %v", scene.ID, err)
		result.Status = SceneFailed
		result.Reason = err.Error()
		return result, nil, nil
	}

	indexes, err := sentinel.ComputeIndexes(bands)
	if err != nil {
		log.Warnf("scene %s: %v", scene.ID, err)
		result.Status = SceneFailed
		result.Reason = err.Error()
		return result, nil, nil
	}

	samples, err := SelectWaterNDTI(indexes, p.MaskThreshold)
	if err != nil {
		log.Warnf("scene %s: %v", scene.ID, err)
		result.Status = SceneFailed
		result.Reason = err.Error()
		return result, nil, nil
	}
	if len(samples) <= p.Calibration.MinWaterPixels {
		log.Debugf("scene %s rejected, %d water pixels", scene.ID, len(samples))
		result.Status = SceneRejected
		result.Reason = RejectionInsufficientWater
		return result, nil, nil
	}

	mean := nanMean(samples)
	plausible := PlausibleRange{Low: p.Calibration.PlausibleLow, High: p.Calibration.PlausibleHigh}
	if !plausible.Accept(mean) {
		log.Debugf("scene %s rejected, implausible mean %.3f", scene.ID, mean)
		result.Status = SceneRejected
		result.Reason = RejectionImplausibleTurbidity
		return result, nil, nil
	}

	result.Status = SceneUsed
	result.Estimate = &SceneEstimate{
		SceneID:     scene.ID,
		Date:        scene.AcquiredAt,
		Turbidity:   mean,
		WaterPixels: len(samples),
	}

	artifacts := &SceneArtifacts{
		SceneID: scene.ID,
		Date:    scene.AcquiredAt,
		Indexes: indexes,
	}
	if p.WithComposite {
		composite, err := sentinel.BuildComposite(bands)
		if err != nil {
			log.Warnf("scene %s: composite: %v", scene.ID, err)
		} else {
			artifacts.Composite = composite
		}
	}
	return result, artifacts, nil
}
