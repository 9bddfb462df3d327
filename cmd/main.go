package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	bannercolor "github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AgyeDark/galamsey-sentinel/internal/analysis"
	"github.com/AgyeDark/galamsey-sentinel/internal/basin"
	"github.com/AgyeDark/galamsey-sentinel/internal/log"
	"github.com/AgyeDark/galamsey-sentinel/internal/notification"
	"github.com/AgyeDark/galamsey-sentinel/internal/properties"
	"github.com/AgyeDark/galamsey-sentinel/internal/sentinel"
	"github.com/AgyeDark/galamsey-sentinel/internal/weather"
	"github.com/AgyeDark/galamsey-sentinel/output"
)

func printBanner() {
	figure1 := figure.NewFigure("Galamsey", "isometric1", true)
	figure2 := figure.NewFigure("Sentinel", "isometric1", true)
	bannercolor.Cyan(figure1.String())
	bannercolor.Cyan(figure2.String())
	fmt.Println()
}

type analyzeOptions struct {
	basinKey      string
	bbox          string
	aoiPath       string
	year          int
	maxCloud      float64
	maskThreshold float64
	preset        string
	decimation    int
	minPixels     int
	plausibleLow  float64
	plausibleHigh float64
	critical      float64
	moderate      float64
	parallel      int
	withRainfall  bool
	withComposite bool
	notify        bool
	noProgress    bool
	outDir        string
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Scan a river basin for mining sediment across one year",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.basinKey, "basin", "pra", "monitored basin key, see the basins command")
	flags.StringVar(&opts.bbox, "bbox", "", "custom west,south,east,north box overriding --basin")
	flags.StringVar(&opts.aoiPath, "aoi", "", "GeoJSON AOI file overriding --basin")
	flags.IntVar(&opts.year, "year", time.Now().Year()-1, "calendar year to scan")
	flags.Float64Var(&opts.maxCloud, "max-cloud", 20, "maximum scene cloud cover percent")
	flags.Float64Var(&opts.maskThreshold, "mask-threshold", 0, "NDWI above this counts as water")
	flags.StringVar(&opts.preset, "preset", "default", "calibration preset, see the presets command")
	flags.IntVar(&opts.decimation, "decimation", 0, "override the preset raster decimation")
	flags.IntVar(&opts.minPixels, "min-water-pixels", 0, "override the preset water pixel guard")
	flags.Float64Var(&opts.plausibleLow, "plausible-low", 0, "override the preset plausible turbidity floor")
	flags.Float64Var(&opts.plausibleHigh, "plausible-high", 0, "override the preset plausible turbidity ceiling")
	flags.Float64Var(&opts.critical, "critical-above", 0, "override the preset critical status threshold")
	flags.Float64Var(&opts.moderate, "moderate-above", 0, "override the preset moderate status threshold")
	flags.IntVar(&opts.parallel, "parallel", 1, "concurrent scene workers")
	flags.BoolVar(&opts.withRainfall, "with-rainfall", false, "attach monthly rainfall context to the report")
	flags.BoolVar(&opts.withComposite, "with-composite", false, "render a true-color view of the latest usable scene")
	flags.BoolVar(&opts.notify, "notify", false, "post the verdict to the configured Discord webhook")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "disable the progress bar")
	flags.StringVar(&opts.outDir, "out", "", "output directory, defaults under ROOT_PATH/data/result")
	return cmd
}

// applyCalibrationOverrides replaces preset fields with explicitly set
// flags. Unset flags leave the preset alone, so a zero override is still
// expressible.
func applyCalibrationOverrides(cmd *cobra.Command, opts *analyzeOptions, cal *properties.Calibration) {
	flags := cmd.Flags()
	if flags.Changed("decimation") {
		cal.Decimation = opts.decimation
	}
	if flags.Changed("min-water-pixels") {
		cal.MinWaterPixels = opts.minPixels
	}
	if flags.Changed("plausible-low") {
		cal.PlausibleLow = opts.plausibleLow
	}
	if flags.Changed("plausible-high") {
		cal.PlausibleHigh = opts.plausibleHigh
	}
	if flags.Changed("critical-above") {
		cal.Status.Critical = opts.critical
	}
	if flags.Changed("moderate-above") {
		cal.Status.Moderate = opts.moderate
	}
}

func resolveBasin(opts *analyzeOptions) (basin.Basin, error) {
	if opts.aoiPath != "" {
		return basin.FromGeoJSON(opts.aoiPath)
	}
	if opts.bbox != "" {
		return parseBBox(opts.bbox)
	}
	return basin.Preset(opts.basinKey)
}

func parseBBox(spec string) (basin.Basin, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return basin.Basin{}, fmt.Errorf("bbox needs west,south,east,north, got %q", spec)
	}
	coords := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return basin.Basin{}, fmt.Errorf("bad bbox coordinate %q: %w", part, err)
		}
		coords[i] = v
	}
	return basin.FromBBox(coords[0], coords[1], coords[2], coords[3])
}

func runAnalyze(cmd *cobra.Command, opts *analyzeOptions) error {
	ctx := cmd.Context()
	printBanner()

	aoi, err := resolveBasin(opts)
	if err != nil {
		return err
	}
	calibration, err := properties.CalibrationPreset(opts.preset)
	if err != nil {
		return err
	}
	applyCalibrationOverrides(cmd, opts, &calibration)

	endpoint := properties.StacEndpoint()
	collection := properties.Collection()

	catalog := sentinel.NewCatalog(sentinel.CatalogConfig{
		Endpoint:   endpoint,
		Collection: collection,
		HTTPClient: sentinel.NewAuthenticatedClient(ctx),
	})
	cached := sentinel.NewCachedCatalog(catalog, endpoint, collection, properties.CatalogCacheTTL())

	var signer sentinel.AssetSigner = sentinel.IdentitySigner()
	if strings.Contains(endpoint, "planetarycomputer") {
		signer = sentinel.NewSASSigner(sentinel.DefaultSASEndpoint, collection, nil)
	}

	pipe := &analysis.Pipeline{
		Catalog:       cached,
		Reader:        sentinel.NewCOGReader(signer),
		Calibration:   calibration,
		MaskThreshold: opts.maskThreshold,
		Parallel:      opts.parallel,
		Progress:      !opts.noProgress,
		WithComposite: opts.withComposite,
	}

	report, artifacts, err := pipe.Run(ctx, aoi, opts.year, opts.maxCloud)
	if err != nil {
		if opts.notify {
			if nerr := notification.SendErrorNotification(err.Error()); nerr != nil {
				log.Warnf("error notification failed: %v", nerr)
			}
		}
		return err
	}

	outDir := opts.outDir
	if outDir == "" {
		outDir = fmt.Sprintf("%s/data/result/%s", properties.RootPath(), aoi.Key)
	}

	run := output.RunReport{Report: *report}
	if artifacts != nil {
		if path, err := output.CreateTurbidityHeatmap(artifacts.Indexes, opts.maskThreshold, aoi.Key, artifacts.Date, outDir); err != nil {
			log.Warnf("heatmap rendering failed: %v", err)
		} else {
			run.Heatmap = path
		}
		if path, err := output.CreateWaterMaskImage(artifacts.Indexes, opts.maskThreshold, aoi.Key, artifacts.Date, outDir); err != nil {
			log.Warnf("mask rendering failed: %v", err)
		} else {
			run.WaterMask = path
		}
		if artifacts.Composite != nil {
			if path, err := output.SaveComposite(artifacts.Composite, aoi.Key, artifacts.Date, outDir); err != nil {
				log.Warnf("composite rendering failed: %v", err)
			} else {
				run.Composite = path
			}
		}
	}
	if len(report.Series) > 0 {
		if path, err := output.WriteSeriesCSV(report.Series, aoi.Key, opts.year, outDir); err != nil {
			log.Warnf("series export failed: %v", err)
		} else {
			run.SeriesCSV = path
		}
	}
	if opts.withRainfall {
		centroid := aoi.Centroid()
		rainfall, err := weather.FetchMonthlyRainfall(ctx, centroid.Y(), centroid.X(), opts.year, 3)
		if err != nil {
			log.Warnf("rainfall context unavailable: %v", err)
		} else {
			run.Rainfall = rainfall
		}
	}

	reportPath, err := output.WriteReportJSON(run, aoi.Key, opts.year, outDir)
	if err != nil {
		return err
	}

	printVerdict(report, reportPath)

	if opts.notify {
		if err := notification.SendReportNotification(report); err != nil {
			log.Warnf("report notification failed: %v", err)
		}
	}
	return nil
}

func printVerdict(report *analysis.Report, reportPath string) {
	fmt.Println()
	switch report.Outcome {
	case analysis.OutcomeNoScenes:
		bannercolor.Yellow("No scenes found for %s in %d.", report.Basin, report.Year)
	case analysis.OutcomeNoUsableData:
		bannercolor.Yellow("Scenes were found for %s in %d but none were usable.", report.Basin, report.Year)
	default:
		line := fmt.Sprintf("%s %d: mean NDTI %.4f over %d scenes, status %s",
			report.Basin, report.Year, report.Summary.MeanTurbidity, report.Summary.ScenesUsed, report.Summary.Status)
		switch {
		case strings.HasPrefix(report.Summary.Status, "CRITICAL"):
			bannercolor.Red("%s", line)
		case strings.HasPrefix(report.Summary.Status, "MODERATE"):
			bannercolor.Yellow("%s", line)
		default:
			bannercolor.Green("%s", line)
		}
	}
	fmt.Println("Report written to", reportPath)
}

func newBasinsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "basins",
		Short: "List the monitored river basins",
		Run: func(cmd *cobra.Command, args []string) {
			for _, b := range basin.Presets() {
				extent := b.Extent
				fmt.Printf("%-12s %-28s [%.2f, %.2f, %.2f, %.2f]\n",
					b.Key, b.Name, extent.Min.X(), extent.Min.Y(), extent.Max.X(), extent.Max.Y())
			}
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the calibration presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range properties.CalibrationNames() {
				c, err := properties.CalibrationPreset(name)
				if err != nil {
					continue
				}
				fmt.Printf("%-10s decimation %d, min water pixels %d, plausible (%.2f, %.2f), critical > %.2f, moderate > %.2f\n",
					c.Name, c.Decimation, c.MinWaterPixels, c.PlausibleLow, c.PlausibleHigh,
					c.Status.Critical, c.Status.Moderate)
			}
		},
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:           "galamsey-sentinel",
		Short:         "Satellite turbidity monitoring for mining-impacted rivers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(debug)
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")
	root.AddCommand(newAnalyzeCmd(), newBasinsCmd(), newPresetsCmd())
	return root
}

func main() {
	if err := run(); err != nil {
		bannercolor.Red("%s", err.Error())
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		godotenv.Load("../.env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer log.Sync()

	return newRootCmd().ExecuteContext(ctx)
}
