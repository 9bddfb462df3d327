package sentinel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
	"golang.org/x/sync/errgroup"
)

// BandReader loads scene bands at a given decimation. Implementations must
// return co-registered grids for every requested band.
type BandReader interface {
	ReadBands(ctx context.Context, scene SceneDescriptor, names []string, decimation int) (map[string]*BandGrid, error)
}

var registerDriversOnce sync.Once

// COGReader pulls cloud-optimized GeoTIFF bands over HTTP range requests.
// Hrefs are signed right before opening so tokens are always fresh.
type COGReader struct {
	signer AssetSigner
}

func NewCOGReader(signer AssetSigner) *COGReader {
	registerDriversOnce.Do(godal.RegisterAll)
	if signer == nil {
		signer = IdentitySigner()
	}
	return &COGReader{signer: signer}
}

// ReadBands fetches each named band of the scene concurrently, averaged
// down by decimation in both axes. Any failure maps to ErrBandUnavailable
// so a bad scene never dooms a batch.
func (r *COGReader) ReadBands(ctx context.Context, scene SceneDescriptor, names []string, decimation int) (map[string]*BandGrid, error) {
	if decimation < 1 {
		decimation = 1
	}

	out := make(map[string]*BandGrid, len(names))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			asset, ok := scene.Assets[name]
			if !ok || asset.Href == "" {
				return fmt.Errorf("%w: scene %s has no %s asset", ErrBandUnavailable, scene.ID, name)
			}
			href, err := r.signer.Sign(ctx, asset.Href)
			if err != nil {
				return fmt.Errorf("%w: scene %s band %s: sign href: %w", ErrBandUnavailable, scene.ID, name, err)
			}
			grid, err := readDecimated(href, decimation)
			if err != nil {
				return fmt.Errorf("%w: scene %s band %s: %w", ErrBandUnavailable, scene.ID, name, err)
			}
			mu.Lock()
			out[name] = grid
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkShapes(out, names...); err != nil {
		return nil, fmt.Errorf("scene %s: %w", scene.ID, err)
	}
	return out, nil
}

// readDecimated reads a whole single-band raster into a buffer decimation
// times smaller per axis, letting GDAL average blocks on the way in. Values
// stay raw digital numbers, the normalized indices cancel the scale.
func readDecimated(href string, decimation int) (*BandGrid, error) {
	ds, err := godal.Open(vsiPath(href), godal.ErrLogger(discardWarnings))
	if err != nil {
		return nil, fmt.Errorf("open raster: %w", err)
	}
	defer ds.Close()

	bands := ds.Bands()
	if len(bands) == 0 {
		return nil, fmt.Errorf("raster has no bands")
	}
	structure := ds.Structure()
	width := (structure.SizeX + decimation - 1) / decimation
	height := (structure.SizeY + decimation - 1) / decimation
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("raster %dx%d too small for decimation %d", structure.SizeX, structure.SizeY, decimation)
	}

	grid := NewBandGrid(width, height)
	err = bands[0].Read(0, 0, grid.Data, width, height,
		godal.Window(structure.SizeX, structure.SizeY),
		godal.Resampling(godal.Average))
	if err != nil {
		return nil, fmt.Errorf("read raster: %w", err)
	}
	return grid, nil
}

func vsiPath(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return "/vsicurl/" + href
	}
	return href
}

func discardWarnings(ec godal.ErrorCategory, code int, msg string) error {
	if ec <= godal.CE_Warning {
		return nil
	}
	return fmt.Errorf("gdal error %d: %s", code, msg)
}
