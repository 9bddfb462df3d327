package sentinel

import "errors"

var (
	// ErrCatalogUnavailable marks search failures that doom the whole run,
	// as opposed to per-scene faults.
	ErrCatalogUnavailable = errors.New("scene catalog unavailable")

	// ErrBandUnavailable marks a scene missing or failing to serve a band.
	ErrBandUnavailable = errors.New("band unavailable")

	// ErrGridMismatch marks bands of one scene that disagree on shape.
	ErrGridMismatch = errors.New("band grids differ in shape")
)
