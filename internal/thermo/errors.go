package thermo

import "errors"

// Configuration and validation errors. All are fatal for the running
// configuration; there is no recoverable-error path in this package.
var (
	// ErrPointParticle indicates a monitored particle without an ellipsoid
	// record on this worker.
	ErrPointParticle = errors.New("thermo: monitored particle lacks an ellipsoid shape record")

	// ErrBiasGroup indicates the bias compute monitors a different group.
	ErrBiasGroup = errors.New("thermo: bias group does not match compute group")

	// ErrDimension indicates a dimensionality other than 2 or 3.
	ErrDimension = errors.New("thermo: dimension must be 2 or 3")

	// ErrNoReducer indicates a missing reduction capability.
	ErrNoReducer = errors.New("thermo: reducer must not be nil")
)
