package grid

import "errors"

// Error taxonomy for swath processing. Per-band failures wrapping
// ErrSubDatasetNotFound or ErrCorruptedFile are recovered by the composite
// assembler; the rest propagate to the caller.
var (
	// ErrInvalidData marks input that cannot be processed at all: a file set
	// without band files, geolocation arrays with zero valid pixels, or
	// projected coordinates that are not finite.
	ErrInvalidData = errors.New("invalid data")

	// ErrSubDatasetNotFound means an expected HDF5 sub-dataset is absent.
	ErrSubDatasetNotFound = errors.New("subdataset not found")

	// ErrCorruptedFile means a source file could not be opened or read.
	ErrCorruptedFile = errors.New("corrupted file")

	// ErrProcessing means every band of a composite failed to rasterize.
	ErrProcessing = errors.New("processing failed")
)
