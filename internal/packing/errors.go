package packing

import (
	"errors"
	"fmt"

	"github.com/kiesman99/omafpack/internal/catalog"
)

var (
	ErrPluginLoadFailure    = errors.New("packing strategy could not be resolved")
	ErrInvalidConfiguration = errors.New("invalid packing configuration")
	ErrNotFound             = catalog.ErrNotFound
	ErrUnknownViewport      = errors.New("unknown viewport")
	ErrIncoherentSelection  = errors.New("selected tiles do not form a rectangle")
	ErrEmptySelection       = errors.New("viewport selects no tiles")
	ErrDimensionOverflow    = errors.New("packed picture exceeds format limits")
	ErrInvariantViolation   = errors.New("region-wise packing and merge direction disagree")
	ErrNoArrangement        = errors.New("no arrangement computed for viewport")
	ErrNotInitialized       = errors.New("packing generator not initialized")
)

// Stage names the step of packing a viewport that failed
type Stage string

const (
	StageSelect         Stage = "select"
	StageArrange        Stage = "arrange"
	StageRWPK           Stage = "rwpk"
	StageMergeDirection Stage = "merge-direction"
	StageVerify         Stage = "verify"
)

// Error is a failure packing one viewport
type Error struct {
	ViewportIndex int
	Stage         Stage
	Err           error
}

func (e *Error) Error() string {
	return fmt.Sprintf("viewport %d: %s: %v", e.ViewportIndex, e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
