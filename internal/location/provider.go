package location

import (
	"errors"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// ErrNoFreshPosition is returned when no position fix recent enough to
// trust is available. Callers treat it as a low-confidence answer, not a
// hard failure.
var ErrNoFreshPosition = errors.New("no fresh position available")

// Provider answers on-demand position fetches for the exit verifier. The
// fetch may fail at any time; the verifier degrades to an inconclusive
// check when it does.
type Provider interface {
	CurrentPosition() (*models.PositionSample, error)
}
