package location

import (
	"fmt"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/clock"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
)

// positionSource is the slice of the position store the gateway needs.
type positionSource interface {
	LatestSince(minRecordedAt int64) (*models.PositionSample, error)
}

// Gateway answers position fetches from device-reported samples. Devices
// push fixes opportunistically; a fetch succeeds only when the newest
// stored sample is within the freshness bound.
type Gateway struct {
	positions positionSource
	clock     clock.Clock
	maxAge    time.Duration
}

// NewGateway creates a position gateway over the given sample source.
func NewGateway(positions positionSource, clk clock.Clock, maxAge time.Duration) *Gateway {
	return &Gateway{
		positions: positions,
		clock:     clk,
		maxAge:    maxAge,
	}
}

// CurrentPosition returns the newest sample within the freshness bound, or
// ErrNoFreshPosition when the device has gone quiet.
func (g *Gateway) CurrentPosition() (*models.PositionSample, error) {
	cutoff := g.clock.Now().Add(-g.maxAge).UnixMilli()

	sample, err := g.positions.LatestSince(cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest position: %w", err)
	}
	if sample == nil {
		return nil, ErrNoFreshPosition
	}

	return sample, nil
}
