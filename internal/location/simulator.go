package location

import (
	"sync"

	"github.com/lukashondrich/open-workinghours-sub001/internal/clock"
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/spatial"
)

// Simulator is a scripted position provider for tests and event replay.
// It reports whatever position it was last placed at, stamped with the
// current clock time.
type Simulator struct {
	clock clock.Clock

	mu      sync.Mutex
	current *models.PositionSample
}

// NewSimulator creates a simulator with no position set; fetches fail with
// ErrNoFreshPosition until PlaceAt is called.
func NewSimulator(clk clock.Clock) *Simulator {
	return &Simulator{clock: clk}
}

// PlaceAt pins the simulated device at the given coordinates.
func (s *Simulator) PlaceAt(latitude, longitude, accuracy float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &models.PositionSample{
		Latitude:  latitude,
		Longitude: longitude,
		Accuracy:  accuracy,
	}
}

// PlaceOutside pins the device the given distance beyond a site's radius,
// due north of the center.
func (s *Simulator) PlaceOutside(site models.Site, beyondMeters, accuracy float64) {
	lat, lon := spatial.DestinationPoint(site.Latitude, site.Longitude, 0, site.RadiusMeters+beyondMeters)
	s.PlaceAt(lat, lon, accuracy)
}

// GoDark clears the position; subsequent fetches fail until PlaceAt.
func (s *Simulator) GoDark() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// CurrentPosition implements Provider.
func (s *Simulator) CurrentPosition() (*models.PositionSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrNoFreshPosition
	}

	sample := *s.current
	sample.RecordedAt = s.clock.Now().UnixMilli()
	return &sample, nil
}
