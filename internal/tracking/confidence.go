package tracking

import (
	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/spatial"
)

// Verdict is the outcome of grading one position sample against a site.
type Verdict int

const (
	// VerdictInconclusive means the sample cannot support a presence or
	// absence decision: accuracy too poor, or inside the hysteresis band
	// just beyond the radius.
	VerdictInconclusive Verdict = iota

	// VerdictInside means a trustworthy fix inside the site radius.
	VerdictInside

	// VerdictOutside means a trustworthy fix beyond radius plus margin.
	VerdictOutside
)

func (v Verdict) String() string {
	switch v {
	case VerdictInside:
		return "inside"
	case VerdictOutside:
		return "outside"
	default:
		return "inconclusive"
	}
}

// ConfidenceEvaluator grades position samples. Stateless; it gates both
// immediate exit commits and each scheduled verification sample.
type ConfidenceEvaluator struct {
	// HighAccuracyMeters is the bound below which an accuracy reading is
	// trusted for presence decisions. A reading exactly at the bound is
	// not trusted.
	HighAccuracyMeters float64

	// ExitMarginMeters widens the radius for absence decisions, so a fix
	// barely past the boundary never commits an exit.
	ExitMarginMeters float64
}

// HighConfidence reports whether an accuracy reading is trustworthy on
// its own.
func (e ConfidenceEvaluator) HighConfidence(accuracy float64) bool {
	return accuracy > 0 && accuracy < e.HighAccuracyMeters
}

// Evaluate grades a sample against a site's geofence.
func (e ConfidenceEvaluator) Evaluate(sample models.PositionSample, site models.Site) Verdict {
	if !e.HighConfidence(sample.Accuracy) {
		return VerdictInconclusive
	}

	distance := spatial.HaversineDistance(sample.Latitude, sample.Longitude, site.Latitude, site.Longitude)
	if distance > site.RadiusMeters+e.ExitMarginMeters {
		return VerdictOutside
	}
	if distance <= site.RadiusMeters {
		return VerdictInside
	}
	return VerdictInconclusive
}
