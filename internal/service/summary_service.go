package service

import (
	"fmt"
	"math"
	"time"

	"github.com/lukashondrich/open-workinghours-sub001/internal/models"
	"github.com/lukashondrich/open-workinghours-sub001/internal/repository"
	"github.com/lukashondrich/open-workinghours-sub001/internal/stats"
)

// SummaryService aggregates completed sessions into the daily totals the
// planning/review consumers read. Days are bucketed in UTC; sessions
// spanning midnight contribute to each day they overlap.
type SummaryService struct {
	sessions *repository.SessionRepository
}

// NewSummaryService creates a new summary service
func NewSummaryService(sessions *repository.SessionRepository) *SummaryService {
	return &SummaryService{sessions: sessions}
}

// DailySummaries returns one summary per day with recorded work between
// startDate and endDate (inclusive, YYYY-MM-DD). Days without counted
// sessions are omitted.
func (s *SummaryService) DailySummaries(startDate, endDate string) ([]models.DaySummary, error) {
	summaries, _, err := s.computeDaily(startDate, endDate)
	return summaries, err
}

// RangeStats summarizes the daily totals between startDate and endDate
// (inclusive, YYYY-MM-DD).
func (s *SummaryService) RangeStats(startDate, endDate string) (*models.RangeStats, error) {
	summaries, sessionCount, err := s.computeDaily(startDate, endDate)
	if err != nil {
		return nil, err
	}

	result := &models.RangeStats{
		Days:         len(summaries),
		SessionCount: sessionCount,
	}

	dailyTotals := make([]float64, 0, len(summaries))
	for _, day := range summaries {
		result.TotalMinutes += day.TotalMinutes
		dailyTotals = append(dailyTotals, float64(day.TotalMinutes))
	}

	if len(dailyTotals) > 0 {
		result.MeanDailyMinutes = stats.Mean(dailyTotals)
		result.MedianDailyMinutes = stats.Median(dailyTotals)
		result.MaxDailyMinutes = int64(stats.Max(dailyTotals))
	}

	return result, nil
}

func (s *SummaryService) computeDaily(startDate, endDate string) ([]models.DaySummary, int, error) {
	start, err := time.ParseInLocation("2006-01-02", startDate, time.UTC)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.UTC)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if end.Before(start) {
		return nil, 0, fmt.Errorf("start date must be before end date")
	}

	windowStart := start.UnixMilli()
	windowEnd := end.Add(24 * time.Hour).UnixMilli()

	matched, err := s.sessions.Query(models.SessionFilter{
		Start: windowStart,
		End:   windowEnd,
		Limit: 10000,
	})
	if err != nil {
		return nil, 0, err
	}

	completed := make([]*models.TrackingSession, 0, len(matched))
	for _, session := range matched {
		if session.State == models.SessionStateCompleted && session.ClockOutAt != nil {
			completed = append(completed, session)
		}
	}

	var summaries []models.DaySummary
	for day := start; day.Before(end.Add(24 * time.Hour)); day = day.Add(24 * time.Hour) {
		dayStart := day.UnixMilli()
		dayEnd := day.Add(24 * time.Hour).UnixMilli()

		summary := models.DaySummary{Date: day.Format("2006-01-02")}
		hasAuto := false
		hasManual := false

		for _, session := range completed {
			minutes := overlapMinutes(session.ClockInAt, *session.ClockOutAt, dayStart, dayEnd)
			if minutes <= 0 {
				continue
			}

			summary.TotalMinutes += minutes
			summary.SessionCount++
			if session.TrackingMethod == models.TrackingMethodManual {
				summary.ManualMinutes += minutes
				hasManual = true
			} else {
				summary.AutoMinutes += minutes
				hasAuto = true
			}
		}

		if summary.SessionCount == 0 {
			continue
		}

		switch {
		case hasAuto && hasManual:
			summary.Source = models.WorkSourceMixed
		case hasManual:
			summary.Source = models.WorkSourceManual
		default:
			summary.Source = models.WorkSourceGeofence
		}
		summaries = append(summaries, summary)
	}

	return summaries, len(completed), nil
}

// overlapMinutes returns the rounded minute count of the intersection
// between [clockIn, clockOut) and [dayStart, dayEnd).
func overlapMinutes(clockIn, clockOut, dayStart, dayEnd int64) int64 {
	from := clockIn
	if dayStart > from {
		from = dayStart
	}
	to := clockOut
	if dayEnd < to {
		to = dayEnd
	}
	if to <= from {
		return 0
	}
	return int64(math.Round(float64(to-from) / 60000.0))
}
