package types

import (
	"fmt"
	"sort"
	"time"
)

// MinBlackoutIntervalMinutes is the shortest schedulable outage.
const MinBlackoutIntervalMinutes = 15

// BlackoutInterval is a single outage window within a schedule day.
type BlackoutInterval struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"durationMinutes"`
}

// BlackoutSchedule holds the planned outage intervals for a single day.
// There is at most one schedule per day.
type BlackoutSchedule struct {
	ID           string             `json:"id"`
	Date         time.Time          `json:"date"`
	Intervals    []BlackoutInterval `json:"intervals"`
	Province     string             `json:"province,omitempty"`
	Municipality string             `json:"municipality,omitempty"`
	Notes        string             `json:"notes,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// StartOfDay truncates t to midnight in its location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// NormalizeBlackoutIntervals validates the intervals for the given schedule
// day and returns them sorted by start with durations filled in. Intervals
// must be at least 15 minutes long, fall entirely within the day, and must
// not overlap.
func NormalizeBlackoutIntervals(date time.Time, intervals []BlackoutInterval) ([]BlackoutInterval, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("se requiere al menos un intervalo de apagón")
	}

	rangeStart := StartOfDay(date)
	rangeEnd := rangeStart.Add(24 * time.Hour)

	normalized := make([]BlackoutInterval, 0, len(intervals))
	for i, interval := range intervals {
		if interval.Start.IsZero() || interval.End.IsZero() {
			return nil, fmt.Errorf("el intervalo #%d debe incluir hora de inicio y fin", i+1)
		}
		if !interval.Start.Before(interval.End) {
			return nil, fmt.Errorf("el intervalo #%d debe tener fin posterior al inicio", i+1)
		}
		if interval.Start.Before(rangeStart) || !interval.Start.Before(rangeEnd) ||
			!interval.End.After(rangeStart) || interval.End.After(rangeEnd) {
			return nil, fmt.Errorf("el intervalo #%d debe pertenecer al mismo día indicado", i+1)
		}
		duration := int(interval.End.Sub(interval.Start).Minutes())
		if duration < MinBlackoutIntervalMinutes {
			return nil, fmt.Errorf("el intervalo #%d debe durar al menos %d minutos", i+1, MinBlackoutIntervalMinutes)
		}
		normalized = append(normalized, BlackoutInterval{
			Start:           interval.Start,
			End:             interval.End,
			DurationMinutes: duration,
		})
	}

	sort.Slice(normalized, func(i, j int) bool {
		return normalized[i].Start.Before(normalized[j].Start)
	})
	for i := 1; i < len(normalized); i++ {
		if !normalized[i-1].End.Before(normalized[i].Start) {
			return nil, fmt.Errorf("los intervalos de apagón no pueden solaparse")
		}
	}

	return normalized, nil
}
