package forecast

import (
	"sort"
	"strings"
	"time"

	"github.com/soltwin/soltwin/pkg/types"
)

const (
	blackoutLoadFactor        = 0.6
	blackoutProductionFactor  = 0.85
	blackoutConfidencePenalty = 12

	// intervals at or above this length are considered severe
	severeBlackoutMinutes = 180
)

// blackoutWindow is one interval of a schedule, flattened for chronological
// matching.
type blackoutWindow struct {
	start    time.Time
	end      time.Time
	schedule types.BlackoutSchedule
	interval types.BlackoutInterval
}

// flattenBlackoutWindows expands schedules into sorted windows, dropping
// intervals that do not span any time.
func flattenBlackoutWindows(schedules []types.BlackoutSchedule) []blackoutWindow {
	var windows []blackoutWindow
	for _, schedule := range schedules {
		for _, interval := range schedule.Intervals {
			if interval.Start.Before(interval.End) {
				windows = append(windows, blackoutWindow{
					start:    interval.Start,
					end:      interval.End,
					schedule: schedule,
					interval: interval,
				})
			}
		}
	}
	sort.Slice(windows, func(i, j int) bool {
		return windows[i].start.Before(windows[j].start)
	})
	return windows
}

// covers reports whether ts falls inside the window. Starts are inclusive,
// ends exclusive.
func (w blackoutWindow) covers(ts time.Time) bool {
	return !ts.Before(w.start) && ts.Before(w.end)
}

func (w blackoutWindow) intensity() types.BlackoutIntensity {
	if w.interval.DurationMinutes > 0 {
		if w.interval.DurationMinutes >= severeBlackoutMinutes {
			return types.BlackoutSevere
		}
		return types.BlackoutModerate
	}
	if w.end.Sub(w.start) >= 3*time.Hour {
		return types.BlackoutSevere
	}
	return types.BlackoutModerate
}

func (w blackoutWindow) describe() string {
	if notes := strings.TrimSpace(w.schedule.Notes); notes != "" {
		return notes
	}
	return "Apagón programado " + w.start.Format("Monday 15:04") + " - " + w.end.Format("15:04")
}

// ApplyBlackoutAdjustments reduces production and consumption for prediction
// hours that fall inside a scheduled blackout window, attaching the impact
// details. With no applicable windows the input is returned untouched. When
// windows overlap, the earliest matching one wins.
func (e *Engine) ApplyBlackoutAdjustments(predictions []types.HourlyPrediction, schedules []types.BlackoutSchedule) []types.HourlyPrediction {
	if len(schedules) == 0 {
		return predictions
	}
	windows := flattenBlackoutWindows(schedules)
	if len(windows) == 0 {
		return predictions
	}

	adjusted := make([]types.HourlyPrediction, 0, len(predictions))
	for _, prediction := range predictions {
		var match *blackoutWindow
		for i := range windows {
			if windows[i].covers(prediction.Timestamp) {
				match = &windows[i]
				break
			}
		}
		if match == nil {
			adjusted = append(adjusted, prediction)
			continue
		}

		prediction.ExpectedProduction = round2(prediction.ExpectedProduction * blackoutProductionFactor)
		if prediction.ExpectedProduction < 0 {
			prediction.ExpectedProduction = 0
		}
		prediction.ExpectedConsumption = round2(prediction.ExpectedConsumption * blackoutLoadFactor)
		if prediction.ExpectedConsumption < 0 {
			prediction.ExpectedConsumption = 0
		}
		if prediction.Confidence-blackoutConfidencePenalty > 40 {
			prediction.Confidence -= blackoutConfidencePenalty
		} else {
			prediction.Confidence = 40
		}
		prediction.BlackoutImpact = &types.BlackoutImpact{
			IntervalStart:    match.interval.Start,
			IntervalEnd:      match.interval.End,
			LoadFactor:       blackoutLoadFactor,
			ProductionFactor: blackoutProductionFactor,
			Intensity:        match.intensity(),
			Note:             match.describe(),
		}
		adjusted = append(adjusted, prediction)
	}
	return adjusted
}
