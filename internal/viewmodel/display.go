package viewmodel

import (
	"fmt"
	"math"

	"github.com/npratt/beacon/internal/progress"
)

// Percentage converts a progress fraction to a whole percentage, clamped to
// [0, 100].
func Percentage(p float64) int {
	if math.IsNaN(p) || p <= 0 {
		return 0
	}
	if p >= 1 {
		return 100
	}
	return int(math.Round(p * 100))
}

// PercentLabel formats a progress fraction as "NN%".
func PercentLabel(p float64) string {
	return fmt.Sprintf("%d%%", Percentage(p))
}

// FormatDuration renders whole seconds as "{s}s", or "{m}m {s}s" from one
// minute up. Fractions are truncated.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	if total < 60 {
		return fmt.Sprintf("%ds", total)
	}
	return fmt.Sprintf("%dm %ds", total/60, total%60)
}

// IndicatorLabel names the active flags. Both flags outrank coding alone,
// which outranks thinking alone.
func IndicatorLabel(ind progress.Indicators) string {
	switch {
	case ind.Thinking && ind.Coding:
		return "Thinking & coding"
	case ind.Coding:
		return "Coding"
	case ind.Thinking:
		return "Thinking"
	default:
		return "Idle"
	}
}
