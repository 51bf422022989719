package seamcarve

// Bounds for ScaleTarget percentages.
const (
	MinScalePercent = 10
	MaxScalePercent = 100
)

// ScaleTarget returns the target width for reducing width to percent of
// its size. percent is clamped to [MinScalePercent, MaxScalePercent] and
// the result is never below 1.
func ScaleTarget(width, percent int) int {
	percent = max(MinScalePercent, min(MaxScalePercent, percent))
	return max(1, width*percent/100)
}
