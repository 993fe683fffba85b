package format

import "fmt"

// Metric formats a metric value with 3 decimals, matching the dashboard.
func Metric(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// OptMetric formats an optional metric; absent values render as a dash.
func OptMetric(v float64, ok bool) string {
	if !ok {
		return "-"
	}
	return Metric(v)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
