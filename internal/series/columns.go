package series

// Derived-field naming used across CSV, report, and database surfaces. The
// pipeline keeps values in maps keyed by counter name; these helpers produce
// the externally visible column names for them.

// DeltaField returns the delta column name for a counter.
func DeltaField(counter string) string {
	return "delta_" + counter
}

// RateField returns the per-minute rate column name for a counter.
func RateField(counter string) string {
	return "rate_" + counter + "_per_min"
}

// FirstField returns the summary first-value column name for a counter.
func FirstField(counter string) string {
	return "first_" + counter
}

// LastField returns the summary last-value column name for a counter.
func LastField(counter string) string {
	return "last_" + counter
}

// NetField returns the summary net-change column name for a counter.
func NetField(counter string) string {
	return "net_" + counter
}

// AvgRateField returns the summary average-rate column name for a counter.
func AvgRateField(counter string) string {
	return "avg_rate_" + counter + "_per_min"
}
