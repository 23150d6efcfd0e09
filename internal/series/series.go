package series

import "time"

// DefaultCounters is the counter set used when the deployment does not
// configure its own list. Order matters: the first counter is the primary
// one used for rankings.
var DefaultCounters = []string{"total_plays", "total_listeners"}

// Key identifies one (source, item) series.
type Key struct {
	Source string
	ItemID string
}

func (k Key) String() string {
	return k.Source + ":" + k.ItemID
}

// Raw is one record as decoded from storage, before any validation. Seq
// preserves the order records were encountered in; last-wins dedup is
// defined in terms of that order.
type Raw struct {
	Seq    int
	Fields map[string]any
}

// Point is one validated observation of the cumulative counters for a
// (source, item) pair at minute resolution.
type Point struct {
	Source         string
	ItemID         string
	ItemName       string
	ArtistName     string
	CollectionName string
	Timestamp      time.Time
	Counters       map[string]float64
}

// Key returns the series key for the point.
func (p Point) Key() Key {
	return Key{Source: p.Source, ItemID: p.ItemID}
}

// Counter returns the named counter value and whether it was present.
func (p Point) Counter(name string) (float64, bool) {
	v, ok := p.Counters[name]
	return v, ok
}

// MetricPoint is a Point annotated with first-difference metrics relative to
// the previous point of the same series. DeltaMinutes is nil for the first
// point of a series.
type MetricPoint struct {
	Point
	Deltas       map[string]float64
	DeltaMinutes *float64
	Rates        map[string]float64
	Anomaly      bool
}

// Delta returns the named counter delta and whether it was derivable.
func (m MetricPoint) Delta(name string) (float64, bool) {
	v, ok := m.Deltas[name]
	return v, ok
}

// Rate returns the named per-minute rate and whether it was derivable.
func (m MetricPoint) Rate(name string) (float64, bool) {
	v, ok := m.Rates[name]
	return v, ok
}

// Summary is the per-(source, item) reduction of a metric series. First and
// Last hold the boundary counter values; Net holds last minus first and is
// present only when both boundary values are; AvgRate holds the mean of the
// present per-minute rates.
type Summary struct {
	Source         string
	ItemID         string
	ItemName       string
	ArtistName     string
	FirstTimestamp time.Time
	LastTimestamp  time.Time
	First          map[string]float64
	Last           map[string]float64
	Net            map[string]float64
	AvgRate        map[string]float64
	NumPoints      int
	NumAnomalies   int
}

// Key returns the series key for the summary.
func (s Summary) Key() Key {
	return Key{Source: s.Source, ItemID: s.ItemID}
}
