package domain

// Ordered set of stops. The index of a point is the canonical identity of the stop.
// A StopSet is never mutated after construction; a new one is built per run.
type StopSet []Point

// Return a copy of the given points as a StopSet.
func NewStopSet(points []Point) StopSet {
	out := make(StopSet, len(points))
	copy(out, points)
	return out
}

// Describes how a tour starts and ends.
// With RoundTrip set, End is ignored and the tour closes back to Start
// (or to the first visited stop when Start is nil).
type DepotPolicy struct {
	Start     *Point
	End       *Point
	RoundTrip bool
}

// A visiting order over a StopSet together with its depot policy.
type Tour struct {
	Order  []int
	Policy DepotPolicy
}

// Ordered coordinates derived from a Tour.
type Polyline []Point
