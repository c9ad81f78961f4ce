package booking

import (
	"fmt"
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End). The end instant is
// excluded, so back-to-back intervals do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates and builds an interval. Zero-duration and inverted
// ranges are rejected.
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: [%s, %s)", ErrInvalidInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open intervals intersect.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// clamp trims the interval to the given bounds. The result may be empty
// (Start >= End) when the interval lies outside the bounds.
func (iv Interval) clamp(bounds Interval) Interval {
	out := iv
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Span is one element of a free/busy timeline.
type Span struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Busy  bool      `json:"busy"`
}

// freeBusy merges the busy intervals into an ordered timeline covering the
// whole query range. Busy intervals are clamped to the range and coalesced
// (adjacent or overlapping ones become one span) before the free gaps are
// computed, so the output alternates busy/free and tiles the range exactly.
func freeBusy(bounds Interval, busy []Interval) []Span {
	clamped := make([]Interval, 0, len(busy))
	for _, iv := range busy {
		c := iv.clamp(bounds)
		if c.Start.Before(c.End) {
			clamped = append(clamped, c)
		}
	}
	sort.Slice(clamped, func(i, j int) bool {
		return clamped[i].Start.Before(clamped[j].Start)
	})

	// Coalesce: half-open intervals merge when the next one starts at or
	// before the current end.
	merged := make([]Interval, 0, len(clamped))
	for _, iv := range clamped {
		if n := len(merged); n > 0 && !merged[n-1].End.Before(iv.Start) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	spans := make([]Span, 0, 2*len(merged)+1)
	cursor := bounds.Start
	for _, iv := range merged {
		if cursor.Before(iv.Start) {
			spans = append(spans, Span{Start: cursor, End: iv.Start, Busy: false})
		}
		spans = append(spans, Span{Start: iv.Start, End: iv.End, Busy: true})
		cursor = iv.End
	}
	if cursor.Before(bounds.End) {
		spans = append(spans, Span{Start: cursor, End: bounds.End, Busy: false})
	}
	return spans
}
