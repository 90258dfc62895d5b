// Package gradient finds runs of large step-to-step changes in a series.
package gradient

import "math"

// Interval is an inclusive range of sample indices covering a run of
// consecutive differences that met the threshold. Start is the first sample
// of the first qualifying step and End the last sample of the last one.
type Interval struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Detect scans the consecutive absolute differences of samples and returns
// the maximal runs where each difference is >= threshold, in order.
//
// Difference i is samples[i+1]-samples[i]. A run that opens at difference s
// and is broken by difference e is recorded as {s, e}; e is also the index
// of the last sample reached by the run. A run still open after the last
// difference ends at len(samples)-1. NaN differences never qualify, so NaN
// input or a NaN threshold yields no intervals. Fewer than two samples yield
// nil.
func Detect(samples []float64, threshold float64) []Interval {
	if len(samples) < 2 {
		return nil
	}

	var out []Interval
	start := -1
	for i := 0; i < len(samples)-1; i++ {
		if math.Abs(samples[i+1]-samples[i]) >= threshold {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			out = append(out, Interval{Start: start, End: i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, Interval{Start: start, End: len(samples) - 1})
	}
	return out
}
