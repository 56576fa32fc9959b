package sequence

import (
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
)

// ParseDelays parses a pump-probe delay specification into an ordered list of
// delay values in picoseconds, rounded to 3 decimal places (millisecond
// resolution on the femtosecond scale).
//
// The specification is a comma-separated list whose elements are either
// literal floats or start:step:stop ranges (stop exclusive). Ranges are
// flattened in place; duplicates produced by overlapping ranges are kept.
// The result is sorted ascending. Any unparseable element makes the whole
// specification invalid and yields an empty list.
func ParseDelays(spec string) []float64 {
	delays := []float64{}
	if strings.TrimSpace(spec) == "" {
		return delays
	}

	for _, elem := range strings.Split(spec, ",") {
		elem = strings.TrimSpace(elem)

		if v, err := strconv.ParseFloat(elem, 64); err == nil {
			delays = append(delays, round3(v))
			continue
		}

		rng, ok := parseRange(elem)
		if !ok {
			return []float64{}
		}
		delays = append(delays, rng...)
	}

	sort.Float64s(delays)

	return delays
}

// parseRange expands a start:step:stop element, stop exclusive.
func parseRange(elem string) ([]float64, bool) {
	parts := strings.Split(elem, ":")
	if len(parts) != 3 {
		return nil, false
	}

	start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, false
	}
	step, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || step == 0 {
		return nil, false
	}
	stop, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return nil, false
	}

	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return []float64{}, true
	}

	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, round3(start+float64(i)*step))
	}

	return out, true
}

// ShuffledDelays returns an independent uniform-random permutation of delays.
// Each scan gets its own shuffle so consecutive scans do not replay the same
// delay order.
func ShuffledDelays(rng *rand.Rand, delays []float64) []float64 {
	out := make([]float64, len(delays))
	copy(out, delays)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})

	return out
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
