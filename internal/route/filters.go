package route

import (
	"fmt"
	"strconv"
)

func bound(v float64) *float64 { return &v }

// ParseFilters applies the list-view presets ("short", "medium", "long" for
// distance; "flat", "hilly", "steep" for elevation gain). Empty or "all" means
// no bound.
func ParseFilters(distance, elevation string) (Filters, error) {
	var f Filters
	switch distance {
	case "", "all":
	case "short":
		f.MaxDistance = bound(5000)
	case "medium":
		f.MinDistance, f.MaxDistance = bound(5000), bound(15000)
	case "long":
		f.MinDistance = bound(15000)
	default:
		return Filters{}, fmt.Errorf("unknown distance filter %q", distance)
	}

	switch elevation {
	case "", "all":
	case "flat":
		f.MaxGain = bound(100)
	case "hilly":
		f.MinGain, f.MaxGain = bound(100), bound(500)
	case "steep":
		f.MinGain = bound(500)
	default:
		return Filters{}, fmt.Errorf("unknown elevation filter %q", elevation)
	}
	return f, nil
}

// WithRange overrides a preset with explicit numeric bounds from query values.
func (f Filters) WithRange(minDistance, maxDistance, minGain, maxGain string) (Filters, error) {
	for _, p := range []struct {
		raw string
		dst **float64
	}{
		{minDistance, &f.MinDistance},
		{maxDistance, &f.MaxDistance},
		{minGain, &f.MinGain},
		{maxGain, &f.MaxGain},
	} {
		if p.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(p.raw, 64)
		if err != nil {
			return Filters{}, fmt.Errorf("invalid bound %q", p.raw)
		}
		*p.dst = bound(v)
	}
	return f, nil
}
