package scoring

import "github.com/comparely/shopmatch/internal/domain"

// Scorecard maps feature name to its weight in points. The sum of weights
// defines the quality-score denominator; the built-in tables sum to 100 but
// registered cards may not.
type Scorecard map[string]int

// TotalWeight returns the sum of all feature weights.
func (c Scorecard) TotalWeight() int {
	total := 0
	for _, w := range c {
		total += w
	}
	return total
}

// clone returns an independent copy so callers cannot mutate registered cards.
func (c Scorecard) clone() Scorecard {
	out := make(Scorecard, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// defaultScorecards returns the built-in per-category weight tables.
func defaultScorecards() map[domain.Category]Scorecard {
	return map[domain.Category]Scorecard{
		domain.CategoryHeadphones: {
			"battery_life":       30,
			"driver_size":        25,
			"noise_cancellation": 20,
			"build_quality":      15,
			"frequency_response": 10,
		},
		domain.CategoryTrimmer: {
			"runtime":        30,
			"blade_material": 25,
			"waterproof":     20,
			"attachments":    15,
			"charging_time":  10,
		},
		domain.CategoryMixer: {
			"power_output":    30,
			"jar_count":       25,
			"speed_settings":  20,
			"warranty":        15,
			"safety_features": 10,
		},
		domain.CategorySmartphone: {
			"camera":    25,
			"battery":   25,
			"processor": 20,
			"ram":       15,
			"storage":   15,
		},
		domain.CategoryLaptop: {
			"processor": 30,
			"ram":       25,
			"storage":   20,
			"display":   15,
			"battery":   10,
		},
		domain.CategoryClothing: {
			"material":   30,
			"fit":        25,
			"durability": 20,
			"comfort":    15,
			"design":     10,
		},
		domain.CategoryGeneral: {
			"quality":    40,
			"features":   30,
			"durability": 20,
			"value":      10,
		},
	}
}

// defaultReferences returns the per-category saturation values used to
// normalize raw feature magnitudes to [0,1]. A feature with no reference
// defaults to 1 at scoring time.
func defaultReferences() map[domain.Category]map[string]float64 {
	return map[domain.Category]map[string]float64{
		domain.CategoryHeadphones: {
			"battery_life":       40,    // hours
			"driver_size":        50,    // mm
			"noise_cancellation": 1,     // boolean
			"build_quality":      5,     // 1-5 ordinal
			"frequency_response": 40000, // Hz
		},
		domain.CategoryTrimmer: {
			"runtime":        120, // minutes
			"blade_material": 5,   // 1-5 ordinal
			"waterproof":     1,   // boolean
			"attachments":    10,
			"charging_time":  8, // hours, lower is better
		},
		domain.CategoryMixer: {
			"power_output":    1000, // watts
			"jar_count":       5,
			"speed_settings":  10,
			"warranty":        5, // years
			"safety_features": 5, // 1-5 ordinal
		},
		domain.CategorySmartphone: {
			"camera":    108, // MP
			"battery":   5000, // mAh
			"processor": 5,   // 1-5 ordinal
			"ram":       12,  // GB
			"storage":   256, // GB
		},
	}
}
