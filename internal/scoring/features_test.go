package scoring

import (
	"math"
	"testing"

	"go.uber.org/zap"

	"github.com/comparely/shopmatch/internal/domain"
)

func newTestScorer() *Scorer {
	return NewScorer(zap.NewNop())
}

func TestNormalizeHeadphones(t *testing.T) {
	s := newTestScorer()

	specs := map[string]string{
		"battery":   "40 hours playback",
		"driver":    "50mm dynamic drivers",
		"features":  "active noise cancellation, premium aluminum build",
		"frequency": "20 Hz response",
	}

	fs := s.Normalize(domain.CategoryHeadphones, specs)

	if got := fs["battery_life"]; got != 40 {
		t.Errorf("battery_life = %v, want 40", got)
	}
	if got := fs["driver_size"]; got != 50 {
		t.Errorf("driver_size = %v, want 50", got)
	}
	if got := fs["noise_cancellation"]; got != 1 {
		t.Errorf("noise_cancellation = %v, want 1", got)
	}
	if got := fs["build_quality"]; got != 5 {
		t.Errorf("build_quality = %v, want 5", got)
	}
	if got := fs["frequency_response"]; got != 20 {
		t.Errorf("frequency_response = %v, want 20", got)
	}
}

func TestNormalizeFrequencyKilohertz(t *testing.T) {
	s := newTestScorer()

	fs := s.Normalize(domain.CategoryHeadphones, map[string]string{
		"frequency": "40 kHz",
	})

	if got := fs["frequency_response"]; got != 40000 {
		t.Errorf("frequency_response = %v, want 40000", got)
	}
}

func TestNormalizeMissingFeatureIsAbsent(t *testing.T) {
	s := newTestScorer()

	fs := s.Normalize(domain.CategoryHeadphones, map[string]string{
		"color": "midnight black",
	})

	if _, ok := fs["battery_life"]; ok {
		t.Error("battery_life should be absent when no hour value matches")
	}
	// Boolean features are never missing on non-empty specs, only 0 or 1.
	if got, ok := fs["noise_cancellation"]; !ok || got != 0 {
		t.Errorf("noise_cancellation = %v (present=%v), want 0 present", got, ok)
	}
}

func TestNormalizeUnitTokensDoNotCrossMatch(t *testing.T) {
	s := newTestScorer()

	t.Run("hz range is not an hour value", func(t *testing.T) {
		fs := s.Normalize(domain.CategoryHeadphones, map[string]string{
			"frequency_response": "20hz - 20khz",
		})

		if got, ok := fs["battery_life"]; ok {
			t.Errorf("battery_life = %v, want absent for a frequency-only spec", got)
		}
		if _, ok := fs["frequency_response"]; !ok {
			t.Error("frequency_response should still be extracted")
		}
	})

	t.Run("warranty is not a wattage", func(t *testing.T) {
		fs := s.Normalize(domain.CategoryMixer, map[string]string{
			"warranty": "2 warranty cards included",
		})

		if got, ok := fs["power_output"]; ok {
			t.Errorf("power_output = %v, want absent without a watt value", got)
		}
	})

	t.Run("mah is not a gigabyte value", func(t *testing.T) {
		fs := s.Normalize(domain.CategorySmartphone, map[string]string{
			"power": "5000 mAh",
		})

		if got, ok := fs["ram"]; ok {
			t.Errorf("ram = %v, want absent without a gb value", got)
		}
	})
}

func TestNormalizeSmartphoneRAMPrefersKeyedField(t *testing.T) {
	s := newTestScorer()

	// "Storage" sorts before "ram"; the ram-keyed value must win anyway.
	fs := s.Normalize(domain.CategorySmartphone, map[string]string{
		"Storage": "128gb ssd",
		"ram":     "8gb",
	})

	if got := fs["ram"]; got != 8 {
		t.Errorf("ram = %v, want 8 (value from the ram-keyed field)", got)
	}
}

func TestNormalizeOrdinalPremiumBeforeBasic(t *testing.T) {
	s := newTestScorer()

	fs := s.Normalize(domain.CategoryHeadphones, map[string]string{
		"build": "premium plastic housing",
	})

	if got := fs["build_quality"]; got != 5 {
		t.Errorf("build_quality = %v, want 5 (premium rule checked first)", got)
	}
}

func TestNormalizeTrimmer(t *testing.T) {
	s := newTestScorer()

	specs := map[string]string{
		"Attachments": "4 combs included",
		"battery":     "90 min cordless runtime",
		"blade":       "titanium coated blades, waterproof ipx7",
	}

	fs := s.Normalize(domain.CategoryTrimmer, specs)

	if got := fs["runtime"]; got != 90 {
		t.Errorf("runtime = %v, want 90", got)
	}
	if got := fs["blade_material"]; got != 5 {
		t.Errorf("blade_material = %v, want 5", got)
	}
	if got := fs["waterproof"]; got != 1 {
		t.Errorf("waterproof = %v, want 1", got)
	}
	if got := fs["attachments"]; got != 4 {
		t.Errorf("attachments = %v, want 4", got)
	}
	if _, ok := fs["charging_time"]; ok {
		t.Error("charging_time should be absent, it has no extraction pattern")
	}
}

func TestNormalizeMixer(t *testing.T) {
	s := newTestScorer()

	specs := map[string]string{
		"power":  "750W motor",
		"jars":   "3 stainless jars",
		"speeds": "5 speed settings",
	}

	fs := s.Normalize(domain.CategoryMixer, specs)

	if got := fs["power_output"]; got != 750 {
		t.Errorf("power_output = %v, want 750", got)
	}
	if got := fs["jar_count"]; got != 3 {
		t.Errorf("jar_count = %v, want 3", got)
	}
	if got := fs["speed_settings"]; got != 5 {
		t.Errorf("speed_settings = %v, want 5", got)
	}
}

func TestNormalizeSmartphone(t *testing.T) {
	s := newTestScorer()

	specs := map[string]string{
		"camera": "108 MP main sensor",
		"power":  "5000 mAh",
		"memory": "12GB RAM",
	}

	fs := s.Normalize(domain.CategorySmartphone, specs)

	if got := fs["camera"]; got != 108 {
		t.Errorf("camera = %v, want 108", got)
	}
	if got := fs["battery"]; got != 5000 {
		t.Errorf("battery = %v, want 5000", got)
	}
	if got := fs["ram"]; got != 12 {
		t.Errorf("ram = %v, want 12", got)
	}
}

func TestNormalizeClothing(t *testing.T) {
	s := newTestScorer()

	tests := []struct {
		name     string
		material string
		want     float64
	}{
		{"premium fabric", "100% organic cotton", 5},
		{"basic fabric", "polyester blend", 2},
		{"unknown fabric", "denim", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := s.Normalize(domain.CategoryClothing, map[string]string{"material": tt.material})
			if got := fs["material"]; got != tt.want {
				t.Errorf("material = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeGeneralSynthesis(t *testing.T) {
	s := newTestScorer()

	specs := map[string]string{"weight": "2kg", "color": "red", "origin": "imported"}

	fs := s.Normalize(domain.CategoryGeneral, specs)

	want := FeatureSet{"quality": 3, "durability": 3, "value": 3, "features": 3}
	for k, v := range want {
		if got := fs[k]; math.Abs(got-v) > 1e-9 {
			t.Errorf("%s = %v, want %v", k, got, v)
		}
	}
}

func TestNormalizeUnknownCategoryUsesGeneral(t *testing.T) {
	s := newTestScorer()

	fs := s.Normalize(domain.Category("garden"), map[string]string{"blade": "steel"})

	if got := fs["quality"]; got != 3 {
		t.Errorf("quality = %v, want 3 (general synthesis)", got)
	}
	if got := fs["features"]; got != 1 {
		t.Errorf("features = %v, want 1", got)
	}
}

func TestNormalizeEmptySpecs(t *testing.T) {
	s := newTestScorer()

	for _, cat := range domain.Categories() {
		if fs := s.Normalize(cat, nil); len(fs) != 0 {
			t.Errorf("Normalize(%s, nil) = %v, want empty set", cat, fs)
		}
	}
}
