package scoring

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/comparely/shopmatch/internal/domain"
)

// FeatureSet maps feature name to its extracted numeric value. Transient;
// recomputed from raw specs on every scoring call, never persisted.
type FeatureSet map[string]float64

// Extractor derives a FeatureSet from raw, free-text spec values for one
// category. Extraction is deterministic and case-insensitive; a feature with
// no matching text is absent from the set, not zero.
type Extractor func(specs map[string]string) FeatureSet

// Unit-bearing numeric patterns, scanned over the concatenated spec text.
// Unit tokens are boundary-anchored so one unit's text cannot satisfy another
// unit's pattern (the "20h" inside "20hz" is not an hour value, the "w" in
// "warranty" is not a wattage).
var (
	reHours       = regexp.MustCompile(`(\d+)\s*h(ours?|rs?)?\b`)
	reMillimeters = regexp.MustCompile(`(\d+)\s*mm\b`)
	reHertz       = regexp.MustCompile(`(\d+)\s*hz\b`)
	reKilohertz   = regexp.MustCompile(`(\d+)\s*khz\b`)
	reMinutes     = regexp.MustCompile(`(\d+)\s*min(utes?|s)?\b`)
	reWatts       = regexp.MustCompile(`(\d+)\s*w(atts?)?\b`)
	reMegapixels  = regexp.MustCompile(`(\d+)\s*mp\b`)
	reMilliampH   = regexp.MustCompile(`(\d+)\s*mah\b`)
	reGigabytes   = regexp.MustCompile(`(\d+)\s*gb\b`)
	reCount       = regexp.MustCompile(`(\d+)`)
)

// Keyword vocabularies for boolean and ordinal features.
var (
	noiseKeywords      = []string{"noise cancellation", "anc", "active noise"}
	waterproofKeywords = []string{"waterproof", "water resistant", "ipx"}
	premiumBuild       = []string{"metal", "aluminum", "premium", "steel"}
	basicBuild         = []string{"plastic", "basic"}
	premiumFabric      = []string{"cotton", "silk", "wool", "linen", "organic"}
	basicFabric        = []string{"polyester", "synthetic", "blend"}
)

// defaultExtractors returns the built-in category extractor registry.
// Adding a category means adding a constant and an entry here.
func defaultExtractors() map[domain.Category]Extractor {
	return map[domain.Category]Extractor{
		domain.CategoryHeadphones: extractHeadphones,
		domain.CategoryTrimmer:    extractTrimmer,
		domain.CategoryMixer:      extractMixer,
		domain.CategorySmartphone: extractSmartphone,
		domain.CategoryLaptop:     extractLaptop,
		domain.CategoryClothing:   extractClothing,
		domain.CategoryGeneral:    extractGeneral,
	}
}

// joinSpecs concatenates spec values lower-cased in ascending key order so
// that pattern scanning is deterministic.
func joinSpecs(specs map[string]string) string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.ToLower(specs[k]))
	}
	return b.String()
}

// scanNumber returns the first value in text matching the pattern.
func scanNumber(text string, re *regexp.Regexp) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// scanFrequency extracts a frequency in Hz. A value expressed in kHz is
// converted to Hz. The conversion triggers whenever "khz" appears anywhere
// in the scanned text; if a spec blob mixes several numeric fields this can
// scale the wrong match — a known imprecision kept from the original
// heuristic rather than silently fixed.
func scanFrequency(text string) (float64, bool) {
	v, ok := scanNumber(text, reHertz)
	if !ok {
		v, ok = scanNumber(text, reKilohertz)
	}
	if !ok {
		return 0, false
	}
	if strings.Contains(text, "khz") {
		v *= 1000
	}
	return v, true
}

// scanKeyedCount reads a bare count from the first present alias key.
// Unit-less counts are scoped to their own spec field: a bare digit pattern
// over the full text would collide with every other numeric feature.
func scanKeyedCount(specs map[string]string, aliases ...string) (float64, bool) {
	for _, alias := range aliases {
		text, ok := specs[alias]
		if !ok {
			continue
		}
		if v, found := scanNumber(strings.ToLower(text), reCount); found {
			return v, true
		}
	}
	return 0, false
}

// scanKeyedNumber scans the pattern in values whose lower-cased key contains
// substr, in ascending key order. Used where a unit is ambiguous across spec
// fields (gb appears in both storage and ram values).
func scanKeyedNumber(specs map[string]string, re *regexp.Regexp, substr string) (float64, bool) {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !strings.Contains(strings.ToLower(k), substr) {
			continue
		}
		if v, ok := scanNumber(strings.ToLower(specs[k]), re); ok {
			return v, true
		}
	}
	return 0, false
}

// keywordFlag reports 1 iff any keyword appears in text. Boolean features
// are never missing, only 0 or 1.
func keywordFlag(text string, keywords []string) float64 {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return 1
		}
	}
	return 0
}

// ordinalRule is one vocabulary→grade step of an ordinal feature.
type ordinalRule struct {
	tokens []string
	grade  float64
}

// ordinalGrade evaluates rules in order; the first match wins. Premium
// vocabularies are listed before basic ones. Falls back to a mid-range 3.
func ordinalGrade(text string, rules []ordinalRule) float64 {
	for _, r := range rules {
		for _, tok := range r.tokens {
			if strings.Contains(text, tok) {
				return r.grade
			}
		}
	}
	return 3
}

func extractHeadphones(specs map[string]string) FeatureSet {
	text := joinSpecs(specs)
	fs := FeatureSet{}

	if v, ok := scanNumber(text, reHours); ok {
		fs["battery_life"] = v
	}
	if v, ok := scanNumber(text, reMillimeters); ok {
		fs["driver_size"] = v
	}
	fs["noise_cancellation"] = keywordFlag(text, noiseKeywords)
	fs["build_quality"] = ordinalGrade(text, []ordinalRule{
		{premiumBuild, 5},
		{basicBuild, 2},
	})
	if v, ok := scanFrequency(text); ok {
		fs["frequency_response"] = v
	}
	return fs
}

func extractTrimmer(specs map[string]string) FeatureSet {
	text := joinSpecs(specs)
	fs := FeatureSet{}

	if v, ok := scanNumber(text, reMinutes); ok {
		fs["runtime"] = v
	}
	fs["blade_material"] = ordinalGrade(text, []ordinalRule{
		{[]string{"stainless steel", "titanium"}, 5},
		{[]string{"steel", "ceramic"}, 4},
	})
	fs["waterproof"] = keywordFlag(text, waterproofKeywords)
	if v, ok := scanKeyedCount(specs, "attachments", "Attachments", "Accessories"); ok {
		fs["attachments"] = v
	}
	return fs
}

func extractMixer(specs map[string]string) FeatureSet {
	text := joinSpecs(specs)
	fs := FeatureSet{}

	if v, ok := scanNumber(text, reWatts); ok {
		fs["power_output"] = v
	}
	if v, ok := scanKeyedCount(specs, "jars", "Jars"); ok {
		fs["jar_count"] = v
	}
	if v, ok := scanKeyedCount(specs, "speeds", "Speed Settings"); ok {
		fs["speed_settings"] = v
	}
	return fs
}

func extractSmartphone(specs map[string]string) FeatureSet {
	text := joinSpecs(specs)
	fs := FeatureSet{}

	if v, ok := scanNumber(text, reMegapixels); ok {
		fs["camera"] = v
	}
	if v, ok := scanNumber(text, reMilliampH); ok {
		fs["battery"] = v
	}
	// Prefer a ram-keyed field; storage values also carry gb and may sort
	// earlier in the joined text.
	if v, ok := scanKeyedNumber(specs, reGigabytes, "ram"); ok {
		fs["ram"] = v
	} else if v, ok := scanNumber(text, reGigabytes); ok {
		fs["ram"] = v
	}
	return fs
}

// extractLaptop has no reliable unit patterns in the source data; every
// scorecard feature scores at the missing-feature credit.
func extractLaptop(_ map[string]string) FeatureSet {
	return FeatureSet{}
}

func extractClothing(specs map[string]string) FeatureSet {
	text := joinSpecs(specs)
	return FeatureSet{
		"material": ordinalGrade(text, []ordinalRule{
			{premiumFabric, 5},
			{basicFabric, 2},
		}),
	}
}

// extractGeneral synthesizes the four fixed general features; "features"
// counts the raw spec entries.
func extractGeneral(specs map[string]string) FeatureSet {
	return FeatureSet{
		"quality":    3,
		"durability": 3,
		"value":      3,
		"features":   float64(len(specs)),
	}
}
