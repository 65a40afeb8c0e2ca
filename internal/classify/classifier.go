package classify

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"RfpFinder/internal/domain"
	"RfpFinder/internal/taxonomy"
)

const (
	// DefaultMinRelevance gates IsRelevant. Kept deliberately lower than the
	// notification threshold so the pipeline over-retains; filtering for
	// display or email is a downstream decision.
	DefaultMinRelevance = 20

	// DefaultTitleFloor is the minimum score forced when "scada" appears
	// verbatim in the title. Term-frequency averaging under-counts terse
	// titles; an explicit mention is strong signal on its own.
	DefaultTitleFloor = 50
)

var titleOverride = regexp.MustCompile(`\bscada\b`)

// hint maps an industry-adjacent word to the flag it implies. Used only when
// core SCADA terms matched but no vertical category did: terse RFP titles
// often say "water" or "utility" without any treatment-plant jargon.
type hint struct {
	term *regexp.Regexp
	set  func(*domain.Classification)
}

// Classifier scores raw RFP text against a keyword taxonomy. It is pure and
// safe for concurrent use once constructed.
type Classifier struct {
	categories  []category
	totalWeight float64
	minScore    int
	titleFloor  int
	hints       []hint
}

type category struct {
	name     string
	weight   int
	matchers []*regexp.Regexp
}

// Option tunes classifier thresholds.
type Option func(*Classifier)

// WithMinRelevance overrides the IsRelevant gate.
func WithMinRelevance(score int) Option {
	return func(c *Classifier) { c.minScore = score }
}

// WithTitleFloor overrides the forced minimum for explicit title mentions.
// Zero disables the override.
func WithTitleFloor(score int) Option {
	return func(c *Classifier) { c.titleFloor = score }
}

// New compiles the taxonomy into whole-word matchers. Terms are treated as
// literal phrases: metacharacters are escaped, and matching is word-bounded so
// "gas" never fires inside "bagasse".
func New(tax taxonomy.Taxonomy, opts ...Option) (*Classifier, error) {
	if err := tax.Validate(); err != nil {
		return nil, fmt.Errorf("classifier taxonomy: %w", err)
	}

	c := &Classifier{
		minScore:   DefaultMinRelevance,
		titleFloor: DefaultTitleFloor,
		hints:      defaultHints(),
	}

	for name, cat := range tax {
		compiled := category{name: name, weight: cat.Weight}
		for _, term := range cat.Terms {
			re, err := regexp.Compile(`\b` + regexp.QuoteMeta(term) + `\b`)
			if err != nil {
				return nil, fmt.Errorf("category %s: term %q: %w", name, term, err)
			}
			compiled.matchers = append(compiled.matchers, re)
		}
		c.categories = append(c.categories, compiled)
		c.totalWeight += float64(cat.Weight)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Classify scores the concatenated title and description and derives industry
// flags. Empty input short-circuits to a zero classification.
func (c *Classifier) Classify(title, description string) domain.Classification {
	var result domain.Classification

	text := strings.ToLower(strings.TrimSpace(title + " " + description))
	if text == "" {
		return result
	}

	// Each term counts at most once per category regardless of repetition,
	// so the score is independent of term-list ordering.
	matched := make(map[string]int, len(c.categories))
	for _, cat := range c.categories {
		for _, re := range cat.matchers {
			if re.MatchString(text) {
				matched[cat.name]++
			}
		}
	}

	var total float64
	for _, cat := range c.categories {
		share := float64(matched[cat.name]) / float64(len(cat.matchers))
		total += share * float64(cat.weight) * 100
	}

	score := int(math.Round(total / (c.totalWeight * 100) * 100))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	result.IsWaterWastewater = matched[taxonomy.WaterWastewater] > 0
	result.IsMining = matched[taxonomy.Mining] > 0
	result.IsOilGas = matched[taxonomy.OilGas] > 0
	result.IsHVAC = matched[taxonomy.HVAC] > 0

	// Core terms matched but no vertical did: fall back to industry-adjacent
	// hints rather than under-flag an obviously relevant notice.
	if matched[taxonomy.CoreSCADA] > 0 && !c.anyVertical(result) {
		for _, h := range c.hints {
			if h.term.MatchString(text) {
				h.set(&result)
			}
		}
	}

	if c.titleFloor > 0 && titleOverride.MatchString(strings.ToLower(title)) && score < c.titleFloor {
		score = c.titleFloor
	}

	result.RelevanceScore = score
	result.IsRelevant = score >= c.minScore

	return result
}

func (c *Classifier) anyVertical(r domain.Classification) bool {
	return r.IsWaterWastewater || r.IsMining || r.IsOilGas || r.IsHVAC
}

func defaultHints() []hint {
	wordHint := func(term string, set func(*domain.Classification)) hint {
		return hint{
			term: regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`),
			set:  set,
		}
	}

	water := func(r *domain.Classification) { r.IsWaterWastewater = true }
	mining := func(r *domain.Classification) { r.IsMining = true }
	oilGas := func(r *domain.Classification) { r.IsOilGas = true }

	return []hint{
		wordHint("water", water),
		wordHint("utility", water),
		wordHint("municipal", water),
		wordHint("treatment", water),
		wordHint("mineral", mining),
		wordHint("excavation", mining),
		wordHint("quarry", mining),
		wordHint("petroleum", oilGas),
		wordHint("hydrocarbon", oilGas),
		wordHint("fuel", oilGas),
	}
}
