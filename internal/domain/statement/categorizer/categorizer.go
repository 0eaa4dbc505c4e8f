// Package categorizer scores normalized transactions against a user's
// category rules and assigns the best category above the confidence floor.
package categorizer

import (
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
	"github.com/google/uuid"

	"github.com/FACorreiaa/backoffice/internal/domain/statement/repository"
)

// Score weights per matcher kind. The running score is capped at 1.0 and a
// rule only wins when it scores strictly above the floor.
const (
	keywordWeight      = 0.3
	patternWeight      = 0.4
	merchantRuleWeight = 0.5
	confidenceFloor    = 0.7
	scoreCap           = 1.0
)

// Result is a categorization outcome: the winning rule and its confidence.
type Result struct {
	CategoryID uuid.UUID
	Confidence float64
}

type patternRef struct {
	ruleIdx int
	weight  float64
}

// Categorizer evaluates a fixed rule set. The keyword and merchant-rule
// substring matchers are compiled into a single Aho-Corasick automaton so
// every description is scanned once regardless of rule count; regex patterns
// are compiled per rule, skipping any that fail to compile.
type Categorizer struct {
	rules    []repository.CategoryRule
	matcher  *ahocorasick.Matcher
	refs     [][]patternRef // substring pattern index -> owning rules and weights
	compiled [][]*regexp.Regexp
}

// New builds a categorizer for the given rules. Rule order is preserved:
// ties resolve to the earliest rule.
func New(rules []repository.CategoryRule) *Categorizer {
	c := &Categorizer{
		rules:    rules,
		compiled: make([][]*regexp.Regexp, len(rules)),
	}

	patternToIdx := make(map[string]int)
	var patterns [][]byte

	addSubstring := func(raw string, ruleIdx int, weight float64) {
		p := strings.ToUpper(strings.TrimSpace(raw))
		if p == "" {
			return
		}
		idx, ok := patternToIdx[p]
		if !ok {
			idx = len(patterns)
			patternToIdx[p] = idx
			patterns = append(patterns, []byte(p))
			c.refs = append(c.refs, nil)
		}
		c.refs[idx] = append(c.refs[idx], patternRef{ruleIdx: ruleIdx, weight: weight})
	}

	for i, rule := range rules {
		for _, kw := range rule.Keywords {
			addSubstring(kw, i, keywordWeight)
		}
		for _, mr := range rule.MerchantRules {
			addSubstring(mr, i, merchantRuleWeight)
		}
		for _, pat := range rule.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				// An invalid user pattern is skipped, not fatal.
				continue
			}
			c.compiled[i] = append(c.compiled[i], re)
		}
	}

	if len(patterns) > 0 {
		c.matcher = ahocorasick.NewMatcher(patterns)
	}
	return c
}

// Categorize scores the transaction's cleaned description and merchant guess
// against every rule and returns the best rule scoring strictly above the
// floor, or nil when none does.
func (c *Categorizer) Categorize(tx *repository.Transaction) *Result {
	if len(c.rules) == 0 {
		return nil
	}

	scores := make([]float64, len(c.rules))

	// Substring matchers: a pattern found in either field counts once.
	if c.matcher != nil {
		seen := make(map[int]bool)
		for _, field := range []string{tx.DescriptionCleaned, tx.MerchantName} {
			if field == "" {
				continue
			}
			for _, idx := range c.matcher.Match([]byte(strings.ToUpper(field))) {
				if seen[idx] {
					continue
				}
				seen[idx] = true
				for _, ref := range c.refs[idx] {
					scores[ref.ruleIdx] += ref.weight
				}
			}
		}
	}

	for i := range c.rules {
		for _, re := range c.compiled[i] {
			if re.MatchString(tx.DescriptionCleaned) || (tx.MerchantName != "" && re.MatchString(tx.MerchantName)) {
				scores[i] += patternWeight
			}
		}
	}

	bestIdx := -1
	bestScore := 0.0
	for i, score := range scores {
		if score > scoreCap {
			score = scoreCap
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore <= confidenceFloor {
		return nil
	}
	return &Result{CategoryID: c.rules[bestIdx].ID, Confidence: bestScore}
}
