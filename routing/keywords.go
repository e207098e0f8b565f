package routing

import (
	"regexp"
	"strings"

	"github.com/powerautomation/domainmcp/domains"
)

// Keyword weights: declared keywords carry full weight, words harvested
// from the description contribute at a reduced weight.
const (
	declaredKeywordWeight    = 1.0
	descriptionKeywordWeight = 0.3
)

// keywordMatcher matches one keyword against normalized request text.
// Latin-script keywords match on word boundaries; keywords containing Han
// characters match by substring since CJK text has no word boundaries.
type keywordMatcher struct {
	keyword string
	weight  float64
	pattern *regexp.Regexp // nil for substring matching
}

func (m keywordMatcher) matches(normalized string) bool {
	if m.pattern != nil {
		return m.pattern.MatchString(normalized)
	}
	return strings.Contains(normalized, m.keyword)
}

// keywordSet is one domain's weighted keyword mapping, compiled at train
// time so scoring does no regexp work beyond matching.
type keywordSet struct {
	matchers    []keywordMatcher
	totalWeight float64
}

func newKeywordSet(info domains.DomainInfo) *keywordSet {
	ks := &keywordSet{}
	seen := make(map[string]struct{})

	add := func(keyword string, weight float64) {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			return
		}
		// A word appearing both as declared keyword and in the description
		// keeps the declared weight.
		if _, dup := seen[keyword]; dup {
			return
		}
		seen[keyword] = struct{}{}

		m := keywordMatcher{keyword: keyword, weight: weight}
		if !hasHan(keyword) {
			m.pattern = regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
		}
		ks.matchers = append(ks.matchers, m)
		ks.totalWeight += weight
	}

	for _, kw := range info.Keywords {
		add(kw, declaredKeywordWeight)
	}
	for _, word := range tokenize(info.Description) {
		if isStopword(word) {
			continue
		}
		add(word, descriptionKeywordWeight)
	}
	return ks
}

// score returns the matched fraction of total keyword weight, in [0,1],
// and which declared keywords hit (for match reasons).
func (ks *keywordSet) score(normalized string) (float64, []string) {
	if ks.totalWeight == 0 {
		return 0, nil
	}

	var sum float64
	var matched []string
	for _, m := range ks.matchers {
		if m.matches(normalized) {
			sum += m.weight
			if m.weight >= declaredKeywordWeight {
				matched = append(matched, m.keyword)
			}
		}
	}

	score := sum / ks.totalWeight
	if score > 1 {
		score = 1
	}
	return score, matched
}
