package feedback

import (
	"sort"
	"strings"
	"unicode"
)

// localKeywords is the offline keyword extractor: lowercase, drop punctuation
// and digits, drop stopwords and words of three letters or fewer, keep the
// five most frequent. Ties keep first-appearance order.
func localKeywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '_'
	})

	freq := make(map[string]int)
	var order []string
	for _, w := range words {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > 5 {
		order = order[:5]
	}
	return order
}

// English stopwords longer than three letters; shorter words are dropped by
// length anyway.
var stopwords = toSet(`
about above after again against aren because been before being below
between both cannot could couldn didn does doesn doing down during each
from further hadn hasn have haven having here hers herself himself
into isn itself just mightn more most mustn myself needn once only other
ours ourselves over same shan should shouldn some such than that thats their
theirs them themselves then there these they this those through under until
very wasn were weren what when where which while whom will with won wouldn
your yours yourself yourselves
`)

func toSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}
