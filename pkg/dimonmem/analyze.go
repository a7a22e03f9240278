package dimonmem

import (
	"sort"
	"strings"
)

// Keyword heuristics for sentiment and trait tags. Deliberately cheap: they
// run on every ingested message, and the retrieval layer does the heavy
// semantic work.

var positiveWords = []string{
	"thanks", "thank you", "great", "awesome", "nice", "cool", "love",
	"perfect", "haha", "lol", "lmao", "good one", "well done",
}

var negativeWords = []string{
	"hate", "awful", "terrible", "stupid", "crap", "garbage", "useless",
	"annoying", "worst", "wtf", "shut up",
}

var tagWords = map[string][]string{
	"humor":    {"haha", "lol", "lmao", "rofl", "joke", "funny"},
	"tech":     {"code", "bug", "server", "deploy", "api", "database", "frontend", "backend", "docker"},
	"friendly": {"thanks", "thank you", "please", "appreciate", "welcome"},
	"hostile":  {"hate", "stupid", "shut up", "idiot", "garbage"},
	"curious":  {"why", "how", "what if", "wonder", "explain"},
}

// AnalyzeText derives the sentiment score, trait tags, and importance for a
// raw message. Pure function of the text, so re-ingesting the same text
// yields identical signals.
func AnalyzeText(text string) (sentiment float64, tags []string, importance float64) {
	lower := strings.ToLower(text)

	var pos, neg int
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			pos++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			neg++
		}
	}

	switch {
	case pos > neg:
		sentiment = min(0.3*float64(pos-neg), 1.0)
	case neg > pos:
		sentiment = max(-0.3*float64(neg-pos), -1.0)
	}

	for tag, words := range tagWords {
		for _, w := range words {
			if strings.Contains(lower, w) {
				tags = append(tags, tag)
				break
			}
		}
	}
	sort.Strings(tags)

	importance = 0.5
	if len(text) > 100 {
		importance += 0.2
	}
	if strings.Contains(text, "?") {
		importance += 0.1
	}
	for _, w := range tagWords["tech"] {
		if strings.Contains(lower, w) {
			importance += 0.2
			break
		}
	}
	importance = min(importance, 1.0)

	return sentiment, tags, importance
}
