package feedback

import (
	"regexp"
	"strings"
)

var scorePatterns = []*regexp.Regexp{
	// 7/10, 8.5 / 10, 4 out of 5
	regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:/|out\s+of)\s*(?:5|10|100)\b`),
	// Score: 8, Rating - 4, Grade 9
	regexp.MustCompile(`(?i)\b(?:score|rating|rated|grade)\b\s*[:=\-]?\s*\d`),
	// 80% score, score of 80%
	regexp.MustCompile(`(?i)\b(?:score|rating|grade)\b[^.\n]{0,20}\d+\s*%|\d+\s*%[^.\n]{0,20}\b(?:score|rating|grade)\b`),
}

// scrubScores drops every line that reports a numeric score or rating.
func scrubScores(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))

	for _, line := range lines {
		if hasScore(line) {
			continue
		}
		kept = append(kept, line)
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func hasScore(line string) bool {
	for _, re := range scorePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
