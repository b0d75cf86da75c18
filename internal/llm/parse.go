package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var listItem = regexp.MustCompile(`^\s*(?:\d+\s*[.):-]|[-*•])\s+(.+?)\s*$`)

// ParseList reads a list of strings out of model output. A JSON array is
// preferred, optionally inside a code fence; numbered or bulleted lines are
// the fallback. Blank items are dropped.
func ParseList(text string) []string {
	if items, ok := parseJSONArray(text); ok {
		return items
	}

	var out []string
	for _, line := range strings.Split(text, "\n") {
		m := listItem.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if item := strings.TrimSpace(m[1]); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseJSONArray(text string) ([]string, bool) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var raw []string
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, false
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, true
}

// ParseKeywords splits a comma-separated concept list.
func ParseKeywords(text string) []string {
	// some models answer on several lines anyway
	text = strings.ReplaceAll(text, "\n", ",")

	var out []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		part = strings.TrimLeft(part, "-*• ")
		part = strings.TrimRight(part, ". ")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
