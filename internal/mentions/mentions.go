// Package mentions extracts @-mention tokens from free-form message text.
//
// A mention is written as @[Display Name](identityToken): a display label in
// square brackets followed by an opaque identity token in parentheses.
package mentions

import "regexp"

// maxScanBytes caps how much untrusted text is scanned. Chat messages are far
// shorter than this; the cap only bounds pathological inputs.
const maxScanBytes = 64 << 10

var mentionPattern = regexp.MustCompile(`@\[([^\]]+)\]\((\w+)\)`)

// Mention is a single parsed mention occurrence.
type Mention struct {
	Label string
	Token string
}

// Parse returns the display labels of every mention in text, in order of
// occurrence and with duplicates preserved. Malformed markup is simply not
// matched; empty input yields an empty result.
func Parse(text string) []string {
	matches := ParseAll(text)
	if len(matches) == 0 {
		return nil
	}

	labels := make([]string, len(matches))
	for i, m := range matches {
		labels[i] = m.Label
	}
	return labels
}

// ParseAll returns every mention occurrence with both label and token.
func ParseAll(text string) []Mention {
	if text == "" {
		return nil
	}
	if len(text) > maxScanBytes {
		text = text[:maxScanBytes]
	}

	raw := mentionPattern.FindAllStringSubmatch(text, -1)
	if len(raw) == 0 {
		return nil
	}

	out := make([]Mention, len(raw))
	for i, match := range raw {
		out[i] = Mention{Label: match[1], Token: match[2]}
	}
	return out
}
