package classify

import (
	"strings"

	"scorewatch/src/catalog"
)

// Result is the outcome of one classification pass over a capture.
// An empty Variant means no screen matched; the watcher keeps waiting.
type Result struct {
	// MatchedKeywords lists every keyword found in the recognized text, in
	// rule order. Exact-token matches record the token itself.
	MatchedKeywords []string
	// RecognizedText is the text of the region that produced the match.
	RecognizedText string
	// Variant names the matched screen, or is empty on a miss.
	Variant string
}

// Matched reports whether a screen variant was identified.
func (r Result) Matched() bool { return r.Variant != "" }

// Classify decides which screen variant a capture shows. Screens are tried
// in the catalog's precedence order; a screen is skipped when its sampling
// region is disabled or produced no text. The first screen whose rule
// matches wins and later screens are not evaluated.
func Classify(cat *catalog.Catalog, game catalog.Game, texts map[string]string, enabled map[string]bool) Result {
	for _, screen := range cat.Screens(game) {
		if !enabled[screen.Name] {
			continue
		}
		text := texts[screen.Name]
		if text == "" {
			continue
		}
		if matched := matchRule(screen.Rule, text); len(matched) > 0 {
			return Result{
				MatchedKeywords: matched,
				RecognizedText:  text,
				Variant:         screen.Name,
			}
		}
	}
	return Result{}
}

// matchRule returns the matched keywords, or nil on a miss. All keyword hits
// are collected, not just the first, so logs show the full signal.
func matchRule(rule catalog.MatchRule, text string) []string {
	normalized := strings.ToUpper(strings.TrimSpace(text))
	if rule.Token != "" {
		if strings.ReplaceAll(normalized, " ", "") == rule.Token {
			return []string{rule.Token}
		}
		return nil
	}
	var matched []string
	for _, kw := range rule.Keywords {
		if strings.Contains(normalized, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}
