package safety

import (
	"strings"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
)

// Term rules are evaluated in severity order: a ban term wins over an
// end-session term, which wins over a masked term.

// banTerms indicate behavior that permanently restricts the account.
var banTerms = []string{
	"send nudes",
	"buy followers",
	"cashapp me",
}

// endSessionTerms terminate the session without restricting the account.
var endSessionTerms = []string{
	"kill yourself",
	"kys",
}

// maskedTerms are replaced and the sender is warned.
var maskedTerms = []string{
	"idiot",
	"moron",
	"stupid",
}

const maskReplacement = "***"

type termMatch struct {
	action model.FilterAction
	term   string
}

func matchTerms(text string) *termMatch {
	lowered := strings.ToLower(text)

	for _, term := range banTerms {
		if strings.Contains(lowered, term) {
			return &termMatch{action: model.FilterBan, term: term}
		}
	}
	for _, term := range endSessionTerms {
		if containsWord(lowered, term) {
			return &termMatch{action: model.FilterEndSession, term: term}
		}
	}
	for _, term := range maskedTerms {
		if containsWord(lowered, term) {
			return &termMatch{action: model.FilterWarn, term: term}
		}
	}
	return nil
}

// maskText replaces every masked term, preserving the rest of the message.
func maskText(text string) string {
	lowered := strings.ToLower(text)
	for _, term := range maskedTerms {
		for {
			idx := indexWord(lowered, term)
			if idx < 0 {
				break
			}
			text = text[:idx] + maskReplacement + text[idx+len(term):]
			lowered = lowered[:idx] + maskReplacement + lowered[idx+len(term):]
		}
	}
	return text
}

func containsWord(text, word string) bool {
	return indexWord(text, word) >= 0
}

// indexWord finds word in text at token boundaries, so a masked term does
// not match inside a longer word.
func indexWord(text, word string) int {
	start := 0
	for {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return -1
		}
		idx += start

		beforeOK := idx == 0 || isBoundary(text[idx-1])
		afterIdx := idx + len(word)
		afterOK := afterIdx >= len(text) || isBoundary(text[afterIdx])
		if beforeOK && afterOK {
			return idx
		}
		start = idx + 1
		if start >= len(text) {
			return -1
		}
	}
}

func isBoundary(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '.', ',', '!', '?', ':', ';', '"', '\'':
		return true
	}
	return false
}
