package speech

import (
	"strings"

	"golang.org/x/text/language"
)

// SelectVoice picks the best voice for the desired BCP-47 language tag.
// Matching is case-insensitive and the first rule that matches wins:
//
//  1. exact match on the full tag ("pt-BR" == "pt-BR")
//  2. the desired tag is a prefix of a candidate's tag ("pt-br" vs "pt-BR-x")
//  3. the desired primary language subtag is a prefix of a candidate's tag
//     (desired "pt-BR" matches "pt" or "pt-PT")
//  4. the first voice in catalog order
//
// The second return value is false only when the catalog is empty. The
// function is pure: same inputs always produce the same result.
func SelectVoice(voices []Voice, desired string) (Voice, bool) {
	if len(voices) == 0 {
		return Voice{}, false
	}

	want := strings.ToLower(strings.TrimSpace(desired))
	if want != "" {
		for _, v := range voices {
			if strings.ToLower(v.Language) == want {
				return v, true
			}
		}
		for _, v := range voices {
			if strings.HasPrefix(strings.ToLower(v.Language), want) {
				return v, true
			}
		}
		if primary := primarySubtag(want); primary != "" {
			for _, v := range voices {
				if strings.HasPrefix(strings.ToLower(v.Language), primary) {
					return v, true
				}
			}
		}
	}

	return voices[0], true
}

// primarySubtag extracts the primary language subtag ("pt" from "pt-BR").
// Malformed tags fall back to a plain split so selection stays total.
func primarySubtag(tag string) string {
	if t, err := language.Parse(tag); err == nil {
		if base, conf := t.Base(); conf > language.No {
			return strings.ToLower(base.String())
		}
	}
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		return tag[:i]
	}
	return tag
}
