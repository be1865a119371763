// Package platform maps free-text platform labels to canonical names.
package platform

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// known maps alias substrings and standalone alias words to canonical
// platform names. Order matters: first match wins, and Instagram must come
// before Facebook so that mixed labels resolve the same way the classifier
// resolves them. Short aliases like "fb" match as whole words only, so a
// bare "FB" label resolves without "fb" matching inside unrelated text.
var known = []struct {
	canonical  string
	substrings []string
	words      []string
}{
	{"Instagram Reels", []string{"instagram", "insta"}, []string{"ig"}},
	{"Facebook Reels", []string{"facebook"}, []string{"fb"}},
	{"TikTok", []string{"tiktok", "tik tok"}, nil},
	{"YouTube Shorts", []string{"youtube", "shorts"}, nil},
	{"Snapchat", []string{"snapchat", "snap"}, nil},
}

var titleCaser = cases.Title(language.English)

// Normalize collapses variant spellings of a platform label into one
// canonical key so aggregates never grow duplicate rows for the same
// platform. Unrecognized labels pass through title-cased. Idempotent.
func Normalize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)
	tokens := strings.Fields(lower)

	for _, entry := range known {
		for _, alias := range entry.substrings {
			if strings.Contains(lower, alias) {
				return entry.canonical
			}
		}
		for _, alias := range entry.words {
			for _, token := range tokens {
				if token == alias {
					return entry.canonical
				}
			}
		}
	}

	return titleCaser.String(lower)
}
