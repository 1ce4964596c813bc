// Package textfilter masks profanity in generated narration according
// to the session's content rating. Filtering is presentation hygiene:
// it rewrites words in place and never rejects a line outright.
package textfilter

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Tier is the severity class of a filtered word.
type Tier int

const (
	// TierStrong words are masked for every rating below R.
	TierStrong Tier = iota
	// TierMild words pass at PG13 and are masked only for G and PG.
	TierMild
)

type replacement struct {
	word string
	sub  string
	tier Tier
}

// Substitutions keep the line readable; slurs and explicit terms are
// censored rather than paraphrased.
var replacements = []replacement{
	{"fuck", "fudge", TierStrong},
	{"motherfucker", "mother-trucker", TierStrong},
	{"cock", "[censored]", TierStrong},
	{"dick", "jerk", TierStrong},
	{"pussy", "[censored]", TierStrong},
	{"tits", "[censored]", TierStrong},
	{"boobs", "[censored]", TierStrong},
	{"whore", "[censored]", TierStrong},
	{"slut", "[censored]", TierStrong},
	{"fag", "[censored]", TierStrong},
	{"retard", "[censored]", TierStrong},
	{"nigger", "[censored]", TierStrong},
	{"nigga", "[censored]", TierStrong},
	{"spic", "[censored]", TierStrong},
	{"chink", "[censored]", TierStrong},
	{"kike", "[censored]", TierStrong},

	{"shit", "shoot", TierMild},
	{"bullshit", "baloney", TierMild},
	{"horseshit", "nonsense", TierMild},
	{"dipshit", "dummy", TierMild},
	{"shithead", "jerk", TierMild},
	{"damn", "dang", TierMild},
	{"goddamn", "gosh-dang", TierMild},
	{"hell", "heck", TierMild},
	{"ass", "butt", TierMild},
	{"asshole", "jerk", TierMild},
	{"dumbass", "dummy", TierMild},
	{"jackass", "jerk", TierMild},
	{"smartass", "smarty", TierMild},
	{"badass", "tough", TierMild},
	{"bitch", "jerk", TierMild},
	{"bastard", "jerk", TierMild},
	{"crap", "crud", TierMild},
	{"piss", "ticked", TierMild},
	{"jesus christ", "jeez", TierMild},
	{"christ", "crikey", TierMild},
	{"dickhead", "jerk", TierMild},
	{"prick", "jerk", TierMild},
	{"douche", "jerk", TierMild},
	{"douchebag", "jerk", TierMild},
}

type compiled struct {
	re   *regexp.Regexp
	sub  string
	tier Tier
}

// ProfanityFilter rewrites rated-out words in narration text.
type ProfanityFilter struct {
	rules []compiled
}

// NewProfanityFilter compiles the word list. Patterns use word
// boundaries so compounds like "goddamn" match only their own entry.
func NewProfanityFilter() *ProfanityFilter {
	pf := &ProfanityFilter{
		rules: make([]compiled, 0, len(replacements)),
	}
	for _, r := range replacements {
		pattern := `(?i)\b` + regexp.QuoteMeta(r.word) + `\b`
		pf.rules = append(pf.rules, compiled{
			re:   regexp.MustCompile(pattern),
			sub:  r.sub,
			tier: r.tier,
		})
	}
	return pf
}

// FilterText rewrites words the rating disallows. R-rated sessions pass
// through untouched; PG13 masks only the strong tier; G and PG mask
// everything.
func (pf *ProfanityFilter) FilterText(text, rating string) string {
	maxTier, filter := tierForRating(rating)
	if !filter {
		return text
	}

	result := text
	for _, rule := range pf.rules {
		if rule.tier > maxTier {
			continue
		}
		sub := rule.sub
		result = rule.re.ReplaceAllStringFunc(result, func(match string) string {
			return preserveCase(match, sub)
		})
	}
	return result
}

// ContainsProfanity reports whether the text matches any entry in the
// word list, regardless of rating.
func (pf *ProfanityFilter) ContainsProfanity(text string) bool {
	for _, rule := range pf.rules {
		if rule.re.MatchString(text) {
			return true
		}
	}
	return false
}

// ShouldFilterContent reports whether a rating calls for filtering at all.
func ShouldFilterContent(rating string) bool {
	_, filter := tierForRating(rating)
	return filter
}

// tierForRating maps a rating to the deepest tier it masks.
func tierForRating(rating string) (Tier, bool) {
	switch strings.ToUpper(strings.TrimSpace(rating)) {
	case "G", "PG":
		return TierMild, true
	case "PG13", "PG-13":
		return TierStrong, true
	default:
		// R and anything unrecognized pass through unfiltered.
		return 0, false
	}
}

// preserveCase echoes the original word's case onto the substitute:
// all caps stay all caps, capitalized words stay capitalized.
func preserveCase(original, sub string) string {
	if original == "" {
		return sub
	}
	if strings.ToUpper(original) == original {
		return strings.ToUpper(sub)
	}
	if strings.ToLower(original) == original {
		return strings.ToLower(sub)
	}
	return cases.Title(language.English).String(sub)
}
