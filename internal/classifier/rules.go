// Package classifier decides whether an advertised outcome set is genuinely
// mutually exclusive and exhaustive. The rules are deliberately permissive
// toward false positives: anything not caught by a reject rule passes with
// MEDIUM confidence and is left to the price-sum check.
package classifier

import "regexp"

// titleRule maps a title pattern to a rejection (or acceptance) category.
// Rules are evaluated in table order.
type titleRule struct {
	re       *regexp.Regexp
	category string
	reason   string
}

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december`

// deadlineTitleRules reject questions that are really "when does X happen"
// split across time buckets rather than a single-winner contest.
var deadlineTitleRules = []titleRule{
	{regexp.MustCompile(`(?i)\bby\s+(` + monthAlt + `)\b`), "", "title sets a month deadline"},
	{regexp.MustCompile(`(?i)\bbefore\s+(` + monthAlt + `)\b`), "", "title sets a month deadline"},
	{regexp.MustCompile(`(?i)\bby\s+(end\s+of|q[1-4]\b)`), "", "title sets a period deadline"},
	{regexp.MustCompile(`(?i)\bby\s+(19|20)\d{2}\b`), "", "title sets a year deadline"},
	{regexp.MustCompile(`(?i)^when\s+will\b`), "", "title asks when, outcomes are time buckets"},
}

// independentTitleRules reject grab-bag questions whose outcomes are
// unrelated events that can all happen.
var independentTitleRules = []titleRule{
	{regexp.MustCompile(`(?i)\bwhat\s+will\s+happen\b`), "", "title is a what-will-happen grab bag"},
	{regexp.MustCompile(`(?i)\bwhich\s+of\s+(these|the\s+following)\b.*\bwill\b`), "", "title lists independent candidates"},
	{regexp.MustCompile(`(?i)\bhow\s+many\s+of\b`), "", "title counts independent events"},
}

// singleWinnerTitleRules accept canonical contest phrasings with HIGH
// confidence.
var singleWinnerTitleRules = []titleRule{
	{regexp.MustCompile(`(?i)\bwho\s+will\s+win\b`), "", "canonical who-will-win contest"},
	{regexp.MustCompile(`(?i)\bwinner\s+of\b`), "", "canonical winner-of contest"},
	{regexp.MustCompile(`(?i)\b[a-z]+\s+of\s+the\s+year\b`), "", "role-of-the-year award"},
	{regexp.MustCompile(`(?i)\b\d+(st|nd|rd|th)\s+(overall\s+)?pick\b`), "", "ordinal draft pick"},
	{regexp.MustCompile(`(?i)\b(first|second|third)\s+(overall\s+)?pick\b`), "", "ordinal draft pick"},
}

// dateLabelRes match outcome labels that are themselves calendar buckets.
// A set where half the labels look like dates is a deadline ladder.
var dateLabelRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(` + monthAlt + `)\s+\d{1,2}(st|nd|rd|th)?(,?\s*(19|20)\d{2})?$`), // full date
	regexp.MustCompile(`(?i)^q[1-4](\s+(19|20)\d{2})?$`),                                       // quarter
	regexp.MustCompile(`(?i)^(by\s+)?end\s+of\s+(the\s+)?(year|(19|20)\d{2})$`),                // end of year
	regexp.MustCompile(`(?i)^(` + monthAlt + `)(\s+(19|20)\d{2})?$`),                           // bare month
}

// categoryKeywords is the fixed semantic taxonomy used by the independent
// -events rule. Matching is substring-based on lowercased labels.
var categoryKeywords = map[string][]string{
	"music":         {"album", "song", "grammy", "billboard", "artist", "tour", "concert"},
	"politics":      {"president", "election", "senate", "congress", "minister", "governor", "parliament", "impeach"},
	"war":           {"war", "invasion", "ceasefire", "military", "troops", "missile", "airstrike"},
	"tech":          {"iphone", " ai ", "artificial intelligence", "software", "startup", "robot", "chip", "gpt"},
	"crypto":        {"bitcoin", "btc", "ethereum", "eth ", "crypto", "blockchain", "solana", "token"},
	"religion":      {"pope", "church", "vatican", "islam", "christian", "religio"},
	"sports":        {"championship", "super bowl", "nba", "nfl", "world cup", "olympic", "playoff", "touchdown"},
	"entertainment": {"movie", "film", "oscar", "box office", "netflix", "celebrity", "tv show"},
}

// Threshold phrasing inside outcome labels.
var (
	moreThanRe   = regexp.MustCompile(`(?i)\b(more\s+than|at\s+least)\b`)
	labelValueRe = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(k|m|b)?\b`)
	thresholdCue = regexp.MustCompile(`(?i)(more\s+than|at\s+least|\bover\b|\babove\b|\bexceeds?\b|\breach(es)?\b|\+|\d\s*(k|m|b)\b)`)
)

// suffixMultiplier expands k/m/b shorthand.
var suffixMultiplier = map[string]float64{
	"k": 1_000,
	"m": 1_000_000,
	"b": 1_000_000_000,
}
