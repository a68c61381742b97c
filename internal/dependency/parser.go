// Package dependency mines implication constraints between pairs of related
// markets. Questions are reduced to crude subject strings plus parsed
// deadline/threshold features; compatible pairs on the same subject become
// IMPLIES edges whose price constraint can then be checked.
package dependency

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

const monthAlt = `january|february|march|april|may|june|july|august|september|october|november|december`

var (
	deadlineMonthRe = regexp.MustCompile(`(?i)\bby\s+(` + monthAlt + `)(?:\s+(\d{1,2})\b)?(?:,?\s*((?:19|20)\d{2}))?`)
	deadlineQRe     = regexp.MustCompile(`(?i)\bby\s+q([1-4])(?:\s+((?:19|20)\d{2}))?`)
	deadlineEndRe   = regexp.MustCompile(`(?i)\bby\s+(?:the\s+)?end\s+of\s+((?:19|20)\d{2})`)

	thresholdAboveRe = regexp.MustCompile(`(?i)\b(?:reach|hit|exceed|above|over)\s+\$?(\d+(?:[.,]\d+)*)\s*([kmb])?\b`)
	thresholdBelowRe = regexp.MustCompile(`(?i)\b(?:below|under|less\s+than)\s+\$?(\d+(?:[.,]\d+)*)\s*([kmb])?\b`)

	leadingAuxRe  = regexp.MustCompile(`(?i)^(will|if|whether)\s+`)
	punctuationRe = regexp.MustCompile(`[?!.,;:'"$()]`)
	spaceRe       = regexp.MustCompile(`\s+`)
)

var monthIndex = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

// monthLastDay is the deadline day substituted when a phrase names a month
// but no day.
var monthLastDay = [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// quarterEndMonth maps Q1-Q4 to its closing month.
var quarterEndMonth = [5]int{0, 3, 6, 9, 12}

// Stopwords excluded from the subject similarity key.
var stopwords = map[string]bool{
	"will": true, "the": true, "and": true, "for": true, "with": true,
	"that": true, "this": true, "have": true, "has": true, "had": true,
	"are": true, "was": true, "were": true, "been": true, "its": true,
	"any": true, "all": true, "not": true, "you": true, "can": true,
}

// ParseNode reduces one market snapshot to its dependency-mining features.
// now anchors bare-month deadlines to their next future occurrence.
func ParseNode(m domain.Market, now time.Time) domain.MarketNode {
	return domain.MarketNode{
		ID:        m.ID,
		Question:  m.Question,
		Price:     m.Price,
		Subject:   ParseSubject(m.Question),
		Deadline:  ParseDeadline(m.Question, now),
		Threshold: ParseThreshold(m.Question),
	}
}

// ParseSubject strips auxiliaries, deadline and threshold phrases, and
// punctuation, leaving a crude similarity key. It is never used as an
// identity.
func ParseSubject(question string) string {
	s := strings.ToLower(strings.TrimSpace(question))
	s = leadingAuxRe.ReplaceAllString(s, "")
	s = deadlineMonthRe.ReplaceAllString(s, "")
	s = deadlineQRe.ReplaceAllString(s, "")
	s = deadlineEndRe.ReplaceAllString(s, "")
	s = thresholdAboveRe.ReplaceAllString(s, "")
	s = thresholdBelowRe.ReplaceAllString(s, "")
	s = punctuationRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseDeadline extracts a {year,month,day} deadline from phrases like
// "by March 15, 2026", "by Q2 2026", "by end of 2026", or a bare "by March".
// A month with no year resolves to its next future occurrence relative to
// now; a month with no day resolves to the month's last day.
func ParseDeadline(question string, now time.Time) *domain.Deadline {
	if m := deadlineEndRe.FindStringSubmatch(question); m != nil {
		year, _ := strconv.Atoi(m[1])
		return &domain.Deadline{Year: year, Month: 12, Day: 31}
	}

	if m := deadlineQRe.FindStringSubmatch(question); m != nil {
		q, _ := strconv.Atoi(m[1])
		month := quarterEndMonth[q]
		year := now.Year()
		if m[2] != "" {
			year, _ = strconv.Atoi(m[2])
		} else if month < int(now.Month()) {
			year++
		}
		return &domain.Deadline{Year: year, Month: month, Day: monthLastDay[month]}
	}

	if m := deadlineMonthRe.FindStringSubmatch(question); m != nil {
		month := monthIndex[strings.ToLower(m[1])]
		day := monthLastDay[month]
		if m[2] != "" {
			day, _ = strconv.Atoi(m[2])
		}
		year := now.Year()
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
		} else if month < int(now.Month()) {
			year++
		}
		return &domain.Deadline{Year: year, Month: month, Day: day}
	}

	return nil
}

// ParseThreshold extracts a numeric threshold and its direction from phrases
// like "reach $150k" or "stay below 90,000". The k/m/b suffixes scale by
// thousand, million, and billion, matching the classifier's ladder rule.
func ParseThreshold(question string) *domain.Threshold {
	if m := thresholdAboveRe.FindStringSubmatch(question); m != nil {
		return &domain.Threshold{Value: parseAmount(m[1], m[2]), Direction: domain.ThresholdAbove}
	}
	if m := thresholdBelowRe.FindStringSubmatch(question); m != nil {
		return &domain.Threshold{Value: parseAmount(m[1], m[2]), Direction: domain.ThresholdBelow}
	}
	return nil
}

func parseAmount(raw, suffix string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	switch strings.ToLower(suffix) {
	case "k":
		v *= 1e3
	case "m":
		v *= 1e6
	case "b":
		v *= 1e9
	}
	return v
}

// Similarity is the Jaccard index over subject words longer than 2
// characters with stopwords removed.
func Similarity(a, b string) float64 {
	wa := subjectWords(a)
	wb := subjectWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	intersection := 0
	for w := range wa {
		if wb[w] {
			intersection++
		}
	}
	union := len(wa) + len(wb) - intersection
	return float64(intersection) / float64(union)
}

func subjectWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, w := range strings.Fields(s) {
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		words[w] = true
	}
	return words
}
