package classifier

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alanyoungcy/polyscan/internal/domain"
)

// dateLabelShareCutoff is the fraction of date-like labels above which an
// outcome set is treated as a deadline ladder.
const dateLabelShareCutoff = 0.5

// Classify inspects a question title and its outcome labels and decides
// whether the set can be treated as one mutually exclusive, exhaustive
// distribution. It is pure: identical input always yields the identical
// verdict.
func Classify(title string, outcomes []domain.Outcome) domain.Classification {
	if len(outcomes) < 2 {
		return domain.Classification{
			Valid:      false,
			Confidence: domain.ConfidenceCertain,
			Reason:     fmt.Sprintf("only %d outcome(s); need at least 2", len(outcomes)),
			Category:   domain.CategoryTooFewOutcomes,
		}
	}

	if rule, ok := matchTitle(deadlineTitleRules, title); ok {
		return reject(domain.CategoryTemporal, rule.reason)
	}
	if share := dateLabelShare(outcomes); share >= dateLabelShareCutoff {
		return reject(domain.CategoryTemporal,
			fmt.Sprintf("%.0f%% of outcome labels are calendar buckets", share*100))
	}

	if rule, ok := matchTitle(independentTitleRules, title); ok {
		return reject(domain.CategoryIndependent, rule.reason)
	}
	if n, cats := labelCategorySpread(outcomes); n >= 3 {
		return reject(domain.CategoryIndependent,
			"outcome labels span unrelated categories: "+strings.Join(cats, ", "))
	}

	if ok, reason := cumulativeThresholds(outcomes); ok {
		return reject(domain.CategoryCumulative, reason)
	}

	if rule, ok := matchTitle(singleWinnerTitleRules, title); ok {
		return domain.Classification{
			Valid:      true,
			Confidence: domain.ConfidenceHigh,
			Reason:     rule.reason,
			Category:   domain.CategorySingleWinner,
		}
	}

	// Permissive default: let the price-sum check catch look-alikes.
	return domain.Classification{
		Valid:      true,
		Confidence: domain.ConfidenceMedium,
		Reason:     "no reject rule matched; deferring to price-sum check",
		Category:   domain.CategoryUnclassified,
	}
}

// ValidatePriceSum is the companion sanity check applied once live prices are
// available. It returns false with a reason when the sum is implausible for a
// genuine n-outcome distribution.
func ValidatePriceSum(sum float64, n int) (bool, string) {
	switch {
	case sum > 2.0:
		return false, fmt.Sprintf("price sum %.3f > 2.0; outcomes cannot be exclusive", sum)
	case sum > 1.5 && n <= 3:
		return false, fmt.Sprintf("price sum %.3f > 1.5 with only %d outcomes", sum, n)
	case sum < 0.3 && n >= 3:
		return false, fmt.Sprintf("price sum %.3f < 0.3 with %d outcomes; set looks incomplete", sum, n)
	}
	return true, ""
}

func reject(category, reason string) domain.Classification {
	return domain.Classification{
		Valid:      false,
		Confidence: domain.ConfidenceHigh,
		Reason:     reason,
		Category:   category,
	}
}

func matchTitle(rules []titleRule, title string) (titleRule, bool) {
	for _, r := range rules {
		if r.re.MatchString(title) {
			return r, true
		}
	}
	return titleRule{}, false
}

// dateLabelShare returns the fraction of outcome labels that look like
// calendar buckets.
func dateLabelShare(outcomes []domain.Outcome) float64 {
	matched := 0
	for _, o := range outcomes {
		label := strings.TrimSpace(o.Label)
		for _, re := range dateLabelRes {
			if re.MatchString(label) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(outcomes))
}

// labelCategorySpread counts how many distinct taxonomy categories the
// outcome labels touch, returning the sorted category names for the reason
// string.
func labelCategorySpread(outcomes []domain.Outcome) (int, []string) {
	seen := map[string]bool{}
	for _, o := range outcomes {
		padded := " " + strings.ToLower(o.Label) + " "
		for cat, keywords := range categoryKeywords {
			if seen[cat] {
				continue
			}
			for _, kw := range keywords {
				if strings.Contains(padded, kw) {
					seen[cat] = true
					break
				}
			}
		}
	}
	cats := make([]string, 0, len(seen))
	for cat := range seen {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	return len(cats), cats
}

// cumulativeThresholds detects ladders like "100k+ / 250k+ / 1m+" where a
// higher rung implies every lower rung, so the outcomes are not disjoint.
func cumulativeThresholds(outcomes []domain.Outcome) (bool, string) {
	values := map[float64]bool{}
	moreThan := 0
	for _, o := range outcomes {
		label := o.Label
		if moreThanRe.MatchString(label) {
			moreThan++
		}
		if v, ok := labelThreshold(label); ok {
			values[v] = true
		}
	}
	if moreThan >= 2 {
		return true, fmt.Sprintf("%d outcomes use more-than/at-least phrasing", moreThan)
	}
	if len(values) >= 2 {
		return true, fmt.Sprintf("%d distinct ascending thresholds among outcome labels", len(values))
	}
	return false, ""
}

// labelThreshold extracts a numeric threshold from an outcome label. A label
// only counts when it carries a threshold cue (suffix, plus sign, or
// more-than phrasing) so that plain years or jersey numbers are ignored.
func labelThreshold(label string) (float64, bool) {
	if !thresholdCue.MatchString(label) {
		return 0, false
	}
	m := labelValueRe.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	raw := strings.ReplaceAll(m[1], ",", "")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if mult, ok := suffixMultiplier[strings.ToLower(m[2])]; ok {
		v *= mult
	}
	return v, true
}
