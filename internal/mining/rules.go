package mining

import (
	"math"
	"slices"
	"sort"
	"strings"

	apperrors "navpulse/internal/errors"
)

// Metric selects the rule measure compared against the threshold
type Metric string

const (
	MetricSupport    Metric = "support"
	MetricConfidence Metric = "confidence"
	MetricLift       Metric = "lift"
	MetricLeverage   Metric = "leverage"
)

// ParseMetric validates a metric name
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MetricSupport, MetricConfidence, MetricLift, MetricLeverage:
		return m, nil
	}
	return "", apperrors.NewInvalidParameterError("metric", s)
}

// Rule is an association rule Antecedents => Consequents
type Rule struct {
	Antecedents       []string
	Consequents       []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	// Conviction is +Inf when Confidence is 1
	Conviction float64
}

// Value returns the measure named by m
func (r Rule) Value(m Metric) float64 {
	switch m {
	case MetricSupport:
		return r.Support
	case MetricConfidence:
		return r.Confidence
	case MetricLeverage:
		return r.Leverage
	default:
		return r.Lift
	}
}

// FormatItems renders one side of a rule, e.g. "DISC_PREM_low, RET_OMXS_med"
func FormatItems(items []string) string {
	return strings.Join(items, ", ")
}

// String renders the rule as "A => C"
func (r Rule) String() string {
	return FormatItems(r.Antecedents) + " => " + FormatItems(r.Consequents)
}

// IsPair reports whether both sides hold exactly one item
func (r Rule) IsPair() bool {
	return len(r.Antecedents) == 1 && len(r.Consequents) == 1
}

// AssociationRules derives every rule A => C from the frequent itemsets,
// where A and C split a frequent itemset of two or more items, and keeps
// those whose metric is at least minThreshold.
func AssociationRules(itemsets []Itemset, metric Metric, minThreshold float64) ([]Rule, error) {
	if _, err := ParseMetric(string(metric)); err != nil {
		return nil, err
	}

	support := make(map[string]float64, len(itemsets))
	for _, s := range itemsets {
		support[s.Key()] = s.Support
	}

	rules := []Rule{}
	for _, set := range itemsets {
		n := len(set.Items)
		if n < 2 || n > 30 {
			continue
		}
		items := slices.Clone(set.Items)
		sort.Strings(items)

		for mask := 1; mask < 1<<n-1; mask++ {
			var ants, cons []string
			for i, it := range items {
				if mask&(1<<i) != 0 {
					ants = append(ants, it)
				} else {
					cons = append(cons, it)
				}
			}
			sA, okA := support[itemKey(ants)]
			sC, okC := support[itemKey(cons)]
			if !okA || !okC {
				// subsets of a frequent itemset are frequent; absent only for partial input
				continue
			}

			r := newRule(ants, cons, sA, sC, set.Support)
			if r.Value(metric) >= minThreshold {
				rules = append(rules, r)
			}
		}
	}
	return rules, nil
}

func newRule(ants, cons []string, sA, sC, s float64) Rule {
	conf := s / sA
	conviction := math.Inf(1)
	if conf < 1 {
		conviction = (1 - sC) / (1 - conf)
	}
	return Rule{
		Antecedents:       ants,
		Consequents:       cons,
		AntecedentSupport: sA,
		ConsequentSupport: sC,
		Support:           s,
		Confidence:        conf,
		Lift:              conf / sC,
		Leverage:          s - sA*sC,
		Conviction:        conviction,
	}
}

// CrossPairs keeps single-item rules linking group a and group b, in either direction
func CrossPairs(rules []Rule, a, b []string) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !r.IsPair() {
			continue
		}
		ant, con := r.Antecedents[0], r.Consequents[0]
		if (slices.Contains(a, ant) && slices.Contains(b, con)) ||
			(slices.Contains(b, ant) && slices.Contains(a, con)) {
			out = append(out, r)
		}
	}
	return out
}

// SortByLift orders rules by descending lift, keeping ties in input order
func SortByLift(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool { return rules[i].Lift > rules[j].Lift })
}

// Top returns at most n rules
func Top(rules []Rule, n int) []Rule {
	if n < 0 || n >= len(rules) {
		return rules
	}
	return rules[:n]
}

// Find returns the single-item rule antecedent => consequent
func Find(rules []Rule, antecedent, consequent string) (Rule, bool) {
	for _, r := range rules {
		if r.IsPair() && r.Antecedents[0] == antecedent && r.Consequents[0] == consequent {
			return r, true
		}
	}
	return Rule{}, false
}
