package loan

import "fmt"

// resolve maps an anchor to a repayment-month index. Calendar anchors win
// when the loan start is known; otherwise only the literal index is honored.
func (a Anchor) resolve(loanStart *Month, defermentMonths int) int {
	if a.Month != nil && loanStart != nil {
		return MonthIndexOf(*a.Month, loanStart, defermentMonths)
	}
	return a.Index
}

// resolveAnchor handles the optional range anchors of Monthly and Interval
// rules: an absent or unresolvable anchor falls back to the given default.
func resolveAnchor(a *Anchor, def int, loanStart *Month, defermentMonths int) int {
	if a == nil {
		return def
	}
	if idx := a.resolve(loanStart, defermentMonths); idx > 0 {
		return idx
	}
	return def
}

// ExpandRules flattens the ordered rule list into a per-repayment-month
// lookup table covering [1, horizon]. Rules are applied in list order and
// later rules overwrite earlier ones on the same month; this last-write-wins
// merge is deliberate and matches how overlapping rules have always been
// interpreted, so reordering the list is a meaningful edit.
func ExpandRules(rules []PrepaymentRule, horizon int, loanStart *Month, defermentMonths int) PrepaymentTable {
	table := make(PrepaymentTable)
	for _, rule := range rules {
		if rule.Amount <= 0 {
			continue
		}
		switch rule.Kind {
		case RuleOnce:
			idx := rule.At.resolve(loanStart, defermentMonths)
			if idx <= 0 || idx > horizon {
				continue
			}
			table[idx] = PrepayEntry{Amount: rule.Amount, Strategy: rule.Strategy, Label: onceLabel(rule.At)}
		case RuleMonthly:
			from, to := ruleRange(rule, horizon, loanStart, defermentMonths)
			for i := from; i <= to; i++ {
				table[i] = PrepayEntry{Amount: rule.Amount, Strategy: rule.Strategy, Label: "Every month"}
			}
		case RuleInterval:
			if rule.EveryNMonths < 1 {
				continue
			}
			from, to := ruleRange(rule, horizon, loanStart, defermentMonths)
			label := fmt.Sprintf("Every %dmo", rule.EveryNMonths)
			for i := from; i <= to; i += rule.EveryNMonths {
				table[i] = PrepayEntry{Amount: rule.Amount, Strategy: rule.Strategy, Label: label}
			}
		}
	}
	return table
}

func ruleRange(rule PrepaymentRule, horizon int, loanStart *Month, defermentMonths int) (int, int) {
	from := resolveAnchor(rule.Start, 1, loanStart, defermentMonths)
	to := resolveAnchor(rule.End, horizon, loanStart, defermentMonths)
	if from < 1 {
		from = 1
	}
	if to > horizon {
		to = horizon
	}
	return from, to
}

func onceLabel(a Anchor) string {
	if a.Month != nil {
		return a.Month.String()
	}
	return fmt.Sprintf("Month %d", a.Index)
}
