package pipeline

import (
	"strings"

	"github.com/poiesic/billscan/core"
)

// sampleTiers orders the keyword passes SelectSample makes over the
// bills. Earlier tiers pick the bills most likely to exercise distinct
// classification categories.
var sampleTiers = []struct {
	title  []string
	reason []string
}{
	{title: []string{"pediatric hospice"}, reason: []string{"pediatric hospice"}},
	{title: []string{"palliative"}},
	{reason: []string{"pain medication", "pain management"}},
	{reason: []string{"workforce", "loan forgiveness"}},
	{reason: []string{"medicaid", "payment"}},
}

// SelectSample picks up to count bills for a trial run, preferring
// bills whose title or filter reason matches the earlier keyword tiers
// and filling the remaining slots in input order. When the input
// already fits, it is returned unchanged.
func SelectSample(bills []core.NormalizedBill, count int) []core.NormalizedBill {
	if count <= 0 || len(bills) <= count {
		return bills
	}

	selected := make([]core.NormalizedBill, 0, count)
	taken := make([]bool, len(bills))

	take := func(match func(title, reason string) bool) bool {
		for i, bill := range bills {
			if taken[i] || !match(strings.ToLower(bill.Title), strings.ToLower(bill.Reason)) {
				continue
			}
			taken[i] = true
			selected = append(selected, bill)
			if len(selected) == count {
				return true
			}
		}
		return false
	}

	for _, tier := range sampleTiers {
		full := take(func(title, reason string) bool {
			for _, kw := range tier.title {
				if strings.Contains(title, kw) {
					return true
				}
			}
			for _, kw := range tier.reason {
				if strings.Contains(reason, kw) {
					return true
				}
			}
			return false
		})
		if full {
			return selected
		}
	}

	take(func(string, string) bool { return true })
	return selected
}
