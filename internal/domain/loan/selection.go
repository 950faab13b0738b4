package loan

import (
	"errors"
	"sort"
)

// ErrNoEligibleLoan means even the widest selection tier matched nothing;
// the payment must be suspended with a reason distinct from an unmatched
// customer, since the customer WAS identified.
var ErrNoEligibleLoan = errors.New("no eligible loan for payment")

// selectionTier is one predicate in the ordered fallback cascade. The next
// tier is consulted only when every prior tier matched nothing.
type selectionTier struct {
	name  string
	match func(*Loan) bool
}

// selectionTiers prefers the normal active-loan case but tolerates state
// lag (a disbursed loan whose repayment rollup is stale, or a loan stuck
// pre-disbursement) rather than stranding a legitimate payment.
var selectionTiers = []selectionTier{
	{
		name: "active",
		match: func(l *Loan) bool {
			return l.Status == StatusDisbursed &&
				(l.RepaymentState == RepaymentOngoing || l.RepaymentState == RepaymentPartial)
		},
	},
	{
		name: "disbursed",
		match: func(l *Loan) bool {
			return l.Status == StatusDisbursed
		},
	},
	{
		name: "any-not-rejected",
		match: func(l *Loan) bool {
			return l.Status != StatusRejected
		},
	},
}

// SelectEligible returns the ordered list of a customer's loans that may
// receive a payment, applying the tier cascade. Within the winning tier,
// loans order oldest-disbursement first so the waterfall clears the
// longest-outstanding obligation before newer ones.
func SelectEligible(loans []*Loan) ([]*Loan, string, error) {
	for _, tier := range selectionTiers {
		var matched []*Loan
		for _, l := range loans {
			if tier.match(l) {
				matched = append(matched, l)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.SliceStable(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			switch {
			case a.DisbursedAt != nil && b.DisbursedAt != nil:
				return a.DisbursedAt.Before(*b.DisbursedAt)
			case a.DisbursedAt != nil:
				return true
			case b.DisbursedAt != nil:
				return false
			default:
				return a.CreatedAt.Before(b.CreatedAt)
			}
		})
		return matched, tier.name, nil
	}
	return nil, "", ErrNoEligibleLoan
}
