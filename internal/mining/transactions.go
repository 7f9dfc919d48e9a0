package mining

import (
	"navpulse/internal/binning"
)

// Item prefixes of the two mined variables
const (
	ReturnPrefix   = "RET_OMXS"
	DiscountPrefix = "DISC_PREM"
)

// Transaction is the set of items observed on one row
type Transaction []string

// ItemName joins a variable prefix and a category: RET_OMXS_low, DISC_PREM_med
func ItemName(prefix string, c binning.Category) string {
	label := string(c)
	if c == binning.CategoryMedium {
		label = "med"
	}
	return prefix + "_" + label
}

// Items returns the item names of every tertile of a variable, lowest first
func Items(prefix string) []string {
	out := make([]string, len(binning.TertileLabels))
	for i, c := range binning.TertileLabels {
		out[i] = ItemName(prefix, c)
	}
	return out
}

// Transactions pairs the return and discount category of each row. Rows
// missing either category are dropped.
func Transactions(returnCats, discountCats []binning.Category) []Transaction {
	n := min(len(returnCats), len(discountCats))
	out := make([]Transaction, 0, n)
	for i := 0; i < n; i++ {
		r, d := returnCats[i], discountCats[i]
		if r == binning.CategoryNone || d == binning.CategoryNone {
			continue
		}
		out = append(out, Transaction{ItemName(ReturnPrefix, r), ItemName(DiscountPrefix, d)})
	}
	return out
}
