// Package mining finds association rules between the tertile categories of
// a fund's benchmark-adjusted return and its discount/premium.
//
// Each dated row becomes a two-item transaction such as
// {RET_OMXS_high, DISC_PREM_low}. FPGrowth mines the frequent itemsets from
// a prefix tree, AssociationRules splits each frequent itemset into
// antecedent and consequent, and CrossPairs keeps the rules that link one
// discount item to one return item.
package mining
