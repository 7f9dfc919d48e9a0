package mining

import (
	"slices"
	"sort"
	"strings"

	apperrors "navpulse/internal/errors"
)

// Itemset is a frequent set of items with its relative support
type Itemset struct {
	Items   []string
	Count   int
	Support float64
}

// Key identifies an itemset independently of item order
func (s Itemset) Key() string { return itemKey(s.Items) }

func itemKey(items []string) string {
	sorted := slices.Clone(items)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

type fpNode struct {
	item     string
	count    int
	parent   *fpNode
	children map[string]*fpNode
	next     *fpNode
}

type fpTree struct {
	root *fpNode
	// heads links every node of an item
	heads  map[string]*fpNode
	counts map[string]int
	// order ranks items by descending count, ties by name
	order []string
}

// prefixPath is one branch of a conditional pattern base
type prefixPath struct {
	items []string
	count int
}

func newFPTree(paths []prefixPath, minCount int) *fpTree {
	counts := make(map[string]int)
	for _, p := range paths {
		for _, it := range p.items {
			counts[it] += p.count
		}
	}

	t := &fpTree{
		root:   &fpNode{children: make(map[string]*fpNode)},
		heads:  make(map[string]*fpNode),
		counts: make(map[string]int),
	}
	for it, c := range counts {
		if c >= minCount {
			t.counts[it] = c
			t.order = append(t.order, it)
		}
	}
	sort.Slice(t.order, func(i, j int) bool {
		a, b := t.order[i], t.order[j]
		if t.counts[a] != t.counts[b] {
			return t.counts[a] > t.counts[b]
		}
		return a < b
	})
	rank := make(map[string]int, len(t.order))
	for i, it := range t.order {
		rank[it] = i
	}

	for _, p := range paths {
		kept := make([]string, 0, len(p.items))
		for _, it := range p.items {
			if _, ok := rank[it]; ok {
				kept = append(kept, it)
			}
		}
		sort.Slice(kept, func(i, j int) bool { return rank[kept[i]] < rank[kept[j]] })
		t.insert(kept, p.count)
	}
	return t
}

func (t *fpTree) insert(items []string, count int) {
	node := t.root
	for _, it := range items {
		child, ok := node.children[it]
		if !ok {
			child = &fpNode{item: it, parent: node, children: make(map[string]*fpNode)}
			node.children[it] = child
			child.next = t.heads[it]
			t.heads[it] = child
		}
		child.count += count
		node = child
	}
}

// conditionalBase collects the prefix paths ending just above every node of item
func (t *fpTree) conditionalBase(item string) []prefixPath {
	var base []prefixPath
	for n := t.heads[item]; n != nil; n = n.next {
		var path []string
		for p := n.parent; p != nil && p != t.root; p = p.parent {
			path = append(path, p.item)
		}
		if len(path) > 0 {
			slices.Reverse(path)
			base = append(base, prefixPath{items: path, count: n.count})
		}
	}
	return base
}

func (t *fpTree) mine(suffix []string, minCount, total int, out *[]Itemset) {
	// least frequent first, so conditional trees stay small
	for i := len(t.order) - 1; i >= 0; i-- {
		item := t.order[i]
		items := append([]string{item}, suffix...)
		count := t.counts[item]
		*out = append(*out, Itemset{
			Items:   items,
			Count:   count,
			Support: float64(count) / float64(total),
		})

		cond := newFPTree(t.conditionalBase(item), minCount)
		if len(cond.order) > 0 {
			cond.mine(items, minCount, total, out)
		}
	}
}

// FPGrowth returns every itemset whose support, the share of transactions
// containing it, is at least minSupport. Items are sorted within each set;
// sets are ordered by size, then descending support, then items.
func FPGrowth(txs []Transaction, minSupport float64) ([]Itemset, error) {
	if !(minSupport > 0 && minSupport <= 1) {
		return nil, apperrors.NewInvalidParameterError("min_support", minSupport)
	}
	if len(txs) == 0 {
		return []Itemset{}, nil
	}

	paths := make([]prefixPath, 0, len(txs))
	for _, tx := range txs {
		uniq := slices.Clone(tx)
		sort.Strings(uniq)
		paths = append(paths, prefixPath{items: slices.Compact(uniq), count: 1})
	}

	total := len(txs)
	minCount := minimumCount(minSupport, total)
	tree := newFPTree(paths, minCount)

	out := []Itemset{}
	tree.mine(nil, minCount, total, &out)

	for i := range out {
		sort.Strings(out[i].Items)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if len(a.Items) != len(b.Items) {
			return len(a.Items) < len(b.Items)
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key() < b.Key()
	})
	return out, nil
}

// minimumCount is the smallest count whose support reaches minSupport
func minimumCount(minSupport float64, total int) int {
	c := int(minSupport * float64(total))
	for c > 0 && float64(c-1)/float64(total) >= minSupport {
		c--
	}
	for float64(c)/float64(total) < minSupport {
		c++
	}
	return max(c, 1)
}
