// Package solver places players so their role preferences line up with turn parity.
//
// The placement is a best-effort heuristic: a single pass swaps each misplaced
// entry with a randomly chosen partner whose swap satisfies both. Entries with
// no such partner are left where they are.
package solver

import (
	"github.com/mcoot/drawphone/internal/dependencies/random"
	"github.com/mcoot/drawphone/internal/model"
)

// Resolve reorders items in place so each item's role accepts its absolute turn
// index, where items[0] sits at turn index offset. It returns how many items
// remain unsatisfied.
func Resolve[T any](rnd random.Random, items []T, offset int, role func(T) model.Role) int {
	candidates := make([]int, 0, len(items))

	for i := range items {
		ri := role(items[i])
		if ri.Accepts(offset + i) {
			continue
		}

		candidates = candidates[:0]
		for j := range items {
			if j == i {
				continue
			}
			if role(items[j]).Accepts(offset+i) && ri.Accepts(offset+j) {
				candidates = append(candidates, j)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		j := candidates[rnd.Intn(len(candidates))]
		items[i], items[j] = items[j], items[i]
	}

	return Unsatisfied(items, offset, role)
}

// Unsatisfied counts items whose role rejects their absolute turn index
func Unsatisfied[T any](items []T, offset int, role func(T) model.Role) int {
	n := 0
	for i := range items {
		if !role(items[i]).Accepts(offset + i) {
			n++
		}
	}
	return n
}
