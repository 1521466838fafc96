package settlement

import (
	"math/bits"
	"sort"
)

// Allocate splits a non-negative total of minor currency units across a
// list of non-negative integer weights using the largest-remainder method,
// so that the parts always sum exactly to the total.
//
// Each weight receives the floor of its proportional share; the leftover
// units are handed out one each to the shares with the largest fractional
// remainder, ties broken by ascending index so the result is deterministic.
// A zero weight sum falls back to an even split so the sum invariant holds
// for every input.
//
// Negative totals or weights are not a contract case here — all amounts in
// this domain are non-negative; callers must clamp before calling.
func Allocate(total int64, weights []int64) []int64 {
	out := make([]int64, len(weights))
	if len(weights) == 0 || total == 0 {
		return out
	}

	var weightSum uint64
	for _, w := range weights {
		weightSum += uint64(w)
	}
	even := weightSum == 0

	type share struct {
		idx int
		rem uint64
	}
	shares := make([]share, len(weights))

	var allocated int64
	for i, w := range weights {
		uw := uint64(w)
		if even {
			uw = 1
		}
		sum := weightSum
		if even {
			sum = uint64(len(weights))
		}
		quo, rem := mulDiv64(uint64(total), uw, sum)
		out[i] = int64(quo)
		allocated += int64(quo)
		shares[i] = share{idx: i, rem: rem}
	}

	// 0 <= leftover < len(weights) because every share was floored.
	leftover := total - allocated
	sort.SliceStable(shares, func(a, b int) bool {
		if shares[a].rem != shares[b].rem {
			return shares[a].rem > shares[b].rem
		}
		return shares[a].idx < shares[b].idx
	})
	for i := int64(0); i < leftover; i++ {
		out[shares[i].idx]++
	}

	return out
}

// mulDiv64 computes (a*b)/c and its remainder using a 128-bit intermediate
// product so large öre totals cannot overflow. c must be non-zero.
func mulDiv64(a, b, c uint64) (quo, rem uint64) {
	hi, lo := bits.Mul64(a, b)
	if hi == 0 {
		return lo / c, lo % c
	}
	return bits.Div64(hi, lo, c)
}
