package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateSumInvariant(t *testing.T) {
	cases := []struct {
		name    string
		total   int64
		weights []int64
	}{
		{"single weight", 100, []int64{7}},
		{"two uneven weights", 3000, []int64{100000, 5000}},
		{"many small weights", 17, []int64{1, 2, 3, 4, 5, 6, 7}},
		{"total smaller than n", 2, []int64{10, 10, 10, 10, 10}},
		{"zero weights present", 99, []int64{0, 50, 0, 25}},
		{"all zero weights", 10, []int64{0, 0}},
		{"large öre totals", 1 << 40, []int64{1 << 30, 1 << 31, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Allocate(tc.total, tc.weights)
			require.Len(t, got, len(tc.weights))

			var sum int64
			for _, a := range got {
				assert.GreaterOrEqual(t, a, int64(0))
				sum += a
			}
			assert.Equal(t, tc.total, sum, "allocations must sum exactly to the total")
		})
	}
}

func TestAllocateZeroTotal(t *testing.T) {
	assert.Equal(t, []int64{0, 0, 0}, Allocate(0, []int64{5, 10, 15}))
}

func TestAllocateEmptyWeights(t *testing.T) {
	assert.Empty(t, Allocate(100, nil))
}

func TestAllocateEqualWeights(t *testing.T) {
	// Remainder ties break by ascending index, so the extra unit lands on
	// the first share.
	assert.Equal(t, []int64{4, 3, 3}, Allocate(10, []int64{1, 1, 1}))
	assert.Equal(t, []int64{25, 25, 25, 25}, Allocate(100, []int64{1, 1, 1, 1}))
}

func TestAllocateZeroWeightSumSplitsEvenly(t *testing.T) {
	assert.Equal(t, []int64{5, 5}, Allocate(10, []int64{0, 0}))
	assert.Equal(t, []int64{3, 2, 2}, Allocate(7, []int64{0, 0, 0}))
}

func TestAllocateLargestRemainder(t *testing.T) {
	// 3000 öre across subtotal 100000 vs shipping 5000: raw shares are
	// 2857.14 and 142.86, so the leftover unit goes to the shipping share.
	assert.Equal(t, []int64{2857, 143}, Allocate(3000, []int64{100000, 5000}))

	// The subtotal share split across items weighted 70000:30000: raw
	// shares 1999.9 and 857.1; the leftover unit goes to the first item.
	assert.Equal(t, []int64{2000, 857}, Allocate(2857, []int64{70000, 30000}))
}

func TestAllocateProportionality(t *testing.T) {
	got := Allocate(1000, []int64{1, 1, 2})
	assert.Equal(t, []int64{250, 250, 500}, got)
}
