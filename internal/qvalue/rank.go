package qvalue

import "sort"

// AscendingOrder returns the permutation u with p[u[0]] <= p[u[1]] <= ... .
// Equal values keep their original index order.
func AscendingOrder(p []float64) []int {
	u := make([]int, len(p))
	for i := range u {
		u[i] = i
	}
	sort.SliceStable(u, func(a, b int) bool {
		return p[u[a]] < p[u[b]]
	})
	return u
}

// MaxTieRanks assigns every test the 1-based ascending rank of the last
// member of its tie group, given the ascending order u of p.
func MaxTieRanks(p []float64, u []int) []int {
	m := len(u)
	v := make([]int, len(p))
	for start := 0; start < m; {
		end := start
		for end+1 < m && p[u[end+1]] == p[u[start]] {
			end++
		}
		for k := start; k <= end; k++ {
			v[u[k]] = end + 1
		}
		start = end + 1
	}
	return v
}
