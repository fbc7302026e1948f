package analytics

import "math"

const (
	// PageRankDamping is the damping factor used for PageRank.
	PageRankDamping = 0.85
	// pageRankTolerance stops iteration once total change falls below it.
	pageRankTolerance = 1e-6
	// pageRankMaxIterations bounds the power iteration.
	pageRankMaxIterations = 100
)

// PageRank computes PageRank scores over the directed graph with damping
// 0.85. Dangling node mass is redistributed uniformly.
func PageRank(g *Graph) map[int]float64 {
	n := g.NodeCount()
	scores := make(map[int]float64, n)
	if n == 0 {
		return scores
	}

	rank := make([]float64, n)
	next := make([]float64, n)
	uniform := 1.0 / float64(n)
	for i := range rank {
		rank[i] = uniform
	}

	for iteration := 0; iteration < pageRankMaxIterations; iteration++ {
		dangling := 0.0
		for u := 0; u < n; u++ {
			next[u] = 0
		}
		for u := 0; u < n; u++ {
			if len(g.out[u]) == 0 {
				dangling += rank[u]
				continue
			}
			share := rank[u] / float64(len(g.out[u]))
			for _, v := range g.out[u] {
				next[v] += share
			}
		}

		base := (1-PageRankDamping)*uniform + PageRankDamping*dangling*uniform
		delta := 0.0
		for u := 0; u < n; u++ {
			next[u] = base + PageRankDamping*next[u]
			delta += math.Abs(next[u] - rank[u])
		}
		rank, next = next, rank

		if delta < pageRankTolerance*float64(n) {
			break
		}
	}

	for u := 0; u < n; u++ {
		scores[u] = rank[u]
	}
	return scores
}
