package analytics

// Louvain detects communities on the undirected projection of the graph by
// multilevel modularity optimization: local moving until no gain, then
// community aggregation, repeated until the partition is stable. Returns the
// node index -> community assignment and the partition's modularity.
func Louvain(g *Graph) (map[int]int, float64) {
	n := g.NodeCount()
	assignment := make(map[int]int, n)
	if n == 0 {
		return assignment, 0
	}

	lg := undirectedLevelGraph(g)

	// membership[i] is the current community of original node i.
	membership := make([]int, n)
	for i := range membership {
		membership[i] = i
	}

	for {
		level, improved := lg.oneLevel()
		if !improved {
			break
		}
		for i := range membership {
			membership[i] = level[membership[i]]
		}
		lg = lg.aggregate(level)
	}

	for i, c := range renumber(membership) {
		assignment[i] = c
	}
	return assignment, UndirectedModularity(g, assignment)
}

// UndirectedModularity computes Newman modularity of a partition over the
// undirected projection. Result is in [-1, 1]; 0 for an edgeless graph.
func UndirectedModularity(g *Graph, assignment map[int]int) float64 {
	m := float64(g.UndirectedEdgeCount())
	if m == 0 {
		return 0
	}

	intra := make(map[int]float64)
	degree := make(map[int]float64)
	for u := 0; u < g.NodeCount(); u++ {
		cu := assignment[u]
		degree[cu] += float64(len(g.und[u]))
		for _, v := range g.und[u] {
			if u < v && assignment[v] == cu {
				intra[cu]++
			}
		}
	}

	q := 0.0
	for _, inside := range intra {
		q += inside / m
	}
	for _, d := range degree {
		half := d / (2 * m)
		q -= half * half
	}
	return q
}

// weightedGraph is one level of the Louvain hierarchy: an undirected weighted
// graph where nodes may be aggregates of original nodes.
type weightedGraph struct {
	n         int
	weights   []map[int]float64
	selfLoops []float64
	total     float64 // 2m
}

func undirectedLevelGraph(g *Graph) *weightedGraph {
	lg := &weightedGraph{
		n:         g.NodeCount(),
		weights:   make([]map[int]float64, g.NodeCount()),
		selfLoops: make([]float64, g.NodeCount()),
	}
	for u := range lg.weights {
		lg.weights[u] = make(map[int]float64, len(g.und[u]))
		for _, v := range g.und[u] {
			lg.weights[u][v] = 1
			lg.total++
		}
	}
	return lg
}

func (lg *weightedGraph) degree(u int) float64 {
	d := 2 * lg.selfLoops[u]
	for _, w := range lg.weights[u] {
		d += w
	}
	return d
}

// oneLevel runs the local moving phase. Returns the node -> community
// assignment (renumbered densely) and whether any node moved.
func (lg *weightedGraph) oneLevel() ([]int, bool) {
	community := make([]int, lg.n)
	communityTotal := make([]float64, lg.n)
	degrees := make([]float64, lg.n)
	for u := 0; u < lg.n; u++ {
		community[u] = u
		degrees[u] = lg.degree(u)
		communityTotal[u] = degrees[u]
	}

	if lg.total == 0 {
		return community, false
	}

	improved := false
	for changed := true; changed; {
		changed = false
		for u := 0; u < lg.n; u++ {
			current := community[u]
			communityTotal[current] -= degrees[u]

			// weight from u into each neighboring community
			neighborWeights := map[int]float64{current: 0}
			for v, w := range lg.weights[u] {
				neighborWeights[community[v]] += w
			}

			best := current
			bestGain := neighborWeights[current] - communityTotal[current]*degrees[u]/lg.total
			for c, w := range neighborWeights {
				gain := w - communityTotal[c]*degrees[u]/lg.total
				if gain > bestGain || (gain == bestGain && c < best) {
					best, bestGain = c, gain
				}
			}

			communityTotal[best] += degrees[u]
			community[u] = best
			if best != current {
				changed = true
				improved = true
			}
		}
	}

	return denseRenumber(community), improved
}

// aggregate collapses each community into a single node.
func (lg *weightedGraph) aggregate(assignment []int) *weightedGraph {
	count := 0
	for _, c := range assignment {
		if c+1 > count {
			count = c + 1
		}
	}

	next := &weightedGraph{
		n:         count,
		weights:   make([]map[int]float64, count),
		selfLoops: make([]float64, count),
		total:     lg.total,
	}
	for i := range next.weights {
		next.weights[i] = make(map[int]float64)
	}

	for u := 0; u < lg.n; u++ {
		cu := assignment[u]
		next.selfLoops[cu] += lg.selfLoops[u]
		for v, w := range lg.weights[u] {
			cv := assignment[v]
			if cu == cv {
				if u < v {
					next.selfLoops[cu] += w
				}
				continue
			}
			next.weights[cu][cv] += w
		}
	}
	return next
}

// denseRenumber maps arbitrary community ids to 0..k-1 preserving first
// appearance order.
func denseRenumber(assignment []int) []int {
	mapping := make(map[int]int)
	out := make([]int, len(assignment))
	for i, c := range assignment {
		id, ok := mapping[c]
		if !ok {
			id = len(mapping)
			mapping[c] = id
		}
		out[i] = id
	}
	return out
}

func renumber(membership []int) []int {
	return denseRenumber(membership)
}
