package analytics

// Leiden detects communities on the directed graph. Each pass runs local
// moving under directed modularity, then a refinement step that splits every
// community into its weakly connected components, so no community is ever
// internally disconnected. Refined communities are aggregated and the pass
// repeats until stable.
func Leiden(g *Graph) (map[int]int, float64) {
	n := g.NodeCount()
	assignment := make(map[int]int, n)
	if n == 0 {
		return assignment, 0
	}

	lg := directedLevelGraph(g)

	membership := make([]int, n)
	for i := range membership {
		membership[i] = i
	}

	for {
		level, improved := lg.oneLevel()
		if !improved {
			break
		}
		level = lg.refine(level)
		for i := range membership {
			membership[i] = level[membership[i]]
		}
		lg = lg.aggregate(level)
	}

	for i, c := range denseRenumber(membership) {
		assignment[i] = c
	}
	return assignment, DirectedModularity(g, assignment)
}

// DirectedModularity computes modularity of a partition over the directed
// graph: sum over communities of e_c/m - (out_c * in_c)/m^2.
func DirectedModularity(g *Graph, assignment map[int]int) float64 {
	m := float64(g.DirectedEdgeCount())
	if m == 0 {
		return 0
	}

	intra := make(map[int]float64)
	outDegree := make(map[int]float64)
	inDegree := make(map[int]float64)
	for u := 0; u < g.NodeCount(); u++ {
		cu := assignment[u]
		outDegree[cu] += float64(len(g.out[u]))
		inDegree[cu] += float64(len(g.in[u]))
		for _, v := range g.out[u] {
			if assignment[v] == cu {
				intra[cu]++
			}
		}
	}

	q := 0.0
	for _, inside := range intra {
		q += inside / m
	}
	for c, out := range outDegree {
		q -= out * inDegree[c] / (m * m)
	}
	return q
}

// directedGraph is one level of the Leiden hierarchy: a weighted directed
// graph whose nodes may be aggregates of original nodes.
type directedGraph struct {
	n         int
	outW      []map[int]float64
	inW       []map[int]float64
	selfLoops []float64
	total     float64 // m
}

func directedLevelGraph(g *Graph) *directedGraph {
	lg := &directedGraph{
		n:         g.NodeCount(),
		outW:      make([]map[int]float64, g.NodeCount()),
		inW:       make([]map[int]float64, g.NodeCount()),
		selfLoops: make([]float64, g.NodeCount()),
	}
	for u := range lg.outW {
		lg.outW[u] = make(map[int]float64, len(g.out[u]))
		lg.inW[u] = make(map[int]float64, len(g.in[u]))
	}
	for u := 0; u < g.NodeCount(); u++ {
		for _, v := range g.out[u] {
			lg.outW[u][v] = 1
			lg.inW[v][u] = 1
			lg.total++
		}
	}
	return lg
}

func (lg *directedGraph) outDegree(u int) float64 {
	d := lg.selfLoops[u]
	for _, w := range lg.outW[u] {
		d += w
	}
	return d
}

func (lg *directedGraph) inDegree(u int) float64 {
	d := lg.selfLoops[u]
	for _, w := range lg.inW[u] {
		d += w
	}
	return d
}

// oneLevel runs directed local moving. The gain of placing node u into
// community c is (w_{u->c} + w_{c->u})/m - (kout_u*in_c + kin_u*out_c)/m^2.
func (lg *directedGraph) oneLevel() ([]int, bool) {
	community := make([]int, lg.n)
	outTotal := make([]float64, lg.n)
	inTotal := make([]float64, lg.n)
	kOut := make([]float64, lg.n)
	kIn := make([]float64, lg.n)
	for u := 0; u < lg.n; u++ {
		community[u] = u
		kOut[u] = lg.outDegree(u)
		kIn[u] = lg.inDegree(u)
		outTotal[u] = kOut[u]
		inTotal[u] = kIn[u]
	}

	if lg.total == 0 {
		return community, false
	}

	m := lg.total
	improved := false
	for changed := true; changed; {
		changed = false
		for u := 0; u < lg.n; u++ {
			current := community[u]
			outTotal[current] -= kOut[u]
			inTotal[current] -= kIn[u]

			links := map[int]float64{current: 0}
			for v, w := range lg.outW[u] {
				links[community[v]] += w
			}
			for v, w := range lg.inW[u] {
				links[community[v]] += w
			}

			gainOf := func(c int) float64 {
				return links[c]/m - (kOut[u]*inTotal[c]+kIn[u]*outTotal[c])/(m*m)
			}

			best, bestGain := current, gainOf(current)
			for c := range links {
				if gain := gainOf(c); gain > bestGain || (gain == bestGain && c < best) {
					best, bestGain = c, gain
				}
			}

			outTotal[best] += kOut[u]
			inTotal[best] += kIn[u]
			community[u] = best
			if best != current {
				changed = true
				improved = true
			}
		}
	}

	return denseRenumber(community), improved
}

// refine splits every community into its weakly connected components over
// intra-community edges.
func (lg *directedGraph) refine(assignment []int) []int {
	refined := make([]int, lg.n)
	for i := range refined {
		refined[i] = -1
	}

	next := 0
	for start := 0; start < lg.n; start++ {
		if refined[start] != -1 {
			continue
		}
		refined[start] = next
		queue := []int{start}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			visit := func(v int) {
				if refined[v] == -1 && assignment[v] == assignment[start] {
					refined[v] = next
					queue = append(queue, v)
				}
			}
			for v := range lg.outW[u] {
				visit(v)
			}
			for v := range lg.inW[u] {
				visit(v)
			}
		}
		next++
	}
	return refined
}

// aggregate collapses each refined community into a single node.
func (lg *directedGraph) aggregate(assignment []int) *directedGraph {
	count := 0
	for _, c := range assignment {
		if c+1 > count {
			count = c + 1
		}
	}

	next := &directedGraph{
		n:         count,
		outW:      make([]map[int]float64, count),
		inW:       make([]map[int]float64, count),
		selfLoops: make([]float64, count),
		total:     lg.total,
	}
	for i := 0; i < count; i++ {
		next.outW[i] = make(map[int]float64)
		next.inW[i] = make(map[int]float64)
	}

	for u := 0; u < lg.n; u++ {
		cu := assignment[u]
		next.selfLoops[cu] += lg.selfLoops[u]
		for v, w := range lg.outW[u] {
			cv := assignment[v]
			if cu == cv {
				next.selfLoops[cu] += w
				continue
			}
			next.outW[cu][cv] += w
			next.inW[cv][cu] += w
		}
	}
	return next
}
