package analytics

// Betweenness computes shortest-path betweenness centrality over the
// directed graph using Brandes' accumulation, normalized by
// 1/((n-1)(n-2)) so scores stay comparable across graph sizes.
func Betweenness(g *Graph) map[int]float64 {
	n := g.NodeCount()
	scores := make(map[int]float64, n)
	for u := 0; u < n; u++ {
		scores[u] = 0
	}
	if n < 3 {
		return scores
	}

	for source := 0; source < n; source++ {
		// BFS from source, recording predecessors and path counts.
		stack := make([]int, 0, n)
		predecessors := make([][]int, n)
		sigma := make([]float64, n)
		distance := make([]int, n)
		for i := range distance {
			distance[i] = -1
		}
		sigma[source] = 1
		distance[source] = 0

		queue := []int{source}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			stack = append(stack, u)
			for _, v := range g.out[u] {
				if distance[v] < 0 {
					distance[v] = distance[u] + 1
					queue = append(queue, v)
				}
				if distance[v] == distance[u]+1 {
					sigma[v] += sigma[u]
					predecessors[v] = append(predecessors[v], u)
				}
			}
		}

		// Dependency accumulation in reverse BFS order.
		delta := make([]float64, n)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range predecessors[w] {
				delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
			}
			if w != source {
				scores[w] += delta[w]
			}
		}
	}

	scale := 1.0 / (float64(n-1) * float64(n-2))
	for u := range scores {
		scores[u] *= scale
	}
	return scores
}

// Closeness computes incoming-distance closeness centrality, scaled by the
// fraction of nodes able to reach each target so disconnected graphs stay
// comparable.
func Closeness(g *Graph) map[int]float64 {
	n := g.NodeCount()
	scores := make(map[int]float64, n)
	for target := 0; target < n; target++ {
		// reverse BFS over incoming edges
		distance := make([]int, n)
		for i := range distance {
			distance[i] = -1
		}
		distance[target] = 0

		totalDistance := 0
		reachable := 0
		queue := []int{target}
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			for _, v := range g.in[u] {
				if distance[v] < 0 {
					distance[v] = distance[u] + 1
					totalDistance += distance[v]
					reachable++
					queue = append(queue, v)
				}
			}
		}

		if totalDistance == 0 || n < 2 {
			scores[target] = 0
			continue
		}
		closeness := float64(reachable) / float64(totalDistance)
		scores[target] = closeness * float64(reachable) / float64(n-1)
	}
	return scores
}
