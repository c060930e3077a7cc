package routing

import (
	"container/heap"
	"math"
)

// Match is the target node reached first by ShortestDistanceToAny.
type Match struct {
	NodeID   string
	Distance float64  // Meters along the network
	Path     []string // Node IDs from start to NodeID inclusive
}

// ShortestDistanceToAny runs Dijkstra from start and stops at the first
// settled node that belongs to targets. Because nodes settle in
// non-decreasing distance order, that node is the nearest target. It reports
// false when no target is reachable.
func ShortestDistanceToAny(g *Graph, start string, targets map[string]struct{}) (Match, bool) {
	if g == nil || len(targets) == 0 {
		return Match{}, false
	}
	if _, ok := g.Nodes[start]; !ok {
		return Match{}, false
	}

	dist := map[string]float64{start: 0}
	cameFrom := make(map[string]string)
	visited := make(map[string]bool)

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{node: start, priority: 0})

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		current := item.node
		if visited[current] {
			continue
		}
		visited[current] = true

		if _, ok := targets[current]; ok {
			return Match{
				NodeID:   current,
				Distance: dist[current],
				Path:     reconstructPath(cameFrom, current),
			}, true
		}

		for _, e := range g.Edges[current] {
			if visited[e.To] {
				continue
			}
			candidate := dist[current] + e.Weight
			if candidate < distanceOrInf(dist, e.To) {
				dist[e.To] = candidate
				cameFrom[e.To] = current
				heap.Push(pq, &pqItem{node: e.To, priority: candidate})
			}
		}
	}

	return Match{}, false
}

func distanceOrInf(dist map[string]float64, id string) float64 {
	if d, ok := dist[id]; ok {
		return d
	}
	return math.Inf(1)
}

func reconstructPath(cameFrom map[string]string, current string) []string {
	path := []string{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append(path, prev)
		current = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type pqItem struct {
	node     string
	priority float64
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }

func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[0 : n-1]
	return item
}
