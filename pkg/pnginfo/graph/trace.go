package graph

import "sort"

// Reach is a node reached while tracing upstream, with its hop distance.
type Reach struct {
	ID       string
	Distance int
}

// Trace walks link inputs upstream from startID breadth-first and returns
// the distance of every reachable node, startID included at 0. A start node
// that is not in the graph yields an empty map.
func (p *Prompt) Trace(startID string) map[string]int {
	dist := make(map[string]int)
	if !p.Has(startID) {
		return dist
	}
	dist[startID] = 0
	queue := []string{startID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, _ := p.Node(id)
		for _, v := range n.Inputs {
			src, _, ok := Link(v)
			if !ok || !p.Has(src) {
				continue
			}
			if _, seen := dist[src]; seen {
				continue
			}
			dist[src] = dist[id] + 1
			queue = append(queue, src)
		}
	}
	return dist
}

// Upstream returns the traced nodes ordered by distance, ties broken by
// document order.
func (p *Prompt) Upstream(startID string) []Reach {
	dist := p.Trace(startID)
	pos := make(map[string]int, p.Len())
	for i, id := range p.IDs() {
		pos[id] = i
	}
	out := make([]Reach, 0, len(dist))
	for id, d := range dist {
		out = append(out, Reach{ID: id, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return pos[out[i].ID] < pos[out[j].ID]
	})
	return out
}
