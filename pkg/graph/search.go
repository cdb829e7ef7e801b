package graph

import (
	"slices"

	"github.com/ritzau/qconvert/pkg/conversion"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// label is the best known path to one alias.
type label struct {
	weight float64
	path   conversion.Path
}

// better reports whether a ranks strictly ahead of b.
//
// Ranking: lower total weight, then fewer hops, then the alias sequence
// compared hop by hop in lexicographic order. A graph holds at most one edge
// per ordered pair, so the alias sequence identifies a path and the ranking is
// total.
func better(a, b *label) bool {
	if b == nil {
		return true
	}
	if a.weight != b.weight {
		return a.weight < b.weight
	}
	if len(a.path) != len(b.path) {
		return len(a.path) < len(b.path)
	}
	for i := range a.path {
		if a.path[i].Target != b.path[i].Target {
			return a.path[i].Target < b.path[i].Target
		}
	}
	return false
}

func extend(l *label, c conversion.Conversion) *label {
	path := make(conversion.Path, len(l.path), len(l.path)+1)
	copy(path, l.path)
	return &label{weight: l.weight + c.Weight, path: append(path, c)}
}

// FindPath returns the best path from source to target using at most maxDepth
// conversions. A negative maxDepth means unbounded. Equal source and target
// yield the empty (identity) path.
//
// The search is a hop-layered relaxation: after round k every alias holds its
// best path of at most k hops. Without a bound it runs until no label
// improves, which happens within len(nodes)-1 rounds since weights are
// non-negative.
func (cg *ConversionGraph) FindPath(source, target conversion.Alias, maxDepth int) (conversion.Path, error) {
	if source == target {
		return conversion.Path{}, nil
	}
	if maxDepth < 0 {
		maxDepth = Unbounded
	}

	key := pathKey{source: source, target: target, maxDepth: maxDepth}

	cg.mu.RLock()
	defer cg.mu.RUnlock()

	if cached, ok := cg.cachedPath(key); ok {
		return cached, nil
	}

	if _, exists := cg.ids[source]; !exists {
		return nil, &PathNotFoundError{Source: source, Target: target, MaxDepth: maxDepth, Unknown: true}
	}

	rounds := maxDepth
	if rounds < 0 {
		rounds = len(cg.ids) - 1
	}

	best := map[conversion.Alias]*label{source: {}}
	changed := []conversion.Alias{source}

	for round := 0; round < rounds && len(changed) > 0; round++ {
		next := make(map[conversion.Alias]*label, len(best))
		for alias, l := range best {
			next[alias] = l
		}

		var improved []conversion.Alias
		for _, from := range changed {
			for _, to := range sortedKeys(cg.adj[from]) {
				candidate := extend(best[from], cg.adj[from][to])
				if better(candidate, next[to]) {
					if !slices.Contains(improved, to) {
						improved = append(improved, to)
					}
					next[to] = candidate
				}
			}
		}

		best = next
		slices.Sort(improved)
		changed = improved
	}

	found, ok := best[target]
	if !ok {
		return nil, &PathNotFoundError{
			Source:    source,
			Target:    target,
			MaxDepth:  maxDepth,
			Reachable: cg.reachableLocked(source, maxDepth),
		}
	}

	cg.storePath(key, found.path)
	return slices.Clone(found.path), nil
}

// HasPath reports whether target can be reached from source within maxDepth
// conversions.
func (cg *ConversionGraph) HasPath(source, target conversion.Alias, maxDepth int) bool {
	if source == target {
		return true
	}
	if maxDepth >= 0 {
		_, err := cg.FindPath(source, target, maxDepth)
		return err == nil
	}

	cg.mu.RLock()
	defer cg.mu.RUnlock()

	fromID, okFrom := cg.ids[source]
	toID, okTo := cg.ids[target]
	if !okFrom || !okTo {
		return false
	}
	return topo.PathExistsIn(cg.graph, cg.graph.Node(fromID), cg.graph.Node(toID))
}

// Reachable returns the aliases reachable from source within maxDepth
// conversions, excluding source itself, sorted.
func (cg *ConversionGraph) Reachable(source conversion.Alias, maxDepth int) []conversion.Alias {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return cg.reachableLocked(source, maxDepth)
}

func (cg *ConversionGraph) reachableLocked(source conversion.Alias, maxDepth int) []conversion.Alias {
	id, exists := cg.ids[source]
	if !exists {
		return nil
	}

	var reachable []conversion.Alias
	bfs := traverse.BreadthFirst{}
	bfs.Walk(cg.graph, cg.graph.Node(id), func(n gonum.Node, depth int) bool {
		if maxDepth >= 0 && depth > maxDepth {
			return true
		}
		if n.ID() != id {
			reachable = append(reachable, cg.aliases[n.ID()])
		}
		return false
	})

	slices.Sort(reachable)
	return reachable
}

func (cg *ConversionGraph) cachedPath(key pathKey) (conversion.Path, bool) {
	cg.cacheMu.Lock()
	defer cg.cacheMu.Unlock()

	path, ok := cg.cache[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(path), true
}

func (cg *ConversionGraph) storePath(key pathKey, path conversion.Path) {
	cg.cacheMu.Lock()
	defer cg.cacheMu.Unlock()
	cg.cache[key] = slices.Clone(path)
}
