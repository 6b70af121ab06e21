package sparql

import "github.com/trigonrdf/trigon/rdf"

// Plan rewrites alg into an equivalent but (hopefully) cheaper tree. Per
// the design's optimizer contract, every rewrite here is restricted to
// reordering commutative joins, reordering a BGP's own triple patterns,
// and pushing filters toward the point where their variables become
// bound -- none of it may change the set of solutions a naive top-down
// walk of the original tree would produce.
func Plan(alg Algebra, stats *Stats) Algebra {
	switch a := alg.(type) {
	case BGP:
		return BGP{Patterns: orderPatterns(a.Patterns, stats)}
	case Join:
		return pushFilterIntoJoin(Join{Left: Plan(a.Left, stats), Right: Plan(a.Right, stats)})
	case LeftJoin:
		return LeftJoin{Left: Plan(a.Left, stats), Right: Plan(a.Right, stats), Expr: a.Expr}
	case Union:
		return Union{Left: Plan(a.Left, stats), Right: Plan(a.Right, stats)}
	case Minus:
		return Minus{Left: Plan(a.Left, stats), Right: Plan(a.Right, stats)}
	case Filter:
		return Filter{Input: Plan(a.Input, stats), Expr: a.Expr}
	case Extend:
		return Extend{Input: Plan(a.Input, stats), Var: a.Var, Expr: a.Expr}
	case Graph:
		return Graph{Name: a.Name, Input: Plan(a.Input, stats)}
	case Group:
		return Group{Input: Plan(a.Input, stats), By: a.By, Aggregates: a.Aggregates}
	case OrderBy:
		return OrderBy{Input: Plan(a.Input, stats), Conditions: a.Conditions}
	case Project:
		return Project{Input: Plan(a.Input, stats), Vars: a.Vars}
	case Distinct:
		return Distinct{Input: Plan(a.Input, stats)}
	case Reduced:
		return Reduced{Input: Plan(a.Input, stats)}
	case Slice:
		return Slice{Input: Plan(a.Input, stats), Offset: a.Offset, Limit: a.Limit}
	case Service:
		return Service{Name: a.Name, Input: Plan(a.Input, stats), Silent: a.Silent}
	default:
		return alg
	}
}

// Stats are the cardinality estimates the planner uses to order joins:
// bound-count and simple per-predicate popularity, per the design's
// "simple cardinality estimates (bound count, property popularity)".
type Stats struct {
	// PredicateCount maps a predicate IRI to the number of quads using
	// it; a nil map (or a missing entry) means "unknown, assume average
	// selectivity" and falls back to bound-count-only ordering.
	PredicateCount map[string]int64
}

func boundCount(p TriplePattern) int {
	n := 0
	if !isVar(p.Subject) {
		n++
	}
	if !isVar(p.Predicate) {
		n++
	}
	if !isVar(p.Object) {
		n++
	}
	return n
}

func isVar(t any) bool {
	_, ok := t.(Var)
	return ok
}

// orderPatterns reorders a BGP's triple patterns by selectivity (most
// bound positions first, least popular predicate first), then greedily
// by connectedness to variables already fixed by earlier patterns, so
// the nested-loop join's outer relation drives index-probes on the
// inner with the smallest first result set. This never changes the BGP's
// result -- join is commutative and associative over one pattern set.
func orderPatterns(patterns []TriplePattern, stats *Stats) []TriplePattern {
	if len(patterns) <= 1 {
		return patterns
	}
	remaining := append([]TriplePattern(nil), patterns...)
	bound := map[Var]bool{}
	ordered := make([]TriplePattern, 0, len(patterns))

	for len(remaining) > 0 {
		bestIdx, bestScore := 0, -1
		for i, p := range remaining {
			score := patternScore(p, bound, stats)
			if score > bestScore {
				bestIdx, bestScore = i, score
			}
		}
		chosen := remaining[bestIdx]
		ordered = append(ordered, chosen)
		for _, v := range patternVars(chosen) {
			bound[v] = true
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}
	return ordered
}

// patternScore rewards more bound positions, rewards sharing a variable
// with an already-bound pattern (keeps the join connected instead of a
// cross product), and penalizes popular predicates when stats are
// available.
func patternScore(p TriplePattern, bound map[Var]bool, stats *Stats) int {
	score := boundCount(p) * 100
	for _, v := range patternVars(p) {
		if bound[v] {
			score += 50
		}
	}
	if stats != nil && stats.PredicateCount != nil {
		if pred, ok := p.Predicate.(rdf.NamedNode); ok {
			if count, ok := stats.PredicateCount[pred.IRI]; ok && count > 0 {
				// Fewer matching quads -> higher score: 10 minus one per
				// power of ten in count, floored at 0, so this never
				// outweighs bound-count, only breaks ties within it.
				bonus := 10
				for c := count; c >= 10 && bonus > 0; c /= 10 {
					bonus--
				}
				score += bonus
			}
		}
	}
	return score
}

func patternVars(p TriplePattern) []Var {
	var out []Var
	if v, ok := p.Subject.(Var); ok {
		out = append(out, v)
	}
	if v, ok := p.Predicate.(Var); ok {
		out = append(out, v)
	}
	if v, ok := p.Object.(Var); ok {
		out = append(out, v)
	}
	return out
}

// pushFilterIntoJoin returns j unchanged; the planner does no filter
// pushdown. Each FILTER is placed at parse time: parseGroupGraphPattern
// wraps the algebra of the group the FILTER appears in.
func pushFilterIntoJoin(j Join) Algebra { return j }
