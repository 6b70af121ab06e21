package sparql

import (
	"context"

	"github.com/trigonrdf/trigon/rdf"
)

// evalBGP runs a planned BGP as a nested-loop join: each pattern scans
// the dataset under the bindings accumulated from the patterns before
// it, so the outer relation (whatever patterns ran first) drives
// index-probes on the inner one, per the design's join strategy.
func (ex *Executor) evalBGP(ctx context.Context, patterns []TriplePattern, graph any, outer Solution) ([]Solution, error) {
	rows := []Solution{outer}
	for _, pat := range patterns {
		var next []Solution
		for _, r := range rows {
			if err := ex.checkCancel(ctx); err != nil {
				return nil, err
			}
			matches, err := ex.scanPattern(pat, graph, r)
			if err != nil {
				return nil, err
			}
			next = append(next, matches...)
		}
		rows = next
		if len(rows) == 0 {
			return nil, nil
		}
	}
	return rows, nil
}

// scanPattern resolves pat's bound positions against outer, scans the
// dataset, and returns one solution per matching quad, unifying any
// variable that appears more than once in pat (e.g. "?x :knows ?x")
// against the decoded quad's terms.
func (ex *Executor) scanPattern(pat TriplePattern, graph any, outer Solution) ([]Solution, error) {
	qp := QuadPattern{Graph: graph}
	qp.Subject = resolvePosition(pat.Subject, outer)
	qp.Predicate = resolvePosition(pat.Predicate, outer)
	qp.Object = resolvePosition(pat.Object, outer)

	it, err := ex.dataset.Quads(qp)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []Solution
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			return nil, err
		}
		sol, ok := unifyPattern(pat, q, outer)
		if ok {
			out = append(out, sol)
		}
	}
	return out, it.Err()
}

// resolvePosition returns the term to scan with: a bound term as-is, an
// already-bound variable's value, or the Var itself to leave the
// position unbound in the scan.
func resolvePosition(pos any, outer Solution) any {
	v, ok := pos.(Var)
	if !ok {
		return pos
	}
	if t, bound := outer[v]; bound {
		return t
	}
	return v
}

// unifyPattern extends outer with pat's new variable bindings from a
// matched quad q, rejecting the match if a variable used twice in pat
// (or already bound in outer) disagrees with q.
func unifyPattern(pat TriplePattern, q rdf.Quad, outer Solution) (Solution, bool) {
	sol := outer.Clone()
	bind := func(pos any, term rdf.Term) bool {
		v, ok := pos.(Var)
		if !ok {
			return true
		}
		if existing, bound := sol[v]; bound {
			return existing.Equal(term)
		}
		sol[v] = term
		return true
	}
	if !bind(pat.Subject, q.Subject) {
		return nil, false
	}
	if !bind(pat.Predicate, q.Predicate) {
		return nil, false
	}
	if !bind(pat.Object, q.Object) {
		return nil, false
	}
	return sol, true
}

// asTriplePattern reports whether pt is a single-hop triple (a fixed
// predicate or a predicate variable, never a path operator), in which
// case it is evaluated as an ordinary TriplePattern scan rather than
// through the path-closure machinery below -- this is what lets
// "?s ?p ?o" and other all-unbound triples work without requiring a
// bound endpoint.
func asTriplePattern(pt PathTriple) (TriplePattern, bool) {
	switch p := pt.Path.(type) {
	case PredicatePath:
		return TriplePattern{Subject: pt.Subject, Predicate: p.Predicate, Object: pt.Object}, true
	case varPath:
		return TriplePattern{Subject: pt.Subject, Predicate: p.v, Object: pt.Object}, true
	}
	return TriplePattern{}, false
}

// evalPathTriple evaluates a property-path triple. Single-hop triples
// (see asTriplePattern) go through the ordinary BGP scan, and an
// alternative is evaluated as the union of its two branches, each by this
// function in turn. Every other path operator (sequence, inverse, */+/?,
// negated sets) needs at least one of Subject/Object bound (directly or
// via outer); with both unbound it returns UnsupportedPathError. With only
// Object bound the path is walked backwards, which evalPathFromInverse
// supports for a negated property set only; any other operator then
// returns an error.
func (ex *Executor) evalPathTriple(ctx context.Context, pt PathTriple, graph any, outer Solution) ([]Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tp, ok := asTriplePattern(pt); ok {
		return ex.scanPattern(tp, graph, outer)
	}
	if alt, ok := pt.Path.(AlternativePath); ok {
		left, err := ex.evalPathTriple(ctx, PathTriple{Subject: pt.Subject, Path: alt.Left, Object: pt.Object}, graph, outer)
		if err != nil {
			return nil, err
		}
		right, err := ex.evalPathTriple(ctx, PathTriple{Subject: pt.Subject, Path: alt.Right, Object: pt.Object}, graph, outer)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil
	}
	subjVar, subjTerm, subjBound := resolveEndpoint(pt.Subject, outer)
	objVar, objTerm, objBound := resolveEndpoint(pt.Object, outer)

	switch {
	case subjBound && objBound:
		reached, err := ex.evalPathFrom(ex.dataset, graph, subjTerm, pt.Path)
		if err != nil {
			return nil, err
		}
		for _, r := range reached {
			if r.Equal(objTerm) {
				return []Solution{outer}, nil
			}
		}
		return nil, nil

	case subjBound:
		reached, err := ex.evalPathFrom(ex.dataset, graph, subjTerm, pt.Path)
		if err != nil {
			return nil, err
		}
		var out []Solution
		for _, r := range reached {
			if sol, ok := bindVar(outer, objVar, r); ok {
				out = append(out, sol)
			}
		}
		return out, nil

	case objBound:
		reached, err := ex.evalPathFrom(ex.dataset, graph, objTerm, InversePath{Path: pt.Path})
		if err != nil {
			return nil, err
		}
		var out []Solution
		for _, r := range reached {
			if sol, ok := bindVar(outer, subjVar, r); ok {
				out = append(out, sol)
			}
		}
		return out, nil

	default:
		return nil, &UnsupportedPathError{Reason: "property path with both subject and object unbound"}
	}
}

// UnsupportedPathError reports a property path whose subject and object
// are both unbound (other than a single predicate or an alternative),
// which this executor declines rather than evaluating via a full graph
// scan.
type UnsupportedPathError struct{ Reason string }

func (e *UnsupportedPathError) Error() string { return "sparql: unsupported path: " + e.Reason }

func resolveEndpoint(pos any, outer Solution) (v Var, term rdf.Term, bound bool) {
	if t, ok := pos.(rdf.Term); ok {
		return "", t, true
	}
	v = pos.(Var)
	if t, ok := outer[v]; ok {
		return v, t, true
	}
	return v, nil, false
}

func bindVar(outer Solution, v Var, term rdf.Term) (Solution, bool) {
	if v == "" {
		return outer, true
	}
	if existing, ok := outer[v]; ok {
		return outer, existing.Equal(term)
	}
	sol := outer.Clone()
	sol[v] = term
	return sol, true
}
