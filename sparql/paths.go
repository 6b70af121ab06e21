package sparql

import (
	"fmt"

	"github.com/trigonrdf/trigon/rdf"
)

// pathStep walks one hop of an atomic (non-composite) path step from a
// bound node, honoring the active graph exactly like a BGP pattern scan.
func (ex *Executor) pathStep(dataset QueryableDataset, graph any, from rdf.Term, pred rdf.Term, inverse bool) ([]rdf.Term, error) {
	pattern := QuadPattern{Graph: graph}
	if inverse {
		pattern.Predicate, pattern.Object = pred, from
	} else {
		pattern.Predicate, pattern.Subject = pred, from
	}
	it, err := dataset.Quads(pattern)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []rdf.Term
	for it.Next() {
		q, err := it.Quad()
		if err != nil {
			return nil, err
		}
		if inverse {
			out = append(out, q.Subject)
		} else {
			out = append(out, q.Object)
		}
	}
	return out, it.Err()
}

// evalPathFrom returns every node reachable from `from` by one
// application of p (atomic and composite paths alike); * and + are
// expanded by bfsClosure.
func (ex *Executor) evalPathFrom(dataset QueryableDataset, graph any, from rdf.Term, p PathExpr) ([]rdf.Term, error) {
	switch pe := p.(type) {
	case PredicatePath:
		return ex.pathStep(dataset, graph, from, pe.Predicate, false)

	case InversePath:
		return ex.evalPathFromInverse(dataset, graph, from, pe.Path)

	case NegatedPropertySet:
		return ex.evalNegatedSet(dataset, graph, from, pe, false)

	case SequencePath:
		mid, err := ex.evalPathFrom(dataset, graph, from, pe.Left)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		var out []rdf.Term
		for _, m := range mid {
			next, err := ex.evalPathFrom(dataset, graph, m, pe.Right)
			if err != nil {
				return nil, err
			}
			for _, n := range next {
				if k := n.String(); !seen[k] {
					seen[k] = true
					out = append(out, n)
				}
			}
		}
		return out, nil

	case AlternativePath:
		left, err := ex.evalPathFrom(dataset, graph, from, pe.Left)
		if err != nil {
			return nil, err
		}
		right, err := ex.evalPathFrom(dataset, graph, from, pe.Right)
		if err != nil {
			return nil, err
		}
		return dedupTerms(append(left, right...)), nil

	case ZeroOrOnePath:
		out := []rdf.Term{from}
		next, err := ex.evalPathFrom(dataset, graph, from, pe.Path)
		if err != nil {
			return nil, err
		}
		return dedupTerms(append(out, next...)), nil

	case ZeroOrMorePath:
		return ex.bfsClosure(dataset, graph, from, pe.Path, true)

	case OneOrMorePath:
		return ex.bfsClosure(dataset, graph, from, pe.Path, false)
	}
	return nil, fmt.Errorf("sparql: unknown path expression %T", p)
}

func (ex *Executor) evalPathFromInverse(dataset QueryableDataset, graph any, from rdf.Term, p PathExpr) ([]rdf.Term, error) {
	if pp, ok := p.(PredicatePath); ok {
		return ex.pathStep(dataset, graph, from, pp.Predicate, true)
	}
	// General inverse of a composite path: evaluate the composite path
	// in reverse by swapping subject/object roles via InversePath on
	// every atomic predicate step is impractical without full graph
	// materialization; the one composite case this evaluator supports
	// is inverting a negated property set, which flips trivially.
	if nps, ok := p.(NegatedPropertySet); ok {
		return ex.evalNegatedSet(dataset, graph, from, nps, true)
	}
	return nil, fmt.Errorf("sparql: inverse of composite property paths is not supported")
}

func (ex *Executor) evalNegatedSet(dataset QueryableDataset, graph any, from rdf.Term, nps NegatedPropertySet, inverted bool) ([]rdf.Term, error) {
	excluded := map[string]bool{}
	excludedInv := map[string]bool{}
	for i, p := range nps.Predicates {
		if nps.Inverse[i] {
			excludedInv[p.String()] = true
		} else {
			excluded[p.String()] = true
		}
	}

	var out []rdf.Term
	scan := func(pattern QuadPattern, fromSubject bool) error {
		it, err := dataset.Quads(pattern)
		if err != nil {
			return err
		}
		defer it.Close()
		for it.Next() {
			q, err := it.Quad()
			if err != nil {
				return err
			}
			if fromSubject && !excluded[q.Predicate.String()] {
				out = append(out, q.Object)
			}
			if !fromSubject && !excludedInv[q.Predicate.String()] {
				out = append(out, q.Subject)
			}
		}
		return it.Err()
	}

	forward := !inverted
	if forward {
		if err := scan(QuadPattern{Graph: graph, Subject: from}, true); err != nil {
			return nil, err
		}
	} else {
		if err := scan(QuadPattern{Graph: graph, Object: from}, false); err != nil {
			return nil, err
		}
	}
	return dedupTerms(out), nil
}

// bfsClosure materializes the reachable-node frontier from `from` via
// repeated application of p, per design §4.4: the zero-or-more case
// emits the starting node first.
func (ex *Executor) bfsClosure(dataset QueryableDataset, graph any, from rdf.Term, p PathExpr, includeStart bool) ([]rdf.Term, error) {
	visited := map[string]bool{}
	var out []rdf.Term
	if includeStart {
		visited[from.String()] = true
		out = append(out, from)
	}

	frontier := []rdf.Term{from}
	for len(frontier) > 0 {
		var next []rdf.Term
		for _, node := range frontier {
			reached, err := ex.evalPathFrom(dataset, graph, node, p)
			if err != nil {
				return nil, err
			}
			for _, r := range reached {
				k := r.String()
				if !visited[k] {
					visited[k] = true
					out = append(out, r)
					next = append(next, r)
				}
			}
		}
		frontier = next
	}
	return out, nil
}

func dedupTerms(terms []rdf.Term) []rdf.Term {
	seen := map[string]bool{}
	var out []rdf.Term
	for _, t := range terms {
		if k := t.String(); !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}
