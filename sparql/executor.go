package sparql

import (
	"context"
	"fmt"
	"sort"

	"github.com/trigonrdf/trigon/rdf"
)

// cancelCheckInterval bounds how often a long-running evaluation checks
// ctx for cancellation, per the design's "at least once per N rows,
// N <= 1024" suspension contract.
const cancelCheckInterval = 512

// Executor evaluates a planned algebra tree against a QueryableDataset.
// Evaluation is eager: each BGP/path scan drains its dataset iterator
// into a slice and each combinator builds its full result set, so the
// SolutionIterator that Execute returns walks an already materialized
// result.
type Executor struct {
	dataset QueryableDataset
	handler ServiceHandler
	rows    int
}

// NewExecutor builds an Executor over dataset. handler may be nil; a
// query containing SERVICE then fails with ErrServiceUnavailable unless
// the SERVICE clause is marked SILENT.
func NewExecutor(dataset QueryableDataset, handler ServiceHandler) *Executor {
	return &Executor{dataset: dataset, handler: handler}
}

// Execute evaluates alg in full and returns an iterator over the
// materialized solutions.
func (ex *Executor) Execute(ctx context.Context, alg Algebra) (SolutionIterator, error) {
	rows, err := ex.eval(ctx, alg, nil, nil)
	if err != nil {
		return nil, err
	}
	return newSliceIterator(rows), nil
}

func (ex *Executor) checkCancel(ctx context.Context) error {
	ex.rows++
	if ex.rows%cancelCheckInterval != 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// eval evaluates alg under the given active graph (nil = default graph
// only, an rdf.Term = that one named graph; a Graph node with a variable
// name enumerates the named graphs itself and passes each down as a term)
// and outer bindings (the join context threading variables
// already fixed by an enclosing Join/LeftJoin down into alg's scans).
func (ex *Executor) eval(ctx context.Context, alg Algebra, graph any, outer Solution) ([]Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch a := alg.(type) {
	case emptyTable:
		return []Solution{outer}, nil

	case BGP:
		return ex.evalBGP(ctx, a.Patterns, graph, outer)

	case PathTriple:
		return ex.evalPathTriple(ctx, a, graph, outer)

	case Join:
		left, err := ex.eval(ctx, a.Left, graph, outer)
		if err != nil {
			return nil, err
		}
		var out []Solution
		for _, l := range left {
			if err := ex.checkCancel(ctx); err != nil {
				return nil, err
			}
			right, err := ex.eval(ctx, a.Right, graph, l)
			if err != nil {
				return nil, err
			}
			out = append(out, right...)
		}
		return out, nil

	case LeftJoin:
		left, err := ex.eval(ctx, a.Left, graph, outer)
		if err != nil {
			return nil, err
		}
		var out []Solution
		for _, l := range left {
			right, err := ex.eval(ctx, a.Right, graph, l)
			if err != nil {
				return nil, err
			}
			matched := false
			for _, r := range right {
				if a.Expr == nil {
					matched = true
					out = append(out, r)
					continue
				}
				v, verr := evalExpr(a.Expr, evalEnv{sol: r, exists: ex.existsFunc(ctx, graph)})
				if ok, valid := EBV(v, verr); valid && ok {
					matched = true
					out = append(out, r)
				}
			}
			if !matched {
				out = append(out, l)
			}
		}
		return out, nil

	case Union:
		left, err := ex.eval(ctx, a.Left, graph, outer)
		if err != nil {
			return nil, err
		}
		right, err := ex.eval(ctx, a.Right, graph, outer)
		if err != nil {
			return nil, err
		}
		return append(left, right...), nil

	case Minus:
		left, err := ex.eval(ctx, a.Left, graph, outer)
		if err != nil {
			return nil, err
		}
		right, err := ex.eval(ctx, a.Right, graph, outer)
		if err != nil {
			return nil, err
		}
		var out []Solution
		for _, l := range left {
			excluded := false
			for _, r := range right {
				if minusDisjoint(l, r) {
					continue
				}
				excluded = true
				break
			}
			if !excluded {
				out = append(out, l)
			}
		}
		return out, nil

	case Filter:
		in, err := ex.eval(ctx, a.Input, graph, outer)
		if err != nil {
			return nil, err
		}
		var out []Solution
		for _, s := range in {
			v, verr := evalExpr(a.Expr, evalEnv{sol: s, exists: ex.existsFunc(ctx, graph)})
			if ok, valid := EBV(v, verr); valid && ok {
				out = append(out, s)
			}
		}
		return out, nil

	case Extend:
		in, err := ex.eval(ctx, a.Input, graph, outer)
		if err != nil {
			return nil, err
		}
		out := make([]Solution, len(in))
		for i, s := range in {
			v, verr := evalExpr(a.Expr, evalEnv{sol: s, exists: ex.existsFunc(ctx, graph)})
			if verr == nil && !isErrorTerm(v) {
				s2 := s.Clone()
				s2[a.Var] = v
				out[i] = s2
			} else {
				out[i] = s
			}
		}
		return out, nil

	case Values:
		var out []Solution
		for _, row := range a.Rows {
			rowSol := Solution{}
			for i, v := range a.Vars {
				if i < len(row) && row[i] != nil {
					rowSol[v] = row[i].(rdf.Term)
				}
			}
			if outer.Compatible(rowSol) {
				out = append(out, outer.Merge(rowSol))
			}
		}
		return out, nil

	case Graph:
		if name, ok := a.Name.(Var); ok {
			graphs, err := ex.dataset.NamedGraphs()
			if err != nil {
				return nil, err
			}
			var out []Solution
			for _, g := range graphs {
				gSol := Solution{name: g}
				if !outer.Compatible(gSol) {
					continue
				}
				rows, err := ex.eval(ctx, a.Input, g, outer.Merge(gSol))
				if err != nil {
					return nil, err
				}
				out = append(out, rows...)
			}
			return out, nil
		}
		return ex.eval(ctx, a.Input, a.Name, outer)

	case Group:
		return ex.evalGroup(ctx, a, graph, outer)

	case OrderBy:
		in, err := ex.eval(ctx, a.Input, graph, outer)
		if err != nil {
			return nil, err
		}
		out := append([]Solution(nil), in...)
		sort.SliceStable(out, func(i, j int) bool {
			return orderLess(a.Conditions, out[i], out[j], ex, ctx, graph)
		})
		return out, nil

	case Project:
		in, err := ex.eval(ctx, a.Input, graph, outer)
		if err != nil {
			return nil, err
		}
		out := make([]Solution, len(in))
		for i, s := range in {
			proj := Solution{}
			for _, v := range a.Vars {
				if t, ok := s[v]; ok {
					proj[v] = t
				}
			}
			out[i] = proj
		}
		return out, nil

	case Distinct:
		in, err := ex.eval(ctx, a.Input, graph, outer)
		if err != nil {
			return nil, err
		}
		return dedupSolutions(in), nil

	case Reduced:
		return ex.eval(ctx, a.Input, graph, outer)

	case Slice:
		in, err := ex.eval(ctx, a.Input, graph, outer)
		if err != nil {
			return nil, err
		}
		start := a.Offset
		if start < 0 {
			start = 0
		}
		if start > len(in) {
			start = len(in)
		}
		end := len(in)
		if a.Limit >= 0 && start+a.Limit < end {
			end = start + a.Limit
		}
		return in[start:end], nil

	case Service:
		return ex.evalService(ctx, a, outer)
	}
	return nil, fmt.Errorf("sparql: unknown algebra node %T", alg)
}

func (ex *Executor) existsFunc(ctx context.Context, graph any) func(Algebra, Solution) (bool, error) {
	return func(pattern Algebra, sol Solution) (bool, error) {
		rows, err := ex.eval(ctx, pattern, graph, sol)
		if err != nil {
			return false, err
		}
		return len(rows) > 0, nil
	}
}

func (ex *Executor) evalService(ctx context.Context, a Service, outer Solution) ([]Solution, error) {
	nameTerm, ok := a.Name.(rdf.Term)
	if !ok {
		return nil, fmt.Errorf("sparql: SERVICE with a variable endpoint is not supported")
	}
	if ex.handler == nil {
		if a.Silent {
			return []Solution{outer}, nil
		}
		return nil, &ErrServiceUnavailable{IRI: nameTerm}
	}
	it, err := ex.handler.Service(nameTerm, a.Input, outer)
	if err != nil {
		if a.Silent {
			return []Solution{outer}, nil
		}
		return nil, err
	}
	defer it.Close()
	var out []Solution
	for it.Next() {
		s := it.Solution()
		if outer.Compatible(s) {
			out = append(out, outer.Merge(s))
		}
	}
	return out, it.Err()
}

// minusDisjoint reports whether l and r are either incompatible, or
// share no variable at all -- SPARQL MINUS removes l only when l and r
// are compatible AND share at least one variable.
func minusDisjoint(l, r Solution) bool {
	shared := false
	for k, v := range l {
		if rv, ok := r[k]; ok {
			shared = true
			if !v.Equal(rv) {
				return true
			}
		}
	}
	return !shared
}

func dedupSolutions(in []Solution) []Solution {
	seen := map[string]bool{}
	var out []Solution
	for _, s := range in {
		k := solutionKey(s)
		if !seen[k] {
			seen[k] = true
			out = append(out, s)
		}
	}
	return out
}

func solutionKey(s Solution) string {
	vars := make([]string, 0, len(s))
	for v := range s {
		vars = append(vars, string(v))
	}
	sort.Strings(vars)
	key := ""
	for _, v := range vars {
		key += v + "=" + s[Var(v)].String() + "\x00"
	}
	return key
}

func orderLess(conds []OrderCondition, a, b Solution, ex *Executor, ctx context.Context, graph any) bool {
	for _, c := range conds {
		av, aerr := evalExpr(c.Expr, evalEnv{sol: a, exists: ex.existsFunc(ctx, graph)})
		bv, berr := evalExpr(c.Expr, evalEnv{sol: b, exists: ex.existsFunc(ctx, graph)})
		if aerr != nil || berr != nil {
			continue
		}
		cmp, ok := orderingCompare(av, bv)
		if !ok {
			continue
		}
		if cmp == 0 {
			continue
		}
		if c.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}
