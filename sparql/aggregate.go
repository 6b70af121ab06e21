package sparql

import (
	"context"
	"strings"

	"github.com/trigonrdf/trigon/rdf"
)

// evalGroup partitions Input's rows by the GROUP BY keys (the whole
// input as one group when By is empty) and computes one output row of
// aggregates per partition.
func (ex *Executor) evalGroup(ctx context.Context, g Group, graph any, outer Solution) ([]Solution, error) {
	in, err := ex.eval(ctx, g.Input, graph, outer)
	if err != nil {
		return nil, err
	}

	type partition struct {
		key  Solution
		rows []Solution
	}
	order := []string{}
	partitions := map[string]*partition{}
	env := func(s Solution) evalEnv { return evalEnv{sol: s, exists: ex.existsFunc(ctx, graph)} }

	for _, row := range in {
		keySol := Solution{}
		for _, gk := range g.By {
			v, err := evalExpr(gk.Expr, env(row))
			if err == nil && !isErrorTerm(v) && gk.As != "" {
				keySol[gk.As] = v
			} else if err == nil && !isErrorTerm(v) {
				// Unaliased GROUP BY keys still partition the stream;
				// give them a synthetic, unreachable name internally.
				hint := ""
				if te, ok := gk.Expr.(TermExpr); ok {
					hint = te.stringHint()
				}
				keySol[Var("\x00key"+hint)] = v
			}
		}
		k := solutionKey(keySol)
		p, ok := partitions[k]
		if !ok {
			p = &partition{key: keySol}
			partitions[k] = p
			order = append(order, k)
		}
		p.rows = append(p.rows, row)
	}
	if len(order) == 0 && len(g.By) == 0 {
		// No GROUP BY and an empty input still yields one empty group
		// for bare aggregates (COUNT(*) over zero rows is 0).
		order = append(order, "")
		partitions[""] = &partition{key: Solution{}}
	}

	var out []Solution
	for _, k := range order {
		p := partitions[k]
		sol := outer.Merge(p.key)
		for _, ab := range g.Aggregates {
			val := ex.evalAggregate(ab.Expr, p.rows, env)
			sol[ab.Var] = val
		}
		out = append(out, sol)
	}
	return out, nil
}

func (ex *Executor) evalAggregate(agg AggregateExpr, rows []Solution, env func(Solution) evalEnv) rdf.Term {
	var values []rdf.Term
	seen := map[string]bool{}
	for _, row := range rows {
		if agg.Expr == nil {
			values = append(values, nil) // COUNT(*): one placeholder per row
			continue
		}
		v, err := evalExpr(agg.Expr, env(row))
		if err != nil || isErrorTerm(v) {
			continue
		}
		if agg.Distinct {
			k := v.String()
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		values = append(values, v)
	}

	switch agg.Op {
	case AggCount:
		return numeric{kind: numInteger, val: float64(len(values))}.literal()
	case AggSample:
		if len(values) == 0 {
			return rdf.NewLiteral("")
		}
		return values[0]
	case AggGroupConcat:
		sep := agg.Separator
		if sep == "" {
			sep = " "
		}
		parts := make([]string, 0, len(values))
		for _, v := range values {
			s, _ := extractString(v)
			parts = append(parts, s)
		}
		return rdf.NewLiteral(strings.Join(parts, sep))
	}

	var nums []numeric
	for _, v := range values {
		if n, ok := asNumeric(v); ok {
			nums = append(nums, n)
		}
	}
	switch agg.Op {
	case AggSum:
		kind := numInteger
		var sum float64
		for _, n := range nums {
			sum += n.val
			kind = promote(kind, n.kind)
		}
		return numeric{kind: kind, val: sum}.literal()
	case AggAvg:
		if len(nums) == 0 {
			return numeric{kind: numInteger, val: 0}.literal()
		}
		var sum float64
		kind := numInteger
		for _, n := range nums {
			sum += n.val
			kind = promote(kind, n.kind)
		}
		if kind == numInteger {
			kind = numDecimal
		}
		return numeric{kind: kind, val: sum / float64(len(nums))}.literal()
	case AggMin, AggMax:
		if len(nums) == 0 {
			return rdf.NewLiteral("")
		}
		best := nums[0]
		for _, n := range nums[1:] {
			if (agg.Op == AggMin && n.val < best.val) || (agg.Op == AggMax && n.val > best.val) {
				best = n
			}
		}
		return best.literal()
	}
	return newError("unsupported aggregate")
}

// stringHint gives an unaliased GROUP BY key expression a stable string
// to distinguish it from other keys when building the internal
// partition key; it never becomes user-visible.
func (t TermExpr) stringHint() string {
	if v, ok := t.Term.(Var); ok {
		return string(v)
	}
	if term, ok := t.Term.(rdf.Term); ok {
		return term.String()
	}
	return ""
}
