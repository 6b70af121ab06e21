package sparql

import (
	"context"
	"strconv"

	"github.com/trigonrdf/trigon/rdf"
)

// hoistAggregates extracts every AggregateCallExpr in e into bindings,
// replacing each with a TermExpr referencing a freshly generated
// variable, and returns the rewritten tree. The same function serves the
// select list, HAVING, and ORDER BY, since all three need aggregate
// calls pulled out into the enclosing Group node before the executor
// ever sees them.
func hoistAggregates(e Expr, bindings *[]AggregateBinding, p *parser) Expr {
	switch v := e.(type) {
	case AggregateCallExpr:
		out := p.genVar()
		*bindings = append(*bindings, AggregateBinding{Var: out, Expr: v.Agg})
		return TermExpr{Term: out}

	case BinaryExpr:
		v.Left = hoistAggregates(v.Left, bindings, p)
		if v.Right != nil {
			v.Right = hoistAggregates(v.Right, bindings, p)
		}
		for i := range v.List {
			v.List[i] = hoistAggregates(v.List[i], bindings, p)
		}
		return v

	case UnaryExpr:
		v.Operand = hoistAggregates(v.Operand, bindings, p)
		return v

	case FuncCall:
		for i := range v.Args {
			v.Args[i] = hoistAggregates(v.Args[i], bindings, p)
		}
		return v

	default:
		return e
	}
}

// collectVars walks alg and returns every distinct variable it mentions,
// in first-seen order -- used for "SELECT *", which projects every
// variable the WHERE clause binds.
func collectVars(alg Algebra) []Var {
	var out []Var
	seen := map[Var]bool{}
	add := func(v Var) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	addPos := func(pos any) {
		if v, ok := pos.(Var); ok {
			add(v)
		}
	}

	var walk func(Algebra)
	walk = func(a Algebra) {
		switch n := a.(type) {
		case BGP:
			for _, p := range n.Patterns {
				addPos(p.Subject)
				addPos(p.Predicate)
				addPos(p.Object)
			}
		case PathTriple:
			addPos(n.Subject)
			addPos(n.Object)
			if vp, ok := n.Path.(varPath); ok {
				add(vp.v)
			}
		case Join:
			walk(n.Left)
			walk(n.Right)
		case LeftJoin:
			walk(n.Left)
			walk(n.Right)
		case Union:
			walk(n.Left)
			walk(n.Right)
		case Minus:
			walk(n.Left)
			walk(n.Right)
		case Filter:
			walk(n.Input)
		case Extend:
			walk(n.Input)
			add(n.Var)
		case Values:
			for _, v := range n.Vars {
				add(v)
			}
		case Graph:
			addPos(n.Name)
			walk(n.Input)
		case Group:
			walk(n.Input)
			for _, gk := range n.By {
				add(gk.As)
			}
			for _, ab := range n.Aggregates {
				add(ab.Var)
			}
		case OrderBy:
			walk(n.Input)
		case Project:
			walk(n.Input)
		case Distinct:
			walk(n.Input)
		case Reduced:
			walk(n.Input)
		case Slice:
			walk(n.Input)
		case Service:
			walk(n.Input)
		}
	}
	walk(alg)
	return out
}

// Result is the outcome of executing a Query, shaped per its form: a
// binding stream for SELECT, a single boolean for ASK, or a quad set for
// CONSTRUCT/DESCRIBE.
type Result struct {
	Form     QueryForm
	Vars     []Var
	Bindings SolutionIterator
	Boolean  bool
	Quads    []rdf.Quad
}

// Execute compiles q's algebra with Plan and runs it against dataset,
// shaping the output according to q.Form.
func Execute(ctx context.Context, q *Query, dataset QueryableDataset, handler ServiceHandler, stats *Stats) (Result, error) {
	ex := NewExecutor(dataset, handler)

	switch q.Form {
	case FormSelect:
		it, err := ex.Execute(ctx, Plan(q.Algebra, stats))
		if err != nil {
			return Result{}, err
		}
		return Result{Form: FormSelect, Vars: q.Vars, Bindings: it}, nil

	case FormAsk:
		it, err := ex.Execute(ctx, Plan(q.Algebra, stats))
		if err != nil {
			return Result{}, err
		}
		has := it.Next()
		err = it.Err()
		it.Close()
		if err != nil {
			return Result{}, err
		}
		return Result{Form: FormAsk, Boolean: has}, nil

	case FormConstruct:
		it, err := ex.Execute(ctx, Plan(q.Algebra, stats))
		if err != nil {
			return Result{}, err
		}
		defer it.Close()
		quads, err := instantiateTemplate(q.Template, it)
		if err != nil {
			return Result{}, err
		}
		return Result{Form: FormConstruct, Quads: dedupQuads(quads)}, nil

	case FormDescribe:
		quads, err := executeDescribe(ctx, q, dataset, ex, stats)
		if err != nil {
			return Result{}, err
		}
		return Result{Form: FormDescribe, Quads: dedupQuads(quads)}, nil
	}
	return Result{}, newSyntaxError(0, "unknown query form")
}

// instantiateTemplate substitutes each solution's bindings into q.Template,
// minting a fresh blank node scope per solution row (template blank
// nodes with the same label within one row corefer; across rows they do
// not, per SPARQL CONSTRUCT semantics).
func instantiateTemplate(template []TriplePattern, it SolutionIterator) ([]rdf.Quad, error) {
	var out []rdf.Quad
	row := 0
	for it.Next() {
		sol := it.Solution()
		scope := map[string]rdf.BlankNode{}
		resolve := func(pos any) (rdf.Term, bool) {
			switch v := pos.(type) {
			case Var:
				t, ok := sol[v]
				return t, ok
			case rdf.BlankNode:
				bn, ok := scope[v.ID]
				if !ok {
					bn = rdf.NewBlankNode(v.ID + "." + strconv.Itoa(row))
					scope[v.ID] = bn
				}
				return bn, true
			case rdf.Term:
				return v, true
			}
			return nil, false
		}
		for _, tp := range template {
			s, sok := resolve(tp.Subject)
			p, pok := resolve(tp.Predicate)
			o, ook := resolve(tp.Object)
			if sok && pok && ook {
				out = append(out, rdf.NewTriple(s, p, o))
			}
		}
		row++
	}
	return out, it.Err()
}

func dedupQuads(quads []rdf.Quad) []rdf.Quad {
	seen := map[string]bool{}
	var out []rdf.Quad
	for _, q := range quads {
		k := q.String()
		if !seen[k] {
			seen[k] = true
			out = append(out, q)
		}
	}
	return out
}

// executeDescribe resolves q's DescribeTerms (bound IRIs, plus the
// distinct bindings of any variable among them found by q's WHERE
// clause) and returns every quad naming one of those resources as
// subject. A DESCRIBE with no resource list ("DESCRIBE *" or none given)
// describes every distinct term bound in the WHERE clause's solutions.
func executeDescribe(ctx context.Context, q *Query, dataset QueryableDataset, ex *Executor, stats *Stats) ([]rdf.Quad, error) {
	var resources []rdf.Term
	seen := map[string]bool{}
	addResource := func(t rdf.Term) {
		if t == nil {
			return
		}
		if k := t.String(); !seen[k] {
			seen[k] = true
			resources = append(resources, t)
		}
	}

	it, err := ex.Execute(ctx, Plan(q.Algebra, stats))
	if err != nil {
		return nil, err
	}
	defer it.Close()

	wantVars := map[Var]bool{}
	var fixed []rdf.Term
	for _, t := range q.DescribeTerms {
		switch v := t.(type) {
		case Var:
			wantVars[v] = true
		case rdf.Term:
			fixed = append(fixed, v)
		}
	}
	for _, t := range fixed {
		addResource(t)
	}

	describeAll := len(q.DescribeTerms) == 0
	for it.Next() {
		sol := it.Solution()
		if describeAll {
			for _, t := range sol {
				addResource(t)
			}
			continue
		}
		for v := range wantVars {
			if t, ok := sol[v]; ok {
				addResource(t)
			}
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}

	var quads []rdf.Quad
	for _, res := range resources {
		qi, err := dataset.Quads(QuadPattern{Subject: res})
		if err != nil {
			return nil, err
		}
		for qi.Next() {
			q, err := qi.Quad()
			if err != nil {
				qi.Close()
				return nil, err
			}
			quads = append(quads, q)
		}
		err = qi.Err()
		qi.Close()
		if err != nil {
			return nil, err
		}
	}
	return quads, nil
}
