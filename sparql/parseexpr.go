package sparql

import "strings"

// parseExpr parses a full SPARQL expression: the ConditionalOrExpression
// production and everything nested under it.
func (p *parser) parseExpr() (Expr, error) {
	return p.parseOrExpr()
}

func (p *parser) parseOrExpr() (Expr, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.s.skipWS()
		if !p.s.matchLiteral("||") {
			return left, nil
		}
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: OpOr, Left: left, Right: right}
	}
}

func (p *parser) parseAndExpr() (Expr, error) {
	left, err := p.parseRelationalExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.s.skipWS()
		if !p.s.matchLiteral("&&") {
			return left, nil
		}
		right, err := p.parseRelationalExpr()
		if err != nil {
			return nil, err
		}
		left = BinaryExpr{Op: OpAnd, Left: left, Right: right}
	}
}

func (p *parser) parseRelationalExpr() (Expr, error) {
	left, err := p.parseAdditiveExpr()
	if err != nil {
		return nil, err
	}
	p.s.skipWS()
	switch {
	case p.s.matchLiteral("!="):
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpNotEqual, Left: left, Right: right}, nil
	case p.s.matchLiteral("<="):
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpLessEq, Left: left, Right: right}, nil
	case p.s.matchLiteral(">="):
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpGreaterEq, Left: left, Right: right}, nil
	case p.s.matchByte('='):
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpEqual, Left: left, Right: right}, nil
	case p.s.matchByte('<'):
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpLess, Left: left, Right: right}, nil
	case p.s.matchByte('>'):
		right, err := p.parseAdditiveExpr()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpGreater, Left: left, Right: right}, nil
	case p.s.matchKeyword("NOT"):
		if !p.s.matchKeyword("IN") {
			return nil, newSyntaxError(p.s.pos, "expected IN after NOT")
		}
		list, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpNotIn, Left: left, List: list}, nil
	case p.s.matchKeyword("IN"):
		list, err := p.parseExpressionList()
		if err != nil {
			return nil, err
		}
		return BinaryExpr{Op: OpIn, Left: left, List: list}, nil
	}
	return left, nil
}

func (p *parser) parseExpressionList() ([]Expr, error) {
	if !p.s.matchByte('(') {
		return nil, newSyntaxError(p.s.pos, "expected '(' in expression list")
	}
	var out []Expr
	p.s.skipWS()
	if p.s.peek() == ')' {
		p.s.pos++
		return out, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		p.s.skipWS()
		if !p.s.matchByte(',') {
			break
		}
	}
	if !p.s.matchByte(')') {
		return nil, newSyntaxError(p.s.pos, "expected ')' in expression list")
	}
	return out, nil
}

func (p *parser) parseAdditiveExpr() (Expr, error) {
	left, err := p.parseMultiplicativeExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.s.skipWS()
		switch {
		case p.s.matchByte('+'):
			right, err := p.parseMultiplicativeExpr()
			if err != nil {
				return nil, err
			}
			left = BinaryExpr{Op: OpAdd, Left: left, Right: right}
		case p.s.matchByte('-'):
			right, err := p.parseMultiplicativeExpr()
			if err != nil {
				return nil, err
			}
			left = BinaryExpr{Op: OpSub, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMultiplicativeExpr() (Expr, error) {
	left, err := p.parseUnaryExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.s.skipWS()
		switch {
		case p.s.matchByte('*'):
			right, err := p.parseUnaryExpr()
			if err != nil {
				return nil, err
			}
			left = BinaryExpr{Op: OpMul, Left: left, Right: right}
		case p.s.matchByte('/'):
			right, err := p.parseUnaryExpr()
			if err != nil {
				return nil, err
			}
			left = BinaryExpr{Op: OpDiv, Left: left, Right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnaryExpr() (Expr, error) {
	p.s.skipWS()
	switch {
	case p.s.matchByte('!'):
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: OpNot, Operand: operand}, nil
	case p.s.matchByte('+'):
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: OpPos, Operand: operand}, nil
	case p.s.matchByte('-'):
		operand, err := p.parseUnaryExpr()
		if err != nil {
			return nil, err
		}
		return UnaryExpr{Op: OpNeg, Operand: operand}, nil
	}
	return p.parsePrimaryExpr()
}

// parsePrimaryExpr parses a bracketed expression, a built-in or
// aggregate function call, a cast / general function call, a literal,
// or a variable.
func (p *parser) parsePrimaryExpr() (Expr, error) {
	p.s.skipWS()
	c := p.s.peek()

	switch {
	case c == '(':
		p.s.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.s.skipWS()
		if !p.s.matchByte(')') {
			return nil, newSyntaxError(p.s.pos, "expected ')'")
		}
		return e, nil

	case c == '?' || c == '$':
		v, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		return TermExpr{Term: v}, nil

	case p.s.matchKeyword("NOT"):
		if !p.s.matchKeyword("EXISTS") {
			return nil, newSyntaxError(p.s.pos, "expected EXISTS after NOT")
		}
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return ExistsExpr{Pattern: pattern, Negate: true}, nil

	case p.s.matchKeyword("EXISTS"):
		pattern, err := p.parseGroupGraphPattern()
		if err != nil {
			return nil, err
		}
		return ExistsExpr{Pattern: pattern}, nil

	case p.s.matchKeyword("BOUND"):
		if !p.s.matchByte('(') {
			return nil, newSyntaxError(p.s.pos, "expected '(' after BOUND")
		}
		v, err := p.parseVar()
		if err != nil {
			return nil, err
		}
		if !p.s.matchByte(')') {
			return nil, newSyntaxError(p.s.pos, "expected ')'")
		}
		return BoundExpr{Var: v}, nil
	}

	if agg, ok, err := p.tryParseAggregate(); ok || err != nil {
		return agg, err
	}

	if c == '"' || c == '\'' || c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9') {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return TermExpr{Term: t}, nil
	}

	return p.parseIRIOrFunctionCall()
}

// aggregateKeywords maps an aggregate function's keyword to its AggOp.
var aggregateKeywords = map[string]AggOp{
	"COUNT":        AggCount,
	"SUM":          AggSum,
	"MIN":          AggMin,
	"MAX":          AggMax,
	"AVG":          AggAvg,
	"SAMPLE":       AggSample,
	"GROUP_CONCAT": AggGroupConcat,
}

// tryParseAggregate attempts to parse an aggregate call (COUNT(...),
// SUM(DISTINCT ?x), GROUP_CONCAT(?x ; SEPARATOR=",") and so on),
// restoring the scanner position and reporting ok=false if the next
// keyword is not a recognized aggregate name.
func (p *parser) tryParseAggregate() (Expr, bool, error) {
	save := p.s.pos
	for kw, op := range aggregateKeywords {
		if !p.s.matchKeyword(kw) {
			continue
		}
		p.s.skipWS()
		if p.s.peek() != '(' {
			p.s.pos = save
			return nil, false, nil
		}
		p.s.pos++
		distinct := p.s.matchKeyword("DISTINCT")

		var expr Expr
		p.s.skipWS()
		if op == AggCount && p.s.matchByte('*') {
			expr = nil
		} else {
			e, err := p.parseExpr()
			if err != nil {
				return nil, true, err
			}
			expr = e
		}

		sep := ""
		p.s.skipWS()
		if op == AggGroupConcat && p.s.matchByte(';') {
			if !p.s.matchKeyword("SEPARATOR") {
				return nil, true, newSyntaxError(p.s.pos, "expected SEPARATOR")
			}
			if !p.s.matchByte('=') {
				return nil, true, newSyntaxError(p.s.pos, "expected '=' after SEPARATOR")
			}
			s, err := p.s.readQuotedString()
			if err != nil {
				return nil, true, err
			}
			sep = s
		}
		if !p.s.matchByte(')') {
			return nil, true, newSyntaxError(p.s.pos, "expected ')' closing aggregate call")
		}
		return AggregateCallExpr{Agg: AggregateExpr{Op: op, Distinct: distinct, Expr: expr, Separator: sep}}, true, nil
	}
	return nil, false, nil
}

// parseIRIOrFunctionCall parses a CAST (xsd:integer(expr)), a recognized
// built-in name, or a custom extension function call (iri(args...)).
func (p *parser) parseIRIOrFunctionCall() (Expr, error) {
	p.s.skipWS()
	var name string
	if p.s.peek() == '<' || p.s.peek() == ':' || isPNCharStart(p.s.peek()) {
		save := p.s.pos
		word := p.s.readIdent()
		if p.s.peek() == ':' || word == "" {
			p.s.pos = save
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			name = trimIRIBrackets(t.String())
		} else {
			name = strings.ToUpper(word)
		}
	} else {
		return nil, newSyntaxError(p.s.pos, "expected a function name")
	}

	if !p.s.matchByte('(') {
		return nil, newSyntaxError(p.s.pos, "expected '(' after function name %s", name)
	}
	var args []Expr
	p.s.skipWS()
	if p.s.peek() != ')' {
		for {
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			p.s.skipWS()
			if !p.s.matchByte(',') {
				break
			}
		}
	}
	if !p.s.matchByte(')') {
		return nil, newSyntaxError(p.s.pos, "expected ')' closing call to %s", name)
	}
	return FuncCall{Name: name, Args: args}, nil
}

// trimIRIBrackets strips the "<...>" wrapper String() puts around an
// rdf.NamedNode, so a CAST target can be compared/stored as a bare IRI.
func trimIRIBrackets(s string) string {
	return strings.TrimSuffix(strings.TrimPrefix(s, "<"), ">")
}
