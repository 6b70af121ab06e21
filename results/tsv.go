package results

import (
	"fmt"
	"strings"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/sparql"
)

// https://www.w3.org/TR/sparql11-results-csv-tsv/

// WriteTSV serializes a SELECT or ASK sparql.Result as SPARQL TSV.
func WriteTSV(r sparql.Result) ([]byte, error) {
	var b strings.Builder

	switch r.Form {
	case sparql.FormAsk:
		b.WriteString("?result\n")
		b.WriteString(boolString(r.Boolean))
		b.WriteByte('\n')

	case sparql.FormSelect:
		rows, vars, err := collectRows(r)
		if err != nil {
			return nil, err
		}
		for i, v := range vars {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteByte('?')
			b.WriteString(v)
		}
		b.WriteByte('\n')

		bnodes := canonicalBlankNodes(rows, func(n int) string { return fmt.Sprintf("b%d", n) })
		for _, row := range rows {
			for i, v := range vars {
				if i > 0 {
					b.WriteByte('\t')
				}
				if term, ok := row[v]; ok {
					b.WriteString(termToTSVValue(term, bnodes))
				}
			}
			b.WriteByte('\n')
		}

	default:
		return nil, errUnsupportedForm
	}

	return []byte(b.String()), nil
}

// termToTSVValue renders t per the TSV results format: bracketed IRIs,
// quoted literals (bare for the three core numeric datatypes, per the
// spec's worked examples), and canonicalized blank node labels.
func termToTSVValue(t rdf.Term, bnodes map[string]string) string {
	switch v := t.(type) {
	case rdf.NamedNode:
		return "<" + v.IRI + ">"
	case rdf.BlankNode:
		if label, ok := bnodes[v.ID]; ok {
			return "_:" + label
		}
		return "_:" + v.ID
	case rdf.Literal:
		if v.Language != "" {
			return "\"" + escapeTSVString(v.Value) + "\"@" + v.Language
		}
		switch v.Datatype.IRI {
		case rdf.XSDInteger.IRI, rdf.XSDDecimal.IRI:
			return v.Value
		case rdf.XSDDouble.IRI:
			return formatDoubleLowerE(v.Value)
		case "", rdf.XSDString.IRI:
			return "\"" + escapeTSVString(v.Value) + "\""
		default:
			return "\"" + escapeTSVString(v.Value) + "\"^^<" + v.Datatype.IRI + ">"
		}
	default:
		return t.String()
	}
}

func formatDoubleLowerE(value string) string {
	value = strings.ReplaceAll(value, "E+", "e")
	value = strings.ReplaceAll(value, "E-", "e-")
	value = strings.ReplaceAll(value, "E", "e")
	if !strings.Contains(value, "e") {
		return value
	}
	parts := strings.SplitN(value, "e", 2)
	mantissa, exponent := parts[0], parts[1]
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	neg := strings.HasPrefix(exponent, "-")
	exponent = strings.TrimPrefix(exponent, "-")
	exponent = strings.TrimLeft(exponent, "0")
	if exponent == "" {
		exponent = "0"
	}
	if neg {
		exponent = "-" + exponent
	}
	return mantissa + "e" + exponent
}

func escapeTSVString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return s
}
