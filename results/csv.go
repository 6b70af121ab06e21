package results

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/sparql"
)

// https://www.w3.org/TR/sparql11-results-csv-tsv/

// WriteCSV serializes a SELECT or ASK sparql.Result as SPARQL CSV.
func WriteCSV(r sparql.Result) ([]byte, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)

	switch r.Form {
	case sparql.FormAsk:
		if err := w.Write([]string{"result"}); err != nil {
			return nil, err
		}
		if err := w.Write([]string{boolString(r.Boolean)}); err != nil {
			return nil, err
		}

	case sparql.FormSelect:
		rows, vars, err := collectRows(r)
		if err != nil {
			return nil, err
		}
		if err := w.Write(vars); err != nil {
			return nil, err
		}
		bnodes := canonicalBlankNodes(rows, func(n int) string {
			if n < 26 {
				return string(rune('a' + n))
			}
			return fmt.Sprintf("b%d", n-26)
		})
		for _, row := range rows {
			out := make([]string, len(vars))
			for i, v := range vars {
				if term, ok := row[v]; ok {
					out[i] = termToCSVValue(term, bnodes)
				}
			}
			if err := w.Write(out); err != nil {
				return nil, err
			}
		}

	default:
		return nil, errUnsupportedForm
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func boolString(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

// canonicalBlankNodes assigns every distinct blank node ID appearing in
// rows a display label via label(n), numbering rows in order; among the
// blank nodes first seen in the same row, the numbering order is not
// defined.
func canonicalBlankNodes(rows []map[string]rdf.Term, label func(int) string) map[string]string {
	out := map[string]string{}
	n := 0
	for _, row := range rows {
		for _, term := range row {
			bn, ok := term.(rdf.BlankNode)
			if !ok {
				continue
			}
			if _, seen := out[bn.ID]; seen {
				continue
			}
			out[bn.ID] = label(n)
			n++
		}
	}
	return out
}

// termToCSVValue renders t per the CSV results format: bare IRIs, bare
// literal lexical forms (language/datatype dropped except for doubles,
// which the spec requires in canonical E-notation), and canonicalized
// blank node labels.
func termToCSVValue(t rdf.Term, bnodes map[string]string) string {
	switch v := t.(type) {
	case rdf.NamedNode:
		return v.IRI
	case rdf.BlankNode:
		if label, ok := bnodes[v.ID]; ok {
			return "_:" + label
		}
		return "_:" + v.ID
	case rdf.Literal:
		if v.Datatype.IRI == rdf.XSDDouble.IRI {
			return formatDoubleUpperE(v.Value)
		}
		return v.Value
	default:
		return t.String()
	}
}

// formatDoubleUpperE renders a double's lexical form with uppercase
// E-notation and an explicit decimal point in the mantissa, per the CSV
// results format's worked examples.
func formatDoubleUpperE(value string) string {
	value = strings.ReplaceAll(value, "e+", "E")
	value = strings.ReplaceAll(value, "e-", "E-")
	value = strings.ReplaceAll(value, "e", "E")
	if !strings.Contains(value, "E") {
		return value
	}
	parts := strings.SplitN(value, "E", 2)
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
	return mantissa + "E" + exponent
}
