// Package results serializes a sparql.Result in the SPARQL 1.1 Query
// Results formats: JSON, XML, CSV, and TSV.
//
// Grounded on the teacher's pkg/server/results package, adapted from its
// executor.SelectResult/AskResult types (map[string]term-by-name bindings,
// pointer term types) to sparql.Result's SolutionIterator and rdf's
// value-type terms.
package results

import (
	"encoding/json"
	"sort"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/sparql"
)

// https://www.w3.org/TR/sparql11-results-json/

// document is the top-level SPARQL JSON Results object.
type document struct {
	Head    head      `json:"head"`
	Results *bindings `json:"results,omitempty"`
	Boolean *bool     `json:"boolean,omitempty"`
}

type head struct {
	Vars []string `json:"vars"`
}

type bindings struct {
	Bindings []map[string]bindingValue `json:"bindings"`
}

type bindingValue struct {
	Type     string  `json:"type"`
	Value    string  `json:"value"`
	Datatype *string `json:"datatype,omitempty"`
	XMLLang  *string `json:"xml:lang,omitempty"`
}

// WriteJSON serializes a SELECT or ASK sparql.Result as SPARQL JSON.
func WriteJSON(r sparql.Result) ([]byte, error) {
	switch r.Form {
	case sparql.FormAsk:
		b := r.Boolean
		return json.MarshalIndent(document{Head: head{Vars: []string{}}, Boolean: &b}, "", "  ")
	case sparql.FormSelect:
		rows, vars, err := collectRows(r)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]bindingValue, len(rows))
		for i, row := range rows {
			m := make(map[string]bindingValue, len(row))
			for name, term := range row {
				m[name] = termToBindingValue(term)
			}
			out[i] = m
		}
		doc := document{Head: head{Vars: vars}, Results: &bindings{Bindings: out}}
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, errUnsupportedForm
	}
}

func termToBindingValue(t rdf.Term) bindingValue {
	switch v := t.(type) {
	case rdf.NamedNode:
		return bindingValue{Type: "uri", Value: v.IRI}
	case rdf.BlankNode:
		return bindingValue{Type: "bnode", Value: v.ID}
	case rdf.Literal:
		bv := bindingValue{Type: "literal", Value: v.Value}
		switch {
		case v.Language != "":
			lang := v.Language
			bv.XMLLang = &lang
		case v.Datatype.IRI != "" && v.Datatype.IRI != rdf.XSDString.IRI:
			dt := v.Datatype.IRI
			bv.Datatype = &dt
		}
		return bv
	default:
		return bindingValue{Type: "literal", Value: t.String()}
	}
}

// collectRows drains it's bindings into name-keyed rows, the shape every
// format in this package renders from. vars is r.Vars in query order, or
// every variable seen (alphabetically) for a "SELECT *" whose Vars are
// unavailable to the caller.
func collectRows(r sparql.Result) ([]map[string]rdf.Term, []string, error) {
	var rows []map[string]rdf.Term
	seen := map[string]bool{}
	var varNames []string
	haveVars := len(r.Vars) > 0
	if haveVars {
		for _, v := range r.Vars {
			varNames = append(varNames, string(v))
		}
	}

	it := r.Bindings
	defer it.Close()
	for it.Next() {
		sol := it.Solution()
		row := make(map[string]rdf.Term, len(sol))
		for v, term := range sol {
			name := string(v)
			row[name] = term
			if !haveVars && !seen[name] {
				seen[name] = true
				varNames = append(varNames, name)
			}
		}
		rows = append(rows, row)
	}
	if err := it.Err(); err != nil {
		return nil, nil, err
	}
	if !haveVars {
		sort.Strings(varNames)
	}
	return rows, varNames, nil
}

type formatError string

func (e formatError) Error() string { return string(e) }

const errUnsupportedForm = formatError("results: query form does not produce a binding/boolean result")
