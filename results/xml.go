package results

import (
	"encoding/xml"

	"github.com/trigonrdf/trigon/rdf"
	"github.com/trigonrdf/trigon/sparql"
)

// https://www.w3.org/TR/rdf-sparql-XMLres/

type xmlDocument struct {
	XMLName xml.Name       `xml:"sparql"`
	Xmlns   string         `xml:"xmlns,attr"`
	Head    xmlHead        `xml:"head"`
	Results *xmlResultsSet `xml:"results"`
	Boolean *bool          `xml:"boolean"`
}

type xmlHead struct {
	Variables []xmlVariable `xml:"variable"`
}

type xmlVariable struct {
	Name string `xml:"name,attr"`
}

type xmlResultsSet struct {
	Results []xmlResult `xml:"result"`
}

type xmlResult struct {
	Bindings []xmlBinding `xml:"binding"`
}

type xmlBinding struct {
	Name    string      `xml:"name,attr"`
	URI     *string     `xml:"uri"`
	Literal *xmlLiteral `xml:"literal"`
	BNode   *string     `xml:"bnode"`
}

type xmlLiteral struct {
	Value    string `xml:",chardata"`
	Lang     string `xml:"lang,attr,omitempty"`
	Datatype string `xml:"datatype,attr,omitempty"`
}

const sparqlResultsNamespace = "http://www.w3.org/2005/sparql-results#"

// WriteXML serializes a SELECT or ASK sparql.Result as SPARQL XML Results.
func WriteXML(r sparql.Result) ([]byte, error) {
	doc := xmlDocument{Xmlns: sparqlResultsNamespace}

	switch r.Form {
	case sparql.FormAsk:
		b := r.Boolean
		doc.Boolean = &b

	case sparql.FormSelect:
		rows, vars, err := collectRows(r)
		if err != nil {
			return nil, err
		}
		for _, v := range vars {
			doc.Head.Variables = append(doc.Head.Variables, xmlVariable{Name: v})
		}
		set := &xmlResultsSet{}
		for _, row := range rows {
			var res xmlResult
			for _, v := range vars {
				term, ok := row[v]
				if !ok {
					continue
				}
				res.Bindings = append(res.Bindings, termToXMLBinding(v, term))
			}
			set.Results = append(set.Results, res)
		}
		doc.Results = set

	default:
		return nil, errUnsupportedForm
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

func termToXMLBinding(name string, t rdf.Term) xmlBinding {
	b := xmlBinding{Name: name}
	switch v := t.(type) {
	case rdf.NamedNode:
		uri := v.IRI
		b.URI = &uri
	case rdf.BlankNode:
		id := v.ID
		b.BNode = &id
	case rdf.Literal:
		lit := &xmlLiteral{Value: v.Value}
		switch {
		case v.Language != "":
			lit.Lang = v.Language
		case v.Datatype.IRI != "" && v.Datatype.IRI != rdf.XSDString.IRI:
			lit.Datatype = v.Datatype.IRI
		}
		b.Literal = lit
	default:
		b.Literal = &xmlLiteral{Value: t.String()}
	}
	return b
}
