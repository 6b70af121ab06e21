package rdf

// Well-known vocabulary terms used by the literal canonicalization rules
// and by the Turtle "a" shortcut. Go has no struct constants, so these
// are package-level variables; nothing in the module reassigns them.
var (
	XSDString   = NewNamedNode("http://www.w3.org/2001/XMLSchema#string")
	XSDBoolean  = NewNamedNode("http://www.w3.org/2001/XMLSchema#boolean")
	XSDInteger  = NewNamedNode("http://www.w3.org/2001/XMLSchema#integer")
	XSDDecimal  = NewNamedNode("http://www.w3.org/2001/XMLSchema#decimal")
	XSDFloat    = NewNamedNode("http://www.w3.org/2001/XMLSchema#float")
	XSDDouble   = NewNamedNode("http://www.w3.org/2001/XMLSchema#double")
	XSDDateTime = NewNamedNode("http://www.w3.org/2001/XMLSchema#dateTime")
	XSDDate     = NewNamedNode("http://www.w3.org/2001/XMLSchema#date")
	XSDTime     = NewNamedNode("http://www.w3.org/2001/XMLSchema#time")
	XSDDuration = NewNamedNode("http://www.w3.org/2001/XMLSchema#duration")

	RDFType       = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")
	RDFLangString = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#langString")
	RDFFirst      = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#first")
	RDFRest       = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#rest")
	RDFNil        = NewNamedNode("http://www.w3.org/1999/02/22-rdf-syntax-ns#nil")
)

// numericShortcutTypes are the typed literal shortcuts the codec encodes
// as native fixed-width forms instead of dictionary lookups.
var numericShortcutTypes = map[string]bool{
	XSDBoolean.IRI:  true,
	XSDFloat.IRI:    true,
	XSDDouble.IRI:   true,
	XSDInteger.IRI:  true,
	XSDDecimal.IRI:  true,
	XSDDateTime.IRI: true,
	XSDDate.IRI:     true,
	XSDTime.IRI:     true,
	XSDDuration.IRI: true,
}

// IsNumericShortcut reports whether a datatype IRI is one of the codec's
// native fixed-width shortcuts.
func IsNumericShortcut(iri string) bool { return numericShortcutTypes[iri] }
