package results

import (
	"bytes"

	"github.com/trigonrdf/trigon/serialize"
	"github.com/trigonrdf/trigon/sparql"
)

// WriteConstruct serializes a CONSTRUCT/DESCRIBE sparql.Result's quads in
// the given serialize.Format. Unlike the bindings formats above, this
// reuses serialize.Writer rather than duplicating term-escaping logic.
func WriteConstruct(r sparql.Result, format serialize.Format) ([]byte, error) {
	if r.Form != sparql.FormConstruct && r.Form != sparql.FormDescribe {
		return nil, errUnsupportedForm
	}
	var buf bytes.Buffer
	w := serialize.NewWriter(&buf, format)
	for _, q := range r.Quads {
		if err := w.WriteQuad(q); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
