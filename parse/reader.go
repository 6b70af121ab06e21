package parse

import (
	"fmt"
	"io"

	"github.com/trigonrdf/trigon/rdf"
)

// Format identifies which RDF serialization a Reader parses.
type Format int

const (
	FormatNTriples Format = iota
	FormatNQuads
	FormatTurtle
	FormatTriG
)

func (f Format) String() string {
	switch f {
	case FormatNTriples:
		return "N-Triples"
	case FormatNQuads:
		return "N-Quads"
	case FormatTurtle:
		return "Turtle"
	case FormatTriG:
		return "TriG"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// grammar is the common surface every per-format parser satisfies.
type grammar interface {
	write([]byte)
	closeInput()
	parseOne() ([]rdf.Quad, error)
	prefixes() map[string]string
}

// Reader incrementally parses one of the four RDF document formats from
// a byte stream that may arrive in arbitrary-sized chunks. Write may be
// called any number of times before Close; ReadQuad may be interleaved
// with Write calls, draining whatever complete quads are available and
// returning ErrNeedMoreInput when the buffered input ends mid-statement.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	g       grammar
	pending []rdf.Quad
	closed  bool
}

// NewReader constructs a Reader for the given format. policy controls
// how blank-node labels are handled; pass BlankNodePreserve unless the
// caller is merging multiple documents into one store.
func NewReader(format Format, policy BlankNodePolicy) *Reader {
	var g grammar
	switch format {
	case FormatNTriples:
		g = newNTriplesParser(policy)
	case FormatNQuads:
		g = newNQuadsParser(policy)
	case FormatTurtle:
		g = newTurtleParser(policy)
	case FormatTriG:
		g = newTriGParser(policy)
	default:
		panic(fmt.Sprintf("parse: unknown format %v", format))
	}
	return &Reader{g: g}
}

// Write appends newly available document bytes. It never blocks and
// never parses eagerly; parsing happens lazily inside ReadQuad.
func (r *Reader) Write(p []byte) (int, error) {
	r.g.write(p)
	return len(p), nil
}

// Close signals that no further bytes will be written. After Close, a
// ReadQuad call that would otherwise suspend with ErrNeedMoreInput
// instead reports a *SyntaxError for the truncated trailing statement,
// or io.EOF if the document ended cleanly.
func (r *Reader) Close() error {
	r.closed = true
	r.g.closeInput()
	return nil
}

// ReadQuad returns the next parsed quad. It returns ErrNeedMoreInput if
// the buffered input ends mid-statement and Close hasn't been called
// yet -- the caller should Write more bytes and call ReadQuad again.
// It returns io.EOF once the document is fully consumed, or a
// *SyntaxError for malformed input.
func (r *Reader) ReadQuad() (rdf.Quad, error) {
	for len(r.pending) == 0 {
		quads, err := r.g.parseOne()
		if err != nil {
			return rdf.Quad{}, err
		}
		r.pending = quads
		if len(r.pending) == 0 {
			// A directive produced no quads; loop to the next statement.
			continue
		}
	}
	q := r.pending[0]
	r.pending = r.pending[1:]
	return q, nil
}

// Prefixes returns the prefix map accumulated so far (Turtle/TriG only;
// always empty for N-Triples/N-Quads).
func (r *Reader) Prefixes() map[string]string {
	return r.g.prefixes()
}

// ReadAll drains every quad from a fully available, already-closed byte
// slice. It's a convenience wrapper for the common "parse a whole file
// already in memory" case; callers doing true incremental/streaming
// parsing should use Write/ReadQuad directly.
func ReadAll(format Format, policy BlankNodePolicy, data []byte) ([]rdf.Quad, error) {
	r := NewReader(format, policy)
	if _, err := r.Write(data); err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}

	var out []rdf.Quad
	for {
		q, err := r.ReadQuad()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, q)
	}
}
