// Package codec implements the term codec described by the store design:
// every RDF term maps to a fixed-width, self-describing byte encoding of
// exactly 33 bytes (one tag byte plus two 16-byte payload slots), with
// lexical forms over 16 UTF-8 bytes pushed into a content-hash dictionary
// instead of being inlined.
//
// Grounded on internal/encoding/encoder.go's 17-byte EncodedTerm (tag byte
// + one 128-bit xxh3 hash) from the teacher; widened here to two payload
// slots so typed and language-tagged literals get independent
// datatype/language and value slots instead of hashing their
// concatenation.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/trigonrdf/trigon/rdf"
)

// MaxInline is the inline threshold: a lexical form of at most this many
// UTF-8 bytes is stored directly in a payload slot; longer forms are
// hashed and the lexical form is pushed to the dictionary.
const MaxInline = 16

// Tag enumerates the closed set of on-disk term encodings.
type Tag byte

const (
	TagNamedNode Tag = iota + 1
	TagBlankNodeNumeric
	TagBlankNodeInline
	TagBlankNodeHash
	TagStringInline
	TagStringHash
	TagTypedInlineValue
	TagTypedHashValue
	TagLangInlineLangInlineValue
	TagLangInlineLangHashValue
	TagLangHashLangInlineValue
	TagLangHashLangHashValue
	TagBoolean
	TagFloat
	TagDouble
	TagInteger
	TagDecimal
	TagDateTime
	TagDate
	TagTime
	TagDuration
	TagQuotedTriple
	TagDefaultGraph
)

// Encoded is the fixed-width on-disk form of a term: a tag byte followed
// by two 16-byte payload slots. Index keys concatenate Encoded values
// directly -- fixed width means keys parse without length prefixes.
type Encoded [1 + 16 + 16]byte

func (e Encoded) Tag() Tag { return Tag(e[0]) }

// Payload1 and Payload2 return slices into e's backing array. Callers
// that need to write into them must hold an addressable Encoded (a local
// variable or a pointer), never a temporary produced by a value copy.
func (e *Encoded) Payload1() []byte { return e[1:17] }
func (e *Encoded) Payload2() []byte { return e[17:33] }

// Hash128 is the dictionary key type: a 128-bit content hash.
type Hash128 [16]byte

// DictEntry is a pending dictionary write produced while encoding a term.
// Inserts are idempotent: the same (Hash, Value) pair may be written any
// number of times.
type DictEntry struct {
	Hash  Hash128
	Value []byte
}

func hash128(s []byte) Hash128 {
	h := xxh3.Hash128(s)
	var out Hash128
	binary.BigEndian.PutUint64(out[0:8], h.Hi)
	binary.BigEndian.PutUint64(out[8:16], h.Lo)
	return out
}

// HashString computes the dictionary hash of a lexical form.
func HashString(s string) Hash128 { return hash128([]byte(s)) }

func putInlineOrHash(slot []byte, s string) (inline bool, entry *DictEntry) {
	if len(s) <= MaxInline {
		copy(slot, s)
		return true, nil
	}
	h := HashString(s)
	copy(slot, h[:])
	return false, &DictEntry{Hash: h, Value: []byte(s)}
}

// Encode maps a term to its fixed-width encoding, plus zero or more
// dictionary entries the caller must persist (idempotently) for the
// encoding to later decode. Encode is total: it never fails, falling back
// to a generic hashed representation for any lexical form it cannot parse
// as its declared numeric shortcut.
func Encode(term rdf.Term) (Encoded, []DictEntry) {
	var e Encoded
	switch t := term.(type) {
	case rdf.NamedNode:
		e[0] = byte(TagNamedNode)
		h := HashString(t.IRI)
		copy(e.Payload1(), h[:])
		return e, []DictEntry{{Hash: h, Value: []byte(t.IRI)}}

	case rdf.BlankNode:
		if n, err := strconv.ParseUint(t.ID, 10, 64); err == nil {
			e[0] = byte(TagBlankNodeNumeric)
			binary.BigEndian.PutUint64(e.Payload1()[8:16], n)
			return e, nil
		}
		if inline, entry := putInlineOrHash(e.Payload1(), t.ID); inline {
			e[0] = byte(TagBlankNodeInline)
			return e, nil
		} else {
			e[0] = byte(TagBlankNodeHash)
			return e, []DictEntry{*entry}
		}

	case rdf.Literal:
		return encodeLiteral(t)

	case rdf.DefaultGraph:
		e[0] = byte(TagDefaultGraph)
		return e, nil

	case rdf.QuotedTriple:
		return encodeQuotedTriple(t)

	default:
		// Closed tag set: every rdf.Term implementation is handled above.
		panic(fmt.Sprintf("codec: unhandled term type %T", term))
	}
}

func encodeLiteral(lit rdf.Literal) (Encoded, []DictEntry) {
	var e Encoded
	if lit.Language != "" {
		return encodeLangString(lit)
	}
	if lit.Datatype.IRI != "" && lit.Datatype.IRI != rdf.XSDString.IRI {
		if enc, entries, ok := encodeNumericShortcut(lit); ok {
			return enc, entries
		}
		return encodeTyped(lit)
	}
	// Plain xsd:string.
	if inline, entry := putInlineOrHash(e.Payload1(), lit.Value); inline {
		e[0] = byte(TagStringInline)
		return e, nil
	} else {
		e[0] = byte(TagStringHash)
		return e, []DictEntry{*entry}
	}
}

func encodeTyped(lit rdf.Literal) (Encoded, []DictEntry) {
	var e Encoded
	dtHash := HashString(lit.Datatype.IRI)
	copy(e.Payload1(), dtHash[:])
	entries := []DictEntry{{Hash: dtHash, Value: []byte(lit.Datatype.IRI)}}
	if len(lit.Value) <= MaxInline {
		e[0] = byte(TagTypedInlineValue)
		copy(e.Payload2(), lit.Value)
		return e, entries
	}
	e[0] = byte(TagTypedHashValue)
	vHash := HashString(lit.Value)
	copy(e.Payload2(), vHash[:])
	entries = append(entries, DictEntry{Hash: vHash, Value: []byte(lit.Value)})
	return e, entries
}

func encodeLangString(lit rdf.Literal) (Encoded, []DictEntry) {
	var e Encoded
	var entries []DictEntry
	langInline := len(lit.Language) <= MaxInline
	valInline := len(lit.Value) <= MaxInline

	if langInline {
		copy(e.Payload1(), lit.Language)
	} else {
		h := HashString(lit.Language)
		copy(e.Payload1(), h[:])
		entries = append(entries, DictEntry{Hash: h, Value: []byte(lit.Language)})
	}
	if valInline {
		copy(e.Payload2(), lit.Value)
	} else {
		h := HashString(lit.Value)
		copy(e.Payload2(), h[:])
		entries = append(entries, DictEntry{Hash: h, Value: []byte(lit.Value)})
	}

	switch {
	case langInline && valInline:
		e[0] = byte(TagLangInlineLangInlineValue)
	case langInline && !valInline:
		e[0] = byte(TagLangInlineLangHashValue)
	case !langInline && valInline:
		e[0] = byte(TagLangHashLangInlineValue)
	default:
		e[0] = byte(TagLangHashLangHashValue)
	}
	return e, entries
}

// encodeNumericShortcut attempts the native fixed-width encoding for the
// typed shortcuts; ok is false when the datatype isn't a shortcut or its
// lexical form doesn't parse, in which case the caller falls back to
// encodeTyped to keep Encode total.
func encodeNumericShortcut(lit rdf.Literal) (Encoded, []DictEntry, bool) {
	var e Encoded
	switch lit.Datatype.IRI {
	case rdf.XSDBoolean.IRI:
		v, err := strconv.ParseBool(lit.Value)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagBoolean)
		if v {
			e.Payload1()[0] = 1
		}
		return e, nil, true

	case rdf.XSDFloat.IRI:
		v, err := strconv.ParseFloat(lit.Value, 32)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagFloat)
		binary.BigEndian.PutUint32(e.Payload1()[0:4], math.Float32bits(float32(v)))
		return e, nil, true

	case rdf.XSDDouble.IRI:
		v, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagDouble)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], math.Float64bits(v))
		return e, nil, true

	case rdf.XSDInteger.IRI:
		v, err := strconv.ParseInt(strings.TrimSpace(lit.Value), 10, 64)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagInteger)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], uint64(v))
		return e, nil, true

	case rdf.XSDDecimal.IRI:
		v, err := strconv.ParseFloat(lit.Value, 64)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagDecimal)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], math.Float64bits(v))
		return e, nil, true

	case rdf.XSDDateTime.IRI:
		t, err := parseDateTime(lit.Value)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagDateTime)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], uint64(t.UnixNano()))
		return e, nil, true

	case rdf.XSDDate.IRI:
		t, err := time.Parse("2006-01-02", strings.TrimSpace(lit.Value))
		if err != nil {
			return e, nil, false
		}
		days := t.Unix() / 86400
		e[0] = byte(TagDate)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], uint64(days))
		return e, nil, true

	case rdf.XSDTime.IRI:
		t, err := time.Parse("15:04:05", strings.TrimSpace(lit.Value))
		if err != nil {
			return e, nil, false
		}
		nanosOfDay := t.Hour()*3600e9 + t.Minute()*60e9 + t.Second()*1e9 + t.Nanosecond()
		e[0] = byte(TagTime)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], uint64(nanosOfDay))
		return e, nil, true

	case rdf.XSDDuration.IRI:
		d, err := parseXSDDuration(lit.Value)
		if err != nil {
			return e, nil, false
		}
		e[0] = byte(TagDuration)
		binary.BigEndian.PutUint64(e.Payload1()[0:8], uint64(d))
		return e, nil, true

	default:
		return e, nil, false
	}
}

func parseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// parseXSDDuration parses a restricted subset of xsd:duration
// (PnYnMnDTnHnMnS) into a time.Duration approximation (years=365d,
// months=30d -- the spec scopes the XSD datatype value library out of
// core, so this is a fixed-width approximation, not a conformant
// implementation).
func parseXSDDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("codec: invalid duration %q", s)
	}
	s = s[1:]
	var datePart, timePart string
	if idx := strings.IndexByte(s, 'T'); idx >= 0 {
		datePart, timePart = s[:idx], s[idx+1:]
	} else {
		datePart = s
	}
	var total time.Duration
	num := func(rest string, unit byte) (string, time.Duration, error) {
		i := 0
		for i < len(rest) && (rest[i] >= '0' && rest[i] <= '9' || rest[i] == '.') {
			i++
		}
		if i == 0 || i >= len(rest) || rest[i] != unit {
			return rest, 0, nil
		}
		v, err := strconv.ParseFloat(rest[:i], 64)
		if err != nil {
			return rest, 0, err
		}
		return rest[i+1:], time.Duration(v), nil
	}
	rest := datePart
	var v time.Duration
	var err error
	if rest, v, err = num(rest, 'Y'); err != nil {
		return 0, err
	}
	total += v * 365 * 24 * time.Hour
	if rest, v, err = num(rest, 'M'); err != nil {
		return 0, err
	}
	total += v * 30 * 24 * time.Hour
	if _, v, err = num(rest, 'D'); err != nil {
		return 0, err
	}
	total += v * 24 * time.Hour

	rest = timePart
	if rest, v, err = num(rest, 'H'); err != nil {
		return 0, err
	}
	total += v * time.Hour
	if rest, v, err = num(rest, 'M'); err != nil {
		return 0, err
	}
	total += v * time.Minute
	if _, v, err = num(rest, 'S'); err != nil {
		return 0, err
	}
	total += v * time.Second

	if neg {
		total = -total
	}
	return total, nil
}

// AllowQuoted gates the embedded-triples feature described in the spec's
// Open Questions. It is off by default; set it before encoding/decoding
// any document that may contain quoted triples.
var AllowQuoted = false

func encodeQuotedTriple(q rdf.QuotedTriple) (Encoded, []DictEntry) {
	var e Encoded
	e[0] = byte(TagQuotedTriple)

	sEnc, sEntries := Encode(q.Subject)
	pEnc, pEntries := Encode(q.Predicate)
	oEnc, oEntries := Encode(q.Object)

	blob := make([]byte, 0, 3*len(Encoded{}))
	blob = append(blob, sEnc[:]...)
	blob = append(blob, pEnc[:]...)
	blob = append(blob, oEnc[:]...)

	h := hash128(blob)
	copy(e.Payload1(), h[:])

	entries := append([]DictEntry{{Hash: h, Value: blob}}, sEntries...)
	entries = append(entries, pEntries...)
	entries = append(entries, oEntries...)
	return e, entries
}
