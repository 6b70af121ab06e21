package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/trigonrdf/trigon/rdf"
)

func lookupString(dict Dictionary, slot []byte) (string, error) {
	var h Hash128
	copy(h[:], slot)
	v, ok, err := dict.Lookup(h)
	if err != nil {
		return "", fmt.Errorf("codec: dictionary lookup: %w", err)
	}
	if !ok {
		return "", newCorrupt("missing dictionary entry for hash %x", h)
	}
	return string(v), nil
}

// inlineString reads a NUL-padded inline payload slot back to a string.
// Payload slots are zero-padded, and UTF-8 text never legitimately
// contains a NUL byte, so trimming at the first zero is safe.
func inlineString(slot []byte) string {
	n := 0
	for n < len(slot) && slot[n] != 0 {
		n++
	}
	return string(slot[:n])
}

// Decode reconstructs the term an Encoded value represents, resolving any
// hashed payload slots against dict. A malformed tag byte, a dictionary
// miss, or a quoted triple met while AllowQuoted is off is reported as
// *ErrCorrupt; an error from dict.Lookup itself is returned wrapped.
func Decode(e Encoded, dict Dictionary) (rdf.Term, error) {
	switch Tag(e[0]) {
	case TagNamedNode:
		s, err := lookupString(dict, e.Payload1())
		if err != nil {
			return nil, err
		}
		return rdf.NewNamedNode(s), nil

	case TagBlankNodeNumeric:
		n := binary.BigEndian.Uint64(e.Payload1()[8:16])
		return rdf.NewBlankNode(strconv.FormatUint(n, 10)), nil

	case TagBlankNodeInline:
		return rdf.NewBlankNode(inlineString(e.Payload1())), nil

	case TagBlankNodeHash:
		s, err := lookupString(dict, e.Payload1())
		if err != nil {
			return nil, err
		}
		return rdf.NewBlankNode(s), nil

	case TagStringInline:
		return rdf.NewLiteral(inlineString(e.Payload1())), nil

	case TagStringHash:
		s, err := lookupString(dict, e.Payload1())
		if err != nil {
			return nil, err
		}
		return rdf.NewLiteral(s), nil

	case TagTypedInlineValue, TagTypedHashValue:
		dt, err := lookupString(dict, e.Payload1())
		if err != nil {
			return nil, err
		}
		var value string
		if Tag(e[0]) == TagTypedInlineValue {
			value = inlineString(e.Payload2())
		} else {
			value, err = lookupString(dict, e.Payload2())
			if err != nil {
				return nil, err
			}
		}
		return rdf.NewTypedLiteral(value, rdf.NewNamedNode(dt)), nil

	case TagLangInlineLangInlineValue, TagLangInlineLangHashValue,
		TagLangHashLangInlineValue, TagLangHashLangHashValue:
		return decodeLangString(e, dict)

	case TagBoolean:
		v := e.Payload1()[0] != 0
		return rdf.NewTypedLiteral(strconv.FormatBool(v), rdf.XSDBoolean), nil

	case TagFloat:
		bits := binary.BigEndian.Uint32(e.Payload1()[0:4])
		v := math.Float32frombits(bits)
		return rdf.NewTypedLiteral(strconv.FormatFloat(float64(v), 'g', -1, 32), rdf.XSDFloat), nil

	case TagDouble:
		bits := binary.BigEndian.Uint64(e.Payload1()[0:8])
		v := math.Float64frombits(bits)
		return rdf.NewTypedLiteral(strconv.FormatFloat(v, 'g', -1, 64), rdf.XSDDouble), nil

	case TagInteger:
		v := int64(binary.BigEndian.Uint64(e.Payload1()[0:8]))
		return rdf.NewTypedLiteral(strconv.FormatInt(v, 10), rdf.XSDInteger), nil

	case TagDecimal:
		bits := binary.BigEndian.Uint64(e.Payload1()[0:8])
		v := math.Float64frombits(bits)
		return rdf.NewTypedLiteral(strconv.FormatFloat(v, 'f', -1, 64), rdf.XSDDecimal), nil

	case TagDateTime:
		nanos := int64(binary.BigEndian.Uint64(e.Payload1()[0:8]))
		t := time.Unix(0, nanos).UTC()
		return rdf.NewTypedLiteral(t.Format(time.RFC3339), rdf.XSDDateTime), nil

	case TagDate:
		days := int64(binary.BigEndian.Uint64(e.Payload1()[0:8]))
		t := time.Unix(days*86400, 0).UTC()
		return rdf.NewTypedLiteral(t.Format("2006-01-02"), rdf.XSDDate), nil

	case TagTime:
		nanosOfDay := int64(binary.BigEndian.Uint64(e.Payload1()[0:8]))
		t := time.Unix(0, nanosOfDay).UTC()
		return rdf.NewTypedLiteral(t.Format("15:04:05"), rdf.XSDTime), nil

	case TagDuration:
		nanos := int64(binary.BigEndian.Uint64(e.Payload1()[0:8]))
		return rdf.NewTypedLiteral(formatXSDDuration(time.Duration(nanos)), rdf.XSDDuration), nil

	case TagQuotedTriple:
		if !AllowQuoted {
			return nil, newCorrupt("quoted triple encountered with codec.AllowQuoted disabled")
		}
		return decodeQuotedTriple(e, dict)

	case TagDefaultGraph:
		return rdf.NewDefaultGraph(), nil

	default:
		return nil, newCorrupt("unknown tag byte %d", e[0])
	}
}

func decodeLangString(e Encoded, dict Dictionary) (rdf.Term, error) {
	tag := Tag(e[0])
	var lang, value string
	var err error

	if tag == TagLangInlineLangInlineValue || tag == TagLangInlineLangHashValue {
		lang = inlineString(e.Payload1())
	} else {
		lang, err = lookupString(dict, e.Payload1())
		if err != nil {
			return nil, err
		}
	}
	if tag == TagLangInlineLangInlineValue || tag == TagLangHashLangInlineValue {
		value = inlineString(e.Payload2())
	} else {
		value, err = lookupString(dict, e.Payload2())
		if err != nil {
			return nil, err
		}
	}
	return rdf.NewLangLiteral(value, lang), nil
}

func decodeQuotedTriple(e Encoded, dict Dictionary) (rdf.Term, error) {
	var h Hash128
	copy(h[:], e.Payload1())
	blob, ok, err := dict.Lookup(h)
	if err != nil {
		return nil, fmt.Errorf("codec: dictionary lookup: %w", err)
	}
	if !ok {
		return nil, newCorrupt("missing dictionary entry for quoted triple hash %x", h)
	}
	if len(blob) != 3*len(Encoded{}) {
		return nil, newCorrupt("quoted triple dictionary entry has wrong length %d", len(blob))
	}

	var sEnc, pEnc, oEnc Encoded
	copy(sEnc[:], blob[0:33])
	copy(pEnc[:], blob[33:66])
	copy(oEnc[:], blob[66:99])

	s, err := Decode(sEnc, dict)
	if err != nil {
		return nil, err
	}
	p, err := Decode(pEnc, dict)
	if err != nil {
		return nil, err
	}
	o, err := Decode(oEnc, dict)
	if err != nil {
		return nil, err
	}
	qt, err := rdf.NewQuotedTriple(s, p, o)
	if err != nil {
		return nil, err
	}
	return qt, nil
}

func formatXSDDuration(d time.Duration) string {
	neg := d < 0
	if neg {
		d = -d
	}
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := float64(d) / float64(time.Second)

	s := "P"
	if days > 0 {
		s += strconv.FormatInt(int64(days), 10) + "D"
	}
	if hours > 0 || minutes > 0 || seconds > 0 {
		s += "T"
		if hours > 0 {
			s += strconv.FormatInt(int64(hours), 10) + "H"
		}
		if minutes > 0 {
			s += strconv.FormatInt(int64(minutes), 10) + "M"
		}
		if seconds > 0 {
			s += strconv.FormatFloat(seconds, 'f', -1, 64) + "S"
		}
	}
	if s == "P" {
		s = "PT0S"
	}
	if neg {
		s = "-" + s
	}
	return s
}
