package codec

import (
	"testing"

	"github.com/trigonrdf/trigon/rdf"
)

func roundTrip(t *testing.T, term rdf.Term) rdf.Term {
	t.Helper()
	enc, entries := Encode(term)
	dict := make(MapDictionary)
	if err := dict.Put(entries...); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := Decode(enc, dict)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return got
}

func TestRoundTripBasicTerms(t *testing.T) {
	cases := []rdf.Term{
		rdf.NewNamedNode("http://example.org/s"),
		rdf.NewBlankNode("b1"),
		rdf.NewBlankNode("42"),
		rdf.NewLiteral("short"),
		rdf.NewLiteral("this literal is long enough to exceed the sixteen byte inline threshold"),
		rdf.NewLangLiteral("hello", "en"),
		rdf.NewLangLiteral("a string with a language tag long enough to force a hash", "en-US-x-verylongsubtag-012345"),
		rdf.NewTypedLiteral("42", rdf.XSDInteger),
		rdf.NewTypedLiteral("true", rdf.XSDBoolean),
		rdf.NewTypedLiteral("3.14", rdf.XSDDouble),
		rdf.NewTypedLiteral("1.5", rdf.XSDFloat),
		rdf.NewTypedLiteral("2024-01-15T10:30:00Z", rdf.XSDDateTime),
		rdf.NewTypedLiteral("2024-01-15", rdf.XSDDate),
		rdf.NewTypedLiteral("10:30:00", rdf.XSDTime),
		rdf.NewTypedLiteral("P3DT4H", rdf.XSDDuration),
		rdf.NewTypedLiteral("not-a-custom-type-value", rdf.NewNamedNode("http://example.org/customType")),
		rdf.NewDefaultGraph(),
	}
	for _, c := range cases {
		c := c
		t.Run(c.String(), func(t *testing.T) {
			got := roundTrip(t, c)
			if !got.Equal(c) {
				t.Errorf("round trip mismatch: got %s, want %s", got, c)
			}
		})
	}
}

func TestInlineThresholdBoundary(t *testing.T) {
	exactly16 := "0123456789abcdef"
	if len(exactly16) != MaxInline {
		t.Fatalf("test fixture length mismatch")
	}
	lit := rdf.NewLiteral(exactly16)
	enc, entries := Encode(lit)
	if Tag(enc[0]) != TagStringInline {
		t.Fatalf("expected inline tag at exactly %d bytes, got %v", MaxInline, Tag(enc[0]))
	}
	if len(entries) != 0 {
		t.Fatalf("inline encoding should not produce dictionary entries")
	}

	over16 := exactly16 + "X"
	lit2 := rdf.NewLiteral(over16)
	enc2, entries2 := Encode(lit2)
	if Tag(enc2[0]) != TagStringHash {
		t.Fatalf("expected hash tag at %d bytes", len(over16))
	}
	if len(entries2) != 1 {
		t.Fatalf("expected exactly one dictionary entry")
	}
}

func TestQuotedTripleRoundTrip(t *testing.T) {
	AllowQuoted = true
	defer func() { AllowQuoted = false }()

	inner, err := rdf.NewQuotedTriple(
		rdf.NewNamedNode("http://example.org/s"),
		rdf.NewNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
	)
	if err != nil {
		t.Fatalf("NewQuotedTriple: %v", err)
	}
	outer, err := rdf.NewQuotedTriple(inner, rdf.NewNamedNode("http://example.org/certainty"), rdf.NewTypedLiteral("0.9", rdf.XSDDouble))
	if err != nil {
		t.Fatalf("NewQuotedTriple: %v", err)
	}

	got := roundTrip(t, outer)
	if !got.Equal(outer) {
		t.Errorf("round trip mismatch: got %s, want %s", got, outer)
	}
}

func TestQuotedTripleRejectedWhenDisabled(t *testing.T) {
	AllowQuoted = true
	inner, _ := rdf.NewQuotedTriple(
		rdf.NewNamedNode("http://example.org/s"),
		rdf.NewNamedNode("http://example.org/p"),
		rdf.NewLiteral("o"),
	)
	enc, entries := Encode(inner)
	AllowQuoted = false

	dict := make(MapDictionary)
	_ = dict.Put(entries...)
	if _, err := Decode(enc, dict); err == nil {
		t.Fatalf("expected error decoding quoted triple with AllowQuoted disabled")
	}
}

func TestDecodeMissingDictionaryEntryIsCorrupt(t *testing.T) {
	lit := rdf.NewLiteral("a value long enough to be hashed rather than inlined")
	enc, _ := Encode(lit)
	empty := make(MapDictionary)
	_, err := Decode(enc, empty)
	if err == nil {
		t.Fatalf("expected corruption error for missing dictionary entry")
	}
	var corrupt *ErrCorrupt
	if !asErrCorrupt(err, &corrupt) {
		t.Fatalf("expected *ErrCorrupt, got %T: %v", err, err)
	}
}

func asErrCorrupt(err error, target **ErrCorrupt) bool {
	if c, ok := err.(*ErrCorrupt); ok {
		*target = c
		return true
	}
	return false
}

func TestDictionaryCollisionDetected(t *testing.T) {
	dict := make(MapDictionary)
	h := HashString("collision-probe-value-that-is-long-enough")
	if err := dict.Put(DictEntry{Hash: h, Value: []byte("first")}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	err := dict.Put(DictEntry{Hash: h, Value: []byte("second")})
	if err == nil {
		t.Fatalf("expected collision error")
	}
	if _, ok := err.(*CollisionError); !ok {
		t.Fatalf("expected *CollisionError, got %T", err)
	}
}
