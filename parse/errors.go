package parse

import (
	"errors"
	"fmt"
)

// ErrNeedMoreInput is returned by ReadQuad when the buffered input ends
// mid-token and Close hasn't been called yet. It is a control-flow
// sentinel, not a syntax error: callers should Write more bytes and
// retry the same ReadQuad call.
var ErrNeedMoreInput = errors.New("parse: need more input")

// SyntaxError reports a malformed document, located by byte offset and
// line/column.
type SyntaxError struct {
	Offset int
	Line   int
	Col    int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parse: %d:%d (offset %d): %s", e.Line, e.Col, e.Offset, e.Msg)
}

func (s *scanner) errorf(format string, args ...any) error {
	return &SyntaxError{Offset: s.pos, Line: s.line, Col: s.col, Msg: fmt.Sprintf(format, args...)}
}
