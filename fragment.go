package htmlkit

import (
	"io"
	"strings"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/htmlparse"
)

// ParseFragment parses input as an HTML fragment in the content model of
// context (e.g. a "table" context parses "<tr><td>1</td></tr>" as a row
// inside an implied tbody, where a body context would ignore the table
// tags), returning the resulting top-level
// nodes. context must be an attached or detached element node; it is
// consulted for its name/namespace only, never mutated.
func (p *Parser) ParseFragment(context *dom.Node, input string) ([]*dom.Node, error) {
	if context == nil || context.Type != dom.ElementNode {
		panic(ValidationError{Message: "ParseFragment: context must be a non-nil element node"})
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	tok := p.newTokenizer(strings.NewReader(input), false)
	nodes, errs := htmlparse.BuildFragment(tok, context, htmlparse.Config{
		Tags:             p.cfg.tags,
		TrackPosition:    p.cfg.trackPosition,
		ScriptingEnabled: p.cfg.scriptingEnabled,
		MaxDepth:         p.cfg.maxDepth,
		Logger:           p.cfg.logger,
	})

	p.Errors = nil
	for _, e := range tok.Errors() {
		p.addError(ParseError{Offset: e.Offset, Line: e.Line, Col: e.Column, Message: e.Message})
	}
	for _, e := range errs {
		p.addError(ParseError{Offset: e.Offset, Line: e.Line, Col: e.Col, Message: e.Message})
	}

	for _, n := range nodes {
		n.Parser = p
	}
	if err := tok.Err(); err != nil && err != io.EOF {
		return nodes, &IoError{Err: err}
	}
	return nodes, nil
}
