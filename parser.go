// Package htmlkit is the Orchestrator (C11): it binds a CharReader,
// Tokenizer, and tree builder into one parse, and exposes the Serializer
// and node-tree packages as a single cohesive API.
package htmlkit

import (
	"io"
	"strings"
	"sync"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/htmlparse"
	"github.com/dpotapov/htmlkit/reader"
	"github.com/dpotapov/htmlkit/token"
	"github.com/dpotapov/htmlkit/xmlparse"
)

// Parser binds a parse: installs the reader/tokenizer/tree builder, drives
// it to EOF, and tracks the resulting errors. A Parser instance carries
// mutable state (Errors, the TagSet) and is safe to call from multiple
// goroutines, but not concurrently: ParseHTML/ParseXML calls on the same
// instance serialize on an internal mutex. Callers wanting true concurrency
// should call NewInstance and use the returned clone instead.
type Parser struct {
	mu     sync.Mutex
	cfg    *config
	Errors ParseErrorList
}

// NewParser returns a Parser configured by opts.
func NewParser(opts ...Option) *Parser {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Parser{cfg: cfg}
}

// NewInstance returns a deep clone of p: a fresh Errors list and a copied
// TagSet (Clone copies every Tag up front; misses fall through to p's set), so the
// two Parsers can run concurrently without contending on p's mutex or
// mutating each other's tag table.
func (p *Parser) NewInstance() *Parser {
	p.mu.Lock()
	defer p.mu.Unlock()
	clone := *p.cfg
	clone.tags = p.cfg.tags.Clone()
	return &Parser{cfg: &clone}
}

func (p *Parser) newTokenizer(r io.Reader, xml bool) *token.Tokenizer {
	cr := reader.New(r)
	tok := token.NewTokenizer(cr, xml)
	tok.SetPreserveCase(p.cfg.preserveTagCase, p.cfg.preserveAttributeCase)
	tok.SetTrackPosition(p.cfg.trackPosition, p.cfg.trackPosition)
	tok.SetTrackErrors(p.cfg.trackErrorsMax)
	tok.SetLogger(p.cfg.logger)
	return tok
}

// ParseHTML parses r as an HTML document.
func (p *Parser) ParseHTML(r io.Reader) (*dom.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok := p.newTokenizer(r, false)
	res := htmlparse.Build(tok, htmlparse.Config{
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
	for _, e := range res.Errors {
		p.addError(ParseError{Offset: e.Offset, Line: e.Line, Col: e.Col, Message: e.Message})
	}

	res.Document.Parser = p
	if err := tok.Err(); err != nil && err != io.EOF {
		return res.Document, &IoError{Err: err}
	}
	return res.Document, nil
}

// ParseHTMLString is ParseHTML for an in-memory string.
func (p *Parser) ParseHTMLString(s string) (*dom.Node, error) {
	return p.ParseHTML(strings.NewReader(s))
}

// ParseXML parses r as an XML document.
func (p *Parser) ParseXML(r io.Reader) (*dom.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok := p.newTokenizer(r, true)
	res := xmlparse.Build(tok, xmlparse.Config{
		Tags:          p.cfg.tags,
		TrackPosition: p.cfg.trackPosition,
		Logger:        p.cfg.logger,
	})

	p.Errors = nil
	for _, e := range tok.Errors() {
		p.addError(ParseError{Offset: e.Offset, Line: e.Line, Col: e.Column, Message: e.Message})
	}
	for _, e := range res.Errors {
		p.addError(ParseError{Offset: e.Offset, Message: e.Message})
	}

	res.Document.Parser = p
	if err := tok.Err(); err != nil && err != io.EOF {
		return res.Document, &IoError{Err: err}
	}
	return res.Document, nil
}

// ParseXMLString is ParseXML for an in-memory string.
func (p *Parser) ParseXMLString(s string) (*dom.Node, error) {
	return p.ParseXML(strings.NewReader(s))
}

// addError appends e unless error tracking is disabled (trackErrorsMax == 0)
// or the cap has already been reached. WithTrackErrors guarantees
// trackErrorsMax is never negative.
func (p *Parser) addError(e ParseError) {
	if p.cfg.trackErrorsMax == 0 || len(p.Errors) >= p.cfg.trackErrorsMax {
		return
	}
	p.Errors = append(p.Errors, e)
}
