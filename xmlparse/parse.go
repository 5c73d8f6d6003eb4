package xmlparse

import (
	"log/slog"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
)

// Config carries the tree-construction knobs the root package's Parser
// exposes for an XML parse.
type Config struct {
	Tags          *tagset.TagSet
	TrackPosition bool
	// Logger, if non-nil, receives debug-level traces of each token the
	// builder dispatches (spec §6's optional operational logging knob).
	Logger *slog.Logger
}

// Result is the outcome of a complete-document parse.
type Result struct {
	Document *dom.Node
	Errors   []ParseError
}

// Build drives tok to EOF through the namespace-scope-stack algorithm and
// returns the resulting document tree.
func Build(tok *token.Tokenizer, cfg Config) *Result {
	tags := cfg.Tags
	if tags == nil {
		tags = tagset.New()
	}
	errs := &[]ParseError{}
	b := newBuilder(tags, tok, errs)
	b.trackPosition = cfg.TrackPosition
	b.logger = cfg.Logger
	b.run()
	return &Result{Document: b.doc, Errors: *errs}
}
