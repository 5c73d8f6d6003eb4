package htmlparse

import (
	"log/slog"

	"github.com/dpotapov/htmlkit/dom"
	"github.com/dpotapov/htmlkit/tagset"
	"github.com/dpotapov/htmlkit/token"
)

// Config carries the tree-construction knobs the root package's Parser
// exposes that aren't tokenizer-level (those are set directly on the
// token.Tokenizer before Build is called).
type Config struct {
	Tags             *tagset.TagSet
	TrackPosition    bool
	ScriptingEnabled bool
	MaxDepth         int
	// Logger, if non-nil, receives debug-level traces of insertion-mode
	// transitions (spec §6's optional operational logging knob).
	Logger *slog.Logger
}

// Result is the outcome of a complete-document parse: the Document root
// and whatever recoverable errors were collected along the way.
type Result struct {
	Document *dom.Node
	Errors   []ParseError
}

func newConfiguredBuilder(tok *token.Tokenizer, cfg Config) (*builder, *[]ParseError) {
	tags := cfg.Tags
	if tags == nil {
		tags = tagset.New()
	}
	errs := &[]ParseError{}
	b := newBuilder(tags, tok, errs)
	b.trackPosition = cfg.TrackPosition
	b.scriptingFlag = cfg.ScriptingEnabled
	if cfg.MaxDepth > 0 {
		b.maxDepth = cfg.MaxDepth
	}
	b.logger = cfg.Logger
	return b, errs
}

// Build drives tok to EOF through the insertion-mode state machine and
// returns the resulting document tree.
func Build(tok *token.Tokenizer, cfg Config) *Result {
	b, errs := newConfiguredBuilder(tok, cfg)
	b.run()
	return &Result{Document: b.doc, Errors: *errs}
}

// run is the tree-construction main loop: each token is dispatched to the
// current insertion mode, and re-dispatched to whatever mode it switches
// to until one consumes it (returns true).
func (b *builder) run() {
	for {
		top := b.top()
		b.tok.AllowCData(top != nil && top.Namespace != tagset.HTML)

		t := b.tok.Next()
		for {
			var consumed bool
			from := b.im
			if b.isInForeignContent(t) {
				consumed = foreignContentIM(b, t)
			} else {
				consumed = b.im(b, t)
			}
			if !modeIs(b.im, from) {
				b.logModeSwitch(from, t)
			}
			if consumed {
				break
			}
		}
		if t.Type == token.ErrorTok {
			return
		}
	}
}

// contextInitialContentModel maps a fragment context element's name to
// the tokenizer content model it forces (RCDATA/RAWTEXT/script/
// plaintext), per the HTML5 fragment-parsing algorithm's special cases.
func contextInitialContentModel(tok *token.Tokenizer, contextName string) {
	switch contextName {
	case "title", "textarea":
		tok.SetContentModel(token.RCDataState, contextName)
	case "style", "xmp", "iframe", "noembed", "noframes":
		tok.SetContentModel(token.RawTextState, contextName)
	case "script":
		tok.SetContentModel(token.ScriptDataState, "script")
	case "plaintext":
		tok.SetPlaintext()
	}
}

// BuildFragment parses input (already wired into tok) as an HTML fragment
// in the given context element's namespace/name, returning the resulting
// top-level nodes (the synthetic html root used to drive the algorithm is
// discarded, per the fragment-parsing algorithm).
func BuildFragment(tok *token.Tokenizer, context *dom.Node, cfg Config) ([]*dom.Node, []ParseError) {
	b, errs := newConfiguredBuilder(tok, cfg)
	b.fragment = true
	b.fragmentContext = context

	root := dom.NewElement(b.tags.ValueOf("html", "html", tagset.HTML, false), tagset.HTML)
	b.doc.AppendChild(root)
	b.html = root
	b.push(root)

	if context.Name == "form" {
		b.form = context
	}
	if context.Name == "template" {
		b.templateModes = append(b.templateModes, inBodyIM)
	}

	contextInitialContentModel(tok, context.Name)

	b.im = b.resetInsertionMode()
	b.run()

	kids := append([]*dom.Node(nil), root.Children()...)
	for _, k := range kids {
		k.Remove()
	}
	return kids, *errs
}
